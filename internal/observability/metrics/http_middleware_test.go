package metrics

import "testing"

func TestNormalizePath(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"/dashboard", "/dashboard"},
		{"/delete_job/42", "/delete_job/{id}"},
		{"/update_status/7", "/update_status/{id}"},
		{"/edit_job/abc", "/edit_job/abc"},
		{"/", "/"},
		{"/login", "/login"},
	}
	for _, c := range cases {
		if got := normalizePath(c.in); got != c.want {
			t.Errorf("normalizePath(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
