package chart

import (
	"strings"
	"testing"

	"github.com/yourorg/jobtrack/internal/domain"
)

func TestStatusBars(t *testing.T) {
	points := []domain.ChartPoint{
		{Label: "Applied", Count: 3},
		{Label: "Rejected", Count: 1},
	}

	svg := StatusBars(points, ThemeLight)
	if !strings.HasPrefix(svg, "<svg") {
		t.Fatalf("expected an svg document, got %q", svg[:20])
	}
	for _, want := range []string{"Applied", "Rejected", "Applications by Status", "#ffffff"} {
		if !strings.Contains(svg, want) {
			t.Fatalf("expected svg to contain %q", want)
		}
	}
}

func TestCompanyBarsDarkTheme(t *testing.T) {
	svg := CompanyBars([]domain.ChartPoint{{Label: "Acme", Count: 2}}, ThemeDark)
	if !strings.Contains(svg, "#2b2b4d") {
		t.Fatalf("expected dark background")
	}
	if !strings.Contains(svg, "Top 5 Companies") {
		t.Fatalf("expected chart title")
	}
}

func TestLabelsEscaped(t *testing.T) {
	svg := CompanyBars([]domain.ChartPoint{{Label: "Black & Decker <1>", Count: 1}}, ThemeLight)
	if strings.Contains(svg, "Black & Decker <1>") {
		t.Fatalf("label must be escaped")
	}
	if !strings.Contains(svg, "Black &amp; Decker &lt;1&gt;") {
		t.Fatalf("expected escaped label, got %s", svg)
	}
}

func TestEmptySeries(t *testing.T) {
	if svg := StatusBars(nil, ThemeLight); svg != "" {
		t.Fatalf("expected empty output for empty series")
	}
	if svg := StatusBars([]domain.ChartPoint{{Label: "Applied", Count: 0}}, ThemeLight); svg != "" {
		t.Fatalf("expected empty output for all-zero series")
	}
}

func TestParseTheme(t *testing.T) {
	if ParseTheme("dark") != ThemeDark {
		t.Fatalf("expected dark")
	}
	if ParseTheme("light") != ThemeLight || ParseTheme("") != ThemeLight || ParseTheme("junk") != ThemeLight {
		t.Fatalf("expected light fallback")
	}
}
