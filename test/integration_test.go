package test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"testing"

	"github.com/yourorg/jobtrack/internal/domain"
)

func TestFullScenario(t *testing.T) {
	app := NewTestApp(t)
	ctx := context.Background()

	// Register and sign in.
	AssertRedirect(t, app.Register(t, "alice", "pw1"), "/login")
	AssertRedirect(t, app.Login(t, "alice", "pw1"), "/dashboard")

	alice, err := app.Users.GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("registered user not found: %v", err)
	}

	// Track an application.
	resp := app.PostForm(t, "/add_job", url.Values{
		"company_name": {"Acme"},
		"job_title":    {"Engineer"},
		"status":       {"Applied"},
		"date_applied": {"2024-01-01"},
	})
	AssertRedirect(t, resp, "/applications")

	summary, err := app.Reports.Summary(ctx, alice.ID)
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if summary.Total != 1 || summary.Interviewing != 0 || summary.InProgress != 1 {
		t.Errorf("unexpected summary after add: %+v", summary)
	}

	apps, err := app.AppSvc.Board(ctx, alice.ID)
	if err != nil {
		t.Fatalf("board failed: %v", err)
	}
	applied := apps.Columns[domain.StatusApplied]
	if len(applied) != 1 {
		t.Fatalf("expected 1 application in Applied column, got %d", len(applied))
	}
	jobID := applied[0].ID

	// Move it through the pipeline on the board.
	jsonResp := app.PostJSON(t, "/update_status/"+strconv.FormatInt(jobID, 10), `{"status":"Interviewing"}`)
	defer jsonResp.Body.Close()
	AssertStatusCode(t, jsonResp, http.StatusOK)
	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(jsonResp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !body.Success {
		t.Errorf("expected success, got message %q", body.Message)
	}

	summary, err = app.Reports.Summary(ctx, alice.ID)
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if summary.Interviewing != 1 {
		t.Errorf("expected 1 interviewing after status update, got %d", summary.Interviewing)
	}

	// Remove it.
	AssertRedirect(t, app.PostForm(t, "/delete_job/"+strconv.FormatInt(jobID, 10), nil), "/applications")

	summary, err = app.Reports.Summary(ctx, alice.ID)
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if summary.Total != 0 {
		t.Errorf("expected empty tracker after delete, got total %d", summary.Total)
	}
}

func TestCrossUserForbidden(t *testing.T) {
	app := NewTestApp(t)
	ctx := context.Background()

	app.Register(t, "alice", "alicepassword")
	AssertRedirect(t, app.Login(t, "alice", "alicepassword"), "/dashboard")
	app.PostForm(t, "/add_job", url.Values{
		"company_name": {"Acme"},
		"job_title":    {"Engineer"},
		"status":       {"Applied"},
		"date_applied": {"2024-01-01"},
	})

	alice, err := app.Users.GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("alice not found: %v", err)
	}
	records, err := app.Apps.ListByUser(ctx, alice.ID)
	if err != nil || len(records) != 1 {
		t.Fatalf("expected 1 record for alice, got %d (err %v)", len(records), err)
	}
	jobID := records[0].ID

	// Switch to a second account; the jar now carries bob's session.
	app.Get(t, "/logout")
	app.Register(t, "bob", "bobspassword")
	AssertRedirect(t, app.Login(t, "bob", "bobspassword"), "/dashboard")

	resp := app.PostJSON(t, "/update_status/"+strconv.FormatInt(jobID, 10), `{"status":"Rejected"}`)
	defer resp.Body.Close()
	AssertStatusCode(t, resp, http.StatusForbidden)
	raw, _ := io.ReadAll(resp.Body)
	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("failed to decode response %q: %v", raw, err)
	}
	if body.Success || body.Message != "Forbidden" {
		t.Errorf("unexpected forbidden body: %+v", body)
	}

	del := app.PostForm(t, "/delete_job/"+strconv.FormatInt(jobID, 10), nil)
	AssertStatusCode(t, del, http.StatusForbidden)

	// Alice's record is untouched.
	record, err := app.Apps.GetByID(ctx, jobID)
	if err != nil {
		t.Fatalf("record vanished: %v", err)
	}
	if record.Status != domain.StatusApplied || record.UserID != alice.ID {
		t.Errorf("record modified by another user: %+v", record)
	}
}

func TestUnauthenticatedRedirect(t *testing.T) {
	app := NewTestApp(t)

	for _, path := range []string{"/dashboard", "/applications"} {
		AssertRedirect(t, app.Get(t, path), "/login")
	}

	resp := app.PostJSON(t, "/update_status/1", `{"status":"Applied"}`)
	resp.Body.Close()
	AssertStatusCode(t, resp, http.StatusUnauthorized)
}

func TestWrongPasswordNoSession(t *testing.T) {
	app := NewTestApp(t)

	app.Register(t, "alice", "pw1")
	AssertRedirect(t, app.Login(t, "alice", "wrongpassword"), "/login")

	// No session was established.
	AssertRedirect(t, app.Get(t, "/dashboard"), "/login")
}

func TestDuplicateRegistration(t *testing.T) {
	app := NewTestApp(t)

	AssertRedirect(t, app.Register(t, "alice", "pw1"), "/login")
	AssertRedirect(t, app.Register(t, "alice", "otherpassword"), "/login")

	if got := app.Users.Count(); got != 1 {
		t.Errorf("expected 1 user after duplicate registration, got %d", got)
	}
}

func TestUpdateStatusRequiresJSON(t *testing.T) {
	app := NewTestApp(t)

	app.Register(t, "alice", "pw1")
	AssertRedirect(t, app.Login(t, "alice", "pw1"), "/dashboard")
	app.PostForm(t, "/add_job", url.Values{
		"company_name": {"Acme"},
		"job_title":    {"Engineer"},
		"status":       {"Applied"},
		"date_applied": {"2024-01-01"},
	})

	resp := app.PostForm(t, "/update_status/1", url.Values{"status": {"Offer"}})
	AssertStatusCode(t, resp, http.StatusUnsupportedMediaType)
}

func TestLogoutRevokesSession(t *testing.T) {
	app := NewTestApp(t)

	app.Register(t, "alice", "pw1")
	AssertRedirect(t, app.Login(t, "alice", "pw1"), "/dashboard")
	AssertStatusCode(t, app.Get(t, "/dashboard"), http.StatusOK)

	AssertRedirect(t, app.Get(t, "/logout"), "/login")
	AssertRedirect(t, app.Get(t, "/dashboard"), "/login")
}
