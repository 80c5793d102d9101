package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func capture() (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewLogger(slog.New(slog.NewJSONHandler(&buf, nil))), &buf
}

func lastEvent(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var event map[string]any
	if err := json.Unmarshal(buf.Bytes(), &event); err != nil {
		t.Fatalf("failed to decode audit line %q: %v", buf.String(), err)
	}
	return event
}

func TestLogRegistration(t *testing.T) {
	al, buf := capture()
	al.LogRegistration(context.Background(), 7, "ok")

	event := lastEvent(t, buf)
	if event["action"] != "register" || event["resource"] != "user" {
		t.Errorf("unexpected event: %v", event)
	}
	if event["user_id"] != float64(7) || event["status"] != "ok" {
		t.Errorf("unexpected attributes: %v", event)
	}
}

func TestLogDenied(t *testing.T) {
	al, buf := capture()
	al.LogDenied(context.Background(), 1, 42)

	event := lastEvent(t, buf)
	if event["action"] != "access_denied" || event["status"] != "denied" {
		t.Errorf("unexpected event: %v", event)
	}
	if event["resource_id"] != float64(42) {
		t.Errorf("unexpected resource id: %v", event)
	}
}
