package audit

import (
	"context"
	"log/slog"
	"time"
)

// Logger emits structured audit events for security-relevant actions.
// Events are log-only; nothing is persisted beyond the log stream.
type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{logger: logger}
}

func (al *Logger) LogAction(ctx context.Context, userID int64, action, resource string, resourceID int64, status string) {
	al.logger.Info("audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.Int64("resource_id", resourceID),
		slog.Int64("user_id", userID),
		slog.String("status", status),
		slog.Time("timestamp", time.Now()),
	)
}

func (al *Logger) LogLogin(ctx context.Context, userID int64, status string) {
	al.LogAction(ctx, userID, "login", "session", 0, status)
}

func (al *Logger) LogLogout(ctx context.Context, userID int64) {
	al.LogAction(ctx, userID, "logout", "session", 0, "ok")
}

func (al *Logger) LogRegistration(ctx context.Context, userID int64, status string) {
	al.LogAction(ctx, userID, "register", "user", userID, status)
}

func (al *Logger) LogDeletion(ctx context.Context, userID, applicationID int64, status string) {
	al.LogAction(ctx, userID, "delete", "application", applicationID, status)
}

func (al *Logger) LogDenied(ctx context.Context, userID, applicationID int64) {
	al.LogAction(ctx, userID, "access_denied", "application", applicationID, "denied")
}
