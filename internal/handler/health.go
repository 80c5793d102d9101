package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger checks a dependency's connectivity
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a plain function to the Pinger interface
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler serves the liveness and readiness probes
type HealthHandler struct {
	db     Pinger
	redis  Pinger
	logger *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db, redis Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{db: db, redis: redis, logger: logger}
}

// Live handles GET /healthz
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// Ready handles GET /readyz, ready only when both backing stores answer
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Warn("readiness: database not ready", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("database not ready"))
		return
	}
	if err := h.redis.Ping(ctx); err != nil {
		h.logger.Warn("readiness: redis not ready", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("redis not ready"))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}
