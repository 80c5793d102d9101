package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/yourorg/jobtrack/internal/domain"
	"github.com/yourorg/jobtrack/internal/observability/metrics"
)

// StatsWorker periodically refreshes the stored-application gauges from the
// database so /metrics reflects reality even across restarts.
type StatsWorker struct {
	appRepo  domain.ApplicationRepository
	logger   *slog.Logger
	interval time.Duration
}

// NewStatsWorker creates a new stats worker
func NewStatsWorker(appRepo domain.ApplicationRepository, logger *slog.Logger, interval time.Duration) *StatsWorker {
	return &StatsWorker{
		appRepo:  appRepo,
		logger:   logger,
		interval: interval,
	}
}

// Start begins the refresh loop. It runs until the context is cancelled.
func (w *StatsWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("stats worker started", slog.Duration("interval", w.interval))

	w.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stats worker stopped")
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *StatsWorker) refresh(ctx context.Context) {
	counts, err := w.appRepo.GlobalStatusCounts(ctx)
	if err != nil {
		w.logger.Error("failed to refresh application stats",
			slog.String("error", err.Error()),
		)
		return
	}

	// Statuses absent from the result must be reset, not left stale.
	for _, status := range domain.Statuses {
		metrics.SetApplications(string(status), counts[status])
	}
}
