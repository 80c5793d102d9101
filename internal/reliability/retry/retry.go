package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Config holds retry strategy configuration
type Config struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultConfig returns the defaults used for startup dependencies
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts:    5,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
	}
}

// Do runs fn with exponential backoff until it succeeds, the attempts are
// exhausted, or the context is cancelled. Used at boot for the database and
// Redis connections, which may come up after the server in a fresh deploy.
func Do(ctx context.Context, cfg *Config, log *slog.Logger, op string, fn func(ctx context.Context) error) error {
	var lastErr error
	backoff := cfg.InitialBackoff

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if lastErr = fn(ctx); lastErr == nil {
			return nil
		}

		if attempt < cfg.MaxAttempts {
			log.Warn("operation failed, retrying",
				slog.String("operation", op),
				slog.Int("attempt", attempt),
				slog.Int("max_attempts", cfg.MaxAttempts),
				slog.Duration("backoff", backoff),
				slog.String("error", lastErr.Error()),
			)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}

			backoff *= 2
			if backoff > cfg.MaxBackoff {
				backoff = cfg.MaxBackoff
			}
		}
	}

	return fmt.Errorf("operation %q failed after %d attempts: %w", op, cfg.MaxAttempts, lastErr)
}
