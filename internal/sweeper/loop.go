package sweeper

import (
	"context"
	"log/slog"
	"time"
)

// Loop runs sweeps on a fixed interval until the context is cancelled. The
// first sweep starts immediately.
func Loop(ctx context.Context, s *Sweeper, interval time.Duration, logger *slog.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.Run(ctx); err != nil {
			logger.ErrorContext(ctx, "sweep failed", slog.Any("error", err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
