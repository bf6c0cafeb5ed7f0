package core

// scheduler.go runs sync periodically for long-running servers.
//
// A tick that lands while another workflow holds the guard is skipped, not
// queued. Failures are logged and never stop the scheduler.

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// StartSyncScheduler runs Sync immediately, then every interval until ctx
// is cancelled. A non-positive interval returns at once.
func (s *Service) StartSyncScheduler(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	slog.Info("sync scheduler started", "interval", interval)

	s.runScheduledSync(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("sync scheduler stopped")
			return
		case <-ticker.C:
			s.runScheduledSync(ctx)
		}
	}
}

// runScheduledSync performs one sync cycle.
func (s *Service) runScheduledSync(ctx context.Context) {
	start := time.Now()

	result, err := s.Sync(ctx)
	switch {
	case errors.Is(err, ErrBusy):
		slog.Info("scheduled sync skipped, workflow busy")
		return
	case err != nil:
		slog.Error("scheduled sync failed", "run_id", result.RunID, "error", err)
		return
	}

	slog.Info("scheduled sync completed",
		"run_id", result.RunID,
		"sheets", len(result.Sheets),
		"failed", result.Failed(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
