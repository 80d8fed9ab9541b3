package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mira.app/federation/common/logger"
)

// Scheduler rebuilds the review queue on a fixed interval. A failing or
// panicking rebuild is logged and the schedule carries on.
type Scheduler struct {
	rebuilder QueueRebuilder
	interval  time.Duration
}

func NewScheduler(rebuilder QueueRebuilder, interval time.Duration) *Scheduler {
	return &Scheduler{rebuilder: rebuilder, interval: interval}
}

// Run triggers one rebuild immediately, then one per interval, until ctx is
// cancelled. It only returns nil.
func (s *Scheduler) Run(ctx context.Context) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "federation.worker.scheduler",
	})

	slog.InfoContext(ctx, "scheduler started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "scheduler stopping")
			return nil
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick performs one scheduled rebuild and reports whether it succeeded.
// It never panics and never returns an error.
func (s *Scheduler) Tick(ctx context.Context) (ok bool) {
	sc := logger.StartSpan(ctx, "scheduler.rebuild_queue")
	defer sc.End()
	ctx = sc.Context()

	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in scheduled rebuild", "panic", fmt.Sprint(r))
			ok = false
		}
	}()

	snap, err := s.rebuilder.Rebuild(ctx)
	if err != nil {
		sc.RecordError(err)
		slog.ErrorContext(ctx, "scheduled queue rebuild failed", "error", err)
		return false
	}
	slog.DebugContext(ctx, "scheduled queue rebuild done", "total", snap.Total)
	return true
}
