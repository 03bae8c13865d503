package activity

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// RetentionWorker periodically deletes records older than the retention
// period.
type RetentionWorker struct {
	service   ActivityService
	retention time.Duration
	interval  time.Duration
	done      chan struct{}
}

// NewRetentionWorker constructs a worker. Non-positive values fall back to
// DefaultRetention and a daily interval.
func NewRetentionWorker(service ActivityService, retention, interval time.Duration) *RetentionWorker {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &RetentionWorker{
		service:   service,
		retention: retention,
		interval:  interval,
		done:      make(chan struct{}),
	}
}

// Start runs one cleanup immediately and then one per interval until ctx
// is cancelled. It should be called in a goroutine.
func (w *RetentionWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer func() {
		ticker.Stop()
		close(w.done)
	}()

	for {
		if _, err := w.service.Cleanup(ctx, w.retention); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("activity retention cleanup failed", slog.Any("error", err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Wait blocks until Start has returned.
func (w *RetentionWorker) Wait() {
	<-w.done
}
