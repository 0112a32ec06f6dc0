// Package worker runs scheduled background jobs for the server.
package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/modularstore/admin-api/internal/queue"
	"github.com/modularstore/admin-api/internal/repository"
)

// Retention is how long a product sits in the recycle bin before the
// sweep permanently deletes it. Restoring a product clears its
// deleted_at stamp, so the window restarts on the next soft delete.
const Retention = 24 * time.Hour

// PurgeWorker periodically deletes recycle-bin entries older than
// Retention. Publish, when set, receives a single purged event per
// sweep that removed anything; broker failures never stop the sweep.
type PurgeWorker struct {
	Products *repository.ProductRepo
	Publish  func(ctx context.Context, event queue.ProductLifecycleEvent) error
	Interval time.Duration

	cron *cron.Cron
}

func NewPurgeWorker(p *repository.ProductRepo, interval time.Duration,
	publish func(ctx context.Context, event queue.ProductLifecycleEvent) error) *PurgeWorker {
	return &PurgeWorker{Products: p, Publish: publish, Interval: interval}
}

// Cutoff returns the deleted_at threshold for a sweep running at now.
// Rows stamped at or before the cutoff are purged.
func (w *PurgeWorker) Cutoff(now time.Time) time.Time {
	return now.Add(-Retention)
}

// RunOnce executes a single sweep and reports how many rows it purged.
func (w *PurgeWorker) RunOnce(ctx context.Context) (int64, error) {
	now := time.Now().UTC()
	count, err := w.Products.DeleteExpired(ctx, w.Cutoff(now))
	if err != nil {
		return 0, fmt.Errorf("delete expired products: %w", err)
	}
	if count > 0 && w.Publish != nil {
		event := queue.ProductLifecycleEvent{
			Action:     queue.ActionPurged,
			Count:      count,
			Source:     "sweep",
			OccurredAt: now.Format(time.RFC3339),
		}
		if perr := w.Publish(ctx, event); perr != nil {
			log.Printf("purge-worker: publish sweep event failed: %v", perr)
		}
	}
	return count, nil
}

// Start schedules the sweep on its interval and returns immediately.
func (w *PurgeWorker) Start() error {
	w.cron = cron.New()
	spec := fmt.Sprintf("@every %s", w.Interval)
	_, err := w.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		count, err := w.RunOnce(ctx)
		if err != nil {
			log.Printf("purge-worker: sweep failed: %v", err)
			return
		}
		if count > 0 {
			log.Printf("purge-worker: purged %d expired product(s)", count)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule purge sweep: %w", err)
	}
	w.cron.Start()
	log.Printf("purge-worker: sweeping recycle bin every %s (retention %s)", w.Interval, Retention)
	return nil
}

// Stop halts the scheduler; a sweep already running finishes on its own.
func (w *PurgeWorker) Stop() {
	if w.cron != nil {
		w.cron.Stop()
	}
}
