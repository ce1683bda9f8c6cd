// Package worker runs background maintenance for session storage.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Pruner deletes sessions last saved before a cutoff. SQLiteStorage
// implements it; Redis expires sessions on its own.
type Pruner interface {
	PruneSessions(ctx context.Context, cutoff time.Time) (int64, error)
}

const pruneTimeout = 30 * time.Second

// Worker periodically prunes sessions idle for longer than the TTL.
type Worker struct {
	id       string
	pruner   Pruner
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
	log      *slog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

// New creates a new worker instance
func New(pruner Pruner, ttl, interval time.Duration, log *slog.Logger, workerID string) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	if workerID == "" {
		workerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}

	return &Worker{
		id:       workerID,
		pruner:   pruner,
		ttl:      ttl,
		interval: interval,
		now:      time.Now,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start sweeps once immediately and then every interval until Stop.
func (w *Worker) Start() error {
	w.log.Info("Worker starting", "worker_id", w.id, "ttl", w.ttl, "interval", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if _, err := w.sweep(); err != nil {
			// Keep sweeping; a locked database usually clears by the next tick
			w.log.Error("Error pruning sessions", "error", err, "worker_id", w.id)
		}

		select {
		case <-w.ctx.Done():
			w.log.Info("Worker shutting down", "worker_id", w.id)
			return nil
		case <-ticker.C:
		}
	}
}

// Stop gracefully shuts down the worker
func (w *Worker) Stop() {
	w.log.Info("Worker stop requested", "worker_id", w.id)
	w.cancel()
}

// sweep prunes once and returns the number of sessions removed.
func (w *Worker) sweep() (int64, error) {
	ctx, cancel := context.WithTimeout(w.ctx, pruneTimeout)
	defer cancel()

	cutoff := w.now().Add(-w.ttl)
	n, err := w.pruner.PruneSessions(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		w.log.Info("Pruned idle sessions", "worker_id", w.id, "count", n, "cutoff", cutoff)
	} else {
		w.log.Debug("No idle sessions to prune", "worker_id", w.id)
	}
	return n, nil
}
