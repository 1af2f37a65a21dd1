package services

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Dispatcher hands an OCR job to a worker. The pool implementation detaches
// the job from the request; the synchronous one runs it inline (tests).
type Dispatcher interface {
	Dispatch(job func(ctx context.Context) error)
}

// PoolDispatcher runs at most workers jobs at once. It is not a durable
// queue: jobs die with the process, and the persisted status plus the retry
// operation are the recovery path.
type PoolDispatcher struct {
	sem     chan struct{}
	wg      sync.WaitGroup
	timeout time.Duration
	log     *slog.Logger
}

// NewPoolDispatcher builds a dispatcher running at most workers jobs at once.
// Each job gets a fresh context bounded by timeout, detached from the request
// that enqueued it.
func NewPoolDispatcher(workers int, timeout time.Duration, log *slog.Logger) *PoolDispatcher {
	if workers <= 0 {
		workers = 2
	}
	return &PoolDispatcher{
		sem:     make(chan struct{}, workers),
		timeout: timeout,
		log:     log,
	}
}

// Dispatch enqueues the job and returns immediately. The job waits for a
// worker slot on its own goroutine, so a saturated pool delays the job, never
// the caller.
func (d *PoolDispatcher) Dispatch(job func(ctx context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.sem <- struct{}{}
		defer func() { <-d.sem }()

		ctx := context.Background()
		if d.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d.timeout)
			defer cancel()
		}
		if err := job(ctx); err != nil {
			// The job already recorded its failure in metadata; this is the
			// last-resort trace for operators.
			d.log.Error("background ocr job failed", "error", err)
		}
	}()
}

// Wait blocks until every dispatched job has finished. Used on shutdown.
func (d *PoolDispatcher) Wait() {
	d.wg.Wait()
}

// SyncDispatcher runs jobs inline on the caller's context.
type SyncDispatcher struct{}

func (SyncDispatcher) Dispatch(job func(ctx context.Context) error) {
	_ = job(context.Background())
}
