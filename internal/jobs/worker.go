package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/errgroup"

	"github.com/ipam-rir/rir-manager/internal/telemetry"
)

const (
	// DefaultConcurrency is the number of worker goroutines when unset.
	DefaultConcurrency = 2

	// DefaultRetryInitial and DefaultRetryMax bound the wait after a failed
	// dequeue.
	DefaultRetryInitial = 500 * time.Millisecond
	DefaultRetryMax     = 30 * time.Second
)

// Handler runs one job. A returned error is logged and counted; the job is
// not retried.
type Handler func(ctx context.Context, job Job) error

// Worker pulls jobs off a Queue and dispatches them by type.
type Worker struct {
	queue        Queue
	concurrency  int
	metrics      *telemetry.JobMetrics
	retryInitial time.Duration
	retryMax     time.Duration

	mu       sync.RWMutex
	handlers map[Type]Handler
}

// WorkerOption configures a Worker
type WorkerOption func(*Worker)

// WithConcurrency sets the number of goroutines pulling from the queue.
func WithConcurrency(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.concurrency = n
		}
	}
}

// WithJobMetrics records duration and result per processed job.
func WithJobMetrics(m *telemetry.JobMetrics) WorkerOption {
	return func(w *Worker) {
		w.metrics = m
	}
}

// WithDequeueBackOff sets the first and the largest wait between dequeue
// attempts after the queue reports an error.
func WithDequeueBackOff(initial, maxWait time.Duration) WorkerOption {
	return func(w *Worker) {
		if initial > 0 {
			w.retryInitial = initial
		}
		if maxWait >= w.retryInitial {
			w.retryMax = maxWait
		}
	}
}

// NewWorker creates a worker reading from q.
func NewWorker(q Queue, opts ...WorkerOption) *Worker {
	w := &Worker{
		queue:        q,
		concurrency:  DefaultConcurrency,
		retryInitial: DefaultRetryInitial,
		retryMax:     DefaultRetryMax,
		handlers:     make(map[Type]Handler),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Register installs the handler for t, replacing any previous one.
func (w *Worker) Register(t Type, h Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[t] = h
}

func (w *Worker) handler(t Type) (Handler, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	h, ok := w.handlers[t]
	return h, ok
}

// Run processes jobs until ctx is cancelled or the queue is closed, and
// returns nil on either. Other dequeue errors are logged and retried with
// exponential backoff.
func (w *Worker) Run(ctx context.Context) error {
	slog.Info("Job worker started", "concurrency", w.concurrency)
	defer slog.Info("Job worker stopped")

	g, gctx := errgroup.WithContext(ctx)
	for range w.concurrency {
		g.Go(func() error {
			return w.loop(gctx)
		})
	}
	return g.Wait()
}

func (w *Worker) loop(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = w.retryInitial
	b.MaxInterval = w.retryMax
	b.Reset()

	for {
		job, err := w.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, ErrQueueClosed) || ctx.Err() != nil {
				return nil
			}
			wait := b.NextBackOff()
			slog.Warn("Failed to dequeue job, retrying", "error", err, "wait", wait)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(wait):
			}
			continue
		}
		b.Reset()
		_ = w.Process(ctx, job)
	}
}

// Process runs a single job synchronously. Panics in the handler are
// recovered and reported as errors.
func (w *Worker) Process(ctx context.Context, job Job) (err error) {
	start := time.Now()
	logger := slog.With("job_id", job.ID.String(), "job_type", string(job.Type))

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
		w.metrics.RecordJob(ctx, string(job.Type), time.Since(start), err == nil)
		if err != nil {
			logger.Error("Job failed", "error", err, "duration", time.Since(start))
			return
		}
		logger.Info("Job completed", "duration", time.Since(start))
	}()

	h, ok := w.handler(job.Type)
	if !ok {
		return fmt.Errorf("no handler registered for job type %q", job.Type)
	}
	logger.Debug("Job started")
	return h(ctx, job)
}
