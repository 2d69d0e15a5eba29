// Package worker drains the submission queue and rates each batch.
//
// A single worker consumes the queue so batches are rated one at a time in
// arrival order. Running several workers would let events interleave and
// change the resulting ratings.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/ladder/internal/adapters/mq/queue"
	service "github.com/okian/ladder/internal/app"
	"github.com/okian/ladder/pkg/logger"
	"github.com/okian/ladder/pkg/metrics"
)

// Rater rates one event batch.
type Rater interface {
	RateEvent(ctx context.Context, batch service.EventBatch) (service.EventReport, error)
}

// Queue defines how the worker receives batches.
type Queue interface {
	Dequeue() <-chan queue.Event
}

// ResultFunc observes the outcome of every processed batch.
type ResultFunc func(batch queue.Event, report service.EventReport, err error)

// Worker processes queued batches until the queue closes or it is shut down.
type Worker struct {
	queue    Queue
	rater    Rater
	name     string
	onResult ResultFunc

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// New creates a worker with configuration options.
func New(q Queue, rater Rater, opts ...Option) *Worker {
	w := &Worker{
		queue:    q,
		rater:    rater,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run processes batches until ctx is canceled, Shutdown is called or the
// queue is closed and drained.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	events := w.queue.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case batch, ok := <-events:
			if !ok {
				return
			}
			w.process(ctx, batch)
		}
	}
}

// Done is closed when Run returns.
func (w *Worker) Done() <-chan struct{} { return w.done }

// Shutdown stops the worker after the batch in flight.
func (w *Worker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out", logger.String("worker", w.name))
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Drain waits for the queue to be closed and emptied.
func (w *Worker) Drain(ctx context.Context) error {
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return w.Shutdown(ctx)
	}
}

func (w *Worker) process(ctx context.Context, batch queue.Event) { //nolint:gocritic // hugeParam: received by value from the channel
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	report, err := w.rater.RateEvent(ctx, batch)
	switch {
	case err == nil:
		w.logger.Info(ctx, "queued event rated",
			logger.String("event_id", report.EventID),
			logger.String("tournament_id", report.TournamentID),
			logger.Int("matches", report.Matches),
		)
	case errors.Is(err, service.ErrDuplicateEvent):
		w.logger.Info(ctx, "queued event already rated", logger.String("event_id", batch.EventID))
	default:
		metrics.RecordErrorByComponent("worker", "rate_event")
		w.logger.Error(ctx, "queued event failed",
			logger.String("event_id", batch.EventID),
			logger.Error(err),
		)
	}
	if w.onResult != nil {
		w.onResult(batch, report, err)
	}
}
