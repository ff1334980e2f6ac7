package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

type persistJob struct {
	slot    string
	write   func(ctx context.Context) error
	done    chan error
	barrier chan struct{}
}

// persistWriter applies slot writes one at a time in enqueue order. Failed
// writes are logged and counted, never retried.
type persistWriter struct {
	jobs     chan persistJob
	logger   zerolog.Logger
	failures atomic.Int64

	mu       sync.Mutex
	closed   bool
	finished chan struct{}
}

func newPersistWriter(logger zerolog.Logger, buffer int) *persistWriter {
	w := &persistWriter{
		jobs:     make(chan persistJob, buffer),
		logger:   logger,
		finished: make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *persistWriter) run() {
	defer close(w.finished)
	for job := range w.jobs {
		if job.barrier != nil {
			close(job.barrier)
			continue
		}
		err := job.write(context.Background())
		if err != nil {
			w.failures.Add(1)
			w.logger.Error().Err(err).Str("slot", job.slot).Msg("persist write failed")
		} else {
			w.logger.Debug().Str("slot", job.slot).Msg("slot persisted")
		}
		if job.done != nil {
			job.done <- err
		}
	}
}

// enqueue reports false once the writer is closed.
func (w *persistWriter) enqueue(job persistJob) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		w.logger.Warn().Str("slot", job.slot).Msg("persist writer closed, dropping write")
		return false
	}
	w.jobs <- job
	return true
}

// flush waits until every write enqueued before it has been applied.
func (w *persistWriter) flush(ctx context.Context) error {
	barrier := make(chan struct{})
	if !w.enqueue(persistJob{slot: "flush", barrier: barrier}) {
		return nil
	}
	select {
	case <-barrier:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close drains pending writes and stops the goroutine.
func (w *persistWriter) close() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.jobs)
	}
	w.mu.Unlock()
	<-w.finished
}

func (w *persistWriter) failureCount() int64 {
	return w.failures.Load()
}

var errWriterClosed = errors.New("persist writer closed")
