package db

import (
	"context"
	"sync"
	"time"
)

// DefaultQueueCapacity bounds the number of journal writes waiting for the
// database.
const DefaultQueueCapacity = 64

// WriteFunc performs one queued write.
type WriteFunc func(ctx context.Context) error

// AsyncWriter runs writes on a background goroutine so a busy database never
// delays a poll cycle. Failures are passed to onError.
type AsyncWriter struct {
	queue   chan WriteFunc
	onError func(error)
	wg      sync.WaitGroup

	mu      sync.Mutex
	started bool
	stopped bool
}

// NewAsyncWriter creates a writer with the given queue capacity. onError may
// be nil.
func NewAsyncWriter(capacity int, onError func(error)) *AsyncWriter {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	if onError == nil {
		onError = func(error) {}
	}
	return &AsyncWriter{
		queue:   make(chan WriteFunc, capacity),
		onError: onError,
	}
}

// Start launches the background goroutine. Calling it again does nothing.
func (w *AsyncWriter) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started || w.stopped {
		return
	}
	w.started = true
	w.wg.Add(1)
	go w.run()
}

func (w *AsyncWriter) run() {
	defer w.wg.Done()
	for write := range w.queue {
		if err := write(context.Background()); err != nil {
			w.onError(err)
		}
	}
}

// Enqueue queues write without blocking. It returns false when the writer
// is not running or the queue is full; the caller should then write
// synchronously.
func (w *AsyncWriter) Enqueue(write WriteFunc) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started || w.stopped {
		return false
	}
	select {
	case w.queue <- write:
		return true
	default:
		return false
	}
}

// Pending returns the number of queued writes.
func (w *AsyncWriter) Pending() int {
	return len(w.queue)
}

// Stop refuses new writes and waits for queued ones, up to ctx's deadline.
// It reports whether the queue drained.
func (w *AsyncWriter) Stop(ctx context.Context) bool {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return true
	}
	w.stopped = true
	close(w.queue)
	started := w.started
	w.mu.Unlock()

	if !started {
		return true
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}

// StopWithTimeout is Stop with a fixed limit.
func (w *AsyncWriter) StopWithTimeout(timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return w.Stop(ctx)
}
