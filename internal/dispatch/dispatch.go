// Package dispatch is the single channel by which worker goroutines re-enter
// the UI loop. Workers post closures; one drain goroutine hands them, in post
// order, to the runner that executes on the UI thread (fyne.Do in the app,
// a direct call in tests and headless tools).
package dispatch

import (
	"context"
	"log/slog"
	"sync"
)

type Queue struct {
	runOnUI func(fn func())
	logger  *slog.Logger

	mu      sync.Mutex
	pending []func()
	wake    chan struct{}
}

// NewQueue builds a queue delivering through runOnUI. Posting never blocks:
// closures accumulate in an unbounded slice guarded by a short critical
// section, so a momentarily busy UI thread cannot deadlock a worker.
func NewQueue(runOnUI func(fn func()), logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default().With("component", "dispatch")
	}

	return &Queue{
		runOnUI: runOnUI,
		logger:  logger,
		wake:    make(chan struct{}, 1),
	}
}

// Post enqueues fn for execution on the UI thread. Safe from any goroutine.
func (q *Queue) Post(fn func()) {
	if fn == nil {
		return
	}
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Start launches the drain loop. Each wakeup takes the whole pending batch
// and runs it inside a single UI hop, preserving post order.
func (q *Queue) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-q.wake:
				q.drain()
			}
		}
	}()
}

// DrainPending synchronously runs everything posted so far. Test helper and
// the delivery path for headless tools that have no running drain loop.
func (q *Queue) DrainPending() {
	q.drain()
}

func (q *Queue) drain() {
	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	q.mu.Unlock()

	if len(batch) == 0 {
		return
	}
	q.runOnUI(func() {
		for _, fn := range batch {
			fn()
		}
	})
}

// PendingLen reports queued-but-undelivered closures. Inspectable in tests.
func (q *Queue) PendingLen() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.pending)
}
