// Package loop provides the daemon's single UI event loop. Every piece of
// indicator state is owned by the loop goroutine; other goroutines hand work
// to it with Post and never touch that state directly.
package loop

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrStopped is returned when work is handed to a loop that is no longer running.
var ErrStopped = errors.New("event loop stopped")

// Poster accepts work to run on the loop goroutine.
type Poster interface {
	Post(fn func()) bool
}

// Loop is an unbounded FIFO of funcs drained by a single goroutine.
type Loop struct {
	logger  *slog.Logger
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// New creates a loop. Call Run to start draining it.
func New(logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		logger:  logger,
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
}

// Post queues fn to run on the loop goroutine. It never blocks and reports
// false once the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.stopped:
		return false
	default:
	}

	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Invoke runs fn on the loop goroutine and waits for it to finish.
// It must not be called from the loop goroutine itself.
func (l *Loop) Invoke(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if !l.Post(func() {
		defer close(done)
		fn()
	}) {
		return ErrStopped
	}

	select {
	case <-done:
		return nil
	case <-l.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drains the queue until ctx is cancelled. Work still queued at that
// point is discarded.
func (l *Loop) Run(ctx context.Context) {
	defer l.stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Debug("Event loop stopping")
			return
		case <-l.wake:
		}

		for {
			l.mu.Lock()
			if len(l.queue) == 0 {
				l.mu.Unlock()
				break
			}
			batch := l.queue
			l.queue = nil
			l.mu.Unlock()

			for _, fn := range batch {
				if ctx.Err() != nil {
					return
				}
				l.run(fn)
			}
		}
	}
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.stopped
}

func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("panic in event loop task", "recover", r)
		}
	}()
	fn()
}

func (l *Loop) stop() {
	l.once.Do(func() {
		close(l.stopped)
		l.mu.Lock()
		l.queue = nil
		l.mu.Unlock()
	})
}

// Go runs call on its own goroutine and delivers the result to done on the
// loop goroutine. If the loop has stopped by the time call returns, done is
// never invoked.
func Go[T any](p Poster, call func() (T, error), done func(T, error)) {
	go func() {
		v, err := call()
		p.Post(func() { done(v, err) })
	}()
}
