// Package eventloop runs tasks and timer ticks one at a time on a single
// goroutine. It is the host timer facility for the HTTP server and the
// headless CLI; the terminal UI uses bubbletea's own loop instead.
package eventloop

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/debugsim"
)

// ErrStopped is returned when a task is submitted after Run has returned.
var ErrStopped = errors.New("event loop stopped")

// Loop serializes tasks. Everything posted to it, including ticker
// callbacks, runs on the goroutine that called Run.
type Loop struct {
	tasks  chan func()
	done   chan struct{}
	logger *slog.Logger
}

// New creates a loop with the given queue depth. Call Run to start it.
func New(queue int, logger *slog.Logger) *Loop {
	if queue < 1 {
		queue = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		tasks:  make(chan func(), queue),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Run executes tasks until ctx is cancelled. Tasks still queued at that
// point are dropped.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.tasks:
			l.exec(fn)
		}
	}
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("event loop task panicked", "panic", r)
		}
	}()
	fn()
}

// Post queues fn without waiting for it. It reports false if the loop has
// stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case l.tasks <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Do queues fn and waits until it has run.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	task := func() {
		defer close(finished)
		fn()
	}

	select {
	case l.tasks <- task:
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		// Run may have returned with the task still queued.
		select {
		case <-finished:
			return nil
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Every implements debugsim.Scheduler. A timer goroutine posts each tick
// into the loop; Stop must be called from the loop.
func (l *Loop) Every(interval time.Duration, fn func()) debugsim.Ticker {
	t := &ticker{
		timer: time.NewTicker(interval),
		quit:  make(chan struct{}),
	}
	tick := func() {
		if !t.stopped {
			fn()
		}
	}

	go func() {
		for {
			select {
			case <-t.quit:
				return
			case <-l.done:
				t.timer.Stop()
				return
			case <-t.timer.C:
				select {
				case l.tasks <- tick:
				case <-t.quit:
					return
				case <-l.done:
					return
				}
			}
		}
	}()
	return t
}

type ticker struct {
	timer *time.Ticker
	quit  chan struct{}
	once  sync.Once
	// stopped is only read and written on the loop goroutine.
	stopped bool
}

func (t *ticker) Stop() {
	t.stopped = true
	t.once.Do(func() {
		t.timer.Stop()
		close(t.quit)
	})
}
