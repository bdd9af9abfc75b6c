package async

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// ErrLoopStopped is returned when work is offered to a loop that has been
// stopped.
var ErrLoopStopped = errors.New("loop stopped")

// Loop runs posted tasks one at a time on a single goroutine. Every piece of
// session state is owned by exactly one loop, so tasks never need locks.
//
// The queue is unbounded: Post never blocks, which lets tasks and transport
// completions post follow-up work without deadlocking the loop.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	running bool
	stopped bool

	wake     chan struct{}
	stopChan chan struct{}
	done     chan struct{}
	calls    sync.WaitGroup

	log *logrus.Entry
}

// NewLoop creates a loop that is not yet running. A nil entry logs through
// the standard logrus logger.
func NewLoop(entry *logrus.Entry) *Loop {
	if entry == nil {
		entry = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Loop{
		wake:     make(chan struct{}, 1),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
		log:      entry,
	}
}

// Start launches the loop goroutine. Calling Start more than once, or after
// Stop, has no effect.
func (l *Loop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running || l.stopped {
		return
	}
	l.running = true
	go l.run()
}

// Stop asks the loop to exit after the task it is currently running. Queued
// tasks are discarded. Stop does not block and is safe to call from a task.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stopped {
		return
	}
	l.stopped = true
	l.queue = nil
	close(l.stopChan)
	if !l.running {
		close(l.done)
	}
}

// Done is closed once the loop goroutine has exited.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Stopped reports whether Stop has been called.
func (l *Loop) Stopped() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stopped
}

// Wait blocks until the loop goroutine and all in-flight Call goroutines have
// finished. It must not be called from a task.
func (l *Loop) Wait() {
	<-l.done
	l.calls.Wait()
}

// Post queues fn to run on the loop. It reports false if the loop has been
// stopped, in which case fn will never run.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Do runs fn on the loop and waits for it to return. It must not be called
// from a task, which would deadlock.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrLoopStopped
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		// A task that was already running completes before done closes.
		select {
		case <-finished:
			return nil
		default:
			return ErrLoopStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) run() {
	defer close(l.done)

	for {
		select {
		case <-l.stopChan:
			return
		case <-l.wake:
		}

		for {
			fn, ok := l.next()
			if !ok {
				break
			}
			l.runTask(fn)
		}
	}
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stopped || len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true
}

func (l *Loop) runTask(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.WithFields(logrus.Fields{
				"function": "runTask",
				"panic":    fmt.Sprint(r),
			}).Error("Loop task panicked")
		}
	}()
	fn()
}

// Call runs fn on its own goroutine and posts done with the result back to
// the loop. If the loop has stopped by the time fn returns, done is dropped.
//
// fn must not touch loop-owned state; done may.
func Call[T any](ctx context.Context, l *Loop, fn func(context.Context) (T, error), done func(T, error)) {
	l.calls.Add(1)
	go func() {
		defer l.calls.Done()

		v, err := fn(ctx)
		if !l.Post(func() { done(v, err) }) {
			l.log.WithFields(logrus.Fields{
				"function": "Call",
				"error":    err,
			}).Debug("Dropped completion for stopped loop")
		}
	}()
}
