package controller

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
)

var ErrLoopClosed = errors.New("event loop closed")

// Loop runs queued work one item at a time on a single goroutine. It is the
// only place controller and generator state is touched from.
type Loop struct {
	queue chan func()
	done  chan struct{}
	log   *log.Logger
}

func NewLoop(size int) *Loop {
	if size <= 0 {
		size = 64
	}
	return &Loop{
		queue: make(chan func(), size),
		done:  make(chan struct{}),
		log:   log.With("component", "loop"),
	}
}

// Run blocks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	l.log.Debug("event loop started")
	for {
		select {
		case <-ctx.Done():
			l.log.Debug("event loop stopped")
			return nil
		case fn := <-l.queue:
			fn()
		}
	}
}

// Post queues fn. It reports false once the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case <-l.done:
		return false
	case l.queue <- fn:
		return true
	}
}

// Do runs fn on the loop and waits for its result.
func (l *Loop) Do(ctx context.Context, fn func() error) error {
	res := make(chan error, 1)
	if !l.Post(func() { res <- fn() }) {
		return ErrLoopClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		// fn may have run right before the loop stopped.
		select {
		case err := <-res:
			return err
		default:
			return ErrLoopClosed
		}
	case err := <-res:
		return err
	}
}

type loopTimer struct {
	timer   *time.Timer
	stopped bool
}

// Stop must be called from the loop. After it returns the callback will not
// run, even if the underlying timer already fired and queued it.
func (t *loopTimer) Stop() bool {
	if t.stopped {
		return false
	}
	t.stopped = true
	return t.timer.Stop()
}

// AfterFunc schedules fn onto the loop after d.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	t := &loopTimer{}
	t.timer = time.AfterFunc(d, func() {
		l.Post(func() {
			if t.stopped {
				return
			}
			t.stopped = true
			fn()
		})
	})
	return t
}
