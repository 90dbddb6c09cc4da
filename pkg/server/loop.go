package server

import (
	"context"
	"errors"
	"sync"

	"github.com/decred/slog"
)

// ErrLoopStopped is returned for work submitted to a stopped loop.
var ErrLoopStopped = errors.New("loop stopped")

// Loop runs closures one at a time on a single goroutine. Every table,
// and everything a table touches on the server, is owned by it.
type Loop struct {
	log      slog.Logger
	queue    chan func()
	stopChan chan struct{}
	wg       sync.WaitGroup
	started  bool
	stopped  bool
	mu       sync.Mutex
}

// NewLoop creates a loop buffering up to queueSize closures.
func NewLoop(queueSize int, log slog.Logger) *Loop {
	if log == nil {
		log = slog.Disabled
	}
	if queueSize <= 0 {
		queueSize = 1024
	}
	return &Loop{
		log:      log,
		queue:    make(chan func(), queueSize),
		stopChan: make(chan struct{}),
	}
}

// Start begins running posted closures.
func (l *Loop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.started || l.stopped {
		return
	}
	l.started = true
	l.log.Infof("Starting loop")
	l.wg.Add(1)
	go l.run()
}

// Stop waits for the closure being run and drops the queued ones.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stopped {
		return
	}
	l.stopped = true
	close(l.stopChan)
	l.wg.Wait()
	if n := len(l.queue); n > 0 {
		l.log.Warnf("Loop stopped with %d closures pending", n)
	}
	l.log.Infof("Loop stopped")
}

func (l *Loop) run() {
	defer l.wg.Done()
	for {
		select {
		case <-l.stopChan:
			return
		case f := <-l.queue:
			f()
		}
	}
}

// Post queues f, waiting for room in the queue. It is a no-op once the
// loop is stopped. Post must not be called from the loop goroutine when
// the queue may be full.
func (l *Loop) Post(f func()) {
	select {
	case l.queue <- f:
	case <-l.stopChan:
		l.log.Debugf("Loop stopped, dropping closure")
	}
}

// Do runs f on the loop and waits for its result.
func (l *Loop) Do(ctx context.Context, f func() error) error {
	done := make(chan error, 1)
	task := func() { done <- f() }
	select {
	case l.queue <- task:
	case <-l.stopChan:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-done:
		return err
	case <-l.stopChan:
		// The closure may have been queued behind the stop.
		select {
		case err := <-done:
			return err
		default:
			return ErrLoopStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}
