// Package scheduler provides the time source used by the game session for
// clock ticks, grace periods and room sweeps.
package scheduler

import (
	"sync"
	"time"
)

// Handle cancels a scheduled callback. Stop is idempotent.
type Handle interface {
	Stop()
}

// Scheduler runs callbacks after a delay or on an interval.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Handle
	Every(d time.Duration, fn func()) Handle
}

// Dispatch delivers a callback onto the owner's event loop.
type Dispatch func(fn func())

// Real schedules callbacks on wall-clock time. Every callback is handed to
// dispatch rather than run on the timer goroutine.
type Real struct {
	dispatch Dispatch
}

func NewReal(dispatch Dispatch) *Real {
	return &Real{dispatch: dispatch}
}

func (r *Real) AfterFunc(d time.Duration, fn func()) Handle {
	h := &realHandle{}
	h.timer = time.AfterFunc(d, func() {
		r.dispatch(func() {
			if h.stopped() {
				return
			}
			fn()
		})
	})
	return h
}

func (r *Real) Every(d time.Duration, fn func()) Handle {
	h := &realHandle{stop: make(chan struct{})}
	go func() {
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		for {
			select {
			case <-h.stop:
				return
			case <-ticker.C:
				r.dispatch(func() {
					if h.stopped() {
						return
					}
					fn()
				})
			}
		}
	}()
	return h
}

type realHandle struct {
	mu     sync.Mutex
	timer  *time.Timer
	stop   chan struct{}
	closed bool
}

func (h *realHandle) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	if h.timer != nil {
		h.timer.Stop()
	}
	if h.stop != nil {
		close(h.stop)
	}
}

func (h *realHandle) stopped() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}
