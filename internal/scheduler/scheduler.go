// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package scheduler

import (
	"sync"
	"time"

	"github.com/zoobzio/clockz"
)

// Scheduler creates one-shot timers on a shared clock.
type Scheduler struct {
	clock clockz.Clock
}

// New creates a scheduler. A nil clock uses the real clock.
func New(clock clockz.Clock) *Scheduler {
	if clock == nil {
		clock = clockz.RealClock
	}
	return &Scheduler{clock: clock}
}

// Clock returns the scheduler's clock.
func (s *Scheduler) Clock() clockz.Clock {
	return s.clock
}

// Handle is a scheduled callback.
type Handle struct {
	mu        sync.Mutex
	cancelled bool
	fired     bool
	stop      chan struct{}
}

// Schedule runs fn once after delay on its own goroutine.
func (s *Scheduler) Schedule(delay time.Duration, fn func()) *Handle {
	h := &Handle{stop: make(chan struct{})}

	go func() {
		if delay > 0 {
			select {
			case <-h.stop:
				return
			case <-s.clock.After(delay):
			}
		}

		h.mu.Lock()
		if h.cancelled {
			h.mu.Unlock()
			return
		}
		h.fired = true
		h.mu.Unlock()

		fn()
	}()

	return h
}

// Cancel prevents the callback from running. It reports whether the
// callback was still pending. Calling Cancel more than once is safe.
func (h *Handle) Cancel() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancelled || h.fired {
		return false
	}
	h.cancelled = true
	close(h.stop)
	return true
}

// Pending reports whether the callback has neither fired nor been cancelled.
func (h *Handle) Pending() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.cancelled && !h.fired
}
