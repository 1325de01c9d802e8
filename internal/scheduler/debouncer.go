// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package scheduler

import (
	"sync"
	"time"
)

// Debouncer delays a callback until triggers stop arriving for the quiet
// period. It holds at most one pending callback.
type Debouncer struct {
	sched *Scheduler
	delay time.Duration

	mu     sync.Mutex
	handle *Handle
	gen    uint64
}

// NewDebouncer creates a debouncer with the given quiet period.
func NewDebouncer(sched *Scheduler, delay time.Duration) *Debouncer {
	return &Debouncer{sched: sched, delay: delay}
}

// Trigger cancels any pending callback and schedules fn.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.handle != nil {
		d.handle.Cancel()
	}
	d.gen++
	gen := d.gen

	d.handle = d.sched.Schedule(d.delay, func() {
		d.mu.Lock()
		if d.gen != gen {
			d.mu.Unlock()
			return
		}
		d.handle = nil
		d.mu.Unlock()
		fn()
	})
}

// Cancel drops the pending callback, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.handle != nil {
		d.handle.Cancel()
		d.handle = nil
	}
	d.gen++
}

// Pending reports whether a callback is waiting to fire.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.handle != nil
}
