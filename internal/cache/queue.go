// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package cache

import (
	"context"
	"sync"
	"time"

	"github.com/zoobzio/clockz"
)

type queuedJob struct {
	ctx  context.Context
	fn   func(context.Context) error
	err  error
	done chan struct{}
}

// SerialQueue runs submitted jobs one at a time in submission order and
// waits a fixed cooldown after each job finishes, whether it succeeded or
// not. It protects upstreams with strict per-client request rate policies.
//
// Jobs only run while Run is active.
type SerialQueue struct {
	cooldown time.Duration
	clock    clockz.Clock
	onLen    func(int)

	mu      sync.Mutex
	pending []*queuedJob
	notify  chan struct{}
}

// NewSerialQueue creates a queue. onLen, if non-nil, is called with the
// number of waiting jobs whenever it changes.
func NewSerialQueue(cooldown time.Duration, clock clockz.Clock, onLen func(int)) *SerialQueue {
	if clock == nil {
		clock = clockz.RealClock
	}
	return &SerialQueue{
		cooldown: cooldown,
		clock:    clock,
		onLen:    onLen,
		notify:   make(chan struct{}, 1),
	}
}

// Len returns the number of jobs waiting to start.
func (q *SerialQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Do enqueues fn and blocks until it has run or ctx is done. A job whose
// context is cancelled before it starts is skipped.
func (q *SerialQueue) Do(ctx context.Context, fn func(context.Context) error) error {
	j := &queuedJob{ctx: ctx, fn: fn, done: make(chan struct{})}

	q.mu.Lock()
	q.pending = append(q.pending, j)
	n := len(q.pending)
	q.mu.Unlock()
	q.reportLen(n)

	select {
	case q.notify <- struct{}{}:
	default:
	}

	select {
	case <-j.done:
		return j.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes jobs until ctx is cancelled.
func (q *SerialQueue) Run(ctx context.Context) error {
	for {
		j := q.next()
		if j == nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-q.notify:
				continue
			}
		}

		if err := j.ctx.Err(); err != nil {
			j.err = err
			close(j.done)
			continue
		}

		j.err = j.fn(j.ctx)
		close(j.done)

		if q.cooldown > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-q.clock.After(q.cooldown):
			}
		}
	}
}

func (q *SerialQueue) next() *queuedJob {
	q.mu.Lock()
	if len(q.pending) == 0 {
		q.mu.Unlock()
		return nil
	}
	j := q.pending[0]
	q.pending[0] = nil
	q.pending = q.pending[1:]
	n := len(q.pending)
	q.mu.Unlock()
	q.reportLen(n)
	return j
}

func (q *SerialQueue) reportLen(n int) {
	if q.onLen != nil {
		q.onLen(n)
	}
}
