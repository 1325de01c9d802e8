// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/fleetinsights/internal/logging"
)

// Poller calls a function once when started and then after every interval.
// The interval is measured from the end of one call to the start of the
// next, so calls never overlap.
type Poller struct {
	name     string
	interval time.Duration
	sched    *Scheduler
	fn       func(context.Context)

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewPoller creates a stopped poller.
func NewPoller(name string, interval time.Duration, sched *Scheduler, fn func(context.Context)) *Poller {
	return &Poller{
		name:     name,
		interval: interval,
		sched:    sched,
		fn:       fn,
	}
}

// Start begins polling. Starting a running poller is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.wg.Add(1)
	p.mu.Unlock()

	logging.Debug().Str("poller", p.name).Dur("interval", p.interval).Msg("Poller started")

	go p.loop(loopCtx)
}

// Stop cancels the poll context and waits for an in-flight call to return.
// It must not be called from inside the polled function.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.cancel()
	p.mu.Unlock()

	p.wg.Wait()
	logging.Debug().Str("poller", p.name).Msg("Poller stopped")
}

// Running reports whether the poller is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Poller) loop(ctx context.Context) {
	defer p.wg.Done()

	for {
		p.fn(ctx)

		select {
		case <-ctx.Done():
			return
		case <-p.sched.Clock().After(p.interval):
		}
	}
}
