// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package fleet

import (
	"context"

	"github.com/tomtom215/fleetinsights/internal/daterange"
	"github.com/tomtom215/fleetinsights/internal/logging"
)

// Subscribe registers fn to be called after every state change. fn runs
// on the mutating goroutine and must not block or call back into methods
// that mutate the store. The returned function removes the subscription.
func (s *Store) Subscribe(fn func()) (unsubscribe func()) {
	s.listenersMu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.listenersMu.Unlock()

	return func() {
		s.listenersMu.Lock()
		delete(s.listeners, id)
		s.listenersMu.Unlock()
	}
}

func (s *Store) notify() {
	s.listenersMu.Lock()
	fns := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenersMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// AddViewer registers a live dashboard. The first viewer starts vehicle
// polling, which fetches immediately and then every poll interval.
func (s *Store) AddViewer() int {
	s.viewersMu.Lock()
	defer s.viewersMu.Unlock()
	s.viewers++
	if s.viewers == 1 && s.lifetime.Err() == nil {
		s.poller.Start(s.lifetime)
	}
	return s.viewers
}

// RemoveViewer unregisters a live dashboard. When the last one leaves,
// polling stops and any in-flight poll result is discarded.
func (s *Store) RemoveViewer() int {
	s.viewersMu.Lock()
	defer s.viewersMu.Unlock()
	if s.viewers == 0 {
		return 0
	}
	s.viewers--
	if s.viewers == 0 {
		s.poller.Stop()
	}
	return s.viewers
}

// Viewers returns the number of registered live dashboards.
func (s *Store) Viewers() int {
	s.viewersMu.Lock()
	defer s.viewersMu.Unlock()
	return s.viewers
}

// Polling reports whether vehicle polling is active.
func (s *Store) Polling() bool {
	return s.poller.Running()
}

// Filters returns the current filters.
func (s *Store) Filters() Filters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filtersLocked()
}

func (s *Store) filtersLocked() Filters {
	f := Filters{
		VehicleCode: s.filterCode,
		From:        s.filterRange.From(),
		To:          s.filterRange.To(),
		Error:       s.filterRange.Error(),
	}
	if f.Error == "" {
		f.Days = s.filterRange.Days()
		f.BinHours = s.filterRange.BinHours()
	}
	return f
}

// SetFilters updates the filters. A valid result schedules one debounced
// reload of trips, events and the speed chart, replacing any reload still
// waiting. A reload already in flight is cancelled and its results are
// dropped. An invalid range cancels the pending reload and returns a
// *RangeError.
func (s *Store) SetFilters(upd FilterUpdate) (Filters, error) {
	s.mu.Lock()
	if upd.VehicleCode != nil {
		s.filterCode = *upd.VehicleCode
	}
	switch {
	case upd.Preset != nil:
		s.filterRange.ApplyPreset(*upd.Preset)
	case upd.From != "" && upd.To != "":
		s.filterRange.Set(upd.From, upd.To)
	case upd.From != "":
		s.filterRange.SetFrom(upd.From)
	case upd.To != "":
		s.filterRange.SetTo(upd.To)
	}
	f := s.filtersLocked()
	// Cancelled under s.mu: loads check their context under the same lock
	// before writing.
	if s.reloadCancel != nil {
		s.reloadCancel()
		s.reloadCancel = nil
	}
	var reloadCtx context.Context
	if f.Error == "" {
		reloadCtx, s.reloadCancel = context.WithCancel(s.lifetime)
	}
	s.mu.Unlock()

	if f.Error != "" {
		s.debouncer.Cancel()
		s.notify()
		return f, &RangeError{Message: f.Error}
	}

	s.debouncer.Trigger(func() {
		s.reloadFiltered(reloadCtx, f)
	})
	s.notify()
	return f, nil
}

// ResetFilters restores invalid filter dates to their defaults.
func (s *Store) ResetFilters() Filters {
	s.mu.Lock()
	s.filterRange.ResetToSafeDefaults()
	f := s.filtersLocked()
	s.mu.Unlock()
	s.notify()
	return f
}

func (s *Store) reloadFiltered(ctx context.Context, f Filters) {
	if ctx.Err() != nil {
		return
	}
	ctx = logging.ContextWithNewCorrelationID(ctx)
	from := daterange.ToAPIFrom(f.From)
	to := daterange.ToAPITo(f.To)

	logging.Ctx(ctx).Debug().
		Str("vehicle", f.VehicleCode).
		Str("from", f.From).
		Str("to", f.To).
		Msg("Reloading filtered fleet data")

	if s.LoadTrips(ctx, f.VehicleCode, from, to) != nil && ctx.Err() != nil {
		return
	}
	if s.LoadEvents(ctx, f.VehicleCode, from, to) != nil && ctx.Err() != nil {
		return
	}
	if f.VehicleCode != "" {
		_ = s.LoadSpeedChart(ctx, f.VehicleCode, from, to, f.BinHours)
	}
}
