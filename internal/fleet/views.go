// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package fleet

import (
	"fmt"
	"strings"

	"github.com/tomtom215/fleetinsights/internal/models"
)

// SelectVehicle sets the selected vehicle. An empty id clears it.
func (s *Store) SelectVehicle(id string) {
	s.mu.Lock()
	s.selectedID = id
	s.mu.Unlock()
	s.notify()
}

// HighlightVehicle marks a vehicle on the map and clears the status filter
// and search so the vehicle is visible.
func (s *Store) HighlightVehicle(id string) {
	s.mu.Lock()
	s.highlightID = id
	s.statusFilter = FilterAll
	s.searchQuery = ""
	s.mu.Unlock()
	s.notify()
}

// ClearHighlight removes the map highlight.
func (s *Store) ClearHighlight() {
	s.mu.Lock()
	s.highlightID = ""
	s.mu.Unlock()
	s.notify()
}

// NavigateToHistory opens trip history for a vehicle.
func (s *Store) NavigateToHistory(id string) {
	s.mu.Lock()
	s.historyID = id
	s.mu.Unlock()
	s.notify()
}

// ClearHistoryVehicle closes the trip history vehicle.
func (s *Store) ClearHistoryVehicle() {
	s.NavigateToHistory("")
}

// NavigateToEvents opens the event list for a vehicle.
func (s *Store) NavigateToEvents(id string) {
	s.mu.Lock()
	s.eventsID = id
	s.mu.Unlock()
	s.notify()
}

// ClearEventsVehicle closes the event list vehicle.
func (s *Store) ClearEventsVehicle() {
	s.NavigateToEvents("")
}

// SetStatusFilter restricts FilteredVehicles to one status.
func (s *Store) SetStatusFilter(f StatusFilter) error {
	if !f.Valid() {
		return fmt.Errorf("unknown status filter %q", f)
	}
	s.mu.Lock()
	s.statusFilter = f
	s.mu.Unlock()
	s.notify()
	return nil
}

// SetSearchQuery sets the global search. A query that matches exactly one
// vehicle selects it.
func (s *Store) SetSearchQuery(query string) {
	query = strings.TrimSpace(query)

	s.mu.Lock()
	s.searchQuery = query
	if query != "" {
		var match string
		n := 0
		for i := range s.vehicles {
			if matchesSearch(&s.vehicles[i], strings.ToLower(query)) {
				match = s.vehicles[i].ID
				n++
			}
		}
		if n == 1 {
			s.selectedID = match
		}
	}
	s.mu.Unlock()
	s.notify()
}

func matchesSearch(v *models.Vehicle, lowerQuery string) bool {
	return strings.Contains(strings.ToLower(v.Code), lowerQuery) ||
		strings.Contains(strings.ToLower(v.Name), lowerQuery) ||
		strings.Contains(strings.ToLower(v.Plate), lowerQuery)
}

// SelectedVehicle returns the selected vehicle, if it is in the list.
func (s *Store) SelectedVehicle() (models.Vehicle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.vehicles {
		if s.vehicles[i].ID == s.selectedID {
			return copyVehicle(s.vehicles[i]), true
		}
	}
	return models.Vehicle{}, false
}

// VehicleCounts counts vehicles per status.
func (s *Store) VehicleCounts() models.VehicleCounts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.CountVehicles(s.vehicles)
}

// AllVehicleCodes returns the non-empty codes of known vehicles in list
// order.
func (s *Store) AllVehicleCodes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	codes := make([]string, 0, len(s.vehicles))
	for i := range s.vehicles {
		if s.vehicles[i].Code != "" {
			codes = append(codes, s.vehicles[i].Code)
		}
	}
	return codes
}

// FilteredVehicles applies the status filter and a case-insensitive search
// over code, name and plate. Empty arguments fall back to the store's own
// filter and query.
func (s *Store) FilteredVehicles(status StatusFilter, query string) []models.Vehicle {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if status == "" {
		status = s.statusFilter
	}
	if query == "" {
		query = s.searchQuery
	}
	lowerQuery := strings.ToLower(strings.TrimSpace(query))

	out := make([]models.Vehicle, 0, len(s.vehicles))
	for i := range s.vehicles {
		v := &s.vehicles[i]
		if status != FilterAll && string(v.Status) != string(status) {
			continue
		}
		if lowerQuery != "" && !matchesSearch(v, lowerQuery) {
			continue
		}
		out = append(out, copyVehicle(*v))
	}
	return out
}

// Snapshot returns a deep copy of the store state.
func (s *Store) Snapshot() State {
	polling := s.Polling()

	s.mu.RLock()
	defer s.mu.RUnlock()

	vehicles := make([]models.Vehicle, len(s.vehicles))
	for i := range s.vehicles {
		vehicles[i] = copyVehicle(s.vehicles[i])
	}
	trips := make([]models.Trip, len(s.trips))
	for i := range s.trips {
		trips[i] = s.trips[i]
		trips[i].Driver = copyString(s.trips[i].Driver)
	}
	events := make([]models.FleetEvent, len(s.events))
	for i := range s.events {
		events[i] = s.events[i]
		events[i].Driver = copyString(s.events[i].Driver)
	}
	points := make([]models.SpeedPoint, len(s.speedChart))
	copy(points, s.speedChart)

	return State{
		Vehicles:           vehicles,
		Trips:              trips,
		Events:             events,
		SpeedChart:         points,
		Counts:             models.CountVehicles(s.vehicles),
		LastUpdated:        models.StringPtr(s.lastUpdated),
		SelectedVehicleID:  models.StringPtr(s.selectedID),
		HighlightVehicleID: models.StringPtr(s.highlightID),
		HistoryVehicleID:   models.StringPtr(s.historyID),
		EventsVehicleID:    models.StringPtr(s.eventsID),
		StatusFilter:       s.statusFilter,
		SearchQuery:        s.searchQuery,
		Filters:            s.filtersLocked(),
		Loading:            s.loading,
		Errors: Errors{
			Vehicles: copyString(s.errs.Vehicles),
			Trips:    copyString(s.errs.Trips),
			Events:   copyString(s.errs.Events),
		},
		Polling: polling,
	}
}

// Trips returns a copy of the current trip list.
func (s *Store) Trips() []models.Trip {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Trip, len(s.trips))
	copy(out, s.trips)
	return out
}

// Events returns a copy of the current event list.
func (s *Store) Events() []models.FleetEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.FleetEvent, len(s.events))
	copy(out, s.events)
	return out
}

// SpeedChart returns a copy of the current speed chart.
func (s *Store) SpeedChart() []models.SpeedPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.SpeedPoint, len(s.speedChart))
	copy(out, s.speedChart)
	return out
}

// Errors returns the current per-domain errors.
func (s *Store) Errors() Errors {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Errors{
		Vehicles: copyString(s.errs.Vehicles),
		Trips:    copyString(s.errs.Trips),
		Events:   copyString(s.errs.Events),
	}
}

func copyVehicle(v models.Vehicle) models.Vehicle {
	v.Driver = copyString(v.Driver)
	if v.FuelLevel != nil {
		f := *v.FuelLevel
		v.FuelLevel = &f
	}
	return v
}

func copyString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
