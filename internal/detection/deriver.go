// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package detection

import (
	"sort"

	"github.com/tomtom215/fleetinsights/internal/models"
)

// Deriver applies every rule to every trip.
type Deriver struct {
	rules []Rule
}

// NewDeriver creates a Deriver with the speeding and long trip rules.
func NewDeriver(config Config) *Deriver {
	return &Deriver{
		rules: []Rule{
			NewSpeedingRule(config.Speeding),
			NewLongTripRule(config.LongTrip),
		},
	}
}

// Derive returns the events for trips, most recent first.
//
// Trips without a start time are skipped: they cannot be identified or
// ordered. Timestamps are ISO-8601, so string order is time order.
func (d *Deriver) Derive(trips []models.Trip) []models.FleetEvent {
	events := make([]models.FleetEvent, 0)
	for i := range trips {
		trip := &trips[i]
		if trip.StartTime == "" {
			continue
		}
		for _, rule := range d.rules {
			if ev := rule.Check(trip); ev != nil {
				events = append(events, *ev)
			}
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp > events[j].Timestamp
	})
	return events
}
