// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package models

// EventType identifies the rule that produced a FleetEvent.
type EventType string

const (
	EventSpeeding EventType = "speeding"
	EventLongTrip EventType = "long_trip"
)

// Severity ranks a FleetEvent.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// FleetEvent is derived from a single Trip. There is no upstream events
// endpoint; events are recomputed whenever the source trips change.
type FleetEvent struct {
	ID          string    `json:"id"`
	VehicleID   string    `json:"vehicleId"`
	VehicleName string    `json:"vehicleName"`
	Driver      *string   `json:"driver"`
	Type        EventType `json:"type"`
	Severity    Severity  `json:"severity"`
	Message     string    `json:"message"`
	Timestamp   string    `json:"timestamp"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
}
