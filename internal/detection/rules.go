// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package detection

import (
	"fmt"
	"strconv"

	"github.com/tomtom215/fleetinsights/internal/models"
	"github.com/tomtom215/fleetinsights/internal/normalize"
)

const (
	unknownLocation = "neznámá poloha"
	unknownEndpoint = "?"
)

// SpeedingRule flags trips whose max speed exceeds the configured threshold.
type SpeedingRule struct {
	config SpeedingConfig
}

// NewSpeedingRule creates a speeding rule.
func NewSpeedingRule(config SpeedingConfig) *SpeedingRule {
	return &SpeedingRule{config: config}
}

// Type returns the event type.
func (r *SpeedingRule) Type() models.EventType {
	return models.EventSpeeding
}

// Check evaluates the trip against the speeding thresholds.
func (r *SpeedingRule) Check(trip *models.Trip) *models.FleetEvent {
	if trip.MaxSpeed <= r.config.ThresholdKph {
		return nil
	}

	severity := models.SeverityMedium
	if trip.MaxSpeed > r.config.HighThresholdKph {
		severity = models.SeverityHigh
	}

	location := trip.StartLocation
	if location == "" {
		location = unknownLocation
	}

	return newEvent(trip, models.EventSpeeding, "spd", severity,
		fmt.Sprintf("Max rychlost %s km/h — %s", formatNumber(trip.MaxSpeed), location))
}

// LongTripRule flags trips longer than the configured distance.
type LongTripRule struct {
	config LongTripConfig
}

// NewLongTripRule creates a long trip rule.
func NewLongTripRule(config LongTripConfig) *LongTripRule {
	return &LongTripRule{config: config}
}

// Type returns the event type.
func (r *LongTripRule) Type() models.EventType {
	return models.EventLongTrip
}

// Check evaluates the trip distance.
func (r *LongTripRule) Check(trip *models.Trip) *models.FleetEvent {
	if trip.Distance <= r.config.ThresholdKm {
		return nil
	}

	from, to := trip.StartLocation, trip.EndLocation
	if from == "" {
		from = unknownEndpoint
	}
	if to == "" {
		to = unknownEndpoint
	}

	return newEvent(trip, models.EventLongTrip, "long", models.SeverityLow,
		fmt.Sprintf("Dlouhá jízda: %.0f km (%s → %s)", normalize.RoundHalfUp(trip.Distance), from, to))
}

func newEvent(trip *models.Trip, eventType models.EventType, idTag string, severity models.Severity, message string) *models.FleetEvent {
	var driver *string
	if trip.Driver != nil {
		d := *trip.Driver
		driver = &d
	}
	return &models.FleetEvent{
		ID:          trip.VehicleID + "-" + idTag + "-" + trip.StartTime,
		VehicleID:   trip.VehicleID,
		VehicleName: trip.VehicleName,
		Driver:      driver,
		Type:        eventType,
		Severity:    severity,
		Message:     message,
		Timestamp:   trip.StartTime,
		Lat:         trip.StartLat,
		Lng:         trip.StartLng,
	}
}

// formatNumber prints integral speeds without a fraction.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
