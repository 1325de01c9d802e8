// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package detection

import (
	"github.com/tomtom215/fleetinsights/internal/models"
)

// Rule evaluates one trip and returns an event, or nil when the trip does
// not match. Rules must be pure.
type Rule interface {
	Type() models.EventType
	Check(trip *models.Trip) *models.FleetEvent
}

// SpeedingConfig configures the speeding rule.
type SpeedingConfig struct {
	// ThresholdKph is the max speed above which an event is emitted.
	ThresholdKph float64 `json:"threshold_kph"`

	// HighThresholdKph raises severity to high when exceeded.
	HighThresholdKph float64 `json:"high_threshold_kph"`
}

// DefaultSpeedingConfig returns the stock thresholds.
func DefaultSpeedingConfig() SpeedingConfig {
	return SpeedingConfig{
		ThresholdKph:     110,
		HighThresholdKph: 130,
	}
}

// LongTripConfig configures the long trip rule.
type LongTripConfig struct {
	ThresholdKm float64 `json:"threshold_km"`
}

// DefaultLongTripConfig returns the stock threshold.
func DefaultLongTripConfig() LongTripConfig {
	return LongTripConfig{ThresholdKm: 300}
}

// Config bundles all rule configuration.
type Config struct {
	Speeding SpeedingConfig
	LongTrip LongTripConfig
}

// DefaultConfig returns the stock rule configuration.
func DefaultConfig() Config {
	return Config{
		Speeding: DefaultSpeedingConfig(),
		LongTrip: DefaultLongTripConfig(),
	}
}
