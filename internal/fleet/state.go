// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package fleet

import (
	"errors"

	"github.com/tomtom215/fleetinsights/internal/models"
)

// StatusFilter restricts the vehicle list to one status, or "all".
type StatusFilter string

// FilterAll disables status filtering.
const FilterAll StatusFilter = "all"

// Valid reports whether f is "all" or a known vehicle status.
func (f StatusFilter) Valid() bool {
	return f == FilterAll || models.VehicleStatus(f).Valid()
}

// Fallback error messages shown when a load fails.
const (
	msgVehiclesFailed = "Chyba při načítání vozidel"
	msgTripsFailed    = "Chyba při načítání jízd"
	msgEventsFailed   = "Chyba při načítání událostí"
)

// ErrInvalidRange is wrapped by RangeError.
var ErrInvalidRange = errors.New("invalid date range")

// RangeError carries the user-facing date range validation message.
type RangeError struct {
	Message string
}

func (e *RangeError) Error() string { return e.Message }

// Unwrap returns ErrInvalidRange.
func (e *RangeError) Unwrap() error { return ErrInvalidRange }

// Loading flags per data domain.
type Loading struct {
	Vehicles   bool `json:"vehicles"`
	Trips      bool `json:"trips"`
	Events     bool `json:"events"`
	SpeedChart bool `json:"speedChart"`
}

// Errors holds the last load error per data domain, nil after a success.
type Errors struct {
	Vehicles *string `json:"vehicles"`
	Trips    *string `json:"trips"`
	Events   *string `json:"events"`
}

// Filters is the date range and vehicle that drive trip, event and speed
// chart reloads.
type Filters struct {
	VehicleCode string `json:"vehicleCode"`
	From        string `json:"from"`
	To          string `json:"to"`
	Days        int    `json:"days"`
	BinHours    int    `json:"binHours"`
	Error       string `json:"error,omitempty"`
}

// FilterUpdate changes the filters. Nil or empty fields keep their
// current value. Preset, when set, replaces From and To.
type FilterUpdate struct {
	VehicleCode *string
	From        string
	To          string
	Preset      *int
}

// State is a point-in-time copy of everything the store owns.
type State struct {
	Vehicles           []models.Vehicle     `json:"vehicles"`
	Trips              []models.Trip        `json:"trips"`
	Events             []models.FleetEvent  `json:"events"`
	SpeedChart         []models.SpeedPoint  `json:"speedChart"`
	Counts             models.VehicleCounts `json:"counts"`
	LastUpdated        *string              `json:"lastUpdated"`
	SelectedVehicleID  *string              `json:"selectedVehicleId"`
	HighlightVehicleID *string              `json:"highlightVehicleId"`
	HistoryVehicleID   *string              `json:"historyVehicleId"`
	EventsVehicleID    *string              `json:"eventsVehicleId"`
	StatusFilter       StatusFilter         `json:"statusFilter"`
	SearchQuery        string               `json:"searchQuery"`
	Filters            Filters              `json:"filters"`
	Loading            Loading              `json:"loading"`
	Errors             Errors               `json:"errors"`
	Polling            bool                 `json:"polling"`
}

func errorMessage(err error, fallback string) *string {
	if err == nil {
		return nil
	}
	msg := fallback
	if detail := err.Error(); detail != "" {
		msg = fallback + ": " + detail
	}
	return &msg
}
