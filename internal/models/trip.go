// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package models

// Trip is one completed journey by one vehicle.
//
// Upstream trip records never carry the vehicle, so VehicleID is injected by
// the caller and VehicleName starts out as the code until joined against the
// vehicle list.
type Trip struct {
	ID            string  `json:"id"`
	VehicleID     string  `json:"vehicleId"`
	VehicleName   string  `json:"vehicleName"`
	Driver        *string `json:"driver"`
	StartTime     string  `json:"startTime"`
	EndTime       string  `json:"endTime"`
	StartLocation string  `json:"startLocation"`
	EndLocation   string  `json:"endLocation"`
	StartLat      float64 `json:"startLat"`
	StartLng      float64 `json:"startLng"`
	EndLat        float64 `json:"endLat"`
	EndLng        float64 `json:"endLng"`
	Distance      float64 `json:"distance"`
	Duration      int     `json:"duration"`
	MaxSpeed      float64 `json:"maxSpeed"`
	AvgSpeed      float64 `json:"avgSpeed"`
}

// DriverName returns the trip-level driver or "".
func (t *Trip) DriverName() string {
	if t.Driver == nil {
		return ""
	}
	return *t.Driver
}
