// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package models

// VehicleStatus is derived from speed and position age, never read from upstream.
type VehicleStatus string

const (
	StatusMoving  VehicleStatus = "moving"
	StatusIdle    VehicleStatus = "idle"
	StatusOffline VehicleStatus = "offline"
)

// Valid reports whether s is one of the known statuses.
func (s VehicleStatus) Valid() bool {
	switch s {
	case StatusMoving, StatusIdle, StatusOffline:
		return true
	}
	return false
}

// Vehicle is one tracked asset. ID and Code carry the same upstream code.
type Vehicle struct {
	ID         string        `json:"id"`
	Code       string        `json:"code"`
	Name       string        `json:"name"`
	Plate      string        `json:"plate"`
	Status     VehicleStatus `json:"status"`
	Speed      float64       `json:"speed"`
	Lat        float64       `json:"lat"`
	Lng        float64       `json:"lng"`
	LastUpdate string        `json:"lastUpdate"`
	Driver     *string       `json:"driver"`
	Odometer   int64         `json:"odometer"`
	FuelLevel  *float64      `json:"fuelLevel"`
	Ignition   bool          `json:"ignition"`
}

// HasFix reports whether the vehicle has a usable GPS position (0/0 means none).
func (v *Vehicle) HasFix() bool {
	return v.Lat != 0 || v.Lng != 0
}

// DriverName returns the driver or "".
func (v *Vehicle) DriverName() string {
	if v.Driver == nil {
		return ""
	}
	return *v.Driver
}

// VehicleCounts summarizes a vehicle list by status.
type VehicleCounts struct {
	Total   int `json:"total"`
	Moving  int `json:"moving"`
	Idle    int `json:"idle"`
	Offline int `json:"offline"`
}

// CountVehicles tallies vehicles by status.
func CountVehicles(vehicles []Vehicle) VehicleCounts {
	c := VehicleCounts{Total: len(vehicles)}
	for i := range vehicles {
		switch vehicles[i].Status {
		case StatusMoving:
			c.Moving++
		case StatusIdle:
			c.Idle++
		case StatusOffline:
			c.Offline++
		}
	}
	return c
}

// StringPtr returns nil for "" and a pointer to s otherwise.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
