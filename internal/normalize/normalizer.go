// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package normalize

import (
	"strconv"
	"time"

	"github.com/zoobzio/clockz"

	"github.com/tomtom215/fleetinsights/internal/models"
)

// Normalizer maps raw records to domain values. The clock supplies "now"
// for status derivation and for defaults when upstream omits timestamps.
type Normalizer struct {
	clock clockz.Clock
}

// New creates a Normalizer. A nil clock uses the real clock.
func New(clock clockz.Clock) *Normalizer {
	if clock == nil {
		clock = clockz.RealClock
	}
	return &Normalizer{clock: clock}
}

// Vehicle converts one raw vehicle record. It always returns a fully
// populated value.
func (n *Normalizer) Vehicle(raw Record) models.Vehicle {
	now := n.clock.Now()
	code := raw.String("Code", "code")
	pos := raw.Nested("LastPosition", "lastPosition")
	speed := raw.Number("Speed", "speed")
	rawTimestamp := raw.String("LastPositionTimestamp", "lastPositionTimestamp")

	name := raw.String("Name", "name")
	if name == "" {
		name = "Vozidlo " + code
	}

	lastUpdate := rawTimestamp
	if lastUpdate == "" {
		lastUpdate = now.UTC().Format(time.RFC3339Nano)
	}

	v := models.Vehicle{
		ID:         code,
		Code:       code,
		Name:       name,
		Plate:      raw.String("SPZ", "spz", "plate"),
		Status:     DeriveStatus(speed, rawTimestamp, now),
		Speed:      speed,
		LastUpdate: lastUpdate,
		Driver:     models.StringPtr(raw.String("DriverName", "driverName")),
		Odometer:   int64(RoundHalfUp(raw.Number("Odometer", "odometer") / 1000)),
		FuelLevel:  nil,
		Ignition:   speed > 0 || AsBoolean(raw["ignition"]),
	}
	if pos != nil {
		v.Lat = pos.Number("Latitude", "latitude")
		v.Lng = pos.Number("Longitude", "longitude")
	}
	return v
}

// Vehicles normalizes a list of raw vehicle records.
func (n *Normalizer) Vehicles(raws []Record) []models.Vehicle {
	out := make([]models.Vehicle, 0, len(raws))
	for _, r := range raws {
		out = append(out, n.Vehicle(r))
	}
	return out
}

// Trip converts one raw trip record. Upstream trips do not name their
// vehicle, so the caller supplies vehicleCode.
func (n *Normalizer) Trip(raw Record, vehicleCode string) models.Trip {
	startTime := raw.String("StartTime", "startTime")
	startPos := raw.Nested("StartPosition", "startPosition")
	finishPos := raw.Nested("FinishPosition", "finishPosition")

	idSuffix := startTime
	if idSuffix == "" {
		idSuffix = strconv.FormatInt(n.clock.Now().UnixMilli(), 10)
	}

	duration := ParseTripLength(raw.String("TripLength"))
	if duration == 0 {
		duration = int(RoundHalfUp(raw.Number("durationMin")))
	}

	t := models.Trip{
		ID:            vehicleCode + "-" + idSuffix,
		VehicleID:     vehicleCode,
		VehicleName:   vehicleCode,
		Driver:        models.StringPtr(raw.String("DriverName", "driverName")),
		StartTime:     startTime,
		EndTime:       raw.String("FinishTime", "endTime"),
		StartLocation: raw.String("StartAddress", "startAddress"),
		EndLocation:   raw.String("FinishAddress", "finishAddress"),
		Distance:      raw.Number("TotalDistance", "distanceKm"),
		Duration:      duration,
		MaxSpeed:      raw.Number("MaxSpeed", "maxSpeedKph"),
		AvgSpeed:      raw.Number("AverageSpeed", "avgSpeedKph"),
	}
	if startPos != nil {
		t.StartLat = startPos.Number("Latitude", "latitude")
		t.StartLng = startPos.Number("Longitude", "longitude")
	}
	if finishPos != nil {
		t.EndLat = finishPos.Number("Latitude", "latitude")
		t.EndLng = finishPos.Number("Longitude", "longitude")
	}
	return t
}

// Trips normalizes a list of raw trip records for one vehicle.
func (n *Normalizer) Trips(raws []Record, vehicleCode string) []models.Trip {
	out := make([]models.Trip, 0, len(raws))
	for _, r := range raws {
		out = append(out, n.Trip(r, vehicleCode))
	}
	return out
}

// GroupCodes extracts the non-empty group codes from raw group records.
func GroupCodes(raws []Record) []string {
	codes := make([]string, 0, len(raws))
	for _, g := range raws {
		if code := g.String("Code", "code"); code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}
