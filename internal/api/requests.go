// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package api

import (
	"errors"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 64 << 10

var errEmptyBody = errors.New("request body is empty")

// coordinateQuery is the lat/lng pair of the geocode and weather endpoints.
type coordinateQuery struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lng float64 `json:"lng" validate:"longitude"`
}

// parseCoordinates reads lat and lng. present is false when either is
// missing; err is set when a value is not a number.
func parseCoordinates(r *http.Request) (q coordinateQuery, present bool, err error) {
	rawLat := strings.TrimSpace(r.URL.Query().Get("lat"))
	rawLng := strings.TrimSpace(r.URL.Query().Get("lng"))
	if rawLat == "" || rawLng == "" {
		return q, false, nil
	}
	if q.Lat, err = strconv.ParseFloat(rawLat, 64); err != nil {
		return q, true, err
	}
	if q.Lng, err = strconv.ParseFloat(rawLng, 64); err != nil {
		return q, true, err
	}
	return q, true, nil
}

// rangeQuery is a vehicle plus an optional date range. Empty dates fall
// back to the store's current filters.
type rangeQuery struct {
	Vehicle string `json:"vehicle" validate:"omitempty,vehiclecode"`
	From    string `json:"from" validate:"omitempty,calendardate"`
	To      string `json:"to" validate:"omitempty,calendardate"`
}

func parseRangeQuery(r *http.Request) rangeQuery {
	q := r.URL.Query()
	return rangeQuery{
		Vehicle: strings.TrimSpace(q.Get("vehicle")),
		From:    strings.TrimSpace(q.Get("from")),
		To:      strings.TrimSpace(q.Get("to")),
	}
}

// filtersRequest is the body of PUT /api/v1/fleet/filters. Dates are
// checked by the store's range rules so the user sees the same messages
// as the dashboard's date picker.
type filtersRequest struct {
	VehicleCode *string `json:"vehicleCode" validate:"omitempty,max=64"`
	From        string  `json:"from" validate:"omitempty,max=10"`
	To          string  `json:"to" validate:"omitempty,max=10"`
	Preset      *int    `json:"preset" validate:"omitempty,min=-1,max=31"`
}

type vehicleIDRequest struct {
	VehicleID string `json:"vehicleId" validate:"required,max=64"`
}

type optionalVehicleIDRequest struct {
	VehicleID *string `json:"vehicleId" validate:"omitempty"`
}

type statusFilterRequest struct {
	Status string `json:"status" validate:"required,oneof=all moving idle offline"`
}

type searchRequest struct {
	Query string `json:"query" validate:"max=200"`
}

// decodeJSONBody decodes a bounded JSON body into dst.
func decodeJSONBody(r *http.Request, dst interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return errEmptyBody
	}
	return json.Unmarshal(body, dst)
}

func sortDriverEntries(entries []DriverEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].VehicleID < entries[j].VehicleID
	})
}
