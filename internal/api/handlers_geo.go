// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package api

import (
	"net/http"

	"github.com/tomtom215/fleetinsights/internal/logging"
	"github.com/tomtom215/fleetinsights/internal/validation"
)

const (
	msgCoordinatesRequired = "lat and lng required"
	msgCoordinatesInvalid  = "lat and lng must be valid coordinates"
)

// coordinates parses and validates lat/lng, writing a 400 when they are
// unusable.
func coordinates(w http.ResponseWriter, r *http.Request) (coordinateQuery, bool) {
	q, present, err := parseCoordinates(r)
	if !present {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msgCoordinatesRequired})
		return q, false
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msgCoordinatesInvalid})
		return q, false
	}
	if verr := validation.ValidateStruct(&q); verr != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   msgCoordinatesInvalid,
			"details": verr.Error(),
		})
		return q, false
	}
	return q, true
}

// ReverseGeocode resolves lat/lng to an address. Uncached lookups wait
// their turn in the serial Nominatim queue.
func (h *Handler) ReverseGeocode(w http.ResponseWriter, r *http.Request) {
	q, ok := coordinates(w, r)
	if !ok {
		return
	}

	result, err := h.geocoder.Reverse(r.Context(), q.Lat, q.Lng)
	if err != nil {
		// The client went away while queued.
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Geocode request abandoned")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Weather returns current conditions at lat/lng.
func (h *Handler) Weather(w http.ResponseWriter, r *http.Request) {
	q, ok := coordinates(w, r)
	if !ok {
		return
	}

	data, err := h.weather.Current(r.Context(), q.Lat, q.Lng)
	if err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Weather request abandoned")
		return
	}
	writeJSON(w, http.StatusOK, data)
}
