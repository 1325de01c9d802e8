// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/tomtom215/fleetinsights/internal/daterange"
	"github.com/tomtom215/fleetinsights/internal/fleet"
	"github.com/tomtom215/fleetinsights/internal/models"
	"github.com/tomtom215/fleetinsights/internal/validation"
)

// FleetState returns the full store snapshot.
func (h *Handler) FleetState(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.store.Snapshot())
}

// VehicleListResponse is the body of GET /api/v1/fleet/vehicles.
type VehicleListResponse struct {
	Vehicles    []models.Vehicle     `json:"vehicles"`
	Counts      models.VehicleCounts `json:"counts"`
	LastUpdated *string              `json:"lastUpdated"`
}

// FleetVehicles lists vehicles. status and search default to the store's
// current filter and search.
func (h *Handler) FleetVehicles(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	status := fleet.StatusFilter(strings.TrimSpace(r.URL.Query().Get("status")))
	if status != "" && !status.Valid() {
		rw.ErrorWithDetails(http.StatusBadRequest, ErrCodeValidation,
			"status must be one of all, moving, idle, offline", map[string]string{"field": "status"})
		return
	}
	rw.Success(h.vehicleList(status, r.URL.Query().Get("search")))
}

func (h *Handler) vehicleList(status fleet.StatusFilter, search string) VehicleListResponse {
	return VehicleListResponse{
		Vehicles:    h.store.FilteredVehicles(status, strings.TrimSpace(search)),
		Counts:      h.store.VehicleCounts(),
		LastUpdated: h.store.Snapshot().LastUpdated,
	}
}

// RefreshVehicles reloads the vehicle list now. When the refresh fails the
// previous list is still in the store, so the error carries the message
// the dashboard shows next to it.
func (h *Handler) RefreshVehicles(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if err := h.store.LoadVehicles(r.Context()); err != nil {
		if r.Context().Err() != nil {
			return
		}
		rw.ExternalServiceError(storeMessage(h.store.Errors().Vehicles, err))
		return
	}
	rw.Success(h.vehicleList(fleet.FilterAll, ""))
}

// resolveRange fills missing dates from the store's filters and applies
// the date picker's validation rules.
func (h *Handler) resolveRange(rw *ResponseWriter, q rangeQuery) (from, to string, ok bool) {
	if verr := validation.ValidateStruct(&q); verr != nil {
		rw.ValidationFailed(verr)
		return "", "", false
	}
	f := h.store.Filters()
	from, to = q.From, q.To
	if from == "" {
		from = f.From
	}
	if to == "" {
		to = f.To
	}
	if msg := h.store.Calendar().Validate(from, to); msg != "" {
		rw.InvalidRange(msg)
		return "", "", false
	}
	return from, to, true
}

// FleetTrips loads trips for one vehicle, or all vehicles when none is
// given, and returns them.
func (h *Handler) FleetTrips(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	q := parseRangeQuery(r)
	from, to, ok := h.resolveRange(rw, q)
	if !ok {
		return
	}

	err := h.store.LoadTrips(r.Context(), q.Vehicle, daterange.ToAPIFrom(from), daterange.ToAPITo(to))
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		rw.ExternalServiceError(storeMessage(h.store.Errors().Trips, err))
		return
	}
	rw.Success(h.store.Trips())
}

// FleetEvents derives events for one vehicle, or a sample of the fleet.
func (h *Handler) FleetEvents(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	q := parseRangeQuery(r)
	from, to, ok := h.resolveRange(rw, q)
	if !ok {
		return
	}

	err := h.store.LoadEvents(r.Context(), q.Vehicle, daterange.ToAPIFrom(from), daterange.ToAPITo(to))
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		rw.ExternalServiceError(storeMessage(h.store.Errors().Events, err))
		return
	}
	rw.Success(h.store.Events())
}

// SpeedChartResponse is the body of GET /api/v1/fleet/speed-chart.
type SpeedChartResponse struct {
	Vehicle  string              `json:"vehicle"`
	From     string              `json:"from"`
	To       string              `json:"to"`
	BinHours int                 `json:"binHours"`
	Points   []models.SpeedPoint `json:"points"`
}

// FleetSpeedChart builds the speed chart for one vehicle: the average trip
// speed per hour-of-day bin.
func (h *Handler) FleetSpeedChart(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	q := parseRangeQuery(r)
	if q.Vehicle == "" {
		rw.ErrorWithDetails(http.StatusBadRequest, ErrCodeValidation, "vehicle is required", map[string]string{"field": "vehicle"})
		return
	}
	from, to, ok := h.resolveRange(rw, q)
	if !ok {
		return
	}

	binHours := daterange.CalcBinHours(from, to)
	err := h.store.LoadSpeedChart(r.Context(), q.Vehicle, daterange.ToAPIFrom(from), daterange.ToAPITo(to), binHours)
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		rw.ExternalServiceError(storeMessage(nil, err))
		return
	}
	rw.Success(SpeedChartResponse{
		Vehicle:  q.Vehicle,
		From:     from,
		To:       to,
		BinHours: binHours,
		Points:   h.store.SpeedChart(),
	})
}

// FleetFilters returns the current filters.
func (h *Handler) FleetFilters(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.store.Filters())
}

// SetFleetFilters changes the vehicle and date range. A valid change is
// answered with 202 and reloads trips, events and the speed chart after the
// debounce delay; an invalid range returns the picker's message.
func (h *Handler) SetFleetFilters(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var req filtersRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}

	f, err := h.store.SetFilters(fleet.FilterUpdate{
		VehicleCode: req.VehicleCode,
		From:        strings.TrimSpace(req.From),
		To:          strings.TrimSpace(req.To),
		Preset:      req.Preset,
	})
	var rangeErr *fleet.RangeError
	if errors.As(err, &rangeErr) {
		rw.ErrorWithDetails(http.StatusBadRequest, ErrCodeValidation, rangeErr.Message, f)
		return
	}
	rw.Accepted(f)
}

// ResetFleetFilters restores invalid filter dates to their defaults.
func (h *Handler) ResetFleetFilters(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.store.ResetFilters())
}

// SelectionResponse echoes the view state after a view action.
type SelectionResponse struct {
	SelectedVehicleID  *string            `json:"selectedVehicleId"`
	HighlightVehicleID *string            `json:"highlightVehicleId"`
	HistoryVehicleID   *string            `json:"historyVehicleId"`
	EventsVehicleID    *string            `json:"eventsVehicleId"`
	StatusFilter       fleet.StatusFilter `json:"statusFilter"`
	SearchQuery        string             `json:"searchQuery"`
}

func (h *Handler) selection() SelectionResponse {
	snap := h.store.Snapshot()
	return SelectionResponse{
		SelectedVehicleID:  snap.SelectedVehicleID,
		HighlightVehicleID: snap.HighlightVehicleID,
		HistoryVehicleID:   snap.HistoryVehicleID,
		EventsVehicleID:    snap.EventsVehicleID,
		StatusFilter:       snap.StatusFilter,
		SearchQuery:        snap.SearchQuery,
	}
}

// SetSelection selects a vehicle; a null vehicleId clears the selection.
func (h *Handler) SetSelection(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var req optionalVehicleIDRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}
	h.store.SelectVehicle(derefString(req.VehicleID))
	rw.Success(h.selection())
}

// SetHighlight highlights a vehicle on the map.
func (h *Handler) SetHighlight(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var req vehicleIDRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}
	h.store.HighlightVehicle(req.VehicleID)
	rw.Success(h.selection())
}

// ClearHighlight removes the map highlight.
func (h *Handler) ClearHighlight(w http.ResponseWriter, r *http.Request) {
	h.store.ClearHighlight()
	NewResponseWriter(w, r).Success(h.selection())
}

// SetHistoryVehicle opens trip history for a vehicle; null closes it.
func (h *Handler) SetHistoryVehicle(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var req optionalVehicleIDRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}
	if req.VehicleID == nil {
		h.store.ClearHistoryVehicle()
	} else {
		h.store.NavigateToHistory(*req.VehicleID)
	}
	rw.Success(h.selection())
}

// SetEventsVehicle opens the event list for a vehicle; null closes it.
func (h *Handler) SetEventsVehicle(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var req optionalVehicleIDRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}
	if req.VehicleID == nil {
		h.store.ClearEventsVehicle()
	} else {
		h.store.NavigateToEvents(*req.VehicleID)
	}
	rw.Success(h.selection())
}

// SetStatusFilter restricts the vehicle list to one status.
func (h *Handler) SetStatusFilter(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var req statusFilterRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}
	if err := h.store.SetStatusFilter(fleet.StatusFilter(req.Status)); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	rw.Success(h.selection())
}

// SetSearch sets the global search. A query matching exactly one vehicle
// selects it.
func (h *Handler) SetSearch(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var req searchRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}
	h.store.SetSearchQuery(req.Query)
	rw.Success(h.selection())
}

// DriverEntry is one learned vehicle to driver mapping.
type DriverEntry struct {
	VehicleID string `json:"vehicleId"`
	Driver    string `json:"driver"`
}

// FleetDrivers lists the driver cache, ordered by vehicle id.
func (h *Handler) FleetDrivers(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Drivers().Snapshot()
	entries := make([]DriverEntry, 0, len(snap))
	for id, name := range snap {
		entries = append(entries, DriverEntry{VehicleID: id, Driver: name})
	}
	sortDriverEntries(entries)
	NewResponseWriter(w, r).Success(entries)
}

// decodeAndValidate decodes the JSON body into dst and validates it,
// writing the 400 itself on failure.
func decodeAndValidate(rw *ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := decodeJSONBody(r, dst); err != nil {
		rw.BadRequest("Invalid request body: " + err.Error())
		return false
	}
	if verr := validation.ValidateStruct(dst); verr != nil {
		rw.ValidationFailed(verr)
		return false
	}
	return true
}

// storeMessage prefers the message the store recorded for the dashboard.
func storeMessage(msg *string, err error) string {
	if msg != nil {
		return *msg
	}
	return err.Error()
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
