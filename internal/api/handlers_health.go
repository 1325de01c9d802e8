// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package api

import (
	"net/http"
	"time"
)

// HealthResponse is the /health body.
type HealthResponse struct {
	OK          bool `json:"ok"`
	QueueLength int  `json:"queueLength"`
}

// Health reports liveness and the number of queued geocode lookups.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{OK: true}
	if h.geocoder != nil {
		resp.QueueLength = h.geocoder.QueueLength()
	}
	writeJSON(w, http.StatusOK, resp)
}

// StatusResponse is the /api/v1/status body.
type StatusResponse struct {
	UpstreamConfigured bool    `json:"upstreamConfigured"`
	Vehicles           int     `json:"vehicles"`
	Drivers            int     `json:"drivers"`
	Viewers            int     `json:"viewers"`
	Polling            bool    `json:"polling"`
	LastUpdated        *string `json:"lastUpdated"`
	GeocodeQueue       int     `json:"geocodeQueue"`
	UptimeSeconds      int64   `json:"uptimeSeconds"`
}

// Status summarises the running service for the dashboard's footer.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Snapshot()
	resp := StatusResponse{
		UpstreamConfigured: h.config.Upstream.Configured(),
		Vehicles:           len(snap.Vehicles),
		Drivers:            h.store.Drivers().Len(),
		Viewers:            h.store.Viewers(),
		Polling:            snap.Polling,
		LastUpdated:        snap.LastUpdated,
		UptimeSeconds:      int64(time.Since(h.startTime).Seconds()),
	}
	if h.geocoder != nil {
		resp.GeocodeQueue = h.geocoder.QueueLength()
	}
	NewResponseWriter(w, r).Success(resp)
}
