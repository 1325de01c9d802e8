// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/fleetinsights/internal/logging"
	"github.com/tomtom215/fleetinsights/internal/upstream"
)

// CacheHeader reports whether /api/trips was served from the trip cache.
const CacheHeader = "X-Cache"

// Groups proxies the upstream group list.
func (h *Handler) Groups(w http.ResponseWriter, r *http.Request) {
	resp, err := h.gateway.Groups(r.Context())
	h.writeUpstream(w, r, resp, err)
}

// Vehicles proxies one group's vehicles. A missing group is forwarded as
// an empty path segment, as the provider defines that case.
func (h *Handler) Vehicles(w http.ResponseWriter, r *http.Request) {
	resp, err := h.gateway.VehiclesByGroup(r.Context(), r.URL.Query().Get("group"))
	h.writeUpstream(w, r, resp, err)
}

// Vehicle proxies a single vehicle.
func (h *Handler) Vehicle(w http.ResponseWriter, r *http.Request) {
	resp, err := h.gateway.Vehicle(r.Context(), chi.URLParam(r, "code"))
	h.writeUpstream(w, r, resp, err)
}

// History proxies bulk position history.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	resp, err := h.gateway.History(r.Context(), q.Get("codes"), q.Get("from"), q.Get("to"))
	h.writeUpstream(w, r, resp, err)
}

// Trips proxies one vehicle's trips through the trip cache.
func (h *Handler) Trips(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	resp, cached, err := h.gateway.Trips(r.Context(), q.Get("code"), q.Get("from"), q.Get("to"))
	if err == nil {
		if cached {
			w.Header().Set(CacheHeader, "HIT")
		} else {
			w.Header().Set(CacheHeader, "MISS")
		}
	}
	h.writeUpstream(w, r, resp, err)
}

// writeUpstream forwards an upstream reply. JSON bodies are written as-is
// and anything else is wrapped as a JSON string.
func (h *Handler) writeUpstream(w http.ResponseWriter, r *http.Request, resp upstream.Response, err error) {
	if err != nil {
		h.writeUpstreamError(w, r, err)
		return
	}

	body := resp.Body
	if !resp.IsJSON() {
		encoded, mErr := json.Marshal(string(resp.Body))
		if mErr != nil {
			h.writeUpstreamError(w, r, mErr)
			return
		}
		body = encoded
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(resp.Status)
	if _, wErr := w.Write(body); wErr != nil {
		logging.Ctx(r.Context()).Debug().Err(wErr).Msg("Failed to write proxied response")
	}
}

// writeUpstreamError maps transport failures: our own timeout is 504,
// anything else 502.
func (h *Handler) writeUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, upstream.ErrTimeout) {
		writeJSON(w, http.StatusGatewayTimeout, map[string]interface{}{
			"error":     "Upstream timeout",
			"timeoutMs": h.upstreamTimeout.Milliseconds(),
		})
		return
	}
	writeJSON(w, http.StatusBadGateway, map[string]interface{}{
		"error":   "Upstream request failed",
		"details": strings.TrimSpace(err.Error()),
	})
}
