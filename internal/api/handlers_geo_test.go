// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tomtom215/fleetinsights/internal/models"
)

func TestReverseGeocode(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.get("/api/geocode/reverse?lat=50.0755&lng=14.4378")
	expectStatus(t, resp, body, http.StatusOK)

	var result models.GeocodeResult
	if err := decodeJSON(body, &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Address != "Praha, Václavské náměstí" {
		t.Errorf("address = %q", result.Address)
	}
}

func TestCoordinateValidation(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"geocode missing lat", "/api/geocode/reverse?lng=14.4", msgCoordinatesRequired},
		{"geocode missing both", "/api/geocode/reverse", msgCoordinatesRequired},
		{"geocode not a number", "/api/geocode/reverse?lat=abc&lng=14.4", msgCoordinatesInvalid},
		{"geocode out of range", "/api/geocode/reverse?lat=91&lng=14.4", msgCoordinatesInvalid},
		{"weather missing lng", "/api/weather?lat=50", msgCoordinatesRequired},
		{"weather out of range", "/api/weather?lat=50&lng=181", msgCoordinatesInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := env.get(tt.path)
			expectStatus(t, resp, body, http.StatusBadRequest)
			if got := decodeMap(t, body)["error"]; got != tt.wantErr {
				t.Errorf("error = %v, want %q", got, tt.wantErr)
			}
		})
	}

	if env.geocoder.calls != 0 {
		t.Errorf("geocoder called %d times for invalid input", env.geocoder.calls)
	}
}

func TestWeather(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.get("/api/weather?lat=50.08&lng=14.42")
	expectStatus(t, resp, body, http.StatusOK)

	var data models.WeatherData
	if err := decodeJSON(body, &data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if data.Temperature != 21 || data.Condition != "Jasno" {
		t.Errorf("weather = %+v", data)
	}
}

func TestReverseGeocodeAbandoned(t *testing.T) {
	env := newTestEnv(t, nil)
	env.geocoder.err = context.Canceled

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/geocode/reverse?lat=50&lng=14", nil)
	env.handler.ReverseGeocode(rec, req)

	if rec.Body.Len() != 0 {
		t.Errorf("abandoned lookup wrote %q", rec.Body.String())
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.get("/health")
	expectStatus(t, resp, body, http.StatusOK)

	var health HealthResponse
	if err := decodeJSON(body, &health); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !health.OK || health.QueueLength != 2 {
		t.Errorf("health = %+v, want ok with queueLength 2", health)
	}
}

func TestHealthWithoutGeocoder(t *testing.T) {
	h := &Handler{}
	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Body.String(); got != `{"ok":true,"queueLength":0}` {
		t.Errorf("body = %s", got)
	}
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.get("/api/v1/status")
	expectStatus(t, resp, body, http.StatusOK)

	var status StatusResponse
	envelope := decodeEnvelope(t, body, &status)
	if !envelope.Success {
		t.Fatalf("success = false: %s", body)
	}
	if !status.UpstreamConfigured {
		t.Error("upstream should be configured")
	}
	if status.GeocodeQueue != 2 {
		t.Errorf("geocodeQueue = %d, want 2", status.GeocodeQueue)
	}
	if status.Polling || status.Viewers != 0 {
		t.Errorf("no viewers yet: polling=%v viewers=%d", status.Polling, status.Viewers)
	}
}
