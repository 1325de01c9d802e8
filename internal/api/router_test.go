// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/fleetinsights/internal/config"
	"github.com/tomtom215/fleetinsights/internal/fleet"
	"github.com/tomtom215/fleetinsights/internal/models"
	ws "github.com/tomtom215/fleetinsights/internal/websocket"
)

func TestRouterNotFound(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, path := range []string{"/api/nope", "/api/v1/fleet/unknown", "/nothing"} {
		resp, body := env.get(path)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("GET %s = %d (%s), want 404", path, resp.StatusCode, body)
		}
	}

	resp, body := env.do(http.MethodPost, "/api/v1/fleet/state", nil)
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("POST state = %d (%s), want 405", resp.StatusCode, body)
	}
}

func TestRouterMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	env.get("/api/v1/fleet/state")

	resp, body := env.get("/metrics")
	expectStatus(t, resp, body, http.StatusOK)
	if !strings.Contains(string(body), "# TYPE") {
		t.Error("metrics body is not Prometheus exposition")
	}
}

func TestCheckWebSocketOrigin(t *testing.T) {
	h := &Handler{config: &config.Config{Security: config.SecurityConfig{CORSOrigins: []string{testOrigin}}}}

	tests := []struct {
		name   string
		origin string
		host   string
		want   bool
	}{
		{"no origin", "", "fleet.local", true},
		{"configured origin", testOrigin, "fleet.local", true},
		{"configured origin other case", "HTTPS://DASH.EXAMPLE.COM", "fleet.local", true},
		{"same host", "http://fleet.local:4000", "fleet.local:4000", true},
		{"foreign origin", "https://evil.example.com", "fleet.local", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/live", nil)
			req.Host = tt.host
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if got := h.checkWebSocketOrigin(req); got != tt.want {
				t.Errorf("checkWebSocketOrigin = %v, want %v", got, tt.want)
			}
		})
	}

	wildcard := &Handler{config: &config.Config{Security: config.SecurityConfig{CORSOrigins: []string{"*"}}}}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/live", nil)
	req.Header.Set("Origin", "https://anything.example.org")
	if !wildcard.checkWebSocketOrigin(req) {
		t.Error("wildcard should allow any origin")
	}
}

func dialLive(t *testing.T, env *testEnv, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/api/v1/live"
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	return websocket.DefaultDialer.Dial(url, header)
}

func TestLiveStreamsState(t *testing.T) {
	env := newTestEnv(t, nil)

	conn, _, err := dialLive(t, env, testOrigin)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Type string      `json:"type"`
		Data fleet.State `json:"data"`
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Type != ws.MessageTypeFleetState {
		t.Errorf("type = %q, want %q", msg.Type, ws.MessageTypeFleetState)
	}

	// The connection counts as a viewer, which starts polling and loads
	// vehicles from the provider.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && len(env.store.Snapshot().Vehicles) == 0 {
		time.Sleep(10 * time.Millisecond)
	}
	if env.store.Viewers() != 1 {
		t.Errorf("viewers = %d, want 1", env.store.Viewers())
	}
	if n := len(env.store.Snapshot().Vehicles); n != 2 {
		t.Errorf("vehicles after first poll = %d, want 2", n)
	}

	conn.Close()
	deadline = time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && env.store.Viewers() != 0 {
		time.Sleep(10 * time.Millisecond)
	}
	if env.store.Viewers() != 0 {
		t.Errorf("viewers after disconnect = %d, want 0", env.store.Viewers())
	}
}

func TestLiveStreamsDerivedEvents(t *testing.T) {
	env := newTestEnv(t, nil)

	conn, _, err := dialLive(t, env, testOrigin)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitForViewers(t, env, 1)

	resp, body := env.get("/api/v1/fleet/events?vehicle=V1")
	expectStatus(t, resp, body, http.StatusOK)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("no fleet_events message: %v", err)
		}
		var msg struct {
			Type string              `json:"type"`
			Data []models.FleetEvent `json:"data"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type != ws.MessageTypeFleetEvents {
			continue
		}
		if len(msg.Data) == 0 || msg.Data[0].VehicleID != "V1" {
			t.Errorf("events = %+v", msg.Data)
		}
		return
	}
}

func waitForViewers(t *testing.T, env *testEnv, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && env.store.Viewers() != n {
		time.Sleep(10 * time.Millisecond)
	}
	if env.store.Viewers() != n {
		t.Fatalf("viewers = %d, want %d", env.store.Viewers(), n)
	}
}

func TestLiveRejectsForeignOrigin(t *testing.T) {
	env := newTestEnv(t, nil)

	conn, resp, err := dialLive(t, env, "https://evil.example.com")
	if err == nil {
		conn.Close()
		t.Fatal("dial succeeded for a foreign origin")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("response = %v, want 403", resp)
	}
	if env.store.Viewers() != 0 {
		t.Errorf("viewers = %d, want 0", env.store.Viewers())
	}
}

func TestLiveWithoutHub(t *testing.T) {
	env := newTestEnv(t, nil)
	h := *env.handler
	h.hub = nil

	rec := httptest.NewRecorder()
	h.Live(rec, httptest.NewRequest(http.MethodGet, "/api/v1/live", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}
