// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/zoobzio/clockz"

	"github.com/tomtom215/fleetinsights/internal/cache"
	"github.com/tomtom215/fleetinsights/internal/config"
	"github.com/tomtom215/fleetinsights/internal/fleet"
	"github.com/tomtom215/fleetinsights/internal/logging"
	"github.com/tomtom215/fleetinsights/internal/models"
	"github.com/tomtom215/fleetinsights/internal/normalize"
	"github.com/tomtom215/fleetinsights/internal/scheduler"
	"github.com/tomtom215/fleetinsights/internal/upstream"
	ws "github.com/tomtom215/fleetinsights/internal/websocket"
)

func init() {
	logging.Init(logging.Config{Level: "error", Format: "json", Output: io.Discard})
}

const testOrigin = "https://dash.example.com"

// fakeProvider is an httptest GPS provider. Vehicle V1 is moving and has
// trips, V2 is parked. /vehicle/SLOW never answers in time.
type fakeProvider struct {
	server    *httptest.Server
	tripCalls int32

	mu       sync.Mutex
	lastAuth string
	paths    []string
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()
	p := &fakeProvider{}
	p.server = httptest.NewServer(http.HandlerFunc(p.serve))
	t.Cleanup(p.server.Close)
	return p
}

func (p *fakeProvider) serve(w http.ResponseWriter, r *http.Request) {
	user, pass, _ := r.BasicAuth()
	p.mu.Lock()
	p.lastAuth = user + ":" + pass
	p.paths = append(p.paths, r.URL.EscapedPath())
	p.mu.Unlock()

	writeRaw := func(status int, contentType, body string) {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}

	switch path := r.URL.Path; {
	case path == "/groups":
		writeRaw(http.StatusOK, "application/json", `[{"Code":"G1","Name":"Praha"}]`)
	case path == "/vehicles/group/G1":
		writeRaw(http.StatusOK, "application/json", `[
			{"Code":"V1","Name":"Dodávka 1","SPZ":"1AB 2345","Speed":54,"LastPositionTimestamp":"`+
			time.Now().UTC().Format(time.RFC3339)+`","LastPosition":{"Latitude":"50.08","Longitude":"14.42"}},
			{"Code":"V2","Name":"Dodávka 2","Speed":0,"LastPositionTimestamp":"`+
			time.Now().UTC().Format(time.RFC3339)+`"}
		]`)
	case path == "/vehicles/group/":
		writeRaw(http.StatusNotFound, "application/json", `{"message":"group required"}`)
	case path == "/vehicle/V1":
		writeRaw(http.StatusOK, "application/json", `{"Code":"V1","Name":"Dodávka 1"}`)
	case path == "/vehicle/MISSING":
		writeRaw(http.StatusNotFound, "application/json", `{"message":"not found"}`)
	case path == "/vehicle/SLOW":
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	case path == "/vehicle/V1/trips":
		atomic.AddInt32(&p.tripCalls, 1)
		writeRaw(http.StatusOK, "application/json", `[
			{"StartTime":"2025-03-03T08:00:00","FinishTime":"2025-03-03T09:30:00","DriverName":"Jan Novák",
			 "MaxSpeed":142,"AverageSpeed":80,"TotalDistance":120,"TripLength":"01:30"}
		]`)
	case path == "/vehicle/V2/trips":
		atomic.AddInt32(&p.tripCalls, 1)
		writeRaw(http.StatusOK, "application/json", `[]`)
	case strings.HasPrefix(path, "/vehicles/history/"):
		writeRaw(http.StatusOK, "text/plain", "history unavailable")
	default:
		writeRaw(http.StatusNotFound, "text/plain", "no route")
	}
}

func (p *fakeProvider) auth() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastAuth
}

type fakeGeocoder struct {
	mu      sync.Mutex
	calls   int
	queued  int
	address string
	err     error
}

func (g *fakeGeocoder) Reverse(_ context.Context, lat, lng float64) (models.GeocodeResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return models.GeocodeResult{}, g.err
	}
	return models.GeocodeResult{Address: g.address}, nil
}

func (g *fakeGeocoder) QueueLength() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.queued
}

type fakeWeather struct {
	data models.WeatherData
}

func (f *fakeWeather) Current(context.Context, float64, float64) (models.WeatherData, error) {
	return f.data, nil
}

type testEnv struct {
	t        *testing.T
	provider *fakeProvider
	cfg      *config.Config
	store    *fleet.Store
	hub      *ws.Hub
	geocoder *fakeGeocoder
	handler  *Handler
	server   *httptest.Server
}

// newTestEnv wires the real gateway, fleet service and store against a
// fake provider. mutate adjusts the configuration before wiring.
func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()
	provider := newFakeProvider(t)

	cfg := &config.Config{
		Upstream: config.UpstreamConfig{
			BaseURL:  provider.server.URL,
			Username: "api",
			Password: "secret",
			Timeout:  time.Second,
		},
		Security: config.SecurityConfig{
			CORSOrigins:       []string{testOrigin},
			RateLimitDisabled: true,
		},
		Fleet: config.FleetConfig{
			EventsMaxVehicles: 3,
		},
	}
	if mutate != nil {
		mutate(cfg)
	}

	clock := clockz.NewFakeClock()
	client := upstream.NewClient(cfg.Upstream)
	gateway := upstream.NewGateway(client, cache.New[upstream.Response]("api_test_trips", time.Minute, clock))
	svc := fleet.NewService(gateway, normalize.New(clockz.RealClock))
	var hub *ws.Hub
	store := fleet.NewStore(svc, fleet.Options{
		Config:    cfg.Fleet,
		Scheduler: scheduler.New(clock),
		Events: fleet.EventSinkFunc(func(ctx context.Context, events []models.FleetEvent) {
			hub.PublishEvents(ctx, events)
		}),
	})
	t.Cleanup(store.Close)

	hub = ws.NewHub(func() interface{} { return store.Snapshot() }, store)
	ctx, cancel := context.WithCancel(context.Background())
	hubDone := make(chan struct{})
	go func() {
		_ = hub.Serve(ctx)
		close(hubDone)
	}()
	unsubscribe := store.Subscribe(hub.NotifyStateChanged)

	geocoder := &fakeGeocoder{address: "Praha, Václavské náměstí", queued: 2}
	handler := NewHandler(Deps{
		Config:   cfg,
		Gateway:  gateway,
		Geocoder: geocoder,
		Weather:  &fakeWeather{data: models.WeatherData{Temperature: 21, WindSpeed: 12, Condition: "Jasno", Icon: "☀️"}},
		Store:    store,
		Hub:      hub,
	})
	router := NewRouter(handler, NewChiMiddleware(ChiMiddlewareConfigFrom(cfg.Security)))
	server := httptest.NewServer(router.Setup())

	t.Cleanup(func() {
		server.Close()
		unsubscribe()
		cancel()
		<-hubDone
	})

	return &testEnv{
		t:        t,
		provider: provider,
		cfg:      cfg,
		store:    store,
		hub:      hub,
		geocoder: geocoder,
		handler:  handler,
		server:   server,
	}
}

// do sends a request and returns the response with its body read.
func (e *testEnv) do(method, path string, body interface{}) (*http.Response, []byte) {
	e.t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			e.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		e.t.Fatalf("new request: %v", err)
	}
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		e.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		e.t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func (e *testEnv) get(path string) (*http.Response, []byte) {
	e.t.Helper()
	return e.do(http.MethodGet, path, nil)
}

// envelope decodes an APIResponse whose data is decoded into data.
func decodeEnvelope(t *testing.T, body []byte, data interface{}) APIResponse {
	t.Helper()
	var raw struct {
		Success  bool            `json:"success"`
		Data     json.RawMessage `json:"data"`
		Error    *APIError       `json:"error"`
		Metadata Metadata        `json:"metadata"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, body)
	}
	if data != nil && len(raw.Data) > 0 {
		if err := json.Unmarshal(raw.Data, data); err != nil {
			t.Fatalf("decode data: %v (%s)", err, raw.Data)
		}
	}
	return APIResponse{Success: raw.Success, Error: raw.Error, Metadata: raw.Metadata}
}

func decodeMap(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode body: %v (%s)", err, body)
	}
	return out
}

func expectStatus(t *testing.T, resp *http.Response, body []byte, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("status = %d, want %d (body %s)", resp.StatusCode, want, body)
	}
}

func decodeJSON(body []byte, v interface{}) error {
	return json.Unmarshal(body, v)
}

// remarshal converts a decoded interface{} value into v.
func remarshal(in, v interface{}) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
