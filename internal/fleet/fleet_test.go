// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package fleet

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zoobzio/clockz"

	"github.com/tomtom215/fleetinsights/internal/config"
	"github.com/tomtom215/fleetinsights/internal/models"
	"github.com/tomtom215/fleetinsights/internal/normalize"
	"github.com/tomtom215/fleetinsights/internal/scheduler"
)

type fakeClock interface {
	clockz.Clock
	Advance(time.Duration)
	BlockUntilReady()
}

type stubSource struct {
	mu         sync.Mutex
	groups     []normalize.Record
	groupErr   error
	vehicles   map[string][]normalize.Record
	vehicleErr map[string]error
	trips      map[string][]normalize.Record
	tripErr    map[string]error
	tripDelay  time.Duration
	// gates hold a fetch until closed, keyed by vehicle code for trips and
	// by "group/<code>" for vehicle lists.
	gates map[string]chan struct{}

	tripCalls    []string
	vehicleCalls int32
	active    int32
	maxActive int32
}

func newStubSource() *stubSource {
	return &stubSource{
		vehicles:   make(map[string][]normalize.Record),
		vehicleErr: make(map[string]error),
		trips:      make(map[string][]normalize.Record),
		tripErr:    make(map[string]error),
		gates:      make(map[string]chan struct{}),
	}
}

func (s *stubSource) gate(key string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan struct{})
	s.gates[key] = ch
	return ch
}

func (s *stubSource) wait(key string) {
	s.mu.Lock()
	ch := s.gates[key]
	s.mu.Unlock()
	if ch != nil {
		<-ch
	}
}

func (s *stubSource) GroupRecords(context.Context) ([]normalize.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.groups, s.groupErr
}

func (s *stubSource) VehicleRecords(_ context.Context, group string) ([]normalize.Record, error) {
	atomic.AddInt32(&s.vehicleCalls, 1)
	s.wait("group/" + group)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.vehicleErr[group]; err != nil {
		return nil, err
	}
	return s.vehicles[group], nil
}

func (s *stubSource) VehicleRecord(_ context.Context, code string) (normalize.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, list := range s.vehicles {
		for _, r := range list {
			if r.String("Code") == code {
				return r, nil
			}
		}
	}
	return nil, errors.New("not found")
}

func (s *stubSource) TripRecords(_ context.Context, code, _, _ string) ([]normalize.Record, error) {
	n := atomic.AddInt32(&s.active, 1)
	defer atomic.AddInt32(&s.active, -1)
	for {
		m := atomic.LoadInt32(&s.maxActive)
		if n <= m || atomic.CompareAndSwapInt32(&s.maxActive, m, n) {
			break
		}
	}

	s.mu.Lock()
	s.tripCalls = append(s.tripCalls, code)
	delay := s.tripDelay
	records, err := s.trips[code], s.tripErr[code]
	s.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	s.wait(code)
	return records, err
}

func (s *stubSource) setVehicles(group string, records ...normalize.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups = append(s.groups, normalize.Record{"Code": group})
	s.vehicles[group] = records
}

func (s *stubSource) replaceVehicles(group string, records ...normalize.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vehicles[group] = records
}

func (s *stubSource) calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.tripCalls...)
}

func vehicleRecord(code string) normalize.Record {
	return normalize.Record{"Code": code, "Name": "Vozidlo " + code, "Speed": 0.0}
}

func tripRecord(start, driver string, maxSpeed, distance float64) normalize.Record {
	return normalize.Record{
		"StartTime":     start,
		"DriverName":    driver,
		"MaxSpeed":      maxSpeed,
		"TotalDistance": distance,
		"AverageSpeed":  50.0,
	}
}

type testStore struct {
	store *Store
	src   *stubSource
	clock fakeClock
}

func newTestStore(t *testing.T, cfg config.FleetConfig, sink EventSink) *testStore {
	t.Helper()
	clock := clockz.NewFakeClock()
	src := newStubSource()
	svc := NewService(src, normalize.New(clock))
	store := NewStore(svc, Options{
		Config:    cfg,
		Scheduler: scheduler.New(clock),
		Events:    sink,
	})
	t.Cleanup(store.Close)
	return &testStore{store: store, src: src, clock: clock}
}

func enrichedConfig() config.FleetConfig {
	return config.FleetConfig{EnrichmentEnabled: true}
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting: %s", msg)
}

func TestDriverCacheFirstNameWins(t *testing.T) {
	c := NewDriverCache()
	if !c.Remember("V1", "Jan") {
		t.Error("first Remember should add")
	}
	if c.Remember("V1", "Petr") {
		t.Error("second Remember should not overwrite")
	}
	if c.Remember("V2", "") || c.Remember("", "Eva") {
		t.Error("empty values should be ignored")
	}
	if name, _ := c.Get("V1"); name != "Jan" {
		t.Errorf("Get(V1) = %q, want Jan", name)
	}

	vehicles := []models.Vehicle{
		{ID: "V1"},
		{ID: "V2"},
		{ID: "V3", Driver: models.StringPtr("Own")},
	}
	if n := c.Apply(vehicles); n != 1 {
		t.Errorf("Apply patched %d, want 1", n)
	}
	if vehicles[0].DriverName() != "Jan" {
		t.Errorf("V1 driver = %q", vehicles[0].DriverName())
	}
	if vehicles[1].Driver != nil {
		t.Error("V2 should stay without driver")
	}
	if vehicles[2].DriverName() != "Own" {
		t.Error("existing driver must not be replaced")
	}
}

func TestFetchVehiclesToleratesGroupFailure(t *testing.T) {
	ts := newTestStore(t, config.FleetConfig{}, nil)
	ts.src.setVehicles("G1", vehicleRecord("V1"), vehicleRecord("V2"))
	ts.src.setVehicles("G2", vehicleRecord("V3"))
	ts.src.setVehicles("G3", vehicleRecord("V4"))
	ts.src.vehicleErr["G2"] = errors.New("boom")

	vehicles, err := ts.store.svc.FetchVehicles(context.Background())
	if err != nil {
		t.Fatalf("FetchVehicles: %v", err)
	}
	var codes []string
	for _, v := range vehicles {
		codes = append(codes, v.Code)
	}
	want := []string{"V1", "V2", "V4"}
	if len(codes) != len(want) {
		t.Fatalf("codes = %v, want %v", codes, want)
	}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("codes[%d] = %s, want %s", i, codes[i], want[i])
		}
	}
}

func TestFetchVehiclesAllGroupsFailing(t *testing.T) {
	ts := newTestStore(t, config.FleetConfig{}, nil)
	ts.src.setVehicles("G1", vehicleRecord("V1"))
	ts.src.vehicleErr["G1"] = errors.New("boom")

	if _, err := ts.store.svc.FetchVehicles(context.Background()); err == nil {
		t.Error("expected error when every group fails")
	}
}

func TestFetchVehiclesNoGroups(t *testing.T) {
	ts := newTestStore(t, config.FleetConfig{}, nil)
	vehicles, err := ts.store.svc.FetchVehicles(context.Background())
	if err != nil {
		t.Fatalf("FetchVehicles: %v", err)
	}
	if vehicles == nil || len(vehicles) != 0 {
		t.Errorf("vehicles = %v, want empty slice", vehicles)
	}
}

func TestEnrichmentIsSequentialAndOrdered(t *testing.T) {
	ts := newTestStore(t, enrichedConfig(), nil)
	ts.src.setVehicles("G1", vehicleRecord("V1"), vehicleRecord("V2"), vehicleRecord("V3"), vehicleRecord("V4"))
	ts.src.tripDelay = 3 * time.Millisecond
	ts.src.trips["V1"] = []normalize.Record{tripRecord("2026-01-05T08:00:00", "Jan", 60, 10)}
	ts.src.tripErr["V2"] = errors.New("upstream 502")
	ts.src.trips["V3"] = []normalize.Record{tripRecord("2026-01-05T09:00:00", "Eva", 60, 10)}

	if err := ts.store.LoadVehicles(context.Background()); err != nil {
		t.Fatalf("LoadVehicles: %v", err)
	}

	calls := ts.src.calls()
	want := []string{"V1", "V2", "V3", "V4"}
	if len(calls) != len(want) {
		t.Fatalf("trip calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d = %s, want %s", i, calls[i], want[i])
		}
	}
	if m := atomic.LoadInt32(&ts.src.maxActive); m != 1 {
		t.Errorf("max concurrent trip fetches = %d, want 1", m)
	}

	drivers := map[string]string{}
	for _, v := range ts.store.Snapshot().Vehicles {
		drivers[v.Code] = v.DriverName()
	}
	if drivers["V1"] != "Jan" || drivers["V3"] != "Eva" {
		t.Errorf("drivers = %v", drivers)
	}
	if drivers["V2"] != "" || drivers["V4"] != "" {
		t.Errorf("V2 and V4 should have no driver: %v", drivers)
	}
}

func TestEnrichmentRunsOnce(t *testing.T) {
	ts := newTestStore(t, enrichedConfig(), nil)
	ts.src.setVehicles("G1", vehicleRecord("V1"))

	for i := 0; i < 3; i++ {
		if err := ts.store.LoadVehicles(context.Background()); err != nil {
			t.Fatalf("LoadVehicles: %v", err)
		}
	}
	if n := len(ts.src.calls()); n != 1 {
		t.Errorf("trip calls = %d, want 1", n)
	}
}

func TestDriverNamesSurviveRefresh(t *testing.T) {
	ts := newTestStore(t, enrichedConfig(), nil)
	ts.src.setVehicles("G1", vehicleRecord("V1"))
	ts.src.trips["V1"] = []normalize.Record{tripRecord("2026-01-05T08:00:00", "Jan", 60, 10)}

	if err := ts.store.LoadVehicles(context.Background()); err != nil {
		t.Fatalf("LoadVehicles: %v", err)
	}

	withNull := vehicleRecord("V1")
	withNull["DriverName"] = nil
	ts.src.replaceVehicles("G1", withNull)

	for i := 0; i < 2; i++ {
		if err := ts.store.LoadVehicles(context.Background()); err != nil {
			t.Fatalf("LoadVehicles: %v", err)
		}
		v := ts.store.Snapshot().Vehicles
		if len(v) != 1 || v[0].DriverName() != "Jan" {
			t.Fatalf("refresh %d lost driver: %+v", i, v)
		}
	}
}

func TestDriverLearnedDuringRefreshIsKept(t *testing.T) {
	ts := newTestStore(t, config.FleetConfig{}, nil)
	ts.src.setVehicles("G1", vehicleRecord("V1"))
	ts.src.trips["V1"] = []normalize.Record{tripRecord("2026-01-05T08:00:00", "Eva", 60, 10)}

	if err := ts.store.LoadVehicles(context.Background()); err != nil {
		t.Fatalf("LoadVehicles: %v", err)
	}

	release := ts.src.gate("group/G1")
	before := atomic.LoadInt32(&ts.src.vehicleCalls)
	done := make(chan error, 1)
	go func() { done <- ts.store.LoadVehicles(context.Background()) }()
	waitFor(t, func() bool { return atomic.LoadInt32(&ts.src.vehicleCalls) > before }, "refresh in flight")

	if err := ts.store.LoadTrips(context.Background(), "V1", "a", "b"); err != nil {
		t.Fatalf("LoadTrips: %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("LoadVehicles: %v", err)
	}

	v := ts.store.Snapshot().Vehicles
	if len(v) != 1 || v[0].DriverName() != "Eva" {
		t.Errorf("vehicles after refresh = %+v, want driver Eva", v)
	}
}

func TestFailedRefreshKeepsPreviousVehicles(t *testing.T) {
	ts := newTestStore(t, config.FleetConfig{}, nil)
	ts.src.setVehicles("G1", vehicleRecord("V1"), vehicleRecord("V2"))

	if err := ts.store.LoadVehicles(context.Background()); err != nil {
		t.Fatalf("LoadVehicles: %v", err)
	}

	ts.src.mu.Lock()
	ts.src.groupErr = errors.New("timeout")
	ts.src.mu.Unlock()

	if err := ts.store.LoadVehicles(context.Background()); err == nil {
		t.Fatal("expected refresh error")
	}
	state := ts.store.Snapshot()
	if len(state.Vehicles) != 2 {
		t.Errorf("vehicles = %d, want 2 stale vehicles", len(state.Vehicles))
	}
	if state.Errors.Vehicles == nil {
		t.Error("vehicle error should be set")
	}
	if state.Loading.Vehicles {
		t.Error("loading flag should be cleared")
	}
	if state.LastUpdated == nil {
		t.Error("lastUpdated should survive a failed refresh")
	}
}

func TestLoadVehiclesDiscardsCancelledResult(t *testing.T) {
	ts := newTestStore(t, config.FleetConfig{}, nil)
	ts.src.setVehicles("G1", vehicleRecord("V1"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := ts.store.LoadVehicles(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if n := len(ts.store.Snapshot().Vehicles); n != 0 {
		t.Errorf("cancelled load applied %d vehicles", n)
	}
}

func TestLoadTripsAllVehicles(t *testing.T) {
	ts := newTestStore(t, config.FleetConfig{}, nil)
	ts.src.setVehicles("G1", vehicleRecord("V1"), vehicleRecord("V2"), vehicleRecord("V3"))
	ts.src.trips["V1"] = []normalize.Record{tripRecord("2026-01-05T08:00:00", "Jan", 60, 10)}
	ts.src.tripErr["V2"] = errors.New("boom")
	ts.src.trips["V3"] = []normalize.Record{
		tripRecord("2026-01-05T09:00:00", "", 60, 10),
		tripRecord("2026-01-05T10:00:00", "", 60, 10),
	}
	ts.src.tripDelay = time.Millisecond

	if err := ts.store.LoadVehicles(context.Background()); err != nil {
		t.Fatalf("LoadVehicles: %v", err)
	}
	if err := ts.store.LoadTrips(context.Background(), "", "2026-01-01T00:00", "2026-01-07T23:59"); err != nil {
		t.Fatalf("LoadTrips: %v", err)
	}

	trips := ts.store.Trips()
	if len(trips) != 3 {
		t.Fatalf("trips = %d, want 3", len(trips))
	}
	if trips[0].VehicleID != "V1" || trips[1].VehicleID != "V3" || trips[2].VehicleID != "V3" {
		t.Errorf("trip order = %s %s %s", trips[0].VehicleID, trips[1].VehicleID, trips[2].VehicleID)
	}
	if ts.store.Errors().Trips != nil {
		t.Error("partial failure must not set trip error")
	}
	if name, _ := ts.store.Drivers().Get("V1"); name != "Jan" {
		t.Errorf("driver cache V1 = %q", name)
	}
}

func TestLoadTripsSingleVehicleError(t *testing.T) {
	ts := newTestStore(t, config.FleetConfig{}, nil)
	ts.src.tripErr["V9"] = errors.New("status 500")

	if err := ts.store.LoadTrips(context.Background(), "V9", "a", "b"); err == nil {
		t.Fatal("expected error")
	}
	e := ts.store.Errors().Trips
	if e == nil || *e == "" {
		t.Fatal("trip error should be set")
	}
}

type recordingSink struct {
	mu     sync.Mutex
	events []models.FleetEvent
}

func (r *recordingSink) PublishEvents(_ context.Context, events []models.FleetEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
}

func TestLoadEventsLimitsFanOut(t *testing.T) {
	sink := &recordingSink{}
	ts := newTestStore(t, config.FleetConfig{}, sink)
	ts.src.setVehicles("G1",
		vehicleRecord("V1"), vehicleRecord("V2"), vehicleRecord("V3"),
		vehicleRecord("V4"), vehicleRecord("V5"))
	for _, code := range []string{"V1", "V2", "V3", "V4", "V5"} {
		ts.src.trips[code] = []normalize.Record{tripRecord("2026-01-05T08:00:00", "", 135, 10)}
	}

	if err := ts.store.LoadVehicles(context.Background()); err != nil {
		t.Fatalf("LoadVehicles: %v", err)
	}
	if err := ts.store.LoadEvents(context.Background(), "", "a", "b"); err != nil {
		t.Fatalf("LoadEvents: %v", err)
	}

	calls := ts.src.calls()
	if len(calls) != DefaultEventsMaxVehicles {
		t.Fatalf("trip calls = %v, want %d", calls, DefaultEventsMaxVehicles)
	}
	for _, c := range calls {
		if c == "V4" || c == "V5" {
			t.Errorf("unexpected fetch for %s", c)
		}
	}

	events := ts.store.Events()
	if len(events) != 3 {
		t.Fatalf("events = %d, want 3", len(events))
	}
	for _, e := range events {
		if e.Type != models.EventSpeeding || e.Severity != models.SeverityHigh {
			t.Errorf("event = %+v", e)
		}
	}
	if len(sink.events) != 3 {
		t.Errorf("sink got %d events, want 3", len(sink.events))
	}
}

func TestLoadSpeedChart(t *testing.T) {
	ts := newTestStore(t, config.FleetConfig{}, nil)
	ts.src.trips["V1"] = []normalize.Record{
		{"StartTime": "2026-01-05T07:10:00", "AverageSpeed": 40.0},
		{"StartTime": "2026-01-05T18:30:00", "AverageSpeed": 80.0},
	}

	if err := ts.store.LoadSpeedChart(context.Background(), "", "a", "b", 1); err != nil {
		t.Fatalf("LoadSpeedChart: %v", err)
	}
	if len(ts.src.calls()) != 0 {
		t.Error("no vehicle should mean no fetch")
	}

	if err := ts.store.LoadSpeedChart(context.Background(), "V1", "a", "b", 1); err != nil {
		t.Fatalf("LoadSpeedChart: %v", err)
	}
	points := ts.store.SpeedChart()
	if len(points) != 19 {
		t.Fatalf("points = %d, want 19", len(points))
	}
	if points[7].Speed != 40 || points[18].Speed != 80 || points[8].Speed != 0 {
		t.Errorf("points 7/8/18 = %d/%d/%d", points[7].Speed, points[8].Speed, points[18].Speed)
	}

	ts.src.tripErr["V1"] = errors.New("boom")
	if err := ts.store.LoadSpeedChart(context.Background(), "V1", "a", "b", 1); err != nil {
		t.Fatalf("LoadSpeedChart: %v", err)
	}
	if n := len(ts.store.SpeedChart()); n != 0 {
		t.Errorf("failed load left %d points", n)
	}
}
