// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zoobzio/clockz"

	"github.com/tomtom215/fleetinsights/internal/cache"
	"github.com/tomtom215/fleetinsights/internal/config"
	"github.com/tomtom215/fleetinsights/internal/models"
)

func TestFormatAddress(t *testing.T) {
	tests := []struct {
		name    string
		address map[string]string
		display string
		want    string
	}{
		{
			name:    "city and street with number",
			address: map[string]string{"city": "Praha", "road": "Wenceslas", "house_number": "12"},
			want:    "Praha, Wenceslas 12",
		},
		{
			name:    "town and pedestrian",
			address: map[string]string{"town": "Beroun", "pedestrian": "Husovo náměstí"},
			want:    "Beroun, Husovo náměstí",
		},
		{
			name:    "village only",
			address: map[string]string{"village": "Lhota"},
			want:    "Lhota",
		},
		{
			name:    "county then neighbourhood",
			address: map[string]string{"county": "Okres Kladno", "neighbourhood": "Rozdělov"},
			want:    "Okres Kladno, Rozdělov",
		},
		{
			name:    "house number without street is ignored",
			address: map[string]string{"municipality": "Brno", "house_number": "5"},
			want:    "Brno",
		},
		{
			name:    "display name fallback",
			address: map[string]string{},
			display: "D1, Czechia",
			want:    "D1, Czechia",
		},
		{
			name: "coordinates fallback",
			want: "50.1, 14.25",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatAddress(tt.address, tt.display, 50.1, 14.25); got != tt.want {
				t.Errorf("FormatAddress() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGeocodeKeys(t *testing.T) {
	if got := GeocodeKey(50.08754, 14.42139); got != "50.0875,14.4214" {
		t.Errorf("GeocodeKey = %s", got)
	}
	if got := FormatCoordinates(50.08754, 14.42139); got != "50.0875, 14.4214" {
		t.Errorf("FormatCoordinates = %s", got)
	}
}

// fakeClock is the part of the clockz fake clock the tests drive.
type fakeClock interface {
	clockz.Clock
	Advance(time.Duration)
	BlockUntilReady()
}

type geocodeFixture struct {
	geocoder *Geocoder
	queue    *cache.SerialQueue
	clock    fakeClock
	hits     int32
	lastReq  atomic.Value
}

func newGeocodeFixture(t *testing.T, handler http.HandlerFunc, cooldown time.Duration) *geocodeFixture {
	t.Helper()
	f := &geocodeFixture{clock: clockz.NewFakeClock()}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.hits, 1)
		f.lastReq.Store(r.Clone(context.Background()))
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	f.queue = cache.NewSerialQueue(cooldown, f.clock, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go f.queue.Run(ctx)

	f.geocoder = NewGeocoder(config.GeocodeConfig{
		BaseURL:   server.URL,
		UserAgent: "FleetInsights/1.0 (fleet-dashboard-proxy)",
		Language:  "cs",
		Timeout:   time.Second,
	}, cache.New[string]("test_geocode", 10*time.Minute, f.clock), f.queue)
	return f
}

func TestGeocoderReverse(t *testing.T) {
	f := newGeocodeFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"display_name":"x","address":{"city":"Praha","road":"Národní","house_number":"1"}}`))
	}, 0)

	got, err := f.geocoder.Reverse(context.Background(), 50.0819, 14.4185)
	if err != nil {
		t.Fatalf("Reverse: %v", err)
	}
	want := models.GeocodeResult{Address: "Praha, Národní 1"}
	if got != want {
		t.Errorf("Reverse = %+v, want %+v", got, want)
	}

	req := f.lastReq.Load().(*http.Request)
	if req.URL.Path != "/reverse" {
		t.Errorf("path = %s", req.URL.Path)
	}
	q := req.URL.Query()
	wantQuery := url.Values{
		"lat": {"50.0819"}, "lon": {"14.4185"}, "format": {"json"},
		"addressdetails": {"1"}, "zoom": {"16"}, "accept-language": {"cs"},
	}
	for k, v := range wantQuery {
		if q.Get(k) != v[0] {
			t.Errorf("query %s = %q, want %q", k, q.Get(k), v[0])
		}
	}
	if ua := req.Header.Get("User-Agent"); ua != "FleetInsights/1.0 (fleet-dashboard-proxy)" {
		t.Errorf("User-Agent = %q", ua)
	}

	// Within ~11 m the cached address is reused.
	got, err = f.geocoder.Reverse(context.Background(), 50.08192, 14.41848)
	if err != nil || !got.Cached || got.Address != "Praha, Národní 1" {
		t.Errorf("second Reverse = %+v, %v", got, err)
	}
	if hits := atomic.LoadInt32(&f.hits); hits != 1 {
		t.Errorf("provider hits = %d, want 1", hits)
	}
}

func TestGeocoderFallbackIsCached(t *testing.T) {
	f := newGeocodeFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}, 0)

	got, err := f.geocoder.Reverse(context.Background(), 50.08754, 14.42139)
	if err != nil {
		t.Fatalf("Reverse: %v", err)
	}
	if !got.Fallback || got.Address != "50.0875, 14.4214" {
		t.Errorf("Reverse = %+v, want coordinate fallback", got)
	}

	got, _ = f.geocoder.Reverse(context.Background(), 50.08754, 14.42139)
	if !got.Cached || got.Address != "50.0875, 14.4214" {
		t.Errorf("fallback should be served from cache, got %+v", got)
	}
	if hits := atomic.LoadInt32(&f.hits); hits != 1 {
		t.Errorf("provider hits = %d, want 1", hits)
	}
}

func TestGeocoderSerializesWithCooldown(t *testing.T) {
	var inFlight, maxInFlight int32
	f := newGeocodeFixture(t, func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&inFlight, 1)
		if n > atomic.LoadInt32(&maxInFlight) {
			atomic.StoreInt32(&maxInFlight, n)
		}
		defer atomic.AddInt32(&inFlight, -1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"address":{"city":"Praha"}}`))
	}, 1100*time.Millisecond)

	results := make(chan models.GeocodeResult, 3)
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := f.geocoder.Reverse(context.Background(), 50+float64(i), 14)
			if err != nil {
				t.Errorf("Reverse: %v", err)
			}
			results <- r
		}(i)
	}

	waitResult := func(n int) {
		t.Helper()
		select {
		case <-results:
		case <-time.After(2 * time.Second):
			t.Fatalf("lookup %d did not complete", n)
		}
	}

	waitResult(1)
	for n := 2; n <= 3; n++ {
		time.Sleep(20 * time.Millisecond)
		if got := atomic.LoadInt32(&f.hits); got != int32(n-1) {
			t.Fatalf("provider hits before cooldown = %d, want %d", got, n-1)
		}
		if f.geocoder.QueueLength() != 3-(n-1) {
			t.Errorf("queue length = %d, want %d", f.geocoder.QueueLength(), 3-(n-1))
		}
		f.clock.Advance(1100 * time.Millisecond)
		f.clock.BlockUntilReady()
		waitResult(n)
	}
	wg.Wait()

	if maxInFlight != 1 {
		t.Errorf("max concurrent provider requests = %d, want 1", maxInFlight)
	}
}

func TestGeocoderCallerCancelKeepsAnswer(t *testing.T) {
	f := newGeocodeFixture(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"address":{"city":"Praha","road":"Národní"}}`))
	}, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := f.geocoder.Reverse(ctx, 50.08, 14.42); err == nil {
		t.Fatal("Reverse should fail once the caller's deadline passes")
	}

	got, err := f.geocoder.Reverse(context.Background(), 50.08, 14.42)
	if err != nil {
		t.Fatalf("Reverse: %v", err)
	}
	if got.Fallback || got.Address != "Praha, Národní" {
		t.Errorf("Reverse = %+v, want the provider's address", got)
	}
	if hits := atomic.LoadInt32(&f.hits); hits != 1 {
		t.Errorf("provider hits = %d, want 1", hits)
	}
}
