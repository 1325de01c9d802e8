// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/zoobzio/clockz"

	"github.com/tomtom215/fleetinsights/internal/api"
	"github.com/tomtom215/fleetinsights/internal/cache"
	"github.com/tomtom215/fleetinsights/internal/config"
	"github.com/tomtom215/fleetinsights/internal/daterange"
	"github.com/tomtom215/fleetinsights/internal/detection"
	"github.com/tomtom215/fleetinsights/internal/eventbus"
	"github.com/tomtom215/fleetinsights/internal/fleet"
	"github.com/tomtom215/fleetinsights/internal/geo"
	"github.com/tomtom215/fleetinsights/internal/logging"
	"github.com/tomtom215/fleetinsights/internal/metrics"
	"github.com/tomtom215/fleetinsights/internal/models"
	"github.com/tomtom215/fleetinsights/internal/normalize"
	"github.com/tomtom215/fleetinsights/internal/scheduler"
	"github.com/tomtom215/fleetinsights/internal/supervisor"
	"github.com/tomtom215/fleetinsights/internal/supervisor/services"
	"github.com/tomtom215/fleetinsights/internal/upstream"
	ws "github.com/tomtom215/fleetinsights/internal/websocket"
)

// readHeaderTimeout bounds slow clients before the handler runs.
const readHeaderTimeout = 10 * time.Second

// app holds the wired components of one server process.
type app struct {
	cfg *config.Config

	tripCache    *cache.Cache[upstream.Response]
	geocodeCache *cache.Cache[string]
	weatherCache *cache.Cache[models.WeatherData]
	geocodeQueue *cache.SerialQueue

	gateway   *upstream.Gateway
	store     *fleet.Store
	publisher *eventbus.Publisher
	hub       *ws.Hub
	server    *http.Server

	unsubscribe func()
}

// newApp wires every component from cfg. Nothing is started.
func newApp(cfg *config.Config, clock clockz.Clock) *app {
	a := &app{cfg: cfg}

	a.tripCache = cache.New[upstream.Response](upstream.TripCacheName, cfg.Cache.TripTTL, clock)
	a.geocodeCache = cache.New[string](geo.GeocodeCacheName, cfg.Cache.GeocodeTTL, clock)
	a.weatherCache = cache.New[models.WeatherData](geo.WeatherCacheName, cfg.Cache.WeatherTTL, clock)
	a.geocodeQueue = cache.NewSerialQueue(cfg.Geocode.Cooldown, clock, func(n int) {
		metrics.GeocodeQueueLength.Set(float64(n))
	})

	var fetcher upstream.Fetcher = upstream.NewClient(cfg.Upstream)
	if cfg.Upstream.BreakerEnabled {
		fetcher = upstream.NewBreaker(fetcher, upstream.DefaultBreakerSettings())
	}
	a.gateway = upstream.NewGateway(fetcher, a.tripCache)

	geocoder := geo.NewGeocoder(cfg.Geocode, a.geocodeCache, a.geocodeQueue)
	weather := geo.NewWeather(cfg.Weather, a.weatherCache)

	a.publisher = initEventPublisher(cfg.NATS)
	svc := fleet.NewService(a.gateway, normalize.New(clock))
	a.store = fleet.NewStore(svc, fleet.Options{
		Config:    cfg.Fleet,
		Scheduler: scheduler.New(clock),
		Calendar:  daterange.NewCalendar(clock),
		Deriver:   detection.NewDeriver(deriverConfig(cfg.Fleet)),
		Events:    fleet.EventSinkFunc(a.publishEvents),
	})

	a.hub = ws.NewHub(func() interface{} { return a.store.Snapshot() }, a.store)
	a.unsubscribe = a.store.Subscribe(a.hub.NotifyStateChanged)

	handler := api.NewHandler(api.Deps{
		Config:   cfg,
		Gateway:  a.gateway,
		Geocoder: geocoder,
		Weather:  weather,
		Store:    a.store,
		Hub:      a.hub,
	})
	router := api.NewRouter(handler, api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(cfg.Security)))

	// WriteTimeout stays zero: it would cut off websocket connections.
	// Handlers are bounded by the upstream and geocode timeouts instead.
	a.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}
	return a
}

// deriverConfig maps the configured thresholds onto the event rules,
// keeping the stock value for any that are unset.
func deriverConfig(cfg config.FleetConfig) detection.Config {
	dc := detection.DefaultConfig()
	if cfg.SpeedingThresholdKph > 0 {
		dc.Speeding.ThresholdKph = cfg.SpeedingThresholdKph
	}
	if cfg.SpeedingHighThresholdKph > 0 {
		dc.Speeding.HighThresholdKph = cfg.SpeedingHighThresholdKph
	}
	if cfg.LongTripThresholdKm > 0 {
		dc.LongTrip.ThresholdKm = cfg.LongTripThresholdKm
	}
	return dc
}

// supervise adds every long-running component to the tree.
func (a *app) supervise(tree *supervisor.SupervisorTree) {
	tree.AddWorkerService(services.NewNamedService("geocode-queue", a.geocodeQueue.Run))
	for _, c := range []services.Cleaner{a.tripCache, a.geocodeCache, a.weatherCache} {
		tree.AddWorkerService(services.NewCacheCleanupService(c, a.cfg.Cache.CleanupInterval))
	}

	tree.AddFleetService(services.NewNamedService("fleet-store", a.store.Serve))
	tree.AddFleetService(services.NewNamedService("websocket-hub", a.hub.Serve))

	shutdownTimeout := a.cfg.Server.ShutdownTimeout
	tree.AddAPIService(services.NewHTTPServerService(a.server, shutdownTimeout))
}

// publishEvents sends derived events to connected dashboards and, when
// configured, to NATS. Loads only start after newApp returns, so the hub
// is always set here.
func (a *app) publishEvents(ctx context.Context, events []models.FleetEvent) {
	a.hub.PublishEvents(ctx, events)
	if a.publisher != nil {
		a.publisher.PublishEvents(ctx, events)
	}
}

// close releases what the supervisor does not own.
func (a *app) close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			logging.Warn().Err(err).Msg("Error closing NATS publisher")
		}
	}
}

// initEventPublisher connects to NATS when enabled. A failed connection
// is logged and events are not published; the dashboard works without
// them.
func initEventPublisher(cfg config.NATSConfig) *eventbus.Publisher {
	if !cfg.Enabled {
		logging.Info().Msg("NATS event publishing disabled")
		return nil
	}
	pub, err := eventbus.Connect(cfg)
	if err != nil {
		logging.Warn().Err(err).Str("url", cfg.URL).Msg("NATS unavailable, fleet events will not be published")
		return nil
	}
	logging.Info().Str("prefix", cfg.SubjectPrefix).Msg("Publishing fleet events to NATS")
	return pub
}
