// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package api

import (
	"context"
	"time"

	"github.com/tomtom215/fleetinsights/internal/config"
	"github.com/tomtom215/fleetinsights/internal/fleet"
	"github.com/tomtom215/fleetinsights/internal/models"
	"github.com/tomtom215/fleetinsights/internal/upstream"
	ws "github.com/tomtom215/fleetinsights/internal/websocket"
)

// Gateway is the upstream provider as the proxy sees it.
// Satisfied by *upstream.Gateway.
type Gateway interface {
	Groups(ctx context.Context) (upstream.Response, error)
	VehiclesByGroup(ctx context.Context, group string) (upstream.Response, error)
	Vehicle(ctx context.Context, code string) (upstream.Response, error)
	History(ctx context.Context, codes, from, to string) (upstream.Response, error)
	Trips(ctx context.Context, code, from, to string) (upstream.Response, bool, error)
}

// Geocoder resolves coordinates to addresses. Satisfied by *geo.Geocoder.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lng float64) (models.GeocodeResult, error)
	QueueLength() int
}

// WeatherProvider returns current conditions. Satisfied by *geo.Weather.
type WeatherProvider interface {
	Current(ctx context.Context, lat, lng float64) (models.WeatherData, error)
}

// Handler contains dependencies for API handlers
//
// Handler methods are split across files:
//   - handlers_proxy.go: upstream passthrough
//   - handlers_geo.go: reverse geocoding and weather
//   - handlers_health.go: /health
//   - handlers_fleet.go: /api/v1/fleet
//   - handlers_websocket.go: /api/v1/live
type Handler struct {
	gateway         Gateway
	upstreamTimeout time.Duration
	geocoder        Geocoder
	weather         WeatherProvider
	store           *fleet.Store
	hub             *ws.Hub
	config          *config.Config
	startTime       time.Time
}

// Deps groups the components a Handler serves.
type Deps struct {
	Config   *config.Config
	Gateway  Gateway
	Geocoder Geocoder
	Weather  WeatherProvider
	Store    *fleet.Store
	Hub      *ws.Hub
}

// NewHandler creates a Handler. Hub may be nil, in which case the live
// endpoint answers 503.
func NewHandler(d Deps) *Handler {
	timeout := d.Config.Upstream.Timeout
	if timeout <= 0 {
		timeout = upstream.DefaultTimeout
	}
	return &Handler{
		gateway:         d.Gateway,
		upstreamTimeout: timeout,
		geocoder:        d.Geocoder,
		weather:         d.Weather,
		store:           d.Store,
		hub:             d.Hub,
		config:          d.Config,
		startTime:       time.Now(),
	}
}
