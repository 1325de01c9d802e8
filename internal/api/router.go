// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/fleetinsights/internal/middleware"
)

// Router wires handlers to routes.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a Router. A nil mw uses permissive defaults.
func NewRouter(handler *Handler, mw *ChiMiddleware) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, chiMiddleware: mw}
}

// Setup builds the chi route tree.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(RequestLogger)
	r.Use(router.chiMiddleware.CORS())

	r.With(router.chiMiddleware.RateLimitHealth()).Get("/health", router.handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)

		// The websocket is not compressed.
		r.With(router.chiMiddleware.RateLimitLive()).Get("/v1/live", router.handler.Live)

		r.Group(func(r chi.Router) {
			r.Use(chimiddleware.Compress(5))

			// Passthrough proxy
			r.Get("/groups", router.handler.Groups)
			r.Get("/vehicles", router.handler.Vehicles)
			r.Get("/vehicle/{code}", router.handler.Vehicle)
			r.Get("/trips", router.handler.Trips)
			r.Get("/history", router.handler.History)
			r.With(router.chiMiddleware.RateLimitGeocode()).Get("/geocode/reverse", router.handler.ReverseGeocode)
			r.Get("/weather", router.handler.Weather)

			// Dashboard
			r.Get("/v1/status", router.handler.Status)
			r.Get("/v1/fleet/state", router.handler.FleetState)
			r.Get("/v1/fleet/vehicles", router.handler.FleetVehicles)
			r.Post("/v1/fleet/vehicles/refresh", router.handler.RefreshVehicles)
			r.Get("/v1/fleet/trips", router.handler.FleetTrips)
			r.Get("/v1/fleet/events", router.handler.FleetEvents)
			r.Get("/v1/fleet/speed-chart", router.handler.FleetSpeedChart)
			r.Get("/v1/fleet/drivers", router.handler.FleetDrivers)

			r.Get("/v1/fleet/filters", router.handler.FleetFilters)
			r.Put("/v1/fleet/filters", router.handler.SetFleetFilters)
			r.Delete("/v1/fleet/filters", router.handler.ResetFleetFilters)

			r.Put("/v1/fleet/selection", router.handler.SetSelection)
			r.Put("/v1/fleet/highlight", router.handler.SetHighlight)
			r.Delete("/v1/fleet/highlight", router.handler.ClearHighlight)
			r.Put("/v1/fleet/history-vehicle", router.handler.SetHistoryVehicle)
			r.Put("/v1/fleet/events-vehicle", router.handler.SetEventsVehicle)
			r.Put("/v1/fleet/status-filter", router.handler.SetStatusFilter)
			r.Put("/v1/fleet/search", router.handler.SetSearch)
		})
	})

	return r
}
