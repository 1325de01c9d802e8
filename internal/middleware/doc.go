// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

/*
Package middleware provides HTTP middleware shared by every route group.

Key Components:

  - RequestID: reuses an incoming X-Request-ID or generates a UUID, echoes
    it on the response and stores it on the context for logging.Ctx.
  - PrometheusMetrics: counts requests and observes latency per chi route
    pattern, so path parameters do not explode label cardinality.

Both are chi-compatible (func(http.Handler) http.Handler):

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)

The metrics writer passes Hijack and Flush through, so websocket upgrades
work behind it.
*/
package middleware
