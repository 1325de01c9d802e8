// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

/*
Package api serves the FleetInsights HTTP surface on a chi router.

Two families of endpoints share one router:

Passthrough proxy (/api/...):

	GET /api/groups                    upstream /groups
	GET /api/vehicles?group=CODE       upstream /vehicles/group/{CODE}
	GET /api/vehicle/{code}            upstream /vehicle/{code}
	GET /api/trips?code&from&to        upstream trips, served through the trip cache (X-Cache)
	GET /api/history?codes&from&to     upstream /vehicles/history/{codes}
	GET /api/geocode/reverse?lat&lng   Nominatim through the serial queue
	GET /api/weather?lat&lng           Open-Meteo, cached and rate limited

These return the upstream status and body unchanged. A timeout becomes
504 {"error":"Upstream timeout","timeoutMs":N} and any other transport
failure 502 {"error":"Upstream request failed","details":...}.

Dashboard (/api/v1/...):

The fleet endpoints read and drive the server-side fleet store and answer
with the standard envelope:

	{"success":true,"data":...,"metadata":{"timestamp":...,"request_id":...}}
	{"success":false,"error":{"code":"VALIDATION_ERROR","message":...},"metadata":{...}}

GET /api/v1/live upgrades to a websocket that receives fleet_state frames.

Operational:

	GET /health    {"ok":true,"queueLength":N}
	GET /metrics   Prometheus exposition

Middleware order: request id, real IP, panic recovery, request log, CORS,
then per-group rate limits, security headers, compression and Prometheus
request metrics.
*/
package api
