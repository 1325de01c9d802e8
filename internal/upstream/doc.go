// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

/*
Package upstream is the gateway to the GPS tracking provider (GPS Dozor).

Client adds Basic Auth and a hard timeout to every request and returns the
raw status and body. Breaker puts a sony/gobreaker circuit breaker in front
of any Fetcher. Gateway maps provider endpoints to paths and serves trip
history through a shared five minute response cache:

	GET /groups
	GET /vehicles/group/{group}
	GET /vehicle/{code}
	GET /vehicle/{code}/trips?from&to
	GET /vehicles/history/{codes}?from&to

Timestamps in from/to are local time in the form YYYY-MM-DDTHH:MM.

# Errors

	ErrTimeout              request exceeded the timeout
	ErrCircuitOpen          breaker is rejecting requests
	*UpstreamError          non-2xx response (from DecodeList/DecodeObject)
	*MalformedResponseError body is not the expected JSON

IsRetryable classifies timeouts, 5xx, network errors and an open breaker as
transient.
*/
package upstream
