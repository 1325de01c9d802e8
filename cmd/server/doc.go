// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

/*
Package main is the entry point for the FleetInsights server.

FleetInsights sits between a fleet dashboard and the GPS Dozor tracking
provider. It proxies the provider's API with credentials kept server-side,
caches trip history, resolves addresses and weather for map popups, and
keeps a live fleet state (vehicles, trips, derived events, speed chart and
the dashboard's view selection) that browsers receive over a websocket.

# Application Architecture

Services run under a Suture v4 supervisor tree:

	RootSupervisor ("fleetinsights")
	├── WorkerSupervisor ("worker-layer")
	│   ├── geocode-queue (serial Nominatim lookups)
	│   └── cache-cleanup-{trips,geocode,weather}
	├── FleetSupervisor ("fleet-layer")
	│   ├── fleet-store (polling and debounced reloads)
	│   └── websocket-hub (live state fan-out)
	└── APISupervisor ("api-layer")
	    └── http-server (chi router)

Initialization order:

 1. Configuration: Koanf v2 with defaults, config file and environment
 2. Logging: zerolog with JSON or console output
 3. Caches and the geocode queue
 4. Upstream client, circuit breaker and gateway
 5. Fleet service, event deriver and store
 6. NATS event publisher (optional)
 7. WebSocket hub, handlers and router
 8. Supervisor tree

# Configuration

Priority: Environment variables > Config file > Defaults

	# Provider
	DOZOR_BASE_URL=https://a1.gpsguard.eu/api/v1
	DOZOR_USER=<user>
	DOZOR_PASS=<password>
	DOZOR_TIMEOUT_MS=15000       # bare milliseconds or a Go duration

	# Server
	PORT=4000
	CORS_ORIGIN=https://dashboard.example.com
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console

	# Fleet
	POLL_INTERVAL=15s
	ENRICHMENT_ENABLED=true

	# Events (optional)
	NATS_ENABLED=true
	NATS_URL=nats://127.0.0.1:4222

The server starts without provider credentials; every upstream call then
fails with 502 until they are configured.

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains for the
configured shutdown timeout, the fleet store stops polling, and websocket
clients receive a close frame.
*/
package main
