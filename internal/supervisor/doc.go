// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

/*
Package supervisor runs the long-lived parts of FleetInsights under a suture v4
supervisor tree.

The tree has three layers so a crash in one does not take down the others:

	RootSupervisor ("fleetinsights")
	├── WorkerSupervisor ("worker-layer")
	│   ├── geocode-queue      serial reverse-geocoding queue
	│   └── cache-cleanup-*    periodic TTL eviction, one per cache
	├── FleetSupervisor ("fleet-layer")
	│   ├── fleet-store        vehicle poller and debounced reloads
	│   └── websocket-hub      live dashboard connections
	└── APISupervisor ("api-layer")
	    └── http-server

Services implement suture.Service. Returning nil stops a service for good,
returning an error restarts it with backoff, and every service must return
promptly once its context is cancelled.

Events (starts, failures, backoff) are logged through sutureslog, which
main wires to the zerolog-backed slog handler.
*/
package supervisor
