// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

/*
Package fleet owns the in-memory fleet state served to dashboards.

Components:

  - DriverCache: permanent vehicle code to driver name map. Names are
    learned from trips and events and are never cleared, so a vehicle
    that once showed a driver keeps showing it after routine refreshes.
  - Service: fetches and normalizes vehicles and trips from the provider
    gateway. Per-group and per-vehicle fan-outs tolerate individual
    failures and keep results in input order.
  - Store: the authoritative snapshot of vehicles, trips, events and the
    speed chart, plus view state (selection, highlight, filters). It
    drives vehicle polling while dashboards are connected and debounces
    reloads when filters change.

Driver enrichment runs once, on the first successful vehicle load. It
fetches each vehicle's trips strictly one at a time because the provider
drops results when trip requests overlap.

Store mutations notify subscribers through Subscribe. Listeners must not
block; the websocket hub queues a broadcast and returns.
*/
package fleet
