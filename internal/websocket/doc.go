// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

/*
Package websocket pushes live fleet state to connected dashboards.

Key Components:

  - Hub: owns the set of connected clients, tracks dashboard presence and
    broadcasts the fleet snapshot whenever the store reports a change.
  - Client: one websocket connection with a read and a write goroutine.
  - Message: {"type": ..., "data": ...} JSON frame.

Presence:

Every registered client counts as one dashboard viewer. The hub reports
arrivals and departures to a Presence (the fleet store), which polls the
upstream only while at least one viewer is connected.

Change notifications are coalesced: NotifyStateChanged only marks the
state dirty, and the hub loop sends one snapshot per wake-up, so a burst
of store mutations produces a single frame.

Message Types:

  - fleet_state: full snapshot, sent on connect and after every change
  - fleet_events: a newly derived event set, sent when a load produces one
  - ping / pong: application-level keepalive from the browser

Each client has two goroutines:
  - readPump: reads client frames, answers ping, detects disconnects
  - writePump: writes queued frames and protocol pings
*/
package websocket
