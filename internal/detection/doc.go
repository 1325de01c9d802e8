// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

// Package detection derives synthetic fleet events from trip history.
//
// The upstream provider has no events endpoint. Every event is computed from a
// single trip by a Rule, and the full event set is recomputed whenever the
// source trips change:
//
//   - SpeedingRule: trip max speed above a threshold (110 km/h by default),
//     high severity above a second threshold (130 km/h).
//   - LongTripRule: trip distance above a threshold (300 km by default).
//
// Thresholds come from configuration (fleet.speeding_threshold_kph and friends).
package detection
