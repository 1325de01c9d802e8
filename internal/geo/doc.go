// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

// Package geo wraps the two third-party location services shown next to
// vehicle positions: reverse geocoding (Nominatim) and current weather
// (Open-Meteo).
//
// Neither service ever surfaces an upstream failure to callers. A failed
// geocode yields the formatted coordinates and a failed weather lookup the
// "Neznámé" condition, and both fallbacks are cached like real results.
package geo
