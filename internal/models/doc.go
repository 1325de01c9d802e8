// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

// Package models defines the internal fleet domain: vehicles, trips, the
// synthetic events derived from trips, and chart and weather values.
//
// JSON field names follow the dashboard's camelCase wire format. Optional
// values (driver, fuel level) are pointers so they serialize as null rather
// than as a zero value.
package models
