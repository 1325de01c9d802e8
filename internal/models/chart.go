// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package models

// SpeedPoint is one bin of the speed chart: an "HH:00" label and the
// rounded average speed in km/h (0 for bins without trips).
type SpeedPoint struct {
	Time  string `json:"time"`
	Speed int    `json:"speed"`
}

// WeatherData is the current weather at a coordinate.
type WeatherData struct {
	Temperature int    `json:"temperature"`
	WindSpeed   int    `json:"windSpeed"`
	Condition   string `json:"condition"`
	Icon        string `json:"icon"`
	Fallback    bool   `json:"fallback,omitempty"`
}

// GeocodeResult is a reverse-geocoded address.
type GeocodeResult struct {
	Address  string `json:"address"`
	Cached   bool   `json:"cached,omitempty"`
	Fallback bool   `json:"fallback,omitempty"`
}
