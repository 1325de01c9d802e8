// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package normalize

import (
	"strings"
	"time"

	"github.com/tomtom215/fleetinsights/internal/models"
)

const (
	// MovingSpeedKph is the speed above which a vehicle counts as moving.
	MovingSpeedKph = 5

	// OfflineAfter is the position age beyond which a stopped vehicle is offline.
	OfflineAfter = 30 * time.Minute
)

// timestampLayouts cover the shapes GPS Dozor has used. Layouts without a
// zone are interpreted in local time.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses an upstream timestamp. ok is false for empty or
// unrecognized input.
func ParseTimestamp(s string) (t time.Time, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// DeriveStatus classifies a vehicle from its speed and last position time.
// A missing or unparseable timestamp counts as infinitely old.
func DeriveStatus(speed float64, lastUpdate string, now time.Time) models.VehicleStatus {
	if speed > MovingSpeedKph {
		return models.StatusMoving
	}
	ts, ok := ParseTimestamp(lastUpdate)
	if !ok || now.Sub(ts) > OfflineAfter {
		return models.StatusOffline
	}
	return models.StatusIdle
}

// ParseTripLength converts an "HH:MM" duration to minutes. Anything other
// than exactly two colon-separated integer parts yields 0.
func ParseTripLength(value string) int {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0
	}
	h, ok := leadingInt(parts[0])
	if !ok {
		return 0
	}
	m, ok := leadingInt(parts[1])
	if !ok {
		return 0
	}
	return h*60 + m
}

// leadingInt parses the integer prefix of s after leading whitespace,
// accepting an optional sign. " 7" and "7m" both yield 7.
func leadingInt(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t\n\r")
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	n, digits := 0, 0
	for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
		n = n*10 + int(s[digits]-'0')
		digits++
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}
