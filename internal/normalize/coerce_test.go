// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package normalize

import (
	"math"
	"testing"
)

func TestAsString(t *testing.T) {
	tests := []struct {
		in   interface{}
		want string
	}{
		{nil, ""},
		{"  ABC-123 ", "ABC-123"},
		{float64(42), "42"},
		{1.5, "1.5"},
		{true, "true"},
		{map[string]interface{}{"a": 1}, ""},
		{[]interface{}{1}, ""},
	}
	for _, tt := range tests {
		if got := AsString(tt.in); got != tt.want {
			t.Errorf("AsString(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAsNumber(t *testing.T) {
	tests := []struct {
		in   interface{}
		want float64
	}{
		{float64(88), 88},
		{" 12.5 ", 12.5},
		{"abc", 0},
		{"", 0},
		{math.NaN(), 0},
		{math.Inf(1), 0},
		{"Infinity", 0},
		{nil, 0},
		{true, 0},
		{map[string]interface{}{}, 0},
	}
	for _, tt := range tests {
		got := AsNumber(tt.in)
		if got != tt.want || math.IsNaN(got) {
			t.Errorf("AsNumber(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestAsBoolean(t *testing.T) {
	truthy := []interface{}{true, "true", float64(1), "1", 1}
	falsy := []interface{}{false, "false", float64(0), float64(2), "yes", "TRUE", nil, map[string]interface{}{}}

	for _, v := range truthy {
		if !AsBoolean(v) {
			t.Errorf("AsBoolean(%v) = false, want true", v)
		}
	}
	for _, v := range falsy {
		if AsBoolean(v) {
			t.Errorf("AsBoolean(%v) = true, want false", v)
		}
	}
}

func TestRecordResolutionOrder(t *testing.T) {
	r := Record{"Name": "", "name": "camel", "Speed": "0", "speed": 14.0}

	if got := r.String("Name", "name"); got != "camel" {
		t.Errorf("empty primary should fall through, got %q", got)
	}
	if got := r.Number("Speed", "speed"); got != 14 {
		t.Errorf("zero primary should fall through, got %v", got)
	}

	both := Record{"Name": "Primary", "name": "secondary"}
	if got := both.String("Name", "name"); got != "Primary" {
		t.Errorf("primary should win, got %q", got)
	}
}

func TestRecordNested(t *testing.T) {
	r := Record{"LastPosition": "garbage", "lastPosition": map[string]interface{}{"latitude": 50.0}}
	if r.Nested("LastPosition", "lastPosition") != nil {
		t.Error("a present non-object primary should yield nil")
	}

	r = Record{"LastPosition": nil, "lastPosition": map[string]interface{}{"latitude": 50.0}}
	if got := r.Nested("LastPosition", "lastPosition"); got == nil || got.Number("latitude") != 50 {
		t.Errorf("nil primary should fall through, got %v", got)
	}
}

func TestRoundHalfUp(t *testing.T) {
	if RoundHalfUp(2.5) != 3 || RoundHalfUp(-2.5) != -2 || RoundHalfUp(12345.4) != 12345 {
		t.Error("RoundHalfUp mismatch")
	}
}
