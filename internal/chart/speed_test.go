// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package chart

import (
	"testing"

	"github.com/tomtom215/fleetinsights/internal/models"
)

func at(start string, avg float64) models.Trip {
	return models.Trip{StartTime: start, AvgSpeed: avg}
}

func TestBuildSpeedChartContinuity(t *testing.T) {
	points := BuildSpeedChart([]models.Trip{
		at("2025-03-10T07:10:00", 42),
		at("2025-03-10T18:45:00", 65),
	}, 1)

	if len(points) != 19 {
		t.Fatalf("got %d points, want 19", len(points))
	}
	for h, p := range points {
		want := 0
		switch h {
		case 7:
			want = 42
		case 18:
			want = 65
		}
		if p.Speed != want {
			t.Errorf("points[%d].Speed = %d, want %d", h, p.Speed, want)
		}
	}
	if points[0].Time != "00:00" || points[18].Time != "18:00" {
		t.Errorf("labels = %s..%s", points[0].Time, points[18].Time)
	}
}

func TestBuildSpeedChartAveragesWithinBin(t *testing.T) {
	points := BuildSpeedChart([]models.Trip{
		at("2025-03-10T06:00:00", 40),
		at("2025-03-10T07:30:00", 51),
		at("2025-03-10T13:00:00", 80),
	}, 6)

	// bins: 00, 06, 12
	if len(points) != 3 {
		t.Fatalf("got %d points, want 3: %+v", len(points), points)
	}
	if points[1].Time != "06:00" || points[1].Speed != 46 {
		t.Errorf("06:00 bin = %+v, want speed 46 (45.5 rounded up)", points[1])
	}
	if points[2].Time != "12:00" || points[2].Speed != 80 {
		t.Errorf("12:00 bin = %+v", points[2])
	}
}

func TestBuildSpeedChartEmpty(t *testing.T) {
	points := BuildSpeedChart([]models.Trip{
		at("", 50),
		at("2025-03-10T07:00:00", 0),
		at("garbage", 30),
	}, 1)
	if points == nil || len(points) != 0 {
		t.Errorf("expected empty series, got %#v", points)
	}
}

func TestClampBinHours(t *testing.T) {
	tests := map[int]int{-3: 1, 0: 1, 1: 1, 6: 6, 12: 12, 48: 12}
	for in, want := range tests {
		if got := ClampBinHours(in); got != want {
			t.Errorf("ClampBinHours(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestBuildSpeedChartClampsBinWidth(t *testing.T) {
	points := BuildSpeedChart([]models.Trip{at("2025-03-10T23:00:00", 30)}, 100)
	if len(points) != 2 || points[1].Time != "12:00" || points[1].Speed != 30 {
		t.Errorf("points = %+v", points)
	}
}
