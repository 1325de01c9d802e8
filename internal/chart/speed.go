// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

// Package chart aggregates trip data into chart series.
package chart

import (
	"fmt"
	"time"

	"github.com/tomtom215/fleetinsights/internal/models"
	"github.com/tomtom215/fleetinsights/internal/normalize"
)

const (
	MinBinHours = 1
	MaxBinHours = 12
)

type binAccumulator struct {
	sum   float64
	count int
}

// ClampBinHours limits a bin width to [MinBinHours, MaxBinHours].
func ClampBinHours(binHours int) int {
	if binHours < MinBinHours {
		return MinBinHours
	}
	if binHours > MaxBinHours {
		return MaxBinHours
	}
	return binHours
}

// BuildSpeedChart buckets trip average speeds by start hour of day.
//
// The series runs from 00:00 to the last populated bin with no gaps; bins
// without trips report 0 so the chart keeps an evenly spaced time axis.
// Trips without a parseable start time or with zero average speed are
// ignored. The result is empty, not nil, when nothing qualifies.
func BuildSpeedChart(trips []models.Trip, binHours int) []models.SpeedPoint {
	bh := ClampBinHours(binHours)
	bins := make(map[int]*binAccumulator)
	lastBin := -1

	for i := range trips {
		trip := &trips[i]
		if trip.StartTime == "" || trip.AvgSpeed == 0 {
			continue
		}
		start, ok := normalize.ParseTimestamp(trip.StartTime)
		if !ok {
			continue
		}

		bin := (start.In(time.Local).Hour() / bh) * bh
		acc, exists := bins[bin]
		if !exists {
			acc = &binAccumulator{}
			bins[bin] = acc
		}
		acc.sum += trip.AvgSpeed
		acc.count++
		if bin > lastBin {
			lastBin = bin
		}
	}

	points := make([]models.SpeedPoint, 0, lastBin/bh+1)
	if lastBin < 0 {
		return points
	}

	for h := 0; h <= lastBin; h += bh {
		point := models.SpeedPoint{Time: fmt.Sprintf("%02d:00", h)}
		if acc, ok := bins[h]; ok {
			point.Speed = int(normalize.RoundHalfUp(acc.sum / float64(acc.count)))
		}
		points = append(points, point)
	}
	return points
}
