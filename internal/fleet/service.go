// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package fleet

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/fleetinsights/internal/logging"
	"github.com/tomtom215/fleetinsights/internal/models"
	"github.com/tomtom215/fleetinsights/internal/normalize"
)

// Source is the subset of the provider gateway the fleet service reads.
type Source interface {
	GroupRecords(ctx context.Context) ([]normalize.Record, error)
	VehicleRecords(ctx context.Context, group string) ([]normalize.Record, error)
	VehicleRecord(ctx context.Context, code string) (normalize.Record, error)
	TripRecords(ctx context.Context, code, from, to string) ([]normalize.Record, error)
}

// Service fetches normalized fleet data.
type Service struct {
	src  Source
	norm *normalize.Normalizer
}

// NewService creates a Service.
func NewService(src Source, norm *normalize.Normalizer) *Service {
	return &Service{src: src, norm: norm}
}

// FetchVehicles loads the vehicles of every group in parallel. Groups that
// fail are skipped. If there are groups and every one of them fails, the
// last error is returned so callers keep their previous snapshot.
func (s *Service) FetchVehicles(ctx context.Context) ([]models.Vehicle, error) {
	groups, err := s.src.GroupRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch groups: %w", err)
	}
	codes := normalize.GroupCodes(groups)
	if len(codes) == 0 {
		return []models.Vehicle{}, nil
	}

	results := make([][]models.Vehicle, len(codes))
	errs := make([]error, len(codes))

	var g errgroup.Group
	for i, code := range codes {
		g.Go(func() error {
			records, err := s.src.VehicleRecords(ctx, code)
			if err != nil {
				errs[i] = err
				logging.Ctx(ctx).Warn().Err(err).Str("group", code).Msg("Failed to fetch group vehicles")
				return nil
			}
			results[i] = s.norm.Vehicles(records)
			return nil
		})
	}
	_ = g.Wait()

	var lastErr error
	failed := 0
	out := make([]models.Vehicle, 0)
	for i := range codes {
		if errs[i] != nil {
			failed++
			lastErr = errs[i]
			continue
		}
		out = append(out, results[i]...)
	}
	if failed == len(codes) {
		return nil, fmt.Errorf("failed to fetch vehicles for all %d groups: %w", failed, lastErr)
	}
	return out, nil
}

// FetchVehicle loads one vehicle.
func (s *Service) FetchVehicle(ctx context.Context, code string) (models.Vehicle, error) {
	record, err := s.src.VehicleRecord(ctx, code)
	if err != nil {
		return models.Vehicle{}, err
	}
	return s.norm.Vehicle(record), nil
}

// FetchTrips loads one vehicle's trips. from and to use the provider's
// local time format.
func (s *Service) FetchTrips(ctx context.Context, code, from, to string) ([]models.Trip, error) {
	records, err := s.src.TripRecords(ctx, code, from, to)
	if err != nil {
		return nil, err
	}
	return s.norm.Trips(records, code), nil
}

// FetchTripsFor loads the trips of several vehicles in parallel and
// concatenates them in the order of codes. Vehicles whose fetch fails
// contribute nothing.
func (s *Service) FetchTripsFor(ctx context.Context, codes []string, from, to string) []models.Trip {
	results := make([][]models.Trip, len(codes))

	var g errgroup.Group
	for i, code := range codes {
		g.Go(func() error {
			trips, err := s.FetchTrips(ctx, code, from, to)
			if err != nil {
				logging.Ctx(ctx).Debug().Err(err).Str("vehicle", code).Msg("Skipping vehicle trips")
				return nil
			}
			results[i] = trips
			return nil
		})
	}
	_ = g.Wait()

	out := make([]models.Trip, 0)
	for _, trips := range results {
		out = append(out, trips...)
	}
	return out
}
