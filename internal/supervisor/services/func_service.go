// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package services

import (
	"context"
	"time"
)

// RunFunc is a blocking loop that returns once ctx is done.
type RunFunc func(ctx context.Context) error

// NamedService gives a run loop a name for supervisor logs.
//
//	tree.AddWorkerService(services.NewNamedService("geocode-queue", queue.Run))
//	tree.AddFleetService(services.NewNamedService("websocket-hub", hub.Serve))
type NamedService struct {
	name string
	run  RunFunc
}

// NewNamedService wraps run as a suture.Service called name.
func NewNamedService(name string, run RunFunc) *NamedService {
	return &NamedService{name: name, run: run}
}

// Serve implements suture.Service.
func (s *NamedService) Serve(ctx context.Context) error {
	return s.run(ctx)
}

// String names the service in supervisor events.
func (s *NamedService) String() string {
	return s.name
}

// Cleaner is a cache with a periodic eviction loop.
type Cleaner interface {
	Name() string
	RunCleanup(ctx context.Context, interval time.Duration) error
}

// NewCacheCleanupService runs c's eviction loop every interval.
func NewCacheCleanupService(c Cleaner, interval time.Duration) *NamedService {
	return NewNamedService("cache-cleanup-"+c.Name(), func(ctx context.Context) error {
		return c.RunCleanup(ctx, interval)
	})
}
