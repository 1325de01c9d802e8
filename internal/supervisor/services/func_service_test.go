// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

type fakeCleaner struct {
	interval atomic.Int64
	started  chan struct{}
}

func (f *fakeCleaner) Name() string { return "trips" }

func (f *fakeCleaner) RunCleanup(ctx context.Context, interval time.Duration) error {
	f.interval.Store(int64(interval))
	close(f.started)
	<-ctx.Done()
	return ctx.Err()
}

func TestNamedServiceDelegates(t *testing.T) {
	started := make(chan struct{}, 1)
	svc := NewNamedService("geocode-queue", func(ctx context.Context) error {
		started <- struct{}{}
		<-ctx.Done()
		return ctx.Err()
	})

	if svc.String() != "geocode-queue" {
		t.Errorf("expected geocode-queue, got %q", svc.String())
	}
	if err := serveAndCancel(t, svc, started); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestNamedServiceRestartedOnError(t *testing.T) {
	var runs atomic.Int32
	svc := NewNamedService("flaky", func(ctx context.Context) error {
		if runs.Add(1) < 3 {
			return errors.New("boom")
		}
		<-ctx.Done()
		return ctx.Err()
	})

	sup := suture.New("test-sup", suture.Spec{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		Timeout:          time.Second,
	})
	sup.Add(svc)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	<-sup.ServeBackground(ctx)

	if runs.Load() < 3 {
		t.Errorf("expected at least 3 runs, got %d", runs.Load())
	}
}

func TestCacheCleanupService(t *testing.T) {
	c := &fakeCleaner{started: make(chan struct{})}
	svc := NewCacheCleanupService(c, 90*time.Second)

	if svc.String() != "cache-cleanup-trips" {
		t.Errorf("unexpected name %q", svc.String())
	}
	_ = serveAndCancel(t, svc, c.started)
	if time.Duration(c.interval.Load()) != 90*time.Second {
		t.Errorf("expected interval 90s, got %v", time.Duration(c.interval.Load()))
	}
}
