// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package fleet

import (
	"sync"

	"github.com/tomtom215/fleetinsights/internal/metrics"
	"github.com/tomtom215/fleetinsights/internal/models"
)

// DriverCache maps vehicle codes to driver names. Entries are only ever
// added; the first name learned for a vehicle is kept.
type DriverCache struct {
	mu    sync.RWMutex
	names map[string]string
}

// NewDriverCache creates an empty cache.
func NewDriverCache() *DriverCache {
	return &DriverCache{names: make(map[string]string)}
}

// Get returns the cached driver for a vehicle.
func (c *DriverCache) Get(vehicleID string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	name, ok := c.names[vehicleID]
	return name, ok
}

// Remember stores name for vehicleID unless the vehicle already has one or
// either value is empty. It reports whether the entry was added.
func (c *DriverCache) Remember(vehicleID, name string) bool {
	if vehicleID == "" || name == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.names[vehicleID]; ok {
		return false
	}
	c.names[vehicleID] = name
	metrics.DriverCacheSize.Set(float64(len(c.names)))
	return true
}

// LearnTrips remembers the drivers named in trips and returns how many
// vehicles were new to the cache.
func (c *DriverCache) LearnTrips(trips []models.Trip) int {
	added := 0
	for i := range trips {
		if c.Remember(trips[i].VehicleID, trips[i].DriverName()) {
			added++
		}
	}
	return added
}

// LearnEvents remembers the drivers named in events.
func (c *DriverCache) LearnEvents(events []models.FleetEvent) int {
	added := 0
	for i := range events {
		if events[i].Driver == nil {
			continue
		}
		if c.Remember(events[i].VehicleID, *events[i].Driver) {
			added++
		}
	}
	return added
}

// Apply fills in the driver of every vehicle that has none. It modifies
// vehicles in place and returns the number of vehicles patched.
func (c *DriverCache) Apply(vehicles []models.Vehicle) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	patched := 0
	for i := range vehicles {
		if vehicles[i].DriverName() != "" {
			continue
		}
		if name, ok := c.names[vehicles[i].ID]; ok {
			vehicles[i].Driver = models.StringPtr(name)
			patched++
		}
	}
	return patched
}

// Snapshot returns a copy of all cached names.
func (c *DriverCache) Snapshot() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(c.names))
	for k, v := range c.names {
		out[k] = v
	}
	return out
}

// Len returns the number of cached drivers.
func (c *DriverCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.names)
}
