// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

/*
Package cache provides the in-memory caches and request serialization used
in front of the external services.

# Cache

Cache is a generic key/value store with a fixed lifetime per entry, driven
by an injectable clock:

	trips := cache.New[upstream.Response]("trips", 5*time.Minute, nil)
	resp, hit, err := trips.Fetch(ctx, key, func(ctx context.Context) (upstream.Response, bool, error) {
	    r, err := client.Get(ctx, "/trips", query)
	    return r, err == nil && r.Status == http.StatusOK, err
	})

Only values the producer marks cacheable are stored, so error responses are
always retried. Concurrent misses on the same key are collapsed with
golang.org/x/sync/singleflight.

Each cache reports cache_hits_total, cache_misses_total,
cache_evictions_total and cache_entries labelled with its name. RunCleanup
is meant to run under the supervisor tree.

# SerialQueue

SerialQueue executes jobs strictly one at a time with a cooldown after each
one. The reverse geocoder uses it to stay within the public Nominatim usage
policy of at most one request per second.
*/
package cache
