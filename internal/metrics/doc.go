// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

/*
Package metrics provides Prometheus metrics collection and export.

All collectors are registered on the default registry at init via promauto
and exposed at /metrics in Prometheus text format:

	curl http://localhost:4000/metrics

# Available Metrics

HTTP:
  - api_requests_total{method,endpoint,status}
  - api_request_duration_seconds{method,endpoint}
  - api_active_requests
  - api_rate_limit_hits_total{endpoint}

Upstream:
  - upstream_requests_total{path,outcome}
  - upstream_request_duration_seconds{path}
  - circuit_breaker_state{name} (0=closed, 1=half-open, 2=open)
  - circuit_breaker_requests_total{name,result}
  - circuit_breaker_state_transitions_total{name,from,to}

Caches (trips, geocode, weather):
  - cache_hits_total{cache}, cache_misses_total{cache}
  - cache_evictions_total{cache}, cache_entries{cache}

Geo:
  - geocode_queue_length
  - geocode_lookups_total{outcome}, weather_lookups_total{outcome}

Fleet:
  - fleet_vehicles{status}, fleet_refreshes_total{outcome}
  - fleet_last_refresh_timestamp
  - driver_enrichment_vehicles_total{outcome}, driver_cache_entries

Live updates and events:
  - websocket_connections, websocket_messages_sent_total
  - websocket_errors_total{error_type}
  - nats_messages_published_total{event_type}, nats_publish_errors_total
*/
package metrics
