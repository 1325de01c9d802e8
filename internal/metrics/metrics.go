// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Number of API requests currently being processed",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
		[]string{"endpoint"},
	)

	// Upstream (vehicle-tracking gateway) Metrics
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Total number of requests sent to the vehicle-tracking upstream",
		},
		[]string{"path", "outcome"}, // outcome: ok, http_error, timeout, network, circuit_open
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Duration of upstream requests in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20, 30},
		},
		[]string{"path"},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache"}, // trips, geocode, weather
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of entries in cache",
		},
		[]string{"cache"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of cache evictions",
		},
		[]string{"cache"},
	)

	// Geocoding and Weather Metrics
	GeocodeQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "geocode_queue_length",
			Help: "Number of reverse geocoding jobs waiting for the serial queue",
		},
	)

	GeocodeLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geocode_lookups_total",
			Help: "Total number of reverse geocoding lookups",
		},
		[]string{"outcome"}, // cached, resolved, fallback
	)

	WeatherLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_lookups_total",
			Help: "Total number of weather lookups",
		},
		[]string{"outcome"}, // cached, resolved, fallback
	)

	// Fleet Metrics
	FleetVehicles = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fleet_vehicles",
			Help: "Number of vehicles in the last successful load by status",
		},
		[]string{"status"},
	)

	FleetRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleet_refreshes_total",
			Help: "Total number of vehicle list refreshes",
		},
		[]string{"outcome"}, // success, error
	)

	FleetLastRefresh = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fleet_last_refresh_timestamp",
			Help: "Unix timestamp of the last successful vehicle list refresh",
		},
	)

	EnrichmentVehiclesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "driver_enrichment_vehicles_total",
			Help: "Total number of vehicles processed by driver enrichment",
		},
		[]string{"outcome"}, // success, error
	)

	DriverCacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "driver_cache_entries",
			Help: "Number of vehicles with a known driver",
		},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of live dashboard WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// NATS Metrics
	NATSMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nats_messages_published_total",
			Help: "Total number of fleet events published to NATS",
		},
		[]string{"event_type"},
	)

	NATSPublishErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_publish_errors_total",
			Help: "Total number of failed NATS publishes",
		},
	)

	// Application Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// Outcome labels shared by the recorders below.
const (
	OutcomeOK          = "ok"
	OutcomeHTTPError   = "http_error"
	OutcomeTimeout     = "timeout"
	OutcomeNetwork     = "network"
	OutcomeCircuitOpen = "circuit_open"
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordUpstreamRequest records one upstream call and its outcome label.
func RecordUpstreamRequest(path, outcome string, duration time.Duration) {
	UpstreamRequestsTotal.WithLabelValues(path, outcome).Inc()
	UpstreamRequestDuration.WithLabelValues(path).Observe(duration.Seconds())
}

// RecordCacheHit records a hit on the named cache.
func RecordCacheHit(cache string) {
	CacheHits.WithLabelValues(cache).Inc()
}

// RecordCacheMiss records a miss on the named cache.
func RecordCacheMiss(cache string) {
	CacheMisses.WithLabelValues(cache).Inc()
}

// RecordCacheEvictions records n evictions and the resulting size.
func RecordCacheEvictions(cache string, n int, size int) {
	if n > 0 {
		CacheEvictions.WithLabelValues(cache).Add(float64(n))
	}
	CacheSize.WithLabelValues(cache).Set(float64(size))
}

// RecordFleetRefresh records a vehicle list refresh. On success the per-status
// gauges are replaced with counts.
func RecordFleetRefresh(counts map[string]int, err error) {
	if err != nil {
		FleetRefreshes.WithLabelValues("error").Inc()
		return
	}
	FleetRefreshes.WithLabelValues("success").Inc()
	FleetLastRefresh.Set(float64(time.Now().Unix()))
	for status, n := range counts {
		FleetVehicles.WithLabelValues(status).Set(float64(n))
	}
}

// RecordEnrichment records one vehicle processed by driver enrichment.
func RecordEnrichment(err error) {
	if err != nil {
		EnrichmentVehiclesProcessed.WithLabelValues("error").Inc()
		return
	}
	EnrichmentVehiclesProcessed.WithLabelValues("success").Inc()
}

// RecordNATSPublish records a fleet event publish attempt.
func RecordNATSPublish(eventType string, err error) {
	if err != nil {
		NATSPublishErrors.Inc()
		return
	}
	NATSMessagesPublished.WithLabelValues(eventType).Inc()
}

// RecordBreakerTransition records a circuit breaker state change. States
// are encoded 0=closed, 1=half-open, 2=open.
func RecordBreakerTransition(name, from, to string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}

// StatusLabel renders an HTTP status code as a metric label.
func StatusLabel(code int) string {
	return strconv.Itoa(code)
}

// ErrorTypeLabel truncates an error message for use as a label value.
func ErrorTypeLabel(err error) string {
	if err == nil {
		return ""
	}
	var unwrapped error
	for e := err; e != nil; e = errors.Unwrap(e) {
		unwrapped = e
	}
	msg := unwrapped.Error()
	if len(msg) > 50 {
		msg = msg[:50]
	}
	return msg
}
