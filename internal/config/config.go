// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package config

import (
	"time"
)

// Config holds all application configuration.
//
// Loading order (Koanf v2):
//  1. Defaults from defaultConfig()
//  2. Optional YAML file (CONFIG_PATH or one of DefaultConfigPaths)
//  3. Environment variables
//
// Config is immutable after LoadWithKoanf returns and safe for concurrent reads.
type Config struct {
	Upstream UpstreamConfig `koanf:"upstream"`
	Cache    CacheConfig    `koanf:"cache"`
	Geocode  GeocodeConfig  `koanf:"geocode"`
	Weather  WeatherConfig  `koanf:"weather"`
	Fleet    FleetConfig    `koanf:"fleet"`
	NATS     NATSConfig     `koanf:"nats"`
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`

	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// UpstreamConfig configures the GPS tracking provider (GPS Dozor) gateway.
type UpstreamConfig struct {
	BaseURL        string        `koanf:"base_url"`
	Username       string        `koanf:"username"`
	Password       string        `koanf:"password"`
	Timeout        time.Duration `koanf:"timeout"`
	BreakerEnabled bool          `koanf:"breaker_enabled"`
}

// Configured reports whether credentials and a base URL are present.
// The proxy still starts without them; only upstream calls fail.
func (u UpstreamConfig) Configured() bool {
	return u.BaseURL != "" && u.Username != "" && u.Password != ""
}

// CacheConfig holds TTLs for the process-wide response caches.
type CacheConfig struct {
	TripTTL         time.Duration `koanf:"trip_ttl"`
	GeocodeTTL      time.Duration `koanf:"geocode_ttl"`
	WeatherTTL      time.Duration `koanf:"weather_ttl"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

// GeocodeConfig configures reverse geocoding through Nominatim.
// Nominatim's usage policy allows at most one request per second, so
// Cooldown is the pause between one lookup finishing and the next starting.
type GeocodeConfig struct {
	BaseURL   string        `koanf:"base_url"`
	UserAgent string        `koanf:"user_agent"`
	Language  string        `koanf:"language"`
	Cooldown  time.Duration `koanf:"cooldown"`
	Timeout   time.Duration `koanf:"timeout"`
}

// WeatherConfig configures the Open-Meteo client.
type WeatherConfig struct {
	BaseURL   string        `koanf:"base_url"`
	Timeout   time.Duration `koanf:"timeout"`
	RateLimit float64       `koanf:"rate_limit"`
	Burst     int           `koanf:"burst"`
}

// FleetConfig drives the orchestration store.
type FleetConfig struct {
	PollInterval      time.Duration `koanf:"poll_interval"`
	FilterDebounce    time.Duration `koanf:"filter_debounce"`
	EventsMaxVehicles int           `koanf:"events_max_vehicles"`
	EnrichmentEnabled bool          `koanf:"enrichment_enabled"`

	// Event derivation thresholds.
	SpeedingThresholdKph     float64 `koanf:"speeding_threshold_kph"`
	SpeedingHighThresholdKph float64 `koanf:"speeding_high_threshold_kph"`
	LongTripThresholdKm      float64 `koanf:"long_trip_threshold_km"`
}

// NATSConfig enables publishing derived fleet events to NATS.
type NATSConfig struct {
	Enabled       bool   `koanf:"enabled"`
	URL           string `koanf:"url"`
	SubjectPrefix string `koanf:"subject_prefix"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// SecurityConfig holds CORS and request rate limiting settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// SupervisorConfig tunes restart behaviour of the service tree.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}
