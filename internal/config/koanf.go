// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/fleetinsights/config.yaml",
	"/etc/fleetinsights/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Upstream: UpstreamConfig{
			Timeout:        15 * time.Second,
			BreakerEnabled: true,
		},
		Cache: CacheConfig{
			TripTTL:         5 * time.Minute,
			GeocodeTTL:      10 * time.Minute,
			WeatherTTL:      10 * time.Minute,
			CleanupInterval: time.Minute,
		},
		Geocode: GeocodeConfig{
			BaseURL:   "https://nominatim.openstreetmap.org",
			UserAgent: "FleetInsights/1.0 (fleet-dashboard-proxy)",
			Language:  "cs",
			Cooldown:  1100 * time.Millisecond,
			Timeout:   8 * time.Second,
		},
		Weather: WeatherConfig{
			BaseURL:   "https://api.open-meteo.com",
			Timeout:   8 * time.Second,
			RateLimit: 5,
			Burst:     5,
		},
		Fleet: FleetConfig{
			PollInterval:             15 * time.Second,
			FilterDebounce:           600 * time.Millisecond,
			EventsMaxVehicles:        3,
			EnrichmentEnabled:        true,
			SpeedingThresholdKph:     110,
			SpeedingHighThresholdKph: 130,
			LongTripThresholdKm:      300,
		},
		NATS: NATSConfig{
			Enabled:       false,
			URL:           "nats://127.0.0.1:4222",
			SubjectPrefix: "fleet",
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            4000,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Security: SecurityConfig{
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   600,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// LoadWithKoanf loads configuration with layered sources:
//  1. Defaults
//  2. Config file (optional)
//  3. Environment variables
//
// Precedence is ENV > File > Defaults. The result is validated before return.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}
	if err := processMillisecondFields(k); err != nil {
		return nil, fmt.Errorf("failed to process millisecond fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns "" when no config file exists.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields splits comma-separated env values for slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// millisecondEnvPaths are durations that historical deployments configure
// as a bare millisecond count (DOZOR_TIMEOUT_MS=15000).
var millisecondEnvPaths = []string{
	"upstream.timeout",
}

func processMillisecondFields(k *koanf.Koanf) error {
	for _, path := range millisecondEnvPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		if _, err := time.ParseDuration(strVal); err == nil {
			continue
		}
		var ms int64
		if _, err := fmt.Sscanf(strVal, "%d", &ms); err != nil {
			return fmt.Errorf("%s: invalid duration %q", path, strVal)
		}
		if err := k.Set(path, time.Duration(ms)*time.Millisecond); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf paths.
// Unmapped variables return "" and are ignored.
func envTransformFunc(key string) string {
	envMappings := map[string]string{
		// Upstream provider
		"dozor_base_url":           "upstream.base_url",
		"dozor_user":               "upstream.username",
		"dozor_pass":               "upstream.password",
		"dozor_timeout_ms":         "upstream.timeout",
		"upstream_breaker_enabled": "upstream.breaker_enabled",

		// Caches
		"trip_cache_ttl":         "cache.trip_ttl",
		"geocode_cache_ttl":      "cache.geocode_ttl",
		"weather_cache_ttl":      "cache.weather_ttl",
		"cache_cleanup_interval": "cache.cleanup_interval",

		// Geocoding
		"geocode_base_url":   "geocode.base_url",
		"geocode_user_agent": "geocode.user_agent",
		"geocode_language":   "geocode.language",
		"geocode_cooldown":   "geocode.cooldown",
		"geocode_timeout":    "geocode.timeout",

		// Weather
		"weather_base_url":   "weather.base_url",
		"weather_timeout":    "weather.timeout",
		"weather_rate_limit": "weather.rate_limit",
		"weather_burst":      "weather.burst",

		// Fleet store
		"poll_interval":               "fleet.poll_interval",
		"filter_debounce":             "fleet.filter_debounce",
		"events_max_vehicles":         "fleet.events_max_vehicles",
		"enrichment_enabled":          "fleet.enrichment_enabled",
		"speeding_threshold_kph":      "fleet.speeding_threshold_kph",
		"speeding_high_threshold_kph": "fleet.speeding_high_threshold_kph",
		"long_trip_threshold_km":      "fleet.long_trip_threshold_km",

		// NATS
		"nats_enabled":        "nats.enabled",
		"nats_url":            "nats.url",
		"nats_subject_prefix": "nats.subject_prefix",

		// Server
		"http_host":        "server.host",
		"http_port":        "server.port",
		"port":             "server.port",
		"http_timeout":     "server.timeout",
		"shutdown_timeout": "server.shutdown_timeout",

		// Security
		"cors_origin":         "security.cors_origins",
		"cors_origins":        "security.cors_origins",
		"rate_limit_requests": "security.rate_limit_reqs",
		"rate_limit_window":   "security.rate_limit_window",
		"rate_limit_disabled": "security.rate_limit_disabled",

		// Supervisor
		"supervisor_failure_threshold": "supervisor.failure_threshold",
		"supervisor_failure_decay":     "supervisor.failure_decay",
		"supervisor_failure_backoff":   "supervisor.failure_backoff",
		"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
