// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// MinGeocodeCooldown is the floor imposed by Nominatim's 1 req/s policy.
const MinGeocodeCooldown = time.Second

// Validate checks that configuration values are usable.
// Missing upstream credentials are not an error; see UpstreamConfig.Configured.
func (c *Config) Validate() error {
	if err := c.validateUpstream(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateGeocode(); err != nil {
		return err
	}
	if err := c.validateWeather(); err != nil {
		return err
	}
	if err := c.validateFleet(); err != nil {
		return err
	}
	if err := c.validateNATS(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateSupervisor(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateUpstream() error {
	if c.Upstream.BaseURL != "" {
		if err := validateHTTPURL(c.Upstream.BaseURL, "DOZOR_BASE_URL"); err != nil {
			return err
		}
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("DOZOR_TIMEOUT_MS must be positive")
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.TripTTL < 0 || c.Cache.GeocodeTTL < 0 || c.Cache.WeatherTTL < 0 {
		return fmt.Errorf("cache TTLs must not be negative")
	}
	if c.Cache.CleanupInterval <= 0 {
		return fmt.Errorf("CACHE_CLEANUP_INTERVAL must be positive")
	}
	return nil
}

func (c *Config) validateGeocode() error {
	if err := validateHTTPURL(c.Geocode.BaseURL, "GEOCODE_BASE_URL"); err != nil {
		return err
	}
	if c.Geocode.Cooldown < MinGeocodeCooldown {
		return fmt.Errorf("GEOCODE_COOLDOWN must be at least %s, got %s", MinGeocodeCooldown, c.Geocode.Cooldown)
	}
	if c.Geocode.UserAgent == "" {
		return fmt.Errorf("GEOCODE_USER_AGENT is required by the Nominatim usage policy")
	}
	if c.Geocode.Timeout <= 0 {
		return fmt.Errorf("GEOCODE_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateWeather() error {
	if err := validateHTTPURL(c.Weather.BaseURL, "WEATHER_BASE_URL"); err != nil {
		return err
	}
	if c.Weather.RateLimit <= 0 {
		return fmt.Errorf("WEATHER_RATE_LIMIT must be positive")
	}
	if c.Weather.Burst < 1 {
		return fmt.Errorf("WEATHER_BURST must be at least 1")
	}
	return nil
}

func (c *Config) validateFleet() error {
	f := c.Fleet
	if f.PollInterval < 5*time.Second || f.PollInterval > 5*time.Minute {
		return fmt.Errorf("POLL_INTERVAL must be between 5s and 5m, got %s", f.PollInterval)
	}
	if f.FilterDebounce < 0 {
		return fmt.Errorf("FILTER_DEBOUNCE must not be negative")
	}
	if f.EventsMaxVehicles < 1 {
		return fmt.Errorf("EVENTS_MAX_VEHICLES must be at least 1")
	}
	if f.SpeedingThresholdKph <= 0 || f.LongTripThresholdKm <= 0 {
		return fmt.Errorf("event thresholds must be positive")
	}
	if f.SpeedingHighThresholdKph < f.SpeedingThresholdKph {
		return fmt.Errorf("SPEEDING_HIGH_THRESHOLD_KPH (%.0f) must not be below SPEEDING_THRESHOLD_KPH (%.0f)",
			f.SpeedingHighThresholdKph, f.SpeedingThresholdKph)
	}
	return nil
}

func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}
	if c.NATS.URL == "" {
		return fmt.Errorf("NATS_URL is required when NATS_ENABLED=true")
	}
	if c.NATS.SubjectPrefix == "" || strings.ContainsAny(c.NATS.SubjectPrefix, " *>") {
		return fmt.Errorf("NATS_SUBJECT_PREFIX must be a plain subject token, got %q", c.NATS.SubjectPrefix)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 || c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT and SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1")
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

func (c *Config) validateSupervisor() error {
	s := c.Supervisor
	if s.FailureThreshold < 0 || s.FailureDecay < 0 || s.FailureBackoff < 0 || s.ShutdownTimeout < 0 {
		return fmt.Errorf("supervisor settings must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
}

func validateHTTPURL(raw, name string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an http(s) URL, got %q", name, raw)
	}
	return nil
}
