// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package geo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/fleetinsights/internal/cache"
	"github.com/tomtom215/fleetinsights/internal/config"
	"github.com/tomtom215/fleetinsights/internal/logging"
	"github.com/tomtom215/fleetinsights/internal/metrics"
	"github.com/tomtom215/fleetinsights/internal/models"
)

// GeocodeCacheName labels the geocode cache's metrics.
const GeocodeCacheName = "geocode"

// nominatimResponse is the subset of a Nominatim reverse lookup we read.
type nominatimResponse struct {
	DisplayName string            `json:"display_name"`
	Address     map[string]string `json:"address"`
}

// Geocoder resolves coordinates to a short "city, street" address through
// Nominatim. Lookups go through a serial queue with a cooldown between
// requests, and every outcome, including the coordinate fallback, is
// cached so a failing provider is not hit repeatedly.
type Geocoder struct {
	baseURL    string
	userAgent  string
	language   string
	timeout    time.Duration
	httpClient *http.Client
	cache      *cache.Cache[string]
	queue      *cache.SerialQueue
}

// NewGeocoder creates a Geocoder. The queue must be running for lookups
// that miss the cache to complete.
func NewGeocoder(cfg config.GeocodeConfig, c *cache.Cache[string], q *cache.SerialQueue) *Geocoder {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Geocoder{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		language:   cfg.Language,
		timeout:    timeout,
		httpClient: &http.Client{},
		cache:      c,
		queue:      q,
	}
}

// QueueLength returns the number of lookups waiting for the queue.
func (g *Geocoder) QueueLength() int {
	return g.queue.Len()
}

// Reverse returns the address for lat/lng. It only fails when ctx is done
// before the queued lookup runs.
func (g *Geocoder) Reverse(ctx context.Context, lat, lng float64) (models.GeocodeResult, error) {
	key := GeocodeKey(lat, lng)
	if addr, ok := g.cache.Get(key); ok {
		metrics.GeocodeLookups.WithLabelValues("cached").Inc()
		return models.GeocodeResult{Address: addr, Cached: true}, nil
	}

	var result models.GeocodeResult
	err := g.queue.Do(ctx, func(ctx context.Context) error {
		// Another queued lookup may have filled the key while we waited.
		if addr, ok := g.cache.Get(key); ok {
			result = models.GeocodeResult{Address: addr, Cached: true}
			return nil
		}

		addr, err := g.lookup(ctx, lat, lng)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Float64("lat", lat).Float64("lng", lng).Msg("Reverse geocoding failed, using coordinates")
			addr = FormatCoordinates(lat, lng)
			g.cache.Set(key, addr)
			result = models.GeocodeResult{Address: addr, Fallback: true}
			return nil
		}
		g.cache.Set(key, addr)
		result = models.GeocodeResult{Address: addr}
		return nil
	})
	if err != nil {
		return models.GeocodeResult{}, err
	}

	switch {
	case result.Cached:
		metrics.GeocodeLookups.WithLabelValues("cached").Inc()
	case result.Fallback:
		metrics.GeocodeLookups.WithLabelValues("fallback").Inc()
	default:
		metrics.GeocodeLookups.WithLabelValues("resolved").Inc()
	}
	return result, nil
}

// lookup is bounded by the geocode timeout only. A caller that goes away
// must not turn the provider's answer into a cached fallback.
func (g *Geocoder) lookup(ctx context.Context, lat, lng float64) (string, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.timeout)
	defer cancel()

	params := url.Values{}
	params.Set("lat", formatFloat(lat))
	params.Set("lon", formatFloat(lng))
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("zoom", "16")
	if g.language != "" {
		params.Set("accept-language", g.language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/reverse?"+params.Encode(), http.NoBody)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("nominatim request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("nominatim %d", resp.StatusCode)
	}

	var data nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("decode nominatim response: %w", err)
	}
	return FormatAddress(data.Address, data.DisplayName, lat, lng), nil
}

// FormatAddress builds "city, street housenumber" from Nominatim address
// parts, falling back to the display name and then the raw coordinates.
func FormatAddress(address map[string]string, displayName string, lat, lng float64) string {
	city := firstNonEmpty(address, "city", "town", "village", "municipality", "county")
	street := firstNonEmpty(address, "road", "pedestrian", "neighbourhood")

	parts := make([]string, 0, 2)
	if city != "" {
		parts = append(parts, city)
	}
	if street != "" {
		if hn := address["house_number"]; hn != "" {
			street += " " + hn
		}
		parts = append(parts, street)
	}
	if len(parts) > 0 {
		return strings.Join(parts, ", ")
	}
	if displayName != "" {
		return displayName
	}
	return formatFloat(lat) + ", " + formatFloat(lng)
}

// GeocodeKey is the cache key: both coordinates at four decimals
// (about 11 m).
func GeocodeKey(lat, lng float64) string {
	return fmt.Sprintf("%.4f,%.4f", lat, lng)
}

// FormatCoordinates is the fallback address.
func FormatCoordinates(lat, lng float64) string {
	return fmt.Sprintf("%.4f, %.4f", lat, lng)
}

func firstNonEmpty(m map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := m[k]; v != "" {
			return v
		}
	}
	return ""
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
