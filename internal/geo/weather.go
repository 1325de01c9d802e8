// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package geo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/fleetinsights/internal/cache"
	"github.com/tomtom215/fleetinsights/internal/config"
	"github.com/tomtom215/fleetinsights/internal/logging"
	"github.com/tomtom215/fleetinsights/internal/metrics"
	"github.com/tomtom215/fleetinsights/internal/models"
	"github.com/tomtom215/fleetinsights/internal/normalize"
)

// WeatherCacheName labels the weather cache's metrics.
const WeatherCacheName = "weather"

type condition struct {
	maxCode float64
	label   string
	icon    string
}

// WMO weather interpretation codes, by upper bound.
var conditions = []condition{
	{0, "Jasno", "☀️"},
	{3, "Oblačno", "⛅"},
	{48, "Mlha", "🌫️"},
	{57, "Mrholení", "🌦️"},
	{67, "Déšť", "🌧️"},
	{77, "Sníh", "🌨️"},
	{82, "Přeháňky", "🌧️"},
	{86, "Sněžení", "🌨️"},
	{99, "Bouřka", "⛈️"},
}

const (
	unknownCondition = "Neznámé"
	unknownIcon      = "❓"
)

// ClassifyWeatherCode maps a WMO code to a Czech label and icon.
func ClassifyWeatherCode(code float64) (label, icon string) {
	if math.IsNaN(code) {
		return unknownCondition, unknownIcon
	}
	for _, c := range conditions {
		if code <= c.maxCode {
			return c.label, c.icon
		}
	}
	return unknownCondition, unknownIcon
}

// FormatWeather renders a one-line summary.
func FormatWeather(w models.WeatherData) string {
	return fmt.Sprintf("%s %d°C · %s · 💨 %d km/h", w.Icon, w.Temperature, w.Condition, w.WindSpeed)
}

type openMeteoResponse struct {
	Current *struct {
		Temperature *float64 `json:"temperature_2m"`
		WeatherCode *float64 `json:"weather_code"`
		WindSpeed   *float64 `json:"wind_speed_10m"`
	} `json:"current"`
}

// Weather fetches current conditions from Open-Meteo. Requests are rate
// limited with a token bucket and results, including the unknown fallback,
// are cached per ~1 km grid cell.
type Weather struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *cache.Cache[models.WeatherData]
}

// NewWeather creates a Weather client.
func NewWeather(cfg config.WeatherConfig, c *cache.Cache[models.WeatherData]) *Weather {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Weather{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		timeout:    timeout,
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(limit, burst),
		cache:      c,
	}
}

// Current returns the weather at lat/lng. Upstream failures produce the
// cached fallback rather than an error. An error is returned only when ctx
// ends while waiting for the rate limiter.
func (w *Weather) Current(ctx context.Context, lat, lng float64) (models.WeatherData, error) {
	data, hit, err := w.cache.Fetch(ctx, WeatherKey(lat, lng), func(ctx context.Context) (models.WeatherData, bool, error) {
		if err := w.limiter.Wait(ctx); err != nil {
			return models.WeatherData{}, false, err
		}
		d, err := w.fetch(ctx, lat, lng)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Float64("lat", lat).Float64("lng", lng).Msg("Weather lookup failed, using fallback")
			return fallbackWeather(), true, nil
		}
		return d, true, nil
	})
	if err != nil {
		return models.WeatherData{}, err
	}

	switch {
	case hit:
		metrics.WeatherLookups.WithLabelValues("cached").Inc()
	case data.Fallback:
		metrics.WeatherLookups.WithLabelValues("fallback").Inc()
	default:
		metrics.WeatherLookups.WithLabelValues("resolved").Inc()
	}
	return data, nil
}

func (w *Weather) fetch(ctx context.Context, lat, lng float64) (models.WeatherData, error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	params := url.Values{}
	params.Set("latitude", formatFloat(lat))
	params.Set("longitude", formatFloat(lng))
	params.Set("current", "temperature_2m,weather_code,wind_speed_10m")
	params.Set("timezone", "auto")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+"/v1/forecast?"+params.Encode(), http.NoBody)
	if err != nil {
		return models.WeatherData{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return models.WeatherData{}, fmt.Errorf("open-meteo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.WeatherData{}, fmt.Errorf("open-meteo %d", resp.StatusCode)
	}

	var body openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return models.WeatherData{}, fmt.Errorf("decode open-meteo response: %w", err)
	}
	if body.Current == nil {
		return models.WeatherData{}, errors.New("unexpected open-meteo response shape")
	}

	code := math.NaN()
	if body.Current.WeatherCode != nil {
		code = *body.Current.WeatherCode
	}
	label, icon := ClassifyWeatherCode(code)
	return models.WeatherData{
		Temperature: roundPtr(body.Current.Temperature),
		WindSpeed:   roundPtr(body.Current.WindSpeed),
		Condition:   label,
		Icon:        icon,
	}, nil
}

// WeatherKey is the cache key: both coordinates at two decimals.
func WeatherKey(lat, lng float64) string {
	return fmt.Sprintf("%.2f,%.2f", lat, lng)
}

func fallbackWeather() models.WeatherData {
	return models.WeatherData{
		Condition: unknownCondition,
		Icon:      unknownIcon,
		Fallback:  true,
	}
}

func roundPtr(f *float64) int {
	if f == nil {
		return 0
	}
	return int(normalize.RoundHalfUp(*f))
}
