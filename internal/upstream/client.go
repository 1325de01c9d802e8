// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/fleetinsights/internal/config"
	"github.com/tomtom215/fleetinsights/internal/logging"
	"github.com/tomtom215/fleetinsights/internal/metrics"
)

// DefaultTimeout bounds a single upstream request when none is configured.
const DefaultTimeout = 15 * time.Second

// maxBodySize caps how much of an upstream response is read into memory.
const maxBodySize = 32 << 20

// Response is a raw upstream reply. Non-2xx replies are returned as
// responses, not errors, so the proxy can forward them verbatim.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// IsJSON reports whether the upstream declared a JSON body.
func (r Response) IsJSON() bool {
	return strings.Contains(r.ContentType, "application/json")
}

// OK reports a 2xx status.
func (r Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Fetcher issues GET requests against the upstream provider.
type Fetcher interface {
	Get(ctx context.Context, path string, query url.Values) (Response, error)
}

// Client talks to the GPS tracking provider with HTTP Basic Auth and a hard
// per-request timeout.
//
// Errors:
//   - ErrTimeout (wrapped) when the timeout elapses
//   - *MalformedResponseError when a JSON content type carries invalid JSON
//   - other transport errors wrapped with the path
//
// Thread Safety: safe for concurrent use.
type Client struct {
	baseURL    string
	username   string
	password   string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient creates a Client from configuration.
func NewClient(cfg config.UpstreamConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		username:   cfg.Username,
		password:   cfg.Password,
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration { return c.timeout }

// Get requests path with query. Empty query values are dropped.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (Response, error) {
	if c.baseURL == "" {
		return Response{}, ErrNotConfigured
	}

	start := time.Now()
	resp, err := c.do(ctx, path, query)
	elapsed := time.Since(start)

	outcome := metrics.OutcomeOK
	switch {
	case errors.Is(err, ErrTimeout):
		outcome = metrics.OutcomeTimeout
	case err != nil:
		outcome = metrics.OutcomeNetwork
	case !resp.OK():
		outcome = metrics.OutcomeHTTPError
	}
	metrics.RecordUpstreamRequest(metricPath(path), outcome, elapsed)

	if err != nil || !resp.OK() {
		ev := logging.Ctx(ctx).Warn().Str("path", path).Int64("duration_ms", elapsed.Milliseconds())
		if err != nil {
			ev = ev.Err(err)
		} else {
			ev = ev.Int("status", resp.Status)
		}
		ev.Msg("Upstream request failed")
	} else {
		logging.Ctx(ctx).Debug().Str("path", path).Int("status", resp.Status).Int64("duration_ms", elapsed.Milliseconds()).Msg("Upstream request")
	}
	return resp, err
}

func (c *Client) do(ctx context.Context, path string, query url.Values) (Response, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.buildURL(path, query), http.NoBody)
	if err != nil {
		return Response{}, fmt.Errorf("create request %s: %w", path, err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, c.wrapTransportError(ctx, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return Response{}, c.wrapTransportError(ctx, path, err)
	}

	out := Response{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}
	if out.IsJSON() && !json.Valid(body) {
		return out, &MalformedResponseError{Path: path, Err: errors.New("invalid JSON body")}
	}
	return out, nil
}

// wrapTransportError distinguishes our own timeout from the caller
// cancelling ctx.
func (c *Client) wrapTransportError(parent context.Context, path string, err error) error {
	if parent.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s after %s: %w", path, c.timeout, ErrTimeout)
	}
	return fmt.Errorf("upstream %s: %w", path, err)
}

func (c *Client) buildURL(path string, query url.Values) string {
	params := url.Values{}
	for key, values := range query {
		for _, v := range values {
			if v != "" {
				params.Add(key, v)
			}
		}
	}
	u := c.baseURL + path
	if encoded := params.Encode(); encoded != "" {
		u += "?" + encoded
	}
	return u
}

// metricPath collapses per-vehicle paths into a bounded label set.
func metricPath(path string) string {
	switch {
	case path == "/groups":
		return "/groups"
	case strings.HasPrefix(path, "/vehicles/group/"):
		return "/vehicles/group/:code"
	case strings.HasPrefix(path, "/vehicles/history/"):
		return "/vehicles/history/:codes"
	case strings.HasPrefix(path, "/vehicle/") && strings.HasSuffix(path, "/trips"):
		return "/vehicle/:code/trips"
	case strings.HasPrefix(path, "/vehicle/"):
		return "/vehicle/:code"
	default:
		return "other"
	}
}
