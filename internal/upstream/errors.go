// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package upstream

import (
	"errors"
	"fmt"
	"net"
	"net/http"
)

var (
	// ErrTimeout is returned when a request exceeds the configured timeout.
	ErrTimeout = errors.New("upstream timeout")

	// ErrCircuitOpen is returned while the circuit breaker rejects requests.
	ErrCircuitOpen = errors.New("upstream circuit open")

	// ErrNotConfigured is returned when no base URL is configured.
	ErrNotConfigured = errors.New("upstream not configured")
)

// UpstreamError is a non-2xx response from the upstream provider.
type UpstreamError struct {
	Path   string
	Status int
	Body   []byte
}

func (e *UpstreamError) Error() string {
	body := string(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("upstream %s returned %d: %s", e.Path, e.Status, body)
}

// MalformedResponseError is returned when the upstream body is not the JSON
// shape the caller expected.
type MalformedResponseError struct {
	Path string
	Err  error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("upstream %s: malformed response: %v", e.Path, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// IsRetryable reports whether err is transient: a timeout, a 5xx response,
// a network failure or an open circuit breaker.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrCircuitOpen) {
		return true
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Status >= http.StatusInternalServerError
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
