// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

// Package eventbus publishes derived fleet events to NATS.
//
// Each event becomes one core NATS message on {prefix}.events.{type} with
// the event as a JSON body. Publishing is fire-and-forget: failures are
// logged and counted but never reach the store.
package eventbus

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"

	"github.com/tomtom215/fleetinsights/internal/config"
	"github.com/tomtom215/fleetinsights/internal/logging"
	"github.com/tomtom215/fleetinsights/internal/metrics"
	"github.com/tomtom215/fleetinsights/internal/models"
)

// DefaultSubjectPrefix is used when the config leaves the prefix empty.
const DefaultSubjectPrefix = "fleet"

// Publisher sends fleet events over a NATS connection.
type Publisher struct {
	conn   *nats.Conn
	prefix string
}

// Connect dials NATS and returns a Publisher. The connection reconnects
// indefinitely after the initial dial succeeds.
func Connect(cfg config.NATSConfig) (*Publisher, error) {
	url := cfg.URL
	if url == "" {
		url = nats.DefaultURL
	}

	opts := []nats.Option{
		nats.Name("fleetinsights"),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logging.Warn().Err(err).Msg("Disconnected from NATS")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logging.Info().Str("url", nc.ConnectedUrl()).Msg("Reconnected to NATS")
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			logging.Info().Msg("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	logging.Info().Str("url", nc.ConnectedUrl()).Msg("Connected to NATS")

	return NewPublisher(nc, cfg.SubjectPrefix), nil
}

// NewPublisher wraps an existing connection.
func NewPublisher(conn *nats.Conn, prefix string) *Publisher {
	prefix = strings.Trim(prefix, ".")
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &Publisher{conn: conn, prefix: prefix}
}

// Subject returns the subject for an event type.
func (p *Publisher) Subject(t models.EventType) string {
	return p.prefix + ".events." + string(t)
}

// PublishEvents publishes one message per event.
func (p *Publisher) PublishEvents(ctx context.Context, events []models.FleetEvent) {
	for i := range events {
		if err := p.publish(&events[i]); err != nil {
			metrics.RecordNATSPublish(string(events[i].Type), err)
			logging.Ctx(ctx).Warn().Err(err).
				Str("event_id", events[i].ID).
				Str("event_type", string(events[i].Type)).
				Msg("Failed to publish fleet event")
			continue
		}
		metrics.RecordNATSPublish(string(events[i].Type), nil)
	}
}

func (p *Publisher) publish(e *models.FleetEvent) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := &nats.Msg{
		Subject: p.Subject(e.Type),
		Data:    data,
		Header:  nats.Header{},
	}
	msg.Header.Set("Content-Type", "application/json")
	msg.Header.Set(nats.MsgIdHdr, e.ID)
	return p.conn.PublishMsg(msg)
}

// Connected reports whether the connection is up.
func (p *Publisher) Connected() bool {
	return p.conn != nil && p.conn.IsConnected()
}

// Close flushes buffered messages and closes the connection.
func (p *Publisher) Close() error {
	if p.conn == nil {
		return nil
	}
	err := p.conn.Drain()
	if err != nil {
		p.conn.Close()
	}
	return err
}
