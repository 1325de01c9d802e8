// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/fleetinsights/internal/logging"
	"github.com/tomtom215/fleetinsights/internal/metrics"
	"github.com/tomtom215/fleetinsights/internal/models"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types for WebSocket communication
const (
	MessageTypeFleetState  = "fleet_state"
	MessageTypeFleetEvents = "fleet_events"
	MessageTypePing        = "ping"
	MessageTypePong        = "pong"
)

// Message represents a WebSocket message
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Presence is told when dashboards connect and disconnect.
type Presence interface {
	AddViewer() int
	RemoveViewer() int
}

// SnapshotFunc returns the current state to push to clients.
type SnapshotFunc func() interface{}

// Hub maintains the set of active clients and broadcasts messages to the clients
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	changed    chan struct{}
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex

	snapshot SnapshotFunc
	presence Presence
}

// NewHub creates a Hub. snapshot and presence may be nil.
func NewHub(snapshot SnapshotFunc, presence Presence) *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		changed:    make(chan struct{}, 1),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		snapshot:   snapshot,
		presence:   presence,
	}
}

// Serve runs the hub until ctx is done. It satisfies suture.Service.
//
// Lifecycle events are handled before broadcasts so client state is
// consistent before any message goes out.
func (h *Hub) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		case <-h.changed:
			h.broadcastState()
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("websocket client connected")

	if h.presence != nil {
		h.presence.AddViewer()
	}
	if h.snapshot != nil {
		select {
		case client.send <- Message{Type: MessageTypeFleetState, Data: h.snapshot()}:
		default:
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	if !ok {
		return
	}
	metrics.WSConnections.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("websocket client disconnected")
	if h.presence != nil {
		h.presence.RemoveViewer()
	}
}

func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.GetClientCount()
	h.closeAllClients()

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	if ctx.Err() == context.DeadlineExceeded {
		return ShutdownReasonContextDeadline
	}
	return ShutdownReasonContextCanceled
}

// sortedClients returns clients in ID order. Caller holds h.mu.
func (h *Hub) sortedClients() []*Client {
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	return clients
}

// broadcastToClients queues message on every client. Clients whose queue
// is full are dropped.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	var toRemove []*Client
	for _, client := range h.sortedClients() {
		select {
		case client.send <- message:
		default:
			toRemove = append(toRemove, client)
		}
	}
	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
	}
	total := len(h.clients)
	h.mu.Unlock()

	for range toRemove {
		metrics.WSErrors.WithLabelValues("slow_consumer").Inc()
		if h.presence != nil {
			h.presence.RemoveViewer()
		}
	}
	if len(toRemove) > 0 {
		metrics.WSConnections.Set(float64(total))
		logging.Warn().Int("dropped", len(toRemove)).Msg("dropped slow websocket clients")
	}
}

func (h *Hub) broadcastState() {
	if h.snapshot == nil || h.GetClientCount() == 0 {
		return
	}
	h.broadcastToClients(Message{Type: MessageTypeFleetState, Data: h.snapshot()})
}

// closeAllClients closes every client. Presence is released for each.
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	clients := h.sortedClients()
	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.mu.Unlock()

	metrics.WSConnections.Set(0)
	if h.presence != nil {
		for range clients {
			h.presence.RemoveViewer()
		}
	}
}

// NotifyStateChanged schedules a fleet_state broadcast. Calls made while
// one is already pending are merged. It never blocks.
func (h *Hub) NotifyStateChanged() {
	select {
	case h.changed <- struct{}{}:
	default:
	}
}

// BroadcastJSON sends a JSON message to all connected clients
func (h *Hub) BroadcastJSON(messageType string, data interface{}) {
	select {
	case h.broadcast <- Message{Type: messageType, Data: data}:
	default:
		logging.Warn().Str("message_type", messageType).Msg("broadcast channel full, dropping JSON message")
	}
}

// PublishEvents pushes a newly derived event set to every dashboard as a
// fleet_events message.
func (h *Hub) PublishEvents(_ context.Context, events []models.FleetEvent) {
	if h.GetClientCount() == 0 {
		return
	}
	h.BroadcastJSON(MessageTypeFleetEvents, events)
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// MarshalMessage converts a message to JSON
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
