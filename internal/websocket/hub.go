package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/dukerupert/kidbank/internal/auth"
)

// Message is a real-time notice pushed to connected clients.
type Message struct {
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	RelatedID int64          `json:"related_id,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// Hub maintains the set of active WebSocket clients, keyed by the actor each
// connection was opened for.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// SendTo delivers a message to every connection of one actor and reports how
// many connections it was queued on.
func (h *Hub) SendTo(actor auth.Actor, msg Message) int {
	return h.send(msg, func(c *Client) bool { return c.actor == actor })
}

// Broadcast sends a message to all connected clients.
func (h *Hub) Broadcast(msg Message) int {
	return h.send(msg, func(*Client) bool { return true })
}

func (h *Hub) send(msg Message, match func(*Client) bool) int {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal websocket message", "error", err)
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for c := range h.clients {
		if !match(c) {
			continue
		}
		select {
		case c.send <- data:
			sent++
		default:
			// client buffer full, drop the message
		}
	}
	return sent
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
