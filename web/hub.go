// Package web is the viewer-facing transport: a chi HTTP router for the
// card/roster/history queries and a gorilla/websocket hub that fans the
// arena's event feed out to spectators and carries their bet and
// submission requests back in.
package web

import (
	"context"
	"encoding/json"

	"brawler/events"

	log "github.com/sirupsen/logrus"
)

// Envelope is the wire form of every websocket frame, both directions
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Hub tracks connected spectators and fans outbound events to them.
// A client whose send buffer is full is dropped rather than blocked on.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
}

// NewHub creates a new spectator hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Attach subscribes the hub to the full outbound event feed
func (h *Hub) Attach(bus *events.Bus) {
	bus.SubscribeAll(func(ctx context.Context, event events.Event) {
		h.BroadcastEvent(event)
	})
}

// BroadcastEvent wraps an event in the wire envelope and queues it for
// every connected client.
func (h *Hub) BroadcastEvent(event events.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.WithError(err).WithField("eventType", event.Type()).Error("Failed to encode event")
		return
	}
	frame, err := json.Marshal(Envelope{Type: string(event.Type()), Payload: payload})
	if err != nil {
		log.WithError(err).Error("Failed to encode envelope")
		return
	}
	h.broadcast <- frame
}

// Run owns the client set until the context is cancelled
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			log.WithField("clients", len(h.clients)).Debug("Spectator connected")

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				close(client.send)
				delete(h.clients, client)
				log.WithField("clients", len(h.clients)).Debug("Spectator disconnected")
			}

		case frame := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- frame:
				default:
					// Slow client; drop it instead of stalling the feed
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}
