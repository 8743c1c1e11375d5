// Package realtime relays location events to connected WebSocket clients.
package realtime

import (
	"context"
	"location-tracker-service/internal/platform/logging"
	"location-tracker-service/internal/platform/metrics"
	"sort"
	"sync"

	"github.com/goccy/go-json"
)

const (
	// Sent by a client that wants its position shown to everyone else.
	MessageTypeLocationUpdate = "location-update"
	// Relayed to other clients, and sent to all clients after a stored fix.
	MessageTypeLocationUpdated = "location-updated"
	MessageTypePing            = "ping"
	MessageTypePong            = "pong"
)

// Outbound frame.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Inbound frame. Data is relayed without interpretation.
type inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type envelope struct {
	msg  Message
	skip *Client // sender of a relayed message, nil for server events
}

// Hub tracks connected clients and fans messages out to them.
type Hub struct {
	clients    map[*Client]struct{}
	broadcast  chan envelope
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan envelope, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes hub events until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			n := h.closeAll()
			logging.Info().Str("component", "realtime-hub").Int("clients_closed", n).Msg("realtime hub stopped")
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			metrics.WebsocketClients.Set(float64(n))
			logging.Info().Uint64("client", c.id).Int("total_clients", n).Msg("realtime client connected")

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			metrics.WebsocketClients.Set(float64(n))
			logging.Info().Uint64("client", c.id).Int("total_clients", n).Msg("realtime client disconnected")

		case env := <-h.broadcast:
			h.fanOut(env)
		}
	}
}

func (h *Hub) fanOut(env envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })

	for _, c := range clients {
		if c == env.skip {
			continue
		}
		select {
		case c.send <- env.msg:
		default:
			// Slow client: drop it rather than block the hub.
			delete(h.clients, c)
			close(c.send)
			logging.Warn().Uint64("client", c.id).Msg("realtime client send buffer full, dropping")
		}
	}
	metrics.WebsocketClients.Set(float64(len(h.clients)))
}

func (h *Hub) closeAll() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := len(h.clients)
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	metrics.WebsocketClients.Set(0)
	return n
}

// Broadcast queues a server event for every connected client.
func (h *Hub) Broadcast(eventType string, data any) {
	h.enqueue(envelope{msg: Message{Type: eventType, Data: data}})
}

func (h *Hub) relay(from *Client, msg Message) {
	h.enqueue(envelope{msg: msg, skip: from})
}

func (h *Hub) enqueue(env envelope) {
	select {
	case h.broadcast <- env:
	default:
		logging.Warn().Str("type", env.msg.Type).Msg("realtime broadcast queue full, dropping message")
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
