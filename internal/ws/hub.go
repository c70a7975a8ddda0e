package ws

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/tkubota31/express-messagely/pkg/logger"
)

// Envelope is the frame pushed to clients
type Envelope struct {
	Type      string      `json:"type"`
	Content   interface{} `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
}

type delivery struct {
	username string
	data     []byte
}

// Hub tracks connected clients by username and fans out notifications.
// Run owns the client map; every other method talks to it over channels.
type Hub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	deliver    chan delivery
	done       chan struct{}
	active     atomic.Int64
	log        *logger.Logger
}

// NewHub creates a hub; call Run to start it
func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.GetGlobal()
	}
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan delivery, 256),
		done:       make(chan struct{}),
		log:        log.WithComponent("ws"),
	}
}

// Run processes hub events until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case client := <-h.register:
			conns, ok := h.clients[client.Username]
			if !ok {
				conns = make(map[*Client]struct{})
				h.clients[client.Username] = conns
			}
			conns[client] = struct{}{}
			h.active.Add(1)
			h.log.Debug("Client registered", "client_id", client.ID, "username", client.Username)

		case client := <-h.unregister:
			h.remove(client)

		case d := <-h.deliver:
			for client := range h.clients[d.username] {
				select {
				case client.send <- d.data:
				default:
					h.log.Warn("Client removed due to blocked channel", "client_id", client.ID)
					h.remove(client)
				}
			}

		case <-ctx.Done():
			for _, conns := range h.clients {
				for client := range conns {
					h.remove(client)
				}
			}
			return
		}
	}
}

func (h *Hub) remove(client *Client) {
	conns, ok := h.clients[client.Username]
	if !ok {
		return
	}
	if _, ok := conns[client]; !ok {
		return
	}
	delete(conns, client)
	if len(conns) == 0 {
		delete(h.clients, client.Username)
	}
	close(client.send)
	h.active.Add(-1)
	h.log.Debug("Client unregistered", "client_id", client.ID, "username", client.Username)
}

// Notify queues an event for every connection of username.
// Events are dropped when the queue is full.
func (h *Hub) Notify(username, event string, payload interface{}) {
	data, err := json.Marshal(Envelope{Type: event, Content: payload, Timestamp: time.Now().UTC()})
	if err != nil {
		h.log.Error("Failed to marshal notification", "event", event, "error", err.Error())
		return
	}

	select {
	case h.deliver <- delivery{username: username, data: data}:
	default:
		h.log.Warn("Notification dropped, hub queue full", "event", event, "username", username)
	}
}

// ActiveConnections returns the number of registered clients
func (h *Hub) ActiveConnections() int {
	return int(h.active.Load())
}
