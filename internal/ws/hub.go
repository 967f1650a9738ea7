package ws

import (
	"encoding/json"
	"log"

	"github.com/pliu/quickchat/internal/models"
)

// Wire event names. The web client matches on these exactly.
const (
	EventOnlineUsers = "getOnlineUsers"
	EventNewMessage  = "newMessage"
)

type push struct {
	userID  string // empty means broadcast to every live client
	payload []byte
}

// Hub owns the Presence Registry. All registry mutations, targeted
// pushes and send-channel closes run on the single Run goroutine, so
// a mutation and the broadcast of its snapshot are never interleaved
// with another mutation.
type Hub struct {
	registry   *Registry
	register   chan *Client
	unregister chan *Client
	pushes     chan push
}

func NewHub() *Hub {
	return &Hub{
		registry:   NewRegistry(),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		pushes:     make(chan push, 256),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			if displaced := h.registry.Register(client.UserID, client); displaced != nil && displaced.conn != nil {
				// The old connection is superseded; closing it makes
				// its read loop exit and report a (stale) disconnect.
				displaced.conn.Close()
			}
			log.Printf("user connected: %s", client.UserID)
			h.broadcastOnlineUsers()

		case client := <-h.unregister:
			removed := h.registry.Unregister(client.UserID, client)
			if !client.closed {
				client.closed = true
				close(client.send)
			}
			if removed {
				log.Printf("user disconnected: %s", client.UserID)
				h.broadcastOnlineUsers()
			}

		case p := <-h.pushes:
			if p.userID == "" {
				for _, client := range h.registry.Clients() {
					h.deliver(client, p.payload)
				}
				continue
			}
			if client, ok := h.registry.Lookup(p.userID); ok {
				h.deliver(client, p.payload)
			}
		}
	}
}

// deliver hands the payload to the client's writer without blocking
// the hub. A full buffer drops the connection; its read loop then
// reports the disconnect, which unregisters and broadcasts as usual.
func (h *Hub) deliver(client *Client, payload []byte) {
	if client.closed {
		return
	}
	select {
	case client.send <- payload:
	default:
		client.closed = true
		close(client.send)
		if client.conn != nil {
			client.conn.Close()
		}
	}
}

func (h *Hub) broadcastOnlineUsers() {
	payload, err := json.Marshal(models.Event{Event: EventOnlineUsers, Data: h.registry.Snapshot()})
	if err != nil {
		log.Printf("marshal online users: %v", err)
		return
	}
	for _, client := range h.registry.Clients() {
		h.deliver(client, payload)
	}
}

// Present reports whether the user has a live connection.
func (h *Hub) Present(userID string) bool {
	_, ok := h.registry.Lookup(userID)
	return ok
}

// SendToUser pushes a named event to one user's connection. Absent
// users and failed pushes are dropped silently.
func (h *Hub) SendToUser(userID, event string, data interface{}) {
	payload, err := json.Marshal(models.Event{Event: event, Data: data})
	if err != nil {
		log.Printf("marshal %s event: %v", event, err)
		return
	}
	h.pushes <- push{userID: userID, payload: payload}
}
