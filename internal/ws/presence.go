package ws

import "sync"

// Registry is the process-wide map of user id -> live connection.
// At most one connection per user: a reconnect replaces the previous
// mapping (last connected wins), and a disconnect only removes the
// mapping when it still points at the handle that is closing.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
	order   []string
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]*Client)}
}

// Register maps userID to client, replacing any previous connection.
// The displaced client, if any, is returned so the caller can close
// it; its later disconnect must not erase this newer mapping.
func (r *Registry) Register(userID string, client *Client) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	displaced := r.clients[userID]
	r.clients[userID] = client
	if displaced == nil {
		r.order = append(r.order, userID)
	}
	return displaced
}

// Unregister removes the mapping only if it still points at client,
// and reports whether a removal happened. A stale disconnect from a
// superseded connection is a no-op.
func (r *Registry) Unregister(userID string, client *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.clients[userID] != client {
		return false
	}
	delete(r.clients, userID)
	for i, id := range r.order {
		if id == userID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

func (r *Registry) Lookup(userID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[userID]
	return c, ok
}

// Snapshot returns the online user ids in registration order.
func (r *Registry) Snapshot() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// Clients returns the live handles in registration order.
func (r *Registry) Clients() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clients := make([]*Client, 0, len(r.order))
	for _, id := range r.order {
		clients = append(clients, r.clients[id])
	}
	return clients
}
