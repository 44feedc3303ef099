package ws

import (
	"encoding/json"
	"log"
	"sync"

	"chat-sync-service/internal/models"
	"chat-sync-service/internal/observability"
)

// Hub maps online identities to their live client connection. It
// holds at most one client per identity; a reconnect displaces the
// previous connection.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]*Client
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[int64]*Client)}
}

// Register installs a client as the live connection for its identity
// and returns the displaced client, if any. The caller aborts the
// displaced connection.
func (h *Hub) Register(c *Client) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	prev := h.clients[c.identity.ID]
	h.clients[c.identity.ID] = c
	if prev == c {
		return nil
	}
	return prev
}

// Remove drops the client if it is still the current connection for
// its identity and reports whether it was. A client displaced by a
// reconnect is no longer current, so its teardown must not count as
// the identity leaving.
func (h *Hub) Remove(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.identity.ID] != c {
		return false
	}
	delete(h.clients, c.identity.ID)
	return true
}

// Deliver enqueues an event for one recipient. Unknown recipients are
// skipped: the audience was computed against the registry, so a miss
// here is a disconnect race, equivalent to the recipient being
// offline. A full queue aborts the recipient's connection instead of
// buffering without bound.
func (h *Hub) Deliver(recipientID int64, event models.OutboundEvent) {
	h.mu.RLock()
	client := h.clients[recipientID]
	h.mu.RUnlock()
	if client == nil {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("marshal outbound event %q: %v", event.Event, err)
		return
	}

	if !client.Enqueue(payload) {
		log.Printf("send queue overflow, dropping client user=%d", recipientID)
		observability.IncDroppedClient()
		client.Abort()
		return
	}
	observability.IncDelivery(event.Event)
}
