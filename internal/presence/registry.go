// Package presence tracks which identities currently hold a live
// connection. Membership is the sole source of truth for the online
// count and for who receives public broadcasts.
package presence

import (
	"sort"
	"sync"

	"chat-sync-service/internal/models"
)

type entry struct {
	identity models.Identity
	connID   string
}

// Registry holds at most one live entry per identity id. Each entry
// remembers which connection installed it, so a teardown racing a
// reconnect cannot evict the entry the new connection owns.
type Registry struct {
	mu     sync.RWMutex
	online map[int64]entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{online: make(map[int64]entry)}
}

// Join registers an identity as online under the given connection and
// reports whether it was already present. A reconnect replaces the
// prior entry rather than duplicating it.
func (r *Registry) Join(identity models.Identity, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, present := r.online[identity.ID]
	r.online[identity.ID] = entry{identity: identity, connID: connID}
	return present
}

// Leave removes an identity's entry, but only while it still belongs
// to the given connection, and reports whether it did. A stale
// teardown whose identity already reconnected finds a different
// connection id and leaves the live entry alone. Disconnect races are
// expected, so a missing entry is not an error.
func (r *Registry) Leave(id int64, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, present := r.online[id]
	if !present || e.connID != connID {
		return false
	}
	delete(r.online, id)
	return true
}

// Get returns the online identity for an id, if any.
func (r *Registry) Get(id int64) (models.Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.online[id]
	return e.identity, ok
}

// Snapshot returns the online identities ordered by ascending id.
func (r *Registry) Snapshot() []models.Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]models.Identity, 0, len(r.online))
	for _, e := range r.online {
		users = append(users, e.identity)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

// Count returns the current online count.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.online)
}
