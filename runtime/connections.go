package runtime

import (
	"sort"
	"sync"
	"time"

	"chat-relay/domain"
)

// ConnectionRegistry binds transport connections to user identities. A
// connection holds at most one binding; a user id is bound to at most one
// connection, last bind wins.
type ConnectionRegistry struct {
	mu         sync.RWMutex
	users      map[string]*domain.User // user id -> record
	connToUser map[string]string       // connection id -> user id
}

func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		users:      make(map[string]*domain.User),
		connToUser: make(map[string]string),
	}
}

// Bind associates a connection with a caller-declared identity. It always
// succeeds and overwrites any prior record for userID. When the same user id
// is re-bound from a second connection, the first connection keeps a stale
// reverse entry until it disconnects.
func (r *ConnectionRegistry) Bind(userID, connID, name string) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()

	user := &domain.User{
		ID:           userID,
		Name:         name,
		ConnectionID: connID,
		ConnectedAt:  time.Now().UTC(),
	}
	r.users[userID] = user
	r.connToUser[connID] = userID
	return user
}

// LookupByConnection resolves the user bound to connID, or nil. A stale
// reverse entry left by a re-bind resolves to the user's current record,
// which points at the newer connection.
func (r *ConnectionRegistry) LookupByConnection(connID string) *domain.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userID, ok := r.connToUser[connID]
	if !ok {
		return nil
	}
	return r.users[userID]
}

// Unbind removes both mappings for connID and returns the removed user, or
// nil if the connection had no binding.
func (r *ConnectionRegistry) Unbind(connID string) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.connToUser[connID]
	if !ok {
		return nil
	}
	user := r.users[userID]
	delete(r.users, userID)
	delete(r.connToUser, connID)
	return user
}

// AllUsers returns a snapshot of every bound user, sorted by id. Read-only,
// used by the debug surface.
func (r *ConnectionRegistry) AllUsers() []domain.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}
