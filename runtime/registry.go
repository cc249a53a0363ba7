// Package runtime owns the relay's mutable state: connection bindings, rooms,
// subscriber sets, and the orchestrator that routes events between them. It
// contains no transport concerns; connections appear here only as opaque ids
// paired with an outbound sink.
package runtime

import (
	"context"
	"log/slog"
	"sync"

	"github.com/samber/lo"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
)

type Set map[string]struct{}

// Registry tracks which live connections receive broadcasts for each room.
// Sinks are keyed by connection id so one connection joined to several rooms
// is delivered through a single place.
type Registry struct {
	mu          sync.RWMutex
	log         *slog.Logger
	sinks       map[string]contract.EventSink // connection id -> outbound sink
	roomMembers map[domain.RoomID]Set         // room id -> subscribed connection ids
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		log:         log,
		sinks:       make(map[string]contract.EventSink),
		roomMembers: make(map[domain.RoomID]Set),
	}
}

// Subscribe registers the connection's sink and adds it to the room's
// subscriber set, initializing the set on first join.
func (r *Registry) Subscribe(connID string, roomID domain.RoomID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sinks[connID] = sink

	if _, ok := r.roomMembers[roomID]; !ok {
		r.roomMembers[roomID] = make(Set)
	}
	r.roomMembers[roomID][connID] = struct{}{}
}

// Unsubscribe removes the connection from one room. The sink stays registered
// because the connection may be subscribed elsewhere. Leaving a room that was
// never joined is a no-op.
func (r *Registry) Unsubscribe(connID string, roomID domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if members, ok := r.roomMembers[roomID]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.roomMembers, roomID)
		}
	}
}

// UnsubscribeAll removes a disconnected connection from every room and drops
// its sink. Empty sets are removed so the map does not grow forever.
func (r *Registry) UnsubscribeAll(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sinks, connID)
	for roomID, members := range r.roomMembers {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.roomMembers, roomID)
		}
	}
}

// Broadcast delivers e to every connection subscribed to roomID, skipping
// except when non-empty. The set is read and consumed under the same lock, so
// a concurrent join or leave is either fully visible to this emission or not
// at all. Sinks are non-blocking; a full one just misses the event.
func (r *Registry) Broadcast(ctx context.Context, roomID domain.RoomID, except string, e event.Outbound) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for connID := range r.roomMembers[roomID] {
		if connID == except {
			continue
		}
		sink, ok := r.sinks[connID]
		if !ok {
			continue
		}
		if err := sink.Consume(ctx, e); err != nil {
			r.log.Debug("Dropping event for connection", "connection", connID, "event", e.EventType(), "err", err)
		}
	}
}

// Members returns the connection ids subscribed to roomID.
func (r *Registry) Members(roomID domain.RoomID) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Keys(r.roomMembers[roomID])
}

// Snapshot returns the full room -> subscriber mapping. Read-only, used by
// the debug surface.
func (r *Registry) Snapshot() map[domain.RoomID][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make(map[domain.RoomID][]string, len(r.roomMembers))
	for roomID, members := range r.roomMembers {
		snapshot[roomID] = lo.Keys(members)
	}
	return snapshot
}
