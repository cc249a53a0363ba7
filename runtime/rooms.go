package runtime

import (
	"sort"
	"strings"
	"sync"
	"time"

	"chat-relay/domain"
)

const (
	roomIDPrefix    = "room_"
	roomIDSeparator = "_"
)

// RoomIDFor derives the canonical identifier of the two-party room shared by
// a and b. The pair is sorted first, so the result is the same regardless of
// argument order.
func RoomIDFor(a, b string) domain.RoomID {
	ids := []string{a, b}
	sort.Strings(ids)
	return domain.RoomID(roomIDPrefix + ids[0] + roomIDSeparator + ids[1])
}

// ParticipantsFromID reverses RoomIDFor by stripping the prefix and splitting
// on the separator. User ids that themselves contain the separator split
// wrong; this matches the historical wire format and is kept as is.
func ParticipantsFromID(id domain.RoomID) []string {
	return strings.Split(strings.TrimPrefix(string(id), roomIDPrefix), roomIDSeparator)
}

// RoomRegistry creates rooms lazily on first reference and keeps them for the
// process lifetime. Rooms are never deleted.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*domain.Room
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{rooms: make(map[domain.RoomID]*domain.Room)}
}

// GetOrCreate returns the room for id, creating it with participants derived
// by derive when it does not exist yet.
func (r *RoomRegistry) GetOrCreate(id domain.RoomID, derive func(domain.RoomID) []string) *domain.Room {
	r.mu.RLock()
	room, ok := r.rooms[id]
	r.mu.RUnlock()
	if ok {
		return room
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Double-check after acquiring the write lock.
	if room, ok = r.rooms[id]; ok {
		return room
	}
	room = &domain.Room{
		ID:           id,
		Participants: derive(id),
		CreatedAt:    time.Now().UTC(),
	}
	r.rooms[id] = room
	return room
}

// Get returns the room or nil, without creating it.
func (r *RoomRegistry) Get(id domain.RoomID) *domain.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rooms[id]
}

// All returns a snapshot of every room, sorted by id. Read-only, used by the
// debug surface.
func (r *RoomRegistry) All() []domain.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]domain.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, *room)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })
	return rooms
}
