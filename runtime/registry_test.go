package runtime

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"chat-relay/domain"
	"chat-relay/domain/event"
)

// captureSink records every event it consumes.
type captureSink struct {
	mu     sync.Mutex
	events []event.Outbound
}

func (s *captureSink) Consume(_ context.Context, e event.Outbound) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *captureSink) Events() []event.Outbound {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]event.Outbound{}, s.events...)
}

func TestRegistry_Subscribe_And_Broadcast(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())
	roomID := domain.RoomID("room_u1_u2")
	connA, connB := uuid.NewString(), uuid.NewString()
	sinkA, sinkB := &captureSink{}, &captureSink{}

	// Given two subscribed connections
	registry.Subscribe(connA, roomID, sinkA)
	registry.Subscribe(connB, roomID, sinkB)

	// When an event is broadcast with no exclusion
	registry.Broadcast(context.Background(), roomID, "", event.Error{Message: "ping"})

	// Then both connections receive it
	req.Len(sinkA.Events(), 1)
	req.Len(sinkB.Events(), 1)
}

func TestRegistry_Broadcast_Excludes_Sender(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())
	roomID := domain.RoomID("room_u1_u2")
	connA, connB := uuid.NewString(), uuid.NewString()
	sinkA, sinkB := &captureSink{}, &captureSink{}
	registry.Subscribe(connA, roomID, sinkA)
	registry.Subscribe(connB, roomID, sinkB)

	// When an event is broadcast excluding connA
	registry.Broadcast(context.Background(), roomID, connA, event.UserTyping{RoomID: roomID, UserID: "u1", IsTyping: true})

	// Then only connB receives it
	req.Empty(sinkA.Events())
	req.Len(sinkB.Events(), 1)
}

func TestRegistry_Broadcast_Unknown_Room_Is_Noop(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())
	sink := &captureSink{}
	registry.Subscribe(uuid.NewString(), "room_u1_u2", sink)

	registry.Broadcast(context.Background(), "room_u3_u4", "", event.Error{Message: "lost"})

	req.Empty(sink.Events())
}

func TestRegistry_Unsubscribe_Keeps_Other_Rooms(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())
	connID := uuid.NewString()
	sink := &captureSink{}
	registry.Subscribe(connID, "room_u1_u2", sink)
	registry.Subscribe(connID, "room_u1_u3", sink)

	// When the connection leaves one room
	registry.Unsubscribe(connID, "room_u1_u2")

	// Then it is gone from that room only
	req.Empty(registry.Members("room_u1_u2"))
	req.Equal([]string{connID}, registry.Members("room_u1_u3"))
}

func TestRegistry_Unsubscribe_Unknown_Room_Is_Noop(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())

	registry.Unsubscribe(uuid.NewString(), "room_u1_u2")

	req.Empty(registry.Snapshot())
}

func TestRegistry_UnsubscribeAll_Removes_From_Every_Room(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())
	connID := uuid.NewString()
	other := uuid.NewString()
	sink := &captureSink{}
	registry.Subscribe(connID, "room_u1_u2", sink)
	registry.Subscribe(connID, "room_u1_u3", sink)
	registry.Subscribe(other, "room_u1_u2", sink)

	// When the connection disconnects
	registry.UnsubscribeAll(connID)

	// Then it no longer appears in any subscriber set
	for roomID, members := range registry.Snapshot() {
		req.NotContains(members, connID, "room %s still lists the connection", roomID)
	}

	// And the other connection is untouched
	req.Equal([]string{other}, registry.Members("room_u1_u2"))

	// And emptied rooms are dropped entirely
	req.Empty(registry.Members("room_u1_u3"))
}
