package repositories

import (
	"fmt"
	"log/slog"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"chat-relay/domain"
)

func newTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func Test_Append_Assigns_Id_And_Timestamp(t *testing.T) {
	req := require.New(t)
	log := NewMessageLog(newTestDB(t), slog.Default())
	roomID := domain.RoomID("room_u1_u2")

	msg, err := log.Append(roomID, "u1", "Alice", "hello", "t1")
	req.NoError(err)

	req.NotEqual("00000000-0000-0000-0000-000000000000", msg.ID.String())
	req.Equal(roomID, msg.RoomID)
	req.Equal("u1", msg.SenderID)
	req.Equal("Alice", msg.SenderName)
	req.Equal("hello", msg.Text)
	req.Equal("t1", msg.CorrelationID)
	req.False(msg.SentAt.IsZero())
}

func Test_List_Preserves_Append_Order(t *testing.T) {
	req := require.New(t)
	log := NewMessageLog(newTestDB(t), slog.Default())
	roomID := domain.RoomID("room_u1_u2")

	// Given many messages appended in sequence
	total := 25
	for i := 0; i < total; i++ {
		_, err := log.Append(roomID, "u1", "Alice", fmt.Sprintf("message %02d", i), "")
		req.NoError(err)
	}

	// Then the listing matches the exact append order
	messages, err := log.List(roomID)
	req.NoError(err)
	req.Len(messages, total)
	for i, msg := range messages {
		req.Equal(fmt.Sprintf("message %02d", i), msg.Text)
	}
}

func Test_List_Unknown_Room_Returns_Empty_Slice(t *testing.T) {
	req := require.New(t)
	log := NewMessageLog(newTestDB(t), slog.Default())

	messages, err := log.List("room_nobody_here")
	req.NoError(err)
	req.NotNil(messages)
	req.Empty(messages)
}

func Test_List_Is_Scoped_To_Room(t *testing.T) {
	req := require.New(t)
	log := NewMessageLog(newTestDB(t), slog.Default())

	_, err := log.Append("room_u1_u2", "u1", "Alice", "for this room", "")
	req.NoError(err)
	_, err = log.Append("room_u1_u3", "u1", "Alice", "for another room", "")
	req.NoError(err)

	messages, err := log.List("room_u1_u2")
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal("for this room", messages[0].Text)
}

func Test_Count_Spans_All_Rooms(t *testing.T) {
	req := require.New(t)
	log := NewMessageLog(newTestDB(t), slog.Default())

	for _, roomID := range []domain.RoomID{"room_u1_u2", "room_u1_u3", "room_u1_u2"} {
		_, err := log.Append(roomID, "u1", "Alice", "hi", "")
		req.NoError(err)
	}

	count, err := log.Count()
	req.NoError(err)
	req.Equal(3, count)
}
