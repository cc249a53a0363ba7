// Package repositories holds the storage-facing side of the relay: the
// badger-backed message log and the bluge search index.
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"chat-relay/domain"
)

const messageKeyPrefix = "msg:"

// MessageLog is the append-only per-room message history. The database is
// expected to be opened in memory mode; history lives only for the process
// lifetime.
type MessageLog struct {
	db  *badger.DB
	log *slog.Logger

	mu  sync.Mutex
	seq map[domain.RoomID]uint64
}

func NewMessageLog(db *badger.DB, log *slog.Logger) *MessageLog {
	return &MessageLog{db: db, log: log, seq: make(map[domain.RoomID]uint64)}
}

// Append stores a message with a fresh id and an authoritative server
// timestamp. The key is formatted as "msg:{room}:{seq_padded}:{uuid}":
//  1. The per-room sequence padded to 19 digits makes lexicographical key
//     order exactly append order, independent of clock resolution.
//  2. The UUID keeps keys unique for debugging tools that scan raw keys.
func (m *MessageLog) Append(roomID domain.RoomID, senderID, senderName, text, correlationID string) (domain.Message, error) {
	m.mu.Lock()
	m.seq[roomID]++
	seq := m.seq[roomID]
	m.mu.Unlock()

	msg := domain.Message{
		ID:            uuid.New(),
		RoomID:        roomID,
		SenderID:      senderID,
		SenderName:    senderName,
		Text:          text,
		CorrelationID: correlationID,
		SentAt:        time.Now().UTC(),
	}

	key := fmt.Sprintf("%s%s:%019d:%s", messageKeyPrefix, roomID, seq, msg.ID)
	bytes, err := json.Marshal(msg)
	if err != nil {
		return domain.Message{}, err
	}

	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
	if err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

// List returns the room's messages in append order via a prefix scan. An
// unknown room yields an empty slice, never an error.
func (m *MessageLog) List(roomID domain.RoomID) ([]domain.Message, error) {
	messages := []domain.Message{}
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("%s%s:", messageKeyPrefix, roomID))
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var msg domain.Message
				if err := json.Unmarshal(val, &msg); err != nil {
					return err
				}
				messages = append(messages, msg)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// Count returns the total number of stored messages across all rooms.
// Read-only, used by the debug surface.
func (m *MessageLog) Count() (int, error) {
	var count int
	err := m.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		prefix := []byte(messageKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}
