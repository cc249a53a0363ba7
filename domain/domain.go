// Package domain holds the core types of the relay: users, rooms and messages.
// It has no behavior beyond construction; ownership and mutation rules live in
// the registries that hold these values.
package domain

import (
	"time"

	"github.com/google/uuid"
)

type RoomID string

// User is a connection-bound identity. The ID is caller supplied and never
// verified; binding only associates it with a live connection.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ConnectionID string    `json:"connectionId"`
	ConnectedAt  time.Time `json:"connectedAt"`
}

// Room is a two-party conversation channel. Participants are derived from the
// room identifier on first reference and stored here so later readers do not
// need to re-parse the id.
type Room struct {
	ID           RoomID    `json:"id"`
	Participants []string  `json:"participants"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Message is immutable once appended. The server assigns ID and SentAt;
// CorrelationID is a client token echoed back unchanged so optimistic UIs can
// reconcile their local copy.
type Message struct {
	ID            uuid.UUID `json:"id"`
	RoomID        RoomID    `json:"roomId"`
	SenderID      string    `json:"senderId"`
	SenderName    string    `json:"senderName"`
	Text          string    `json:"text"`
	CorrelationID string    `json:"correlationId,omitempty"`
	SentAt        time.Time `json:"serverTimestamp"`
}
