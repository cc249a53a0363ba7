// Package event defines the wire-level events exchanged with clients. Inbound
// payloads carry validation tags; outbound events know their own wire name so
// any sink can frame them without a type switch.
package event

import (
	"encoding/json"

	"chat-relay/domain"
)

// Inbound event names.
const (
	TypeAuthenticate = "authenticate"
	TypeJoinRoom     = "join_room"
	TypeLeaveRoom    = "leave_room"
	TypeSendMessage  = "send_message"
	TypeTyping       = "typing"
)

// Envelope frames every message on the wire, both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Wrap frames an outbound event into its wire representation.
func Wrap(e Outbound) ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: e.EventType(), Payload: payload})
}

type Authenticate struct {
	UserID string `json:"userId" validate:"required"`
	Name   string `json:"name" validate:"required,min=1,max=255"`
}

type JoinRoom struct {
	RoomID string `json:"roomId" validate:"required"`
}

type LeaveRoom struct {
	RoomID string `json:"roomId" validate:"required"`
}

type SendMessage struct {
	RoomID        string `json:"roomId" validate:"required"`
	Text          string `json:"text" validate:"required,min=1,max=10000"`
	CorrelationID string `json:"correlationId,omitempty" validate:"omitempty,max=255"`
}

type Typing struct {
	RoomID   string `json:"roomId" validate:"required"`
	IsTyping bool   `json:"isTyping"`
}

// Outbound is any event the relay emits towards a client.
type Outbound interface {
	EventType() string
}

type Authenticated struct {
	Success bool   `json:"success"`
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

func (Authenticated) EventType() string { return "authenticated" }

type PreviousMessages struct {
	RoomID   domain.RoomID    `json:"roomId"`
	Messages []domain.Message `json:"messages"`
}

func (PreviousMessages) EventType() string { return "previous_messages" }

type NewMessage struct {
	domain.Message
}

func (NewMessage) EventType() string { return "new_message" }

type UserTyping struct {
	RoomID   domain.RoomID `json:"roomId"`
	UserID   string        `json:"userId"`
	UserName string        `json:"userName"`
	IsTyping bool          `json:"isTyping"`
}

func (UserTyping) EventType() string { return "user_typing" }

type Error struct {
	Message string `json:"message"`
}

func (Error) EventType() string { return "error" }
