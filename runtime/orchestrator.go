package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/moderation"
	"chat-relay/repositories"
)

// Orchestrator routes inbound connection events through the registries and
// fans the resulting outbound events back out. Coupling is one way: the
// registries and the log never call back into the orchestrator.
//
// An event that fails is confined to its originating connection; nothing here
// terminates the process or touches other connections.
type Orchestrator struct {
	mu          sync.Mutex // serializes append-and-broadcast so per-room order holds
	log         *slog.Logger
	connections *ConnectionRegistry
	rooms       *RoomRegistry
	registry    contract.ISubscriberRegistry
	messages    contract.IMessageLog
	moderator   *moderation.Moderator     // optional, nil disables masking
	search      *repositories.SearchIndex // optional, nil disables indexing
}

func NewOrchestrator(
	log *slog.Logger,
	connections *ConnectionRegistry,
	rooms *RoomRegistry,
	registry contract.ISubscriberRegistry,
	messages contract.IMessageLog,
	moderator *moderation.Moderator,
	search *repositories.SearchIndex,
) *Orchestrator {
	return &Orchestrator{
		log:         log,
		connections: connections,
		rooms:       rooms,
		registry:    registry,
		messages:    messages,
		moderator:   moderator,
		search:      search,
	}
}

// Authenticate binds the caller-declared identity to the connection and
// confirms to the sender only. Re-authenticating on the same connection
// overwrites the previous binding and never fails.
func (o *Orchestrator) Authenticate(ctx context.Context, connID string, sink contract.EventSink, p event.Authenticate) {
	user := o.connections.Bind(p.UserID, connID, p.Name)

	if err := sink.Consume(ctx, event.Authenticated{
		Success: true,
		UserID:  user.ID,
		Message: fmt.Sprintf("Welcome %s!", user.Name),
	}); err != nil {
		o.log.Debug("Dropping authenticated event", "connection", connID, "err", err)
	}
	o.log.Info("User authenticated", "user", user.ID, "name", user.Name, "connection", connID)
}

// JoinRoom subscribes the connection to the room's broadcasts, creates the
// room on first reference, and replays the room's history to the sender.
// Authentication is not required to join.
func (o *Orchestrator) JoinRoom(ctx context.Context, connID string, sink contract.EventSink, p event.JoinRoom) {
	roomID := domain.RoomID(p.RoomID)

	o.registry.Subscribe(connID, roomID, sink)
	o.rooms.GetOrCreate(roomID, ParticipantsFromID)

	messages, err := o.messages.List(roomID)
	if err != nil {
		o.log.Error("Listing previous messages failed", "room", roomID, "err", err)
		return
	}
	if err := sink.Consume(ctx, event.PreviousMessages{RoomID: roomID, Messages: messages}); err != nil {
		o.log.Debug("Dropping previous_messages event", "connection", connID, "err", err)
	}
	o.log.Info("Connection joined room", "connection", connID, "room", roomID)
}

// LeaveRoom unsubscribes the connection from the room. Unknown rooms are a
// no-op.
func (o *Orchestrator) LeaveRoom(_ context.Context, connID string, p event.LeaveRoom) {
	o.registry.Unsubscribe(connID, domain.RoomID(p.RoomID))
	o.log.Info("Connection left room", "connection", connID, "room", p.RoomID)
}

// SendMessage appends the message to the room's log and broadcasts it to
// every subscriber, sender included. An unauthenticated sender gets an error
// event and nothing is stored. Append and broadcast happen as one serialized
// step so the log order and the delivery order agree per room.
func (o *Orchestrator) SendMessage(ctx context.Context, connID string, sink contract.EventSink, p event.SendMessage) {
	sender := o.connections.LookupByConnection(connID)
	if sender == nil {
		if err := sink.Consume(ctx, event.Error{Message: "User not authenticated"}); err != nil {
			o.log.Debug("Dropping error event", "connection", connID, "err", err)
		}
		return
	}

	text := p.Text
	if o.moderator != nil {
		text = o.moderator.Mask(text)
	}

	o.mu.Lock()
	msg, err := o.messages.Append(domain.RoomID(p.RoomID), sender.ID, sender.Name, text, p.CorrelationID)
	if err != nil {
		o.mu.Unlock()
		o.log.Error("Storing message failed", "room", p.RoomID, "err", err)
		if err := sink.Consume(ctx, event.Error{Message: "Message could not be stored"}); err != nil {
			o.log.Debug("Dropping error event", "connection", connID, "err", err)
		}
		return
	}
	o.registry.Broadcast(ctx, msg.RoomID, "", event.NewMessage{Message: msg})
	o.mu.Unlock()

	if o.search != nil {
		if err := o.search.IndexMessage(msg); err != nil {
			o.log.Warn("Indexing message failed", "message", msg.ID, "err", err)
		}
	}
	o.log.Debug("Message relayed", "room", msg.RoomID, "sender", sender.ID)
}

// Typing relays a typing signal to the room's other subscribers. Nothing is
// stored, and an unbound sender is silently ignored.
func (o *Orchestrator) Typing(ctx context.Context, connID string, p event.Typing) {
	user := o.connections.LookupByConnection(connID)
	if user == nil {
		return
	}
	o.registry.Broadcast(ctx, domain.RoomID(p.RoomID), connID, event.UserTyping{
		RoomID:   domain.RoomID(p.RoomID),
		UserID:   user.ID,
		UserName: user.Name,
		IsTyping: p.IsTyping,
	})
}

// Disconnect tears down everything tied to the connection: the identity
// binding and every room subscription. The transport must call this before
// the connection goroutine exits.
func (o *Orchestrator) Disconnect(_ context.Context, connID string) {
	if user := o.connections.Unbind(connID); user != nil {
		o.log.Info("User disconnected", "user", user.ID, "name", user.Name, "connection", connID)
	}
	o.registry.UnsubscribeAll(connID)
}
