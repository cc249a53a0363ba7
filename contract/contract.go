package contract

import (
	"context"
	"reflect"

	"chat-relay/domain"
	"chat-relay/domain/event"
)

// EventSink is the outbound side of a connection. Implementations must not
// block: delivery is best effort and a sink that cannot keep up returns an
// error instead of stalling the broadcaster.
type EventSink interface {
	Consume(ctx context.Context, e event.Outbound) error
}

// ISubscriberRegistry tracks which connections receive broadcasts per room.
type ISubscriberRegistry interface {
	Subscribe(connID string, roomID domain.RoomID, sink EventSink)
	Unsubscribe(connID string, roomID domain.RoomID)
	UnsubscribeAll(connID string)
	Broadcast(ctx context.Context, roomID domain.RoomID, except string, e event.Outbound)
}

// IMessageLog is the append-only per-room message history.
type IMessageLog interface {
	Append(roomID domain.RoomID, senderID, senderName, text, correlationID string) (domain.Message, error)
	List(roomID domain.RoomID) ([]domain.Message, error)
	Count() (int, error)
}

// Worker is a long-running unit run under supervision. It returns when its
// context is canceled or its work is done; a panic gets it restarted.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker,
// avoiding manual naming in the Worker interface. Used for logging and
// supervision.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
