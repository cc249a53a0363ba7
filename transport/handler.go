package transport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"

	"chat-relay/contract"
	"chat-relay/domain/event"
	"chat-relay/services"
)

// Handler upgrades HTTP requests to websocket connections and routes their
// inbound frames into the chat service. Malformed frames are logged and
// dropped without reaching the core; they never affect other connections.
type Handler struct {
	log        *slog.Logger
	service    services.IChatService
	upgrader   websocket.Upgrader
	validate   *validator.Validate
	sendBuffer int
}

func NewHandler(log *slog.Logger, service services.IChatService, sendBuffer int) *Handler {
	return &Handler{
		log:     log,
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin checking belongs to the deployment's proxy layer.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		validate:   validator.New(),
		sendBuffer: sendBuffer,
	}
}

// ServeWS runs one connection end to end. The read side owns the lifecycle:
// when it returns, the relay is told to disconnect before anything else is
// torn down, so no further events from this connection are possible.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("Websocket upgrade failed", "err", err)
		return
	}

	client := NewClient(conn, h.sendBuffer, h.log)
	h.log.Info("New connection", "connection", client.ID)

	go client.writePump()
	// The request context dies with the hijacked connection; the relay calls
	// below must outlive it.
	ctx := context.Background()
	client.readPump(ctx, h.dispatch)

	h.service.Disconnect(ctx, client.ID)
	close(client.send)
	h.log.Info("Connection closed", "connection", client.ID)
}

// dispatch decodes one inbound frame and routes it by event type.
func (h *Handler) dispatch(ctx context.Context, connID string, sink contract.EventSink, raw []byte) {
	var envelope event.Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		h.log.Warn("Malformed frame", "connection", connID, "err", err)
		return
	}

	switch envelope.Type {
	case event.TypeAuthenticate:
		var p event.Authenticate
		if !h.decode(connID, envelope, &p) {
			return
		}
		h.service.Authenticate(ctx, connID, sink, p)
	case event.TypeJoinRoom:
		var p event.JoinRoom
		if !h.decode(connID, envelope, &p) {
			return
		}
		h.service.JoinRoom(ctx, connID, sink, p)
	case event.TypeLeaveRoom:
		var p event.LeaveRoom
		if !h.decode(connID, envelope, &p) {
			return
		}
		h.service.LeaveRoom(ctx, connID, p)
	case event.TypeSendMessage:
		var p event.SendMessage
		if !h.decode(connID, envelope, &p) {
			return
		}
		h.service.SendMessage(ctx, connID, sink, p)
	case event.TypeTyping:
		var p event.Typing
		if !h.decode(connID, envelope, &p) {
			return
		}
		h.service.Typing(ctx, connID, p)
	default:
		h.log.Warn("Unknown event type", "connection", connID, "type", envelope.Type)
	}
}

// decode unmarshals and validates an inbound payload, logging any rejection.
func (h *Handler) decode(connID string, envelope event.Envelope, payload any) bool {
	if err := json.Unmarshal(envelope.Payload, payload); err != nil {
		h.log.Warn("Malformed payload", "connection", connID, "type", envelope.Type, "err", err)
		return false
	}
	if err := h.validate.Struct(payload); err != nil {
		h.log.Warn("Invalid payload", "connection", connID, "type", envelope.Type, "err", err)
		return false
	}
	return true
}
