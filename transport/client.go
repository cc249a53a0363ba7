// Package transport carries relay events over websockets. It is the only
// package that knows about the underlying connection; the core sees opaque
// connection ids and event sinks.
package transport

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"chat-relay/contract"
	"chat-relay/domain/event"
	"chat-relay/errors"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 * 1024
)

// Client is one live websocket connection. It implements contract.EventSink
// so the core can hand it outbound events without knowing about websockets.
// A single writer goroutine consumes the send queue.
type Client struct {
	ID   string
	conn *websocket.Conn
	send chan []byte
	log  *slog.Logger
}

func NewClient(conn *websocket.Conn, sendBuffer int, log *slog.Logger) *Client {
	return &Client{
		ID:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
		log:  log,
	}
}

// Consume queues an outbound event. Delivery is best effort: when the buffer
// is full the event is skipped and the caller decides whether to log it.
func (c *Client) Consume(_ context.Context, e event.Outbound) error {
	payload, err := event.Wrap(e)
	if err != nil {
		return err
	}
	select {
	case c.send <- payload:
		return nil
	default:
		return fmt.Errorf("connection %s: %w", c.ID, errors.ErrSlowConsumer)
	}
}

// writePump drains the send queue onto the wire and keeps the connection
// alive with pings. It owns all writes to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads frames until the connection drops and hands each one to
// dispatch. It returns only when the connection is gone.
func (c *Client) readPump(ctx context.Context, dispatch func(ctx context.Context, connID string, sink contract.EventSink, raw []byte)) {
	defer func() {
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug("Unexpected close", "connection", c.ID, "err", err)
			}
			return
		}
		dispatch(ctx, c.ID, c, raw)
	}
}
