package hub

import (
	"context"
	"log"
	"time"

	"drawboard/internal/middleware"
	"drawboard/internal/models"

	"github.com/gorilla/websocket"
	"github.com/segmentio/ksuid"
	"go.opentelemetry.io/otel/attribute"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

// Session is one live, authenticated connection: the binding between a
// websocket and the identity the gate resolved for it. Ephemeral by
// definition: created on admission, destroyed on disconnect, and the cursor
// dies with it.
type Session struct {
	ID       string
	Identity models.Identity
	Conn     *websocket.Conn
	Send     chan []byte

	// Cursor is the last reported position. Only the hub's run loop reads
	// or writes it.
	Cursor *models.CursorState

	hub         *Hub
	ConnectedAt time.Time
}

func newSession(identity models.Identity, conn *websocket.Conn, h *Hub) *Session {
	return &Session{
		ID:          ksuid.New().String(),
		Identity:    identity,
		Conn:        conn,
		Send:        make(chan []byte, h.sendBuffer),
		hub:         h,
		ConnectedAt: time.Now(),
	}
}

// ReadPump owns the read side of the connection: each inbound frame is
// decoded, validated and handed to the hub's single event loop. The pump
// never mutates shared state itself. A connection drop at any point is just
// disconnect cleanup; a stroke is submitted as one atomic frame, so there
// is no half-applied stroke to unwind.
func (s *Session) ReadPump(ctx context.Context) {
	defer func() {
		s.hub.Unregister(s)
		s.Conn.Close()
	}()

	s.Conn.SetReadDeadline(time.Now().Add(pongWait))
	s.Conn.SetPongHandler(func(string) error {
		s.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := s.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("session %s read error: %v", s.ID, err)
			}
			return
		}

		msgCtx, span := middleware.StartSpan(ctx, "WebSocket.ProcessEvent",
			attribute.String("session.id", s.ID),
			attribute.String("user.id", s.Identity.UserID),
			attribute.Int("message.size", len(data)),
		)

		event, err := DecodeClientEvent(data)
		if err != nil {
			// Reject the frame, keep the session: per-request errors are
			// local and non-fatal. The reply goes through the hub loop,
			// which re-checks membership; writing to Send from here would
			// race the loop closing the channel when it drops the session.
			middleware.AddSpanError(msgCtx, err)
			s.hub.DispatchError(s, err)
			span.End()
			continue
		}
		span.SetAttributes(attribute.String("event.type", string(event.Type)))

		s.hub.Dispatch(s, event)
		span.End()
	}
}

// WritePump owns the write side: it drains the send channel and keeps the
// connection alive with pings. A separate goroutine per direction prevents
// a slow reader from blocking writes.
func (s *Session) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-s.Send:
			s.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := s.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			// Drain anything else already queued.
			n := len(s.Send)
			for i := 0; i < n; i++ {
				if err := s.Conn.WriteMessage(websocket.TextMessage, <-s.Send); err != nil {
					return
				}
			}

		case <-ticker.C:
			s.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// trySend queues a message without blocking. Reports false when the buffer
// is full, which the hub treats as a dead or hopelessly slow client.
func (s *Session) trySend(message []byte) bool {
	select {
	case s.Send <- message:
		return true
	default:
		return false
	}
}
