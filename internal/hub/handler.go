package hub

import (
	"context"
	"log"
	"net/http"
	"strings"

	"drawboard/internal/middleware"
	"drawboard/internal/models"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The whiteboard is served from the same origin; tighten this when
		// the frontend moves to its own host.
		return true
	},
}

// TokenVerifier is the identity gate the handler consults before a session
// exists. Satisfied by identity.Service.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (models.Identity, error)
}

// Handler upgrades admitted HTTP requests into whiteboard sessions.
type Handler struct {
	hub      *Hub
	verifier TokenVerifier
}

func NewHandler(h *Hub, verifier TokenVerifier) *Handler {
	return &Handler{hub: h, verifier: verifier}
}

// ServeWS is the connection gate plus handshake. The token is verified
// before the upgrade: a rejected connection never sees a snapshot and no
// session state is created for it.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	ctx, span := middleware.StartSpan(r.Context(), "WebSocket.Connect")
	defer span.End()

	identity, err := h.verifier.VerifyToken(ctx, bearerToken(r))
	if err != nil {
		middleware.AddSpanError(ctx, err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	span.SetAttributes(attribute.String("user.id", identity.UserID))

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		middleware.AddSpanError(ctx, err)
		return
	}

	session := newSession(identity, conn, h.hub)
	h.hub.Register(session)

	go session.WritePump()
	go session.ReadPump(context.Background())
}

// bearerToken pulls the auth token from the query string (the usual place
// for browser websocket clients) or an Authorization header.
func bearerToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}
