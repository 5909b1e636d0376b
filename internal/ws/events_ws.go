package ws

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"kit-messenger/internal/models"
	"kit-messenger/internal/observability"
)

// CurrentUserProvider exposes the signed-in user of this process.
type CurrentUserProvider interface {
	CurrentUser() (models.User, bool)
}

// EventsWebSocketHandler serves the notification socket.
type EventsWebSocketHandler struct {
	hub      *Hub
	identity CurrentUserProvider
	upgrader websocket.Upgrader
}

// NewEventsWebSocketHandler accepts browser handshakes only from origins. With
// no origins, only pages served from the bridge's own host may connect.
// Clients that send no Origin header are not browsers and are accepted.
func NewEventsWebSocketHandler(hub *Hub, identity CurrentUserProvider, origins []string) *EventsWebSocketHandler {
	h := &EventsWebSocketHandler{hub: hub, identity: identity}
	if len(origins) > 0 {
		h.upgrader.CheckOrigin = allowOrigins(origins)
	}
	return h
}

func allowOrigins(origins []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, allowed := range origins {
			if strings.EqualFold(origin, allowed) {
				return true
			}
		}
		log.Warn().Str("origin", origin).Msg("websocket origin rejected")
		return false
	}
}

// Handle upgrades the connection and keeps it registered until the client
// goes away. Signed-out clients still receive state and call events.
func (h *EventsWebSocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("kit-messenger/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	var userID string
	if user, ok := h.identity.CurrentUser(); ok {
		userID = user.ID
	}
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		Client:      observability.ClientFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}

	h.hub.AddClient(conn, info)
	observability.IncWSActive()
	observability.IncWSEvent("connect")
	log.Debug().Str("conn_id", info.ConnID).Str("user_id", userID).Msg("websocket connected")

	defer func() {
		h.hub.RemoveClient(conn)
		conn.Close()
		observability.DecWSActive()
		observability.IncWSEvent("disconnect")
		log.Debug().Str("conn_id", info.ConnID).Msg("websocket disconnected")
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
