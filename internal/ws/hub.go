package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"kit-messenger/internal/observability"
	"kit-messenger/internal/state"
)

type ConnInfo struct {
	ConnID      string
	UserID      string
	Client      observability.ClientInfo
	TraceID     string
	ConnectedAt time.Time
}

// Hub fans state events out to notification sockets, grouped by the user
// that was signed in when the socket connected.
type Hub struct {
	rooms    map[string]map[*websocket.Conn]bool
	connInfo map[*websocket.Conn]ConnInfo
	mu       sync.RWMutex
	writeMu  sync.Mutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms:    make(map[string]map[*websocket.Conn]bool),
		connInfo: make(map[*websocket.Conn]ConnInfo),
	}
}

// AddClient registers a connection under info.UserID.
func (h *Hub) AddClient(conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[info.UserID]; !ok {
		h.rooms[info.UserID] = make(map[*websocket.Conn]bool)
	}
	h.rooms[info.UserID][conn] = true
	h.connInfo[conn] = info
}

// RemoveClient forgets a connection.
func (h *Hub) RemoveClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	info, ok := h.connInfo[conn]
	if !ok {
		return
	}
	delete(h.connInfo, conn)
	if conns, ok := h.rooms[info.UserID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, info.UserID)
		}
	}
}

// HandleEvent is a state.Listener. Session revocations go to the affected
// user's sockets only; everything else goes to every socket.
func (h *Hub) HandleEvent(ev state.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}

	h.mu.RLock()
	var conns []*websocket.Conn
	if ev.Type == state.EventSessionRevoked {
		for conn := range h.rooms[ev.UserID] {
			conns = append(conns, conn)
		}
	} else {
		for conn := range h.connInfo {
			conns = append(conns, conn)
		}
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		h.write(conn, payload)
	}
	observability.IncWSEvent(ev.Type)
}

func (h *Hub) write(conn *websocket.Conn, payload []byte) {
	h.writeMu.Lock()
	err := conn.WriteMessage(websocket.TextMessage, payload)
	h.writeMu.Unlock()
	if err == nil {
		return
	}

	log.Warn().Err(err).Msg("websocket write error")
	h.publishWSError(conn, err)
	conn.Close()
	h.RemoveClient(conn)
}

func (h *Hub) publishWSError(conn *websocket.Conn, err error) {
	h.mu.RLock()
	info, ok := h.connInfo[conn]
	h.mu.RUnlock()
	if !ok {
		return
	}

	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"event":       "ws_error",
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      err.Error(),
			"request_id":  info.Client.RequestID,
			"trace_id":    info.TraceID,
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.Client.DeviceID,
			"ip":        info.Client.IP,
		},
	}
	_ = observability.PublishEvent(context.Background(), observability.RoutingWSError, "ws_error", payload)
	observability.IncWSEvent("ws_error")
}

// Clients returns the number of registered connections.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connInfo)
}
