package handler

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/efreeman/diplomat/internal/users"
	"github.com/efreeman/diplomat/internal/ws"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS handled by middleware; tighten in production
	},
}

// WSHandler upgrades a request to a WebSocket connection and binds it
// into the hub. Auth is via a ?token= query parameter since a
// WebSocket handshake can't carry a bearer header.
type WSHandler struct {
	hub   *ws.Hub
	users *users.Registry
}

// NewWSHandler creates a WSHandler.
func NewWSHandler(hub *ws.Hub, reg *users.Registry) *WSHandler {
	return &WSHandler{hub: hub, users: reg}
}

// ServeWS handles GET /api/ws?token=...
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, `{"ok":false,"error":"missing token parameter"}`, http.StatusUnauthorized)
		return
	}
	username, err := h.users.Subject(r.Context(), token)
	if err != nil {
		http.Error(w, `{"ok":false,"error":"invalid or expired token"}`, http.StatusUnauthorized)
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	handle := ephemeralHandle()
	h.users.Reattach(token, handle)

	conn := ws.NewConn(wsConn, handle)
	log.Info().Str("username", username).Str("handle", handle).Msg("websocket client connected")
	conn.Serve(h.hub)
}
