package ws

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/efreeman/diplomat/internal/model"
)

const (
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = 54 * time.Second // must be less than pongWait
	maxMsgSize  = 4096
	sendBufSize = 256
)

// ClientMessage is the envelope for messages sent from the client:
// subscribing or unsubscribing from a game's notification stream.
type ClientMessage struct {
	Action string `json:"action"` // "subscribe" or "unsubscribe"
	GameID string `json:"game_id"`
}

// Conn wraps one WebSocket connection as a Sink, queuing writes on a
// buffered channel drained by writePump.
type Conn struct {
	conn   *websocket.Conn
	handle string
	send   chan []byte
}

// NewConn creates a Conn for an already-upgraded WebSocket connection.
func NewConn(wsConn *websocket.Conn, handle string) *Conn {
	return &Conn{conn: wsConn, handle: handle, send: make(chan []byte, sendBufSize)}
}

// Write implements Sink by marshaling n and queuing it for delivery. A
// full send buffer drops the message rather than blocking the caller —
// a slow reader is the reader's problem, never the notifier's.
func (c *Conn) Write(n model.Notification) {
	data, err := json.Marshal(n)
	if err != nil {
		log.Error().Err(err).Str("handle", c.handle).Msg("failed to marshal notification")
		return
	}
	select {
	case c.send <- data:
	default:
		log.Warn().Str("handle", c.handle).Msg("dropping notification, send buffer full")
	}
}

// Serve runs the read and write pumps until the connection closes,
// unregistering from hub on exit.
func (c *Conn) Serve(hub *Hub) {
	hub.Register(c)
	defer func() {
		hub.Unregister(c)
		c.conn.Close()
	}()

	go c.writePump()
	c.readPump(hub)
}

func (c *Conn) readPump(hub *Hub) {
	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("handle", c.handle).Msg("websocket unexpected close")
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		switch msg.Action {
		case "subscribe":
			if msg.GameID != "" {
				hub.Subscribe(c.handle, msg.GameID)
			}
		case "unsubscribe":
			if msg.GameID != "" {
				hub.Unsubscribe(c.handle, msg.GameID)
			}
		}
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte("\n"))
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
