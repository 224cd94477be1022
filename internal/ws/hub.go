package ws

import (
	"sync"

	"github.com/efreeman/diplomat/internal/model"
)

// Hub manages WebSocket connections and their game subscriptions,
// addressed by connection handle — the same handle internal/users binds
// a bearer token to. It is the real-time delivery half of the Sink
// abstraction; SinkFor returns a NoopSink for any handle with no live
// connection, so callers never need to nil-check.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*Conn
	games map[string]map[string]bool // gameID -> set of handles
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		conns: make(map[string]*Conn),
		games: make(map[string]map[string]bool),
	}
}

// Register adds a connection to the hub under its handle, replacing any
// prior connection registered under the same handle.
func (h *Hub) Register(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.handle] = c
}

// Unregister removes a connection and all its game subscriptions.
func (h *Hub) Unregister(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[c.handle] == c {
		delete(h.conns, c.handle)
	}
	for gameID, handles := range h.games {
		delete(handles, c.handle)
		if len(handles) == 0 {
			delete(h.games, gameID)
		}
	}
	close(c.send)
}

// Subscribe adds handle to a game's subscriber set.
func (h *Hub) Subscribe(handle, gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.games[gameID] == nil {
		h.games[gameID] = make(map[string]bool)
	}
	h.games[gameID][handle] = true
}

// Unsubscribe removes handle from a game's subscriber set.
func (h *Hub) Unsubscribe(handle, gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if handles, ok := h.games[gameID]; ok {
		delete(handles, handle)
		if len(handles) == 0 {
			delete(h.games, gameID)
		}
	}
}

// SinkFor returns the live connection registered under handle, or a
// NoopSink if none is connected.
func (h *Hub) SinkFor(handle string) Sink {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if c, ok := h.conns[handle]; ok {
		return c
	}
	return NoopSink{}
}

// BroadcastToGame writes n to every handle subscribed to gameID.
func (h *Hub) BroadcastToGame(gameID string, n model.Notification) {
	h.mu.RLock()
	handles := make([]string, 0, len(h.games[gameID]))
	for handle := range h.games[gameID] {
		handles = append(handles, handle)
	}
	h.mu.RUnlock()

	for _, handle := range handles {
		h.SinkFor(handle).Write(n)
	}
}

// ConnectionCount returns the number of live connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// GameSubscriberCount returns the number of handles subscribed to gameID.
func (h *Hub) GameSubscriberCount(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.games[gameID])
}
