// Package ws is the notification delivery layer: a Sink abstracts over
// "somewhere to put a Notification", with a no-op implementation for
// stateless HTTP mutations and a queued WebSocket implementation (Hub +
// Conn) for connected clients.
package ws

import "github.com/efreeman/diplomat/internal/model"

// Sink receives notifications addressed to one connection.
type Sink interface {
	Write(model.Notification)
}

// NoopSink discards every notification. Hub.SinkFor returns one for the
// ephemeral handle a stateless HTTP request binds the caller's token to,
// mirroring original_source's _EphemeralConnection: the binding exists
// so the registry has somewhere to point, not because anyone is
// listening synchronously.
type NoopSink struct{}

// Write implements Sink.
func (NoopSink) Write(model.Notification) {}
