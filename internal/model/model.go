// Package model holds the domain structs shared across the coordination
// core: registered users, lobbies and their players, and the notification
// envelope broadcast to connected clients.
package model

import "time"

// User is a registered account. Password hashes are opaque to this
// package; the hashing call site lives in internal/users so it can be
// swapped without touching storage.
type User struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

// LobbyStatus is the lifecycle state of a lobby.
type LobbyStatus string

const (
	LobbyWaiting LobbyStatus = "waiting"
	LobbyStarted LobbyStatus = "started"
)

// LobbyPlayer is one seat in a lobby. Token is the player's current
// bearer token; it is updated in place on reconnection rather than
// creating a duplicate seat.
type LobbyPlayer struct {
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Token       string    `json:"-"`
	Power       string    `json:"power,omitempty"`
	IsHost      bool      `json:"is_host"`
	JoinedAt    time.Time `json:"joined_at"`
}

// Lobby is a pre-game staging area addressed by a short, human-typable
// code. It owns no game rules state; once started it delegates to a
// game engine instance keyed by the lobby's code.
type LobbyCode string

// LobbyAssignment names how powers are handed out when a lobby starts.
type LobbyAssignment string

const AssignmentRandom LobbyAssignment = "random"

type Lobby struct {
	Code          LobbyCode       `json:"code"`
	MapName       string          `json:"map_name"`
	Assignment    LobbyAssignment `json:"assignment"`
	NPowers       int             `json:"n_powers"`
	Status        LobbyStatus     `json:"status"`
	Players       []LobbyPlayer   `json:"players"`
	HostUsername  string          `json:"host_username"`
	GameID        string          `json:"game_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	StartedAt     *time.Time      `json:"started_at,omitempty"`
}

// PlayerCount returns the number of seated players.
func (l *Lobby) PlayerCount() int { return len(l.Players) }

// IsFull reports whether the lobby has as many players as powers.
func (l *Lobby) IsFull() bool { return l.PlayerCount() >= l.NPowers }

// PlayerByToken returns the seat currently holding token, or nil.
func (l *Lobby) PlayerByToken(token string) *LobbyPlayer {
	for i := range l.Players {
		if l.Players[i].Token == token {
			return &l.Players[i]
		}
	}
	return nil
}

// PlayerByUsername returns the player seat for username, or nil.
func (l *Lobby) PlayerByUsername(username string) *LobbyPlayer {
	for i := range l.Players {
		if l.Players[i].Username == username {
			return &l.Players[i]
		}
	}
	return nil
}

// NotificationKind identifies what a Notification carries, replacing
// dynamic dispatch on a type string with a closed Go enum.
type NotificationKind string

const (
	NotifyPhaseAdvanced NotificationKind = "phase_advanced"
	NotifyTalkRound     NotificationKind = "talk_round"
	NotifyLobbyStarted  NotificationKind = "lobby_started"
	NotifyLobbyUpdated  NotificationKind = "lobby_updated"
	NotifyMessage       NotificationKind = "message"
)

// Notification is the sum type delivered to a Sink: a kind tag plus a
// JSON-serializable payload specific to that kind.
type Notification struct {
	Kind    NotificationKind `json:"kind"`
	Payload any              `json:"payload"`
}
