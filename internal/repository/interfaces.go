// Package repository defines the storage contracts the rest of the
// module programs against; internal/repository/postgres and
// internal/repository/redis supply the concrete implementations.
package repository

import (
	"context"

	"github.com/efreeman/diplomat/internal/model"
)

// UserRepository defines durable user data operations.
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	Add(ctx context.Context, u *model.User) error
	Replace(ctx context.Context, u *model.User) error
	Remove(ctx context.Context, username string) error
}

// RevocationSet defines the revoked-token-id set backing token
// liveness checks. Ids live here rather than in the database because
// they only need to outlive the tokens they revoke.
type RevocationSet interface {
	Revoke(ctx context.Context, id string) error
	IsRevoked(ctx context.Context, id string) (bool, error)
}

// LobbyStore defines the ephemeral lobby state used while a game is
// still being formed: open lobbies keyed by code, and the token a
// player joined under.
type LobbyStore interface {
	Save(ctx context.Context, l *model.Lobby) error
	Find(ctx context.Context, code string) (*model.Lobby, error)
	Delete(ctx context.Context, code string) error
	FindByToken(ctx context.Context, token string) (*model.Lobby, error)
}
