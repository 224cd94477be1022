package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/efreeman/diplomat/internal/model"
)

const lobbyKeyPrefix = "lobby:"

// LobbyRepo stores lobbies in Redis as JSON blobs keyed by code. Unlike
// the users table, a lobby is ephemeral staging state: it either starts
// a game (and the lobby record becomes irrelevant, the engine instance
// takes over) or is abandoned, so there is no durable store for it.
type LobbyRepo struct {
	c *Client
}

// NewLobbyRepo creates a LobbyRepo over an existing Client.
func NewLobbyRepo(c *Client) *LobbyRepo {
	return &LobbyRepo{c: c}
}

func lobbyKey(code string) string { return lobbyKeyPrefix + code }

// Save upserts a lobby record.
func (r *LobbyRepo) Save(ctx context.Context, l *model.Lobby) error {
	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("marshal lobby: %w", err)
	}
	if err := r.c.rdb.Set(ctx, lobbyKey(string(l.Code)), data, 0).Err(); err != nil {
		return fmt.Errorf("save lobby: %w", err)
	}
	return nil
}

// Find looks up a lobby by code, returning (nil, nil) if none exists.
func (r *LobbyRepo) Find(ctx context.Context, code string) (*model.Lobby, error) {
	data, err := r.c.rdb.Get(ctx, lobbyKey(code)).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find lobby: %w", err)
	}
	var l model.Lobby
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("unmarshal lobby: %w", err)
	}
	return &l, nil
}

// Delete removes a lobby record.
func (r *LobbyRepo) Delete(ctx context.Context, code string) error {
	if err := r.c.rdb.Del(ctx, lobbyKey(code)).Err(); err != nil {
		return fmt.Errorf("delete lobby: %w", err)
	}
	return nil
}

// FindByToken scans open lobbies for one with a seat bound to token.
// The lobby set is small and short-lived, so a SCAN sweep is cheap
// relative to maintaining a second index that would need its own
// invalidation on every token refresh.
func (r *LobbyRepo) FindByToken(ctx context.Context, token string) (*model.Lobby, error) {
	var cursor uint64
	for {
		keys, next, err := r.c.rdb.Scan(ctx, cursor, lobbyKeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("scan lobbies: %w", err)
		}
		for _, key := range keys {
			data, err := r.c.rdb.Get(ctx, key).Bytes()
			if err != nil {
				continue
			}
			var l model.Lobby
			if err := json.Unmarshal(data, &l); err != nil {
				continue
			}
			if l.PlayerByToken(token) != nil {
				return &l, nil
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return nil, nil
}
