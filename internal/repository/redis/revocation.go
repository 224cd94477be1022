package redis

import (
	"context"
	"fmt"
)

const revokedSetKey = "revoked_tokens"

// RevocationStore is a Redis-backed set of revoked token ids.
type RevocationStore struct {
	c *Client
}

// NewRevocationStore creates a RevocationStore over an existing Client.
func NewRevocationStore(c *Client) *RevocationStore {
	return &RevocationStore{c: c}
}

// Revoke adds id to the revoked set. Revocation has no expiry: a
// token's own exp claim is what eventually makes the entry moot, but
// we never rely on that to decide liveness, so the set is never
// proactively trimmed.
func (s *RevocationStore) Revoke(ctx context.Context, id string) error {
	if err := s.c.rdb.SAdd(ctx, revokedSetKey, id).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether id is in the revoked set.
func (s *RevocationStore) IsRevoked(ctx context.Context, id string) (bool, error) {
	revoked, err := s.c.rdb.SIsMember(ctx, revokedSetKey, id).Result()
	if err != nil {
		return false, fmt.Errorf("check revocation: %w", err)
	}
	return revoked, nil
}
