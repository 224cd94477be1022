// Package users implements the user registry and connection-binding
// layer: durable user records backed by Postgres, a Redis-backed
// revocation set, and an in-memory token↔connection-handle binding
// used to route asynchronous notifications back to the client that
// authored a mutation.
package users

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/efreeman/diplomat/internal/auth"
	"github.com/efreeman/diplomat/internal/model"
	"github.com/efreeman/diplomat/internal/repository"
)

// Registry wraps a repository.UserRepository with token verification,
// a repository.RevocationSet, and an in-memory connection binding
// between tokens and connection handles. All connection-binding state
// is lost on restart, by design — only the durable users table and
// the revocation set survive.
type Registry struct {
	repo      repository.UserRepository
	authority *auth.Authority
	revoked   repository.RevocationSet

	mu             sync.RWMutex
	tokenToHandle  map[string]string
	handleToTokens map[string]map[string]bool
}

// NewRegistry creates a Registry.
func NewRegistry(repo repository.UserRepository, authority *auth.Authority, revoked repository.RevocationSet) *Registry {
	return &Registry{
		repo:           repo,
		authority:      authority,
		revoked:        revoked,
		tokenToHandle:  map[string]string{},
		handleToTokens: map[string]map[string]bool{},
	}
}

// AddUser creates a user with the given password hash.
func (r *Registry) AddUser(ctx context.Context, username, passwordHash string, isAdmin bool) error {
	return r.repo.Add(ctx, &model.User{
		Username:     username,
		PasswordHash: passwordHash,
		IsAdmin:      isAdmin,
		CreatedAt:    time.Now().UTC(),
	})
}

// ReplaceUser overwrites an existing user's password hash and admin flag.
func (r *Registry) ReplaceUser(ctx context.Context, username, passwordHash string, isAdmin bool) error {
	return r.repo.Replace(ctx, &model.User{Username: username, PasswordHash: passwordHash, IsAdmin: isAdmin})
}

// RemoveUser deletes a user, first disconnecting and revoking every
// live token bound to it.
func (r *Registry) RemoveUser(ctx context.Context, username string) error {
	for _, token := range r.tokensForUsername(username) {
		if err := r.DisconnectToken(ctx, token); err != nil {
			return fmt.Errorf("users: revoke token during removal: %w", err)
		}
	}
	return r.repo.Remove(ctx, username)
}

// FindUser looks up a user record by username.
func (r *Registry) FindUser(ctx context.Context, username string) (*model.User, error) {
	return r.repo.FindByUsername(ctx, username)
}

// HasValidToken reports whether token's signature verifies, it has
// not expired, its id has not been revoked, and its subject still
// names a known user.
func (r *Registry) HasValidToken(ctx context.Context, token string) bool {
	claims, err := r.authority.Verify(token)
	if err != nil {
		return false
	}
	revoked, err := r.revoked.IsRevoked(ctx, claims.ID)
	if err != nil || revoked {
		return false
	}
	u, err := r.repo.FindByUsername(ctx, claims.Subject)
	return err == nil && u != nil
}

// Subject returns the username a valid token was minted for, or an
// error if the token is not currently valid.
func (r *Registry) Subject(ctx context.Context, token string) (string, error) {
	claims, err := r.authority.Verify(token)
	if err != nil {
		return "", err
	}
	if !r.HasValidToken(ctx, token) {
		return "", auth.ErrInvalid
	}
	return claims.Subject, nil
}

// Connect records a bidirectional binding between token and handle.
// Repeating the same (token, handle) pair is a no-op; binding token to
// a different handle than it currently holds is Reattach's job.
func (r *Registry) Connect(token, handle string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindLocked(token, handle)
}

// Reattach moves token's binding to newHandle atomically, detaching it
// from any prior handle first. A conflicting prior handle is dropped in
// favor of the latest attach call and the conflict is logged as a
// warning; the previous handle is returned.
func (r *Registry) Reattach(token, newHandle string) (previousHandle string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	previousHandle = r.tokenToHandle[token]
	if previousHandle != "" {
		if previousHandle != newHandle {
			log.Warn().Str("previous_handle", previousHandle).Str("handle", newHandle).Msg("token reattached to a different connection handle")
		}
		r.unbindLocked(token, previousHandle)
	}
	r.bindLocked(token, newHandle)
	return previousHandle
}

func (r *Registry) bindLocked(token, handle string) {
	r.tokenToHandle[token] = handle
	if r.handleToTokens[handle] == nil {
		r.handleToTokens[handle] = map[string]bool{}
	}
	r.handleToTokens[handle][token] = true
}

func (r *Registry) unbindLocked(token, handle string) {
	delete(r.tokenToHandle, token)
	if tokens, ok := r.handleToTokens[handle]; ok {
		delete(tokens, token)
		if len(tokens) == 0 {
			delete(r.handleToTokens, handle)
		}
	}
}

// HandleFor returns the connection handle currently bound to token, if
// any.
func (r *Registry) HandleFor(token string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.tokenToHandle[token]
	return h, ok
}

// DisconnectToken revokes token's id and removes its binding.
func (r *Registry) DisconnectToken(ctx context.Context, token string) error {
	id, err := auth.DecodeID(token)
	if err != nil {
		return fmt.Errorf("users: decode token id: %w", err)
	}
	if err := r.revoked.Revoke(ctx, id); err != nil {
		return fmt.Errorf("users: revoke token: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if handle, ok := r.tokenToHandle[token]; ok {
		r.unbindLocked(token, handle)
	}
	return nil
}

// RemoveConnection drops every token bound to handle, revoking each
// only if revokeTokens is set.
func (r *Registry) RemoveConnection(ctx context.Context, handle string, revokeTokens bool) error {
	r.mu.Lock()
	tokens := make([]string, 0, len(r.handleToTokens[handle]))
	for t := range r.handleToTokens[handle] {
		tokens = append(tokens, t)
	}
	for _, t := range tokens {
		delete(r.tokenToHandle, t)
	}
	delete(r.handleToTokens, handle)
	r.mu.Unlock()

	if !revokeTokens {
		return nil
	}
	for _, t := range tokens {
		id, err := auth.DecodeID(t)
		if err != nil {
			continue
		}
		if err := r.revoked.Revoke(ctx, id); err != nil {
			return fmt.Errorf("users: revoke token on disconnect: %w", err)
		}
	}
	return nil
}

func (r *Registry) tokensForUsername(username string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for token := range r.tokenToHandle {
		if s, err := auth.Subject(token); err == nil && s == username {
			out = append(out, token)
		}
	}
	return out
}
