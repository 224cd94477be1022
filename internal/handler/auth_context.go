package handler

import (
	"context"
	"net/http"

	"github.com/efreeman/diplomat/internal/apperr"
	"github.com/efreeman/diplomat/internal/auth"
	"github.com/efreeman/diplomat/internal/users"
)

// authenticate extracts the bearer token from r and resolves it to a
// subject username through reg, returning an Unauthenticated error if
// the header is missing, malformed, or the token is no longer valid.
func authenticate(ctx context.Context, reg *users.Registry, r *http.Request) (token, username string, err error) {
	token, ok := auth.BearerToken(r)
	if !ok {
		return "", "", apperr.New(apperr.Unauthenticated, "missing bearer token")
	}
	username, verr := reg.Subject(ctx, token)
	if verr != nil {
		return "", "", apperr.New(apperr.Unauthenticated, "invalid or expired token")
	}
	return token, username, nil
}
