package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const tokenKey contextKey = "bearer_token"

// Middleware extracts the bearer token from the Authorization header and
// stores the raw token string in the request context. It does not verify
// the token: verification requires a revocation-set lookup that only the
// user registry can perform, so authentication itself happens at the
// handler boundary via the registry, not here.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := BearerToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), tokenKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// BearerToken extracts the token from an `Authorization: Bearer <token>`
// header, reporting false if the header is absent or malformed.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// TokenFromContext extracts the bearer token stored by Middleware, or ""
// if none was present on the request.
func TokenFromContext(ctx context.Context) string {
	tok, _ := ctx.Value(tokenKey).(string)
	return tok
}

// SetTokenForTest injects a bearer token into the context for testing.
func SetTokenForTest(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}
