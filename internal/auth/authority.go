// Package auth mints and verifies the bearer tokens that stand in for a
// session in the coordination core. A token carries no authorization
// state of its own beyond a subject and a unique id; authorization (is
// this subject still registered, has this id been revoked) is the user
// registry's job.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalid is returned for a malformed token or one with a bad signature.
	ErrInvalid = errors.New("auth: invalid token")
	// ErrExpired is returned for a well-formed, well-signed token past its exp.
	ErrExpired = errors.New("auth: expired token")
)

// Claims is the payload of a minted token: sub identifies the subject
// (a username), jti is a unique id used only as a revocation-set lookup
// key, never as an authorization decision in its own right.
type Claims struct {
	jwt.RegisteredClaims
}

// Authority mints and verifies tokens for a single HMAC secret.
type Authority struct {
	secret []byte
	ttl    time.Duration
}

// NewAuthority creates an Authority signing with secret and minting tokens
// that expire after ttl.
func NewAuthority(secret string, ttl time.Duration) *Authority {
	return &Authority{secret: []byte(secret), ttl: ttl}
}

// Mint creates a signed token for subject with a fresh jti.
func (a *Authority) Mint(subject string) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			ID:        newJTI(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// Verify validates signature and expiry and returns the claims. It never
// consults the revocation set; callers combine Verify with a registry
// lookup on the returned ID to decide whether the token is still live.
func (a *Authority) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalid
		}
		return a.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalid
	}
	return claims, nil
}

// DecodeID extracts the jti from tokenStr without verifying its signature.
// It exists purely so a revoked or otherwise untrusted token can still be
// looked up in the revocation set; it must never be treated as proof the
// token is authentic.
func DecodeID(tokenStr string) (string, error) {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(tokenStr, &Claims{})
	if err != nil {
		return "", ErrInvalid
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || claims.ID == "" {
		return "", ErrInvalid
	}
	return claims.ID, nil
}

// Subject extracts the subject from tokenStr without verifying its
// signature, for the same lookup-only purpose as DecodeID.
func Subject(tokenStr string) (string, error) {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(tokenStr, &Claims{})
	if err != nil {
		return "", ErrInvalid
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalid
	}
	return claims.Subject, nil
}
