package handler

import (
	"net/http"
	"strings"

	"github.com/efreeman/diplomat/internal/apperr"
	"github.com/efreeman/diplomat/internal/auth"
	"github.com/efreeman/diplomat/internal/users"
)

const maxDisplayNameLen = 20

// IdentityHandler handles the no-password identity endpoint and the
// legacy username/password login endpoint. Both mint a fresh token for
// a username derived from (or supplied directly as) a display name,
// creating the account on first use.
type IdentityHandler struct {
	users     *users.Registry
	authority *auth.Authority
}

// NewIdentityHandler creates an IdentityHandler.
func NewIdentityHandler(reg *users.Registry, authority *auth.Authority) *IdentityHandler {
	return &IdentityHandler{users: reg, authority: authority}
}

// CreateIdentity handles POST /api/auth/identity.
func (h *IdentityHandler) CreateIdentity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DisplayName string `json:"display_name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, apperr.New(apperr.ValidationError, "invalid request body"))
		return
	}
	if req.DisplayName == "" || len(req.DisplayName) > maxDisplayNameLen {
		writeErr(w, apperr.New(apperr.ValidationError, "display_name is required and must be at most 20 characters"))
		return
	}

	username := normalizeUsername(req.DisplayName)
	ctx := r.Context()
	existing, err := h.users.FindUser(ctx, username)
	if err != nil {
		writeErr(w, apperr.New(apperr.InternalError, "failed to look up user"))
		return
	}
	if existing == nil {
		hash, err := users.HashPassword(username)
		if err != nil {
			writeErr(w, apperr.New(apperr.InternalError, "failed to provision account"))
			return
		}
		if err := h.users.AddUser(ctx, username, hash, false); err != nil {
			writeErr(w, apperr.New(apperr.InternalError, "failed to create account"))
			return
		}
	}

	token, err := h.authority.Mint(username)
	if err != nil {
		writeErr(w, apperr.New(apperr.InternalError, "failed to mint token"))
		return
	}
	h.users.Reattach(token, ephemeralHandle())

	writeOK(w, http.StatusOK, map[string]any{
		"token":        token,
		"username":     username,
		"display_name": req.DisplayName,
	})
}

// Login handles POST /api/auth/login.
func (h *IdentityHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Username == "" || req.Password == "" {
		writeErr(w, apperr.New(apperr.ValidationError, `provide "username" and "password" in the JSON body`))
		return
	}

	ctx := r.Context()
	username := strings.ToLower(req.Username)
	existing, err := h.users.FindUser(ctx, username)
	if err != nil {
		writeErr(w, apperr.New(apperr.InternalError, "failed to look up user"))
		return
	}
	if existing == nil {
		hash, err := users.HashPassword(req.Password)
		if err != nil {
			writeErr(w, apperr.New(apperr.InternalError, "failed to provision account"))
			return
		}
		if err := h.users.AddUser(ctx, username, hash, false); err != nil {
			writeErr(w, apperr.New(apperr.InternalError, "failed to create account"))
			return
		}
	} else if !users.CheckPassword(existing.PasswordHash, req.Password) {
		writeErr(w, apperr.New(apperr.Unauthenticated, "wrong password"))
		return
	}

	token, err := h.authority.Mint(username)
	if err != nil {
		writeErr(w, apperr.New(apperr.InternalError, "failed to mint token"))
		return
	}
	h.users.Reattach(token, ephemeralHandle())

	writeOK(w, http.StatusOK, map[string]any{
		"token":        token,
		"username":     username,
		"display_name": username,
	})
}

// normalizeUsername derives a username from a display name per the
// boundary's fixed transform: lowercase, spaces become underscores.
func normalizeUsername(displayName string) string {
	return strings.ReplaceAll(strings.ToLower(displayName), " ", "_")
}
