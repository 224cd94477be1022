package handler

import (
	"errors"
	"net/http"

	"github.com/efreeman/diplomat/internal/apperr"
	"github.com/efreeman/diplomat/internal/auth"
	"github.com/efreeman/diplomat/internal/engine"
	"github.com/efreeman/diplomat/internal/lobby"
	"github.com/efreeman/diplomat/internal/model"
	"github.com/efreeman/diplomat/internal/phase"
	"github.com/efreeman/diplomat/internal/users"
	"github.com/efreeman/diplomat/internal/ws"
)

// LobbyHandler handles the short-code lobby surface: creating and
// joining a lobby by code, starting it, and — once started — the
// lobby's own view onto its engine game and order submission.
type LobbyHandler struct {
	lobbies   *lobby.Coordinator
	games     *engine.Store
	users     *users.Registry
	authority *auth.Authority
	hub       *ws.Hub
}

// NewLobbyHandler creates a LobbyHandler.
func NewLobbyHandler(lobbies *lobby.Coordinator, games *engine.Store, reg *users.Registry, authority *auth.Authority, hub *ws.Hub) *LobbyHandler {
	return &LobbyHandler{lobbies: lobbies, games: games, users: reg, authority: authority, hub: hub}
}

// Create handles POST /api/lobby/create.
func (h *LobbyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DisplayName string                `json:"display_name"`
		MapName     string                `json:"map_name"`
		Assignment  model.LobbyAssignment `json:"assignment"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, apperr.New(apperr.ValidationError, "invalid request body"))
		return
	}
	if req.DisplayName == "" || len(req.DisplayName) > maxDisplayNameLen {
		writeErr(w, apperr.New(apperr.ValidationError, "display_name is required and must be at most 20 characters"))
		return
	}
	if req.MapName == "" {
		req.MapName = "standard"
	}
	if req.Assignment == "" {
		req.Assignment = model.AssignmentRandom
	}

	ctx := r.Context()
	username, token, err := h.resolveCallerIdentity(r, req.DisplayName)
	if err != nil {
		writeErr(w, apperr.New(apperr.InternalError, "failed to mint token"))
		return
	}

	l, player, err := h.lobbies.Create(ctx, username, req.DisplayName, token, req.MapName, req.Assignment)
	if err != nil {
		writeErr(w, mapLobbyErr(err))
		return
	}
	h.users.Reattach(token, ephemeralHandle())

	writeOK(w, http.StatusCreated, map[string]any{
		"code":   l.Code,
		"token":  token,
		"player": player,
		"lobby":  l,
	})
}

// Join handles POST /api/lobby/join.
func (h *LobbyHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code        string `json:"code"`
		DisplayName string `json:"display_name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, apperr.New(apperr.ValidationError, "invalid request body"))
		return
	}
	if req.Code == "" || req.DisplayName == "" || len(req.DisplayName) > maxDisplayNameLen {
		writeErr(w, apperr.New(apperr.ValidationError, "code and display_name are required"))
		return
	}

	ctx := r.Context()
	username, token, err := h.resolveCallerIdentity(r, req.DisplayName)
	if err != nil {
		writeErr(w, apperr.New(apperr.InternalError, "failed to mint token"))
		return
	}

	l, player, err := h.lobbies.Join(ctx, req.Code, username, req.DisplayName, token)
	if err != nil {
		writeErr(w, mapLobbyErr(err))
		return
	}
	h.users.Reattach(token, ephemeralHandle())

	writeOK(w, http.StatusOK, map[string]any{
		"code":   l.Code,
		"token":  token,
		"player": player,
		"lobby":  l,
	})
}

// Get handles GET /api/lobby/{code}. No authentication required.
func (h *LobbyHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	l, err := h.lobbies.Get(r.Context(), code)
	if err != nil {
		writeErr(w, apperr.New(apperr.InternalError, "failed to look up lobby"))
		return
	}
	if l == nil {
		writeErr(w, apperr.New(apperr.NotFound, "lobby not found"))
		return
	}
	writeOK(w, http.StatusOK, map[string]any{
		"lobby":        l,
		"status":       l.Status,
		"player_count": l.PlayerCount(),
	})
}

// Start handles POST /api/lobby/{code}/start.
func (h *LobbyHandler) Start(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	ctx := r.Context()
	_, username, err := authenticate(ctx, h.users, r)
	if err != nil {
		writeErr(w, err)
		return
	}

	l, err := h.lobbies.Start(ctx, code, username)
	if err != nil {
		writeErr(w, mapLobbyErr(err))
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"lobby": l, "game_id": l.GameID})
}

// Game handles GET /api/lobby/{code}/game.
func (h *LobbyHandler) Game(w http.ResponseWriter, r *http.Request) {
	_, g, appErr := h.requireStartedGame(r)
	if appErr != nil {
		writeErr(w, appErr)
		return
	}
	writeOK(w, http.StatusOK, gameSnapshot(g))
}

// GetOrders handles GET /api/lobby/{code}/orders.
func (h *LobbyHandler) GetOrders(w http.ResponseWriter, r *http.Request) {
	l, g, appErr := h.requireStartedGame(r)
	if appErr != nil {
		writeErr(w, appErr)
		return
	}
	_, username, err := authenticate(r.Context(), h.users, r)
	if err != nil {
		writeErr(w, err)
		return
	}
	p := l.PlayerByUsername(username)
	if p == nil || p.Power == "" {
		writeErr(w, apperr.New(apperr.Forbidden, "you are not seated in this lobby's game"))
		return
	}
	writeOK(w, http.StatusOK, ordersView(g, engine.Power(p.Power)))
}

// SubmitOrders handles POST /api/lobby/{code}/orders.
func (h *LobbyHandler) SubmitOrders(w http.ResponseWriter, r *http.Request) {
	l, g, appErr := h.requireStartedGame(r)
	if appErr != nil {
		writeErr(w, appErr)
		return
	}
	_, username, err := authenticate(r.Context(), h.users, r)
	if err != nil {
		writeErr(w, err)
		return
	}
	p := l.PlayerByUsername(username)
	if p == nil || p.Power == "" {
		writeErr(w, apperr.New(apperr.Forbidden, "you are not seated in this lobby's game"))
		return
	}

	var req struct {
		Orders []string `json:"orders"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, apperr.New(apperr.ValidationError, "invalid request body"))
		return
	}

	lock := h.games.Lock(g.ID)
	lock.Lock()
	defer lock.Unlock()

	power := engine.Power(p.Power)
	valid, invalid := validateOrders(g, power, req.Orders)
	if len(invalid) > 0 {
		writeErr(w, apperr.WithDetails(apperr.ValidationError, "one or more invalid orders", map[string]any{
			"invalid_orders":        invalid,
			"valid_orders_accepted": valid,
			"hint":                  "GET /api/lobby/{code}/orders shows every legal order",
		}))
		return
	}

	g.SubmitOrders(power, valid)
	writeOK(w, http.StatusOK, map[string]any{
		"phase":             phase.Abbrev(g.Phase),
		"power":             string(power),
		"orders_submitted":  valid,
		"n_orders":          len(valid),
	})
}

// Ready handles POST /api/lobby/{code}/ready: the caller signals that
// their seated power is done negotiating for the current TALK sub-round.
func (h *LobbyHandler) Ready(w http.ResponseWriter, r *http.Request) {
	_, g, appErr := h.requireStartedGame(r)
	if appErr != nil {
		writeErr(w, appErr)
		return
	}
	_, username, err := authenticate(r.Context(), h.users, r)
	if err != nil {
		writeErr(w, err)
		return
	}

	lock := h.games.Lock(g.ID)
	lock.Lock()
	defer lock.Unlock()

	accepted, signalErr := g.SignalReady(username)
	if signalErr != nil {
		writeErr(w, apperr.New(apperr.PreconditionFailed, signalErr.Error()))
		return
	}
	writeOK(w, http.StatusOK, map[string]any{
		"accepted": accepted,
		"state":    g.Talk.SubState,
		"round":    g.Talk.Round,
	})
}

// Process handles POST /api/lobby/{code}/process (host only).
func (h *LobbyHandler) Process(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	ctx := r.Context()
	_, username, err := authenticate(ctx, h.users, r)
	if err != nil {
		writeErr(w, err)
		return
	}

	l, err := h.lobbies.Get(ctx, code)
	if err != nil {
		writeErr(w, apperr.New(apperr.InternalError, "failed to look up lobby"))
		return
	}
	if l == nil {
		writeErr(w, apperr.New(apperr.NotFound, "lobby not found"))
		return
	}
	if username != l.HostUsername {
		writeErr(w, apperr.New(apperr.Forbidden, "only the host can do that"))
		return
	}
	if l.Status != model.LobbyStarted {
		writeErr(w, apperr.New(apperr.PreconditionFailed, "lobby has not started"))
		return
	}
	g, ok := h.games.Get(l.GameID)
	if !ok {
		writeErr(w, apperr.New(apperr.InternalError, "lobby's game is missing"))
		return
	}

	lock := h.games.Lock(g.ID)
	lock.Lock()
	defer lock.Unlock()

	previous, current, kicked, err := runProcess(g, h.hub)
	if err != nil {
		writeErr(w, apperr.New(apperr.InternalError, "failed to process phase"))
		return
	}
	writeOK(w, http.StatusOK, map[string]any{
		"game_id":  g.ID,
		"phase":    phase.Abbrev(g.Phase),
		"previous": previous,
		"current":  current,
		"kicked":   kicked,
	})
}

// resolveCallerIdentity reuses the caller's own bearer token (a
// reconnecting player presenting the token they were issued on a prior
// create/join) when one is present and still valid, so a second
// create/join from the same client doesn't mint a disconnected throwaway
// identity; otherwise it mints a fresh token for a username derived from
// displayName, mirroring original_source's create_game/join_game, which
// take the caller's token as a parameter rather than minting their own.
func (h *LobbyHandler) resolveCallerIdentity(r *http.Request, displayName string) (username, token string, err error) {
	if tok, ok := auth.BearerToken(r); ok {
		if sub, verr := h.users.Subject(r.Context(), tok); verr == nil {
			return sub, tok, nil
		}
	}
	username = normalizeUsername(displayName)
	token, err = h.authority.Mint(username)
	return username, token, err
}

// requireStartedGame resolves the {code} path segment to its lobby and
// started engine game, or an appropriate apperr.
func (h *LobbyHandler) requireStartedGame(r *http.Request) (*model.Lobby, *engine.Game, error) {
	code := r.PathValue("code")
	l, err := h.lobbies.Get(r.Context(), code)
	if err != nil {
		return nil, nil, apperr.New(apperr.InternalError, "failed to look up lobby")
	}
	if l == nil {
		return nil, nil, apperr.New(apperr.NotFound, "lobby not found")
	}
	if l.Status != model.LobbyStarted {
		return nil, nil, apperr.New(apperr.PreconditionFailed, "lobby has not started")
	}
	g, ok := h.games.Get(l.GameID)
	if !ok {
		return nil, nil, apperr.New(apperr.InternalError, "lobby's game is missing")
	}
	return l, g, nil
}

// mapLobbyErr translates a lobby.Coordinator sentinel error to the
// boundary's fixed error vocabulary.
func mapLobbyErr(err error) error {
	switch {
	case errors.Is(err, lobby.ErrNotFound):
		return apperr.New(apperr.NotFound, "lobby not found")
	case errors.Is(err, lobby.ErrAlreadyStarted):
		return apperr.New(apperr.PreconditionFailed, "lobby has already started")
	case errors.Is(err, lobby.ErrFull):
		return apperr.New(apperr.Conflict, "lobby is full")
	case errors.Is(err, lobby.ErrNotHost):
		return apperr.New(apperr.Forbidden, "only the host can do that")
	case errors.Is(err, lobby.ErrNameTaken):
		return apperr.New(apperr.Conflict, "display name already taken")
	case errors.Is(err, lobby.ErrCodeExhausted):
		return apperr.New(apperr.InternalError, "could not generate a lobby code")
	default:
		return apperr.New(apperr.InternalError, "lobby operation failed")
	}
}
