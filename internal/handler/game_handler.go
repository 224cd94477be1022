package handler

import (
	"net/http"

	"github.com/efreeman/diplomat/internal/apperr"
	"github.com/efreeman/diplomat/internal/engine"
	"github.com/efreeman/diplomat/internal/phase"
	"github.com/efreeman/diplomat/internal/playerlog"
	"github.com/efreeman/diplomat/internal/users"
	"github.com/efreeman/diplomat/internal/ws"
)

// GameHandler handles the admin-oriented direct game API: creating and
// listing games outside the lobby flow, joining/leaving as an
// observer or a specific power, order submission, force-processing,
// and reading a participant's own phase history.
type GameHandler struct {
	games *engine.Store
	users *users.Registry
	log   *playerlog.Store
	hub   *ws.Hub

	numTalkRounds int
}

// NewGameHandler creates a GameHandler.
func NewGameHandler(games *engine.Store, reg *users.Registry, log *playerlog.Store, hub *ws.Hub, numTalkRounds int) *GameHandler {
	return &GameHandler{games: games, users: reg, log: log, hub: hub, numTalkRounds: numTalkRounds}
}

// List handles GET /api/games.
func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, _, err := authenticate(r.Context(), h.users, r); err != nil {
		writeErr(w, err)
		return
	}

	var out []map[string]any
	for _, g := range h.games.List() {
		out = append(out, map[string]any{
			"game_id":  g.ID,
			"phase":    phase.Abbrev(g.Phase),
			"status":   g.Status,
			"map_name": g.MapName,
			"rules":    g.Rules,
		})
	}
	writeOK(w, http.StatusOK, map[string]any{"games": out})
}

// Create handles POST /api/games.
func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	if _, _, err := authenticate(r.Context(), h.users, r); err != nil {
		writeErr(w, err)
		return
	}

	var req struct {
		GameID  string   `json:"game_id"`
		MapName string   `json:"map_name"`
		Rules   []string `json:"rules"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, apperr.New(apperr.ValidationError, "invalid request body"))
		return
	}
	if req.GameID == "" {
		writeErr(w, apperr.New(apperr.ValidationError, `provide "game_id"`))
		return
	}
	if req.MapName == "" {
		req.MapName = "standard"
	}
	if len(req.Rules) == 0 {
		req.Rules = []string{phase.RulePowerChoice}
	}

	rules := phase.NewRules(req.Rules...)
	game := engine.NewGame(req.GameID, req.MapName, rules, h.numTalkRounds, h.log)
	if !h.games.Create(game) {
		writeErr(w, apperr.New(apperr.Conflict, "a game with this id already exists"))
		return
	}
	game.Activate()

	writeOK(w, http.StatusCreated, map[string]any{
		"game_id": req.GameID,
		"message": `game "` + req.GameID + `" created`,
	})
}

// Get handles GET /api/games/{id}.
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	_, username, err := authenticate(r.Context(), h.users, r)
	if err != nil {
		writeErr(w, err)
		return
	}
	g, appErr := h.requireGame(r)
	if appErr != nil {
		writeErr(w, appErr)
		return
	}
	h.grantOmniscientIfAdmin(r, g, username)
	writeOK(w, http.StatusOK, gameSnapshot(g))
}

// Delete handles DELETE /api/games/{id} (admin only).
func (h *GameHandler) Delete(w http.ResponseWriter, r *http.Request) {
	_, username, err := authenticate(r.Context(), h.users, r)
	if err != nil {
		writeErr(w, err)
		return
	}
	if _, appErr := h.requireGame(r); appErr != nil {
		writeErr(w, appErr)
		return
	}
	if !h.isAdmin(r, username) {
		writeErr(w, apperr.New(apperr.Forbidden, "only administrators can delete games"))
		return
	}

	id := r.PathValue("id")
	h.games.Delete(id)
	writeOK(w, http.StatusOK, map[string]any{"message": `game "` + id + `" deleted`})
}

// Join handles POST /api/games/{id}/join. A request naming a power
// claims that seat if it is free and fails with a conflict if another
// player holds it; a request naming no power seats the caller as an
// observer.
func (h *GameHandler) Join(w http.ResponseWriter, r *http.Request) {
	_, username, err := authenticate(r.Context(), h.users, r)
	if err != nil {
		writeErr(w, err)
		return
	}
	g, appErr := h.requireGame(r)
	if appErr != nil {
		writeErr(w, appErr)
		return
	}

	var req struct {
		Power string `json:"power"`
	}
	_ = decodeJSON(r, &req)

	role := "observer"
	lock := h.games.Lock(g.ID)
	lock.Lock()
	defer lock.Unlock()
	if req.Power != "" {
		power := engine.Power(req.Power)
		if !isValidPower(power) {
			writeErr(w, apperr.New(apperr.ValidationError, `"`+req.Power+`" is not a valid power`))
			return
		}
		if existing := g.Controlled[power]; existing != "" && existing != username {
			writeErr(w, apperr.New(apperr.Conflict, "power is already controlled by another player"))
			return
		}
		g.AssignPower(power, username)
		role = req.Power
	} else {
		g.AddObserverToken(username)
	}

	writeOK(w, http.StatusOK, map[string]any{
		"game_id": g.ID,
		"role":    role,
		"message": "joined game as " + role,
	})
}

// Leave handles POST /api/games/{id}/leave, revoking whichever role
// the caller currently holds — controlled power, observer, or
// omniscient.
func (h *GameHandler) Leave(w http.ResponseWriter, r *http.Request) {
	_, username, err := authenticate(r.Context(), h.users, r)
	if err != nil {
		writeErr(w, err)
		return
	}
	g, appErr := h.requireGame(r)
	if appErr != nil {
		writeErr(w, appErr)
		return
	}

	lock := h.games.Lock(g.ID)
	lock.Lock()
	defer lock.Unlock()

	switch {
	case g.HasOmniscientToken(username):
		g.RemoveOmniscientToken(username)
	case g.HasObserverToken(username):
		g.RemoveObserverToken(username)
	default:
		left := false
		for _, p := range engine.AllPowers() {
			if g.IsControlledBy(p, username) {
				g.AssignPower(p, "")
				left = true
				break
			}
		}
		if !left {
			writeErr(w, apperr.New(apperr.ValidationError, "you are not in this game"))
			return
		}
	}

	writeOK(w, http.StatusOK, map[string]any{"message": `left game "` + g.ID + `"`})
}

// GetOrders handles GET /api/games/{id}/orders?power=FRANCE.
func (h *GameHandler) GetOrders(w http.ResponseWriter, r *http.Request) {
	if _, _, err := authenticate(r.Context(), h.users, r); err != nil {
		writeErr(w, err)
		return
	}
	g, appErr := h.requireGame(r)
	if appErr != nil {
		writeErr(w, appErr)
		return
	}

	powerName := r.URL.Query().Get("power")
	if powerName == "" {
		writeErr(w, apperr.New(apperr.ValidationError, "provide ?power=FRANCE query parameter"))
		return
	}
	power := engine.Power(powerName)
	if !isValidPower(power) {
		writeErr(w, apperr.New(apperr.ValidationError, `"`+powerName+`" is not a valid power`))
		return
	}
	writeOK(w, http.StatusOK, ordersView(g, power))
}

// SubmitOrders handles POST /api/games/{id}/orders.
func (h *GameHandler) SubmitOrders(w http.ResponseWriter, r *http.Request) {
	_, username, err := authenticate(r.Context(), h.users, r)
	if err != nil {
		writeErr(w, err)
		return
	}
	g, appErr := h.requireGame(r)
	if appErr != nil {
		writeErr(w, appErr)
		return
	}

	var req struct {
		Power  string   `json:"power"`
		Orders []string `json:"orders"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, apperr.New(apperr.ValidationError, "invalid request body"))
		return
	}
	if req.Power == "" {
		writeErr(w, apperr.New(apperr.ValidationError, `provide "power" in the JSON body`))
		return
	}
	power := engine.Power(req.Power)
	if !isValidPower(power) {
		writeErr(w, apperr.New(apperr.ValidationError, `"`+req.Power+`" is not a valid power`))
		return
	}
	if !g.IsControlledBy(power, username) && !h.isAdmin(r, username) {
		writeErr(w, apperr.New(apperr.Forbidden, "you do not control "+req.Power))
		return
	}

	lock := h.games.Lock(g.ID)
	lock.Lock()
	defer lock.Unlock()

	valid, invalid := validateOrders(g, power, req.Orders)
	if len(invalid) > 0 {
		writeErr(w, apperr.WithDetails(apperr.ValidationError, "one or more invalid orders", map[string]any{
			"invalid_orders":        invalid,
			"valid_orders_accepted": valid,
			"hint":                  "GET /api/games/{id}/orders?power=X shows every legal order",
		}))
		return
	}

	g.SubmitOrders(power, valid)
	writeOK(w, http.StatusOK, map[string]any{
		"game_id":          g.ID,
		"phase":            phase.Abbrev(g.Phase),
		"power":            string(power),
		"orders_submitted": valid,
		"n_orders":         len(valid),
	})
}

// Ready handles POST /api/games/{id}/ready: the caller signals that
// their power is done negotiating for the current TALK sub-round.
func (h *GameHandler) Ready(w http.ResponseWriter, r *http.Request) {
	_, username, err := authenticate(r.Context(), h.users, r)
	if err != nil {
		writeErr(w, err)
		return
	}
	g, appErr := h.requireGame(r)
	if appErr != nil {
		writeErr(w, appErr)
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
		"game_id":  g.ID,
		"accepted": accepted,
		"state":    g.Talk.SubState,
		"round":    g.Talk.Round,
	})
}

// Process handles POST /api/games/{id}/process (admin only).
func (h *GameHandler) Process(w http.ResponseWriter, r *http.Request) {
	_, username, err := authenticate(r.Context(), h.users, r)
	if err != nil {
		writeErr(w, err)
		return
	}
	g, appErr := h.requireGame(r)
	if appErr != nil {
		writeErr(w, appErr)
		return
	}
	if !h.isAdmin(r, username) {
		writeErr(w, apperr.New(apperr.Forbidden, "only administrators can force-process"))
		return
	}
	h.grantOmniscientIfAdmin(r, g, username)

	lock := h.games.Lock(g.ID)
	lock.Lock()
	defer lock.Unlock()

	previous, current, kicked, procErr := runProcess(g, h.hub)
	if procErr != nil {
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

// History handles GET /api/games/{id}/history.
func (h *GameHandler) History(w http.ResponseWriter, r *http.Request) {
	_, username, err := authenticate(r.Context(), h.users, r)
	if err != nil {
		writeErr(w, err)
		return
	}
	g, appErr := h.requireGame(r)
	if appErr != nil {
		writeErr(w, appErr)
		return
	}
	h.grantOmniscientIfAdmin(r, g, username)

	var from, to *phase.Phase
	if s := r.URL.Query().Get("from"); s != "" {
		if p, perr := phase.ParseAbbrev(s); perr == nil {
			from = &p
		}
	}
	if s := r.URL.Query().Get("to"); s != "" {
		if p, perr := phase.ParseAbbrev(s); perr == nil {
			to = &p
		}
	}

	entries, err := g.GetPhaseHistory(username, from, to)
	if err != nil {
		writeErr(w, apperr.New(apperr.InternalError, "failed to read phase history"))
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"game_id": g.ID, "history": entries})
}

func (h *GameHandler) requireGame(r *http.Request) (*engine.Game, error) {
	id := r.PathValue("id")
	g, ok := h.games.Get(id)
	if !ok {
		return nil, apperr.New(apperr.NotFound, `game "`+id+`" not found`)
	}
	return g, nil
}

func (h *GameHandler) isAdmin(r *http.Request, username string) bool {
	u, err := h.users.FindUser(r.Context(), username)
	return err == nil && u != nil && u.IsAdmin
}

// grantOmniscientIfAdmin realizes "is_admin(user) => may act with
// OMNISCIENT on any game": an administrator reading or force-processing
// a game is granted the role the first time they touch it, rather than
// requiring a separate grant step.
func (h *GameHandler) grantOmniscientIfAdmin(r *http.Request, g *engine.Game, username string) {
	if !g.HasOmniscientToken(username) && h.isAdmin(r, username) {
		g.AddOmniscientToken(username)
	}
}

func isValidPower(p engine.Power) bool {
	for _, candidate := range engine.AllPowers() {
		if candidate == p {
			return true
		}
	}
	return false
}
