package engine

import (
	"encoding/json"
	"errors"
	"sort"

	"github.com/efreeman/diplomat/internal/phase"
	"github.com/efreeman/diplomat/internal/playerlog"
	"github.com/efreeman/diplomat/internal/talk"
)

// Status is a game's lifecycle state.
type Status string

const (
	StatusForming   Status = "forming"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusCanceled  Status = "canceled"
)

// GamePhaseData is a snapshot of one processed phase: its board
// position, the orders submitted during it, their adjudication
// results, and any talk messages released on its exit. It is the
// "(previous_phase_data, current_phase_data)" pair a Process call
// produces, and also the shape persisted to the per-participant log.
type GamePhaseData struct {
	Name     string              `json:"name"`
	State    *State              `json:"state"`
	Orders   map[Power][]string  `json:"orders,omitempty"`
	Results  []Result            `json:"results,omitempty"`
	Messages []talk.HeldMessage  `json:"messages,omitempty"`
}

// Game is the engine adapter: it composes the phase clock
// (internal/phase) and the talk-round controller (internal/talk) with
// a concrete board (State), and owns a game's role membership and
// processing lifecycle. It is the only thing the rest of the module
// touches — callers never reach into phase, talk, or State directly.
type Game struct {
	ID      string      `json:"id"`
	MapName string      `json:"map_name"`
	Rules   phase.Rules `json:"rules"`
	Status  Status      `json:"status"`

	Phase phase.Phase    `json:"phase"`
	State *State         `json:"state"`
	Talk  *talk.Controller `json:"talk"`

	// Controlled maps a power to the username currently controlling it;
	// a power with no entry (or an empty string) is a dummy.
	Controlled map[Power]string `json:"controlled"`
	Observers  map[string]bool  `json:"observers"`
	Omniscient map[string]bool  `json:"omniscient"`

	PendingOrders map[Power][]string `json:"pending_orders"`

	log *playerlog.Store
}

// NewGame creates a game in StatusForming, positioned at the start of
// 1901 (TALK unless rules carries NO_TALK), on the standard initial
// board.
func NewGame(id, mapName string, rules phase.Rules, numTalkRounds int, log *playerlog.Store) *Game {
	return &Game{
		ID:            id,
		MapName:       mapName,
		Rules:         rules,
		Status:        StatusForming,
		Phase:         phase.Start(1901, phase.SkipsTalk(rules)),
		State:         NewInitialState(),
		Talk:          talk.NewController(numTalkRounds),
		Controlled:    map[Power]string{},
		Observers:     map[string]bool{},
		Omniscient:    map[string]bool{},
		PendingOrders: map[Power][]string{},
		log:           log,
	}
}

// Activate transitions a forming game to active, the only state in
// which Process does anything.
func (g *Game) Activate() { g.Status = StatusActive }

// AssignPower binds power to username (empty username makes it a
// dummy again).
func (g *Game) AssignPower(power Power, username string) { g.Controlled[power] = username }

// IsControlledBy reports whether username currently controls power.
func (g *Game) IsControlledBy(power Power, username string) bool {
	return username != "" && g.Controlled[power] == username
}

// AddObserverToken grants username read access to public phase data.
func (g *Game) AddObserverToken(username string) { g.Observers[username] = true }

// HasObserverToken reports observer membership.
func (g *Game) HasObserverToken(username string) bool { return g.Observers[username] }

// AddOmniscientToken grants username unfiltered read access.
func (g *Game) AddOmniscientToken(username string) { g.Omniscient[username] = true }

// HasOmniscientToken reports omniscient membership.
func (g *Game) HasOmniscientToken(username string) bool { return g.Omniscient[username] }

// RemoveObserverToken revokes username's observer access.
func (g *Game) RemoveObserverToken(username string) { delete(g.Observers, username) }

// RemoveOmniscientToken revokes username's omniscient access.
func (g *Game) RemoveOmniscientToken(username string) { delete(g.Omniscient, username) }

// GetCurrentPhase returns the phase the game is currently in.
func (g *Game) GetCurrentPhase() phase.Phase { return g.Phase }

// GetUnits returns a copy of every unit on the board.
func (g *Game) GetUnits() []Unit { return append([]Unit(nil), g.State.Units...) }

// GetCenters returns a copy of the supply-center ownership map.
func (g *Game) GetCenters() map[string]Power {
	out := make(map[string]Power, len(g.State.Centers))
	for k, v := range g.State.Centers {
		out[k] = v
	}
	return out
}

// GetOrderableLocations delegates to the package-level rules helper
// for the game's current phase type.
func (g *Game) GetOrderableLocations(power Power) []string {
	return GetOrderableLocations(g.State, g.Phase.Type, power)
}

// GetAllPossibleOrders delegates to the package-level rules helper for
// the game's current phase type.
func (g *Game) GetAllPossibleOrders(power Power) map[string][]string {
	return GetAllPossibleOrders(g.State, g.Phase.Type, power)
}

// SubmitOrders stages power's orders for the next Process call,
// replacing any previously staged set. Callers are expected to have
// already run ValidateOrders.
func (g *Game) SubmitOrders(power Power, orders []string) {
	if g.PendingOrders == nil {
		g.PendingOrders = map[Power][]string{}
	}
	g.PendingOrders[power] = append([]string(nil), orders...)
}

// SignalReady inserts username's controlled power into the current
// TALK sub-state's ready set, per component F's contract ("a mutating
// operation issued via F inserts a power name into talk_ready for the
// current sub-state"). It fails if the caller controls no power or the
// game is not currently in a TALK phase.
func (g *Game) SignalReady(username string) (bool, error) {
	if g.Phase.Type != phase.Talk {
		return false, errors.New("engine: not in a talk phase")
	}
	power, ok := g.powerOf(username)
	if !ok {
		return false, errors.New("engine: caller does not control a power in this game")
	}
	return g.Talk.SignalReady(string(power), g.Talk.SubState), nil
}

func (g *Game) ordersSlice() []Order {
	var out []Order
	for power, strs := range g.PendingOrders {
		for _, s := range strs {
			if o, err := ParseOrder(power, s); err == nil {
				out = append(out, o)
			}
		}
	}
	return out
}

func (g *Game) controlledNames() []string {
	var out []string
	for p, username := range g.Controlled {
		if username == "" || g.State.IsEliminated(p) {
			continue
		}
		out = append(out, string(p))
	}
	sort.Strings(out)
	return out
}

func (g *Game) hasOrderableAdjustments() bool {
	for _, p := range AllPowers() {
		if p == Dummy {
			continue
		}
		if g.State.CenterCount(p)-len(g.State.UnitsOf(p)) != 0 {
			return true
		}
	}
	return false
}

func (g *Game) advancePhase() {
	for {
		g.Phase = phase.Next(g.Phase, nil)
		if g.Phase.Type == phase.Talk && phase.SkipsTalk(g.Rules) {
			continue
		}
		if !phase.AutoSkipsEmptyPhases(g.Rules) {
			return
		}
		switch g.Phase.Type {
		case phase.Retreats:
			if len(g.State.Dislodged) > 0 {
				return
			}
		case phase.Adjustments:
			if g.hasOrderableAdjustments() {
				return
			}
		default:
			return
		}
	}
}

// Process runs one external tick per component F's contract: during a
// TALK phase (unless NO_TALK) it delegates to the talk controller and
// returns a null triple if the tick was consumed without advancing;
// otherwise it resolves the current phase with the board resolver,
// applies the skip policy for empty RETREATS/ADJUSTMENTS phases, and
// appends a filtered projection of the completed phase to every
// participant's log. Process on a non-active game is a no-op.
func (g *Game) Process() (previous, current *GamePhaseData, kicked []Power, err error) {
	if g.Status != StatusActive {
		return nil, nil, nil, nil
	}

	// Captured before the talk controller resets on leaving TALK.
	heldMessages := g.Talk.HeldMessages
	if g.Phase.Type == phase.Talk && !phase.SkipsTalk(g.Rules) {
		if !bool(g.Talk.Process(g.controlledNames())) {
			return nil, nil, nil, nil
		}
	}

	oldPhase := g.Phase
	oldState := g.State.Clone()
	oldOrders := make(map[Power][]string, len(g.PendingOrders))
	for p, o := range g.PendingOrders {
		oldOrders[p] = append([]string(nil), o...)
	}

	var results []Result
	switch oldPhase.Type {
	case phase.Movement:
		next, r, _ := ResolveMovement(g.State, g.ordersSlice())
		g.State = next
		results = r
	case phase.Retreats:
		next, r, k := ResolveRetreats(g.State, g.ordersSlice())
		g.State = next
		results = r
		kicked = k
	case phase.Adjustments:
		next, r := ResolveBuilds(g.State, g.ordersSlice())
		g.State = next
		results = r
	case phase.Talk:
		// NO_TALK games pass straight through a TALK phase with
		// nothing to adjudicate.
	}

	g.Talk.HeldMessages = nil
	g.PendingOrders = map[Power][]string{}

	g.advancePhase()
	if g.Status == StatusActive && g.allEliminatedButOne() {
		g.Status = StatusCompleted
	}

	previous = &GamePhaseData{
		Name:     phase.Abbrev(oldPhase),
		State:    oldState,
		Orders:   oldOrders,
		Results:  results,
		Messages: append([]talk.HeldMessage(nil), heldMessages...),
	}
	current = &GamePhaseData{Name: phase.Abbrev(g.Phase), State: g.State.Clone()}

	err = g.appendHistory(previous)
	return previous, current, kicked, err
}

func (g *Game) allEliminatedButOne() bool {
	alive := 0
	for _, p := range AllPowers() {
		if p == Dummy {
			continue
		}
		if !g.State.IsEliminated(p) {
			alive++
		}
	}
	return alive <= 1
}

func (g *Game) powerOf(username string) (Power, bool) {
	for p, u := range g.Controlled {
		if u == username {
			return p, true
		}
	}
	return "", false
}

// projectFor filters data to what username is permitted to see:
// omniscients (including admins granted the role) get the unfiltered
// snapshot; everyone else loses held messages not addressed to them,
// broadcast, or authored by them.
func (g *Game) projectFor(username string, data *GamePhaseData) *GamePhaseData {
	if g.Omniscient[username] {
		return data
	}
	power, _ := g.powerOf(username)
	filtered := make([]talk.HeldMessage, 0, len(data.Messages))
	for _, m := range data.Messages {
		if m.To == "" || m.To == string(power) || m.From == string(power) {
			filtered = append(filtered, m)
		}
	}
	return &GamePhaseData{
		Name:     data.Name,
		State:    data.State,
		Orders:   data.Orders,
		Results:  data.Results,
		Messages: filtered,
	}
}

// appendHistory writes a per-participant projection of a completed
// phase to the log store, once per controlled power, observer, and
// omniscient (a username in more than one role is only logged once).
func (g *Game) appendHistory(data *GamePhaseData) error {
	if g.log == nil {
		return nil
	}
	var errs []error
	seen := map[string]bool{}
	write := func(username string) {
		if username == "" || seen[username] {
			return
		}
		seen[username] = true
		if err := g.log.Append(username, g.ID, g.projectFor(username, data)); err != nil {
			errs = append(errs, err)
		}
	}
	for _, username := range g.Controlled {
		write(username)
	}
	for username := range g.Observers {
		write(username)
	}
	for username := range g.Omniscient {
		write(username)
	}
	return errors.Join(errs...)
}

// GetPhaseHistory returns username's logged phase entries whose phase
// falls within [from, to] inclusive (a nil bound is unbounded),
// already filtered to what that participant was permitted to see at
// append time.
func (g *Game) GetPhaseHistory(username string, from, to *phase.Phase) ([]*GamePhaseData, error) {
	raw, err := g.log.Read(username, g.ID, 0, 0)
	if err != nil {
		return nil, err
	}
	out := make([]*GamePhaseData, 0, len(raw))
	for _, line := range raw {
		var entry GamePhaseData
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, err
		}
		p, err := phase.ParseAbbrev(entry.Name)
		if err != nil {
			return nil, err
		}
		if from != nil && phase.Compare(p, *from) < 0 {
			continue
		}
		if to != nil && phase.Compare(p, *to) > 0 {
			continue
		}
		out = append(out, &entry)
	}
	return out, nil
}
