// Package talk implements the bounded-negotiation sub-state machine that
// runs inside every TALK phase: a fixed number of negotiation rounds,
// gated by an explicit per-power ready signal, followed by an
// orders-open round before the phase clock is allowed to advance.
package talk

// State is the talk sub-phase's current sub-state.
type State string

const (
	// StateNone is the state immediately on entry to a TALK phase,
	// before the first process() call has opened a round.
	StateNone State = ""
	// StateRoundOpen is an active negotiation round awaiting ready
	// signals.
	StateRoundOpen State = "round_open"
	// StateRoundClosed is reserved for a future multi-tick round close
	// (see RoundComplete); not currently emitted by Process.
	StateRoundClosed State = "round_closed"
	// StateOrdersOpen is the final sub-state before the phase clock
	// advances past TALK.
	StateOrdersOpen State = "orders_open"
)

// HeldMessage is an inter-power message held during TALK rather than
// delivered immediately, so its release can coincide with round
// advancement. internal/engine decides delivery-and-filtering policy;
// this package only owns the held queue's lifecycle.
type HeldMessage struct {
	From    string `json:"from"`
	To      string `json:"to,omitempty"` // empty means broadcast to all powers
	Content string `json:"content"`
}

// Controller is the talk-round sub-state for one game. Zero value is
// ready to use (entry state of a fresh TALK phase).
type Controller struct {
	Round        int             `json:"talk_round"`
	SubState     State           `json:"talk_round_state"`
	Ready        map[string]bool `json:"talk_ready"`
	HeldMessages []HeldMessage   `json:"talk_held_messages"`
	NumRounds    int             `json:"talk_num_rounds"`
}

// NewController creates a Controller with the given number of
// negotiation rounds (must be ≥ 1).
func NewController(numRounds int) *Controller {
	if numRounds < 1 {
		numRounds = 1
	}
	return &Controller{NumRounds: numRounds, Ready: map[string]bool{}}
}

// Reset returns the controller to its entry state, as happens whenever
// a game newly enters a TALK phase.
func (c *Controller) Reset() {
	c.Round = 0
	c.SubState = StateNone
	c.Ready = map[string]bool{}
	c.HeldMessages = nil
}

// SignalReady marks power as ready in the current sub-state. asOfState
// is the sub-state the caller observed when it decided to signal; if it
// no longer matches the controller's current sub-state the signal is
// rejected rather than silently applied to the new state — this is the
// fix for the ready-signal/process-tick race called out in the design
// notes. Duplicate signals for an already-ready power are idempotent.
func (c *Controller) SignalReady(power string, asOfState State) bool {
	if c.SubState != asOfState {
		return false
	}
	if c.Ready == nil {
		c.Ready = map[string]bool{}
	}
	c.Ready[power] = true
	return true
}

// HoldMessage appends a message to the held queue.
func (c *Controller) HoldMessage(m HeldMessage) {
	c.HeldMessages = append(c.HeldMessages, m)
}

// RoundComplete reports whether every power in controlled (the
// non-eliminated, human-controlled powers the engine adapter
// considers live) has signalled ready in the current sub-state. It is
// only meaningful while SubState is round_open or orders_open; outside
// those sub-states it returns false. An empty controlled set (solitaire
// game) is trivially complete.
func (c *Controller) RoundComplete(controlled []string) bool {
	if c.SubState != StateRoundOpen && c.SubState != StateOrdersOpen {
		return false
	}
	for _, p := range controlled {
		if !c.Ready[p] {
			return false
		}
	}
	return true
}

// Advanced is what a single Process tick yields: whether the TALK
// sub-machine consumed the tick without letting the phase clock move,
// or whether it signalled that the phase clock may now advance past
// TALK.
type Advanced bool

const (
	NotAdvanced Advanced = false
	PhaseMayAdvance Advanced = true
)

// Process runs one external tick of the talk sub-state machine, per the
// transition table in component F's contract:
//
//	entry            -> round=1, round_open, ready={}
//	round_open+done   -> next round (round_open) or orders_open
//	orders_open+done  -> signal the phase clock may advance; controller
//	                     resets to entry state for the next TALK phase
//
// controlled is recomputed by the caller on every tick (it can change as
// powers are eliminated).
func (c *Controller) Process(controlled []string) Advanced {
	switch c.SubState {
	case StateNone:
		c.Round = 1
		c.SubState = StateRoundOpen
		c.Ready = map[string]bool{}
		return NotAdvanced

	case StateRoundOpen:
		if !c.RoundComplete(controlled) {
			return NotAdvanced
		}
		if c.Round < c.NumRounds {
			c.Round++
			c.SubState = StateRoundOpen
			c.Ready = map[string]bool{}
		} else {
			c.SubState = StateOrdersOpen
			c.Ready = map[string]bool{}
		}
		return NotAdvanced

	case StateOrdersOpen:
		if !c.RoundComplete(controlled) {
			return NotAdvanced
		}
		c.Reset()
		return PhaseMayAdvance

	default:
		// StateRoundClosed is unreachable from Process today; treat
		// defensively as if entering fresh.
		c.Reset()
		return NotAdvanced
	}
}
