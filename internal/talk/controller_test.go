package talk

import "testing"

func TestTalkCycleDefaultTwoRounds(t *testing.T) {
	c := NewController(2)
	powers := []string{"FRANCE", "GERMANY"}

	if adv := c.Process(powers); adv != NotAdvanced || c.Round != 1 || c.SubState != StateRoundOpen {
		t.Fatalf("entry tick: expected round=1 round_open, got round=%d state=%q adv=%v", c.Round, c.SubState, adv)
	}

	for _, p := range powers {
		if !c.SignalReady(p, StateRoundOpen) {
			t.Fatalf("expected signal for %s to be accepted", p)
		}
	}
	if adv := c.Process(powers); adv != NotAdvanced || c.Round != 2 || c.SubState != StateRoundOpen {
		t.Fatalf("round 2 tick: expected round=2 round_open, got round=%d state=%q", c.Round, c.SubState)
	}

	for _, p := range powers {
		c.SignalReady(p, StateRoundOpen)
	}
	if adv := c.Process(powers); adv != NotAdvanced || c.SubState != StateOrdersOpen {
		t.Fatalf("expected orders_open, got state=%q", c.SubState)
	}

	for _, p := range powers {
		c.SignalReady(p, StateOrdersOpen)
	}
	adv := c.Process(powers)
	if adv != PhaseMayAdvance {
		t.Fatal("expected final tick to signal phase may advance")
	}
	if c.SubState != StateNone || c.Round != 0 {
		t.Errorf("expected controller reset after advancing, got round=%d state=%q", c.Round, c.SubState)
	}
}

func TestSignalReadyRejectsStaleState(t *testing.T) {
	c := NewController(1)
	c.Process(nil) // -> round_open

	if c.SignalReady("FRANCE", StateOrdersOpen) {
		t.Error("expected ready-insert asserting a stale sub-state to be rejected")
	}
	if c.Ready["FRANCE"] {
		t.Error("rejected signal must not have been applied")
	}
	if !c.SignalReady("FRANCE", StateRoundOpen) {
		t.Error("expected ready-insert matching the current sub-state to succeed")
	}
}

func TestSignalReadyIdempotent(t *testing.T) {
	c := NewController(1)
	c.Process(nil)
	c.SignalReady("FRANCE", StateRoundOpen)
	c.SignalReady("FRANCE", StateRoundOpen)
	if len(c.Ready) != 1 {
		t.Errorf("expected duplicate signal to be idempotent, got %d entries", len(c.Ready))
	}
}

func TestRoundCompleteTrivialForSolitaire(t *testing.T) {
	c := NewController(2)
	c.Process(nil)
	if !c.RoundComplete(nil) {
		t.Error("expected round_complete to be trivially true with no controlled powers")
	}
}

func TestRoundCompleteFalseOutsideOpenStates(t *testing.T) {
	c := NewController(1)
	if c.RoundComplete(nil) {
		t.Error("expected round_complete false in the entry state")
	}
}

func TestHeldMessagesClearedOnPhaseExit(t *testing.T) {
	c := NewController(1)
	c.Process(nil)
	c.HoldMessage(HeldMessage{From: "FRANCE", Content: "hello"})
	c.SignalReady("FRANCE", StateRoundOpen)
	c.Process([]string{"FRANCE"}) // -> orders_open
	c.SignalReady("FRANCE", StateOrdersOpen)
	c.Process([]string{"FRANCE"}) // -> advance

	if len(c.HeldMessages) != 0 {
		t.Error("expected held messages to be cleared on phase exit")
	}
}
