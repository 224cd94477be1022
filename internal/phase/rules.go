package phase

// Rules is a small, order-independent set of rule-name flags attached to
// a game (e.g. "NO_TALK", "DONT_SKIP_PHASES", "POWER_CHOICE"). It is
// shared beyond the phase clock itself — the lobby coordinator and
// engine adapter both stamp rule names onto a game at creation time —
// but the skip-policy predicates below are this package's concern.
type Rules map[string]bool

// NewRules builds a Rules set from the given names.
func NewRules(names ...string) Rules {
	r := make(Rules, len(names))
	for _, n := range names {
		r[n] = true
	}
	return r
}

// Has reports whether name is present in the set. A nil Rules behaves
// like an empty set.
func (r Rules) Has(name string) bool {
	return r != nil && r[name]
}

const (
	RuleNoTalk         = "NO_TALK"
	RuleDontSkipPhases = "DONT_SKIP_PHASES"
	RulePowerChoice    = "POWER_CHOICE"
)

// SkipsTalk reports whether every TALK phase should be skipped entirely.
func SkipsTalk(rules Rules) bool {
	return rules.Has(RuleNoTalk)
}

// AutoSkipsEmptyPhases reports whether empty RETREATS/ADJUSTMENTS phases
// should be skipped automatically. The decision of whether a given R/A
// phase is actually empty is game-state-dependent and lives with the
// engine adapter; this only reports the policy.
func AutoSkipsEmptyPhases(rules Rules) bool {
	return !rules.Has(RuleDontSkipPhases)
}
