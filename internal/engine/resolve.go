package engine

// Result records the outcome of adjudicating one order.
type Result struct {
	Order   Order  `json:"order"`
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
}

type action struct {
	loc  string
	dest string // "" means hold-in-place
}

// ResolveMovement adjudicates one MOVEMENT phase. It implements hold,
// move, and support (with support-cut and head-to-head bounce) against
// the reduced map; convoys are accepted by the parser but never provide
// a route (the reduced map has no province reachable only by convoy),
// so a submitted convoy order simply has no effect beyond occupying its
// own square — documented as a non-goal, not a bug.
//
// This is a deliberately simplified adjudicator, not a DATC-compliant
// one: support-cut has none of the attack-on-the-attacker exceptions
// the full rules define, and there is no multi-unit circular-movement
// resolution. It is enough to exercise hold, move, support, and
// dislodgement across the scenarios this module targets.
func ResolveMovement(state *State, orders []Order) (*State, []Result, map[string]DislodgedUnit) {
	ordersByLoc := map[string]Order{}
	for _, u := range state.Units {
		ordersByLoc[u.Province] = Order{Power: u.Power, Unit: u.Type, Location: u.Province, Type: Hold}
	}
	var submitted []Order
	for _, o := range orders {
		if o.Type == Waive {
			continue
		}
		ordersByLoc[o.Location] = o
		submitted = append(submitted, o)
	}
	all := make([]Order, 0, len(ordersByLoc))
	for _, o := range ordersByLoc {
		all = append(all, o)
	}

	supports := map[action]int{}
	for _, o := range all {
		if o.Type != Support {
			continue
		}
		supported, ok := ordersByLoc[o.AuxLoc]
		if !ok {
			continue
		}
		var matches bool
		if o.AuxDest == "" {
			matches = supported.Type != Move
		} else {
			matches = supported.Type == Move && supported.Target == o.AuxDest
		}
		if !matches {
			continue
		}
		cut := false
		for _, attacker := range all {
			if attacker.Location == o.Location {
				continue
			}
			if attacker.Type == Move && attacker.Target == o.Location {
				cut = true
				break
			}
		}
		if cut {
			continue
		}
		supports[action{loc: o.AuxLoc, dest: o.AuxDest}]++
	}

	strength := func(o Order) int {
		dest := ""
		if o.Type == Move {
			dest = o.Target
		}
		return 1 + supports[action{loc: o.Location, dest: dest}]
	}

	results := map[string]*Result{}
	for loc, o := range ordersByLoc {
		results[loc] = &Result{Order: o, Success: o.Type != Move}
	}

	// Head-to-head: two units directly swapping squares bounce unless
	// one strictly outmuscles the other.
	headToHead := map[string]bool{}
	for _, o := range all {
		if o.Type != Move {
			continue
		}
		other, ok := ordersByLoc[o.Target]
		if !ok || other.Type != Move || other.Target != o.Location {
			continue
		}
		headToHead[o.Location] = true
		if strength(o) > strength(other) {
			results[o.Location].Success = true
		} else {
			results[o.Location].Success = false
			results[o.Location].Reason = "bounced"
		}
	}

	// Every other contested destination: all moves targeting it, plus
	// the occupant (if not itself vacating) as an implicit contender.
	destinations := map[string][]Order{}
	for _, o := range all {
		if o.Type == Move && !headToHead[o.Location] {
			destinations[o.Target] = append(destinations[o.Target], o)
		}
	}
	for dest, movers := range destinations {
		best := -1
		bestLoc := ""
		tie := false
		consider := func(loc string, s int) {
			switch {
			case s > best:
				best, bestLoc, tie = s, loc, false
			case s == best:
				tie = true
			}
		}
		for _, m := range movers {
			consider(m.Location, strength(m))
		}
		if occupant, ok := ordersByLoc[dest]; ok && occupant.Type != Move {
			consider(dest, strength(occupant))
		}
		for _, m := range movers {
			if !tie && m.Location == bestLoc {
				results[m.Location].Success = true
			} else {
				results[m.Location].Success = false
				results[m.Location].Reason = "bounced"
			}
		}
	}

	next := state.Clone()
	next.Dislodged = map[string]DislodgedUnit{}
	dislodged := map[string]DislodgedUnit{}

	// Determine, per currently-occupied province, whether its occupant
	// is displaced by a winning move into it.
	winnerInto := map[string]string{} // destination -> origin of the unit that moved in
	for loc, r := range results {
		if r.Order.Type == Move && r.Success {
			winnerInto[r.Order.Target] = loc
		}
	}

	var newUnits []Unit
	for _, u := range state.Units {
		r := results[u.Province]
		if r.Order.Type == Move && r.Success {
			newUnits = append(newUnits, Unit{Type: u.Type, Power: u.Power, Province: r.Order.Target})
			continue
		}
		if attacker, displaced := winnerInto[u.Province]; displaced {
			du := DislodgedUnit{Unit: u, DislodgedFrom: u.Province, AttackerFrom: attacker}
			dislodged[u.Province] = du
			continue
		}
		newUnits = append(newUnits, u)
	}
	next.Units = newUnits
	next.Dislodged = dislodged

	out := make([]Result, 0, len(results))
	for _, o := range submitted {
		out = append(out, *results[o.Location])
	}
	return next, out, dislodged
}
