package engine

// ResolveRetreats processes one RETREATS phase: each dislodged unit
// either retreats to a vacant, non-attacker, non-origin adjacent
// province, is disbanded by its own order, or is disbanded because no
// legal retreat order arrived (and the power is reported "kicked" for
// that unit). Two units retreating to the same province both fail and
// are disbanded, per the standard rule.
func ResolveRetreats(state *State, orders []Order) (*State, []Result, []Power) {
	m := StandardMap()
	next := state.Clone()

	ordersByOrigin := map[string]Order{}
	for _, o := range orders {
		ordersByOrigin[o.Location] = o
	}

	destCount := map[string]int{}
	chosen := map[string]string{} // dislodged-from province -> chosen destination
	var results []Result
	var kicked []Power

	for origin, du := range state.Dislodged {
		o, ok := ordersByOrigin[origin]
		if ok && o.Type == Disband {
			results = append(results, Result{Order: o, Success: true, Reason: "disbanded"})
			continue
		}
		if !ok {
			results = append(results, Result{Order: o, Success: true, Reason: "disbanded"})
			kicked = append(kicked, du.Unit.Power)
			continue
		}
		if o.Type != Retreat {
			results = append(results, Result{Order: o, Success: false, Reason: "invalid retreat order, disbanded"})
			kicked = append(kicked, du.Unit.Power)
			continue
		}
		valid := m.Adjacent(origin, o.Target, du.Unit.Type == Fleet) &&
			next.UnitAt(o.Target) == nil &&
			o.Target != du.AttackerFrom
		if !valid {
			results = append(results, Result{Order: o, Success: false, Reason: "illegal retreat, disbanded"})
			kicked = append(kicked, du.Unit.Power)
			continue
		}
		destCount[o.Target]++
		chosen[origin] = o.Target
	}

	for origin, du := range state.Dislodged {
		dest, ok := chosen[origin]
		if !ok {
			continue
		}
		if destCount[dest] > 1 {
			results = append(results, Result{Order: ordersByOrigin[origin], Success: false, Reason: "retreat collision, disbanded"})
			kicked = append(kicked, du.Unit.Power)
			continue
		}
		next.Units = append(next.Units, Unit{Type: du.Unit.Type, Power: du.Unit.Power, Province: dest})
		results = append(results, Result{Order: ordersByOrigin[origin], Success: true})
	}

	next.Dislodged = map[string]DislodgedUnit{}
	return next, results, kicked
}
