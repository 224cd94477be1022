package engine

import "sort"

// ResolveBuilds processes one ADJUSTMENTS phase: each power's unit
// count is reconciled to its supply-center count. Powers below their
// center count consume Build orders (at an unoccupied home center they
// still own) up to the shortfall, with excess build slots implicitly
// waived. Powers above their center count must submit enough Disband
// orders to come back into balance; any shortfall is made up by
// disbanding that power's units in a fixed, deterministic order
// (furthest down the unit list first) rather than leaving the game in
// an inconsistent state.
func ResolveBuilds(state *State, orders []Order) (*State, []Result) {
	m := StandardMap()
	next := state.Clone()
	var results []Result

	byPower := map[Power][]Order{}
	for _, o := range orders {
		byPower[o.Power] = append(byPower[o.Power], o)
	}

	powers := make([]Power, 0, len(byPower))
	for p := range byPower {
		powers = append(powers, p)
	}
	for _, p := range AllPowers() {
		if _, ok := byPower[p]; !ok {
			powers = append(powers, p)
		}
	}
	sort.Slice(powers, func(i, j int) bool { return powers[i] < powers[j] })

	for _, power := range powers {
		delta := next.CenterCount(power) - len(next.UnitsOf(power))
		povOrders := byPower[power]

		if delta > 0 {
			built := 0
			for _, o := range povOrders {
				if o.Type != Build || built >= delta {
					continue
				}
				home := m.Provinces[o.Location]
				if home == nil || home.HomePower != power || next.Centers[o.Location] != power || next.UnitAt(o.Location) != nil {
					results = append(results, Result{Order: o, Success: false, Reason: "illegal build"})
					continue
				}
				next.Units = append(next.Units, Unit{Type: o.Unit, Power: power, Province: o.Location})
				results = append(results, Result{Order: o, Success: true})
				built++
			}
			continue
		}

		if delta < 0 {
			need := -delta
			disbanded := map[string]bool{}
			for _, o := range povOrders {
				if o.Type != Disband || need <= 0 {
					continue
				}
				if next.UnitAt(o.Location) == nil {
					results = append(results, Result{Order: o, Success: false, Reason: "no unit there"})
					continue
				}
				next.RemoveUnit(o.Location)
				disbanded[o.Location] = true
				results = append(results, Result{Order: o, Success: true})
				need--
			}
			if need > 0 {
				units := next.UnitsOf(power)
				for i := len(units) - 1; i >= 0 && need > 0; i-- {
					if disbanded[units[i].Province] {
						continue
					}
					next.RemoveUnit(units[i].Province)
					need--
				}
			}
		}
	}
	return next, results
}
