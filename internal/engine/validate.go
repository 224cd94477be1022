package engine

import (
	"fmt"
	"sort"

	"github.com/efreeman/diplomat/internal/phase"
)

// GetOrderableLocations returns the provinces for which power must (or
// may) submit an order in the current phase type.
func GetOrderableLocations(state *State, phaseType phase.Type, power Power) []string {
	switch phaseType {
	case phase.Movement:
		var out []string
		for _, u := range state.UnitsOf(power) {
			out = append(out, u.Province)
		}
		sort.Strings(out)
		return out
	case phase.Retreats:
		var out []string
		for origin, du := range state.Dislodged {
			if du.Unit.Power == power {
				out = append(out, origin)
			}
		}
		sort.Strings(out)
		return out
	case phase.Adjustments:
		delta := state.CenterCount(power) - len(state.UnitsOf(power))
		m := StandardMap()
		var out []string
		if delta > 0 {
			for _, c := range m.HomeCenters(power) {
				if state.Centers[c] == power && state.UnitAt(c) == nil {
					out = append(out, c)
				}
			}
		} else if delta < 0 {
			for _, u := range state.UnitsOf(power) {
				out = append(out, u.Province)
			}
		}
		sort.Strings(out)
		return out
	}
	return nil
}

// GetAllPossibleOrders enumerates, for every orderable location, the
// legal order strings a power may submit there.
func GetAllPossibleOrders(state *State, phaseType phase.Type, power Power) map[string][]string {
	out := map[string][]string{}
	m := StandardMap()

	switch phaseType {
	case phase.Movement:
		for _, u := range state.UnitsOf(power) {
			loc := u.Province
			isFleet := u.Type == Fleet
			var opts []string
			opts = append(opts, fmt.Sprintf("%s %s H", u.Type, loc))
			for _, nbr := range m.Neighbors(loc, isFleet) {
				opts = append(opts, fmt.Sprintf("%s %s - %s", u.Type, loc, nbr))
			}
			for _, other := range state.Units {
				if other.Province == loc {
					continue
				}
				if !m.Adjacent(loc, other.Province, isFleet) {
					continue
				}
				opts = append(opts, fmt.Sprintf("%s %s S %s %s", u.Type, loc, other.Type, other.Province))
				for _, dest := range m.Neighbors(other.Province, other.Type == Fleet) {
					if m.Adjacent(loc, dest, isFleet) {
						opts = append(opts, fmt.Sprintf("%s %s S %s %s - %s", u.Type, loc, other.Type, other.Province, dest))
					}
				}
			}
			sort.Strings(opts)
			out[loc] = opts
		}

	case phase.Retreats:
		for origin, du := range state.Dislodged {
			if du.Unit.Power != power {
				continue
			}
			isFleet := du.Unit.Type == Fleet
			var opts []string
			opts = append(opts, fmt.Sprintf("%s %s D", du.Unit.Type, origin))
			for _, nbr := range m.Neighbors(origin, isFleet) {
				if nbr == du.AttackerFrom || state.UnitAt(nbr) != nil {
					continue
				}
				opts = append(opts, fmt.Sprintf("%s %s R %s", du.Unit.Type, origin, nbr))
			}
			sort.Strings(opts)
			out[origin] = opts
		}

	case phase.Adjustments:
		delta := state.CenterCount(power) - len(state.UnitsOf(power))
		if delta > 0 {
			for _, c := range m.HomeCenters(power) {
				if state.Centers[c] != power || state.UnitAt(c) != nil {
					continue
				}
				prov := m.Provinces[c]
				var opts []string
				opts = append(opts, fmt.Sprintf("A %s B", c))
				if prov.Type == Coastal {
					opts = append(opts, fmt.Sprintf("F %s B", c))
				}
				opts = append(opts, "WAIVE")
				out[c] = opts
			}
		} else if delta < 0 {
			for _, u := range state.UnitsOf(power) {
				out[u.Province] = []string{fmt.Sprintf("%s %s D", u.Type, u.Province)}
			}
		}
	}
	return out
}

// RejectedOrder describes why a submitted order string was refused,
// with up to five suggested legal alternatives at the same location.
type RejectedOrder struct {
	Order       string   `json:"order"`
	Reason      string   `json:"reason"`
	Suggestions []string `json:"suggestions"`
}

// ValidateOrders checks each submitted order string against
// GetAllPossibleOrders for its origin location, per spec.md §4.H: set
// membership at the origin location, with up to 5 suggestions for a
// rejected order.
func ValidateOrders(state *State, phaseType phase.Type, power Power, submissions []string) (accepted []string, rejected []RejectedOrder) {
	possible := GetAllPossibleOrders(state, phaseType, power)

	for _, s := range submissions {
		o, err := ParseOrder(power, s)
		if err != nil {
			rejected = append(rejected, RejectedOrder{Order: s, Reason: err.Error()})
			continue
		}
		loc := o.Location
		legal := possible[loc]
		if o.Type == Waive {
			// WAIVE names no location; it is legal wherever a build is offered.
			for _, opts := range possible {
				for _, l := range opts {
					if l == "WAIVE" {
						legal = []string{"WAIVE"}
					}
				}
			}
		}
		ok := false
		for _, l := range legal {
			if l == o.String() {
				ok = true
				break
			}
		}
		if ok {
			accepted = append(accepted, s)
			continue
		}
		suggestions := legal
		if len(suggestions) > 5 {
			suggestions = suggestions[:5]
		}
		rejected = append(rejected, RejectedOrder{
			Order:       s,
			Reason:      "not a legal order for this location in the current phase",
			Suggestions: suggestions,
		})
	}
	return accepted, rejected
}
