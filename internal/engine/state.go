package engine

// DislodgedUnit records a unit that was dislodged this phase and must
// retreat, be disbanded, or fail to find a retreat province.
type DislodgedUnit struct {
	Unit          Unit   `json:"unit"`
	DislodgedFrom string `json:"dislodged_from"`
	AttackerFrom  string `json:"attacker_from"`
}

// State is the board position: unit placement, supply-center
// ownership, and any units currently awaiting retreat orders.
type State struct {
	Units     []Unit                    `json:"units"`
	Centers   map[string]Power          `json:"centers"`
	Dislodged map[string]DislodgedUnit  `json:"dislodged"` // keyed by dislodged province
}

// NewInitialState returns the standard 1901 starting position for the
// reduced map: each power's three (four for Russia) home centers hold a
// starting unit, and ownership mirrors the home-center assignment.
func NewInitialState() *State {
	s := &State{Centers: map[string]Power{}}
	m := StandardMap()

	startingUnit := map[string]UnitType{
		"par": Army, "mar": Fleet, "bre": Fleet,
		"lon": Fleet, "edi": Fleet, "lvp": Army,
		"ber": Army, "kie": Fleet, "mun": Army,
		"ven": Army, "rom": Army, "nap": Fleet,
		"vie": Army, "bud": Army, "tri": Fleet,
		"mos": Army, "sev": Fleet, "stp": Fleet, "war": Army,
		"ank": Fleet, "con": Army, "smy": Army,
	}

	for id, p := range m.Provinces {
		if p.HomePower != Dummy {
			s.Centers[id] = p.HomePower
		} else if p.IsSC {
			s.Centers[id] = Dummy
		}
		if ut, ok := startingUnit[id]; ok {
			s.Units = append(s.Units, Unit{Type: ut, Power: p.HomePower, Province: id})
		}
	}
	return s
}

// UnitAt returns the unit occupying province, or nil.
func (s *State) UnitAt(province string) *Unit {
	for i := range s.Units {
		if s.Units[i].Province == province {
			return &s.Units[i]
		}
	}
	return nil
}

// UnitsOf returns every unit belonging to power.
func (s *State) UnitsOf(power Power) []Unit {
	var out []Unit
	for _, u := range s.Units {
		if u.Power == power {
			out = append(out, u)
		}
	}
	return out
}

// CenterCount returns how many supply centers power owns.
func (s *State) CenterCount(power Power) int {
	n := 0
	for _, owner := range s.Centers {
		if owner == power {
			n++
		}
	}
	return n
}

// IsEliminated reports whether power holds zero units and zero centers.
func (s *State) IsEliminated(power Power) bool {
	return len(s.UnitsOf(power)) == 0 && s.CenterCount(power) == 0
}

// RemoveUnit deletes the unit at province, if any.
func (s *State) RemoveUnit(province string) {
	for i, u := range s.Units {
		if u.Province == province {
			s.Units = append(s.Units[:i], s.Units[i+1:]...)
			return
		}
	}
}

// Clone returns a deep-enough copy for safe mutation during resolution.
func (s *State) Clone() *State {
	out := &State{
		Units:     append([]Unit(nil), s.Units...),
		Centers:   make(map[string]Power, len(s.Centers)),
		Dislodged: make(map[string]DislodgedUnit, len(s.Dislodged)),
	}
	for k, v := range s.Centers {
		out.Centers[k] = v
	}
	for k, v := range s.Dislodged {
		out.Dislodged[k] = v
	}
	return out
}
