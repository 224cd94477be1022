package engine

import (
	"fmt"
	"strings"
)

// OrderType is the kind of instruction one order gives.
type OrderType string

const (
	Hold    OrderType = "H"
	Move    OrderType = "-"
	Support OrderType = "S"
	Convoy  OrderType = "C"
	Build   OrderType = "B"
	Disband OrderType = "D"
	Retreat OrderType = "R"
	Waive   OrderType = "WAIVE"
)

// Order is one parsed order per spec.md §6's wire grammar:
//
//	A/F <LOC> H|D|B
//	A/F <LOC> - <LOC>
//	A <LOC> S A <LOC> [- <LOC>]
//	F <LOC> C A <LOC> - <LOC>
//	A <LOC> R <LOC>
//	WAIVE
type Order struct {
	Power    Power
	Unit     UnitType
	Location string
	Type     OrderType
	Target   string // move/support/convoy/retreat destination
	AuxUnit  UnitType
	AuxLoc   string // supported/convoyed unit's location
	AuxDest  string // supported/convoyed unit's own destination, if it's moving
	Raw      string
}

// String renders the order back to its wire form.
func (o Order) String() string {
	if o.Type == Waive {
		return "WAIVE"
	}
	unit := o.Unit.String()
	switch o.Type {
	case Hold, Build, Disband:
		return fmt.Sprintf("%s %s %s", unit, o.Location, o.Type)
	case Move, Retreat:
		return fmt.Sprintf("%s %s %s %s", unit, o.Location, o.Type, o.Target)
	case Support:
		s := fmt.Sprintf("%s %s S %s %s", unit, o.Location, o.AuxUnit, o.AuxLoc)
		if o.AuxDest != "" {
			s += " - " + o.AuxDest
		}
		return s
	case Convoy:
		return fmt.Sprintf("%s %s C %s %s - %s", unit, o.Location, o.AuxUnit, o.AuxLoc, o.AuxDest)
	}
	return o.Raw
}

// ParseOrder parses one order string for power. It returns an error if
// the string does not match the grammar; it performs no legality check
// against board state (that is the job of the validator / resolver).
func ParseOrder(power Power, s string) (Order, error) {
	raw := s
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "WAIVE") {
		return Order{Power: power, Type: Waive, Raw: raw}, nil
	}

	fields := strings.Fields(strings.ToUpper(s))
	if len(fields) < 3 {
		return Order{}, fmt.Errorf("engine: malformed order %q", raw)
	}

	unit, err := parseUnitLetter(fields[0])
	if err != nil {
		return Order{}, fmt.Errorf("engine: %w in %q", err, raw)
	}
	loc := strings.ToLower(fields[1])

	switch fields[2] {
	case "H":
		return Order{Power: power, Unit: unit, Location: loc, Type: Hold, Raw: raw}, nil
	case "B":
		return Order{Power: power, Unit: unit, Location: loc, Type: Build, Raw: raw}, nil
	case "D":
		return Order{Power: power, Unit: unit, Location: loc, Type: Disband, Raw: raw}, nil
	case "-":
		if len(fields) != 4 {
			return Order{}, fmt.Errorf("engine: malformed move %q", raw)
		}
		return Order{Power: power, Unit: unit, Location: loc, Type: Move, Target: strings.ToLower(fields[3]), Raw: raw}, nil
	case "R":
		if len(fields) != 4 {
			return Order{}, fmt.Errorf("engine: malformed retreat %q", raw)
		}
		return Order{Power: power, Unit: unit, Location: loc, Type: Retreat, Target: strings.ToLower(fields[3]), Raw: raw}, nil
	case "S":
		// A <LOC> S A <LOC> [- <LOC>]
		if len(fields) < 5 {
			return Order{}, fmt.Errorf("engine: malformed support %q", raw)
		}
		auxUnit, err := parseUnitLetter(fields[3])
		if err != nil {
			return Order{}, fmt.Errorf("engine: %w in %q", err, raw)
		}
		o := Order{Power: power, Unit: unit, Location: loc, Type: Support, AuxUnit: auxUnit, AuxLoc: strings.ToLower(fields[4]), Raw: raw}
		if len(fields) >= 7 && fields[5] == "-" {
			o.AuxDest = strings.ToLower(fields[6])
		}
		return o, nil
	case "C":
		// F <LOC> C A <LOC> - <LOC>
		if len(fields) != 7 || fields[5] != "-" {
			return Order{}, fmt.Errorf("engine: malformed convoy %q", raw)
		}
		auxUnit, err := parseUnitLetter(fields[3])
		if err != nil {
			return Order{}, fmt.Errorf("engine: %w in %q", err, raw)
		}
		return Order{
			Power: power, Unit: unit, Location: loc, Type: Convoy,
			AuxUnit: auxUnit, AuxLoc: strings.ToLower(fields[4]), AuxDest: strings.ToLower(fields[6]),
			Raw: raw,
		}, nil
	}
	return Order{}, fmt.Errorf("engine: unknown order keyword in %q", raw)
}

func parseUnitLetter(s string) (UnitType, error) {
	switch s {
	case "A":
		return Army, nil
	case "F":
		return Fleet, nil
	default:
		return 0, fmt.Errorf("unknown unit letter %q", s)
	}
}
