package handler

import (
	"sort"
	"strings"

	"github.com/efreeman/diplomat/internal/engine"
	"github.com/efreeman/diplomat/internal/phase"
)

// gameSnapshot renders a game's overview: phase, status, and a
// per-power breakdown of units, centers, and control, the shape the
// direct game API and the lobby's game sub-resource share.
func gameSnapshot(g *engine.Game) map[string]any {
	powers := map[string]any{}
	for _, p := range engine.AllPowers() {
		if p == engine.Dummy {
			continue
		}
		units := g.State.UnitsOf(p)
		var unitStrs []string
		for _, u := range units {
			unitStrs = append(unitStrs, strings.ToUpper(u.Type.String())+" "+strings.ToUpper(u.Province))
		}
		var centers []string
		for province, owner := range g.State.Centers {
			if owner == p {
				centers = append(centers, strings.ToUpper(province))
			}
		}
		sort.Strings(centers)
		controller := g.Controlled[p]
		powers[string(p)] = map[string]any{
			"units":         unitStrs,
			"centers":       centers,
			"controller":    nullableString(controller),
			"is_controlled": controller != "",
		}
	}

	return map[string]any{
		"game_id":  g.ID,
		"phase":    phase.Abbrev(g.Phase),
		"status":   g.Status,
		"map_name": g.MapName,
		"is_done":  g.Status == engine.StatusCompleted,
		"powers":   powers,
	}
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// ordersView renders the orders sub-resource for one power: its
// orderable locations and the legal order strings at each, the same
// shape original_source's OrdersHandler.get returns.
func ordersView(g *engine.Game, power engine.Power) map[string]any {
	orderable := g.GetOrderableLocations(power)
	possible := g.GetAllPossibleOrders(power)

	ordersByLoc := map[string][]string{}
	for _, loc := range orderable {
		if opts := possible[loc]; len(opts) > 0 {
			ordersByLoc[loc] = opts
		}
	}

	var unitStrs []string
	for _, u := range g.State.UnitsOf(power) {
		unitStrs = append(unitStrs, strings.ToUpper(u.Type.String())+" "+strings.ToUpper(u.Province))
	}
	var centers []string
	for province, owner := range g.State.Centers {
		if owner == power {
			centers = append(centers, strings.ToUpper(province))
		}
	}
	sort.Strings(centers)

	return map[string]any{
		"phase":                phase.Abbrev(g.Phase),
		"power":                string(power),
		"units":                unitStrs,
		"centers":              centers,
		"orderable_locations":  orderable,
		"possible_orders":      ordersByLoc,
		"n_orders_needed":      len(ordersByLoc),
	}
}

// invalidOrder is the handler-facing rendering of engine.RejectedOrder.
type invalidOrder = engine.RejectedOrder

// validateOrders partitions submitted order strings into accepted and
// rejected per component 4.H, delegating to the engine's own
// ValidateOrders so the boundary and the engine agree on exactly one
// legality check.
func validateOrders(g *engine.Game, power engine.Power, submitted []string) (valid []string, invalid []invalidOrder) {
	return engine.ValidateOrders(g.State, g.Phase.Type, power, submitted)
}
