package handler

import (
	"github.com/efreeman/diplomat/internal/model"
	"github.com/efreeman/diplomat/internal/ws"

	"github.com/efreeman/diplomat/internal/engine"
)

// runProcess advances g by one tick and, if a phase transition actually
// happened, broadcasts it to every subscriber of g.ID. The engine
// adapter resolves synchronously, so unlike original_source's HTTP
// boundary (which slept ~0.5s for an async scheduler to settle) there
// is nothing to wait for: the new phase is already current by the time
// this call returns.
func runProcess(g *engine.Game, hub *ws.Hub) (previous, current *engine.GamePhaseData, kicked []engine.Power, err error) {
	previous, current, kicked, err = g.Process()
	if err != nil || current == nil {
		return previous, current, kicked, err
	}

	hub.BroadcastToGame(g.ID, model.Notification{
		Kind: model.NotifyPhaseAdvanced,
		Payload: map[string]any{
			"game_id":  g.ID,
			"previous": previous,
			"current":  current,
			"kicked":   kicked,
		},
	})
	return previous, current, kicked, nil
}
