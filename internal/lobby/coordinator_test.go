package lobby

import (
	"context"
	"testing"
	"time"

	"github.com/efreeman/diplomat/internal/auth"
	"github.com/efreeman/diplomat/internal/engine"
	"github.com/efreeman/diplomat/internal/model"
	"github.com/efreeman/diplomat/internal/playerlog"
	"github.com/efreeman/diplomat/internal/users"
)

func newTestCoordinator(t *testing.T) (*Coordinator, *auth.Authority) {
	t.Helper()
	authority := auth.NewAuthority("test-secret", time.Hour)
	reg := users.NewRegistry(newMockUserRepo(), authority, newMockRevocationSet())
	store := engine.NewStore()
	log := playerlog.NewStore(t.TempDir())
	c := NewCoordinator(newMockLobbyStore(), reg, authority, store, log, 2)
	return c, authority
}

func TestCreateSeatsHostAsOnlyPlayer(t *testing.T) {
	c, authority := newTestCoordinator(t)
	ctx := context.Background()
	token, _ := authority.Mint("alice")

	l, p, err := c.Create(ctx, "alice", "Alice", token, "standard", model.AssignmentRandom)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(l.Code) != codeLength {
		t.Fatalf("expected a %d-char code, got %q", codeLength, l.Code)
	}
	if !p.IsHost || p.Username != "alice" {
		t.Fatalf("expected alice seated as host, got %+v", p)
	}
	if l.NPowers != len(engine.AllPowers()) {
		t.Fatalf("expected n_powers=%d, got %d", len(engine.AllPowers()), l.NPowers)
	}
}

func TestJoinFailsForUnknownCode(t *testing.T) {
	c, authority := newTestCoordinator(t)
	ctx := context.Background()
	token, _ := authority.Mint("bob")

	if _, _, err := c.Join(ctx, "ZZZZ", "bob", "Bob", token); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestJoinRejectsDuplicateDisplayName(t *testing.T) {
	c, authority := newTestCoordinator(t)
	ctx := context.Background()
	hostToken, _ := authority.Mint("alice")
	l, _, _ := c.Create(ctx, "alice", "Same Name", hostToken, "standard", model.AssignmentRandom)

	bobToken, _ := authority.Mint("bob")
	if _, _, err := c.Join(ctx, string(l.Code), "bob", "same name", bobToken); err != ErrNameTaken {
		t.Fatalf("expected ErrNameTaken, got %v", err)
	}
}

func TestJoinReconnectsExistingPlayerByUsername(t *testing.T) {
	c, authority := newTestCoordinator(t)
	ctx := context.Background()
	hostToken, _ := authority.Mint("alice")
	l, _, _ := c.Create(ctx, "alice", "Alice", hostToken, "standard", model.AssignmentRandom)

	newToken, _ := authority.Mint("alice")
	l2, p, err := c.Join(ctx, string(l.Code), "alice", "Alice", newToken)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if len(l2.Players) != 1 {
		t.Fatalf("expected reconnection to keep a single seat, got %d", len(l2.Players))
	}
	if p.Token != newToken {
		t.Fatal("expected reconnection to refresh the token")
	}
}

func TestJoinRejectsFullLobby(t *testing.T) {
	c, authority := newTestCoordinator(t)
	ctx := context.Background()
	hostToken, _ := authority.Mint("p0")
	l, _, _ := c.Create(ctx, "p0", "P0", hostToken, "standard", model.AssignmentRandom)

	for i := 1; i < len(engine.AllPowers()); i++ {
		tok, _ := authority.Mint("p")
		if _, _, err := c.Join(ctx, string(l.Code), "u"+string(rune('a'+i)), "Name"+string(rune('a'+i)), tok); err != nil {
			t.Fatalf("join %d: %v", i, err)
		}
	}

	tok, _ := authority.Mint("overflow")
	if _, _, err := c.Join(ctx, string(l.Code), "overflow", "Overflow", tok); err != ErrFull {
		t.Fatalf("expected ErrFull, got %v", err)
	}
}

func TestStartRejectsNonHost(t *testing.T) {
	c, authority := newTestCoordinator(t)
	ctx := context.Background()
	hostToken, _ := authority.Mint("alice")
	l, _, _ := c.Create(ctx, "alice", "Alice", hostToken, "standard", model.AssignmentRandom)

	if _, err := c.Start(ctx, string(l.Code), "mallory"); err != ErrNotHost {
		t.Fatalf("expected ErrNotHost, got %v", err)
	}
}

func TestStartAssignsPowersAndActivatesGame(t *testing.T) {
	c, authority := newTestCoordinator(t)
	ctx := context.Background()
	hostToken, _ := authority.Mint("alice")
	l, _, _ := c.Create(ctx, "alice", "Alice", hostToken, "standard", model.AssignmentRandom)

	bobToken, _ := authority.Mint("bob")
	if _, _, err := c.Join(ctx, string(l.Code), "bob", "Bob", bobToken); err != nil {
		t.Fatalf("join: %v", err)
	}

	started, err := c.Start(ctx, string(l.Code), "alice")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.Status != model.LobbyStarted {
		t.Fatalf("expected lobby started, got %v", started.Status)
	}
	if started.GameID == "" {
		t.Fatal("expected a game id to be stamped")
	}

	seen := map[string]bool{}
	for _, p := range started.Players {
		if p.Power == "" {
			t.Fatalf("expected every player to have an assigned power, got %+v", p)
		}
		if seen[p.Power] {
			t.Fatalf("expected distinct powers, saw %s twice", p.Power)
		}
		seen[p.Power] = true
	}

	game, ok := c.games.Get(started.GameID)
	if !ok {
		t.Fatal("expected the engine game to be registered")
	}
	if game.Status != engine.StatusActive {
		t.Fatalf("expected game to be active, got %v", game.Status)
	}
	for _, p := range started.Players {
		if !game.IsControlledBy(engine.Power(p.Power), p.Username) {
			t.Fatalf("expected %s to control %s", p.Username, p.Power)
		}
	}
}

func TestStartFailsWhenAlreadyStarted(t *testing.T) {
	c, authority := newTestCoordinator(t)
	ctx := context.Background()
	hostToken, _ := authority.Mint("alice")
	l, _, _ := c.Create(ctx, "alice", "Alice", hostToken, "standard", model.AssignmentRandom)

	if _, err := c.Start(ctx, string(l.Code), "alice"); err != nil {
		t.Fatalf("first start: %v", err)
	}
	if _, err := c.Start(ctx, string(l.Code), "alice"); err != ErrAlreadyStarted {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}
}

func TestGetForTokenFindsSeatedPlayersLobby(t *testing.T) {
	c, authority := newTestCoordinator(t)
	ctx := context.Background()
	hostToken, _ := authority.Mint("alice")
	l, _, _ := c.Create(ctx, "alice", "Alice", hostToken, "standard", model.AssignmentRandom)

	found, err := c.GetForToken(ctx, hostToken)
	if err != nil {
		t.Fatalf("get for token: %v", err)
	}
	if found == nil || found.Code != l.Code {
		t.Fatalf("expected to find lobby %s, got %+v", l.Code, found)
	}
}
