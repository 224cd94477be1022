package users

import (
	"context"
	"testing"
	"time"

	"github.com/efreeman/diplomat/internal/auth"
)

func newTestRegistry() (*Registry, *auth.Authority) {
	authority := auth.NewAuthority("test-secret", time.Hour)
	return NewRegistry(newMockUserRepo(), authority, newMockRevocationSet()), authority
}

func TestAddUserThenHasValidToken(t *testing.T) {
	r, authority := newTestRegistry()
	ctx := context.Background()

	if err := r.AddUser(ctx, "alice", "hash", false); err != nil {
		t.Fatalf("add user: %v", err)
	}

	token, err := authority.Mint("alice")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if !r.HasValidToken(ctx, token) {
		t.Fatal("expected token to be valid for a registered user")
	}
}

func TestHasValidTokenFailsForUnknownSubject(t *testing.T) {
	r, authority := newTestRegistry()
	token, _ := authority.Mint("ghost")
	if r.HasValidToken(context.Background(), token) {
		t.Fatal("expected token to be invalid for an unregistered subject")
	}
}

func TestHasValidTokenFailsAfterDisconnect(t *testing.T) {
	r, authority := newTestRegistry()
	ctx := context.Background()
	r.AddUser(ctx, "alice", "hash", false)
	token, _ := authority.Mint("alice")

	if !r.HasValidToken(ctx, token) {
		t.Fatal("expected token to start out valid")
	}
	if err := r.DisconnectToken(ctx, token); err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	if r.HasValidToken(ctx, token) {
		t.Fatal("expected token to be invalid once revoked")
	}
}

func TestRemoveUserRevokesEveryLiveToken(t *testing.T) {
	r, authority := newTestRegistry()
	ctx := context.Background()
	r.AddUser(ctx, "alice", "hash", false)

	t1, _ := authority.Mint("alice")
	t2, _ := authority.Mint("alice")
	r.Connect(t1, "conn-1")
	r.Connect(t2, "conn-2")

	if err := r.RemoveUser(ctx, "alice"); err != nil {
		t.Fatalf("remove user: %v", err)
	}

	if r.HasValidToken(ctx, t1) || r.HasValidToken(ctx, t2) {
		t.Fatal("expected both tokens to be invalid after user removal")
	}
	if _, ok := r.HandleFor(t1); ok {
		t.Fatal("expected binding for t1 to be gone")
	}
	if _, ok := r.HandleFor(t2); ok {
		t.Fatal("expected binding for t2 to be gone")
	}
}

func TestConnectIsIdempotentForSameHandle(t *testing.T) {
	r, authority := newTestRegistry()
	token, _ := authority.Mint("alice")

	r.Connect(token, "conn-1")
	r.Connect(token, "conn-1")

	h, ok := r.HandleFor(token)
	if !ok || h != "conn-1" {
		t.Fatalf("expected conn-1, got %q ok=%v", h, ok)
	}
}

func TestReattachDetachesFromPriorHandle(t *testing.T) {
	r, authority := newTestRegistry()
	token, _ := authority.Mint("alice")

	r.Connect(token, "conn-1")
	prev := r.Reattach(token, "conn-2")

	if prev != "conn-1" {
		t.Fatalf("expected previous handle conn-1, got %q", prev)
	}
	h, ok := r.HandleFor(token)
	if !ok || h != "conn-2" {
		t.Fatalf("expected token bound to conn-2, got %q ok=%v", h, ok)
	}

	if err := r.RemoveConnection(context.Background(), "conn-1", true); err != nil {
		t.Fatalf("remove stale connection: %v", err)
	}
	if _, ok := r.HandleFor(token); !ok {
		t.Fatal("expected token to remain bound to conn-2 after removing conn-1")
	}
}

func TestDisconnectTokenRemovesOnlyThatTokensBinding(t *testing.T) {
	r, authority := newTestRegistry()
	ctx := context.Background()
	t1, _ := authority.Mint("alice")
	t2, _ := authority.Mint("alice")
	r.Connect(t1, "conn-1")
	r.Connect(t2, "conn-1")

	if err := r.DisconnectToken(ctx, t1); err != nil {
		t.Fatalf("disconnect: %v", err)
	}

	if _, ok := r.HandleFor(t1); ok {
		t.Fatal("expected t1 binding to be gone")
	}
	if _, ok := r.HandleFor(t2); !ok {
		t.Fatal("expected t2 binding to survive t1's disconnect")
	}
}

func TestRemoveConnectionWithoutRevocationKeepsTokensValid(t *testing.T) {
	r, authority := newTestRegistry()
	ctx := context.Background()
	r.AddUser(ctx, "alice", "hash", false)
	token, _ := authority.Mint("alice")
	r.Connect(token, "conn-1")

	if err := r.RemoveConnection(ctx, "conn-1", false); err != nil {
		t.Fatalf("remove connection: %v", err)
	}

	if _, ok := r.HandleFor(token); ok {
		t.Fatal("expected binding to be dropped")
	}
	if !r.HasValidToken(ctx, token) {
		t.Fatal("expected token to remain valid when not explicitly revoked")
	}
}

func TestReplaceUserUpdatesRecord(t *testing.T) {
	r, _ := newTestRegistry()
	ctx := context.Background()
	r.AddUser(ctx, "alice", "old-hash", false)

	if err := r.ReplaceUser(ctx, "alice", "new-hash", true); err != nil {
		t.Fatalf("replace: %v", err)
	}

	u, err := r.FindUser(ctx, "alice")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if u.PasswordHash != "new-hash" || !u.IsAdmin {
		t.Fatalf("unexpected user after replace: %+v", u)
	}
}
