//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/efreeman/diplomat/internal/model"
	"github.com/efreeman/diplomat/internal/testutil"
)

var testDB *sql.DB

func TestMain(m *testing.M) {
	m.Run()
}

func setup(t *testing.T) {
	t.Helper()
	if testDB == nil {
		testDB = testutil.SetupDB(t)
	}
	testutil.CleanupDB(t, testDB)
}

func TestUserAddAndFindByUsername(t *testing.T) {
	setup(t)
	repo := NewUserRepo(testDB)
	ctx := context.Background()

	u := &model.User{Username: "alice", PasswordHash: "hashed", IsAdmin: false, CreatedAt: time.Now().UTC()}
	if err := repo.Add(ctx, u); err != nil {
		t.Fatalf("add: %v", err)
	}

	found, err := repo.FindByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found == nil {
		t.Fatal("expected to find alice")
	}
	if found.PasswordHash != "hashed" || found.IsAdmin {
		t.Fatalf("unexpected user: %+v", found)
	}
}

func TestUserFindByUsernameMissing(t *testing.T) {
	setup(t)
	repo := NewUserRepo(testDB)

	found, err := repo.FindByUsername(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("find missing: %v", err)
	}
	if found != nil {
		t.Fatal("expected nil for a missing username")
	}
}

func TestUserReplaceUpdatesPasswordAndAdmin(t *testing.T) {
	setup(t)
	repo := NewUserRepo(testDB)
	ctx := context.Background()

	u := &model.User{Username: "bob", PasswordHash: "old", CreatedAt: time.Now().UTC()}
	if err := repo.Add(ctx, u); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := repo.Replace(ctx, &model.User{Username: "bob", PasswordHash: "new", IsAdmin: true}); err != nil {
		t.Fatalf("replace: %v", err)
	}

	found, _ := repo.FindByUsername(ctx, "bob")
	if found.PasswordHash != "new" || !found.IsAdmin {
		t.Fatalf("expected replaced user, got %+v", found)
	}
}

func TestUserReplaceMissingReturnsErrNoRows(t *testing.T) {
	setup(t)
	repo := NewUserRepo(testDB)

	err := repo.Replace(context.Background(), &model.User{Username: "ghost", PasswordHash: "x"})
	if err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestUserRemove(t *testing.T) {
	setup(t)
	repo := NewUserRepo(testDB)
	ctx := context.Background()

	repo.Add(ctx, &model.User{Username: "carol", PasswordHash: "x", CreatedAt: time.Now().UTC()})
	if err := repo.Remove(ctx, "carol"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	found, _ := repo.FindByUsername(ctx, "carol")
	if found != nil {
		t.Fatal("expected carol to be gone")
	}
}
