package users

import (
	"context"
	"errors"

	"github.com/efreeman/diplomat/internal/model"
)

var errNotFound = errors.New("mock: not found")

// mockUserRepo implements repository.UserRepository for testing.
type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	u, ok := m.users[username]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) Add(_ context.Context, u *model.User) error {
	cp := *u
	m.users[u.Username] = &cp
	return nil
}

func (m *mockUserRepo) Replace(_ context.Context, u *model.User) error {
	if _, ok := m.users[u.Username]; !ok {
		return errNotFound
	}
	cp := *u
	m.users[u.Username] = &cp
	return nil
}

func (m *mockUserRepo) Remove(_ context.Context, username string) error {
	delete(m.users, username)
	return nil
}

// mockRevocationSet implements repository.RevocationSet for testing.
type mockRevocationSet struct {
	revoked map[string]bool
}

func newMockRevocationSet() *mockRevocationSet {
	return &mockRevocationSet{revoked: make(map[string]bool)}
}

func (m *mockRevocationSet) Revoke(_ context.Context, id string) error {
	m.revoked[id] = true
	return nil
}

func (m *mockRevocationSet) IsRevoked(_ context.Context, id string) (bool, error) {
	return m.revoked[id], nil
}
