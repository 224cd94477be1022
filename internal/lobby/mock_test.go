package lobby

import (
	"context"
	"sync"

	"github.com/efreeman/diplomat/internal/model"
)

// mockLobbyStore implements repository.LobbyStore in memory for testing.
type mockLobbyStore struct {
	mu      sync.Mutex
	lobbies map[string]*model.Lobby
}

func newMockLobbyStore() *mockLobbyStore {
	return &mockLobbyStore{lobbies: make(map[string]*model.Lobby)}
}

func (m *mockLobbyStore) Save(_ context.Context, l *model.Lobby) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *l
	cp.Players = append([]model.LobbyPlayer(nil), l.Players...)
	m.lobbies[string(l.Code)] = &cp
	return nil
}

func (m *mockLobbyStore) Find(_ context.Context, code string) (*model.Lobby, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lobbies[code]
	if !ok {
		return nil, nil
	}
	cp := *l
	cp.Players = append([]model.LobbyPlayer(nil), l.Players...)
	return &cp, nil
}

func (m *mockLobbyStore) Delete(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.lobbies, code)
	return nil
}

func (m *mockLobbyStore) FindByToken(_ context.Context, token string) (*model.Lobby, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.lobbies {
		if l.PlayerByToken(token) != nil {
			cp := *l
			cp.Players = append([]model.LobbyPlayer(nil), l.Players...)
			return &cp, nil
		}
	}
	return nil, nil
}

// mockUserRepo and mockRevocationSet reuse the same shape as
// internal/users's own test doubles, redeclared here since test files
// aren't shared across packages.
type mockUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) Add(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.Username] = &cp
	return nil
}

func (m *mockUserRepo) Replace(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.Username] = &cp
	return nil
}

func (m *mockUserRepo) Remove(_ context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, username)
	return nil
}

type mockRevocationSet struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func newMockRevocationSet() *mockRevocationSet {
	return &mockRevocationSet{revoked: make(map[string]bool)}
}

func (m *mockRevocationSet) Revoke(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[id] = true
	return nil
}

func (m *mockRevocationSet) IsRevoked(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.revoked[id], nil
}
