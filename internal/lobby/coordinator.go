// Package lobby implements the pre-game staging area: short-code
// lobbies that a host creates and players join before the host starts
// the game, at which point the lobby hands off to an engine instance.
package lobby

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/efreeman/diplomat/internal/auth"
	"github.com/efreeman/diplomat/internal/engine"
	"github.com/efreeman/diplomat/internal/model"
	"github.com/efreeman/diplomat/internal/phase"
	"github.com/efreeman/diplomat/internal/playerlog"
	"github.com/efreeman/diplomat/internal/repository"
	"github.com/efreeman/diplomat/internal/users"
)

// Code alphabet deliberately excludes 0/O/1/I/L so a code read aloud or
// handwritten is never ambiguous.
const (
	codeAlphabet    = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	codeLength      = 4
	maxCodeAttempts = 100
	systemUsername  = "admin"
)

var (
	ErrNotFound       = errors.New("lobby: not found")
	ErrAlreadyStarted = errors.New("lobby: already started")
	ErrFull           = errors.New("lobby: full")
	ErrNotHost        = errors.New("lobby: only the host can do that")
	ErrNameTaken      = errors.New("lobby: display name already taken")
	ErrCodeExhausted  = errors.New("lobby: could not generate a unique code")
)

// Coordinator owns lobby creation, joining, and the two-step handoff
// into a live engine game on start.
type Coordinator struct {
	lobbies       repository.LobbyStore
	users         *users.Registry
	authority     *auth.Authority
	games         *engine.Store
	log           *playerlog.Store
	numTalkRounds int

	mu         sync.Mutex
	adminToken string
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(lobbies repository.LobbyStore, reg *users.Registry, authority *auth.Authority, games *engine.Store, log *playerlog.Store, numTalkRounds int) *Coordinator {
	return &Coordinator{
		lobbies:       lobbies,
		users:         reg,
		authority:     authority,
		games:         games,
		log:           log,
		numTalkRounds: numTalkRounds,
	}
}

// Create generates a lobby code, registers the host as an identity if
// unseen, and seats them as the host player.
func (c *Coordinator) Create(ctx context.Context, username, displayName, token, mapName string, assignment model.LobbyAssignment) (*model.Lobby, *model.LobbyPlayer, error) {
	code, err := c.generateCode(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := c.ensureRegistered(ctx, username, token); err != nil {
		return nil, nil, err
	}

	host := model.LobbyPlayer{
		Username:    username,
		DisplayName: displayName,
		Token:       token,
		IsHost:      true,
		JoinedAt:    time.Now(),
	}
	l := &model.Lobby{
		Code:         model.LobbyCode(code),
		MapName:      mapName,
		Assignment:   assignment,
		NPowers:      len(engine.AllPowers()),
		Status:       model.LobbyWaiting,
		Players:      []model.LobbyPlayer{host},
		HostUsername: username,
		CreatedAt:    time.Now(),
	}
	if err := c.lobbies.Save(ctx, l); err != nil {
		return nil, nil, err
	}
	return l, &l.Players[0], nil
}

// Join seats username in the lobby named by code, or refreshes their
// token if they are already seated (reconnection).
func (c *Coordinator) Join(ctx context.Context, code, username, displayName, token string) (*model.Lobby, *model.LobbyPlayer, error) {
	l, err := c.lobbies.Find(ctx, normalizeCode(code))
	if err != nil {
		return nil, nil, err
	}
	if l == nil {
		return nil, nil, ErrNotFound
	}
	if l.Status != model.LobbyWaiting {
		return nil, nil, ErrAlreadyStarted
	}
	if l.IsFull() {
		return nil, nil, ErrFull
	}

	if existing := l.PlayerByUsername(username); existing != nil {
		existing.Token = token
		if err := c.lobbies.Save(ctx, l); err != nil {
			return nil, nil, err
		}
		return l, existing, nil
	}

	for _, p := range l.Players {
		if strings.EqualFold(p.DisplayName, displayName) {
			return nil, nil, ErrNameTaken
		}
	}

	if err := c.ensureRegistered(ctx, username, token); err != nil {
		return nil, nil, err
	}

	player := model.LobbyPlayer{
		Username:    username,
		DisplayName: displayName,
		Token:       token,
		JoinedAt:    time.Now(),
	}
	l.Players = append(l.Players, player)
	if err := c.lobbies.Save(ctx, l); err != nil {
		return nil, nil, err
	}
	return l, &l.Players[len(l.Players)-1], nil
}

// Start assigns powers and creates the engine game, then joins every
// seated player to it under their own token. Any failure along the way
// propagates and leaves the lobby in "waiting".
func (c *Coordinator) Start(ctx context.Context, code, username string) (*model.Lobby, error) {
	l, err := c.lobbies.Find(ctx, normalizeCode(code))
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, ErrNotFound
	}
	if username != l.HostUsername {
		return nil, ErrNotHost
	}
	if l.Status != model.LobbyWaiting {
		return nil, ErrAlreadyStarted
	}

	powers, err := c.assignPowers(l)
	if err != nil {
		return nil, err
	}

	gameID := "game_" + string(l.Code)
	if _, err := c.systemToken(ctx); err != nil {
		return nil, fmt.Errorf("lobby: mint system token: %w", err)
	}

	rules := phase.NewRules(phase.RulePowerChoice)
	game := engine.NewGame(gameID, l.MapName, rules, c.numTalkRounds, c.log)
	if !c.games.Create(game) {
		return nil, fmt.Errorf("lobby: game id %s already exists", gameID)
	}
	game.Activate()

	gameLock := c.games.Lock(gameID)
	gameLock.Lock()
	for i := range l.Players {
		p := &l.Players[i]
		if err := c.ensureRegistered(ctx, p.Username, p.Token); err != nil {
			gameLock.Unlock()
			return nil, fmt.Errorf("lobby: register player %s: %w", p.DisplayName, err)
		}
		power := powers[i]
		game.AssignPower(power, p.Username)
		p.Power = string(power)
	}
	gameLock.Unlock()

	l.Status = model.LobbyStarted
	now := time.Now()
	l.StartedAt = &now
	l.GameID = gameID
	if err := c.lobbies.Save(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// Get looks up a lobby by code.
func (c *Coordinator) Get(ctx context.Context, code string) (*model.Lobby, error) {
	return c.lobbies.Find(ctx, normalizeCode(code))
}

// GetForToken finds the lobby a token holds a seat in, if any.
func (c *Coordinator) GetForToken(ctx context.Context, token string) (*model.Lobby, error) {
	return c.lobbies.FindByToken(ctx, token)
}

func (c *Coordinator) assignPowers(l *model.Lobby) ([]engine.Power, error) {
	if l.Assignment != model.AssignmentRandom {
		return nil, fmt.Errorf("lobby: unsupported assignment %q", l.Assignment)
	}
	all := append([]engine.Power(nil), engine.AllPowers()...)
	for i := len(all) - 1; i > 0; i-- {
		j, err := randIntn(i + 1)
		if err != nil {
			return nil, err
		}
		all[i], all[j] = all[j], all[i]
	}
	return all[:len(l.Players)], nil
}

// systemToken lazily mints (or revalidates) the admin token used for
// the engine-creation half of Start.
func (c *Coordinator) systemToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.adminToken != "" && c.users.HasValidToken(ctx, c.adminToken) {
		return c.adminToken, nil
	}

	admin, err := c.users.FindUser(ctx, systemUsername)
	if err != nil {
		return "", err
	}
	if admin == nil {
		hash, err := users.HashPassword(systemUsername)
		if err != nil {
			return "", err
		}
		if err := c.users.AddUser(ctx, systemUsername, hash, true); err != nil {
			return "", err
		}
	}

	token, err := c.authority.Mint(systemUsername)
	if err != nil {
		return "", err
	}
	c.users.Connect(token, ephemeralHandle())
	c.adminToken = token
	return token, nil
}

// ensureRegistered makes sure username has a durable account and token
// is bound to some connection handle, mirroring a lobby join that
// never goes through the password-login endpoint.
func (c *Coordinator) ensureRegistered(ctx context.Context, username, token string) error {
	u, err := c.users.FindUser(ctx, username)
	if err != nil {
		return err
	}
	if u == nil {
		hash, err := users.HashPassword(username)
		if err != nil {
			return err
		}
		if err := c.users.AddUser(ctx, username, hash, false); err != nil {
			return err
		}
	}
	if _, bound := c.users.HandleFor(token); !bound {
		c.users.Connect(token, ephemeralHandle())
	}
	return nil
}

func (c *Coordinator) generateCode(ctx context.Context) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := randomCode()
		if err != nil {
			return "", err
		}
		existing, err := c.lobbies.Find(ctx, code)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return code, nil
		}
	}
	return "", ErrCodeExhausted
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func randomCode() (string, error) {
	b := make([]byte, codeLength)
	for i := range b {
		n, err := randIntn(len(codeAlphabet))
		if err != nil {
			return "", err
		}
		b[i] = codeAlphabet[n]
	}
	return string(b), nil
}

func randIntn(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("lobby: read random: %w", err)
	}
	return int(v.Int64()), nil
}

func ephemeralHandle() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return "ephemeral-" + hex.EncodeToString(b)
}
