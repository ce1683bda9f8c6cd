package storage

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/jwebster45206/dungeon-engine/pkg/actor"
	"github.com/jwebster45206/dungeon-engine/pkg/campaign"
	"github.com/jwebster45206/dungeon-engine/pkg/state"
)

// MockStorage is an in-memory Storage for tests. Game states are copied on
// the way in and out, so callers never share state with the store.
type MockStorage struct {
	mu         sync.RWMutex
	gamestates map[uuid.UUID]*state.GameState
	campaigns  map[string]*campaign.Campaign
	characters map[string]*actor.CharacterSheet
	pingError  error
	saveError  error
	saves      int
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		gamestates: make(map[uuid.UUID]*state.GameState),
		campaigns:  make(map[string]*campaign.Campaign),
		characters: make(map[string]*actor.CharacterSheet),
	}
}

// SetPingError configures the mock to fail on ping with the given error.
// Pass nil to make ping succeed again.
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSaveError makes every SaveGameState fail with err until cleared with nil.
func (m *MockStorage) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

// Saves returns how many SaveGameState calls succeeded.
func (m *MockStorage) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MockStorage) Close() error {
	return nil
}

func (m *MockStorage) SaveGameState(ctx context.Context, id uuid.UUID, gs *state.GameState) error {
	if gs == nil {
		return errors.New("gamestate cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	m.gamestates[id] = gs.Clone()
	m.saves++
	return nil
}

func (m *MockStorage) LoadGameState(ctx context.Context, id uuid.UUID) (*state.GameState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	gs, exists := m.gamestates[id]
	if !exists {
		return nil, nil
	}
	return gs.Clone(), nil
}

func (m *MockStorage) DeleteGameState(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.gamestates, id)
	return nil
}

func (m *MockStorage) ListCampaigns(ctx context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]string, len(m.campaigns))
	for id, c := range m.campaigns {
		result[id] = c.Name
	}
	return result, nil
}

func (m *MockStorage) GetCampaign(ctx context.Context, id string) (*campaign.Campaign, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, exists := m.campaigns[id]
	if !exists {
		return nil, fmt.Errorf("campaign %q: %w", id, campaign.ErrNotFound)
	}
	return c, nil
}

// AddCampaign adds a campaign to the mock storage (for testing)
func (m *MockStorage) AddCampaign(c *campaign.Campaign) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.campaigns[c.ID] = c
}

func (m *MockStorage) ListCharacters(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]string, 0, len(m.characters))
	for id := range m.characters {
		result = append(result, id)
	}
	slices.Sort(result)
	return result, nil
}

func (m *MockStorage) GetCharacter(ctx context.Context, id string) (*actor.CharacterSheet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, exists := m.characters[id]
	if !exists {
		return nil, fmt.Errorf("character %q: %w", id, campaign.ErrNotFound)
	}
	return s, nil
}

// AddCharacter adds a character sheet to the mock storage (for testing)
func (m *MockStorage) AddCharacter(s *actor.CharacterSheet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.characters[s.ID] = s
}
