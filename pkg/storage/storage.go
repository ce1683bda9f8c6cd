package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/jwebster45206/dungeon-engine/pkg/actor"
	"github.com/jwebster45206/dungeon-engine/pkg/campaign"
	"github.com/jwebster45206/dungeon-engine/pkg/state"
)

// Storage defines a unified interface for all storage operations.
// Session state lives in a database (Redis or SQLite); campaigns and
// character sheets are read from the filesystem.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// GameState operations. Each save replaces the whole session, so a turn
	// is persisted entirely or not at all. LoadGameState returns nil, nil
	// when the session does not exist.
	SaveGameState(ctx context.Context, id uuid.UUID, gs *state.GameState) error
	LoadGameState(ctx context.Context, id uuid.UUID) (*state.GameState, error)
	DeleteGameState(ctx context.Context, id uuid.UUID) error

	// Campaign operations (filesystem-backed). ListCampaigns maps campaign id
	// to display name. GetCampaign returns an error wrapping
	// campaign.ErrNotFound when the file does not exist.
	ListCampaigns(ctx context.Context) (map[string]string, error)
	GetCampaign(ctx context.Context, id string) (*campaign.Campaign, error)

	// Character sheet operations (filesystem-backed). GetCharacter returns
	// the sheet only; use actor.NewPC to build the d20 actor from it.
	ListCharacters(ctx context.Context) ([]string, error)
	GetCharacter(ctx context.Context, id string) (*actor.CharacterSheet, error)
}
