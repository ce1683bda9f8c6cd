package state

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/dungeon-engine/pkg/actor"
	"github.com/jwebster45206/dungeon-engine/pkg/campaign"
)

// WorldState is ambient narration context for a session.
type WorldState struct {
	Location  string `json:"location"`
	TimeOfDay string `json:"time_of_day"` // morning, afternoon, evening, night
	Weather   string `json:"weather,omitempty"`
}

// GameState is everything persisted for one session.
type GameState struct {
	ID          uuid.UUID         `json:"id"`                     // Unique ID per session
	CampaignID  string            `json:"campaign_id"`            // Campaign file stem
	CharacterID string            `json:"character_id,omitempty"` // Character sheet file stem, if any
	Campaign    *CampaignState    `json:"campaign_state"`
	Player      actor.PlayerStats `json:"player"`
	World       WorldState        `json:"world"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// NewGameState starts a session in c with the given player.
func NewGameState(c *campaign.Campaign, characterID string, player actor.PlayerStats) (*GameState, error) {
	cs, err := NewCampaignState(c)
	if err != nil {
		return nil, err
	}
	if err := player.Validate(); err != nil {
		return nil, fmt.Errorf("invalid player: %w", err)
	}

	now := time.Now()
	gs := &GameState{
		ID:          uuid.New(),
		CampaignID:  c.ID,
		CharacterID: characterID,
		Campaign:    cs,
		Player:      player.Clone(),
		World:       WorldState{TimeOfDay: "afternoon"},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	gs.SyncLocation(c)
	return gs, nil
}

// SyncLocation sets World.Location to the current room's name.
func (gs *GameState) SyncLocation(c *campaign.Campaign) {
	if room, ok := c.Room(gs.Campaign.CurrentRoomID); ok {
		gs.World.Location = room.Name
	}
}

// Clone returns a deep copy.
func (gs *GameState) Clone() *GameState {
	if gs == nil {
		return nil
	}
	out := *gs
	out.Campaign = gs.Campaign.Clone()
	out.Player = gs.Player.Clone()
	return &out
}
