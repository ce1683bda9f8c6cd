package mcp

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/jwebster45206/dungeon-engine/internal/game"
	"github.com/jwebster45206/dungeon-engine/pkg/actor"
	"github.com/jwebster45206/dungeon-engine/pkg/campaign"
	"github.com/jwebster45206/dungeon-engine/pkg/dice"
	"github.com/jwebster45206/dungeon-engine/pkg/engine"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// SessionInput names a game session.
type SessionInput struct {
	SessionID string `json:"session_id" jsonschema:"game session id returned by start_game"`
}

func (in SessionInput) session() string { return in.SessionID }

// RoomInput names a room of a session; an empty room means the current one.
type RoomInput struct {
	SessionID string `json:"session_id" jsonschema:"game session id"`
	RoomID    string `json:"room_id,omitempty" jsonschema:"room id; defaults to the player's current room"`
}

func (in RoomInput) session() string { return in.SessionID }

type DirectionInput struct {
	SessionID string `json:"session_id" jsonschema:"game session id"`
	Direction string `json:"direction" jsonschema:"exit direction as listed by get_room_details, e.g. north or down"`
}

func (in DirectionInput) session() string { return in.SessionID }

type SearchInput struct {
	SessionID string `json:"session_id" jsonschema:"game session id"`
	Roll      *int   `json:"roll,omitempty" jsonschema:"d20 result if the player rolled; omit to roll on the server"`
}

func (in SearchInput) session() string { return in.SessionID }

type CollectInput struct {
	SessionID  string `json:"session_id" jsonschema:"game session id"`
	TreasureID string `json:"treasure_id" jsonschema:"treasure id from get_available_treasure or search_room"`
}

func (in CollectInput) session() string { return in.SessionID }

type TrapInput struct {
	SessionID string `json:"session_id" jsonschema:"game session id"`
	RoomID    string `json:"room_id,omitempty" jsonschema:"room id; defaults to the current room"`
	TrapID    string `json:"trap_id" jsonschema:"trap id"`
}

func (in TrapInput) session() string { return in.SessionID }

type DiscoverInput struct {
	SessionID string `json:"session_id" jsonschema:"game session id"`
	RoomID    string `json:"room_id,omitempty" jsonschema:"room id; defaults to the current room"`
	Direction string `json:"direction" jsonschema:"direction of the hidden exit"`
}

func (in DiscoverInput) session() string { return in.SessionID }

type FlagInput struct {
	SessionID string `json:"session_id" jsonschema:"game session id"`
	Name      string `json:"name" jsonschema:"quest flag name"`
	Value     bool   `json:"value" jsonschema:"new flag value"`
}

func (in FlagInput) session() string { return in.SessionID }

type EnemyInput struct {
	SessionID string `json:"session_id" jsonschema:"game session id"`
	Action    string `json:"action" jsonschema:"one of move, place, damage, defeat"`
	EnemyID   string `json:"enemy_id" jsonschema:"enemy id"`
	RoomID    string `json:"room_id,omitempty" jsonschema:"destination room for move and place"`
	Amount    int    `json:"amount,omitempty" jsonschema:"hit points of damage for damage"`
}

func (in EnemyInput) session() string { return in.SessionID }

type HealthInput struct {
	SessionID string `json:"session_id" jsonschema:"game session id"`
	Change    int    `json:"change" jsonschema:"negative for damage, positive for healing"`
}

func (in HealthInput) session() string { return in.SessionID }

type StartGameInput struct {
	CampaignID  string `json:"campaign_id" jsonschema:"campaign id from list_campaigns"`
	CharacterID string `json:"character_id,omitempty" jsonschema:"character sheet id; omit for a default adventurer"`
}

type CharacterInput struct {
	CharacterID string `json:"character_id" jsonschema:"character sheet id"`
}

type RollDiceInput struct {
	Expression string `json:"expression" jsonschema:"dice notation such as 1d20, 2d6+3 or d8-1"`
}

type EmptyInput struct{}

// CampaignList is the output of list_campaigns.
type CampaignList struct {
	Campaigns []CampaignEntry `json:"campaigns"`
}

type CampaignEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GameStarted is the output of start_game.
type GameStarted struct {
	SessionID string            `json:"session_id"`
	Campaign  string            `json:"campaign"`
	Opening   string            `json:"opening_narrative,omitempty"`
	Player    actor.PlayerStats `json:"player"`
	Room      *engine.RoomView  `json:"room"`
}

type EnemyList struct {
	RoomID  string           `json:"room_id"`
	Enemies []campaign.Enemy `json:"enemies"`
}

type TreasureList struct {
	RoomID   string              `json:"room_id"`
	Treasure []campaign.Treasure `json:"treasure"`
}

func (s *Server) registerTools() {
	addTool(s, &sdk.Tool{
		Name:        "list_campaigns",
		Description: "Lists the campaigns a new game can be started in.",
	}, s.listCampaigns)
	addTool(s, &sdk.Tool{
		Name:        "start_game",
		Description: "Starts a new game session in a campaign and describes the starting room.",
	}, s.startGame)
	addTool(s, &sdk.Tool{
		Name:        "get_character",
		Description: "Returns a character sheet with its combat modifiers.",
	}, func(ctx context.Context, in CharacterInput) (any, error) {
		return s.service.Character(ctx, in.CharacterID)
	})
	addTool(s, &sdk.Tool{
		Name:        "roll_dice",
		Description: "Rolls dice in standard notation and returns each die and the total.",
	}, func(_ context.Context, in RollDiceInput) (dice.Roll, error) {
		return s.roller.RollNotation(in.Expression)
	})

	addSessionTool(s, &sdk.Tool{
		Name:        "get_room_details",
		Description: "Describes the player's current room: visible exits, active enemies and visible treasure.",
	}, func(ctx context.Context, id uuid.UUID, _ SessionInput) (engine.RoomView, error) {
		view, err := s.service.Room(ctx, id)
		if err != nil {
			return engine.RoomView{}, err
		}
		return *view, nil
	})
	addSessionTool(s, &sdk.Tool{
		Name:        "get_enemies_in_room",
		Description: "Lists living enemies in a room.",
	}, func(ctx context.Context, id uuid.UUID, in RoomInput) (EnemyList, error) {
		room, enemies, err := s.service.Enemies(ctx, id, in.RoomID)
		return EnemyList{RoomID: room, Enemies: enemies}, err
	})
	addSessionTool(s, &sdk.Tool{
		Name:        "get_available_treasure",
		Description: "Lists uncollected treasure in a room, hidden treasure included.",
	}, func(ctx context.Context, id uuid.UUID, in RoomInput) (TreasureList, error) {
		room, treasure, err := s.service.Treasure(ctx, id, in.RoomID)
		return TreasureList{RoomID: room, Treasure: treasure}, err
	})
	addSessionTool(s, &sdk.Tool{
		Name:        "move_player",
		Description: "Moves the player through an exit of the current room. Hidden exits must be found first and locked exits unlocked.",
	}, func(ctx context.Context, id uuid.UUID, in DirectionInput) (engine.MoveResult, error) {
		return s.service.Move(ctx, id, in.Direction)
	})
	addSessionTool(s, &sdk.Tool{
		Name:        "search_room",
		Description: "Searches the current room for hidden exits, treasure and traps against a d20 roll.",
	}, func(ctx context.Context, id uuid.UUID, in SearchInput) (engine.SearchResult, error) {
		return s.service.Search(ctx, id, in.Roll)
	})
	addSessionTool(s, &sdk.Tool{
		Name:        "collect_treasure",
		Description: "Collects a treasure in the current room into the player's inventory.",
	}, func(ctx context.Context, id uuid.UUID, in CollectInput) (engine.CollectResult, error) {
		return s.service.Collect(ctx, id, in.TreasureID)
	})
	addSessionTool(s, &sdk.Tool{
		Name:        "unlock_exit",
		Description: "Unlocks a locked exit of the current room with a key the player carries.",
	}, func(ctx context.Context, id uuid.UUID, in DirectionInput) (engine.UnlockResult, error) {
		return s.service.Unlock(ctx, id, in.Direction)
	})
	addSessionTool(s, &sdk.Tool{
		Name:        "trigger_trap",
		Description: "Springs a trap. The narrator applies its effect.",
	}, func(ctx context.Context, id uuid.UUID, in TrapInput) (engine.TrapResult, error) {
		return s.service.TriggerTrap(ctx, id, in.RoomID, in.TrapID)
	})
	addSessionTool(s, &sdk.Tool{
		Name:        "discover_exit",
		Description: "Reveals a hidden exit without a search roll, e.g. when a character points it out.",
	}, func(ctx context.Context, id uuid.UUID, in DiscoverInput) (engine.DiscoverResult, error) {
		return s.service.DiscoverExit(ctx, id, in.RoomID, in.Direction)
	})
	addSessionTool(s, &sdk.Tool{
		Name:        "set_quest_flag",
		Description: "Sets a quest flag. Some treasure can only be collected once its flag is set.",
	}, func(ctx context.Context, id uuid.UUID, in FlagInput) (engine.FlagResult, error) {
		return s.service.SetFlag(ctx, id, in.Name, in.Value)
	})
	addSessionTool(s, &sdk.Tool{
		Name:        "update_enemy",
		Description: "Moves, places, damages or defeats an enemy.",
	}, func(ctx context.Context, id uuid.UUID, in EnemyInput) (engine.EnemyResult, error) {
		return s.service.Enemy(ctx, id, game.EnemyRequest{
			Action:  game.EnemyAction(in.Action),
			EnemyID: in.EnemyID,
			RoomID:  in.RoomID,
			Amount:  in.Amount,
		})
	})
	addSessionTool(s, &sdk.Tool{
		Name:        "update_player_health",
		Description: "Applies damage or healing to the player. Health is clamped to 0 and the maximum.",
	}, func(ctx context.Context, id uuid.UUID, in HealthInput) (game.HealthResult, error) {
		return s.service.UpdateHealth(ctx, id, in.Change)
	})
}

func (s *Server) listCampaigns(ctx context.Context, _ EmptyInput) (CampaignList, error) {
	campaigns, err := s.service.ListCampaigns(ctx)
	if err != nil {
		return CampaignList{}, err
	}
	out := CampaignList{Campaigns: make([]CampaignEntry, 0, len(campaigns))}
	for id, name := range campaigns {
		out.Campaigns = append(out.Campaigns, CampaignEntry{ID: id, Name: name})
	}
	sort.Slice(out.Campaigns, func(i, j int) bool { return out.Campaigns[i].ID < out.Campaigns[j].ID })
	return out, nil
}

func (s *Server) startGame(ctx context.Context, in StartGameInput) (GameStarted, error) {
	gs, err := s.service.NewGame(ctx, in.CampaignID, in.CharacterID)
	if err != nil {
		return GameStarted{}, err
	}
	room, err := s.service.Room(ctx, gs.ID)
	if err != nil {
		return GameStarted{}, err
	}
	c, err := s.service.Campaign(ctx, gs.CampaignID)
	if err != nil {
		return GameStarted{}, err
	}
	return GameStarted{
		SessionID: gs.ID.String(),
		Campaign:  c.Name,
		Opening:   c.OpeningNarrative,
		Player:    gs.Player,
		Room:      room,
	}, nil
}
