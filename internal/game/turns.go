package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jwebster45206/dungeon-engine/pkg/campaign"
	"github.com/jwebster45206/dungeon-engine/pkg/engine"
)

// ErrInvalidInput is returned for requests the engine cannot express.
var ErrInvalidInput = errors.New("invalid input")

// Room describes the session's current room.
func (s *Service) Room(ctx context.Context, id uuid.UUID) (*engine.RoomView, error) {
	sess, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return sess.Engine.DescribeRoom(sess.State.Campaign)
}

// roomOrCurrent resolves an empty room id to the current room.
func roomOrCurrent(sess *Session, roomID string) string {
	if roomID == "" {
		return sess.State.Campaign.CurrentRoomID
	}
	return roomID
}

// Enemies lists active enemies in roomID, or the current room when empty.
// The room listed is returned with them.
func (s *Service) Enemies(ctx context.Context, id uuid.UUID, roomID string) (string, []campaign.Enemy, error) {
	sess, err := s.Load(ctx, id)
	if err != nil {
		return "", nil, err
	}
	roomID = roomOrCurrent(sess, roomID)
	return roomID, nonNil(sess.Engine.ActiveEnemies(roomID, sess.State.Campaign)), nil
}

// Treasure lists collectable treasure in roomID, or the current room when
// empty. Hidden treasure is included. The room listed is returned with it.
func (s *Service) Treasure(ctx context.Context, id uuid.UUID, roomID string) (string, []campaign.Treasure, error) {
	sess, err := s.Load(ctx, id)
	if err != nil {
		return "", nil, err
	}
	roomID = roomOrCurrent(sess, roomID)
	return roomID, nonNil(sess.Engine.AvailableTreasure(roomID, sess.State.Campaign)), nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Move walks the player through an exit of the current room.
func (s *Service) Move(ctx context.Context, id uuid.UUID, direction string) (engine.MoveResult, error) {
	return turn(ctx, s, id, "move", func(sess *Session) (engine.MoveResult, error) {
		return sess.Engine.Move(sess.State.Campaign, direction, sess.State.Player.Inventory)
	})
}

// Search searches the current room. A nil roll rolls a d20.
func (s *Service) Search(ctx context.Context, id uuid.UUID, roll *int) (engine.SearchResult, error) {
	return turn(ctx, s, id, "search", func(sess *Session) (engine.SearchResult, error) {
		if roll != nil {
			return sess.Engine.Search(sess.State.Campaign, *roll)
		}
		return sess.Engine.Search(sess.State.Campaign, s.roller.D20())
	})
}

// Collect takes a treasure from the current room. Carried items go straight
// into the player's inventory.
func (s *Service) Collect(ctx context.Context, id uuid.UUID, treasureID string) (engine.CollectResult, error) {
	return turn(ctx, s, id, "collect", func(sess *Session) (engine.CollectResult, error) {
		res, err := sess.Engine.CollectTreasure(sess.State.Campaign, treasureID)
		if err == nil && res.Success && res.InventoryItem != "" {
			sess.State.Player.AddItem(res.InventoryItem)
		}
		return res, err
	})
}

// Unlock opens a locked exit of the current room with a key the player holds.
func (s *Service) Unlock(ctx context.Context, id uuid.UUID, direction string) (engine.UnlockResult, error) {
	return turn(ctx, s, id, "unlock", func(sess *Session) (engine.UnlockResult, error) {
		cs := sess.State.Campaign
		return sess.Engine.Unlock(cs, cs.CurrentRoomID, direction, sess.State.Player.Inventory)
	})
}

// TriggerTrap springs a trap in roomID, or the current room when empty.
func (s *Service) TriggerTrap(ctx context.Context, id uuid.UUID, roomID, trapID string) (engine.TrapResult, error) {
	return turn(ctx, s, id, "trigger_trap", func(sess *Session) (engine.TrapResult, error) {
		return sess.Engine.TriggerTrap(sess.State.Campaign, roomOrCurrent(sess, roomID), trapID)
	})
}

// DiscoverExit marks an exit discovered without a search roll.
func (s *Service) DiscoverExit(ctx context.Context, id uuid.UUID, roomID, direction string) (engine.DiscoverResult, error) {
	return turn(ctx, s, id, "discover_exit", func(sess *Session) (engine.DiscoverResult, error) {
		return sess.Engine.DiscoverExit(sess.State.Campaign, roomOrCurrent(sess, roomID), direction)
	})
}

// SetFlag sets a quest flag.
func (s *Service) SetFlag(ctx context.Context, id uuid.UUID, name string, value bool) (engine.FlagResult, error) {
	return turn(ctx, s, id, "set_flag", func(sess *Session) (engine.FlagResult, error) {
		return sess.Engine.SetQuestFlag(sess.State.Campaign, name, value)
	})
}

// EnemyAction names an enemy mutation.
type EnemyAction string

const (
	EnemyMove   EnemyAction = "move"
	EnemyPlace  EnemyAction = "place"
	EnemyDamage EnemyAction = "damage"
	EnemyDefeat EnemyAction = "defeat"
)

// EnemyRequest is one enemy mutation. RoomID is used by move and place,
// Amount by damage.
type EnemyRequest struct {
	Action  EnemyAction `json:"action"`
	EnemyID string      `json:"enemy_id"`
	RoomID  string      `json:"room_id,omitempty"`
	Amount  int         `json:"amount,omitempty"`
}

// Enemy applies an enemy mutation.
func (s *Service) Enemy(ctx context.Context, id uuid.UUID, req EnemyRequest) (engine.EnemyResult, error) {
	switch req.Action {
	case EnemyMove, EnemyPlace, EnemyDamage, EnemyDefeat:
	default:
		return engine.EnemyResult{}, fmt.Errorf("unknown enemy action %q: %w", req.Action, ErrInvalidInput)
	}

	return turn(ctx, s, id, "enemy_"+string(req.Action), func(sess *Session) (engine.EnemyResult, error) {
		cs := sess.State.Campaign
		switch req.Action {
		case EnemyMove:
			return sess.Engine.MoveEnemy(cs, req.EnemyID, req.RoomID)
		case EnemyPlace:
			return sess.Engine.PlaceEnemy(cs, req.EnemyID, req.RoomID)
		case EnemyDamage:
			return sess.Engine.DamageEnemy(cs, req.EnemyID, req.Amount)
		default:
			return sess.Engine.DefeatEnemy(cs, req.EnemyID)
		}
	})
}

// HealthResult reports a change to the player's health.
type HealthResult struct {
	engine.Outcome
	Previous    int  `json:"previous_health"`
	Current     int  `json:"new_health"`
	MaxHealth   int  `json:"max_health"`
	Unconscious bool `json:"unconscious"`
}

// UpdateHealth applies damage (negative) or healing (positive) to the player.
func (s *Service) UpdateHealth(ctx context.Context, id uuid.UUID, change int) (HealthResult, error) {
	return turn(ctx, s, id, "update_health", func(sess *Session) (HealthResult, error) {
		p := &sess.State.Player
		hc := p.UpdateHealth(change)
		return HealthResult{
			Outcome:     engine.Outcome{Success: true, Message: hc.Message},
			Previous:    hc.Previous,
			Current:     hc.Current,
			MaxHealth:   p.MaxHealth,
			Unconscious: p.IsUnconscious(),
		}, nil
	})
}
