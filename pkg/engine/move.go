package engine

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jwebster45206/dungeon-engine/pkg/campaign"
	"github.com/jwebster45206/dungeon-engine/pkg/state"
)

// MoveResult reports a Move.
type MoveResult struct {
	Outcome
	Direction   string `json:"direction,omitempty"` // exit key as authored
	From        string `json:"from"`
	To          string `json:"to,omitempty"`
	FirstVisit  bool   `json:"first_visit,omitempty"`
	CanUnlock   bool   `json:"can_unlock,omitempty"` // locked, but the key is in the inventory
	RequiredKey string `json:"required_key,omitempty"`
}

// noSuchExit is shared by absent and hidden-undiscovered exits so the two
// cases read the same.
func noSuchExit(direction string) Outcome {
	return fail(ReasonNoExit, fmt.Sprintf("No such exit: %s.", normalizeDirection(direction)))
}

// findExit resolves direction among the room's visible exits, case-insensitively.
func (e *Engine) findExit(room campaign.Room, direction string, st *state.CampaignState) (string, campaign.Exit, bool) {
	return e.VisibleExits(room.ID, st).Find(direction)
}

// Move walks the player through an exit of the current room. On success the
// player's room changes and the target is marked visited together; on
// failure st is untouched. A locked exit never opens here: with the key in
// inventory the result sets CanUnlock, and Unlock must be called first.
func (e *Engine) Move(st *state.CampaignState, direction string, inventory []string) (MoveResult, error) {
	room, err := e.CurrentRoom(st)
	if err != nil {
		return MoveResult{}, err
	}
	res := MoveResult{From: room.ID}

	dir, exit, found := e.findExit(room, direction, st)
	if !found {
		res.Outcome = noSuchExit(direction)
		return res, nil
	}
	res.Direction = dir

	if locked(room.ID, dir, exit, st) {
		res.RequiredKey = exit.RequiredKey
		switch {
		case exit.RequiredKey == "":
			res.Outcome = fail(ReasonLocked, fmt.Sprintf("The way %s is locked.", dir))
		case hasItem(inventory, exit.RequiredKey):
			res.CanUnlock = true
			res.Outcome = fail(ReasonLocked, fmt.Sprintf("The way %s is locked. You carry the %s and can unlock it.", dir, exit.RequiredKey))
		default:
			res.Outcome = fail(ReasonLocked, fmt.Sprintf("The way %s is locked, need %s.", dir, exit.RequiredKey))
		}
		return res, nil
	}

	target, ok := e.c.Room(exit.TargetRoomID)
	if !ok {
		return MoveResult{}, &state.DataIntegrityError{
			Collection: "exits",
			Key:        state.ExitKey(room.ID, dir),
			Reason:     fmt.Sprintf("target room %q does not exist", exit.TargetRoomID),
		}
	}

	st.CurrentRoomID = target.ID
	res.FirstVisit = st.VisitedRooms.Add(target.ID)
	res.To = target.ID
	res.Outcome = succeed(fmt.Sprintf("You go %s to %s.", dir, target.Name))
	return res, nil
}

// DiscoverResult reports a DiscoverExit.
type DiscoverResult struct {
	Outcome
	Key   string `json:"key,omitempty"`
	IsNew bool   `json:"is_new"`
}

// DiscoverExit records "roomID:direction" as discovered. direction resolves
// case-insensitively to the exit's authored key; a direction the room does
// not have is recorded as given. It is idempotent and does not check that
// the exit is hidden; only the room must exist.
func (e *Engine) DiscoverExit(st *state.CampaignState, roomID, direction string) (DiscoverResult, error) {
	if !e.configured(st) {
		return DiscoverResult{}, ErrNotConfigured
	}
	room, ok := e.c.Room(roomID)
	if !ok {
		return DiscoverResult{Outcome: fail(ReasonNotFound, fmt.Sprintf("Unknown room %q.", roomID))}, nil
	}
	if dir, _, found := room.Exits.Find(direction); found {
		direction = dir
	}
	key := state.ExitKey(room.ID, direction)
	res := DiscoverResult{Key: key, IsNew: st.DiscoveredExits.Add(key)}
	if res.IsNew {
		res.Outcome = succeed(fmt.Sprintf("Discovered the way %s.", direction))
	} else {
		res.Outcome = succeed(fmt.Sprintf("The way %s was already known.", direction))
	}
	return res, nil
}

// UnlockResult reports an Unlock.
type UnlockResult struct {
	Outcome
	Direction       string `json:"direction,omitempty"`
	Key             string `json:"key,omitempty"`
	AlreadyUnlocked bool   `json:"already_unlocked,omitempty"`
}

// Unlock opens a locked exit for the rest of the session by recording it in
// UnlockedExits. The exit must be visible and its required key held; the key
// is not consumed. Exits with no required key cannot be unlocked.
func (e *Engine) Unlock(st *state.CampaignState, roomID, direction string, inventory []string) (UnlockResult, error) {
	if !e.configured(st) {
		return UnlockResult{}, ErrNotConfigured
	}
	room, ok := e.c.Room(roomID)
	if !ok {
		return UnlockResult{Outcome: fail(ReasonNotFound, fmt.Sprintf("Unknown room %q.", roomID))}, nil
	}
	dir, exit, found := e.findExit(room, direction, st)
	if !found {
		return UnlockResult{Outcome: noSuchExit(direction)}, nil
	}

	key := state.ExitKey(room.ID, dir)
	res := UnlockResult{Direction: dir, Key: key}
	switch {
	case !locked(room.ID, dir, exit, st):
		res.AlreadyUnlocked = true
		res.Outcome = succeed(fmt.Sprintf("The way %s is not locked.", dir))
	case exit.RequiredKey == "":
		res.Outcome = fail(ReasonNotLockable, fmt.Sprintf("The way %s is locked and has no keyhole.", dir))
	case !hasItem(inventory, exit.RequiredKey):
		res.Outcome = fail(ReasonMissingKey, fmt.Sprintf("The way %s is locked, need %s.", dir, exit.RequiredKey))
	default:
		st.UnlockedExits.Add(key)
		res.Outcome = succeed(fmt.Sprintf("You unlock the way %s with the %s.", dir, exit.RequiredKey))
	}
	return res, nil
}

// quantitySuffix matches the " (x3)" InventoryNames appends to carried items.
var quantitySuffix = regexp.MustCompile(`\s*\(x\d+\)$`)

func hasItem(inventory []string, item string) bool {
	item = strings.TrimSpace(item)
	for _, it := range inventory {
		it = quantitySuffix.ReplaceAllString(strings.TrimSpace(it), "")
		if strings.EqualFold(it, item) {
			return true
		}
	}
	return false
}
