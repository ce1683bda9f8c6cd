package engine

import (
	"fmt"

	"github.com/jwebster45206/dungeon-engine/pkg/campaign"
	"github.com/jwebster45206/dungeon-engine/pkg/state"
)

// CollectResult reports a CollectTreasure. When InventoryItem is set the
// caller owns adding it to the player's inventory.
type CollectResult struct {
	Outcome
	TreasureID    string             `json:"treasure_id"`
	Treasure      *campaign.Treasure `json:"treasure,omitempty"`
	Value         int                `json:"value,omitempty"`
	InventoryItem string             `json:"inventory_item,omitempty"`
}

// CollectTreasure takes a treasure from the current room. It fails when the
// id is unknown, already collected, elsewhere, or behind an unset quest flag.
func (e *Engine) CollectTreasure(st *state.CampaignState, treasureID string) (CollectResult, error) {
	room, err := e.CurrentRoom(st)
	if err != nil {
		return CollectResult{}, err
	}
	res := CollectResult{TreasureID: treasureID}

	t, ok := e.c.TreasureByID(treasureID)
	switch {
	case !ok:
		res.Outcome = fail(ReasonNotFound, fmt.Sprintf("There is no treasure %q.", treasureID))
		return res, nil
	case st.CollectedTreasure.Has(treasureID):
		res.Outcome = fail(ReasonAlreadyCollected, fmt.Sprintf("%s has already been collected.", t.Name))
		return res, nil
	case t.LocationRoomID != room.ID:
		res.Outcome = fail(ReasonWrongRoom, fmt.Sprintf("%s is not in %s.", t.Name, room.Name))
		return res, nil
	case t.Requires != "" && !st.Flag(t.Requires):
		res.Outcome = fail(ReasonQuestGated, fmt.Sprintf("%s cannot be taken yet.", t.Name))
		return res, nil
	}

	st.CollectedTreasure.Add(treasureID)
	res.Treasure = &t
	res.Value = t.Value
	if item, carried := t.InventoryItem(); carried {
		res.InventoryItem = item
		res.Outcome = succeed(fmt.Sprintf("You take the %s.", item))
	} else {
		res.Outcome = succeed(fmt.Sprintf("You collect %s worth %d gp.", t.Name, t.Value))
	}
	return res, nil
}
