package engine

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/dungeon-engine/pkg/campaign"
	"github.com/jwebster45206/dungeon-engine/pkg/state"
)

// ExitDetectionThreshold is the search roll that reveals a hidden exit.
const ExitDetectionThreshold = 15

// FoundExit is a hidden exit revealed by a search.
type FoundExit struct {
	Direction string        `json:"direction"`
	Exit      campaign.Exit `json:"exit"`
}

// SearchResult lists everything a search turned up. Only exits change state;
// found treasure is not collected and detected traps are not triggered.
type SearchResult struct {
	Outcome
	RoomID   string              `json:"room_id"`
	Roll     int                 `json:"roll"`
	Exits    []FoundExit         `json:"exits"`
	Treasure []campaign.Treasure `json:"treasure"`
	Traps    []campaign.Trap     `json:"traps"`
}

// Found reports whether anything turned up.
func (r SearchResult) Found() bool {
	return len(r.Exits)+len(r.Treasure)+len(r.Traps) > 0
}

// Search checks the current room against roll: hidden undiscovered exits are
// revealed at ExitDetectionThreshold, hidden treasure at its search_dc (never,
// without one), and untriggered traps are detected at their difficulty class.
func (e *Engine) Search(st *state.CampaignState, roll int) (SearchResult, error) {
	room, err := e.CurrentRoom(st)
	if err != nil {
		return SearchResult{}, err
	}
	res := SearchResult{
		RoomID:   room.ID,
		Roll:     roll,
		Exits:    []FoundExit{},
		Treasure: []campaign.Treasure{},
		Traps:    []campaign.Trap{},
	}

	for dir, x := range room.Exits.All() {
		if !x.IsHidden || st.DiscoveredExits.Has(state.ExitKey(room.ID, dir)) {
			continue
		}
		if roll >= ExitDetectionThreshold {
			res.Exits = append(res.Exits, FoundExit{Direction: dir, Exit: x})
		}
	}
	for _, t := range e.AvailableTreasure(room.ID, st) {
		if t.IsHidden && t.SearchDC != nil && roll >= *t.SearchDC {
			res.Treasure = append(res.Treasure, t)
		}
	}
	for _, t := range e.ActiveTraps(room.ID, st) {
		if roll >= t.DifficultyClass {
			res.Traps = append(res.Traps, t)
		}
	}

	for _, f := range res.Exits {
		if _, err := e.DiscoverExit(st, room.ID, f.Direction); err != nil {
			return SearchResult{}, err
		}
	}

	res.Outcome = succeed(searchMessage(res))
	return res, nil
}

func searchMessage(r SearchResult) string {
	if !r.Found() {
		return "You search carefully but find nothing."
	}
	var parts []string
	for _, f := range r.Exits {
		parts = append(parts, fmt.Sprintf("a hidden way %s", f.Direction))
	}
	for _, t := range r.Treasure {
		parts = append(parts, t.Name)
	}
	for _, t := range r.Traps {
		parts = append(parts, fmt.Sprintf("a %s trap", t.Type))
	}
	return "You find " + strings.Join(parts, ", ") + "."
}
