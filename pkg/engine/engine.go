// Package engine answers "what is here now" questions and applies the only
// legal changes to a session's CampaignState. It does no I/O: callers load the
// campaign and state, call the engine, and persist the result.
package engine

import (
	"slices"
	"strings"

	"github.com/jwebster45206/dungeon-engine/pkg/campaign"
	"github.com/jwebster45206/dungeon-engine/pkg/state"
)

// Engine combines one read-only campaign with the session states passed to
// its methods. An Engine holds no session data and may be shared.
type Engine struct {
	c *campaign.Campaign
}

// New returns an engine for c. A nil campaign gives an engine whose queries
// return nothing and whose mutations fail with ErrNotConfigured.
func New(c *campaign.Campaign) *Engine {
	return &Engine{c: c}
}

// Campaign returns the campaign the engine was built with.
func (e *Engine) Campaign() *campaign.Campaign {
	return e.c
}

func (e *Engine) configured(st *state.CampaignState) bool {
	return e != nil && e.c != nil && st != nil
}

// CurrentRoom resolves st.CurrentRoomID. Unlike the other queries it fails
// loudly: ErrNotConfigured without a campaign, and a *state.DataIntegrityError
// when the id is not a room.
func (e *Engine) CurrentRoom(st *state.CampaignState) (campaign.Room, error) {
	if !e.configured(st) {
		return campaign.Room{}, ErrNotConfigured
	}
	room, ok := e.c.Room(st.CurrentRoomID)
	if !ok {
		return campaign.Room{}, &state.DataIntegrityError{
			Collection: "current_room_id",
			Key:        st.CurrentRoomID,
			Reason:     "unknown room",
		}
	}
	return room, nil
}

// ActiveEnemies returns undefeated enemies whose tracked location is roomID,
// sorted by id. Hit points come from the session, never the static default.
func (e *Engine) ActiveEnemies(roomID string, st *state.CampaignState) []campaign.Enemy {
	if !e.configured(st) {
		return nil
	}
	var out []campaign.Enemy
	for _, id := range e.c.EnemyIDs() {
		if st.DefeatedEnemies.Has(id) || st.EnemyLocations[id] != roomID {
			continue
		}
		enemy := e.c.Enemies[id]
		if hp, ok := st.EnemyHealth[id]; ok {
			enemy.HitPoints = hp
		}
		enemy.CurrentRoomID = roomID
		out = append(out, enemy)
	}
	return out
}

// AvailableTreasure returns uncollected treasure in roomID whose quest gate,
// if any, is open. Hidden treasure is included: this answers "accessible",
// and Search decides what the player has noticed.
func (e *Engine) AvailableTreasure(roomID string, st *state.CampaignState) []campaign.Treasure {
	if !e.configured(st) {
		return nil
	}
	var out []campaign.Treasure
	for _, id := range e.c.TreasureIDs() {
		t := e.c.Treasure[id]
		if t.LocationRoomID != roomID || st.CollectedTreasure.Has(id) {
			continue
		}
		if t.Requires != "" && !st.Flag(t.Requires) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// VisibleExits returns the room's exits that are not hidden or have been
// discovered, in authoring order.
func (e *Engine) VisibleExits(roomID string, st *state.CampaignState) campaign.Exits {
	if !e.configured(st) {
		return campaign.Exits{}
	}
	room, ok := e.c.Room(roomID)
	if !ok {
		return campaign.Exits{}
	}
	return room.Exits.Filter(func(dir string, x campaign.Exit) bool {
		return visible(roomID, dir, x, st)
	})
}

func visible(roomID, dir string, x campaign.Exit, st *state.CampaignState) bool {
	return !x.IsHidden || st.DiscoveredExits.Has(state.ExitKey(roomID, dir))
}

func locked(roomID, dir string, x campaign.Exit, st *state.CampaignState) bool {
	return x.IsLocked && !st.UnlockedExits.Has(state.ExitKey(roomID, dir))
}

// ActiveTraps returns the room's traps that have not been triggered.
func (e *Engine) ActiveTraps(roomID string, st *state.CampaignState) []campaign.Trap {
	if !e.configured(st) {
		return nil
	}
	room, ok := e.c.Room(roomID)
	if !ok {
		return nil
	}
	var out []campaign.Trap
	for _, t := range room.Traps {
		if !st.TriggeredTraps.Has(state.TrapKey(roomID, t.ID)) {
			out = append(out, t)
		}
	}
	return out
}

// ExitView is a visible exit with its session status.
type ExitView struct {
	campaign.Exit
	Locked  bool `json:"locked"` // still locked in this session
	Visited bool `json:"visited"`
}

// RoomView is everything a narrator needs about the current room.
type RoomView struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Terrain     string              `json:"terrain,omitempty"`
	Lighting    string              `json:"lighting,omitempty"`
	Structures  []string            `json:"structures,omitempty"`
	Features    []string            `json:"interactive_features,omitempty"`
	Atmosphere  string              `json:"atmosphere,omitempty"`
	Exits       []ExitView          `json:"exits"`
	Enemies     []campaign.Enemy    `json:"enemies"`
	Treasure    []campaign.Treasure `json:"treasure"` // hidden treasure excluded
}

// DescribeRoom snapshots the current room. Hidden treasure is left out; Search
// reports it once the player finds it.
func (e *Engine) DescribeRoom(st *state.CampaignState) (*RoomView, error) {
	room, err := e.CurrentRoom(st)
	if err != nil {
		return nil, err
	}

	view := &RoomView{
		ID:          room.ID,
		Name:        room.Name,
		Description: room.Description,
		Terrain:     room.Terrain,
		Lighting:    room.Lighting,
		Structures:  slices.Clone(room.Structures),
		Features:    slices.Clone(room.Features),
		Atmosphere:  room.Atmosphere,
		Exits:       []ExitView{},
		Enemies:     e.ActiveEnemies(room.ID, st),
		Treasure:    []campaign.Treasure{},
	}
	for dir, x := range e.VisibleExits(room.ID, st).All() {
		view.Exits = append(view.Exits, ExitView{
			Exit:    x,
			Locked:  locked(room.ID, dir, x, st),
			Visited: st.VisitedRooms.Has(x.TargetRoomID),
		})
	}
	if view.Enemies == nil {
		view.Enemies = []campaign.Enemy{}
	}
	for _, t := range e.AvailableTreasure(room.ID, st) {
		if !t.IsHidden {
			view.Treasure = append(view.Treasure, t)
		}
	}
	return view, nil
}

// normalizeDirection trims and lowercases user input for messages.
func normalizeDirection(dir string) string {
	return strings.ToLower(strings.TrimSpace(dir))
}
