// Package state holds the mutable, per-session overlay on top of a static
// campaign, and the session envelope that is persisted between turns.
package state

import (
	"encoding/json"
	"errors"
	"maps"
	"strings"

	"github.com/jwebster45206/dungeon-engine/pkg/campaign"
)

// ErrNotConfigured is returned when an operation needs a campaign and none is loaded.
var ErrNotConfigured = errors.New("no campaign loaded")

// CampaignState is one session's progress through a campaign. It is only
// changed through the engine's mutation operations.
type CampaignState struct {
	CurrentRoomID     string            `json:"current_room_id"`
	VisitedRooms      Set               `json:"visited_rooms"`
	DiscoveredExits   Set               `json:"discovered_exits"` // "room:direction"
	UnlockedExits     Set               `json:"unlocked_exits"`   // "room:direction"
	DefeatedEnemies   Set               `json:"defeated_enemies"`
	CollectedTreasure Set               `json:"collected_treasure"`
	TriggeredTraps    Set               `json:"triggered_traps"` // "room:trap"
	QuestFlags        map[string]bool   `json:"quest_flags"`
	EnemyHealth       map[string]int    `json:"active_enemy_health"`
	EnemyLocations    map[string]string `json:"enemy_locations"`
}

// NewCampaignState seeds a fresh session: the player stands in the starting
// room, which counts as visited. Every enemy gets its starting HP, but only
// enemies with a home room are placed.
func NewCampaignState(c *campaign.Campaign) (*CampaignState, error) {
	if c == nil {
		return nil, ErrNotConfigured
	}

	cs := empty()
	cs.CurrentRoomID = c.StartingRoom
	cs.VisitedRooms.Add(c.StartingRoom)
	for id, e := range c.Enemies {
		cs.EnemyHealth[id] = e.HitPoints
		if e.CurrentRoomID != "" {
			cs.EnemyLocations[id] = e.CurrentRoomID
		}
	}
	for id, r := range c.Rooms {
		for _, t := range r.Traps {
			if t.Triggered {
				cs.TriggeredTraps.Add(TrapKey(id, t.ID))
			}
		}
	}
	return cs, nil
}

func empty() *CampaignState {
	return &CampaignState{
		VisitedRooms:      NewSet(),
		DiscoveredExits:   NewSet(),
		UnlockedExits:     NewSet(),
		DefeatedEnemies:   NewSet(),
		CollectedTreasure: NewSet(),
		TriggeredTraps:    NewSet(),
		QuestFlags:        make(map[string]bool),
		EnemyHealth:       make(map[string]int),
		EnemyLocations:    make(map[string]string),
	}
}

// Clone returns a deep copy sharing no collections with cs.
func (cs *CampaignState) Clone() *CampaignState {
	if cs == nil {
		return nil
	}
	out := &CampaignState{
		CurrentRoomID:     cs.CurrentRoomID,
		VisitedRooms:      cs.VisitedRooms.Clone(),
		DiscoveredExits:   cs.DiscoveredExits.Clone(),
		UnlockedExits:     cs.UnlockedExits.Clone(),
		DefeatedEnemies:   cs.DefeatedEnemies.Clone(),
		CollectedTreasure: cs.CollectedTreasure.Clone(),
		TriggeredTraps:    cs.TriggeredTraps.Clone(),
		QuestFlags:        make(map[string]bool, len(cs.QuestFlags)),
		EnemyHealth:       make(map[string]int, len(cs.EnemyHealth)),
		EnemyLocations:    make(map[string]string, len(cs.EnemyLocations)),
	}
	maps.Copy(out.QuestFlags, cs.QuestFlags)
	maps.Copy(out.EnemyHealth, cs.EnemyHealth)
	maps.Copy(out.EnemyLocations, cs.EnemyLocations)
	return out
}

// UnmarshalJSON fills any collection missing from data with an empty one.
func (cs *CampaignState) UnmarshalJSON(data []byte) error {
	type plain CampaignState
	p := plain(*empty())
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*cs = CampaignState(p)
	cs.ensure()
	return nil
}

func (cs *CampaignState) ensure() {
	for _, s := range []*Set{
		&cs.VisitedRooms, &cs.DiscoveredExits, &cs.UnlockedExits,
		&cs.DefeatedEnemies, &cs.CollectedTreasure, &cs.TriggeredTraps,
	} {
		if *s == nil {
			*s = NewSet()
		}
	}
	if cs.QuestFlags == nil {
		cs.QuestFlags = make(map[string]bool)
	}
	if cs.EnemyHealth == nil {
		cs.EnemyHealth = make(map[string]int)
	}
	if cs.EnemyLocations == nil {
		cs.EnemyLocations = make(map[string]string)
	}
}

// Flag reports whether a quest flag is set.
func (cs *CampaignState) Flag(name string) bool {
	return cs.QuestFlags[name]
}

// ExitKey is the key for a room's exit in DiscoveredExits and UnlockedExits.
func ExitKey(roomID, direction string) string {
	return roomID + ":" + direction
}

// TrapKey is the key for a trap in TriggeredTraps.
func TrapKey(roomID, trapID string) string {
	return roomID + ":" + trapID
}

// SplitKey splits a "room:rest" key. Room ids never contain a colon.
func SplitKey(key string) (roomID, rest string, ok bool) {
	return strings.Cut(key, ":")
}
