package state

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/jwebster45206/dungeon-engine/pkg/campaign"
)

// ErrDataIntegrity is matched by every *DataIntegrityError.
var ErrDataIntegrity = errors.New("data integrity")

// DataIntegrityError reports a state reference to something the campaign does
// not define, which means the session and campaign versions have drifted.
type DataIntegrityError struct {
	Collection string // e.g. "enemy_locations"
	Key        string
	Reason     string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("data integrity: %s[%q]: %s", e.Collection, e.Key, e.Reason)
}

func (e *DataIntegrityError) Is(target error) bool {
	return target == ErrDataIntegrity
}

func dangling(collection, key, format string, args ...any) *DataIntegrityError {
	return &DataIntegrityError{Collection: collection, Key: key, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks that every id cs refers to exists in c. Keys are checked in
// sorted order, so the reported error is stable.
func (cs *CampaignState) Validate(c *campaign.Campaign) error {
	if c == nil {
		return ErrNotConfigured
	}
	if _, ok := c.Room(cs.CurrentRoomID); !ok {
		return dangling("current_room_id", cs.CurrentRoomID, "unknown room")
	}
	for _, id := range cs.VisitedRooms.Sorted() {
		if _, ok := c.Room(id); !ok {
			return dangling("visited_rooms", id, "unknown room")
		}
	}
	for _, key := range cs.DiscoveredExits.Sorted() {
		roomID, dir, ok := SplitKey(key)
		if !ok || dir == "" {
			return dangling("discovered_exits", key, "malformed exit key")
		}
		if _, ok := c.Room(roomID); !ok {
			return dangling("discovered_exits", key, "unknown room")
		}
	}
	for _, key := range cs.UnlockedExits.Sorted() {
		roomID, dir, ok := SplitKey(key)
		if !ok {
			return dangling("unlocked_exits", key, "malformed exit key")
		}
		room, ok := c.Room(roomID)
		if !ok {
			return dangling("unlocked_exits", key, "unknown room")
		}
		if _, ok := room.Exits.Get(dir); !ok {
			return dangling("unlocked_exits", key, "unknown exit")
		}
	}
	for _, id := range cs.DefeatedEnemies.Sorted() {
		if _, ok := c.Enemy(id); !ok {
			return dangling("defeated_enemies", id, "unknown enemy")
		}
	}
	for _, id := range cs.CollectedTreasure.Sorted() {
		if _, ok := c.TreasureByID(id); !ok {
			return dangling("collected_treasure", id, "unknown treasure")
		}
	}
	for _, key := range cs.TriggeredTraps.Sorted() {
		roomID, trapID, ok := SplitKey(key)
		if !ok {
			return dangling("triggered_traps", key, "malformed trap key")
		}
		room, ok := c.Room(roomID)
		if !ok {
			return dangling("triggered_traps", key, "unknown room")
		}
		if _, ok := room.Trap(trapID); !ok {
			return dangling("triggered_traps", key, "unknown trap")
		}
	}
	for _, id := range sortedKeys(cs.EnemyHealth) {
		if _, ok := c.Enemy(id); !ok {
			return dangling("active_enemy_health", id, "unknown enemy")
		}
	}
	for _, id := range sortedKeys(cs.EnemyLocations) {
		if _, ok := c.Enemy(id); !ok {
			return dangling("enemy_locations", id, "unknown enemy")
		}
		if room := cs.EnemyLocations[id]; !hasRoom(c, room) {
			return dangling("enemy_locations", id, "unknown room %q", room)
		}
	}
	if !cs.VisitedRooms.Has(cs.CurrentRoomID) {
		return dangling("visited_rooms", cs.CurrentRoomID, "current room was never visited")
	}
	return nil
}

func hasRoom(c *campaign.Campaign, id string) bool {
	_, ok := c.Room(id)
	return ok
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
