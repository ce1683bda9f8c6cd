package engine

import (
	"errors"
	"testing"

	"github.com/jwebster45206/dungeon-engine/pkg/campaign"
	"github.com/jwebster45206/dungeon-engine/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Rooms A and B carry the hidden exit walk-through; the rest of the
// fixture exercises locks, traps, enemies and gated treasure.
const fixtureYAML = `
name: Three Rooms
starting_room: A
rooms:
  A:
    name: Antechamber
    description: Dust and cobwebs.
    exits:
      north: B
      west:
        target_room_id: V
        is_locked: true
        required_key: Iron Key
      down:
        target_room_id: V
        is_locked: true
  B:
    name: Barracks
    exits:
      south: A
      east:
        target_room_id: C
        is_hidden: true
    traps:
      - {id: needle, type: needle, difficulty_class: 12, damage: 1d4, save_category: poison}
      - {id: pit, type: pit, difficulty_class: 18, damage: 2d6}
  C:
    name: Chapel
    exits:
      west: B
  V:
    name: Vault
    exits:
      east: A
initial_enemies:
  orc:
    name: Orc
    hit_dice: "1"
    hit_points: 6
    current_room_id: B
  bat:
    name: Bat
    hit_dice: 1d4
    hit_points: 2
    current_room_id: B
  lurker:
    name: Lurker
    hit_dice: "4"
    hit_points: 20
initial_treasure:
  coins:
    name: Coins
    value: 12
    type: gold
    location_room_id: A
  idol:
    name: Jade Idol
    value: 200
    type: art
    location_room_id: B
    is_hidden: true
    search_dc: 14
  cache:
    name: Buried Cache
    value: 50
    type: gold
    location_room_id: B
    is_hidden: true
  sword:
    name: Sword of Dawn
    value: 500
    type: weapon
    location_room_id: C
    magic_bonus: 2
    requires: found_key
  key:
    name: Iron Key
    value: 1
    type: quest_item
    location_room_id: A
`

func fixture(t *testing.T) (*Engine, *state.CampaignState) {
	t.Helper()
	c, err := campaign.Parse([]byte(fixtureYAML), "three")
	require.NoError(t, err)
	st, err := state.NewCampaignState(c)
	require.NoError(t, err)
	return New(c), st
}

func ids[T any](items []T, id func(T) string) []string {
	out := []string{}
	for _, it := range items {
		out = append(out, id(it))
	}
	return out
}

func enemyIDs(es []campaign.Enemy) []string {
	return ids(es, func(e campaign.Enemy) string { return e.ID })
}

func treasureIDs(ts []campaign.Treasure) []string {
	return ids(ts, func(t campaign.Treasure) string { return t.ID })
}

func trapIDs(ts []campaign.Trap) []string {
	return ids(ts, func(t campaign.Trap) string { return t.ID })
}

func TestCurrentRoom(t *testing.T) {
	e, st := fixture(t)

	room, err := e.CurrentRoom(st)
	require.NoError(t, err)
	assert.Equal(t, "A", room.ID)

	st.CurrentRoomID = "nowhere"
	_, err = e.CurrentRoom(st)
	assert.True(t, errors.Is(err, ErrDataIntegrity))

	_, err = New(nil).CurrentRoom(st)
	assert.True(t, errors.Is(err, ErrNotConfigured))
	_, err = e.CurrentRoom(nil)
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func TestQueriesWithoutCampaignAreEmpty(t *testing.T) {
	_, st := fixture(t)
	e := New(nil)

	assert.Empty(t, e.ActiveEnemies("B", st))
	assert.Empty(t, e.AvailableTreasure("A", st))
	assert.Equal(t, 0, e.VisibleExits("A", st).Len())
	assert.Empty(t, e.ActiveTraps("B", st))
}

func TestActiveEnemies(t *testing.T) {
	e, st := fixture(t)

	assert.Equal(t, []string{"bat", "orc"}, enemyIDs(e.ActiveEnemies("B", st)))
	assert.Empty(t, e.ActiveEnemies("A", st))

	t.Run("hp comes from session", func(t *testing.T) {
		st.EnemyHealth["orc"] = 2
		for _, en := range e.ActiveEnemies("B", st) {
			if en.ID == "orc" {
				assert.Equal(t, 2, en.HitPoints)
			}
		}
		orc, _ := e.Campaign().Enemy("orc")
		assert.Equal(t, 6, orc.HitPoints, "static definition untouched")
	})

	t.Run("defeated enemies are gone", func(t *testing.T) {
		st.DefeatedEnemies.Add("bat")
		assert.Equal(t, []string{"orc"}, enemyIDs(e.ActiveEnemies("B", st)))
	})

	t.Run("unplaced enemy never appears", func(t *testing.T) {
		for _, room := range e.Campaign().RoomIDs() {
			assert.NotContains(t, enemyIDs(e.ActiveEnemies(room, st)), "lurker")
		}
		res, err := e.PlaceEnemy(st, "lurker", "C")
		require.NoError(t, err)
		require.True(t, res.Success)
		assert.Equal(t, []string{"lurker"}, enemyIDs(e.ActiveEnemies("C", st)))
	})
}

func TestAvailableTreasure(t *testing.T) {
	e, st := fixture(t)

	assert.Equal(t, []string{"coins", "key"}, treasureIDs(e.AvailableTreasure("A", st)))
	assert.Equal(t, []string{"cache", "idol"}, treasureIDs(e.AvailableTreasure("B", st)), "hidden treasure is still accessible")

	t.Run("quest gate", func(t *testing.T) {
		assert.Empty(t, e.AvailableTreasure("C", st))
		_, err := e.SetQuestFlag(st, "found_key", true)
		require.NoError(t, err)
		assert.Equal(t, []string{"sword"}, treasureIDs(e.AvailableTreasure("C", st)))
	})

	t.Run("collected treasure is gone", func(t *testing.T) {
		st.CollectedTreasure.Add("coins")
		assert.Equal(t, []string{"key"}, treasureIDs(e.AvailableTreasure("A", st)))
	})
}

func TestVisibleExits(t *testing.T) {
	e, st := fixture(t)

	assert.Equal(t, []string{"north", "west", "down"}, e.VisibleExits("A", st).Directions())
	assert.Equal(t, []string{"south"}, e.VisibleExits("B", st).Directions())
	assert.Equal(t, 0, e.VisibleExits("nowhere", st).Len())

	_, err := e.DiscoverExit(st, "B", "east")
	require.NoError(t, err)
	once := e.VisibleExits("B", st).Directions()
	_, err = e.DiscoverExit(st, "B", "east")
	require.NoError(t, err)
	assert.Equal(t, once, e.VisibleExits("B", st).Directions(), "discovering twice changes nothing")
	assert.Equal(t, []string{"south", "east"}, once)
}

func TestActiveTraps(t *testing.T) {
	e, st := fixture(t)

	assert.Equal(t, []string{"needle", "pit"}, trapIDs(e.ActiveTraps("B", st)))

	res, err := e.TriggerTrap(st, "B", "needle")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.False(t, res.AlreadyTriggered)
	assert.Equal(t, []string{"pit"}, trapIDs(e.ActiveTraps("B", st)))

	res, err = e.TriggerTrap(st, "B", "needle")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, res.AlreadyTriggered)
	assert.Equal(t, 1, st.TriggeredTraps.Len(), "set membership, not a counter")

	res, _ = e.TriggerTrap(st, "B", "spikes")
	assert.Equal(t, ReasonNotFound, res.Reason)
	res, _ = e.TriggerTrap(st, "Z", "needle")
	assert.Equal(t, ReasonNotFound, res.Reason)
}

func TestDescribeRoom(t *testing.T) {
	e, st := fixture(t)
	_, _ = e.Move(st, "north", nil)

	view, err := e.DescribeRoom(st)
	require.NoError(t, err)
	assert.Equal(t, "B", view.ID)
	assert.Equal(t, "Barracks", view.Name)
	require.Len(t, view.Exits, 1)
	assert.Equal(t, "south", view.Exits[0].Direction)
	assert.True(t, view.Exits[0].Visited)
	assert.Equal(t, []string{"bat", "orc"}, enemyIDs(view.Enemies))
	assert.Empty(t, view.Treasure, "hidden treasure is not described")

	_, err = New(nil).DescribeRoom(st)
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func TestFailureReasonErr(t *testing.T) {
	assert.NoError(t, ReasonNone.Err())
	assert.True(t, errors.Is(ReasonNoExit.Err(), ErrNotFound))
	assert.True(t, errors.Is(ReasonNotFound.Err(), ErrNotFound))
	assert.True(t, errors.Is(ReasonLocked.Err(), ErrForbidden))
	assert.True(t, errors.Is(ReasonAlreadyCollected.Err(), ErrForbidden))
	assert.True(t, errors.Is(ReasonQuestGated.Err(), ErrForbidden))
}
