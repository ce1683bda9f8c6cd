package state

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/jwebster45206/dungeon-engine/pkg/actor"
	"github.com/jwebster45206/dungeon-engine/pkg/campaign"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCampaign = `
name: Test Keep
starting_room: gate
rooms:
  gate:
    name: Gatehouse
    exits:
      north: yard
  yard:
    name: Courtyard
    exits:
      south: gate
      east:
        target_room_id: well
        is_hidden: true
    traps:
      - {id: tripwire, type: alarm, difficulty_class: 10}
      - {id: rockfall, type: falling, difficulty_class: 14, triggered: true}
  well:
    name: Old Well
    exits:
      west: yard
initial_enemies:
  guard:
    name: Guard
    hit_dice: "1"
    hit_points: 6
    current_room_id: yard
  wraith:
    name: Wraith
    hit_dice: 5+3
    hit_points: 30
initial_treasure:
  purse:
    name: Purse
    value: 10
    type: gold
    location_room_id: gate
`

func mustCampaign(t *testing.T) *campaign.Campaign {
	t.Helper()
	c, err := campaign.Parse([]byte(testCampaign), "keep")
	require.NoError(t, err)
	return c
}

func TestNewCampaignState(t *testing.T) {
	c := mustCampaign(t)

	cs, err := NewCampaignState(c)
	require.NoError(t, err)

	assert.Equal(t, "gate", cs.CurrentRoomID)
	assert.Equal(t, NewSet("gate"), cs.VisitedRooms)
	assert.Equal(t, map[string]string{"guard": "yard"}, cs.EnemyLocations, "unplaced enemies get no location")
	assert.Equal(t, map[string]int{"guard": 6, "wraith": 30}, cs.EnemyHealth, "every enemy gets HP")
	assert.Equal(t, NewSet("yard:rockfall"), cs.TriggeredTraps, "traps authored as triggered start sprung")
	assert.Empty(t, cs.DiscoveredExits)
	assert.NotNil(t, cs.DiscoveredExits)
	assert.NotNil(t, cs.QuestFlags)
	assert.NoError(t, cs.Validate(c))
}

func TestNewCampaignState_NotConfigured(t *testing.T) {
	cs, err := NewCampaignState(nil)
	assert.Nil(t, cs)
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func TestCampaignState_Clone(t *testing.T) {
	c := mustCampaign(t)
	cs, _ := NewCampaignState(c)

	cp := cs.Clone()
	cp.VisitedRooms.Add("yard")
	cp.QuestFlags["lit"] = true
	cp.EnemyHealth["guard"] = 1
	cp.EnemyLocations["guard"] = "gate"

	assert.False(t, cs.VisitedRooms.Has("yard"))
	assert.False(t, cs.Flag("lit"))
	assert.Equal(t, 6, cs.EnemyHealth["guard"])
	assert.Equal(t, "yard", cs.EnemyLocations["guard"])

	var nilState *CampaignState
	assert.Nil(t, nilState.Clone())
}

func TestCampaignState_JSONRoundTrip(t *testing.T) {
	c := mustCampaign(t)

	t.Run("fresh state keeps empty sets", func(t *testing.T) {
		cs, _ := NewCampaignState(c)

		data, err := json.Marshal(cs)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"discovered_exits":[]`)
		assert.NotContains(t, string(data), "null")

		var back CampaignState
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, *cs, back)
	})

	t.Run("populated state", func(t *testing.T) {
		cs, _ := NewCampaignState(c)
		cs.CurrentRoomID = "yard"
		cs.VisitedRooms.Add("yard")
		cs.DiscoveredExits.Add(ExitKey("yard", "east"))
		cs.TriggeredTraps.Add(TrapKey("yard", "tripwire"))
		cs.CollectedTreasure.Add("purse")
		cs.DefeatedEnemies.Add("guard")
		cs.QuestFlags["rang_bell"] = false
		cs.EnemyHealth["guard"] = 0

		data, err := json.Marshal(cs)
		require.NoError(t, err)

		var back CampaignState
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, *cs, back)
		assert.NoError(t, back.Validate(c))
	})

	t.Run("missing and null collections decode empty", func(t *testing.T) {
		var back CampaignState
		require.NoError(t, json.Unmarshal([]byte(`{"current_room_id":"gate","visited_rooms":null}`), &back))
		assert.NotNil(t, back.VisitedRooms)
		assert.NotNil(t, back.TriggeredTraps)
		assert.NotNil(t, back.EnemyLocations)
		assert.Equal(t, 0, back.VisitedRooms.Len())
	})
}

func TestSetMarshalsSorted(t *testing.T) {
	data, err := json.Marshal(NewSet("b", "c", "a"))
	require.NoError(t, err)
	assert.Equal(t, `["a","b","c"]`, string(data))

	var nilSet Set
	data, err = json.Marshal(nilSet)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(data))

	var s Set
	assert.True(t, s.Add("x"))
	assert.False(t, s.Add("x"), "adding twice is a no-op")
	assert.Equal(t, 1, s.Len())
	s.Remove("x")
	assert.False(t, s.Has("x"))
}

func TestCampaignState_Validate(t *testing.T) {
	c := mustCampaign(t)

	tests := []struct {
		name       string
		mutate     func(cs *CampaignState)
		collection string
	}{
		{"unknown current room", func(cs *CampaignState) { cs.CurrentRoomID = "moon" }, "current_room_id"},
		{"unknown visited room", func(cs *CampaignState) { cs.VisitedRooms.Add("moon") }, "visited_rooms"},
		{"discovered exit in unknown room", func(cs *CampaignState) { cs.DiscoveredExits.Add("moon:up") }, "discovered_exits"},
		{"malformed exit key", func(cs *CampaignState) { cs.DiscoveredExits.Add("yard") }, "discovered_exits"},
		{"unlocked unknown exit", func(cs *CampaignState) { cs.UnlockedExits.Add("yard:down") }, "unlocked_exits"},
		{"unknown defeated enemy", func(cs *CampaignState) { cs.DefeatedEnemies.Add("dragon") }, "defeated_enemies"},
		{"unknown treasure", func(cs *CampaignState) { cs.CollectedTreasure.Add("crown") }, "collected_treasure"},
		{"unknown trap", func(cs *CampaignState) { cs.TriggeredTraps.Add("yard:pit") }, "triggered_traps"},
		{"unknown enemy health", func(cs *CampaignState) { cs.EnemyHealth["dragon"] = 4 }, "active_enemy_health"},
		{"enemy in unknown room", func(cs *CampaignState) { cs.EnemyLocations["guard"] = "moon" }, "enemy_locations"},
		{"current room not visited", func(cs *CampaignState) { cs.CurrentRoomID = "well" }, "visited_rooms"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs, _ := NewCampaignState(c)
			tt.mutate(cs)

			err := cs.Validate(c)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDataIntegrity))

			var dErr *DataIntegrityError
			require.True(t, errors.As(err, &dErr))
			assert.Equal(t, tt.collection, dErr.Collection)
		})
	}

	cs, _ := NewCampaignState(c)
	assert.True(t, errors.Is(cs.Validate(nil), ErrNotConfigured))
}

func TestNewGameState(t *testing.T) {
	c := mustCampaign(t)
	player := actor.DefaultPlayer()

	gs, err := NewGameState(c, "", player)
	require.NoError(t, err)

	assert.NotEqual(t, [16]byte{}, [16]byte(gs.ID))
	assert.Equal(t, "keep", gs.CampaignID)
	assert.Equal(t, "Gatehouse", gs.World.Location)
	assert.Equal(t, "afternoon", gs.World.TimeOfDay)
	assert.Equal(t, "gate", gs.Campaign.CurrentRoomID)

	_, err = NewGameState(nil, "", player)
	assert.True(t, errors.Is(err, ErrNotConfigured))

	_, err = NewGameState(c, "", actor.PlayerStats{Name: "Ghost"})
	assert.Error(t, err)
}

func TestGameState_CloneAndJSON(t *testing.T) {
	c := mustCampaign(t)
	gs, err := NewGameState(c, "brannoc", actor.DefaultPlayer())
	require.NoError(t, err)

	cp := gs.Clone()
	cp.Player.AddItem("Lantern")
	cp.Campaign.CollectedTreasure.Add("purse")
	assert.Empty(t, gs.Player.Inventory)
	assert.False(t, gs.Campaign.CollectedTreasure.Has("purse"))

	data, err := json.Marshal(gs)
	require.NoError(t, err)
	var back GameState
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, gs.ID, back.ID)
	assert.Equal(t, "brannoc", back.CharacterID)
	assert.Equal(t, *gs.Campaign, *back.Campaign)
	assert.Equal(t, gs.Player, back.Player)
	assert.True(t, gs.CreatedAt.Equal(back.CreatedAt))
}
