package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jwebster45206/d20"
	"github.com/jwebster45206/dungeon-engine/internal/game"
	istorage "github.com/jwebster45206/dungeon-engine/internal/storage"
	"github.com/jwebster45206/dungeon-engine/pkg/actor"
	"github.com/jwebster45206/dungeon-engine/pkg/campaign"
	"github.com/jwebster45206/dungeon-engine/pkg/dice"
	"github.com/jwebster45206/dungeon-engine/pkg/engine"
	"github.com/jwebster45206/dungeon-engine/pkg/storage"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type toolCall struct{ tool, status string }

type fakeToolRecorder struct {
	mu    sync.Mutex
	calls []toolCall
}

func (r *fakeToolRecorder) RecordToolCall(_ context.Context, tool, status string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, toolCall{tool, status})
}

func connect(t *testing.T, opts ...Option) *sdk.ClientSession {
	t.Helper()
	data, err := os.ReadFile("../../pkg/campaign/testdata/crypt.yaml")
	require.NoError(t, err)
	c, err := campaign.Parse(data, "crypt")
	require.NoError(t, err)

	store := storage.NewMockStorage()
	store.AddCampaign(c)
	store.AddCharacter(&actor.CharacterSheet{ID: "mira", Name: "Mira", Level: 3, ArmorClass: 6, HitPoints: 9, MaxHitPoints: 11})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := game.NewService(store, istorage.NewCampaignCache(store, logger), logger, game.WithRoller(dice.NewSeeded(1)))
	srv := NewServer(svc, logger, "test", opts...)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	serverTransport, clientTransport := sdk.NewInMemoryTransports()
	_, err = srv.server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := sdk.NewClient(&sdk.Implementation{Name: "client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

// callTool calls a tool and decodes its structured output into out.
func callTool(t *testing.T, cs *sdk.ClientSession, name string, args map[string]any, out any) *sdk.CallToolResult {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &sdk.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	if out != nil {
		require.False(t, res.IsError, "%s failed: %s", name, errorText(res))
		data, err := json.Marshal(res.StructuredContent)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, out))
	}
	return res
}

func errorText(res *sdk.CallToolResult) string {
	for _, c := range res.Content {
		if text, ok := c.(*sdk.TextContent); ok {
			return text.Text
		}
	}
	return ""
}

func startGame(t *testing.T, cs *sdk.ClientSession) string {
	t.Helper()
	var started GameStarted
	callTool(t, cs, "start_game", map[string]any{"campaign_id": "crypt"}, &started)
	require.NotEmpty(t, started.SessionID)
	return started.SessionID
}

func TestListTools(t *testing.T) {
	cs := connect(t)

	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, tool := range res.Tools {
		names[tool.Name] = true
		assert.NotEmpty(t, tool.Description, tool.Name)
		assert.NotNil(t, tool.InputSchema, tool.Name)
	}
	for _, want := range []string{
		"get_room_details", "get_enemies_in_room", "get_available_treasure",
		"move_player", "search_room", "collect_treasure", "unlock_exit", "roll_dice",
		"start_game", "list_campaigns", "update_player_health", "update_enemy",
	} {
		assert.True(t, names[want], "missing tool %s", want)
	}
}

func TestStartGameAndListCampaigns(t *testing.T) {
	cs := connect(t)

	var list CampaignList
	callTool(t, cs, "list_campaigns", map[string]any{}, &list)
	require.Len(t, list.Campaigns, 1)
	assert.Equal(t, "crypt", list.Campaigns[0].ID)
	assert.NotEmpty(t, list.Campaigns[0].Name)

	var started GameStarted
	callTool(t, cs, "start_game", map[string]any{"campaign_id": "crypt", "character_id": "mira"}, &started)
	assert.Equal(t, "Mira", started.Player.Name)
	require.NotNil(t, started.Room)
	assert.Equal(t, "chapel", started.Room.ID)

	res := callTool(t, cs, "start_game", map[string]any{"campaign_id": "atlantis"}, nil)
	assert.True(t, res.IsError)
	assert.Contains(t, errorText(res), "not found")
}

func TestExploration(t *testing.T) {
	cs := connect(t)
	id := startGame(t, cs)

	var room engine.RoomView
	callTool(t, cs, "get_room_details", map[string]any{"session_id": id}, &room)
	assert.Equal(t, "chapel", room.ID)

	var move engine.MoveResult
	callTool(t, cs, "move_player", map[string]any{"session_id": id, "direction": "north"}, &move)
	assert.False(t, move.Success, "a failed move is a result, not a tool error")
	assert.Equal(t, engine.ReasonNoExit, move.Reason)

	var search engine.SearchResult
	callTool(t, cs, "search_room", map[string]any{"session_id": id, "roll": 20}, &search)
	assert.Equal(t, 20, search.Roll)
	require.Len(t, search.Exits, 1)

	callTool(t, cs, "move_player", map[string]any{"session_id": id, "direction": "north"}, &move)
	require.True(t, move.Success)

	var treasure TreasureList
	callTool(t, cs, "get_available_treasure", map[string]any{"session_id": id}, &treasure)
	assert.Equal(t, "vestry", treasure.RoomID, "omitted room resolves to the current room")
	require.Len(t, treasure.Treasure, 1)

	var collect engine.CollectResult
	callTool(t, cs, "collect_treasure", map[string]any{"session_id": id, "treasure_id": "iron_key"}, &collect)
	assert.Equal(t, "Iron Key", collect.InventoryItem)

	for _, dir := range []string{"south", "down"} {
		callTool(t, cs, "move_player", map[string]any{"session_id": id, "direction": dir}, &move)
		require.True(t, move.Success, dir)
	}

	var unlock engine.UnlockResult
	callTool(t, cs, "unlock_exit", map[string]any{"session_id": id, "direction": "east"}, &unlock)
	assert.True(t, unlock.Success)

	var enemies EnemyList
	callTool(t, cs, "get_enemies_in_room", map[string]any{"session_id": id}, &enemies)
	assert.Equal(t, "stairs", enemies.RoomID)

	callTool(t, cs, "get_enemies_in_room", map[string]any{"session_id": id, "room_id": "crypt"}, &enemies)
	assert.Equal(t, "crypt", enemies.RoomID)
	require.Len(t, enemies.Enemies, 1)
	assert.Equal(t, "ghoul", enemies.Enemies[0].ID)

	var hit engine.EnemyResult
	callTool(t, cs, "update_enemy", map[string]any{"session_id": id, "action": "damage", "enemy_id": "ghoul", "amount": 3}, &hit)
	assert.True(t, hit.Success)

	var health game.HealthResult
	callTool(t, cs, "update_player_health", map[string]any{"session_id": id, "change": -120}, &health)
	assert.Equal(t, 0, health.Current)
	assert.True(t, health.Unconscious)
}

func TestSessionErrors(t *testing.T) {
	cs := connect(t)

	res := callTool(t, cs, "get_room_details", map[string]any{"session_id": "nope"}, nil)
	assert.True(t, res.IsError)
	assert.Contains(t, errorText(res), "not a valid session id")

	res = callTool(t, cs, "get_room_details", map[string]any{"session_id": "0b6b1bd4-3d5e-4b8c-9b43-52f4b7e3a1c2"}, nil)
	assert.True(t, res.IsError)
	assert.Contains(t, errorText(res), "start_game")

	id := startGame(t, cs)
	res = callTool(t, cs, "update_enemy", map[string]any{"session_id": id, "action": "tickle", "enemy_id": "ghoul"}, nil)
	assert.True(t, res.IsError)
}

func TestRollDice(t *testing.T) {
	rec := &fakeToolRecorder{}
	cs := connect(t, WithRoller(dice.NewSeeded(4)), WithToolRecorder(rec))

	want, err := d20.NewRoller(4).Roll("2d6+3")
	require.NoError(t, err)

	var roll dice.Roll
	callTool(t, cs, "roll_dice", map[string]any{"expression": "2d6+3"}, &roll)
	assert.Equal(t, want.DiceRolls, roll.Rolls)
	assert.Equal(t, want.Value, roll.Total)
	assert.Equal(t, want.Detail, roll.Detail)

	res := callTool(t, cs, "roll_dice", map[string]any{"expression": "fireball"}, nil)
	assert.True(t, res.IsError)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []toolCall{{"roll_dice", "ok"}, {"roll_dice", "error"}}, rec.calls)
}

func TestCampaignResource(t *testing.T) {
	cs := connect(t)
	ctx := context.Background()

	res, err := cs.ReadResource(ctx, &sdk.ReadResourceParams{URI: "campaign://crypt"})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)

	var c campaign.Campaign
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &c))
	assert.Equal(t, "chapel", c.StartingRoom)

	_, err = cs.ReadResource(ctx, &sdk.ReadResourceParams{URI: "campaign://atlantis"})
	assert.Error(t, err)
}
