package main

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jwebster45206/dungeon-engine/internal/game"
	"github.com/jwebster45206/dungeon-engine/internal/handlers"
	istorage "github.com/jwebster45206/dungeon-engine/internal/storage"
	"github.com/jwebster45206/dungeon-engine/pkg/campaign"
	"github.com/jwebster45206/dungeon-engine/pkg/dice"
	"github.com/jwebster45206/dungeon-engine/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()
	data, err := os.ReadFile("../../pkg/campaign/testdata/crypt.yaml")
	require.NoError(t, err)
	c, err := campaign.Parse(data, "crypt")
	require.NoError(t, err)

	store := storage.NewMockStorage()
	store.AddCampaign(c)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := game.NewService(store, istorage.NewCampaignCache(store, logger), logger, game.WithRoller(dice.NewSeeded(1)))
	srv := httptest.NewServer(handlers.NewRouter(svc, store, nil, logger))
	t.Cleanup(srv.Close)
	return newAPIClient(srv.Client(), srv.URL)
}

func TestAPIClient_Session(t *testing.T) {
	api := newTestAPI(t)
	require.True(t, api.testConnection())

	campaigns, err := api.listCampaigns()
	require.NoError(t, err)
	require.Len(t, campaigns, 1)
	assert.Equal(t, "crypt", campaigns[0].ID)

	c, err := api.getCampaign("crypt")
	require.NoError(t, err)
	assert.Equal(t, "The Sunken Crypt", c.Name)

	gs, err := api.createGameState("crypt", "")
	require.NoError(t, err)

	room, err := api.getRoom(gs.ID)
	require.NoError(t, err)
	assert.Equal(t, "chapel", room.ID)

	res, err := api.turn(gs.ID, "move", map[string]any{"direction": "north"})
	require.NoError(t, err, "a refused move is a result")
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Message)

	res, err = api.turn(gs.ID, "search", map[string]any{"roll": 20})
	require.NoError(t, err)
	assert.True(t, res.Success)

	res, err = api.turn(gs.ID, "move", map[string]any{"direction": "north"})
	require.NoError(t, err)
	assert.True(t, res.Success)

	treasure, err := api.getTreasure(gs.ID)
	require.NoError(t, err)
	require.Len(t, treasure, 1)
	assert.Equal(t, "iron_key", treasure[0].ID)

	enemies, err := api.getEnemies(gs.ID)
	require.NoError(t, err)
	assert.Empty(t, enemies)

	got, err := api.getGameState(gs.ID)
	require.NoError(t, err)
	assert.Equal(t, "vestry", got.Campaign.CurrentRoomID)
}

func TestAPIClient_Errors(t *testing.T) {
	api := newTestAPI(t)

	_, err := api.createGameState("atlantis", "")
	assert.Error(t, err)

	_, err = api.getGameState(uuid.New())
	assert.Error(t, err)

	_, err = api.turn(uuid.New(), "move", map[string]any{"direction": "north"})
	assert.Error(t, err, "a missing session is an error, not a refused turn")

	_, err = api.getCampaign("atlantis")
	assert.Error(t, err)

	offline := newAPIClient(api.client, "http://127.0.0.1:1")
	assert.False(t, offline.testConnection())
}
