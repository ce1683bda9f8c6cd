package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jwebster45206/dungeon-engine/internal/game"
	istorage "github.com/jwebster45206/dungeon-engine/internal/storage"
	"github.com/jwebster45206/dungeon-engine/pkg/actor"
	"github.com/jwebster45206/dungeon-engine/pkg/campaign"
	"github.com/jwebster45206/dungeon-engine/pkg/engine"
	"github.com/jwebster45206/dungeon-engine/pkg/state"
	"github.com/jwebster45206/dungeon-engine/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, sheets ...*actor.CharacterSheet) *httptest.Server {
	t.Helper()
	data, err := os.ReadFile("../../pkg/campaign/testdata/crypt.yaml")
	require.NoError(t, err)
	c, err := campaign.Parse(data, "crypt")
	require.NoError(t, err)

	store := storage.NewMockStorage()
	store.AddCampaign(c)
	store.AddCharacter(&actor.CharacterSheet{ID: "mira", Name: "Mira", Level: 3, ArmorClass: 6, HitPoints: 9, MaxHitPoints: 11})
	for _, sheet := range sheets {
		store.AddCharacter(sheet)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := game.NewService(store, istorage.NewCampaignCache(store, logger), logger)
	srv := httptest.NewServer(NewRouter(svc, store, nil, logger))
	t.Cleanup(srv.Close)
	return srv
}

// call sends body as JSON and decodes the response into out when non-nil.
func call(t *testing.T, srv *httptest.Server, method, path, body string, out any) int {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func createGame(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	var gs state.GameState
	require.Equal(t, http.StatusCreated, call(t, srv, http.MethodPost, "/v1/gamestate", `{"campaign_id":"crypt"}`, &gs))
	require.NotEqual(t, uuid.Nil, gs.ID)
	return "/v1/gamestate/" + gs.ID.String()
}

func TestGameStateHandler_Create(t *testing.T) {
	srv := newTestServer(t, &actor.CharacterSheet{ID: "ghost", Name: "Ghost", Level: 0, HitPoints: 4, MaxHitPoints: 4})

	tests := []struct {
		name           string
		requestBody    string
		expectedStatus int
		expectedPlayer string
	}{
		{"default adventurer", `{"campaign_id":"crypt"}`, http.StatusCreated, "Adventurer"},
		{"with character", `{"campaign_id":"crypt","character_id":"mira"}`, http.StatusCreated, "Mira"},
		{"file name is normalized", `{"campaign_id":"Crypt.yaml","character_id":" Mira "}`, http.StatusCreated, "Mira"},
		{"missing campaign_id", `{"character_id":"mira"}`, http.StatusBadRequest, ""},
		{"unknown campaign", `{"campaign_id":"atlantis"}`, http.StatusNotFound, ""},
		{"unknown character", `{"campaign_id":"crypt","character_id":"nobody"}`, http.StatusNotFound, ""},
		{"invalid character sheet", `{"campaign_id":"crypt","character_id":"ghost"}`, http.StatusBadRequest, ""},
		{"invalid JSON", `{invalid json}`, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gs state.GameState
			var out any = &gs
			if tt.expectedStatus != http.StatusCreated {
				out = &ErrorResponse{}
			}
			status := call(t, srv, http.MethodPost, "/v1/gamestate", tt.requestBody, out)
			assert.Equal(t, tt.expectedStatus, status)
			if tt.expectedStatus == http.StatusCreated {
				assert.Equal(t, tt.expectedPlayer, gs.Player.Name)
				assert.Equal(t, "chapel", gs.Campaign.CurrentRoomID)
			} else {
				assert.NotEmpty(t, out.(*ErrorResponse).Error)
			}
		})
	}
}

func TestGameStateHandler_ReadAndDelete(t *testing.T) {
	srv := newTestServer(t)
	base := createGame(t, srv)

	var gs state.GameState
	assert.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, base, "", &gs))
	assert.Equal(t, "crypt", gs.CampaignID)

	assert.Equal(t, http.StatusNoContent, call(t, srv, http.MethodDelete, base, "", nil))
	assert.Equal(t, http.StatusNotFound, call(t, srv, http.MethodGet, base, "", nil))
	assert.Equal(t, http.StatusNotFound, call(t, srv, http.MethodDelete, base, "", nil))

	assert.Equal(t, http.StatusBadRequest, call(t, srv, http.MethodGet, "/v1/gamestate/not-a-uuid", "", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, call(t, srv, http.MethodPatch, base, "{}", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, call(t, srv, http.MethodGet, "/v1/gamestate", "", nil))
}

func TestGameStateHandler_Turns(t *testing.T) {
	srv := newTestServer(t)
	base := createGame(t, srv)

	var room engine.RoomView
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, base+"/room", "", &room))
	assert.Equal(t, "chapel", room.ID)
	require.Len(t, room.Exits, 1, "the vestry door is hidden")

	var move engine.MoveResult
	assert.Equal(t, http.StatusNotFound, call(t, srv, http.MethodPost, base+"/move", `{"direction":"north"}`, &move))
	assert.False(t, move.Success)
	assert.Equal(t, engine.ReasonNoExit, move.Reason)

	var search engine.SearchResult
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodPost, base+"/search", `{"roll":15}`, &search))
	require.Len(t, search.Exits, 1)

	require.Equal(t, http.StatusOK, call(t, srv, http.MethodPost, base+"/move", `{"direction":"north"}`, &move))
	assert.True(t, move.Success)

	var treasure []campaign.Treasure
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, base+"/treasure", "", &treasure))
	require.Len(t, treasure, 1)
	assert.Equal(t, "iron_key", treasure[0].ID)

	var collect engine.CollectResult
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodPost, base+"/collect", `{"treasure_id":"iron_key"}`, &collect))
	assert.Equal(t, "Iron Key", collect.InventoryItem)
	assert.Equal(t, http.StatusForbidden, call(t, srv, http.MethodPost, base+"/collect", `{"treasure_id":"iron_key"}`, &collect))
	assert.Equal(t, engine.ReasonAlreadyCollected, collect.Reason)

	for _, dir := range []string{"south", "down"} {
		require.Equal(t, http.StatusOK, call(t, srv, http.MethodPost, base+"/move", `{"direction":"`+dir+`"}`, nil), dir)
	}

	var unlock engine.UnlockResult
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodPost, base+"/unlock", `{"direction":"east"}`, &unlock))
	assert.True(t, unlock.Success)

	var enemies []campaign.Enemy
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, base+"/enemies?room=crypt", "", &enemies))
	require.Len(t, enemies, 1)
	assert.Equal(t, "ghoul", enemies[0].ID)

	var hit engine.EnemyResult
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodPost, base+"/enemy",
		`{"action":"defeat","enemy_id":"ghoul"}`, &hit))
	assert.True(t, hit.Defeated)

	var health game.HealthResult
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodPost, base+"/health", `{"change":-15}`, &health))
	assert.Equal(t, 85, health.Current)

	var flag engine.FlagResult
	assert.Equal(t, http.StatusOK, call(t, srv, http.MethodPost, base+"/flag", `{"name":"crypt_opened","value":true}`, &flag))

	var trap engine.TrapResult
	assert.Equal(t, http.StatusOK, call(t, srv, http.MethodPost, base+"/trap", `{"trap_id":"loose_step"}`, &trap))
	assert.True(t, trap.Success)
}

func TestGameStateHandler_TurnErrors(t *testing.T) {
	srv := newTestServer(t)
	base := createGame(t, srv)

	tests := []struct {
		name, method, path, body string
		expectedStatus           int
	}{
		{"unknown action", http.MethodPost, base + "/dance", `{}`, http.StatusNotFound},
		{"unknown query", http.MethodGet, base + "/weather", "", http.StatusNotFound},
		{"bad enemy action", http.MethodPost, base + "/enemy", `{"action":"tickle","enemy_id":"ghoul"}`, http.StatusBadRequest},
		{"invalid JSON", http.MethodPost, base + "/move", `{"direction":`, http.StatusBadRequest},
		{"unknown session", http.MethodPost, "/v1/gamestate/" + uuid.NewString() + "/move", `{"direction":"down"}`, http.StatusNotFound},
		{"unknown room", http.MethodGet, base + "/enemies?room=attic", "", http.StatusOK},
		{"wrong method", http.MethodPut, base + "/move", `{}`, http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedStatus, call(t, srv, tt.method, tt.path, tt.body, nil))
		})
	}
}

func TestCampaignHandler(t *testing.T) {
	srv := newTestServer(t)

	var list []CampaignSummary
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/v1/campaigns", "", &list))
	require.Len(t, list, 1)
	assert.Equal(t, "crypt", list[0].ID)

	var c campaign.Campaign
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/v1/campaigns/crypt", "", &c))
	assert.Equal(t, "chapel", c.StartingRoom)
	assert.Contains(t, c.Rooms, "vestry")

	assert.Equal(t, http.StatusOK, call(t, srv, http.MethodPost, "/v1/campaigns/crypt/reload", "", nil))
	assert.Equal(t, http.StatusNotFound, call(t, srv, http.MethodGet, "/v1/campaigns/atlantis", "", nil))
	assert.Equal(t, http.StatusNotFound, call(t, srv, http.MethodPost, "/v1/campaigns/crypt/burn", "", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, call(t, srv, http.MethodDelete, "/v1/campaigns/crypt", "", nil))

	var chars []string
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/v1/characters", "", &chars))
	assert.Equal(t, []string{"mira"}, chars)

	var sheet actor.CharacterSheet
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/v1/characters/mira", "", &sheet))
	assert.Equal(t, "Mira", sheet.Name)
	assert.Equal(t, 9, sheet.HitPoints)
	assert.Equal(t, 6, sheet.ArmorClass)
	assert.Equal(t, http.StatusNotFound, call(t, srv, http.MethodGet, "/v1/characters/nobody", "", nil))
}

func TestNormalizeID(t *testing.T) {
	tests := map[string]string{
		"":                  "",
		"crypt":             "crypt",
		"Sunken Crypt.yaml": "sunken_crypt",
		"sunken-crypt.yml":  "sunken_crypt",
		"SunkenCrypt":       "sunkencrypt",
		"../../etc/passwd":  "etcpasswd",
		"  spaced  out  ":   "spaced_out",
		"trailing_":         "trailing",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeID(in), in)
	}
}
