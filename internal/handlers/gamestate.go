package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jwebster45206/dungeon-engine/internal/game"
)

type GameStateHandler struct {
	service *game.Service
	logger  *slog.Logger
}

func NewGameStateHandler(service *game.Service, logger *slog.Logger) *GameStateHandler {
	return &GameStateHandler{
		service: service,
		logger:  logger,
	}
}

// ServeHTTP handles HTTP requests for game sessions
// Routes:
// POST /v1/gamestate                 - Create new game state
// GET /v1/gamestate/{id}             - Read game state by ID
// DELETE /v1/gamestate/{id}          - Delete game state by ID
// GET /v1/gamestate/{id}/room        - Describe the current room
// GET /v1/gamestate/{id}/enemies     - Active enemies (?room= defaults to current)
// GET /v1/gamestate/{id}/treasure    - Collectable treasure (?room=)
// POST /v1/gamestate/{id}/{action}   - Apply a turn, see turnActions
func (h *GameStateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/gamestate"), "/")
	if path == "" {
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
			return
		}
		h.handleCreate(w, r)
		return
	}

	idStr, action, _ := strings.Cut(path, "/")
	id, err := uuid.Parse(idStr)
	if err != nil {
		h.logger.Warn("Invalid game state ID", "id", idStr, "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid game state ID format")
		return
	}

	if action == "" {
		switch r.Method {
		case http.MethodGet:
			h.handleRead(w, r, id)
		case http.MethodDelete:
			h.handleDelete(w, r, id)
		default:
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, DELETE")
		}
		return
	}

	if r.Method == http.MethodGet {
		h.handleQuery(w, r, id, action)
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	turn, ok := turnActions[action]
	if !ok {
		writeError(w, h.logger, http.StatusNotFound, "Unknown action: "+action)
		return
	}
	turn(h, w, r, id)
}

// CreateGameStateRequest defines the request body for creating a new game state
type CreateGameStateRequest struct {
	CampaignID  string `json:"campaign_id"`            // Required: campaign file stem
	CharacterID string `json:"character_id,omitempty"` // Optional: character sheet, default adventurer otherwise
}

// normalizeID converts a string to lowercase snake_case and drops a YAML
// file extension, so "Sunken Crypt.yaml" names the sunken_crypt campaign.
func normalizeID(s string) string {
	s = strings.TrimSuffix(strings.TrimSuffix(strings.TrimSpace(s), ".yaml"), ".yml")

	var out strings.Builder
	prevUnderscore := false
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			r = r + ('a' - 'A')
		}
		switch {
		case r == ' ' || r == '-' || r == '_':
			if !prevUnderscore && i > 0 {
				out.WriteRune('_')
				prevUnderscore = true
			}
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			out.WriteRune(r)
			prevUnderscore = false
		}
	}
	return strings.TrimSuffix(out.String(), "_")
}

// Normalize normalizes all ID fields to lowercase snake_case
func (req *CreateGameStateRequest) Normalize() {
	req.CampaignID = normalizeID(req.CampaignID)
	req.CharacterID = normalizeID(req.CharacterID)
}

func (h *GameStateHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateGameStateRequest
	if !h.decode(w, r, &req) {
		return
	}
	req.Normalize()

	if req.CampaignID == "" {
		h.logger.Warn("Missing required field: campaign_id")
		writeError(w, h.logger, http.StatusBadRequest, "campaign_id field is required")
		return
	}

	gs, err := h.service.NewGame(r.Context(), req.CampaignID, req.CharacterID)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to create game state")
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, gs)
}

func (h *GameStateHandler) handleRead(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	sess, err := h.service.Load(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to load game state")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, sess.State)
}

func (h *GameStateHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, err, "Failed to delete game state")
		return
	}
	h.logger.Debug("Game state deleted successfully", "id", id.String())
	w.WriteHeader(http.StatusNoContent)
}

func (h *GameStateHandler) handleQuery(w http.ResponseWriter, r *http.Request, id uuid.UUID, what string) {
	ctx := r.Context()
	roomID := r.URL.Query().Get("room")

	var (
		out any
		err error
	)
	switch what {
	case "room":
		out, err = h.service.Room(ctx, id)
	case "enemies":
		_, out, err = h.service.Enemies(ctx, id, roomID)
	case "treasure":
		_, out, err = h.service.Treasure(ctx, id, roomID)
	default:
		writeError(w, h.logger, http.StatusNotFound, "Unknown query: "+what)
		return
	}
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to query game state")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, out)
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func (h *GameStateHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	h.logger.Warn("Invalid JSON in request body", "error", err)
	writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
	return false
}

type MoveRequest struct {
	Direction string `json:"direction"`
}

type SearchRequest struct {
	Roll *int `json:"roll,omitempty"` // omitted: the server rolls a d20
}

type CollectRequest struct {
	TreasureID string `json:"treasure_id"`
}

type TrapRequest struct {
	RoomID string `json:"room_id,omitempty"`
	TrapID string `json:"trap_id"`
}

type DiscoverRequest struct {
	RoomID    string `json:"room_id,omitempty"`
	Direction string `json:"direction"`
}

type FlagRequest struct {
	Name  string `json:"name"`
	Value bool   `json:"value"`
}

type HealthChangeRequest struct {
	Change int `json:"change"`
}

type turnFunc func(h *GameStateHandler, w http.ResponseWriter, r *http.Request, id uuid.UUID)

var turnActions = map[string]turnFunc{
	"move": handleTurn(func(ctx context.Context, s *game.Service, id uuid.UUID, req MoveRequest) (game.Result, error) {
		return s.Move(ctx, id, req.Direction)
	}),
	"search": handleTurn(func(ctx context.Context, s *game.Service, id uuid.UUID, req SearchRequest) (game.Result, error) {
		return s.Search(ctx, id, req.Roll)
	}),
	"collect": handleTurn(func(ctx context.Context, s *game.Service, id uuid.UUID, req CollectRequest) (game.Result, error) {
		return s.Collect(ctx, id, req.TreasureID)
	}),
	"unlock": handleTurn(func(ctx context.Context, s *game.Service, id uuid.UUID, req MoveRequest) (game.Result, error) {
		return s.Unlock(ctx, id, req.Direction)
	}),
	"trap": handleTurn(func(ctx context.Context, s *game.Service, id uuid.UUID, req TrapRequest) (game.Result, error) {
		return s.TriggerTrap(ctx, id, req.RoomID, req.TrapID)
	}),
	"discover": handleTurn(func(ctx context.Context, s *game.Service, id uuid.UUID, req DiscoverRequest) (game.Result, error) {
		return s.DiscoverExit(ctx, id, req.RoomID, req.Direction)
	}),
	"flag": handleTurn(func(ctx context.Context, s *game.Service, id uuid.UUID, req FlagRequest) (game.Result, error) {
		return s.SetFlag(ctx, id, req.Name, req.Value)
	}),
	"enemy": handleTurn(func(ctx context.Context, s *game.Service, id uuid.UUID, req game.EnemyRequest) (game.Result, error) {
		return s.Enemy(ctx, id, req)
	}),
	"health": handleTurn(func(ctx context.Context, s *game.Service, id uuid.UUID, req HealthChangeRequest) (game.Result, error) {
		return s.UpdateHealth(ctx, id, req.Change)
	}),
}

// handleTurn decodes a Req body and applies one turn with it.
func handleTurn[Req any](apply func(context.Context, *game.Service, uuid.UUID, Req) (game.Result, error)) turnFunc {
	return func(h *GameStateHandler, w http.ResponseWriter, r *http.Request, id uuid.UUID) {
		var req Req
		if !h.decode(w, r, &req) {
			return
		}
		res, err := apply(r.Context(), h.service, id, req)
		if err != nil {
			writeServiceError(w, h.logger, err, "Failed to apply turn")
			return
		}
		writeOutcome(w, h.logger, res)
	}
}
