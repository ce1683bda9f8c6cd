package handlers

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/jwebster45206/dungeon-engine/internal/game"
)

// CampaignSummary is one entry of the campaign list.
type CampaignSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type CampaignHandler struct {
	service *game.Service
	logger  *slog.Logger
}

func NewCampaignHandler(service *game.Service, logger *slog.Logger) *CampaignHandler {
	return &CampaignHandler{
		service: service,
		logger:  logger,
	}
}

// ServeHTTP handles campaign requests.
// Routes:
// GET /v1/campaigns              - List campaigns
// GET /v1/campaigns/{id}         - Campaign definition
// POST /v1/campaigns/{id}/reload - Re-read a campaign file
func (h *CampaignHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/campaigns"), "/")
	id, action, _ := strings.Cut(path, "/")

	switch {
	case id == "" && r.Method == http.MethodGet:
		h.handleList(w, r)
	case id != "" && action == "" && r.Method == http.MethodGet:
		h.handleGet(w, r, id)
	case id != "" && action == "reload" && r.Method == http.MethodPost:
		h.handleReload(w, r, id)
	case id != "" && action != "" && action != "reload":
		writeError(w, h.logger, http.StatusNotFound, "Unknown campaign action: "+action)
	default:
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *CampaignHandler) handleList(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.service.ListCampaigns(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to list campaigns")
		return
	}

	out := make([]CampaignSummary, 0, len(campaigns))
	for id, name := range campaigns {
		out = append(out, CampaignSummary{ID: id, Name: name})
	}
	slices.SortFunc(out, func(a, b CampaignSummary) int { return strings.Compare(a.ID, b.ID) })
	writeJSON(w, h.logger, http.StatusOK, out)
}

func (h *CampaignHandler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	c, err := h.service.Campaign(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to load campaign")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, c)
}

func (h *CampaignHandler) handleReload(w http.ResponseWriter, r *http.Request, id string) {
	c, err := h.service.ReloadCampaign(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to reload campaign")
		return
	}
	h.logger.Info("Campaign reloaded", "campaign_id", id)
	writeJSON(w, h.logger, http.StatusOK, c)
}

type CharacterHandler struct {
	service *game.Service
	logger  *slog.Logger
}

func NewCharacterHandler(service *game.Service, logger *slog.Logger) *CharacterHandler {
	return &CharacterHandler{
		service: service,
		logger:  logger,
	}
}

// ServeHTTP handles character requests.
// Routes:
// GET /v1/characters      - List character sheet ids
// GET /v1/characters/{id} - Character sheet with combat modifiers
func (h *CharacterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/characters"), "/")
	if id != "" {
		pc, err := h.service.Character(r.Context(), id)
		if err != nil {
			writeServiceError(w, h.logger, err, "Failed to load character")
			return
		}
		writeJSON(w, h.logger, http.StatusOK, pc)
		return
	}

	ids, err := h.service.ListCharacters(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to list characters")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, ids)
}
