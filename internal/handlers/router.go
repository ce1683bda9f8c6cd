package handlers

import (
	"log/slog"
	"net/http"

	"github.com/jwebster45206/dungeon-engine/internal/game"
	"github.com/jwebster45206/dungeon-engine/pkg/storage"
)

// NewRouter registers the API routes. metrics is served at /metrics when
// non-nil.
func NewRouter(service *game.Service, store storage.Storage, metrics http.Handler, log *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("/health", NewHealthHandler(store, log))

	campaignHandler := NewCampaignHandler(service, log)
	mux.Handle("/v1/campaigns", campaignHandler)
	mux.Handle("/v1/campaigns/", campaignHandler)

	characterHandler := NewCharacterHandler(service, log)
	mux.Handle("/v1/characters", characterHandler)
	mux.Handle("/v1/characters/", characterHandler)

	gameStateHandler := NewGameStateHandler(service, log)
	mux.Handle("/v1/gamestate", gameStateHandler)
	mux.Handle("/v1/gamestate/", gameStateHandler)

	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
	return mux
}
