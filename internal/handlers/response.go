package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/dungeon-engine/internal/game"
	"github.com/jwebster45206/dungeon-engine/pkg/actor"
	"github.com/jwebster45206/dungeon-engine/pkg/campaign"
	"github.com/jwebster45206/dungeon-engine/pkg/engine"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, log *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, log *slog.Logger, status int, msg string) {
	writeJSON(w, log, status, ErrorResponse{Error: msg})
}

// statusFor maps a service error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, campaign.ErrInvalid), errors.Is(err, actor.ErrInvalidSheet), errors.Is(err, game.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrNotConfigured):
		return http.StatusConflict
	case errors.Is(err, engine.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError reports err. Server-side failures are logged and their
// detail withheld from the client.
func writeServiceError(w http.ResponseWriter, log *slog.Logger, err error, msg string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error(msg, "error", err)
		writeError(w, log, status, msg)
		return
	}
	log.Debug(msg, "error", err)
	writeError(w, log, status, err.Error())
}

// writeOutcome writes a mutation result. A result that did not apply still
// carries its message, under the status its reason maps to.
func writeOutcome[R game.Result](w http.ResponseWriter, log *slog.Logger, res R) {
	status := http.StatusOK
	if err := res.Result().Reason.Err(); err != nil {
		status = statusFor(err)
	}
	writeJSON(w, log, status, res)
}
