package engine

import (
	"errors"

	"github.com/jwebster45206/dungeon-engine/pkg/campaign"
	"github.com/jwebster45206/dungeon-engine/pkg/state"
)

// Program-level failures. Gameplay misses such as a wrong direction are
// reported in result values instead; only ErrNotConfigured and
// ErrDataIntegrity are ever returned as errors by the engine.
var (
	ErrNotConfigured = state.ErrNotConfigured
	ErrDataIntegrity = state.ErrDataIntegrity
	ErrNotFound      = campaign.ErrNotFound
	ErrForbidden     = errors.New("forbidden")
)

// FailureReason says why a mutation did not apply.
type FailureReason string

const (
	ReasonNone             FailureReason = ""
	ReasonNoExit           FailureReason = "no_exit"
	ReasonNotFound         FailureReason = "not_found"
	ReasonLocked           FailureReason = "locked"
	ReasonMissingKey       FailureReason = "missing_key"
	ReasonNotLockable      FailureReason = "not_lockable"
	ReasonAlreadyCollected FailureReason = "already_collected"
	ReasonWrongRoom        FailureReason = "wrong_room"
	ReasonQuestGated       FailureReason = "quest_gated"
	ReasonDefeated         FailureReason = "defeated"
	ReasonInvalid          FailureReason = "invalid"
)

// Err maps r onto the error taxonomy, for callers that surface failures as
// errors (HTTP status codes, tool errors). It returns nil for ReasonNone.
func (r FailureReason) Err() error {
	switch r {
	case ReasonNone:
		return nil
	case ReasonNoExit, ReasonNotFound:
		return ErrNotFound
	default:
		return ErrForbidden
	}
}

// Outcome is embedded in every mutation result.
type Outcome struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Reason  FailureReason `json:"reason,omitempty"`
}

// Result returns the outcome shared by every mutation result type.
func (o Outcome) Result() Outcome {
	return o
}

func succeed(msg string) Outcome {
	return Outcome{Success: true, Message: msg}
}

func fail(r FailureReason, msg string) Outcome {
	return Outcome{Reason: r, Message: msg}
}
