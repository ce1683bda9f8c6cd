package engine

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/dungeon-engine/pkg/campaign"
	"github.com/jwebster45206/dungeon-engine/pkg/state"
)

// TrapResult reports a TriggerTrap. Damage and saving throws are left to the
// caller; Trap carries the numbers it needs.
type TrapResult struct {
	Outcome
	Key              string         `json:"key,omitempty"`
	Trap             *campaign.Trap `json:"trap,omitempty"`
	AlreadyTriggered bool           `json:"already_triggered,omitempty"`
}

// TriggerTrap marks a trap as sprung. Triggering it again is a no-op.
func (e *Engine) TriggerTrap(st *state.CampaignState, roomID, trapID string) (TrapResult, error) {
	if !e.configured(st) {
		return TrapResult{}, ErrNotConfigured
	}
	room, ok := e.c.Room(roomID)
	if !ok {
		return TrapResult{Outcome: fail(ReasonNotFound, fmt.Sprintf("Unknown room %q.", roomID))}, nil
	}
	trap, ok := room.Trap(trapID)
	if !ok {
		return TrapResult{Outcome: fail(ReasonNotFound, fmt.Sprintf("No trap %q in %s.", trapID, room.Name))}, nil
	}

	key := state.TrapKey(roomID, trapID)
	res := TrapResult{Key: key, Trap: &trap}
	if !st.TriggeredTraps.Add(key) {
		res.AlreadyTriggered = true
		res.Outcome = succeed(fmt.Sprintf("The %s trap has already been sprung.", trap.Type))
		return res, nil
	}
	res.Outcome = succeed(fmt.Sprintf("The %s trap is sprung!", trap.Type))
	return res, nil
}

// FlagResult reports a SetQuestFlag.
type FlagResult struct {
	Outcome
	Name     string `json:"name"`
	Value    bool   `json:"value"`
	Previous bool   `json:"previous"`
}

// SetQuestFlag sets a named quest flag. Flags need no declaration.
func (e *Engine) SetQuestFlag(st *state.CampaignState, name string, value bool) (FlagResult, error) {
	if !e.configured(st) {
		return FlagResult{}, ErrNotConfigured
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return FlagResult{Outcome: fail(ReasonInvalid, "Quest flag name is empty.")}, nil
	}
	res := FlagResult{Name: name, Value: value, Previous: st.Flag(name)}
	st.QuestFlags[name] = value
	res.Outcome = succeed(fmt.Sprintf("Quest flag %s set to %t.", name, value))
	return res, nil
}
