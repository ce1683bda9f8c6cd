package engine

import (
	"fmt"

	"github.com/jwebster45206/dungeon-engine/pkg/state"
)

// EnemyResult reports a change to an enemy's session status.
type EnemyResult struct {
	Outcome
	EnemyID  string `json:"enemy_id"`
	RoomID   string `json:"room_id,omitempty"`
	HP       int    `json:"hp"`
	Changed  bool   `json:"changed"`
	Defeated bool   `json:"defeated"`
}

func (e *Engine) enemyHP(st *state.CampaignState, id string) int {
	if hp, ok := st.EnemyHealth[id]; ok {
		return hp
	}
	return e.c.Enemies[id].HitPoints
}

// MoveEnemy relocates a placed enemy. Enemies that were never placed are
// left alone and the call still succeeds; PlaceEnemy spawns them.
func (e *Engine) MoveEnemy(st *state.CampaignState, enemyID, roomID string) (EnemyResult, error) {
	if !e.configured(st) {
		return EnemyResult{}, ErrNotConfigured
	}
	res := EnemyResult{EnemyID: enemyID}
	enemy, ok := e.c.Enemy(enemyID)
	if !ok {
		res.Outcome = fail(ReasonNotFound, fmt.Sprintf("Unknown enemy %q.", enemyID))
		return res, nil
	}
	if _, ok := e.c.Room(roomID); !ok {
		res.Outcome = fail(ReasonNotFound, fmt.Sprintf("Unknown room %q.", roomID))
		return res, nil
	}
	res.HP = e.enemyHP(st, enemyID)
	res.Defeated = st.DefeatedEnemies.Has(enemyID)

	current, tracked := st.EnemyLocations[enemyID]
	if !tracked {
		res.Outcome = succeed(fmt.Sprintf("%s has not been placed; nothing moved.", enemy.Name))
		return res, nil
	}
	st.EnemyLocations[enemyID] = roomID
	res.RoomID = roomID
	res.Changed = current != roomID
	res.Outcome = succeed(fmt.Sprintf("%s moves to %s.", enemy.Name, roomID))
	return res, nil
}

// PlaceEnemy puts an enemy in a room whether or not it was placed before.
func (e *Engine) PlaceEnemy(st *state.CampaignState, enemyID, roomID string) (EnemyResult, error) {
	if !e.configured(st) {
		return EnemyResult{}, ErrNotConfigured
	}
	res := EnemyResult{EnemyID: enemyID}
	enemy, ok := e.c.Enemy(enemyID)
	if !ok {
		res.Outcome = fail(ReasonNotFound, fmt.Sprintf("Unknown enemy %q.", enemyID))
		return res, nil
	}
	room, ok := e.c.Room(roomID)
	if !ok {
		res.Outcome = fail(ReasonNotFound, fmt.Sprintf("Unknown room %q.", roomID))
		return res, nil
	}
	if st.DefeatedEnemies.Has(enemyID) {
		res.Defeated = true
		res.Outcome = fail(ReasonDefeated, fmt.Sprintf("%s has been defeated.", enemy.Name))
		return res, nil
	}

	res.Changed = st.EnemyLocations[enemyID] != roomID
	st.EnemyLocations[enemyID] = roomID
	if _, ok := st.EnemyHealth[enemyID]; !ok {
		st.EnemyHealth[enemyID] = enemy.HitPoints
	}
	res.RoomID = roomID
	res.HP = st.EnemyHealth[enemyID]
	res.Outcome = succeed(fmt.Sprintf("%s appears in %s.", enemy.Name, room.Name))
	return res, nil
}

// DamageEnemy lowers an enemy's session HP, never below zero. At zero the
// enemy is defeated.
func (e *Engine) DamageEnemy(st *state.CampaignState, enemyID string, amount int) (EnemyResult, error) {
	if !e.configured(st) {
		return EnemyResult{}, ErrNotConfigured
	}
	res := EnemyResult{EnemyID: enemyID}
	enemy, ok := e.c.Enemy(enemyID)
	if !ok {
		res.Outcome = fail(ReasonNotFound, fmt.Sprintf("Unknown enemy %q.", enemyID))
		return res, nil
	}
	if amount < 0 {
		res.Outcome = fail(ReasonInvalid, "Damage cannot be negative.")
		return res, nil
	}
	if st.DefeatedEnemies.Has(enemyID) {
		res.Defeated = true
		res.Outcome = fail(ReasonDefeated, fmt.Sprintf("%s has already been defeated.", enemy.Name))
		return res, nil
	}

	before := e.enemyHP(st, enemyID)
	hp := max(0, before-amount)
	st.EnemyHealth[enemyID] = hp
	res.HP = hp
	res.Changed = hp != before
	res.RoomID = st.EnemyLocations[enemyID]
	if hp == 0 {
		st.DefeatedEnemies.Add(enemyID)
		res.Defeated = true
		res.Outcome = succeed(fmt.Sprintf("%s takes %d damage and is defeated!", enemy.Name, before-hp))
		return res, nil
	}
	res.Outcome = succeed(fmt.Sprintf("%s takes %d damage (%d/%d HP).", enemy.Name, before-hp, hp, enemy.MaxHitPoints))
	return res, nil
}

// DefeatEnemy marks an enemy defeated regardless of its HP. It is idempotent.
func (e *Engine) DefeatEnemy(st *state.CampaignState, enemyID string) (EnemyResult, error) {
	if !e.configured(st) {
		return EnemyResult{}, ErrNotConfigured
	}
	res := EnemyResult{EnemyID: enemyID}
	enemy, ok := e.c.Enemy(enemyID)
	if !ok {
		res.Outcome = fail(ReasonNotFound, fmt.Sprintf("Unknown enemy %q.", enemyID))
		return res, nil
	}
	res.Changed = st.DefeatedEnemies.Add(enemyID)
	res.Defeated = true
	res.HP = e.enemyHP(st, enemyID)
	res.RoomID = st.EnemyLocations[enemyID]
	res.Outcome = succeed(fmt.Sprintf("%s is defeated.", enemy.Name))
	return res, nil
}
