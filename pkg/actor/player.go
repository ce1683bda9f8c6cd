package actor

import (
	"fmt"
	"slices"
	"strings"
)

// PlayerStats is the player's per-session condition and inventory.
type PlayerStats struct {
	Name      string   `json:"name"`
	Health    int      `json:"health"`
	MaxHealth int      `json:"max_health"`
	Level     int      `json:"level"`
	Inventory []string `json:"inventory"`
}

// DefaultPlayer is used when a session starts without a character sheet.
func DefaultPlayer() PlayerStats {
	return PlayerStats{
		Name:      "Adventurer",
		Health:    100,
		MaxHealth: 100,
		Level:     1,
		Inventory: []string{},
	}
}

// Validate checks health and level bounds.
func (p PlayerStats) Validate() error {
	switch {
	case p.MaxHealth < 1:
		return fmt.Errorf("max_health must be at least 1, got %d", p.MaxHealth)
	case p.Health < 0 || p.Health > p.MaxHealth:
		return fmt.Errorf("health %d is outside 0-%d", p.Health, p.MaxHealth)
	case p.Level < 1 || p.Level > 20:
		return fmt.Errorf("level %d is outside 1-20", p.Level)
	}
	return nil
}

// Clone returns a copy that shares no slices with p.
func (p PlayerStats) Clone() PlayerStats {
	out := p
	out.Inventory = slices.Clone(p.Inventory)
	if out.Inventory == nil {
		out.Inventory = []string{}
	}
	return out
}

// HealthChange reports the outcome of UpdateHealth.
type HealthChange struct {
	Previous int    `json:"previous_health"`
	Current  int    `json:"new_health"`
	Message  string `json:"message"`
}

// UpdateHealth applies damage (negative change) or healing (positive change),
// clamped to [0, MaxHealth].
func (p *PlayerStats) UpdateHealth(change int) HealthChange {
	prev := p.Health
	p.Health = max(0, min(prev+change, p.MaxHealth))

	status := fmt.Sprintf("Health: %d/%d", p.Health, p.MaxHealth)
	var msg string
	switch {
	case change < 0 && p.Health == 0:
		msg = fmt.Sprintf("%s takes %d damage and falls unconscious! %s", p.Name, prev-p.Health, status)
	case change < 0:
		msg = fmt.Sprintf("%s takes %d damage. %s", p.Name, prev-p.Health, status)
	case change > 0 && p.Health == p.MaxHealth:
		msg = fmt.Sprintf("%s heals %d HP and is fully restored! %s", p.Name, p.Health-prev, status)
	case change > 0:
		msg = fmt.Sprintf("%s heals %d HP. %s", p.Name, p.Health-prev, status)
	default:
		msg = "No health change. " + status
	}
	return HealthChange{Previous: prev, Current: p.Health, Message: msg}
}

// IsUnconscious reports whether health has reached zero.
func (p PlayerStats) IsUnconscious() bool {
	return p.Health == 0
}

// HasItem reports whether the inventory holds item, ignoring case.
func (p PlayerStats) HasItem(item string) bool {
	return p.indexOf(item) >= 0
}

// AddItem appends item to the inventory.
func (p *PlayerStats) AddItem(item string) {
	p.Inventory = append(p.Inventory, item)
}

// RemoveItem removes the first entry matching item, ignoring case.
func (p *PlayerStats) RemoveItem(item string) bool {
	i := p.indexOf(item)
	if i < 0 {
		return false
	}
	p.Inventory = slices.Delete(p.Inventory, i, i+1)
	return true
}

func (p PlayerStats) indexOf(item string) int {
	item = strings.TrimSpace(item)
	return slices.IndexFunc(p.Inventory, func(s string) bool {
		return strings.EqualFold(s, item)
	})
}
