package actor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/jwebster45206/d20"
	"github.com/jwebster45206/dungeon-engine/pkg/campaign"
	"gopkg.in/yaml.v3"
)

// Weapon is a weapon on a character sheet.
type Weapon struct {
	Name         string `yaml:"name" json:"name"`
	Damage       string `yaml:"damage,omitempty" json:"damage,omitempty"` // dice notation
	MagicalBonus int    `yaml:"magical_bonus,omitempty" json:"magical_bonus,omitempty"`
}

// Armor is worn armor or a shield.
type Armor struct {
	Name            string `yaml:"name" json:"name"`
	ArmorClassBonus int    `yaml:"armor_class_bonus,omitempty" json:"armor_class_bonus,omitempty"`
	MagicalBonus    int    `yaml:"magical_bonus,omitempty" json:"magical_bonus,omitempty"`
}

// Equipment is what a character has equipped.
type Equipment struct {
	Weapons []Weapon `yaml:"weapons,omitempty" json:"weapons,omitempty"`
	Armor   *Armor   `yaml:"armor,omitempty" json:"armor,omitempty"`
	Shield  *Armor   `yaml:"shield,omitempty" json:"shield,omitempty"`
}

// CarriedItem is a stack of ordinary gear.
type CarriedItem struct {
	Name     string `yaml:"name" json:"name"`
	Quantity int    `yaml:"quantity" json:"quantity"`
}

// CharacterSheet is an AD&D style character loaded from YAML.
type CharacterSheet struct {
	ID               string                 `yaml:"-" json:"id"` // file stem
	Name             string                 `yaml:"name" json:"name"`
	Class            string                 `yaml:"character_class" json:"character_class"`
	Race             string                 `yaml:"race" json:"race"`
	Level            int                    `yaml:"level" json:"level"`
	Alignment        string                 `yaml:"alignment,omitempty" json:"alignment,omitempty"`
	ExperiencePoints int                    `yaml:"experience_points,omitempty" json:"experience_points,omitempty"`
	Abilities        campaign.AbilityScores `yaml:"ability_scores" json:"ability_scores"`
	ArmorClass       int                    `yaml:"armor_class" json:"armor_class"`
	HitPoints        int                    `yaml:"hit_points" json:"hit_points"`
	MaxHitPoints     int                    `yaml:"max_hit_points" json:"max_hit_points"`
	HitDice          string                 `yaml:"hit_dice,omitempty" json:"hit_dice,omitempty"`
	THAC0            int                    `yaml:"thac0" json:"thac0"`
	SavingThrows     campaign.SavingThrows  `yaml:"saving_throws" json:"saving_throws"`
	Equipment        Equipment              `yaml:"equipment,omitempty" json:"equipment"`
	CarriedItems     []CarriedItem          `yaml:"carried_items,omitempty" json:"carried_items,omitempty"`
	Languages        []string               `yaml:"languages,omitempty" json:"languages,omitempty"`
	Description      string                 `yaml:"description,omitempty" json:"description,omitempty"`
}

// ErrInvalidSheet wraps every character sheet decode and validation error.
var ErrInvalidSheet = errors.New("invalid character sheet")

// DecodeCharacterSheet reads a character sheet from YAML. id is usually the
// file stem and overrides anything in the document.
func DecodeCharacterSheet(r io.Reader, id string) (*CharacterSheet, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var sheet CharacterSheet
	if err := dec.Decode(&sheet); err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrInvalidSheet, id, err)
	}
	sheet.ID = id
	if sheet.MaxHitPoints == 0 {
		sheet.MaxHitPoints = sheet.HitPoints
	}
	if err := sheet.Validate(); err != nil {
		return nil, err
	}
	return &sheet, nil
}

// ParseCharacterSheet is DecodeCharacterSheet over a byte slice.
func ParseCharacterSheet(data []byte, id string) (*CharacterSheet, error) {
	return DecodeCharacterSheet(bytes.NewReader(data), id)
}

// Validate checks the ranges a sheet must satisfy to become PlayerStats.
func (s *CharacterSheet) Validate() error {
	switch {
	case s.Name == "":
		return fmt.Errorf("%w %s: name is required", ErrInvalidSheet, s.ID)
	case s.Level < 1 || s.Level > 20:
		return fmt.Errorf("%w %s: level %d is outside 1-20", ErrInvalidSheet, s.ID, s.Level)
	case s.MaxHitPoints < 1:
		return fmt.Errorf("%w %s: max_hit_points must be at least 1", ErrInvalidSheet, s.ID)
	case s.HitPoints < 0 || s.HitPoints > s.MaxHitPoints:
		return fmt.Errorf("%w %s: hit_points %d is outside 0-%d", ErrInvalidSheet, s.ID, s.HitPoints, s.MaxHitPoints)
	}
	return nil
}

// InventoryNames lists the sheet's equipment and carried items the way they
// appear in the player's inventory.
func (s *CharacterSheet) InventoryNames() []string {
	inv := make([]string, 0, len(s.Equipment.Weapons)+len(s.CarriedItems)+2)
	for _, w := range s.Equipment.Weapons {
		if w.MagicalBonus != 0 {
			inv = append(inv, fmt.Sprintf("%s %+d", w.Name, w.MagicalBonus))
			continue
		}
		inv = append(inv, w.Name)
	}
	if s.Equipment.Armor != nil {
		inv = append(inv, s.Equipment.Armor.Name)
	}
	if s.Equipment.Shield != nil {
		inv = append(inv, s.Equipment.Shield.Name)
	}
	for _, item := range s.CarriedItems {
		inv = append(inv, fmt.Sprintf("%s (x%d)", item.Name, item.Quantity))
	}
	return inv
}

// FromCharacterSheet converts a sheet to session PlayerStats.
func FromCharacterSheet(s *CharacterSheet) PlayerStats {
	return PlayerStats{
		Name:      s.Name,
		Health:    s.HitPoints,
		MaxHealth: s.MaxHitPoints,
		Level:     s.Level,
		Inventory: s.InventoryNames(),
	}
}

// PC is the runtime representation of a player character.
type PC struct {
	Sheet *CharacterSheet
	Actor *d20.Actor // built from Sheet
}

// NewPC builds a PC and its d20.Actor from a character sheet.
// Weapon bonuses become combat modifiers keyed by weapon name.
func NewPC(sheet *CharacterSheet) (*PC, error) {
	if sheet == nil {
		return nil, fmt.Errorf("sheet cannot be nil")
	}

	attrs := sheet.Abilities.Map()
	attrs["thac0"] = sheet.THAC0
	attrs["level"] = sheet.Level

	mods := make(map[string]int)
	for _, w := range sheet.Equipment.Weapons {
		if w.MagicalBonus != 0 {
			mods[w.Name] = w.MagicalBonus
		}
	}

	a, err := d20.NewActor(sheet.ID).
		WithHP(sheet.MaxHitPoints).
		WithAC(sheet.ArmorClass).
		WithAttributes(attrs).
		WithCombatModifiers(mods).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build actor: %w", err)
	}

	if sheet.HitPoints != sheet.MaxHitPoints {
		if err := a.SetHP(sheet.HitPoints); err != nil {
			return nil, fmt.Errorf("failed to set HP: %w", err)
		}
	}

	return &PC{Sheet: sheet, Actor: a}, nil
}

// MarshalJSON writes the sheet with HP and AC read from the live Actor.
func (pc *PC) MarshalJSON() ([]byte, error) {
	if pc == nil {
		return []byte("null"), nil
	}
	if pc.Actor == nil {
		return json.Marshal(pc.Sheet)
	}

	sheet := *pc.Sheet
	sheet.HitPoints = pc.Actor.HP()
	sheet.MaxHitPoints = pc.Actor.MaxHP()
	sheet.ArmorClass = pc.Actor.AC()

	type response struct {
		CharacterSheet
		CombatModifiers map[string]int `json:"combat_modifiers,omitempty"`
	}
	resp := response{CharacterSheet: sheet, CombatModifiers: make(map[string]int)}
	for _, mod := range pc.Actor.GetCombatModifiers() {
		resp.CombatModifiers[mod.Reason] = mod.Value
	}
	return json.Marshal(resp)
}

// Stats returns PlayerStats reflecting the Actor's current HP.
func (pc *PC) Stats() PlayerStats {
	ps := FromCharacterSheet(pc.Sheet)
	if pc.Actor != nil {
		ps.Health = pc.Actor.HP()
		ps.MaxHealth = pc.Actor.MaxHP()
	}
	return ps
}

