package campaign

import "fmt"

// TreasureType tags what kind of loot a treasure is.
type TreasureType string

const (
	TreasureGold       TreasureType = "gold"
	TreasureGem        TreasureType = "gem"
	TreasureJewelry    TreasureType = "jewelry"
	TreasureArt        TreasureType = "art"
	TreasureWeapon     TreasureType = "weapon"
	TreasureArmor      TreasureType = "armor"
	TreasureConsumable TreasureType = "consumable"
	TreasureQuestItem  TreasureType = "quest_item"
	TreasureMagicItem  TreasureType = "magic_item"
	TreasureMisc       TreasureType = "misc"
)

// Valid reports whether t is a known treasure type.
func (t TreasureType) Valid() bool {
	switch t {
	case TreasureGold, TreasureGem, TreasureJewelry, TreasureArt, TreasureWeapon,
		TreasureArmor, TreasureConsumable, TreasureQuestItem, TreasureMagicItem, TreasureMisc:
		return true
	}
	return false
}

// Carried reports whether collecting a treasure of this type puts an item in
// the player's inventory.
func (t TreasureType) Carried() bool {
	switch t {
	case TreasureWeapon, TreasureArmor, TreasureConsumable, TreasureQuestItem, TreasureMagicItem:
		return true
	}
	return false
}

// Treasure is a collectable item placed in a room.
type Treasure struct {
	ID                  string       `yaml:"id" json:"id"`
	Name                string       `yaml:"name" json:"name"`
	Description         string       `yaml:"description,omitempty" json:"description,omitempty"`
	Value               int          `yaml:"value" json:"value"` // gold pieces
	Type                TreasureType `yaml:"type" json:"type"`
	LocationRoomID      string       `yaml:"location_room_id" json:"location_room_id"`
	LocationDescription string       `yaml:"location_description,omitempty" json:"location_description,omitempty"`
	Weight              float64      `yaml:"weight,omitempty" json:"weight,omitempty"`
	IsHidden            bool         `yaml:"is_hidden,omitempty" json:"is_hidden"`
	SearchDC            *int         `yaml:"search_dc,omitempty" json:"search_dc,omitempty"` // nil: search never finds it
	IsMagical           bool         `yaml:"is_magical,omitempty" json:"is_magical"`
	MagicBonus          int          `yaml:"magic_bonus,omitempty" json:"magic_bonus,omitempty"`
	MagicalEffect       string       `yaml:"magical_effect,omitempty" json:"magical_effect,omitempty"`
	Requires            string       `yaml:"requires,omitempty" json:"requires,omitempty"` // quest flag gate
}

// InventoryItem returns the inventory entry collecting t hands to the player,
// or false when t is not a carried type.
func (t Treasure) InventoryItem() (string, bool) {
	if !t.Type.Carried() {
		return "", false
	}
	if t.MagicBonus != 0 {
		return fmt.Sprintf("%s %+d", t.Name, t.MagicBonus), true
	}
	return t.Name, true
}
