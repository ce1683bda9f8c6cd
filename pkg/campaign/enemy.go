package campaign

import "gopkg.in/yaml.v3"

// AbilityScores are the six classic ability scores, each 1–18.
type AbilityScores struct {
	Strength     int `yaml:"strength" json:"strength"`
	Intelligence int `yaml:"intelligence" json:"intelligence"`
	Wisdom       int `yaml:"wisdom" json:"wisdom"`
	Dexterity    int `yaml:"dexterity" json:"dexterity"`
	Constitution int `yaml:"constitution" json:"constitution"`
	Charisma     int `yaml:"charisma" json:"charisma"`
}

// Map returns the scores keyed by their lowercase names.
func (a AbilityScores) Map() map[string]int {
	return map[string]int{
		"strength":     a.Strength,
		"intelligence": a.Intelligence,
		"wisdom":       a.Wisdom,
		"dexterity":    a.Dexterity,
		"constitution": a.Constitution,
		"charisma":     a.Charisma,
	}
}

// SavingThrows holds the five saving-throw targets. Zero means unspecified.
type SavingThrows struct {
	ParalyzationPoisonDeath int `yaml:"paralyzation_poison_death" json:"paralyzation_poison_death"`
	RodStaffWand            int `yaml:"rod_staff_wand" json:"rod_staff_wand"`
	PetrificationPolymorph  int `yaml:"petrification_polymorph" json:"petrification_polymorph"`
	BreathWeapon            int `yaml:"breath_weapon" json:"breath_weapon"`
	Spell                   int `yaml:"spell" json:"spell"`
}

// Enemy is a hostile creature. HitPoints and CurrentRoomID are the campaign's
// starting values; per-session HP and location are tracked in the session state.
type Enemy struct {
	ID               string        `yaml:"id" json:"id"`
	Name             string        `yaml:"name" json:"name"`
	Type             string        `yaml:"type,omitempty" json:"type,omitempty"`
	Description      string        `yaml:"description,omitempty" json:"description,omitempty"`
	Abilities        AbilityScores `yaml:"abilities" json:"abilities"`
	HitDice          string        `yaml:"hit_dice" json:"hit_dice"`
	HitPoints        int           `yaml:"hit_points" json:"hit_points"`
	MaxHitPoints     int           `yaml:"max_hit_points" json:"max_hit_points"`
	ArmorClass       int           `yaml:"armor_class" json:"armor_class"` // lower is better
	THAC0            int           `yaml:"thac0" json:"thac0"`
	AttacksPerRound  int           `yaml:"attacks_per_round" json:"attacks_per_round"`
	Damage           []string      `yaml:"damage,omitempty" json:"damage,omitempty"` // one dice expression per attack
	MovementRate     int           `yaml:"movement_rate,omitempty" json:"movement_rate,omitempty"`
	SpecialAbilities []string      `yaml:"special_abilities,omitempty" json:"special_abilities,omitempty"`
	SavingThrows     SavingThrows  `yaml:"saving_throws" json:"saving_throws"`
	TreasureType     string        `yaml:"treasure_type,omitempty" json:"treasure_type,omitempty"`
	IsAlive          bool          `yaml:"is_alive" json:"is_alive"`
	CurrentRoomID    string        `yaml:"current_room_id,omitempty" json:"current_room_id,omitempty"` // home room; empty means unplaced
	Morale           int           `yaml:"morale" json:"morale"`
}

// UnmarshalYAML applies authoring defaults before decoding, so omitted
// fields keep them.
func (e *Enemy) UnmarshalYAML(value *yaml.Node) error {
	type plain Enemy
	p := plain{
		Abilities: AbilityScores{
			Strength: 10, Intelligence: 10, Wisdom: 10,
			Dexterity: 10, Constitution: 10, Charisma: 10,
		},
		THAC0:           20,
		AttacksPerRound: 1,
		IsAlive:         true,
		Morale:          7,
	}
	if err := decodeStrict(value, &p); err != nil {
		return err
	}
	if p.MaxHitPoints == 0 {
		p.MaxHitPoints = p.HitPoints
	}
	*e = Enemy(p)
	return nil
}
