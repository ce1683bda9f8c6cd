package campaign

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jwebster45206/dungeon-engine/pkg/dice"
)

var abilityNames = []string{"strength", "intelligence", "wisdom", "dexterity", "constitution", "charisma"}

// hitDicePattern matches AD&D style hit dice such as "3", "4+1" or "1-1".
var hitDicePattern = regexp.MustCompile(`^\d+([+-]\d+)?$`)

// Validate checks required fields, value ranges and cross references. Rooms,
// enemies and treasure are visited in sorted id order so the first reported
// error is deterministic.
func (c *Campaign) Validate() error {
	if len(c.Rooms) == 0 {
		return invalid("rooms", "at least one room is required")
	}
	if c.StartingRoom == "" {
		return invalid("starting_room", "is required")
	}
	if _, ok := c.Rooms[c.StartingRoom]; !ok {
		return invalid("starting_room", "room %q does not exist", c.StartingRoom)
	}
	if !c.Difficulty.Valid() {
		return invalid("difficulty_level", "unknown difficulty %q", c.Difficulty)
	}
	if lr := c.RecommendedLevels; lr.Min < 1 || lr.Max > 20 || lr.Min > lr.Max {
		return invalid("recommended_levels", "range %d-%d must lie within 1-20", lr.Min, lr.Max)
	}

	for _, id := range c.RoomIDs() {
		if err := c.validateRoom(c.Rooms[id]); err != nil {
			return err
		}
	}
	for _, id := range c.EnemyIDs() {
		if err := c.validateEnemy(c.Enemies[id]); err != nil {
			return err
		}
	}
	for _, id := range c.TreasureIDs() {
		if err := c.validateTreasure(c.Treasure[id]); err != nil {
			return err
		}
	}
	return nil
}

func (c *Campaign) validateRoom(r Room) error {
	path := "rooms." + r.ID
	if strings.Contains(r.ID, ":") {
		return invalid(path+".id", "must not contain ':'")
	}
	if r.Name == "" {
		return invalid(path+".name", "is required")
	}
	for dir, x := range r.Exits.All() {
		epath := fmt.Sprintf("%s.exits.%s", path, dir)
		if x.TargetRoomID == "" {
			return invalid(epath+".target_room_id", "is required")
		}
		if _, ok := c.Rooms[x.TargetRoomID]; !ok {
			return invalid(epath+".target_room_id", "room %q does not exist", x.TargetRoomID)
		}
		if x.RequiredKey != "" && !x.IsLocked {
			return invalid(epath+".required_key", "set on an exit that is not locked")
		}
	}
	seen := make(map[string]bool, len(r.Traps))
	for i, t := range r.Traps {
		tpath := fmt.Sprintf("%s.traps[%d]", path, i)
		if t.ID == "" {
			return invalid(tpath+".id", "is required")
		}
		tpath = path + ".traps." + t.ID
		if seen[t.ID] {
			return invalid(tpath, "duplicate trap id")
		}
		seen[t.ID] = true
		if t.DifficultyClass < 5 || t.DifficultyClass > 25 {
			return invalid(tpath+".difficulty_class", "%d is outside 5-25", t.DifficultyClass)
		}
		if t.Damage != "" {
			if _, err := dice.Parse(t.Damage); err != nil {
				return invalid(tpath+".damage", "%v", err)
			}
		}
		if t.SaveCategory != "" && !t.SaveCategory.Valid() {
			return invalid(tpath+".save_category", "unknown save category %q", t.SaveCategory)
		}
	}
	return nil
}

func (c *Campaign) validateEnemy(e Enemy) error {
	path := "initial_enemies." + e.ID
	if e.Name == "" {
		return invalid(path+".name", "is required")
	}
	scores := e.Abilities.Map()
	for _, name := range abilityNames {
		if score := scores[name]; score < 1 || score > 18 {
			return invalid(path+".abilities."+name, "%d is outside 1-18", score)
		}
	}
	if e.HitDice == "" {
		return invalid(path+".hit_dice", "is required")
	}
	if !hitDicePattern.MatchString(e.HitDice) && !dice.Valid(e.HitDice) {
		return invalid(path+".hit_dice", "%q is not dice notation", e.HitDice)
	}
	if e.HitPoints < 0 {
		return invalid(path+".hit_points", "must not be negative")
	}
	if e.HitPoints > e.MaxHitPoints {
		return invalid(path+".hit_points", "%d exceeds max_hit_points %d", e.HitPoints, e.MaxHitPoints)
	}
	if e.ArmorClass < -10 || e.ArmorClass > 10 {
		return invalid(path+".armor_class", "%d is outside -10..10", e.ArmorClass)
	}
	if e.THAC0 < 1 || e.THAC0 > 20 {
		return invalid(path+".thac0", "%d is outside 1-20", e.THAC0)
	}
	if e.AttacksPerRound < 1 {
		return invalid(path+".attacks_per_round", "must be at least 1")
	}
	for i, d := range e.Damage {
		if _, err := dice.Parse(d); err != nil {
			return invalid(fmt.Sprintf("%s.damage[%d]", path, i), "%v", err)
		}
	}
	if e.MovementRate < 0 {
		return invalid(path+".movement_rate", "must not be negative")
	}
	st := e.SavingThrows
	for _, s := range []struct {
		name string
		v    int
	}{
		{"paralyzation_poison_death", st.ParalyzationPoisonDeath},
		{"rod_staff_wand", st.RodStaffWand},
		{"petrification_polymorph", st.PetrificationPolymorph},
		{"breath_weapon", st.BreathWeapon},
		{"spell", st.Spell},
	} {
		if s.v < 0 || s.v > 20 {
			return invalid(path+".saving_throws."+s.name, "%d is outside 0-20", s.v)
		}
	}
	if e.Morale < 2 || e.Morale > 12 {
		return invalid(path+".morale", "%d is outside 2-12", e.Morale)
	}
	if e.CurrentRoomID != "" {
		if _, ok := c.Rooms[e.CurrentRoomID]; !ok {
			return invalid(path+".current_room_id", "room %q does not exist", e.CurrentRoomID)
		}
	}
	return nil
}

func (c *Campaign) validateTreasure(t Treasure) error {
	path := "initial_treasure." + t.ID
	if t.Name == "" {
		return invalid(path+".name", "is required")
	}
	if t.Value < 0 {
		return invalid(path+".value", "must not be negative")
	}
	if !t.Type.Valid() {
		return invalid(path+".type", "unknown treasure type %q", t.Type)
	}
	if t.LocationRoomID == "" {
		return invalid(path+".location_room_id", "is required")
	}
	if _, ok := c.Rooms[t.LocationRoomID]; !ok {
		return invalid(path+".location_room_id", "room %q does not exist", t.LocationRoomID)
	}
	if t.Weight < 0 {
		return invalid(path+".weight", "must not be negative")
	}
	if t.SearchDC != nil && (*t.SearchDC < 1 || *t.SearchDC > 30) {
		return invalid(path+".search_dc", "%d is outside 1-30", *t.SearchDC)
	}
	return nil
}
