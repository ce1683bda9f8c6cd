// Package campaign holds the static, authored definition of an adventure:
// rooms, exits, traps, enemies and treasure. A Campaign is validated on load
// and is never mutated afterwards, so one value can back any number of sessions.
package campaign

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"
)

// Difficulty is the overall challenge rating of a campaign.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyDeadly Difficulty = "deadly"
)

// Valid reports whether d is a known difficulty.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyDeadly:
		return true
	}
	return false
}

// LevelRange is the recommended character level span.
type LevelRange struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
}

// Campaign is a fully validated adventure definition.
type Campaign struct {
	ID                string              `yaml:"-" json:"id"` // file stem
	Name              string              `yaml:"name" json:"name"`
	Description       string              `yaml:"description" json:"description"`
	StartingRoom      string              `yaml:"starting_room" json:"starting_room"`
	Difficulty        Difficulty          `yaml:"difficulty_level" json:"difficulty_level"`
	RecommendedLevels LevelRange          `yaml:"recommended_levels" json:"recommended_levels"`
	OpeningNarrative  string              `yaml:"opening_narrative,omitempty" json:"opening_narrative,omitempty"`
	HomeBase          string              `yaml:"home_base,omitempty" json:"home_base,omitempty"`
	Rooms             map[string]Room     `yaml:"rooms" json:"rooms"`
	Enemies           map[string]Enemy    `yaml:"initial_enemies" json:"enemies"`
	Treasure          map[string]Treasure `yaml:"initial_treasure" json:"treasure"`
}

// document is the on-disk shape. Both the initial_* keys and the short forms are accepted.
type document struct {
	Name              string              `yaml:"name"`
	Description       string              `yaml:"description"`
	StartingRoom      string              `yaml:"starting_room"`
	Difficulty        Difficulty          `yaml:"difficulty_level"`
	RecommendedLevels LevelRange          `yaml:"recommended_levels"`
	OpeningNarrative  string              `yaml:"opening_narrative"`
	HomeBase          string              `yaml:"home_base"`
	Rooms             map[string]Room     `yaml:"rooms"`
	InitialEnemies    map[string]Enemy    `yaml:"initial_enemies"`
	Enemies           map[string]Enemy    `yaml:"enemies"`
	InitialTreasure   map[string]Treasure `yaml:"initial_treasure"`
	Treasure          map[string]Treasure `yaml:"treasure"`
}

// Parse decodes and validates a campaign definition. id names the campaign,
// usually the file stem.
func Parse(data []byte, id string) (*Campaign, error) {
	return Decode(bytes.NewReader(data), id)
}

// decodeStrict decodes node into out, rejecting keys out has no field for.
// Custom unmarshalers get a node, and node.Decode does not honor the
// document decoder's KnownFields, so the node is re-encoded and decoded
// again strictly.
func decodeStrict(node *yaml.Node, out any) error {
	data, err := yaml.Marshal(node)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	return nil
}

// Decode reads a YAML campaign definition from r, normalizes it and validates
// it. Invalid input yields a *ValidationError and no Campaign.
func Decode(r io.Reader, id string) (*Campaign, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, invalid("campaign", "document is empty")
		}
		return nil, &ValidationError{Field: "campaign", Reason: err.Error()}
	}

	enemies, err := merge("initial_enemies", doc.InitialEnemies, doc.Enemies)
	if err != nil {
		return nil, err
	}
	treasure, err := merge("initial_treasure", doc.InitialTreasure, doc.Treasure)
	if err != nil {
		return nil, err
	}

	c := &Campaign{
		ID:                id,
		Name:              doc.Name,
		Description:       doc.Description,
		StartingRoom:      doc.StartingRoom,
		Difficulty:        doc.Difficulty,
		RecommendedLevels: doc.RecommendedLevels,
		OpeningNarrative:  doc.OpeningNarrative,
		HomeBase:          doc.HomeBase,
		Rooms:             doc.Rooms,
		Enemies:           enemies,
		Treasure:          treasure,
	}
	if err := c.normalize(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func merge[T any](field string, a, b map[string]T) (map[string]T, error) {
	out := make(map[string]T, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		if _, dup := out[k]; dup {
			return nil, invalid(field+"."+k, "duplicate key")
		}
		out[k] = v
	}
	return out, nil
}

// normalize infers ids from mapping keys and fills defaults.
func (c *Campaign) normalize() error {
	if c.Difficulty == "" {
		c.Difficulty = DifficultyMedium
	}
	if c.RecommendedLevels == (LevelRange{}) {
		c.RecommendedLevels = LevelRange{Min: 1, Max: 3}
	}
	if c.Rooms == nil {
		c.Rooms = map[string]Room{}
	}
	for key, room := range c.Rooms {
		switch room.ID {
		case "":
			room.ID = key
		case key:
		default:
			return invalid("rooms."+key+".id", "id %q does not match key", room.ID)
		}
		c.Rooms[key] = room
	}
	for key, e := range c.Enemies {
		switch e.ID {
		case "":
			e.ID = key
		case key:
		default:
			return invalid("initial_enemies."+key+".id", "id %q does not match key", e.ID)
		}
		c.Enemies[key] = e
	}
	for key, t := range c.Treasure {
		switch t.ID {
		case "":
			t.ID = key
		case key:
		default:
			return invalid("initial_treasure."+key+".id", "id %q does not match key", t.ID)
		}
		c.Treasure[key] = t
	}
	return nil
}

// Room returns the room with the given id.
func (c *Campaign) Room(id string) (Room, bool) {
	if c == nil {
		return Room{}, false
	}
	r, ok := c.Rooms[id]
	return r, ok
}

// Enemy returns the enemy with the given id.
func (c *Campaign) Enemy(id string) (Enemy, bool) {
	if c == nil {
		return Enemy{}, false
	}
	e, ok := c.Enemies[id]
	return e, ok
}

// TreasureByID returns the treasure with the given id.
func (c *Campaign) TreasureByID(id string) (Treasure, bool) {
	if c == nil {
		return Treasure{}, false
	}
	t, ok := c.Treasure[id]
	return t, ok
}

// RoomIDs returns every room id, sorted.
func (c *Campaign) RoomIDs() []string {
	return sortedKeys(c.Rooms)
}

// EnemyIDs returns every enemy id, sorted.
func (c *Campaign) EnemyIDs() []string {
	return sortedKeys(c.Enemies)
}

// TreasureIDs returns every treasure id, sorted.
func (c *Campaign) TreasureIDs() []string {
	return sortedKeys(c.Treasure)
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String is used in logs.
func (c *Campaign) String() string {
	return fmt.Sprintf("%s (%s)", c.Name, c.ID)
}
