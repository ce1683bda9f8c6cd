package campaign

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Room is a location in the campaign. Rooms are immutable after load.
type Room struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Terrain     string   `yaml:"terrain,omitempty" json:"terrain,omitempty"`
	Structures  []string `yaml:"structures,omitempty" json:"structures,omitempty"`
	Lighting    string   `yaml:"lighting,omitempty" json:"lighting,omitempty"`
	Exits       Exits    `yaml:"exits,omitempty" json:"exits"`
	Features    []string `yaml:"interactive_features,omitempty" json:"interactive_features,omitempty"`
	Traps       []Trap   `yaml:"traps,omitempty" json:"traps,omitempty"`
	Atmosphere  string   `yaml:"atmosphere,omitempty" json:"atmosphere,omitempty"`
}

// Trap returns the trap with the given id.
func (r Room) Trap(id string) (Trap, bool) {
	for _, t := range r.Traps {
		if t.ID == id {
			return t, true
		}
	}
	return Trap{}, false
}

// Exit is a directional connection out of a room. Visibility and passability are
// derived from session state; an Exit itself never changes.
type Exit struct {
	Direction    string `yaml:"direction" json:"direction"`
	TargetRoomID string `yaml:"target_room_id" json:"target_room_id"`
	IsHidden     bool   `yaml:"is_hidden,omitempty" json:"is_hidden"`
	Description  string `yaml:"description,omitempty" json:"description,omitempty"`
	IsLocked     bool   `yaml:"is_locked,omitempty" json:"is_locked"`
	RequiredKey  string `yaml:"required_key,omitempty" json:"required_key,omitempty"`
}

// Exits is a direction → Exit mapping that remembers authoring order.
type Exits struct {
	order []string
	items map[string]Exit
}

// NewExits builds an Exits mapping keyed by each exit's Direction.
func NewExits(exits ...Exit) (Exits, error) {
	var e Exits
	for _, x := range exits {
		if err := e.add(x.Direction, x); err != nil {
			return Exits{}, err
		}
	}
	return e, nil
}

func (e *Exits) add(dir string, x Exit) error {
	if dir == "" {
		return fmt.Errorf("exit direction is empty")
	}
	if e.items == nil {
		e.items = make(map[string]Exit)
	}
	if _, dup := e.items[dir]; dup {
		return fmt.Errorf("duplicate exit direction %q", dir)
	}
	e.order = append(e.order, dir)
	e.items[dir] = x
	return nil
}

// Len returns the number of exits.
func (e Exits) Len() int { return len(e.order) }

// Directions returns the exit directions in authoring order.
func (e Exits) Directions() []string { return slices.Clone(e.order) }

// Get returns the exit stored under exactly dir.
func (e Exits) Get(dir string) (Exit, bool) {
	x, ok := e.items[dir]
	return x, ok
}

// Find looks dir up case-insensitively and returns the stored direction key.
func (e Exits) Find(dir string) (string, Exit, bool) {
	dir = strings.TrimSpace(dir)
	if x, ok := e.items[dir]; ok {
		return dir, x, true
	}
	for _, d := range e.order {
		if strings.EqualFold(d, dir) {
			return d, e.items[d], true
		}
	}
	return "", Exit{}, false
}

// All iterates the exits in authoring order.
func (e Exits) All() iter.Seq2[string, Exit] {
	return func(yield func(string, Exit) bool) {
		for _, d := range e.order {
			if !yield(d, e.items[d]) {
				return
			}
		}
	}
}

// Filter returns a new Exits holding the entries keep accepts, order preserved.
func (e Exits) Filter(keep func(dir string, x Exit) bool) Exits {
	var out Exits
	for d, x := range e.All() {
		if keep(d, x) {
			_ = out.add(d, x)
		}
	}
	return out
}

// UnmarshalYAML accepts both the shorthand form (north: hall) and the full
// exit object. Full objects without a direction take it from their key.
func (e *Exits) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: exits must be a mapping", value.Line)
	}
	var out Exits
	for i := 0; i+1 < len(value.Content); i += 2 {
		keyNode, valNode := value.Content[i], value.Content[i+1]
		dir := keyNode.Value

		var x Exit
		switch valNode.Kind {
		case yaml.ScalarNode:
			x = Exit{Direction: dir, TargetRoomID: valNode.Value}
		case yaml.MappingNode:
			if err := decodeStrict(valNode, &x); err != nil {
				return fmt.Errorf("exit %q: %w", dir, err)
			}
			if x.Direction == "" {
				x.Direction = dir
			}
		default:
			return fmt.Errorf("line %d: exit %q must be a room id or an exit object", valNode.Line, dir)
		}
		if err := out.add(dir, x); err != nil {
			return fmt.Errorf("line %d: %w", keyNode.Line, err)
		}
	}
	*e = out
	return nil
}

// MarshalYAML writes exits as a mapping in authoring order.
func (e Exits) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for d, x := range e.All() {
		var val yaml.Node
		if err := val.Encode(x); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: d}, &val)
	}
	return node, nil
}

// MarshalJSON writes exits as a JSON object whose keys keep authoring order.
func (e Exits) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, d := range e.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(d)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.items[d])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object of exits, keeping key order.
func (e *Exits) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*e = Exits{}
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("exits: expected object")
	}
	var out Exits
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		dir, ok := tok.(string)
		if !ok {
			return fmt.Errorf("exits: expected string key")
		}
		var x Exit
		if err := dec.Decode(&x); err != nil {
			return fmt.Errorf("exits: %s: %w", dir, err)
		}
		if x.Direction == "" {
			x.Direction = dir
		}
		if err := out.add(dir, x); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*e = out
	return nil
}

// SaveCategory is the saving throw a trap calls for.
type SaveCategory string

const (
	SaveParalyzation SaveCategory = "paralyzation"
	SavePoison       SaveCategory = "poison"
	SaveDeathMagic   SaveCategory = "death_magic"
	SaveBreathWeapon SaveCategory = "breath_weapon"
	SaveSpell        SaveCategory = "spell"
	SaveNone         SaveCategory = "none"
)

// Valid reports whether c is a known save category.
func (c SaveCategory) Valid() bool {
	switch c {
	case SaveParalyzation, SavePoison, SaveDeathMagic, SaveBreathWeapon, SaveSpell, SaveNone:
		return true
	}
	return false
}

// Trap is a static trap definition. Whether a trap has fired in a session
// lives in the session state, so one campaign can back many sessions.
type Trap struct {
	ID              string       `yaml:"id" json:"id"`
	Type            string       `yaml:"type" json:"type"`
	DifficultyClass int          `yaml:"difficulty_class" json:"difficulty_class"`
	Damage          string       `yaml:"damage,omitempty" json:"damage,omitempty"`
	Description     string       `yaml:"description,omitempty" json:"description,omitempty"`
	Triggered       bool         `yaml:"triggered,omitempty" json:"-"` // already sprung when a session starts
	SaveCategory    SaveCategory `yaml:"save_category,omitempty" json:"save_category"`
	TriggerEffect   string       `yaml:"trigger_effect,omitempty" json:"trigger_effect,omitempty"`
}
