package state

import (
	"encoding/json"
	"maps"
	"slices"
)

// Set is a set of string keys. It marshals as a sorted JSON array and never
// as null, so an empty set survives a save/restore round trip unchanged.
type Set map[string]struct{}

// NewSet returns a set holding items.
func NewSet(items ...string) Set {
	s := make(Set, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

// Add inserts v and reports whether it was not already present.
func (s *Set) Add(v string) bool {
	if *s == nil {
		*s = make(Set)
	}
	if _, ok := (*s)[v]; ok {
		return false
	}
	(*s)[v] = struct{}{}
	return true
}

// Has reports whether v is in the set.
func (s Set) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Remove deletes v.
func (s Set) Remove(v string) {
	delete(s, v)
}

// Len returns the number of members.
func (s Set) Len() int { return len(s) }

// Sorted returns the members in ascending order.
func (s Set) Sorted() []string {
	return slices.Sorted(maps.Keys(s))
}

// Clone returns an independent copy. The copy of a nil set is empty, not nil.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	maps.Copy(out, s)
	return out
}

func (s Set) MarshalJSON() ([]byte, error) {
	items := s.Sorted()
	if items == nil {
		items = []string{}
	}
	return json.Marshal(items)
}

func (s *Set) UnmarshalJSON(data []byte) error {
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*s = NewSet(items...)
	return nil
}
