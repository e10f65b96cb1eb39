package entity

import (
	"encoding/json"
	"maps"
	"slices"
)

// IDSet is an unordered set of entity IDs.
type IDSet map[int64]struct{}

// NewIDSet builds a set from the given IDs.
func NewIDSet(ids ...int64) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Add(ids ...int64) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

func (s IDSet) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// Slice returns the IDs in ascending order.
func (s IDSet) Slice() []int64 {
	return slices.Sorted(maps.Keys(s))
}

// MarshalJSON encodes the set as a sorted array.
func (s IDSet) MarshalJSON() ([]byte, error) {
	ids := s.Slice()
	if ids == nil {
		ids = []int64{}
	}
	return json.Marshal(ids)
}

func (s *IDSet) UnmarshalJSON(data []byte) error {
	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewIDSet(ids...)
	return nil
}

// ContextMap maps an entity type to the set of related entity IDs of that type.
// It is pure data and safe to serialize into queued jobs.
type ContextMap map[string]IDSet

// Add records ids under typ.
func (c ContextMap) Add(typ string, ids ...int64) {
	set, ok := c[typ]
	if !ok {
		set = make(IDSet, len(ids))
		c[typ] = set
	}
	set.Add(ids...)
}

// Ensure creates an empty set for typ when missing.
func (c ContextMap) Ensure(typ string) {
	if _, ok := c[typ]; !ok {
		c[typ] = IDSet{}
	}
}

// IDs returns the sorted IDs recorded for typ.
func (c ContextMap) IDs(typ string) []int64 {
	return c[typ].Slice()
}

func (c ContextMap) Has(typ string, id int64) bool {
	return c[typ].Has(id)
}

// Types returns the entity types present, sorted.
func (c ContextMap) Types() []string {
	return slices.Sorted(maps.Keys(c))
}

// Clone returns a deep copy.
func (c ContextMap) Clone() ContextMap {
	out := make(ContextMap, len(c))
	for typ, set := range c {
		out[typ] = maps.Clone(set)
		if out[typ] == nil {
			out[typ] = IDSet{}
		}
	}
	return out
}
