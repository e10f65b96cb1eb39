package entity

import (
	"context"
	"maps"
	"slices"
	"sync"
)

var (
	_ Loader      = (*MemoryStore)(nil)
	_ Memberships = (*MemoryStore)(nil)
	_ Accounts    = (*MemoryStore)(nil)
)

// MemoryStore is an in-memory entity, membership and account store.
// Suitable for development and testing.
type MemoryStore struct {
	mu       sync.RWMutex
	entities map[Ref]Entity
	groups   map[Ref]map[string][]int64
	accounts map[int64]bool // id -> active
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entities: make(map[Ref]Entity),
		groups:   make(map[Ref]map[string][]int64),
		accounts: make(map[int64]bool),
	}
}

// Put stores or replaces an entity.
func (s *MemoryStore) Put(e Entity) error {
	if e.Type == "" || e.ID == 0 {
		return ErrInvalidEntity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entities[e.Ref()] = e
	return nil
}

// Delete removes an entity.
func (s *MemoryStore) Delete(ref Ref) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entities, ref)
	delete(s.groups, ref)
}

// SetGroups records group memberships for a content item.
func (s *MemoryStore) SetGroups(ref Ref, groups map[string][]int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.groups[ref] = maps.Clone(groups)
}

// SetAccount registers an account and its status.
func (s *MemoryStore) SetAccount(id int64, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts[id] = active
}

func (s *MemoryStore) Load(_ context.Context, typ string, ids ...int64) ([]Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entity, 0, len(ids))
	for _, id := range ids {
		if e, ok := s.entities[Ref{Type: typ, ID: id}]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *MemoryStore) GroupIDs(_ context.Context, e Entity) (map[string][]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := s.groups[e.Ref()]
	out := make(map[string][]int64, len(groups))
	for typ, ids := range groups {
		out[typ] = slices.Clone(ids)
	}
	return out, nil
}

func (s *MemoryStore) Active(_ context.Context, ids []int64) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []int64
	for _, id := range ids {
		if s.accounts[id] {
			out = append(out, id)
		}
	}
	return out, nil
}
