package flag

import (
	"context"
	"sync"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps flaggings in memory. Suitable for development and testing.
type MemoryStore struct {
	items map[Key]Flagging
	mu    sync.RWMutex
}

// NewMemoryStore creates an empty in-memory flagging store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[Key]Flagging)}
}

func (s *MemoryStore) Put(ctx context.Context, f Flagging) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[f.Key()] = f
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, key Key) (Flagging, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.items[key]
	if !ok {
		return Flagging{}, ErrNotFlagged
	}
	return f, nil
}

func (s *MemoryStore) Find(ctx context.Context, q Query) ([]Flagging, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Flagging
	for _, f := range s.items {
		if q.Matches(f) {
			out = append(out, f)
		}
	}
	return out, nil
}
