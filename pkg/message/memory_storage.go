package message

import (
	"context"
	"errors"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a message is not found.
	ErrNotFound = errors.New("message not found")

	// ErrNilMessage is returned when saving a nil message.
	ErrNilMessage = errors.New("message cannot be nil")
)

var _ Storage = (*MemoryStorage)(nil)

// MemoryStorage is an in-memory implementation of the Storage interface.
// Suitable for development and testing.
type MemoryStorage struct {
	messages map[string]Message
	mu       sync.RWMutex
}

// NewMemoryStorage creates a new in-memory message storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		messages: make(map[string]Message),
	}
}

func (s *MemoryStorage) Save(ctx context.Context, msg *Message) error {
	if msg == nil {
		return ErrNilMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	// Store a copy to prevent external mutation of stored data
	stored := *msg
	stored.Fields = maps.Clone(msg.Fields)
	stored.Original = nil
	s.messages[msg.ID] = stored

	return nil
}

func (s *MemoryStorage) Get(ctx context.Context, id string) (*Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.messages[id]
	if !ok {
		return nil, ErrNotFound
	}

	m.Fields = maps.Clone(m.Fields)
	return &m, nil
}

func (s *MemoryStorage) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.messages[id]; !ok {
		return ErrNotFound
	}
	delete(s.messages, id)
	return nil
}

func (s *MemoryStorage) ListByOwner(ctx context.Context, ownerID int64) ([]*Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Message
	for _, m := range s.messages {
		if m.OwnerID != ownerID {
			continue
		}
		m.Fields = maps.Clone(m.Fields)
		out = append(out, &m)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out, nil
}

// Count returns the number of stored messages.
func (s *MemoryStorage) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.messages)
}
