package memory

import (
	"context"
	"log"
	"sync"

	"elegance/backend/internal/store"
)

// Store keeps every collection as its encoded payload, the same shape the
// persistent backends use.
type Store struct {
	mu          sync.RWMutex
	collections map[string][]byte
}

func New() *Store {
	return &Store{collections: make(map[string][]byte)}
}

// NewSeeded returns a memory store holding the demo boutique data.
func NewSeeded() *Store {
	s := New()
	if _, err := store.Seed(context.Background(), store.NewRepository(s)); err != nil {
		log.Fatalf("[memory-store] failed to seed: %v", err)
	}
	return s
}

func (s *Store) Get(_ context.Context, collection string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, ok := s.collections[collection]
	if !ok {
		return nil, nil
	}
	return clonePayload(raw), nil
}

func (s *Store) Put(_ context.Context, writes map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for collection, payload := range writes {
		s.collections[collection] = clonePayload(payload)
	}
	return nil
}

func (s *Store) Close() error {
	return nil
}

func clonePayload(src []byte) []byte {
	if src == nil {
		return nil
	}
	out := make([]byte, len(src))
	copy(out, src)
	return out
}
