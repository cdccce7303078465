package store

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/liquidaciones/internal/settlement"
)

// Store keeps session entries in memory, in insertion order. It lives only
// as long as the process that owns it.
type Store struct {
	mu      sync.RWMutex
	entries []*settlement.Entry
	byID    map[uuid.UUID]*settlement.Entry
}

func New() *Store {
	return &Store{byID: make(map[uuid.UUID]*settlement.Entry)}
}

func (s *Store) Add(_ context.Context, entry *settlement.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, entry)
	s.byID[entry.ID] = entry

	return nil
}

func (s *Store) Get(_ context.Context, id uuid.UUID) (*settlement.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.byID[id]
	if !ok {
		return nil, settlement.ErrNotFound
	}

	return entry, nil
}

// List returns a snapshot; appending to the store afterwards does not
// change it.
func (s *Store) List(_ context.Context) ([]*settlement.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.entries), nil
}

func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	clear(s.byID)

	return nil
}
