package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/lookahead/pkg/domain"
)

// Store implements ports.AnnotationStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[domain.SegmentID][]domain.Event
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[domain.SegmentID][]domain.Event),
	}
}

// Get returns the cached annotations of a segment.
func (s *Store) Get(ctx context.Context, id domain.SegmentID) ([]domain.Event, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events, ok := s.data[id]
	return events, ok, nil
}

// Put stores a copy of the annotations of a segment.
func (s *Store) Put(ctx context.Context, id domain.SegmentID, events []domain.Event) error {
	copied := slices.Clone(events)
	if copied == nil {
		copied = []domain.Event{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = copied
	return nil
}

// Clear drops every entry by swapping in a fresh map.
func (s *Store) Clear(ctx context.Context) error {
	fresh := make(map[domain.SegmentID][]domain.Event)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = fresh
	return nil
}

// Len returns the number of cached segments.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
