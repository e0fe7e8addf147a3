package store

import (
	"errors"
	"fmt"
	"sync"

	"test-orchestrator/internal/pkg/orchestrator"
)

// ErrDuplicateResultID is returned when a result id has already been recorded
var ErrDuplicateResultID = errors.New("duplicate test result id")

// Store is the append-only, process-lifetime log of test results
type Store struct {
	mu      sync.RWMutex
	results []orchestrator.TestResult
	ids     map[string]struct{}
}

// New creates an empty store
func New() *Store {
	return &Store{
		ids: make(map[string]struct{}),
	}
}

// Append records a result. Ids must be unique for the lifetime of the store.
func (s *Store) Append(result orchestrator.TestResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ids[result.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateResultID, result.ID)
	}
	s.ids[result.ID] = struct{}{}
	s.results = append(s.results, result)
	return nil
}

// All returns a copy of every recorded result in append order
func (s *Store) All() []orchestrator.TestResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]orchestrator.TestResult, len(s.results))
	copy(out, s.results)
	return out
}

// Count returns the number of recorded results
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results)
}
