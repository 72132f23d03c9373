package history

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hupe1980/flowmesh/core"
)

// Store persists terminal flow results.
type Store interface {
	// Save stores the result of a finished run.
	Save(result *core.Result) error

	// Get returns the result of a past run by its run ID.
	Get(runID string) (*core.Result, error)

	// List returns the run IDs of all stored results.
	List() ([]string, error)
}

// InMemoryStore is a volatile Store implementation keeping results in a
// process local map. It is safe for concurrent access and best suited for
// tests or ephemeral demo setups.
type InMemoryStore struct {
	mu      sync.RWMutex
	results map[string]*core.Result
}

// NewInMemoryStore constructs an empty in‑memory result store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{results: make(map[string]*core.Result)}
}

// Save stores the result keyed by its run ID, overwriting any previous
// result under the same ID.
func (s *InMemoryStore) Save(result *core.Result) error {
	if result == nil || result.RunID == "" {
		return fmt.Errorf("result must carry a run ID")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.RunID] = result
	return nil
}

// Get returns a stored result or an error when the run is unknown.
func (s *InMemoryStore) Get(runID string) (*core.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.results[runID]
	if !ok {
		return nil, fmt.Errorf("no result for run %q", runID)
	}
	return result, nil
}

// List returns the stored run IDs in lexical order.
func (s *InMemoryStore) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.results))
	for id := range s.results {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
