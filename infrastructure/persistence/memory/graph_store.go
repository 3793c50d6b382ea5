// Package memory provides an in-memory graph store, used in development
// and in tests.
package memory

import (
	"context"
	"sync"

	"archflow-backend/domain/graph"
	appErrors "archflow-backend/pkg/errors"
)

// GraphStore keeps one graph state per project in process memory. States
// are cloned on the way in and out so callers can never alias the stored
// copy.
type GraphStore struct {
	mu     sync.RWMutex
	graphs map[string]*graph.State
}

// NewGraphStore creates an empty in-memory graph store.
func NewGraphStore() *GraphStore {
	return &GraphStore{
		graphs: make(map[string]*graph.State),
	}
}

// Load returns a copy of the stored state for a project.
func (s *GraphStore) Load(ctx context.Context, projectID string) (*graph.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, exists := s.graphs[projectID]
	if !exists {
		return nil, appErrors.NewNotFoundError("graph")
	}
	return state.Clone(), nil
}

// Save replaces the stored state for a project.
func (s *GraphStore) Save(ctx context.Context, projectID string, state *graph.State) error {
	if state == nil {
		return appErrors.NewValidationError("graph state is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.graphs[projectID] = state.Clone()
	return nil
}

// Len reports how many projects currently hold a graph.
func (s *GraphStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.graphs)
}
