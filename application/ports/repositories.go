// Package ports declares the interfaces the application layer consumes.
// Implementations live under infrastructure; services receive them
// injected and never know which one they got.
package ports

import (
	"context"

	"archflow-backend/domain/graph"
)

// GraphStateRepository persists one graph state per project.
//
// Concurrent writers race at this boundary and the last save wins
// wholesale; callers must not assume read-modify-write atomicity.
type GraphStateRepository interface {
	// Load returns the current state for a project. A missing project
	// yields a not-found error.
	Load(ctx context.Context, projectID string) (*graph.State, error)

	// Save replaces the stored state for a project, creating it if
	// absent.
	Save(ctx context.Context, projectID string, state *graph.State) error
}
