// Package services holds the application services orchestrating the
// graph domain: direct graph manipulation and the conversational
// pipeline. Services own no state beyond their injected collaborators.
package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"archflow-backend/application/ports"
	"archflow-backend/domain/events"
	"archflow-backend/domain/graph"
	appErrors "archflow-backend/pkg/errors"
	"archflow-backend/pkg/observability"
)

// MutationResult is what every graph mutation hands back: the persisted
// state, a human-readable summary, and the merge report for callers that
// want the drop detail.
type MutationResult struct {
	Summary string
	State   *graph.State
	Report  *graph.MergeReport
}

// GraphService provides the direct-manipulation surface: project
// creation, reads, whole-state replacement, and structured deltas.
type GraphService struct {
	repo      ports.GraphStateRepository
	publisher ports.EventPublisher
	metrics   *observability.Collector
	logger    *zap.Logger
}

// NewGraphService creates a new graph service
func NewGraphService(
	repo ports.GraphStateRepository,
	publisher ports.EventPublisher,
	metrics *observability.Collector,
	logger *zap.Logger,
) *GraphService {
	return &GraphService{
		repo:      repo,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// CreateProject allocates a new project with an empty graph.
func (s *GraphService) CreateProject(ctx context.Context) (*graph.State, error) {
	projectID := uuid.New().String()
	state := graph.NewState(projectID)

	if err := s.repo.Save(ctx, projectID, state); err != nil {
		return nil, err
	}

	s.logger.Info("project created", zap.String("projectId", projectID))
	return state, nil
}

// GetGraph returns the current state of a project.
func (s *GraphService) GetGraph(ctx context.Context, projectID string) (*graph.State, error) {
	if projectID == "" {
		return nil, appErrors.NewValidationError("projectId is required")
	}
	return s.repo.Load(ctx, projectID)
}

// ReplaceGraph swaps a project's entire graph for the supplied one, the
// way the canvas autosaves. The replacement is validated structurally;
// referential drift is logged, not rejected. Meta is stamped server-side
// so clients cannot move a graph between projects.
func (s *GraphService) ReplaceGraph(ctx context.Context, projectID string, state *graph.State) (*graph.State, error) {
	if projectID == "" {
		return nil, appErrors.NewValidationError("projectId is required")
	}
	if err := graph.ValidateState(state); err != nil {
		return nil, err
	}
	s.warnOnDrift(projectID, state)

	next := state.Clone()
	next.Meta = graph.NewState(projectID).Meta

	summary := fmt.Sprintf("Graph replaced with %d node(s) and %d edge(s).", len(next.Nodes), len(next.Edges))
	if err := s.persist(ctx, projectID, next, summary); err != nil {
		return nil, err
	}
	return next, nil
}

// ApplyDelta merges a structured delta into a project's graph. Unknown
// projects start from an empty graph, mirroring the chat path.
func (s *GraphService) ApplyDelta(ctx context.Context, projectID string, delta *graph.Delta) (*MutationResult, error) {
	if projectID == "" {
		return nil, appErrors.NewValidationError("projectId is required")
	}
	if err := graph.ValidateDelta(delta); err != nil {
		return nil, err
	}

	state, err := s.loadOrEmpty(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return s.mergeAndPersist(ctx, projectID, state, delta)
}

// loadOrEmpty fetches the project's state, treating an unknown project
// as an empty graph. Any project id names a valid, initially empty
// canvas; only reads distinguish "never written".
func (s *GraphService) loadOrEmpty(ctx context.Context, projectID string) (*graph.State, error) {
	state, err := s.repo.Load(ctx, projectID)
	if err == nil {
		return state, nil
	}
	if appErrors.IsNotFound(err) {
		s.logger.Debug("starting from empty graph", zap.String("projectId", projectID))
		return graph.NewState(projectID), nil
	}
	return nil, err
}

// mergeAndPersist runs the shared mutation tail: layout, merge,
// integrity scan, metrics, save, event.
func (s *GraphService) mergeAndPersist(ctx context.Context, projectID string, state *graph.State, delta *graph.Delta) (*MutationResult, error) {
	placed := *delta
	placed.AddNodes = graph.PlaceNewNodes(state, delta.AddNodes)

	next, report := graph.Merge(state, &placed)
	s.warnOnDrift(projectID, next)
	s.observeReport(projectID, report)

	summary := graph.Describe(&placed)
	if err := s.persist(ctx, projectID, next, summary); err != nil {
		return nil, err
	}

	return &MutationResult{
		Summary: summary,
		State:   next,
		Report:  report,
	}, nil
}

// persist saves the state and broadcasts the update. Publish failures
// are logged and swallowed; the save already succeeded.
func (s *GraphService) persist(ctx context.Context, projectID string, state *graph.State, summary string) error {
	if err := s.repo.Save(ctx, projectID, state); err != nil {
		return err
	}

	if s.publisher != nil {
		evt := events.NewGraphUpdated(projectID, summary, len(state.Nodes), len(state.Edges), state.Meta.UpdatedAt)
		if err := s.publisher.PublishGraphUpdated(ctx, evt); err != nil {
			s.logger.Warn("failed to publish graph update",
				zap.String("projectId", projectID),
				zap.Error(err),
			)
		}
	}
	return nil
}

// warnOnDrift logs integrity problems without blocking. Drift here means
// a bug upstream, not a reason to refuse the caller.
func (s *GraphService) warnOnDrift(projectID string, state *graph.State) {
	result := graph.CheckIntegrity(state)
	if result.Valid {
		return
	}
	s.metrics.IntegrityWarnings.Inc()
	s.logger.Warn("graph integrity drift detected",
		zap.String("projectId", projectID),
		zap.Strings("problems", result.Errors),
	)
}

// observeReport feeds the merge outcome into logs and metrics. Dropped
// edges are the interesting signal: they are the merge refusing model
// output instead of failing the request.
func (s *GraphService) observeReport(projectID string, report *graph.MergeReport) {
	s.metrics.DeltasApplied.Inc()
	s.metrics.NodesAdded.Add(float64(report.NodesAdded))
	s.metrics.NodesUpdated.Add(float64(report.NodesUpdated))
	s.metrics.NodesRemoved.Add(float64(report.NodesRemoved))
	s.metrics.EdgesAdded.Add(float64(report.EdgesAdded))
	s.metrics.EdgesRemoved.Add(float64(report.EdgesRemoved))

	for _, dropped := range report.DroppedEdges {
		s.metrics.EdgesDropped.WithLabelValues(string(dropped.Reason)).Inc()
		s.logger.Warn("dropped delta edge",
			zap.String("projectId", projectID),
			zap.String("edgeId", dropped.Edge.ID),
			zap.String("source", dropped.Edge.Source),
			zap.String("target", dropped.Edge.Target),
			zap.String("reason", string(dropped.Reason)),
		)
	}
	if len(report.SkippedNodeIDs) > 0 {
		s.logger.Debug("skipped duplicate node additions",
			zap.String("projectId", projectID),
			zap.Strings("nodeIds", report.SkippedNodeIDs),
		)
	}
	if len(report.MissedUpdateIDs) > 0 {
		s.logger.Debug("ignored updates for unknown nodes",
			zap.String("projectId", projectID),
			zap.Strings("nodeIds", report.MissedUpdateIDs),
		)
	}
}
