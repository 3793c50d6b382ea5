package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"archflow-backend/application/ports"
	"archflow-backend/domain/graph"
	appErrors "archflow-backend/pkg/errors"
	"archflow-backend/pkg/observability"
)

// Chat pipeline outcomes recorded in metrics.
const (
	chatOutcomeOK       = "ok"
	chatOutcomeRejected = "rejected"
	chatOutcomeUpstream = "upstream_error"
	chatOutcomeParse    = "parse_error"
	chatOutcomeStorage  = "storage_error"
)

// ChatOptions tune the conversational pipeline.
type ChatOptions struct {
	MaxPromptNodes int
	MaxPromptEdges int
	Temperature    float64
	MaxTokens      int
}

// DefaultChatOptions returns the production defaults.
func DefaultChatOptions() ChatOptions {
	return ChatOptions{
		MaxPromptNodes: graph.DefaultMaxPromptNodes,
		MaxPromptEdges: graph.DefaultMaxPromptEdges,
		Temperature:    0.2,
		MaxTokens:      2048,
	}
}

// ChatService turns a chat message into a persisted graph mutation:
// trim, prompt, complete, parse, lay out, merge, persist, summarize.
// Hard failures leave the stored state untouched, so the handler can
// always return the prior graph alongside the error.
type ChatService struct {
	graphs   *GraphService
	provider ports.Provider
	metrics  *observability.Collector
	logger   *zap.Logger
	opts     ChatOptions
}

// NewChatService creates a new chat service
func NewChatService(
	graphs *GraphService,
	provider ports.Provider,
	metrics *observability.Collector,
	logger *zap.Logger,
	opts ChatOptions,
) *ChatService {
	if opts.MaxPromptNodes <= 0 {
		opts.MaxPromptNodes = graph.DefaultMaxPromptNodes
	}
	if opts.MaxPromptEdges <= 0 {
		opts.MaxPromptEdges = graph.DefaultMaxPromptEdges
	}
	return &ChatService{
		graphs:   graphs,
		provider: provider,
		metrics:  metrics,
		logger:   logger,
		opts:     opts,
	}
}

// HandleMessage runs one conversational mutation against a project.
func (s *ChatService) HandleMessage(ctx context.Context, projectID, message string) (*MutationResult, error) {
	if projectID == "" {
		s.metrics.ChatRequests.WithLabelValues(chatOutcomeRejected).Inc()
		return nil, appErrors.NewValidationError("projectId is required")
	}
	if message == "" {
		s.metrics.ChatRequests.WithLabelValues(chatOutcomeRejected).Inc()
		return nil, appErrors.NewValidationError("message is required")
	}

	if !s.provider.IsAvailable() {
		s.metrics.ChatRequests.WithLabelValues(chatOutcomeUpstream).Inc()
		return nil, appErrors.NewUnavailableError("model provider")
	}

	state, err := s.graphs.loadOrEmpty(ctx, projectID)
	if err != nil {
		s.metrics.ChatRequests.WithLabelValues(chatOutcomeStorage).Inc()
		return nil, err
	}

	raw, err := s.complete(ctx, projectID, message, state)
	if err != nil {
		s.metrics.ChatRequests.WithLabelValues(chatOutcomeUpstream).Inc()
		return nil, err
	}

	delta, err := graph.ParseDelta(raw)
	if err != nil {
		s.metrics.ChatRequests.WithLabelValues(chatOutcomeParse).Inc()
		s.logger.Warn("model output was not a usable delta",
			zap.String("projectId", projectID),
			zap.Int("responseLength", len(raw)),
			zap.Error(err),
		)
		return nil, err
	}

	result, err := s.graphs.mergeAndPersist(ctx, projectID, state, delta)
	if err != nil {
		s.metrics.ChatRequests.WithLabelValues(chatOutcomeStorage).Inc()
		return nil, err
	}

	s.metrics.ChatRequests.WithLabelValues(chatOutcomeOK).Inc()
	s.logger.Info("chat mutation applied",
		zap.String("projectId", projectID),
		zap.Int("nodesAdded", result.Report.NodesAdded),
		zap.Int("edgesAdded", result.Report.EdgesAdded),
		zap.Int("droppedEdges", len(result.Report.DroppedEdges)),
	)
	return result, nil
}

// complete builds the prompt from a size-capped view of the graph and
// calls the provider.
func (s *ChatService) complete(ctx context.Context, projectID, message string, state *graph.State) (string, error) {
	trimmed, truncated := graph.TrimForPrompt(state, s.opts.MaxPromptNodes, s.opts.MaxPromptEdges)
	if truncated {
		s.metrics.PromptTruncations.Inc()
		s.logger.Warn("graph truncated for prompt",
			zap.String("projectId", projectID),
			zap.Int("promptNodes", len(trimmed.Nodes)),
			zap.Int("promptEdges", len(trimmed.Edges)),
			zap.Int("totalNodes", len(state.Nodes)),
			zap.Int("totalEdges", len(state.Edges)),
		)
	}

	messages, err := buildDeltaMessages(message, trimmed)
	if err != nil {
		return "", appErrors.NewInternalError("failed to build prompt").WithCause(err)
	}

	start := time.Now()
	raw, err := s.provider.Complete(ctx, messages, ports.CompletionOptions{
		Temperature: s.opts.Temperature,
		MaxTokens:   s.opts.MaxTokens,
		Format:      ports.FormatJSON,
	})
	s.metrics.LLMLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		s.logger.Error("model completion failed",
			zap.String("projectId", projectID),
			zap.Error(err),
		)
		if appErrors.IsAppError(err) {
			return "", err
		}
		return "", appErrors.NewExternalError("model provider", err)
	}
	return raw, nil
}
