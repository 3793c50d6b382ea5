package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"archflow-backend/application/ports"
	"archflow-backend/domain/events"
	"archflow-backend/domain/graph"
	appErrors "archflow-backend/pkg/errors"
	"archflow-backend/pkg/observability"
)

type stubRepo struct {
	mu      sync.Mutex
	states  map[string]*graph.State
	loadErr error
	saveErr error
	saves   int
}

func newStubRepo() *stubRepo {
	return &stubRepo{states: make(map[string]*graph.State)}
}

func (r *stubRepo) Load(ctx context.Context, projectID string) (*graph.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	state, ok := r.states[projectID]
	if !ok {
		return nil, appErrors.NewNotFoundError("project")
	}
	return state.Clone(), nil
}

func (r *stubRepo) Save(ctx context.Context, projectID string, state *graph.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.states[projectID] = state.Clone()
	r.saves++
	return nil
}

func (r *stubRepo) stored(projectID string) *graph.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.states[projectID].Clone()
}

type stubProvider struct {
	response    string
	err         error
	unavailable bool
	calls       int
	gotMessages []ports.Message
	gotOpts     ports.CompletionOptions
}

func (p *stubProvider) Complete(ctx context.Context, messages []ports.Message, opts ports.CompletionOptions) (string, error) {
	p.calls++
	p.gotMessages = messages
	p.gotOpts = opts
	if p.err != nil {
		return "", p.err
	}
	return p.response, nil
}

func (p *stubProvider) IsAvailable() bool { return !p.unavailable }

type stubPublisher struct {
	mu     sync.Mutex
	events []events.GraphUpdated
	err    error
}

func (p *stubPublisher) PublishGraphUpdated(ctx context.Context, event events.GraphUpdated) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func newTestServices(repo *stubRepo, provider *stubProvider, publisher *stubPublisher) (*GraphService, *ChatService) {
	metrics := observability.NewCollector("test")
	logger := zap.NewNop()
	graphs := NewGraphService(repo, publisher, metrics, logger)
	chat := NewChatService(graphs, provider, metrics, logger, DefaultChatOptions())
	return graphs, chat
}

const happyDeltaResponse = "```json\n" + `{
  "addNodes": [
    {"id": "auth", "kind": "service", "label": "Auth Service", "position": {"x": 0, "y": 0}},
    {"id": "users", "kind": "db", "label": "User DB", "position": {"x": 0, "y": 0}}
  ],
  "addEdges": [
    {"id": "auth-users", "source": "auth", "target": "users", "kind": "queries"}
  ]
}` + "\n```"

func TestChatService_HappyPath(t *testing.T) {
	repo := newStubRepo()
	provider := &stubProvider{response: happyDeltaResponse}
	publisher := &stubPublisher{}
	_, chat := newTestServices(repo, provider, publisher)

	result, err := chat.HandleMessage(context.Background(), "p1", "add an auth service backed by a user db")

	require.NoError(t, err)
	require.NotNil(t, result)

	require.Len(t, result.State.Nodes, 2)
	require.Len(t, result.State.Edges, 1)
	assert.Equal(t, graph.Position{X: 100, Y: 100}, result.State.Nodes[0].Position)
	assert.Equal(t, graph.Position{X: 350, Y: 100}, result.State.Nodes[1].Position)
	assert.Contains(t, result.Summary, `Added 2 node(s): "Auth Service" (service), "User DB" (db)`)

	// Persisted state matches what the caller got.
	stored := repo.stored("p1")
	require.NotNil(t, stored)
	assert.Equal(t, result.State.Nodes, stored.Nodes)
	assert.Equal(t, result.State.Edges, stored.Edges)

	// Event fired with the same summary.
	require.Len(t, publisher.events, 1)
	assert.Equal(t, "p1", publisher.events[0].ProjectID)
	assert.Equal(t, result.Summary, publisher.events[0].Summary)
	assert.Equal(t, 2, publisher.events[0].NodeCount)

	// Provider saw the two-turn conversation with JSON formatting on.
	require.Len(t, provider.gotMessages, 2)
	assert.Equal(t, ports.RoleSystem, provider.gotMessages[0].Role)
	assert.Equal(t, ports.RoleUser, provider.gotMessages[1].Role)
	assert.Equal(t, ports.FormatJSON, provider.gotOpts.Format)
}

func TestChatService_ExistingGraphInPrompt(t *testing.T) {
	repo := newStubRepo()
	existing := graph.NewState("p1")
	existing.Nodes = append(existing.Nodes, graph.Node{
		ID: "gateway", Kind: graph.NodeKindAPI, Label: "Gateway",
		Position: graph.Position{X: 100, Y: 400},
	})
	require.NoError(t, repo.Save(context.Background(), "p1", existing))

	provider := &stubProvider{response: `{"addNodes":[{"id":"billing","kind":"service","label":"Billing","position":{"x":0,"y":0}}]}`}
	_, chat := newTestServices(repo, provider, &stubPublisher{})

	result, err := chat.HandleMessage(context.Background(), "p1", "add billing")

	require.NoError(t, err)
	assert.Contains(t, provider.gotMessages[1].Content, `"gateway"`)

	// New node lands one row below the existing graph.
	billing := result.State.Nodes[1]
	assert.Equal(t, "billing", billing.ID)
	assert.Equal(t, graph.Position{X: 100, Y: 550}, billing.Position)
}

func TestChatService_InputValidation(t *testing.T) {
	repo := newStubRepo()
	provider := &stubProvider{response: "{}"}
	_, chat := newTestServices(repo, provider, &stubPublisher{})

	tests := []struct {
		name      string
		projectID string
		message   string
	}{
		{name: "empty project id", projectID: "", message: "hello"},
		{name: "empty message", projectID: "p1", message: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := chat.HandleMessage(context.Background(), tt.projectID, tt.message)
			require.Error(t, err)
			assert.True(t, appErrors.IsValidation(err))
			assert.Zero(t, provider.calls)
		})
	}
}

func TestChatService_ProviderUnavailable(t *testing.T) {
	repo := newStubRepo()
	provider := &stubProvider{unavailable: true}
	_, chat := newTestServices(repo, provider, &stubPublisher{})

	_, err := chat.HandleMessage(context.Background(), "p1", "hello")

	require.Error(t, err)
	assert.True(t, appErrors.IsUnavailable(err))
	assert.Zero(t, provider.calls)
	assert.Zero(t, repo.saves)
}

func TestChatService_ProviderFailure(t *testing.T) {
	repo := newStubRepo()
	provider := &stubProvider{err: errors.New("connection reset")}
	_, chat := newTestServices(repo, provider, &stubPublisher{})

	_, err := chat.HandleMessage(context.Background(), "p1", "hello")

	require.Error(t, err)
	assert.True(t, appErrors.IsExternal(err))
	assert.Zero(t, repo.saves)
}

func TestChatService_UnparseableResponse(t *testing.T) {
	repo := newStubRepo()
	provider := &stubProvider{response: "Sorry, I cannot help with that."}
	_, chat := newTestServices(repo, provider, &stubPublisher{})

	_, err := chat.HandleMessage(context.Background(), "p1", "hello")

	require.Error(t, err)
	assert.True(t, appErrors.IsParse(err))
	assert.Zero(t, repo.saves)
}

func TestChatService_InvalidDeltaShape(t *testing.T) {
	repo := newStubRepo()
	provider := &stubProvider{
		response: `{"addNodes":[{"id":"x","kind":"spaceship","label":"X","position":{"x":0,"y":0}}]}`,
	}
	_, chat := newTestServices(repo, provider, &stubPublisher{})

	_, err := chat.HandleMessage(context.Background(), "p1", "hello")

	require.Error(t, err)
	assert.True(t, appErrors.IsParse(err))
	assert.Zero(t, repo.saves)
}

func TestChatService_SaveFailureLeavesStoredState(t *testing.T) {
	repo := newStubRepo()
	seed := graph.NewState("p1")
	seed.Nodes = append(seed.Nodes, graph.Node{
		ID: "keep", Kind: graph.NodeKindService, Label: "Keep Me",
		Position: graph.Position{X: 100, Y: 100},
	})
	require.NoError(t, repo.Save(context.Background(), "p1", seed))
	repo.saveErr = appErrors.NewDatabaseError("save", errors.New("throttled"))

	provider := &stubProvider{response: `{"removeNodeIds":["keep"]}`}
	_, chat := newTestServices(repo, provider, &stubPublisher{})

	_, err := chat.HandleMessage(context.Background(), "p1", "remove the keep node")

	require.Error(t, err)
	assert.True(t, appErrors.IsDatabase(err))
	repo.saveErr = nil
	assert.True(t, repo.stored("p1").HasNode("keep"))
}

func TestChatService_DroppedEdgeStillSucceeds(t *testing.T) {
	repo := newStubRepo()
	provider := &stubProvider{
		response: `{
			"addNodes": [{"id":"checkout","kind":"service","label":"Checkout","position":{"x":0,"y":0}}],
			"addEdges": [{"id":"e9","source":"checkout","target":"payments","kind":"calls"}]
		}`,
	}
	_, chat := newTestServices(repo, provider, &stubPublisher{})

	result, err := chat.HandleMessage(context.Background(), "p1", "wire checkout to payments")

	require.NoError(t, err)
	assert.True(t, result.State.HasNode("checkout"))
	assert.Empty(t, result.State.Edges)
	require.Len(t, result.Report.DroppedEdges, 1)
	assert.Equal(t, graph.DropReasonMissingEndpoint, result.Report.DroppedEdges[0].Reason)
	assert.Equal(t, 1, repo.saves)
}

func TestChatService_EmptyDeltaResponse(t *testing.T) {
	repo := newStubRepo()
	provider := &stubProvider{response: "{}"}
	_, chat := newTestServices(repo, provider, &stubPublisher{})

	result, err := chat.HandleMessage(context.Background(), "p1", "do nothing")

	require.NoError(t, err)
	assert.Equal(t, "No changes were made to the graph.", result.Summary)
	assert.Empty(t, result.State.Nodes)
}

func TestChatService_PublishFailureTolerated(t *testing.T) {
	repo := newStubRepo()
	provider := &stubProvider{response: happyDeltaResponse}
	publisher := &stubPublisher{err: errors.New("bus offline")}
	_, chat := newTestServices(repo, provider, publisher)

	result, err := chat.HandleMessage(context.Background(), "p1", "add things")

	require.NoError(t, err)
	assert.Len(t, result.State.Nodes, 2)
	assert.Equal(t, 1, repo.saves)
}
