package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archflow-backend/domain/graph"
	appErrors "archflow-backend/pkg/errors"
)

func sampleState(projectID string) *graph.State {
	return &graph.State{
		Nodes: []graph.Node{
			{ID: "api", Label: "API", Kind: graph.KindService, Position: graph.Position{X: 100, Y: 100}},
		},
		Edges: []graph.Edge{},
		Meta: graph.Meta{
			ProjectID: projectID,
			UpdatedAt: time.Now().UTC(),
		},
	}
}

func TestGraphStore_LoadMissingProject(t *testing.T) {
	store := NewGraphStore()

	_, err := store.Load(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, appErrors.IsNotFound(err))
}

func TestGraphStore_SaveThenLoad(t *testing.T) {
	store := NewGraphStore()
	state := sampleState("p1")

	require.NoError(t, store.Save(context.Background(), "p1", state))

	got, err := store.Load(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, state.Nodes, got.Nodes)
	assert.Equal(t, "p1", got.Meta.ProjectID)
	assert.Equal(t, 1, store.Len())
}

func TestGraphStore_RejectsNilState(t *testing.T) {
	store := NewGraphStore()

	err := store.Save(context.Background(), "p1", nil)
	require.Error(t, err)
	assert.True(t, appErrors.IsValidation(err))
}

// Mutating a state after Save, or mutating a loaded state, must not leak
// into the stored copy.
func TestGraphStore_IsolatesCallersFromStoredState(t *testing.T) {
	store := NewGraphStore()
	state := sampleState("p1")
	require.NoError(t, store.Save(context.Background(), "p1", state))

	state.Nodes[0].Label = "mutated after save"

	loaded, err := store.Load(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "API", loaded.Nodes[0].Label)

	loaded.Nodes[0].Label = "mutated after load"

	again, err := store.Load(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "API", again.Nodes[0].Label)
}

func TestGraphStore_SaveOverwrites(t *testing.T) {
	store := NewGraphStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "p1", sampleState("p1")))

	replacement := graph.NewState("p1")
	require.NoError(t, store.Save(ctx, "p1", replacement))

	got, err := store.Load(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, got.Nodes)
	assert.Equal(t, 1, store.Len())
}
