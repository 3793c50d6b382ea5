package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "archflow-backend/pkg/errors"
)

func violationsOf(t *testing.T, err error) []string {
	t.Helper()
	app := appErrors.GetAppError(err)
	require.NotNil(t, app)
	require.Contains(t, app.Details, "violations")
	violations, ok := app.Details["violations"].([]string)
	require.True(t, ok)
	return violations
}

func TestValidateState(t *testing.T) {
	t.Run("valid state passes", func(t *testing.T) {
		state := makeState("p1",
			[]Node{makeNode("a", "A", NodeKindService, 100, 100)},
			[]Edge{},
		)
		assert.NoError(t, ValidateState(state))
	})

	t.Run("empty state passes", func(t *testing.T) {
		assert.NoError(t, ValidateState(NewState("p1")))
	})

	t.Run("nil state rejected", func(t *testing.T) {
		err := ValidateState(nil)
		require.Error(t, err)
		assert.True(t, appErrors.IsValidation(err))
	})

	t.Run("unknown node kind rejected", func(t *testing.T) {
		state := makeState("p1",
			[]Node{makeNode("a", "A", NodeKind("spaceship"), 0, 0)},
			nil,
		)
		err := ValidateState(state)
		require.Error(t, err)
		assert.True(t, appErrors.IsValidation(err))
		violations := violationsOf(t, err)
		require.Len(t, violations, 1)
		assert.Contains(t, violations[0], "kind")
		assert.Contains(t, violations[0], "must be one of")
	})

	t.Run("all violations reported at once", func(t *testing.T) {
		state := makeState("p1",
			[]Node{
				{ID: "", Kind: NodeKind("bogus"), Label: ""},
				makeNode("ok", "OK", NodeKindDB, 0, 0),
			},
			[]Edge{
				{ID: "e1", Source: "", Target: "ok", Kind: EdgeKind("friends_with")},
			},
		)
		err := ValidateState(state)
		require.Error(t, err)
		violations := violationsOf(t, err)
		// empty id, bad kind, empty label, empty source, bad edge kind
		assert.Len(t, violations, 5)
	})
}

func TestValidateDelta(t *testing.T) {
	t.Run("empty delta passes", func(t *testing.T) {
		assert.NoError(t, ValidateDelta(&Delta{}))
	})

	t.Run("optional sections may be absent", func(t *testing.T) {
		assert.NoError(t, ValidateDelta(&Delta{
			RemoveNodeIDs: []string{"a"},
		}))
	})

	t.Run("nil delta rejected", func(t *testing.T) {
		err := ValidateDelta(nil)
		require.Error(t, err)
		assert.True(t, appErrors.IsValidation(err))
	})

	t.Run("update with only id passes", func(t *testing.T) {
		assert.NoError(t, ValidateDelta(&Delta{
			UpdateNodes: []NodeUpdate{{ID: "a"}},
		}))
	})

	t.Run("update without id rejected", func(t *testing.T) {
		label := "X"
		err := ValidateDelta(&Delta{
			UpdateNodes: []NodeUpdate{{Label: &label}},
		})
		require.Error(t, err)
		violations := violationsOf(t, err)
		require.Len(t, violations, 1)
		assert.Contains(t, violations[0], "id is required")
	})

	t.Run("update with bad kind rejected", func(t *testing.T) {
		bad := NodeKind("starbase")
		err := ValidateDelta(&Delta{
			UpdateNodes: []NodeUpdate{{ID: "a", Kind: &bad}},
		})
		require.Error(t, err)
	})

	t.Run("violation paths name the wire fields", func(t *testing.T) {
		err := ValidateDelta(&Delta{
			AddNodes: []Node{{ID: "a", Kind: NodeKindService, Label: ""}},
		})
		require.Error(t, err)
		violations := violationsOf(t, err)
		require.Len(t, violations, 1)
		assert.Contains(t, violations[0], "addNodes[0].label")
	})
}

func TestValidateNodeAndEdge(t *testing.T) {
	t.Run("valid node passes", func(t *testing.T) {
		n := makeNode("a", "A", NodeKindQueue, 0, 0)
		assert.NoError(t, ValidateNode(&n))
	})

	t.Run("node without label rejected", func(t *testing.T) {
		err := ValidateNode(&Node{ID: "a", Kind: NodeKindService})
		require.Error(t, err)
		assert.True(t, appErrors.IsValidation(err))
	})

	t.Run("valid edge passes", func(t *testing.T) {
		e := Edge{ID: "e1", Source: "a", Target: "b", Kind: EdgeKindCalls}
		assert.NoError(t, ValidateEdge(&e))
	})

	t.Run("edge with unknown kind rejected", func(t *testing.T) {
		e := Edge{ID: "e1", Source: "a", Target: "b", Kind: EdgeKind("waves_at")}
		err := ValidateEdge(&e)
		require.Error(t, err)
		violations := violationsOf(t, err)
		require.Len(t, violations, 1)
		assert.Contains(t, violations[0], "kind")
	})

	t.Run("nil node and edge rejected", func(t *testing.T) {
		assert.Error(t, ValidateNode(nil))
		assert.Error(t, ValidateEdge(nil))
	})
}

func TestDecodeState(t *testing.T) {
	t.Run("decodes and validates a state document", func(t *testing.T) {
		raw := []byte(`{
			"nodes": [{"id": "a", "kind": "service", "label": "A", "position": {"x": 1, "y": 2}}],
			"edges": [],
			"meta": {"projectId": "p1", "updatedAt": "2024-01-01T00:00:00Z"}
		}`)
		state, err := DecodeState(raw)
		require.NoError(t, err)
		require.Len(t, state.Nodes, 1)
		assert.Equal(t, "p1", state.Meta.ProjectID)
	})

	t.Run("type mismatch names the wire field", func(t *testing.T) {
		raw := []byte(`{"nodes": "not-a-list", "edges": []}`)
		_, err := DecodeState(raw)
		require.Error(t, err)
		assert.True(t, appErrors.IsValidation(err))
		violations := violationsOf(t, err)
		require.Len(t, violations, 1)
		assert.Contains(t, violations[0], "nodes")
	})

	t.Run("schema violations surface through decode", func(t *testing.T) {
		raw := []byte(`{"nodes": [{"id": "a", "kind": "spaceship", "label": "A"}], "edges": []}`)
		_, err := DecodeState(raw)
		require.Error(t, err)
		violations := violationsOf(t, err)
		require.Len(t, violations, 1)
		assert.Contains(t, violations[0], "must be one of")
	})
}

func TestDecodeDelta(t *testing.T) {
	t.Run("tolerates unknown object keys", func(t *testing.T) {
		raw := []byte(`{
			"addNodes": [{"id": "a", "kind": "service", "label": "A"}],
			"confidence": 0.93,
			"reasoning": "the user asked for a service"
		}`)
		delta, err := DecodeDelta(raw)
		require.NoError(t, err)
		require.Len(t, delta.AddNodes, 1)
	})

	t.Run("rejects structurally invalid entries", func(t *testing.T) {
		raw := []byte(`{"addEdges": [{"id": "e1", "source": "a", "target": "b"}]}`)
		_, err := DecodeDelta(raw)
		require.Error(t, err)
		violations := violationsOf(t, err)
		require.Len(t, violations, 1)
		assert.Contains(t, violations[0], "addEdges[0].kind")
	})

	t.Run("malformed json reported with the offending field", func(t *testing.T) {
		raw := []byte(`{"removeNodeIds": 7}`)
		_, err := DecodeDelta(raw)
		require.Error(t, err)
		violations := violationsOf(t, err)
		require.Len(t, violations, 1)
		assert.Contains(t, violations[0], "removeNodeIds")
	})
}
