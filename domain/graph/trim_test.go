package graph

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wideState(nodeCount, edgeCount int) *State {
	s := NewState("p1")
	for i := 0; i < nodeCount; i++ {
		s.Nodes = append(s.Nodes, makeNode(fmt.Sprintf("n%d", i), fmt.Sprintf("N%d", i), NodeKindService, float64(i), 100))
	}
	for i := 0; i < edgeCount; i++ {
		src := fmt.Sprintf("n%d", i%nodeCount)
		dst := fmt.Sprintf("n%d", (i+1)%nodeCount)
		s.Edges = append(s.Edges, makeEdge(fmt.Sprintf("e%d", i), src, dst, EdgeKindCalls))
	}
	return s
}

func TestTrimForPrompt_SmallGraphUntouched(t *testing.T) {
	state := wideState(5, 4)

	trimmed, truncated := TrimForPrompt(state, 50, 100)

	assert.False(t, truncated)
	assert.Equal(t, state.Nodes, trimmed.Nodes)
	assert.Equal(t, state.Edges, trimmed.Edges)
}

func TestTrimForPrompt_CapsNodes(t *testing.T) {
	state := wideState(60, 0)

	trimmed, truncated := TrimForPrompt(state, 50, 100)

	assert.True(t, truncated)
	assert.Len(t, trimmed.Nodes, 50)
	assert.Equal(t, "n0", trimmed.Nodes[0].ID)
	assert.Equal(t, "n49", trimmed.Nodes[49].ID)
}

func TestTrimForPrompt_DropsEdgesOfCutNodes(t *testing.T) {
	// n58 -> n59 lives entirely beyond the node cap and must go; edges
	// into the kept range survive only when both endpoints survive.
	state := wideState(60, 59)

	trimmed, truncated := TrimForPrompt(state, 50, 100)

	assert.True(t, truncated)
	for _, e := range trimmed.Edges {
		assert.True(t, trimmed.HasNode(e.Source), "edge %s has cut source", e.ID)
		assert.True(t, trimmed.HasNode(e.Target), "edge %s has cut target", e.ID)
	}
}

func TestTrimForPrompt_CapsEdges(t *testing.T) {
	state := wideState(30, 140)

	trimmed, truncated := TrimForPrompt(state, 50, 100)

	assert.True(t, truncated)
	assert.Len(t, trimmed.Edges, 100)
	assert.Len(t, trimmed.Nodes, 30)
}

func TestTrimForPrompt_DefaultsOnNonPositiveCaps(t *testing.T) {
	state := wideState(60, 0)

	trimmed, truncated := TrimForPrompt(state, 0, -1)

	assert.True(t, truncated)
	assert.Len(t, trimmed.Nodes, DefaultMaxPromptNodes)
}

func TestTrimForPrompt_ReturnsCopy(t *testing.T) {
	state := wideState(3, 2)

	trimmed, _ := TrimForPrompt(state, 50, 100)
	trimmed.Nodes[0].Label = "tampered"

	require.Equal(t, "N0", state.Nodes[0].Label)
}
