package graph

// Caps for the graph context serialized into a model prompt. Large
// graphs get truncated rather than blowing the context window.
const (
	DefaultMaxPromptNodes = 50
	DefaultMaxPromptEdges = 100
)

// TrimForPrompt bounds the state embedded in a prompt: the first maxNodes
// nodes are kept, edges are filtered to those whose endpoints survive and
// then capped at maxEdges. Returns a trimmed copy and whether the caps
// cut anything so the caller can log the truncation. Non-positive caps
// fall back to the defaults.
func TrimForPrompt(state *State, maxNodes, maxEdges int) (*State, bool) {
	if maxNodes <= 0 {
		maxNodes = DefaultMaxPromptNodes
	}
	if maxEdges <= 0 {
		maxEdges = DefaultMaxPromptEdges
	}

	trimmed := state.Clone()
	if trimmed == nil {
		return NewState(""), false
	}
	truncated := len(trimmed.Nodes) > maxNodes || len(trimmed.Edges) > maxEdges

	if len(trimmed.Nodes) > maxNodes {
		trimmed.Nodes = trimmed.Nodes[:maxNodes]
	}

	survivors := make(map[string]bool, len(trimmed.Nodes))
	for _, n := range trimmed.Nodes {
		survivors[n.ID] = true
	}

	edges := make([]Edge, 0, len(trimmed.Edges))
	for _, e := range trimmed.Edges {
		if !survivors[e.Source] || !survivors[e.Target] {
			continue
		}
		edges = append(edges, e)
	}
	if len(edges) > maxEdges {
		edges = edges[:maxEdges]
	}
	trimmed.Edges = edges

	return trimmed, truncated
}
