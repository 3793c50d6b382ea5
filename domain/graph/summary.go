package graph

import (
	"fmt"
	"strings"
)

// Describe renders a delta as a short human-readable summary suitable for
// a chat reply: one sentence per non-empty category, in a fixed order
// (added nodes, updated nodes, removed nodes, added edges, removed
// edges). An empty delta has fixed wording.
func Describe(delta *Delta) string {
	if delta.IsEmpty() {
		return "No changes were made to the graph."
	}

	var sentences []string

	if n := len(delta.AddNodes); n > 0 {
		parts := make([]string, 0, n)
		for _, node := range delta.AddNodes {
			parts = append(parts, fmt.Sprintf("%q (%s)", node.Label, node.Kind))
		}
		sentences = append(sentences, fmt.Sprintf("Added %d node(s): %s", n, strings.Join(parts, ", ")))
	}

	if n := len(delta.UpdateNodes); n > 0 {
		ids := make([]string, 0, n)
		for _, u := range delta.UpdateNodes {
			ids = append(ids, u.ID)
		}
		sentences = append(sentences, fmt.Sprintf("Updated %d node(s): %s", n, strings.Join(ids, ", ")))
	}

	if n := len(delta.RemoveNodeIDs); n > 0 {
		sentences = append(sentences, fmt.Sprintf("Removed %d node(s): %s", n, strings.Join(delta.RemoveNodeIDs, ", ")))
	}

	if n := len(delta.AddEdges); n > 0 {
		parts := make([]string, 0, n)
		for _, e := range delta.AddEdges {
			parts = append(parts, fmt.Sprintf("%s -> %s (%s)", e.Source, e.Target, e.Kind))
		}
		sentences = append(sentences, fmt.Sprintf("Added %d edge(s): %s", n, strings.Join(parts, ", ")))
	}

	if n := len(delta.RemoveEdgeIDs); n > 0 {
		sentences = append(sentences, fmt.Sprintf("Removed %d edge(s): %s", n, strings.Join(delta.RemoveEdgeIDs, ", ")))
	}

	return strings.Join(sentences, ". ") + "."
}
