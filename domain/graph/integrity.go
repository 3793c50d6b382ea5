package graph

import "fmt"

// IntegrityResult is the outcome of a structural consistency scan.
type IntegrityResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// CheckIntegrity scans a state for referential problems: duplicate node
// ids, duplicate edge ids, and edges whose source or target references a
// missing node. Every problem found is accumulated. The result is
// advisory; callers log drift as a warning rather than blocking on it.
func CheckIntegrity(state *State) IntegrityResult {
	result := IntegrityResult{Valid: true, Errors: []string{}}
	if state == nil {
		return result
	}

	nodeIDs := make(map[string]bool, len(state.Nodes))
	for _, n := range state.Nodes {
		if nodeIDs[n.ID] {
			result.Errors = append(result.Errors, fmt.Sprintf("duplicate node id: %s", n.ID))
			continue
		}
		nodeIDs[n.ID] = true
	}

	edgeIDs := make(map[string]bool, len(state.Edges))
	for _, e := range state.Edges {
		if edgeIDs[e.ID] {
			result.Errors = append(result.Errors, fmt.Sprintf("duplicate edge id: %s", e.ID))
		} else {
			edgeIDs[e.ID] = true
		}
		if !nodeIDs[e.Source] {
			result.Errors = append(result.Errors, fmt.Sprintf("edge %s references missing source node: %s", e.ID, e.Source))
		}
		if !nodeIDs[e.Target] {
			result.Errors = append(result.Errors, fmt.Sprintf("edge %s references missing target node: %s", e.ID, e.Target))
		}
	}

	result.Valid = len(result.Errors) == 0
	return result
}
