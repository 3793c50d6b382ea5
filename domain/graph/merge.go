package graph

import "time"

// DropReason explains why an addEdges entry was not applied.
type DropReason string

const (
	DropReasonMissingEndpoint DropReason = "missing_endpoint"
	DropReasonDuplicateID     DropReason = "duplicate_id"
)

// DroppedEdge records an addEdges entry the merge refused.
type DroppedEdge struct {
	Edge   Edge
	Reason DropReason
}

// MergeReport describes what a merge actually did. The skipped and
// dropped collections are advisory: callers log and count them, the
// merged state is already final.
type MergeReport struct {
	NodesAdded   int
	NodesUpdated int
	NodesRemoved int
	EdgesAdded   int
	EdgesRemoved int

	// SkippedNodeIDs lists addNodes entries whose id already existed.
	SkippedNodeIDs []string
	// MissedUpdateIDs lists updateNodes entries naming no existing node.
	MissedUpdateIDs []string
	// DroppedEdges lists addEdges entries that could not be applied.
	DroppedEdges []DroppedEdge
}

// HasAnomalies reports whether the merge had to skip or drop anything.
func (r *MergeReport) HasAnomalies() bool {
	return len(r.SkippedNodeIDs) > 0 || len(r.MissedUpdateIDs) > 0 || len(r.DroppedEdges) > 0
}

// Merge applies a delta to a state and returns the resulting state plus a
// report of what happened. Neither input is mutated.
//
// Mutations apply in a fixed order: node removals (cascading to every
// edge touching a removed node), edge removals, node additions, node
// updates, edge additions. Edge additions are gated on both endpoints
// existing after the node phases, so an edge may arrive in the same delta
// as its endpoints. Conflicting or unsatisfiable entries degrade to
// recorded no-ops; the merge itself never fails.
func Merge(state *State, delta *Delta) (*State, *MergeReport) {
	report := &MergeReport{}
	next := state.Clone()
	if next == nil {
		next = NewState("")
	}
	if delta == nil {
		delta = &Delta{}
	}

	removeNodes(next, delta.RemoveNodeIDs, report)
	removeEdges(next, delta.RemoveEdgeIDs, report)
	addNodes(next, delta.AddNodes, report)
	updateNodes(next, delta.UpdateNodes, report)
	addEdges(next, delta.AddEdges, report)

	next.Meta.UpdatedAt = time.Now().UTC()
	return next, report
}

// removeNodes drops the named nodes and cascades to every edge whose
// source or target is among them. Unknown ids are no-ops.
func removeNodes(next *State, ids []string, report *MergeReport) {
	if len(ids) == 0 {
		return
	}
	doomed := make(map[string]bool, len(ids))
	for _, id := range ids {
		doomed[id] = true
	}

	nodes := make([]Node, 0, len(next.Nodes))
	for _, n := range next.Nodes {
		if doomed[n.ID] {
			report.NodesRemoved++
			continue
		}
		nodes = append(nodes, n)
	}
	next.Nodes = nodes

	edges := make([]Edge, 0, len(next.Edges))
	for _, e := range next.Edges {
		if doomed[e.Source] || doomed[e.Target] {
			report.EdgesRemoved++
			continue
		}
		edges = append(edges, e)
	}
	next.Edges = edges
}

// removeEdges drops edges by id. Unknown ids are no-ops.
func removeEdges(next *State, ids []string, report *MergeReport) {
	if len(ids) == 0 {
		return
	}
	doomed := make(map[string]bool, len(ids))
	for _, id := range ids {
		doomed[id] = true
	}

	edges := make([]Edge, 0, len(next.Edges))
	for _, e := range next.Edges {
		if doomed[e.ID] {
			report.EdgesRemoved++
			continue
		}
		edges = append(edges, e)
	}
	next.Edges = edges
}

// addNodes appends new nodes. First writer wins: an entry whose id is
// already present, in the state or earlier in the same delta, is skipped.
func addNodes(next *State, adds []Node, report *MergeReport) {
	if len(adds) == 0 {
		return
	}
	present := make(map[string]bool, len(next.Nodes)+len(adds))
	for _, n := range next.Nodes {
		present[n.ID] = true
	}
	for _, n := range adds {
		if present[n.ID] {
			report.SkippedNodeIDs = append(report.SkippedNodeIDs, n.ID)
			continue
		}
		present[n.ID] = true
		next.Nodes = append(next.Nodes, n.Clone())
		report.NodesAdded++
	}
}

// updateNodes applies partial updates. Label and kind replace only when
// supplied; data merges key by key, with supplied arrays replacing the
// prior array wholesale. Updates naming an absent node are skipped.
func updateNodes(next *State, updates []NodeUpdate, report *MergeReport) {
	if len(updates) == 0 {
		return
	}
	index := make(map[string]int, len(next.Nodes))
	for i, n := range next.Nodes {
		index[n.ID] = i
	}
	for _, u := range updates {
		i, ok := index[u.ID]
		if !ok {
			report.MissedUpdateIDs = append(report.MissedUpdateIDs, u.ID)
			continue
		}
		node := &next.Nodes[i]
		if u.Label != nil {
			node.Label = *u.Label
		}
		if u.Kind != nil {
			node.Kind = *u.Kind
		}
		if u.Data != nil {
			applyDataPatch(node, u.Data)
		}
		report.NodesUpdated++
	}
}

func applyDataPatch(node *Node, patch *DataPatch) {
	if node.Data == nil {
		node.Data = &NodeData{}
	}
	if patch.Summary != nil {
		node.Data.Summary = *patch.Summary
	}
	if patch.Methods != nil {
		node.Data.Methods = append([]string(nil), (*patch.Methods)...)
	}
	if patch.Fields != nil {
		node.Data.Fields = append([]string(nil), (*patch.Fields)...)
	}
	if patch.FilePath != nil {
		node.Data.FilePath = *patch.FilePath
	}
}

// addEdges appends new edges. An entry is applied only when both
// endpoints exist in the post-update node set and its id is not already
// taken; anything else is dropped into the report, never an error.
func addEdges(next *State, adds []Edge, report *MergeReport) {
	if len(adds) == 0 {
		return
	}
	nodeIDs := make(map[string]bool, len(next.Nodes))
	for _, n := range next.Nodes {
		nodeIDs[n.ID] = true
	}
	edgeIDs := make(map[string]bool, len(next.Edges)+len(adds))
	for _, e := range next.Edges {
		edgeIDs[e.ID] = true
	}
	for _, e := range adds {
		if !nodeIDs[e.Source] || !nodeIDs[e.Target] {
			report.DroppedEdges = append(report.DroppedEdges, DroppedEdge{Edge: e.Clone(), Reason: DropReasonMissingEndpoint})
			continue
		}
		if edgeIDs[e.ID] {
			report.DroppedEdges = append(report.DroppedEdges, DroppedEdge{Edge: e.Clone(), Reason: DropReasonDuplicateID})
			continue
		}
		edgeIDs[e.ID] = true
		next.Edges = append(next.Edges, e.Clone())
		report.EdgesAdded++
	}
}
