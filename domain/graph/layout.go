package graph

// Grid parameters for automatic placement. New nodes flow left to right
// in rows of four, below everything already on the canvas.
const (
	layoutColumns   = 4
	layoutColumnGap = 250.0
	layoutRowGap    = 150.0
	layoutStartX    = 100.0
	layoutFirstRowY = 100.0
)

// AssignPositions places unpositioned nodes on a fixed grid anchored at
// (startX, startY) and returns a new slice; the input is not mutated.
// Only nodes at the exact origin are placed, and the grid slot comes from
// the node's index in the input list, so an already-positioned node still
// consumes its slot.
func AssignPositions(nodes []Node, startX, startY float64) []Node {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		placed := n.Clone()
		if placed.Position.IsUnpositioned() {
			placed.Position = Position{
				X: startX + float64(i%layoutColumns)*layoutColumnGap,
				Y: startY + float64(i/layoutColumns)*layoutRowGap,
			}
		}
		out[i] = placed
	}
	return out
}

// NextStartY returns the y coordinate for the first new layout row: one
// row gap below the lowest existing node, or the first-row default on an
// empty graph.
func NextStartY(state *State) float64 {
	if state == nil || len(state.Nodes) == 0 {
		return layoutFirstRowY
	}
	maxY := state.Nodes[0].Position.Y
	for _, n := range state.Nodes[1:] {
		if n.Position.Y > maxY {
			maxY = n.Position.Y
		}
	}
	return maxY + layoutRowGap
}

// PlaceNewNodes lays out a delta's additions below the current graph.
func PlaceNewNodes(state *State, adds []Node) []Node {
	return AssignPositions(adds, layoutStartX, NextStartY(state))
}
