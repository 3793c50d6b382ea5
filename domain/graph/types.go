// Package graph defines the architecture graph model and the pure
// operations over it: schema validation, delta parsing, merging,
// integrity checking, layout assignment, and change summaries.
//
// The types here are the wire format. They are serialized as-is to
// storage, to HTTP clients, and into model prompts, so field names are
// part of the public contract.
package graph

import "time"

// NodeKind classifies a component in the architecture graph.
type NodeKind string

const (
	NodeKindService NodeKind = "service"
	NodeKindClass   NodeKind = "class"
	NodeKindModule  NodeKind = "module"
	NodeKindAPI     NodeKind = "api"
	NodeKindQueue   NodeKind = "queue"
	NodeKindDB      NodeKind = "db"
)

// EdgeKind classifies a relationship between two components.
type EdgeKind string

const (
	EdgeKindCalls     EdgeKind = "calls"
	EdgeKindDependsOn EdgeKind = "depends_on"
	EdgeKindPublishes EdgeKind = "publishes"
	EdgeKindConsumes  EdgeKind = "consumes"
	EdgeKindQueries   EdgeKind = "queries"
)

// Position is a node's canvas coordinate. The exact origin (0,0) marks a
// node that has not been positioned yet and is eligible for automatic
// layout. A node dragged precisely onto the origin is indistinguishable
// from an unpositioned one and will be re-placed by the next layout pass;
// that is a known limitation of the sentinel.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// IsUnpositioned reports whether the position still carries the layout
// sentinel.
func (p Position) IsUnpositioned() bool {
	return p.X == 0 && p.Y == 0
}

// NodeData is the optional descriptive payload of a node. All fields are
// optional; absent fields are omitted from the wire form.
type NodeData struct {
	Summary  string   `json:"summary,omitempty"`
	Methods  []string `json:"methods,omitempty"`
	Fields   []string `json:"fields,omitempty"`
	FilePath string   `json:"filePath,omitempty"`
}

// Clone returns a deep copy of the data payload.
func (d *NodeData) Clone() *NodeData {
	if d == nil {
		return nil
	}
	out := &NodeData{
		Summary:  d.Summary,
		FilePath: d.FilePath,
	}
	if d.Methods != nil {
		out.Methods = append([]string(nil), d.Methods...)
	}
	if d.Fields != nil {
		out.Fields = append([]string(nil), d.Fields...)
	}
	return out
}

// Node is a single component on the canvas.
type Node struct {
	ID       string    `json:"id" validate:"required"`
	Kind     NodeKind  `json:"kind" validate:"required,oneof=service class module api queue db"`
	Label    string    `json:"label" validate:"required"`
	Position Position  `json:"position"`
	Data     *NodeData `json:"data,omitempty"`
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	n.Data = n.Data.Clone()
	return n
}

// EdgeData is the optional descriptive payload of an edge.
type EdgeData struct {
	Description string `json:"description,omitempty"`
}

// Clone returns a copy of the edge data payload.
func (d *EdgeData) Clone() *EdgeData {
	if d == nil {
		return nil
	}
	out := *d
	return &out
}

// Edge is a directed, typed relationship between two nodes.
type Edge struct {
	ID     string    `json:"id" validate:"required"`
	Source string    `json:"source" validate:"required"`
	Target string    `json:"target" validate:"required"`
	Kind   EdgeKind  `json:"kind" validate:"required,oneof=calls depends_on publishes consumes queries"`
	Data   *EdgeData `json:"data,omitempty"`
}

// Clone returns a deep copy of the edge.
func (e Edge) Clone() Edge {
	e.Data = e.Data.Clone()
	return e
}

// Meta carries graph-level bookkeeping.
type Meta struct {
	ProjectID string    `json:"projectId"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// State is the complete current graph of one project.
type State struct {
	Nodes []Node `json:"nodes" validate:"omitempty,dive"`
	Edges []Edge `json:"edges" validate:"omitempty,dive"`
	Meta  Meta   `json:"meta"`
}

// NewState returns an empty graph for the given project. Node and edge
// slices are non-nil so the wire form is [] rather than null.
func NewState(projectID string) *State {
	return &State{
		Nodes: []Node{},
		Edges: []Edge{},
		Meta: Meta{
			ProjectID: projectID,
			UpdatedAt: time.Now().UTC(),
		},
	}
}

// Clone returns a deep copy of the state. Mutating the copy never
// affects the original.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := &State{
		Nodes: make([]Node, 0, len(s.Nodes)),
		Edges: make([]Edge, 0, len(s.Edges)),
		Meta:  s.Meta,
	}
	for _, n := range s.Nodes {
		out.Nodes = append(out.Nodes, n.Clone())
	}
	for _, e := range s.Edges {
		out.Edges = append(out.Edges, e.Clone())
	}
	return out
}

// HasNode reports whether a node with the given id exists.
func (s *State) HasNode(id string) bool {
	for _, n := range s.Nodes {
		if n.ID == id {
			return true
		}
	}
	return false
}

// DataPatch is a partial update of a node's data payload. Pointer fields
// distinguish "leave unchanged" (nil) from "set" (non-nil); a supplied
// array replaces the prior array wholesale rather than merging into it.
type DataPatch struct {
	Summary  *string   `json:"summary,omitempty"`
	Methods  *[]string `json:"methods,omitempty"`
	Fields   *[]string `json:"fields,omitempty"`
	FilePath *string   `json:"filePath,omitempty"`
}

// NodeUpdate is a partial modification of an existing node. Only the id
// is required; absent fields leave the node untouched.
type NodeUpdate struct {
	ID    string     `json:"id" validate:"required"`
	Label *string    `json:"label,omitempty"`
	Kind  *NodeKind  `json:"kind,omitempty" validate:"omitempty,oneof=service class module api queue db"`
	Data  *DataPatch `json:"data,omitempty"`
}

// Delta is a set of mutations produced by the model or by a direct API
// call. Every field is optional; the zero value is an empty delta.
type Delta struct {
	AddNodes      []Node       `json:"addNodes,omitempty" validate:"omitempty,dive"`
	UpdateNodes   []NodeUpdate `json:"updateNodes,omitempty" validate:"omitempty,dive"`
	RemoveNodeIDs []string     `json:"removeNodeIds,omitempty"`
	AddEdges      []Edge       `json:"addEdges,omitempty" validate:"omitempty,dive"`
	RemoveEdgeIDs []string     `json:"removeEdgeIds,omitempty"`
}

// IsEmpty reports whether the delta carries no mutations at all.
func (d *Delta) IsEmpty() bool {
	return d == nil ||
		(len(d.AddNodes) == 0 &&
			len(d.UpdateNodes) == 0 &&
			len(d.RemoveNodeIDs) == 0 &&
			len(d.AddEdges) == 0 &&
			len(d.RemoveEdgeIDs) == 0)
}
