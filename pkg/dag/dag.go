package dag

import (
	"errors"
	"slices"

	"github.com/matzehuels/isalabel/pkg/interval"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the vertex has
	// neither a URI nor a positional key.
	ErrInvalidNodeID = errors.New("vertex must have a URI or a key")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a vertex with
	// the same URI already exists.
	ErrDuplicateNodeID = errors.New("duplicate vertex URI")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the child
	// vertex does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the parent
	// vertex does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrSelfLoop is returned by [Graph.AddEdge] for an edge from a vertex
	// to itself. A class is trivially its own subclass; the edge carries no
	// information for labeling.
	ErrSelfLoop = errors.New("self loop")

	// ErrGraphHasCycle is returned by [Graph.Validate] when a directed cycle
	// is detected.
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// NodeID addresses a vertex in a [Graph]. IDs are dense and assigned in
// insertion order starting at 0.
type NodeID uint32

// Vertex is an immutable vertex record.
type Vertex struct {
	// URI identifies the resource. Empty for a vertex loaded from storage
	// whose URI is not resolved yet.
	URI string
	// Key is the persisted positional interval of a vertex without URI.
	Key interval.Interval
}

// Graph is a directed graph over an arena of vertices with edges pointing
// from child to parent.
//
// The zero value is not usable - use New.
type Graph struct {
	vertices []Vertex
	byURI    map[string]NodeID
	parents  [][]NodeID // child -> parents ("out")
	children [][]NodeID // parent -> children ("in")
	edges    int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{byURI: make(map[string]NodeID)}
}

// AddNode appends a vertex and returns its ID.
// Returns ErrInvalidNodeID if the vertex has neither URI nor key, or
// ErrDuplicateNodeID if a vertex with the same URI already exists.
func (g *Graph) AddNode(v Vertex) (NodeID, error) {
	if v.URI == "" && v.Key.IsEmpty() {
		return 0, ErrInvalidNodeID
	}
	if v.URI != "" {
		if _, exists := g.byURI[v.URI]; exists {
			return 0, ErrDuplicateNodeID
		}
	}
	id := NodeID(len(g.vertices))
	g.vertices = append(g.vertices, v)
	g.parents = append(g.parents, nil)
	g.children = append(g.children, nil)
	if v.URI != "" {
		g.byURI[v.URI] = id
	}
	return id, nil
}

// Ensure returns the ID of the vertex with the given URI, adding it first if
// needed. uri must not be empty.
func (g *Graph) Ensure(uri string) NodeID {
	if id, ok := g.byURI[uri]; ok {
		return id
	}
	id, err := g.AddNode(Vertex{URI: uri})
	if err != nil {
		panic("dag: Ensure with empty URI")
	}
	return id
}

// Lookup returns the ID of the vertex with the given URI.
func (g *Graph) Lookup(uri string) (NodeID, bool) {
	id, ok := g.byURI[uri]
	return id, ok
}

// Has reports whether id addresses a vertex of this graph.
func (g *Graph) Has(id NodeID) bool { return int(id) < len(g.vertices) }

// Vertex returns the vertex record of id. It panics if id is out of range.
func (g *Graph) Vertex(id NodeID) Vertex { return g.vertices[id] }

// URI returns the URI of id, or "" if unresolved.
func (g *Graph) URI(id NodeID) string { return g.vertices[id].URI }

// AddEdge adds the edge child → parent. Adding an existing edge is a no-op.
// Returns ErrUnknownSourceNode or ErrUnknownTargetNode for unknown
// endpoints and ErrSelfLoop when child == parent.
func (g *Graph) AddEdge(child, parent NodeID) error {
	if !g.Has(child) {
		return ErrUnknownSourceNode
	}
	if !g.Has(parent) {
		return ErrUnknownTargetNode
	}
	if child == parent {
		return ErrSelfLoop
	}
	if g.HasEdge(child, parent) {
		return nil
	}
	g.parents[child] = append(g.parents[child], parent)
	g.children[parent] = append(g.children[parent], child)
	g.edges++
	return nil
}

// HasEdge reports whether the edge child → parent exists.
func (g *Graph) HasEdge(child, parent NodeID) bool {
	if !g.Has(child) {
		return false
	}
	return slices.Contains(g.parents[child], parent)
}

// RemoveEdge removes the edge child → parent if it exists.
func (g *Graph) RemoveEdge(child, parent NodeID) {
	if !g.HasEdge(child, parent) {
		return
	}
	g.parents[child] = slices.DeleteFunc(g.parents[child], func(p NodeID) bool { return p == parent })
	g.children[parent] = slices.DeleteFunc(g.children[parent], func(c NodeID) bool { return c == child })
	g.edges--
}

// Parents returns the direct parents of id in edge insertion order.
// The returned slice should not be modified.
func (g *Graph) Parents(id NodeID) []NodeID {
	if !g.Has(id) {
		return nil
	}
	return g.parents[id]
}

// Children returns the direct children of id in edge insertion order.
// The returned slice should not be modified.
func (g *Graph) Children(id NodeID) []NodeID {
	if !g.Has(id) {
		return nil
	}
	return g.children[id]
}

// OutDegree returns the number of parents of id.
func (g *Graph) OutDegree(id NodeID) int { return len(g.Parents(id)) }

// InDegree returns the number of children of id.
func (g *Graph) InDegree(id NodeID) int { return len(g.Children(id)) }

// NodeCount returns the number of vertices.
func (g *Graph) NodeCount() int { return len(g.vertices) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return g.edges }

// Nodes returns all vertex IDs in ascending order.
func (g *Graph) Nodes() []NodeID {
	ids := make([]NodeID, len(g.vertices))
	for i := range ids {
		ids[i] = NodeID(i)
	}
	return ids
}

// Sources returns vertices without parents (hierarchy tops), ascending.
func (g *Graph) Sources() []NodeID {
	var out []NodeID
	for i := range g.vertices {
		if len(g.parents[i]) == 0 {
			out = append(out, NodeID(i))
		}
	}
	return out
}

// Sinks returns vertices without children (leaf classes), ascending.
func (g *Graph) Sinks() []NodeID {
	var out []NodeID
	for i := range g.vertices {
		if len(g.children[i]) == 0 {
			out = append(out, NodeID(i))
		}
	}
	return out
}

// Validate checks that the graph is acyclic and returns ErrGraphHasCycle
// otherwise. Cycle detection runs in O(N+E) using an iterative three-color
// depth-first search.
func (g *Graph) Validate() error {
	if len(findBackEdges(g)) > 0 {
		return ErrGraphHasCycle
	}
	return nil
}
