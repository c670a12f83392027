// Package dag provides the directed graph underlying an is-a hierarchy.
//
// # Overview
//
// Vertices live in an arena and are addressed by a dense [NodeID]. A
// [Vertex] record is immutable once added: it carries the resource URI, or,
// for a vertex loaded from storage whose URI is not resolved yet, the
// persisted positional interval as its [Vertex.Key]. All mutable algorithm
// state (labels, visited markers, parent pointers) is kept by callers in
// maps or bitmaps keyed by NodeID, never on the vertex itself.
//
// # Edge Direction
//
// Edges point from child to parent, following rdfs:subClassOf. "Out" is
// toward the parent:
//
//	g := dag.New()
//	person := g.Ensure("http://example.org/Person")
//	agent := g.Ensure("http://example.org/Agent")
//	g.AddEdge(person, agent) // Person subClassOf Agent
//
//	g.Parents(person) // [agent]
//	g.Children(agent) // [person]
//
// # Order
//
// NodeIDs are assigned in insertion order and every query that returns a
// slice of IDs returns them in a deterministic order: adjacency lists keep
// edge insertion order, and [Graph.Nodes] is ascending by NodeID. The
// labeling algorithm relies on this for reproducible labels.
//
// # Cycles
//
// RDF allows subclass cycles (they state class equivalence), but interval
// labeling needs a DAG. [Graph.Validate] reports cycles and [BreakCycles]
// removes back edges. [TopoOrder] returns parents before children.
//
// # Concurrency
//
// Graph instances are not safe for concurrent use. Callers must synchronize
// access if multiple goroutines read or modify the same graph.
package dag
