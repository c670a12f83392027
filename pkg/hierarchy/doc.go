// Package hierarchy provides labeled is-a hierarchies over a [dag.Graph].
//
// # Overview
//
// A [Hierarchy] couples a child → parent graph with two views of every
// node's label:
//
//   - the existing label, as of the last persistence, never mutated
//   - the working label, copied from the existing one on first access and
//     then freely mutated by the labeling algorithm
//
// Comparing the two tells the import layer which persisted rows must be
// rewritten ([Base.FindUpdatedResourcesWithKnownURI],
// [Base.FindUpdatedResourcesWithUnknownURI]).
//
// # Construction
//
// Construction is two-phase. Build the graph and the [PredefinedLabels]
// source as independent values first, then the hierarchy from both:
//
//	g := dag.New()
//	// ... add vertices and subClassOf edges ...
//	labels := hierarchy.MapLabels{rdfs.Resource: label.New(interval.New(0, math.MaxInt32))}
//	h, err := hierarchy.NewMainMemory(hierarchy.KindClass, g, root, labels)
//
// # Root
//
// Every hierarchy has exactly one root whose tree label spans the whole label
// universe. Vertices without parents are attached below it, so the root is
// an ancestor of everything. New top-level subtrees are appended below the
// root at [Hierarchy.IndexForNewHierarchy].
//
// # Concurrency
//
// A Hierarchy is single-writer. Two labeling passes must never run against
// the same instance, nor against the same label space in a shared store; the
// [CounterStore] lease serializes the latter.
package hierarchy
