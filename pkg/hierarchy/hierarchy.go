package hierarchy

import (
	"context"
	"math"

	"github.com/matzehuels/isalabel/pkg/dag"
	"github.com/matzehuels/isalabel/pkg/interval"
	"github.com/matzehuels/isalabel/pkg/label"
)

// DefaultUniversePost is the last usable label value. The root's tree label
// is [0, DefaultUniversePost] unless configured otherwise.
const DefaultUniversePost = math.MaxInt32

// Hierarchy is the contract the labeling algorithm works against.
type Hierarchy interface {
	// Kind returns which of the four schema hierarchies this is.
	Kind() Kind
	// Graph returns the underlying child → parent graph.
	Graph() *dag.Graph
	// Root returns the node whose label spans the whole universe.
	Root() dag.NodeID

	// ExploreDirectAncestors returns the parents of n.
	ExploreDirectAncestors(n dag.NodeID) []dag.NodeID
	// ExploreDirectDescendants returns the children of n.
	ExploreDirectDescendants(n dag.NodeID) []dag.NodeID
	// ExploreAncestors returns all proper ancestors of n in BFS order.
	ExploreAncestors(n dag.NodeID) []dag.NodeID
	// ExploreDescendants returns all proper descendants of n in BFS order.
	ExploreDescendants(n dag.NodeID) []dag.NodeID
	// Prefetch expands the frontier to the children of the given nodes.
	Prefetch(ns []dag.NodeID)
	// ExploredNodes returns the explored nodes in ascending order.
	ExploredNodes() []dag.NodeID

	// ExistingLabelOf returns the label as of the last persistence, or nil
	// for a brand-new node. The result must not be mutated.
	ExistingLabelOf(n dag.NodeID) *label.Label
	// LabelOf returns the working label of n, created on first access as a
	// copy of the existing label (or empty).
	LabelOf(n dag.NodeID) *label.Label
	// IsNew reports whether n has no existing tree label.
	IsNew(n dag.NodeID) bool
	// HasUpdatedLabel reports whether the working tree label of n is
	// non-empty and differs from the existing one.
	HasUpdatedLabel(n dag.NodeID) bool

	// PropagateInterval records iv as a propagated label on every ancestor
	// of n that does not contain it yet.
	PropagateInterval(n dag.NodeID, iv interval.Interval) error
	// ChangePropagatedLabels rewrites, on every ancestor of the given nodes,
	// propagated labels that still reference an old interval of shifts.
	ChangePropagatedLabels(shifts map[interval.Interval]interval.Interval, from []dag.NodeID) int

	// NewRoots returns the new nodes without a new parent.
	NewRoots() []dag.NodeID

	// IndexForNewHierarchy returns the next unused value directly below the root.
	IndexForNewHierarchy(ctx context.Context) (int, error)
	// SetIndexForNewHierarchy records next as the next unused value.
	SetIndexForNewHierarchy(ctx context.Context, next int) error
	// RecalculateIndexForNewHierarchy recomputes the next unused value from
	// the current labels of the root's children.
	RecalculateIndexForNewHierarchy(ctx context.Context) error

	// ExploreEverythingAsNew drops all working labels and treats every node
	// except the root as new.
	ExploreEverythingAsNew()
}

// PredefinedLabels maps resource URIs to already persisted labels.
type PredefinedLabels interface {
	LabelFor(uri string) (*label.Label, bool)
}

// MapLabels is a [PredefinedLabels] backed by a map.
type MapLabels map[string]*label.Label

// LabelFor implements [PredefinedLabels].
func (m MapLabels) LabelFor(uri string) (*label.Label, bool) {
	l, ok := m[uri]
	return l, ok && l != nil
}

// noLabels is the PredefinedLabels of a hierarchy built from scratch.
type noLabels struct{}

func (noLabels) LabelFor(string) (*label.Label, bool) { return nil, false }

// CounterStore persists the next free slot below the root, one counter per
// hierarchy kind. Acquire blocks until it holds the exclusive lock for kind;
// the lock is held until the lease is committed or rolled back.
type CounterStore interface {
	Acquire(ctx context.Context, kind Kind) (CounterLease, error)
}

// CounterLease is an exclusively held counter.
type CounterLease interface {
	// Load returns the persisted value, or 0 if none was ever stored.
	Load(ctx context.Context) (int, error)
	// Commit stores next and releases the lock.
	Commit(ctx context.Context, next int) error
	// Rollback releases the lock without storing anything.
	Rollback(ctx context.Context) error
}
