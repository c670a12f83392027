package hierarchy

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/matzehuels/isalabel/pkg/dag"
	"github.com/matzehuels/isalabel/pkg/interval"
	"github.com/matzehuels/isalabel/pkg/label"
)

// Base implements the parts of [Hierarchy] shared by every concrete
// hierarchy: exploration bookkeeping, copy-on-write working labels,
// propagation and new-root collection. Concrete hierarchies embed it and add
// the index of the next free slot below the root.
type Base struct {
	kind       Kind
	graph      *dag.Graph
	root       dag.NodeID
	rootLabel  *label.Label
	predefined PredefinedLabels

	existing map[dag.NodeID]*label.Label // resolved existing labels, nil entries for new nodes
	working  map[dag.NodeID]*label.Label
	explored *roaring.Bitmap

	everythingNew bool
}

func newBase(kind Kind, g *dag.Graph, root dag.NodeID, labels PredefinedLabels, universePost int) *Base {
	if labels == nil {
		labels = noLabels{}
	}
	b := &Base{
		kind:       kind,
		graph:      g,
		root:       root,
		predefined: labels,
		existing:   make(map[dag.NodeID]*label.Label),
		working:    make(map[dag.NodeID]*label.Label),
		explored:   roaring.New(),
	}
	rootLabel, ok := labels.LabelFor(g.URI(root))
	if !ok || !rootLabel.HasTree() {
		rootLabel = label.New(interval.New(0, universePost))
	}
	b.rootLabel = rootLabel
	b.explored.Add(uint32(root))
	return b
}

// Kind implements [Hierarchy].
func (b *Base) Kind() Kind { return b.kind }

// Graph implements [Hierarchy].
func (b *Base) Graph() *dag.Graph { return b.graph }

// Root implements [Hierarchy].
func (b *Base) Root() dag.NodeID { return b.root }

// Universe returns the root's tree label.
func (b *Base) Universe() interval.Interval { return b.rootLabel.Tree() }

func (b *Base) markExplored(ns []dag.NodeID) {
	for _, n := range ns {
		b.explored.Add(uint32(n))
	}
}

// ExploreDirectAncestors implements [Hierarchy].
func (b *Base) ExploreDirectAncestors(n dag.NodeID) []dag.NodeID {
	ps := b.graph.Parents(n)
	b.markExplored(ps)
	return ps
}

// ExploreDirectDescendants implements [Hierarchy].
func (b *Base) ExploreDirectDescendants(n dag.NodeID) []dag.NodeID {
	cs := b.graph.Children(n)
	b.markExplored(cs)
	return cs
}

// ExploreAncestors implements [Hierarchy].
func (b *Base) ExploreAncestors(n dag.NodeID) []dag.NodeID {
	return b.walk(n, b.ExploreDirectAncestors)
}

// ExploreDescendants implements [Hierarchy].
func (b *Base) ExploreDescendants(n dag.NodeID) []dag.NodeID {
	return b.walk(n, b.ExploreDirectDescendants)
}

// walk collects everything reachable from n through next, in BFS order,
// excluding n itself.
func (b *Base) walk(n dag.NodeID, next func(dag.NodeID) []dag.NodeID) []dag.NodeID {
	seen := roaring.BitmapOf(uint32(n))
	var out []dag.NodeID
	queue := []dag.NodeID{n}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for _, m := range next(curr) {
			if seen.CheckedAdd(uint32(m)) {
				out = append(out, m)
				queue = append(queue, m)
			}
		}
	}
	return out
}

// Prefetch implements [Hierarchy]. The graph is fully materialized, so this
// only widens the explored frontier.
func (b *Base) Prefetch(ns []dag.NodeID) {
	for _, n := range ns {
		b.ExploreDirectDescendants(n)
	}
}

// ExploredNodes implements [Hierarchy].
func (b *Base) ExploredNodes() []dag.NodeID {
	out := make([]dag.NodeID, 0, b.explored.GetCardinality())
	it := b.explored.Iterator()
	for it.HasNext() {
		out = append(out, dag.NodeID(it.Next()))
	}
	return out
}

// ExistingLabelOf implements [Hierarchy]. Vertices without URI carry their
// persisted tree label as key.
func (b *Base) ExistingLabelOf(n dag.NodeID) *label.Label {
	if n == b.root {
		return b.rootLabel
	}
	if l, ok := b.existing[n]; ok {
		return l
	}
	var l *label.Label
	v := b.graph.Vertex(n)
	if v.URI == "" {
		l = label.New(v.Key)
	} else if p, ok := b.predefined.LabelFor(v.URI); ok {
		l = p
	}
	b.existing[n] = l
	return l
}

// LabelOf implements [Hierarchy].
func (b *Base) LabelOf(n dag.NodeID) *label.Label {
	if l, ok := b.working[n]; ok {
		return l
	}
	var l *label.Label
	if ex := b.ExistingLabelOf(n); ex != nil && (!b.everythingNew || n == b.root) {
		l = ex.Clone()
	} else {
		l = &label.Label{}
	}
	b.working[n] = l
	return l
}

// peek returns the working label if n was touched, else the existing one.
// It never creates a working cell.
func (b *Base) peek(n dag.NodeID) *label.Label {
	if l, ok := b.working[n]; ok {
		return l
	}
	if b.everythingNew && n != b.root {
		return nil
	}
	return b.ExistingLabelOf(n)
}

// IsNew implements [Hierarchy].
func (b *Base) IsNew(n dag.NodeID) bool {
	if n == b.root {
		return false
	}
	if b.everythingNew {
		return true
	}
	ex := b.ExistingLabelOf(n)
	return ex == nil || !ex.HasTree()
}

// HasUpdatedLabel implements [Hierarchy].
func (b *Base) HasUpdatedLabel(n dag.NodeID) bool {
	w, ok := b.working[n]
	if !ok || !w.HasTree() {
		return false
	}
	ex := b.ExistingLabelOf(n)
	return ex == nil || !ex.Tree().Equal(w.Tree())
}

// HasModifiedLabel reports whether the working label of n differs from the
// existing one in its tree label or any propagated label.
func (b *Base) HasModifiedLabel(n dag.NodeID) bool {
	w, ok := b.working[n]
	if !ok {
		return false
	}
	ex := b.ExistingLabelOf(n)
	if ex == nil {
		return w.HasTree() || len(w.Propagated()) > 0
	}
	return !ex.Equal(w)
}

// NewRoots implements [Hierarchy]. The graph is walked in topological
// order, so the roots of upper subtrees come first.
func (b *Base) NewRoots() []dag.NodeID {
	var roots []dag.NodeID
	for _, n := range dag.TopoOrder(b.graph) {
		if !b.explored.Contains(uint32(n)) || !b.IsNew(n) {
			continue
		}
		hasNewParent := false
		for _, p := range b.ExploreDirectAncestors(n) {
			if b.IsNew(p) {
				hasNewParent = true
				break
			}
		}
		if !hasNewParent {
			roots = append(roots, n)
		}
	}
	return roots
}

// ExploreEverythingAsNew implements [Hierarchy]. Existing labels stay
// available for change detection.
func (b *Base) ExploreEverythingAsNew() {
	b.working = make(map[dag.NodeID]*label.Label)
	b.everythingNew = true
	b.markExplored(b.graph.Nodes())
}

// EverythingNew reports whether [Base.ExploreEverythingAsNew] was called.
func (b *Base) EverythingNew() bool { return b.everythingNew }
