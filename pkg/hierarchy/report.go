package hierarchy

import (
	"cmp"
	"slices"

	"github.com/matzehuels/isalabel/pkg/dag"
	"github.com/matzehuels/isalabel/pkg/interval"
	"github.com/matzehuels/isalabel/pkg/label"
)

// Change is a node whose tree label moved during a labeling pass. Old is
// empty for a node labeled for the first time.
type Change struct {
	Node dag.NodeID
	URI  string
	Old  interval.Interval
	New  interval.Interval
}

// FindUpdatedResourcesWithKnownURI returns the changed nodes that carry a
// URI, sorted by URI.
func (b *Base) FindUpdatedResourcesWithKnownURI() []Change {
	changes := b.changes(func(uri string) bool { return uri != "" })
	slices.SortFunc(changes, func(x, y Change) int { return cmp.Compare(x.URI, y.URI) })
	return changes
}

// FindUpdatedResourcesWithUnknownURI returns the changed nodes loaded from
// storage without a URI, sorted by their old index. Old is the key the
// persistence layer knows them by.
func (b *Base) FindUpdatedResourcesWithUnknownURI() []Change {
	changes := b.changes(func(uri string) bool { return uri == "" })
	slices.SortFunc(changes, func(x, y Change) int { return cmp.Compare(x.Old.Index, y.Old.Index) })
	return changes
}

func (b *Base) changes(keep func(uri string) bool) []Change {
	var out []Change
	for n := range b.working {
		if n == b.root || !b.HasUpdatedLabel(n) {
			continue
		}
		uri := b.graph.URI(n)
		if !keep(uri) {
			continue
		}
		old := interval.Empty
		if ex := b.ExistingLabelOf(n); ex != nil {
			old = ex.Tree()
		}
		out = append(out, Change{Node: n, URI: uri, Old: old, New: b.working[n].Tree()})
	}
	return out
}

// ModifiedLabels returns the working labels that differ from the persisted
// ones in any way, keyed by URI. Vertices without URI are skipped.
func (b *Base) ModifiedLabels() MapLabels {
	out := make(MapLabels)
	for n, l := range b.working {
		if n == b.root || !b.HasModifiedLabel(n) || !l.HasTree() {
			continue
		}
		if uri := b.graph.URI(n); uri != "" {
			out[uri] = l.Clone()
		}
	}
	return out
}

// Labels returns a snapshot of every labeled vertex with a URI.
func (b *Base) Labels() MapLabels {
	out := make(MapLabels)
	for _, n := range b.graph.Nodes() {
		uri := b.graph.URI(n)
		if uri == "" {
			continue
		}
		if l := b.peek(n); l != nil && l.HasTree() {
			out[uri] = l.Clone()
		}
	}
	return out
}

// IsFirstAncestorOfSecond reports whether a is an ancestor of b (or b
// itself) by interval containment.
func IsFirstAncestorOfSecond(h Hierarchy, a, b dag.NodeID) bool {
	tree := h.LabelOf(b).Tree()
	if tree.IsEmpty() {
		return false
	}
	return h.LabelOf(a).ContainsInterval(tree)
}

// IsAncestor reports by containment whether la labels an ancestor of the
// node labeled lb.
func IsAncestor(la, lb *label.Label) bool {
	if la == nil || lb == nil || !lb.HasTree() {
		return false
	}
	return la.ContainsInterval(lb.Tree())
}
