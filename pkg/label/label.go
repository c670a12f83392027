// Package label holds the per-node labeling state of an is-a hierarchy.
//
// A [Label] has one tree label, the interval nested inside the tree label of
// the node's spanning-tree parent, plus two sets of propagated labels. A
// propagated label is the tree label of some descendant that reaches this
// node only through a DAG edge outside the spanning tree. Direct propagated
// labels come from an immediate child over such an edge; indirect ones were
// passed further up from there.
//
// Ancestry is then a containment test: a is an ancestor of b exactly when
// a's label contains b's tree label, either through a's tree label or through
// one of its propagated labels.
package label

import (
	"fmt"
	"strings"

	"github.com/matzehuels/isalabel/pkg/errors"
	"github.com/matzehuels/isalabel/pkg/interval"
)

// Label is the labeling state of one node. The zero value is an empty,
// usable label whose tree label is not yet assigned.
type Label struct {
	tree     interval.Interval
	assigned bool
	direct   interval.Compound
	indirect interval.Compound
}

// New returns a label with the given tree label and no propagated labels.
func New(tree interval.Interval) *Label {
	l := &Label{}
	l.SetTree(tree)
	return l
}

// Tree returns the tree label, or [interval.Empty] before assignment.
func (l *Label) Tree() interval.Interval {
	if !l.assigned {
		return interval.Empty
	}
	return l.tree
}

// HasTree reports whether a non-empty tree label has been assigned.
func (l *Label) HasTree() bool { return l.assigned }

// SetTree replaces the tree label. An empty interval clears it.
func (l *Label) SetTree(iv interval.Interval) {
	if iv.IsEmpty() {
		l.tree, l.assigned = interval.Empty, false
		return
	}
	l.tree, l.assigned = iv, true
}

// AddPropagated records iv as a propagated label and reports whether one of
// the propagated sets grew.
//
// An interval already inside the tree label is a no-op. An interval that
// overlaps the tree label without being contained by it means the upstream
// snapshot is malformed and yields ErrCodeIllegalPropagatedLabel.
func (l *Label) AddPropagated(iv interval.Interval, direct bool) (bool, error) {
	if iv.IsEmpty() {
		return false, nil
	}
	tree := l.Tree()
	if tree.ContainsInterval(iv) {
		return false, nil
	}
	if tree.OverlapsWith(iv) {
		return false, errors.New(errors.ErrCodeIllegalPropagatedLabel,
			"propagated label %s overlaps tree label %s", iv, tree)
	}
	if direct {
		if l.indirect.Has(iv) {
			// Promote: a direct edge supersedes an earlier indirect path.
			l.indirect.Remove(iv)
			l.direct.Add(iv)
			return false, nil
		}
		return l.direct.Add(iv), nil
	}
	if l.direct.Has(iv) {
		return false, nil
	}
	return l.indirect.Add(iv), nil
}

// RemovePropagated deletes iv from both propagated sets and reports whether
// it was present in either.
func (l *Label) RemovePropagated(iv interval.Interval) bool {
	d := l.direct.Remove(iv)
	i := l.indirect.Remove(iv)
	return d || i
}

// ReplacePropagated rewrites every propagated entry equal to old with repl
// and reports whether anything changed. Entries that repl would make
// redundant with the tree label are dropped.
func (l *Label) ReplacePropagated(old, repl interval.Interval) bool {
	if old.Equal(repl) {
		return false
	}
	if l.Tree().ContainsInterval(repl) {
		return l.RemovePropagated(old)
	}
	d := l.direct.Replace(old, repl)
	i := l.indirect.Replace(old, repl)
	return d || i
}

// RemapPropagated rewrites all propagated labels through shifts at once, so
// chained mappings (a→b, b→c) move every entry exactly one step. It reports
// whether anything changed.
func (l *Label) RemapPropagated(shifts map[interval.Interval]interval.Interval) bool {
	tree := l.Tree()
	remap := func(c *interval.Compound) (interval.Compound, bool) {
		var out interval.Compound
		changed := false
		for _, iv := range c.Intervals() {
			if repl, ok := shifts[iv]; ok {
				iv, changed = repl, true
			}
			if tree.ContainsInterval(iv) {
				changed = true
				continue
			}
			out.Add(iv)
		}
		return out, changed
	}
	direct, dc := remap(&l.direct)
	indirect, ic := remap(&l.indirect)
	if !dc && !ic {
		return false
	}
	l.direct, l.indirect = direct, interval.Compound{}
	for _, iv := range indirect.Intervals() {
		if !l.direct.Has(iv) {
			l.indirect.Add(iv)
		}
	}
	return true
}

// HasPropagated reports whether iv is one of the propagated labels.
func (l *Label) HasPropagated(iv interval.Interval) bool {
	return l.direct.Has(iv) || l.indirect.Has(iv)
}

// Direct returns a copy of the direct propagated labels.
func (l *Label) Direct() []interval.Interval { return l.direct.Intervals() }

// Indirect returns a copy of the indirect propagated labels.
func (l *Label) Indirect() []interval.Interval { return l.indirect.Intervals() }

// Propagated returns all propagated labels, direct ones first.
func (l *Label) Propagated() []interval.Interval {
	return append(l.direct.Intervals(), l.indirect.Intervals()...)
}

// Contains reports whether point p lies in the tree label or any propagated label.
func (l *Label) Contains(p int) bool {
	return l.Tree().Contains(p) || l.direct.Contains(p) || l.indirect.Contains(p)
}

// ContainsInterval reports whether iv lies in the tree label or entirely in
// one propagated label. This is the subsumption test.
func (l *Label) ContainsInterval(iv interval.Interval) bool {
	if iv.IsEmpty() {
		return false
	}
	return l.Tree().ContainsInterval(iv) || l.direct.ContainsInterval(iv) || l.indirect.ContainsInterval(iv)
}

// Clone returns a deep, independent copy.
func (l *Label) Clone() *Label {
	if l == nil {
		return &Label{}
	}
	return &Label{
		tree:     l.tree,
		assigned: l.assigned,
		direct:   l.direct.Clone(),
		indirect: l.indirect.Clone(),
	}
}

// Equal reports value equality of tree label and both propagated sets.
func (l *Label) Equal(o *Label) bool {
	if l == nil || o == nil {
		return l == o
	}
	return l.Tree().Equal(o.Tree()) && l.direct.Equal(&o.direct) && l.indirect.Equal(&o.indirect)
}

// String formats the label as "tree {direct} {indirect}".
func (l *Label) String() string {
	var b strings.Builder
	b.WriteString(l.Tree().String())
	if !l.direct.IsEmpty() || !l.indirect.IsEmpty() {
		fmt.Fprintf(&b, " d%s i%s", fmtSet(l.direct.Intervals()), fmtSet(l.indirect.Intervals()))
	}
	return b.String()
}

func fmtSet(ivs []interval.Interval) string {
	parts := make([]string, len(ivs))
	for i, iv := range ivs {
		parts[i] = iv.String()
	}
	return "{" + strings.Join(parts, " ") + "}"
}
