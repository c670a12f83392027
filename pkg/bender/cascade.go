package bender

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/matzehuels/isalabel/pkg/dag"
	"github.com/matzehuels/isalabel/pkg/interval"
	"github.com/matzehuels/isalabel/pkg/observability"
)

// relabelClasses grows the tree label of anc until its trailing gap holds
// need values. It reports false when even the hierarchy root has no room,
// in which case nothing was changed.
//
// Walking up the spanning tree from anc, each level either finds a free gap
// of delta values to the right of the grown node, shifting only the
// siblings in between, or shifts all right siblings and grows the parent in
// turn. Every shifted sibling moves together with everything nested in it.
func (p *pass) relabelClasses(anc dag.NodeID, need int) (bool, error) {
	delta := need - p.trailingGap(anc).Len()
	if delta <= 0 {
		return true, nil
	}
	root := p.h.Root()

	grown := []dag.NodeID{anc}
	moving := roaring.New()
	rootLevel := false
	for x := anc; ; {
		q := p.treeParent(x)
		if q == root {
			rootLevel = true
		}
		right, fits := p.findAncestorWithProperFreeGap(q, p.tree(x), delta)
		for _, s := range right {
			p.collectSubtree(s, moving)
		}
		if fits {
			break
		}
		if q == root {
			p.log.Warn("relabel cascade reached the root without room", "ancestor", p.name(anc), "delta", delta)
			return false, nil
		}
		grown = append(grown, q)
		x = q
	}

	shifts := make(map[interval.Interval]interval.Interval, len(grown)+int(moving.GetCardinality()))
	from := make([]dag.NodeID, 0, cap(grown)+int(moving.GetCardinality()))
	for _, g := range grown {
		l := p.h.LabelOf(g)
		old := l.Tree()
		shifts[old] = old.WithPost(old.Post + delta)
		l.SetTree(shifts[old])
		from = append(from, g)
	}
	it := moving.Iterator()
	for it.HasNext() {
		n := dag.NodeID(it.Next())
		l := p.h.LabelOf(n)
		old := l.Tree()
		shifts[old] = old.Shift(delta)
		l.SetTree(shifts[old])
		from = append(from, n)
	}
	rewritten := p.h.ChangePropagatedLabels(shifts, from)

	p.res.Relabels++
	p.res.Shifted += len(from)
	observability.Labeling().OnRelabel(p.ctx, p.h.Kind().String(), len(from))
	p.log.Debug("relabel cascade",
		"ancestor", p.name(anc),
		"delta", delta,
		"grown", len(grown),
		"shifted", moving.GetCardinality(),
		"propagated_rewritten", rewritten)

	if rootLevel {
		return true, p.keepIndexPastShifts()
	}
	return true, nil
}

// findAncestorWithProperFreeGap looks right of x inside q for the first
// free gap of at least delta values. It returns the siblings that must move
// to open that gap, or all right siblings and false when q itself has to
// grow.
func (p *pass) findAncestorWithProperFreeGap(q dag.NodeID, x interval.Interval, delta int) ([]dag.NodeID, bool) {
	var right []dag.NodeID
	for _, s := range p.topLevel(p.treeChildren(q)) {
		if p.tree(s).Index > x.Post {
			right = append(right, s)
		}
	}
	cursor := x.Post + 1
	for i, s := range right {
		st := p.tree(s)
		if st.Index-cursor >= delta {
			return right[:i], true
		}
		cursor = st.Post + 1
	}
	return right, p.tree(q).Post-cursor+1 >= delta
}

// collectSubtree adds s and every descendant nested in its tree label.
func (p *pass) collectSubtree(s dag.NodeID, into *roaring.Bitmap) {
	st := p.tree(s)
	into.Add(uint32(s))
	for _, d := range p.h.ExploreDescendants(s) {
		if dt := p.tree(d); !dt.IsEmpty() && st.ContainsInterval(dt) {
			into.Add(uint32(d))
		}
	}
}

// keepIndexPastShifts moves the next free slot under the root past any
// child shifted to the right, never backwards.
func (p *pass) keepIndexPastShifts() error {
	before, err := p.h.IndexForNewHierarchy(p.ctx)
	if err != nil {
		return err
	}
	if err := p.h.RecalculateIndexForNewHierarchy(p.ctx); err != nil {
		return err
	}
	after, err := p.h.IndexForNewHierarchy(p.ctx)
	if err != nil {
		return err
	}
	return p.h.SetIndexForNewHierarchy(p.ctx, max(before, after))
}
