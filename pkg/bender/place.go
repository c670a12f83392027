package bender

import (
	"cmp"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/matzehuels/isalabel/pkg/dag"
	"github.com/matzehuels/isalabel/pkg/errors"
	"github.com/matzehuels/isalabel/pkg/interval"
)

// labelNewRoot places the new subtree rooted at r.
func (p *pass) labelNewRoot(r dag.NodeID) error {
	root := p.h.Root()
	d := int(p.unlabeledDescendants(r, nil).GetCardinality())
	sparse := p.sparseSize(d)

	anc, gap := p.findProperAnc(r)
	if anc == root {
		return p.appendBelowRoot(r, sparse)
	}

	ancTree := p.tree(anc)
	if gap.Len() >= sparse {
		iv := interval.New(gap.Index, gap.Index+sparse-1)
		p.log.Debug("placing subtree in gap", "root", p.name(r), "ancestor", p.name(anc), "interval", iv)
		return p.labelHierarchy(r, iv, ancTree)
	}

	dense := denseSize(d)
	if gap.Len() >= dense {
		iv := interval.New(gap.Index, gap.Index+dense-1)
		p.log.Debug("placing subtree densely", "root", p.name(r), "ancestor", p.name(anc), "interval", iv)
		return p.labelHierarchy(r, iv, ancTree)
	}

	ok, err := p.relabelClasses(anc, dense)
	if err != nil {
		return err
	}
	if !ok {
		return p.relabelAll()
	}
	trailing := p.trailingGap(anc)
	iv := interval.New(trailing.Index, trailing.Index+dense-1)
	p.log.Debug("placing subtree after cascade", "root", p.name(r), "ancestor", p.name(anc), "interval", iv)
	return p.labelHierarchy(r, iv, p.tree(anc))
}

// appendBelowRoot labels the subtree of r in a fresh interval at the next
// free slot under the hierarchy root, falling back to a full relabel when
// the universe is exhausted.
func (p *pass) appendBelowRoot(r dag.NodeID, size int) error {
	idx, err := p.h.IndexForNewHierarchy(p.ctx)
	if err != nil {
		return err
	}
	rootTree := p.tree(p.h.Root())
	iv := interval.New(idx, idx+size-1)
	if iv.Post > rootTree.Post || iv.Post < idx {
		p.log.Warn("label universe exhausted", "root", p.name(r), "interval", iv, "universe", rootTree)
		return p.relabelAll()
	}
	p.log.Debug("appending subtree below root", "root", p.name(r), "interval", iv)
	if err := p.labelHierarchy(r, iv, rootTree); err != nil {
		return err
	}
	if p.res.Overflowed {
		return nil
	}
	return p.h.SetIndexForNewHierarchy(p.ctx, idx+size)
}

// findProperAnc returns the direct ancestor of r with the largest free gap
// among its labeled children, and that gap. The first ancestor wins ties.
// The hierarchy root is chosen only when r has no other parent.
func (p *pass) findProperAnc(r dag.NodeID) (dag.NodeID, interval.Interval) {
	root := p.h.Root()
	best, bestGap := root, interval.Empty
	found := false
	for _, a := range p.h.ExploreDirectAncestors(r) {
		if a == root || !p.h.LabelOf(a).HasTree() {
			continue
		}
		gap := p.findMaxAvailableInterval(a)
		if !found || gap.Len() > bestGap.Len() {
			best, bestGap, found = a, gap, true
		}
	}
	return best, bestGap
}

// findMaxAvailableInterval returns the largest free sub-interval of a's
// tree label not covered by its labeled children. The leftmost wins ties.
// The first value of a's tree label is a's own and never free.
func (p *pass) findMaxAvailableInterval(a dag.NodeID) interval.Interval {
	best := interval.Empty
	for _, g := range p.gaps(a) {
		if g.Len() > best.Len() {
			best = g
		}
	}
	return best
}

// trailingGap returns the free interval between a's last labeled child
// and the end of a's tree label.
func (p *pass) trailingGap(a dag.NodeID) interval.Interval {
	tree := p.tree(a)
	start := tree.Index + 1
	for _, c := range p.treeChildren(a) {
		start = max(start, p.tree(c).Post+1)
	}
	return interval.New(start, tree.Post)
}

// gaps lists the free sub-intervals of a's tree label from left to right.
func (p *pass) gaps(a dag.NodeID) []interval.Interval {
	tree := p.tree(a)
	start := tree.Index + 1
	var out []interval.Interval
	for _, c := range p.treeChildren(a) {
		ct := p.tree(c)
		if ct.Index > start {
			out = append(out, interval.New(start, ct.Index-1))
		}
		start = max(start, ct.Post+1)
	}
	if start <= tree.Post {
		out = append(out, interval.New(start, tree.Post))
	}
	return out
}

// treeChildren returns the labeled direct children of a nested in a's tree
// label, sorted by index. Outer intervals precede the ones they contain.
func (p *pass) treeChildren(a dag.NodeID) []dag.NodeID {
	tree := p.tree(a)
	var out []dag.NodeID
	for _, c := range p.h.ExploreDirectDescendants(a) {
		if ct := p.tree(c); !ct.IsEmpty() && tree.StrictlyContains(ct) {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(x, y dag.NodeID) int {
		tx, ty := p.tree(x), p.tree(y)
		if c := cmp.Compare(tx.Index, ty.Index); c != 0 {
			return c
		}
		return cmp.Compare(ty.Post, tx.Post)
	})
	return out
}

// topLevel drops the children nested in an earlier child of the list.
func (p *pass) topLevel(children []dag.NodeID) []dag.NodeID {
	var out []dag.NodeID
	last := interval.Empty
	for _, c := range children {
		ct := p.tree(c)
		if !last.IsEmpty() && last.ContainsInterval(ct) {
			continue
		}
		out = append(out, c)
		last = ct
	}
	return out
}

// treeParent returns the direct ancestor whose tree label most tightly
// contains n's, or the hierarchy root.
func (p *pass) treeParent(n dag.NodeID) dag.NodeID {
	nt := p.tree(n)
	best, bestLen := p.h.Root(), -1
	for _, a := range p.h.ExploreDirectAncestors(n) {
		at := p.tree(a)
		if !at.StrictlyContains(nt) {
			continue
		}
		if bestLen < 0 || at.Len() < bestLen {
			best, bestLen = a, at.Len()
		}
	}
	return best
}

// unlabeledDescendants returns the new, unlabeled nodes reachable from n
// through new, unlabeled nodes only, excluding n and anything in skip.
func (p *pass) unlabeledDescendants(n dag.NodeID, skip *roaring.Bitmap) *roaring.Bitmap {
	out := roaring.New()
	seen := roaring.BitmapOf(uint32(n))
	stack := []dag.NodeID{n}
	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, c := range p.h.ExploreDirectDescendants(curr) {
			if !seen.CheckedAdd(uint32(c)) {
				continue
			}
			if skip != nil && skip.Contains(uint32(c)) {
				continue
			}
			if !p.h.IsNew(c) || p.h.LabelOf(c).HasTree() {
				continue
			}
			out.Add(uint32(c))
			stack = append(stack, c)
		}
	}
	return out
}

func (p *pass) tree(n dag.NodeID) interval.Interval {
	return p.h.LabelOf(n).Tree()
}

func (p *pass) tooDeep(n dag.NodeID, format string, args ...any) error {
	e := errors.New(errors.ErrCodeHierarchyTooDeep, format, args...)
	e.Message = p.name(n) + ": " + e.Message
	return e
}
