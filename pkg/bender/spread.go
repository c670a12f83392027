package bender

import (
	"cmp"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/matzehuels/isalabel/pkg/dag"
	"github.com/matzehuels/isalabel/pkg/interval"
	"github.com/matzehuels/isalabel/pkg/observability"
)

// task labels node with region; parent is the tree label of the node that
// handed out region.
type task struct {
	node   dag.NodeID
	region interval.Interval
	parent interval.Interval
}

// labelHierarchy labels the new subtree rooted at r inside region. parent
// is the tree label of r's spanning-tree parent.
func (p *pass) labelHierarchy(r dag.NodeID, region, parent interval.Interval) error {
	claimed := roaring.BitmapOf(uint32(r))
	return p.run([]task{{node: r, region: region, parent: parent}}, claimed)
}

// run works through the tasks depth-first. A claimed node has a pending
// task; it is skipped when reached over another edge and records that edge
// by propagation once labeled.
func (p *pass) run(stack []task, claimed *roaring.Bitmap) error {
	for len(stack) > 0 {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if t.region.IsEmpty() {
			return p.tooDeep(t.node, "no space left below %s", t.parent)
		}
		if t.region.Equal(t.parent) {
			return p.tooDeep(t.node, "interval %s equals the interval of its tree parent", t.region)
		}
		l := p.h.LabelOf(t.node)
		l.SetTree(t.region)
		l.RemapPropagated(nil)
		p.res.Labeled++
		if err := p.h.PropagateInterval(t.node, t.region); err != nil {
			return err
		}

		next, err := p.spread(t.node, t.region, t.region, claimed)
		if err != nil {
			return err
		}
		for i := len(next) - 1; i >= 0; i-- {
			stack = append(stack, next[i])
		}
	}
	return nil
}

type weighted struct {
	node   dag.NodeID
	desc   *roaring.Bitmap
	weight int
}

// spread divides region among the unlabeled children of x and returns one
// task per child, larger subtrees first. Each child receives a slice
// proportional to the number of nodes it will label; the first slice of
// region is left to x itself. Labeled children record the edge to x by
// propagation; a child reachable from a sibling is left to that sibling.
func (p *pass) spread(x dag.NodeID, region, xTree interval.Interval, claimed *roaring.Bitmap) ([]task, error) {
	var fresh []dag.NodeID
	for _, c := range p.h.ExploreDirectDescendants(x) {
		lc := p.h.LabelOf(c)
		switch {
		case lc.HasTree():
			if err := p.h.PropagateInterval(c, lc.Tree()); err != nil {
				return nil, err
			}
		case claimed.Contains(uint32(c)), !p.h.IsNew(c):
		default:
			fresh = append(fresh, c)
		}
	}
	if len(fresh) == 0 {
		return nil, nil
	}

	kids := make([]weighted, 0, len(fresh))
	for _, c := range fresh {
		kids = append(kids, weighted{node: c, desc: p.unlabeledDescendants(c, claimed)})
	}
	reachable := roaring.New()
	for _, k := range kids {
		reachable.Or(k.desc)
	}
	kids = slices.DeleteFunc(kids, func(k weighted) bool { return reachable.Contains(uint32(k.node)) })
	slices.SortFunc(kids, func(a, b weighted) int {
		if c := cmp.Compare(b.desc.GetCardinality(), a.desc.GetCardinality()); c != 0 {
			return c
		}
		return cmp.Compare(a.node, b.node)
	})

	counted := roaring.New()
	total := 0
	for i := range kids {
		k := &kids[i]
		k.weight = int(k.desc.GetCardinality()-k.desc.AndCardinality(counted)) + 1
		counted.Or(k.desc)
		total += k.weight
	}

	step := region.Len() / (total + 1)
	if step < 1 {
		return nil, p.tooDeep(x, "cannot fit %d descendants into %s", total, region)
	}

	tasks := make([]task, 0, len(kids))
	cursor := region.Index + step
	for _, k := range kids {
		size := k.weight * step
		tasks = append(tasks, task{node: k.node, region: interval.New(cursor, cursor+size-1), parent: xTree})
		claimed.Add(uint32(k.node))
		cursor += size
	}
	return tasks, nil
}

// relabelAll discards every label of the hierarchy and spreads all nodes
// below the root in one go. The lower half of the universe is used when it
// is large enough, leaving the upper half for later appends.
func (p *pass) relabelAll() error {
	p.res.Overflowed = true
	p.res.Relabels++
	observability.Labeling().OnOverflow(p.ctx, p.h.Kind().String())

	p.h.ExploreEverythingAsNew()
	root := p.h.Root()
	rootTree := p.tree(root)
	n := p.h.Graph().NodeCount() - 1
	p.log.Warn("relabeling whole hierarchy", "nodes", n, "universe", rootTree)

	region := interval.New(rootTree.Index+1, rootTree.Index+rootTree.Len()/2)
	if region.Len()/(n+1) < denseSize(0) {
		region = interval.New(rootTree.Index+1, rootTree.Post)
	}

	claimed := roaring.BitmapOf(uint32(root))
	tasks, err := p.spread(root, region, rootTree, claimed)
	if err != nil {
		return err
	}
	if err := p.run(tasks, claimed); err != nil {
		return err
	}
	if err := p.labelStragglers(); err != nil {
		return err
	}
	return p.h.RecalculateIndexForNewHierarchy(p.ctx)
}

// labelStragglers is the safety net of relabelAll: a node left unlabeled
// has only labeled parents by topological order and takes a slice of the
// largest gap among them.
func (p *pass) labelStragglers() error {
	for _, n := range dag.TopoOrder(p.h.Graph()) {
		if n == p.h.Root() || p.h.LabelOf(n).HasTree() {
			continue
		}
		anc, gap := p.findProperAnc(n)
		if anc == p.h.Root() {
			gap = p.trailingGap(anc)
		}
		d := int(p.unlabeledDescendants(n, nil).GetCardinality())
		size := min(gap.Len(), denseSize(d))
		if size < 1 {
			return p.tooDeep(n, "no space left below %s", p.name(anc))
		}
		if err := p.labelHierarchy(n, interval.New(gap.Index, gap.Index+size-1), p.tree(anc)); err != nil {
			return err
		}
	}
	return nil
}
