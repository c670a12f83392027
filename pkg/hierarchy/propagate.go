package hierarchy

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/matzehuels/isalabel/pkg/dag"
	"github.com/matzehuels/isalabel/pkg/interval"
)

// PropagateInterval implements [Hierarchy].
//
// The walk uses an explicit stack and stops going up a branch at the first
// ancestor that already contains iv: its own ancestors contain it as well.
// Parents of n receive iv as a direct propagated label, everything above as
// an indirect one. Direct parents are handled before the upward walk so an
// edge is never recorded as indirect when it is also direct. When iv is not
// n's own tree label but one n holds for a descendant, every hop is
// indirect.
func (b *Base) PropagateInterval(n dag.NodeID, iv interval.Interval) error {
	if iv.IsEmpty() {
		return nil
	}
	direct := b.LabelOf(n).Tree().Equal(iv)
	visited := roaring.BitmapOf(uint32(n))
	var stack []dag.NodeID

	for _, p := range b.ExploreDirectAncestors(n) {
		if !visited.CheckedAdd(uint32(p)) {
			continue
		}
		grown, err := b.addPropagated(p, iv, direct)
		if err != nil {
			return err
		}
		if grown {
			stack = append(stack, p)
		}
	}

	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range b.ExploreDirectAncestors(curr) {
			if !visited.CheckedAdd(uint32(p)) {
				continue
			}
			grown, err := b.addPropagated(p, iv, false)
			if err != nil {
				return err
			}
			if grown {
				stack = append(stack, p)
			}
		}
	}
	return nil
}

// addPropagated adds iv to the label of n and reports whether the walk must
// continue above n, that is whether n did not already contain iv.
func (b *Base) addPropagated(n dag.NodeID, iv interval.Interval, direct bool) (bool, error) {
	l := b.LabelOf(n)
	if l.ContainsInterval(iv) {
		if direct && !l.Tree().ContainsInterval(iv) {
			// Record the direct edge even if an indirect path got there first.
			if _, err := l.AddPropagated(iv, true); err != nil {
				return false, fmt.Errorf("propagate %s to %s: %w", iv, b.describe(n), err)
			}
		}
		return false, nil
	}
	if _, err := l.AddPropagated(iv, direct); err != nil {
		return false, fmt.Errorf("propagate %s to %s: %w", iv, b.describe(n), err)
	}
	return true, nil
}

// ChangePropagatedLabels implements [Hierarchy]. Every ancestor of from
// (and from itself) is visited once; the walk is not pruned because a stale
// interval may sit above a node that holds the new one already.
func (b *Base) ChangePropagatedLabels(shifts map[interval.Interval]interval.Interval, from []dag.NodeID) int {
	if len(shifts) == 0 {
		return 0
	}
	visited := roaring.New()
	stack := make([]dag.NodeID, 0, len(from))
	for _, n := range from {
		if visited.CheckedAdd(uint32(n)) {
			stack = append(stack, n)
		}
	}

	changed := 0
	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if b.referencesAny(curr, shifts) && b.LabelOf(curr).RemapPropagated(shifts) {
			changed++
		}
		for _, p := range b.ExploreDirectAncestors(curr) {
			if visited.CheckedAdd(uint32(p)) {
				stack = append(stack, p)
			}
		}
	}
	return changed
}

func (b *Base) referencesAny(n dag.NodeID, shifts map[interval.Interval]interval.Interval) bool {
	l := b.peek(n)
	if l == nil {
		return false
	}
	for _, iv := range l.Propagated() {
		if _, ok := shifts[iv]; ok {
			return true
		}
	}
	return false
}

func (b *Base) describe(n dag.NodeID) string {
	if uri := b.graph.URI(n); uri != "" {
		return uri
	}
	return fmt.Sprintf("node %d %s", n, b.graph.Vertex(n).Key)
}
