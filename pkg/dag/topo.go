package dag

// TopoOrder returns the vertices ordered so that every parent precedes its
// children.
//
// TopoOrder uses Kahn's algorithm over parent counts: vertices without
// parents come first, in ascending ID order, and a child is emitted once all
// its parents have been. Vertices on a cycle are never emitted; run
// [BreakCycles] first.
//
// Time complexity is O(V + E).
func TopoOrder(g *Graph) []NodeID {
	n := g.NodeCount()
	pending := make([]int, n)
	queue := make([]NodeID, 0, n)

	for _, id := range g.Nodes() {
		pending[id] = g.OutDegree(id)
		if pending[id] == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]NodeID, 0, n)
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		order = append(order, curr)

		for _, child := range g.Children(curr) {
			pending[child]--
			if pending[child] == 0 {
				queue = append(queue, child)
			}
		}
	}
	return order
}

// ReverseTopoOrder returns [TopoOrder] reversed: children before parents.
func ReverseTopoOrder(g *Graph) []NodeID {
	order := TopoOrder(g)
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}
