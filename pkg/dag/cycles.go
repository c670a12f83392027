package dag

// BreakCycles removes one back edge per directed cycle found by a
// depth-first search and returns the removed edges as (child, parent)
// pairs. Roots are visited first so that the edges pointing back toward a
// hierarchy top are the ones that go.
func BreakCycles(g *Graph) [][2]NodeID {
	back := findBackEdges(g)
	for _, e := range back {
		g.RemoveEdge(e[0], e[1])
	}
	return back
}

// findBackEdges runs an iterative white/gray/black DFS along child edges
// starting from the sources, then from any vertex left unvisited.
func findBackEdges(g *Graph) [][2]NodeID {
	const (
		white = iota
		gray
		black
	)

	type frame struct {
		node NodeID
		next int
	}

	color := make([]uint8, g.NodeCount())
	var back [][2]NodeID

	visit := func(start NodeID) {
		stack := []frame{{node: start}}
		color[start] = gray
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			kids := g.Children(top.node)
			if top.next == len(kids) {
				color[top.node] = black
				stack = stack[:len(stack)-1]
				continue
			}
			child := kids[top.next]
			top.next++
			switch color[child] {
			case white:
				color[child] = gray
				stack = append(stack, frame{node: child})
			case gray:
				// child is an ancestor on the current path: edge child → top.node closes a cycle.
				back = append(back, [2]NodeID{child, top.node})
			}
		}
	}

	for _, id := range g.Sources() {
		if color[id] == white {
			visit(id)
		}
	}
	for _, id := range g.Nodes() {
		if color[id] == white {
			visit(id)
		}
	}
	return back
}
