package bender

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/isalabel/pkg/dag"
	"github.com/matzehuels/isalabel/pkg/errors"
	"github.com/matzehuels/isalabel/pkg/hierarchy"
	"github.com/matzehuels/isalabel/pkg/interval"
	"github.com/matzehuels/isalabel/pkg/label"
)

func iv(i, p int) interval.Interval { return interval.New(i, p) }

// build creates a class hierarchy rooted at "R" from child → parent pairs.
func build(t *testing.T, labels hierarchy.MapLabels, edges [][2]string, opts ...hierarchy.Option) (*hierarchy.MainMemory, map[string]dag.NodeID) {
	t.Helper()
	g := dag.New()
	ids := map[string]dag.NodeID{"R": g.Ensure("R")}
	for _, e := range edges {
		c, p := g.Ensure(e[0]), g.Ensure(e[1])
		ids[e[0]], ids[e[1]] = c, p
		require.NoError(t, g.AddEdge(c, p))
	}
	h, err := hierarchy.NewMainMemory(hierarchy.KindClass, g, ids["R"], labels, opts...)
	require.NoError(t, err)
	return h, ids
}

func assign(t *testing.T, h hierarchy.Hierarchy, opts ...Option) *Result {
	t.Helper()
	l, err := New(opts...)
	require.NoError(t, err)
	res, err := l.AssignLabels(context.Background(), h)
	require.NoError(t, err)
	return res
}

func ancestors(g *dag.Graph, n dag.NodeID) map[dag.NodeID]bool {
	out := map[dag.NodeID]bool{}
	stack := []dag.NodeID{n}
	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range g.Parents(curr) {
			if !out[p] {
				out[p] = true
				stack = append(stack, p)
			}
		}
	}
	return out
}

// requireConsistent checks that every node is labeled, that tree labels form
// a laminar family nested along graph edges, and that containment answers
// ancestry exactly.
func requireConsistent(t *testing.T, h *hierarchy.MainMemory) {
	t.Helper()
	g := h.Graph()
	nodes := g.Nodes()
	tree := func(n dag.NodeID) interval.Interval { return h.LabelOf(n).Tree() }

	for _, n := range nodes {
		require.False(t, tree(n).IsEmpty(), "%s is unlabeled", g.URI(n))
		if n == h.Root() {
			continue
		}
		nested := false
		for _, p := range g.Parents(n) {
			nested = nested || tree(p).StrictlyContains(tree(n))
		}
		require.True(t, nested, "%s %s is not nested in any parent", g.URI(n), tree(n))
	}

	for _, b := range nodes {
		anc := ancestors(g, b)
		for _, a := range nodes {
			if a == b {
				continue
			}
			ta, tb := tree(a), tree(b)
			require.False(t, ta.Equal(tb), "%s and %s share %s", g.URI(a), g.URI(b), ta)
			require.True(t, !ta.OverlapsWith(tb) || ta.ContainsInterval(tb) || tb.ContainsInterval(ta),
				"%s %s and %s %s cross", g.URI(a), ta, g.URI(b), tb)
			require.Equal(t, anc[a], hierarchy.IsFirstAncestorOfSecond(h, a, b),
				"%s %s ancestor of %s %s", g.URI(a), h.LabelOf(a), g.URI(b), tb)
		}
	}
}

func TestNewRejectsSlack(t *testing.T) {
	_, err := New(WithSlack(2.5))
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))

	l, err := New(WithSlack(2), WithLogger(nil))
	require.NoError(t, err)
	assert.Equal(t, 2.0, l.Slack())
}

func TestSizes(t *testing.T) {
	p := &pass{slack: 1}
	assert.Equal(t, 41, p.sparseSize(0))
	assert.Equal(t, 61, p.sparseSize(1))
	p.slack = 1.5
	assert.Equal(t, 91, p.sparseSize(1))
	assert.Equal(t, 5, denseSize(0))
	assert.Equal(t, 11, denseSize(3))
}

// A below B below the root, labeled from nothing.
func TestLabelFromEmpty(t *testing.T) {
	h, ids := build(t, nil, [][2]string{{"A", "B"}, {"B", "R"}})

	res := assign(t, h)

	assert.Equal(t, 1, res.NewRoots)
	assert.Equal(t, 2, res.Labeled)
	assert.False(t, res.Overflowed)
	assert.Equal(t, iv(1, 61), h.LabelOf(ids["B"]).Tree())
	assert.Equal(t, iv(31, 60), h.LabelOf(ids["A"]).Tree())
	assert.True(t, h.LabelOf(ids["R"]).Tree().ContainsInterval(h.LabelOf(ids["B"]).Tree()))
	assert.True(t, h.LabelOf(ids["B"]).Tree().ContainsInterval(h.LabelOf(ids["A"]).Tree()))

	next, err := h.IndexForNewHierarchy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 62, next)
	requireConsistent(t, h)
}

// B's free space is too small for a new child, so B grows and
// its right sibling S moves together with S1, which E references through a
// propagated label.
func TestGrowAndShiftSiblings(t *testing.T) {
	e := label.New(iv(300, 400))
	_, err := e.AddPropagated(iv(150, 160), true)
	require.NoError(t, err)
	labels := hierarchy.MapLabels{
		"R":  label.New(iv(0, 1000)),
		"B":  label.New(iv(1, 100)),
		"C1": label.New(iv(2, 40)),
		"C2": label.New(iv(41, 99)),
		"S":  label.New(iv(101, 200)),
		"S1": label.New(iv(150, 160)),
		"E":  e,
	}
	h, ids := build(t, labels, [][2]string{
		{"B", "R"}, {"C1", "B"}, {"C2", "B"},
		{"S", "R"}, {"S1", "S"}, {"E", "R"}, {"S1", "E"},
		{"N", "B"},
	})

	res := assign(t, h)

	assert.Equal(t, 1, res.Relabels)
	assert.Equal(t, 3, res.Shifted)
	assert.Equal(t, iv(1, 104), h.LabelOf(ids["B"]).Tree())
	assert.Equal(t, iv(100, 104), h.LabelOf(ids["N"]).Tree())
	assert.Equal(t, iv(2, 40), h.LabelOf(ids["C1"]).Tree())
	assert.Equal(t, iv(41, 99), h.LabelOf(ids["C2"]).Tree())

	// Uniform shift of the right sibling and everything nested in it.
	for _, name := range []string{"S", "S1"} {
		old := labels[name].Tree()
		assert.Equal(t, old.Shift(4), h.LabelOf(ids[name]).Tree(), name)
	}
	assert.Equal(t, iv(300, 400), h.LabelOf(ids["E"]).Tree())
	assert.Equal(t, []interval.Interval{iv(154, 164)}, h.LabelOf(ids["E"]).Direct())

	changes := h.FindUpdatedResourcesWithKnownURI()
	var names []string
	for _, c := range changes {
		names = append(names, c.URI)
	}
	assert.Equal(t, []string{"B", "N", "S", "S1"}, names)

	next, err := h.IndexForNewHierarchy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 401, next)
	requireConsistent(t, h)
}

// B's largest gap is below the sparse size but fits the dense size, so N
// goes there without growing B or moving anything.
func TestDenseFitSkipsCascade(t *testing.T) {
	labels := hierarchy.MapLabels{
		"R":  label.New(iv(0, 1000)),
		"B":  label.New(iv(1, 100)),
		"C1": label.New(iv(2, 40)),
		"C2": label.New(iv(41, 90)),
		"S":  label.New(iv(101, 200)),
	}
	h, ids := build(t, labels, [][2]string{
		{"B", "R"}, {"C1", "B"}, {"C2", "B"}, {"S", "R"}, {"N", "B"},
	})

	res := assign(t, h)

	assert.Zero(t, res.Relabels)
	assert.Zero(t, res.Shifted)
	assert.False(t, res.Overflowed)
	assert.Equal(t, iv(91, 95), h.LabelOf(ids["N"]).Tree())
	assert.Equal(t, iv(1, 100), h.LabelOf(ids["B"]).Tree())
	assert.Equal(t, iv(101, 200), h.LabelOf(ids["S"]).Tree())

	var names []string
	for _, c := range h.FindUpdatedResourcesWithKnownURI() {
		names = append(names, c.URI)
	}
	assert.Equal(t, []string{"N"}, names)
	requireConsistent(t, h)
}

func TestCascadeGrowsAncestors(t *testing.T) {
	// B has no room, neither has R's child A around it, so A grows too and
	// its right sibling Z moves.
	labels := hierarchy.MapLabels{
		"R":  label.New(iv(0, 1000)),
		"A":  label.New(iv(1, 100)),
		"B":  label.New(iv(2, 60)),
		"B1": label.New(iv(3, 60)),
		"A2": label.New(iv(61, 100)),
		"Z":  label.New(iv(101, 150)),
		"Z1": label.New(iv(120, 130)),
	}
	h, ids := build(t, labels, [][2]string{
		{"A", "R"}, {"B", "A"}, {"B1", "B"}, {"A2", "A"},
		{"Z", "R"}, {"Z1", "Z"}, {"N", "B"},
	})

	res := assign(t, h)

	// B's trailing gap is empty, so it needs the whole dense size of 5.
	assert.Equal(t, 1, res.Relabels)
	assert.Equal(t, iv(2, 65), h.LabelOf(ids["B"]).Tree())
	assert.Equal(t, iv(66, 105), h.LabelOf(ids["A2"]).Tree())
	assert.Equal(t, iv(1, 105), h.LabelOf(ids["A"]).Tree())
	assert.Equal(t, iv(106, 155), h.LabelOf(ids["Z"]).Tree())
	assert.Equal(t, iv(125, 135), h.LabelOf(ids["Z1"]).Tree())
	assert.Equal(t, iv(61, 65), h.LabelOf(ids["N"]).Tree())
	requireConsistent(t, h)
}

// A new edge between two old nodes becomes a propagated label.
func TestOldToOldEdgePropagates(t *testing.T) {
	labels := hierarchy.MapLabels{
		"R": label.New(iv(0, 100)),
		"B": label.New(iv(1, 50)),
		"D": label.New(iv(2, 10)),
		"E": label.New(iv(51, 60)),
	}
	h, ids := build(t, labels, [][2]string{{"B", "R"}, {"D", "B"}, {"E", "R"}, {"D", "E"}})

	res := assign(t, h)

	assert.Zero(t, res.NewRoots)
	assert.Equal(t, iv(2, 10), h.LabelOf(ids["D"]).Tree())
	assert.False(t, h.HasUpdatedLabel(ids["D"]))
	assert.Equal(t, []interval.Interval{iv(2, 10)}, h.LabelOf(ids["E"]).Direct())
	assert.True(t, hierarchy.IsFirstAncestorOfSecond(h, ids["E"], ids["D"]))
	assert.Contains(t, h.ModifiedLabels(), "E")
	requireConsistent(t, h)
}

// Appending below the root runs out of universe and the whole
// hierarchy is spread out again.
func TestUniverseOverflowRelabelsAll(t *testing.T) {
	edges := [][2]string{{"X1", "R"}, {"Y1", "X1"}, {"X2", "R"}, {"Y2", "X2"}, {"X3", "R"}, {"Y3", "X3"}}

	h, ids := build(t, nil, edges[:2], hierarchy.WithUniverse(150))
	assign(t, h)
	assert.Equal(t, iv(1, 61), h.LabelOf(ids["X1"]).Tree())

	h, ids = build(t, h.Labels(), edges[:4])
	res := assign(t, h)
	assert.False(t, res.Overflowed)
	assert.Equal(t, iv(62, 122), h.LabelOf(ids["X2"]).Tree())
	assert.Equal(t, iv(92, 121), h.LabelOf(ids["Y2"]).Tree())

	h, ids = build(t, h.Labels(), edges)
	res = assign(t, h)
	require.True(t, res.Overflowed)

	want := map[string]interval.Interval{
		"X1": iv(11, 30), "Y1": iv(21, 30),
		"X2": iv(31, 50), "Y2": iv(41, 50),
		"X3": iv(51, 70), "Y3": iv(61, 70),
	}
	for name, tree := range want {
		assert.Equal(t, tree, h.LabelOf(ids[name]).Tree(), name)
	}
	for i := 1; i <= 3; i++ {
		x, y := ids[fmt.Sprintf("X%d", i)], ids[fmt.Sprintf("Y%d", i)]
		assert.True(t, hierarchy.IsFirstAncestorOfSecond(h, x, y))
		assert.False(t, hierarchy.IsFirstAncestorOfSecond(h, y, x))
	}
	assert.True(t, h.HasUpdatedLabel(ids["X1"]))
	assert.Equal(t, iv(0, 150), h.LabelOf(ids["R"]).Tree())

	next, err := h.IndexForNewHierarchy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 71, next)
	requireConsistent(t, h)
}

func TestDiamond(t *testing.T) {
	h, ids := build(t, nil, [][2]string{{"A", "R"}, {"B", "A"}, {"C", "A"}, {"D", "B"}, {"D", "C"}})

	assign(t, h)

	assert.Equal(t, iv(1, 101), h.LabelOf(ids["A"]).Tree())
	assert.Equal(t, iv(26, 75), h.LabelOf(ids["B"]).Tree())
	assert.Equal(t, iv(76, 100), h.LabelOf(ids["C"]).Tree())
	assert.Equal(t, iv(51, 75), h.LabelOf(ids["D"]).Tree())
	assert.Equal(t, []interval.Interval{iv(51, 75)}, h.LabelOf(ids["C"]).Direct())
	requireConsistent(t, h)
}

func TestTransitiveEdgeIsSkipped(t *testing.T) {
	h, ids := build(t, nil, [][2]string{{"A", "R"}, {"B", "A"}, {"C", "B"}, {"C", "A"}})

	assign(t, h)

	assert.Equal(t, iv(1, 81), h.LabelOf(ids["A"]).Tree())
	assert.Equal(t, iv(28, 81), h.LabelOf(ids["B"]).Tree())
	assert.Equal(t, iv(55, 81), h.LabelOf(ids["C"]).Tree())
	assert.Empty(t, h.LabelOf(ids["A"]).Propagated())
	requireConsistent(t, h)
}

func TestIdempotence(t *testing.T) {
	edges := [][2]string{
		{"A", "R"}, {"B", "A"}, {"C", "A"}, {"D", "B"}, {"D", "C"},
		{"E", "R"}, {"F", "E"}, {"F", "B"},
	}
	h, _ := build(t, nil, edges)
	assign(t, h)

	again, _ := build(t, h.Labels(), edges)
	res := assign(t, again)

	assert.Zero(t, res.NewRoots)
	assert.Zero(t, res.Relabels)
	for _, n := range again.Graph().Nodes() {
		assert.False(t, again.HasUpdatedLabel(n), again.Graph().URI(n))
	}
	assert.Empty(t, again.FindUpdatedResourcesWithKnownURI())
	requireConsistent(t, again)
}

func TestHierarchyTooDeep(t *testing.T) {
	edges := [][2]string{{"N0", "R"}}
	for i := 1; i < 10; i++ {
		edges = append(edges, [2]string{fmt.Sprintf("N%d", i), fmt.Sprintf("N%d", i-1)})
	}
	h, _ := build(t, nil, edges, hierarchy.WithUniverse(10))

	l, err := New()
	require.NoError(t, err)
	_, err = l.AssignLabels(context.Background(), h)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeHierarchyTooDeep))
	assert.True(t, errors.IsLabelingFailure(err))
}

// TestIncrementalBatches grows a random DAG in batches, relabeling after
// each batch from the persisted labels of the previous one.
func TestIncrementalBatches(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	var edges [][2]string
	names := []string{}
	var labels hierarchy.MapLabels

	for batch := 0; batch < 5; batch++ {
		for i := 0; i < 8; i++ {
			name := fmt.Sprintf("n%d", len(names))
			switch k := len(names); {
			case k == 0 || rng.IntN(6) == 0:
				edges = append(edges, [2]string{name, "R"})
			default:
				seen := map[string]bool{}
				for j := 0; j < 1+rng.IntN(2); j++ {
					p := names[rng.IntN(k)]
					if !seen[p] {
						seen[p] = true
						edges = append(edges, [2]string{name, p})
					}
				}
			}
			names = append(names, name)
		}
		// An extra edge between two old nodes, older node as parent.
		if len(names) > 10 {
			c, p := names[5+rng.IntN(len(names)-10)], names[rng.IntN(5)]
			if !containsEdge(edges, c, p) {
				edges = append(edges, [2]string{c, p})
			}
		}

		h, _ := build(t, labels, edges)
		assign(t, h)
		requireConsistent(t, h)
		labels = h.Labels()
	}
}

func containsEdge(edges [][2]string, c, p string) bool {
	for _, e := range edges {
		if e[0] == c && e[1] == p {
			return true
		}
	}
	return false
}

func TestCascadePreservesContainment(t *testing.T) {
	// Keep inserting below B until its gaps are used up and a pass has to
	// grow B and A.
	edges := [][2]string{{"A", "R"}, {"B", "A"}, {"C", "A"}, {"D", "C"}, {"D", "B"}}
	h, _ := build(t, nil, edges)
	assign(t, h)

	relabels := 0
	for i := 0; i < 4; i++ {
		before := h.Labels()
		edges = append(edges, [2]string{fmt.Sprintf("B%d", i), "B"}, [2]string{fmt.Sprintf("B%dx", i), fmt.Sprintf("B%d", i)})
		h, _ = build(t, before, edges)
		relabels += assign(t, h).Relabels
		requireConsistent(t, h)
	}
	assert.Equal(t, 1, relabels)
}
