package hierarchy

import (
	"context"
	"fmt"

	"github.com/matzehuels/isalabel/pkg/dag"
	"github.com/matzehuels/isalabel/pkg/errors"
)

// Option configures a [MainMemory] hierarchy.
type Option func(*options)

type options struct {
	universePost int
	counter      CounterStore
}

// WithUniverse sets the post of the root's tree label when the root has no
// predefined label. Values below 1 are ignored.
func WithUniverse(post int) Option {
	return func(o *options) {
		if post > 0 {
			o.universePost = post
		}
	}
}

// WithCounter makes the hierarchy take the next free slot below the root
// from a persisted counter, held under an exclusive lease from the first
// access until [MainMemory.Commit] or [MainMemory.Rollback].
func WithCounter(cs CounterStore) Option {
	return func(o *options) { o.counter = cs }
}

// MainMemory is a fully materialized hierarchy. Every vertex of the graph
// is explored at construction.
//
// A MainMemory is single-writer: it must not be shared between concurrent
// labeling passes.
type MainMemory struct {
	*Base

	counter CounterStore
	lease   CounterLease
	next    int
	loaded  bool
}

// NewMainMemory wraps g as a hierarchy of the given kind. Every vertex
// without parents other than root is attached below root, so the graph is
// modified in place. labels may be nil for a hierarchy built from scratch.
func NewMainMemory(kind Kind, g *dag.Graph, root dag.NodeID, labels PredefinedLabels, opts ...Option) (*MainMemory, error) {
	if !g.Has(root) {
		return nil, errors.New(errors.ErrCodeNodeNotFound, "root %d is not a vertex of the %s hierarchy", root, kind)
	}
	o := options{universePost: DefaultUniversePost}
	for _, opt := range opts {
		opt(&o)
	}

	if g.OutDegree(root) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "root %s of the %s hierarchy has parents", g.URI(root), kind)
	}
	for _, n := range g.Sources() {
		if n == root {
			continue
		}
		if err := g.AddEdge(n, root); err != nil {
			return nil, fmt.Errorf("attach %s to root: %w", g.URI(n), err)
		}
	}

	m := &MainMemory{
		Base:    newBase(kind, g, root, labels, o.universePost),
		counter: o.counter,
	}
	m.markExplored(g.Nodes())
	return m, nil
}

// IndexForNewHierarchy implements [Hierarchy].
func (m *MainMemory) IndexForNewHierarchy(ctx context.Context) (int, error) {
	if err := m.load(ctx); err != nil {
		return 0, err
	}
	return m.next, nil
}

// SetIndexForNewHierarchy implements [Hierarchy]. With a counter the value
// is staged until [MainMemory.Commit].
func (m *MainMemory) SetIndexForNewHierarchy(ctx context.Context, next int) error {
	if err := m.load(ctx); err != nil {
		return err
	}
	m.next = next
	return nil
}

// RecalculateIndexForNewHierarchy implements [Hierarchy]. The persisted
// counter is ignored: after a relabel the scan is authoritative.
func (m *MainMemory) RecalculateIndexForNewHierarchy(ctx context.Context) error {
	if err := m.load(ctx); err != nil {
		return err
	}
	m.next = m.scanIndex()
	return nil
}

func (m *MainMemory) load(ctx context.Context) error {
	if m.loaded {
		return nil
	}
	m.next = m.scanIndex()
	if m.counter != nil {
		lease, err := m.counter.Acquire(ctx, m.kind)
		if err != nil {
			return errors.Wrap(errors.ErrCodeLockTimeout, err, "acquire %s counter", m.kind)
		}
		persisted, err := lease.Load(ctx)
		if err != nil {
			_ = lease.Rollback(context.WithoutCancel(ctx))
			return errors.Wrap(errors.ErrCodeStorage, err, "load %s counter", m.kind)
		}
		m.lease = lease
		m.next = max(m.next, persisted)
	}
	m.loaded = true
	return nil
}

// scanIndex returns one past the largest post among the root's labeled
// children, or the slot right after the root's index.
func (m *MainMemory) scanIndex() int {
	root := m.rootLabel.Tree()
	next := root.Index + 1
	for _, c := range m.graph.Children(m.root) {
		if l := m.peek(c); l != nil && l.HasTree() {
			next = max(next, l.Tree().Post+1)
		}
	}
	return next
}

// Commit persists the staged index and releases the counter lease. It is a
// no-op without a counter or when the index was never touched.
func (m *MainMemory) Commit(ctx context.Context) error {
	if m.lease == nil {
		return nil
	}
	lease := m.lease
	m.lease, m.loaded = nil, false
	if err := lease.Commit(ctx, m.next); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "commit %s counter", m.kind)
	}
	return nil
}

// Rollback releases the counter lease without persisting anything.
func (m *MainMemory) Rollback(ctx context.Context) error {
	if m.lease == nil {
		return nil
	}
	lease := m.lease
	m.lease, m.loaded = nil, false
	if err := lease.Rollback(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "release %s counter", m.kind)
	}
	return nil
}

var _ Hierarchy = (*MainMemory)(nil)
