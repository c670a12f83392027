package manager

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/isalabel/pkg/bender"
	"github.com/matzehuels/isalabel/pkg/errors"
	"github.com/matzehuels/isalabel/pkg/hierarchy"
	"github.com/matzehuels/isalabel/pkg/label"
	"github.com/matzehuels/isalabel/pkg/rdf"
	"github.com/matzehuels/isalabel/pkg/store"
)

// Incremental keeps labels in a [store.Store] and labels only what the
// persisted snapshot does not know yet. Existing labels may move when new
// resources need room, and moved labels are saved back.
//
// Triples cannot be deleted: removing an edge would leave containment
// answers that still reflect it.
type Incremental struct {
	opts  options
	store store.Store
	set   *labelSet
}

// NewIncremental returns a manager persisting into st. The triple set must
// be fed the whole schema, not only what changed since the last import.
func NewIncremental(st store.Store, opts ...Option) (*Incremental, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	return &Incremental{opts: o, store: st, set: newLabelSet(o.logger)}, nil
}

// AddTriple implements [LabelManager].
func (m *Incremental) AddTriple(t rdf.Triple) error { return m.set.add(t) }

// DeleteTriple always fails with ErrCodeUnsupported.
func (m *Incremental) DeleteTriple(t rdf.Triple) error {
	return errors.New(errors.ErrCodeUnsupported, "incremental labels cannot forget %s", t)
}

// UpdateLabels labels every hierarchy against its persisted snapshot. The
// update is all or nothing: the counter leases of all hierarchies are taken
// in [hierarchy.Kinds] order before any snapshot is read, and labels are
// saved only once every pass has succeeded. A failed save or commit restores
// the labels already written, and every lease is rolled back.
//
// A counter committed before a later commit fails stays advanced. Counters
// only bound where new subtrees go, so a larger value leaves a gap but
// never breaks containment.
func (m *Incremental) UpdateLabels(ctx context.Context) (*Report, error) {
	m.set.mu.Lock()
	defer m.set.mu.Unlock()
	if !m.set.stale {
		return &Report{}, nil
	}

	start := time.Now()
	graphs := m.set.builder.Build()
	passes := make([]*kindPass, 0, len(hierarchy.Kinds))

	// Leases must be released even when ctx is what failed the update.
	release := context.WithoutCancel(ctx)
	defer func() {
		for _, p := range passes {
			if err := p.lease.Rollback(release); err != nil {
				m.opts.logger.Warn("release counter lease", "hierarchy", p.graph.Kind.String(), "err", err)
			}
		}
	}()

	for _, kind := range hierarchy.Kinds {
		lease, err := m.store.Acquire(ctx, kind)
		if err != nil {
			return nil, err
		}
		passes = append(passes, &kindPass{graph: graphs[kind], lease: lease})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, p := range passes {
		g.Go(func() error { return m.label(gctx, p) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := m.persist(ctx, passes); err != nil {
		return nil, err
	}

	reports := make([]KindReport, len(passes))
	for i, p := range passes {
		m.set.labels[p.graph.Kind] = p.h.Labels()
		reports[i] = KindReport{
			Kind:    p.graph.Kind,
			Result:  p.res,
			Changes: p.h.FindUpdatedResourcesWithKnownURI(),
			Broken:  p.graph.Broken,
		}
	}
	m.set.stale = false
	rep := &Report{Kinds: reports}
	m.opts.logger.Info("labels updated", "triples", m.set.builder.Len(), "changed", rep.Changed(), "duration", time.Since(start))
	return rep, nil
}

// kindPass is the state of one hierarchy during an update.
type kindPass struct {
	graph    *rdf.Graph
	lease    hierarchy.CounterLease
	existing hierarchy.MapLabels
	h        *hierarchy.MainMemory
	res      *bender.Result
	modified hierarchy.MapLabels
}

// label runs the pass of p in memory. Nothing is written.
func (m *Incremental) label(ctx context.Context, p *kindPass) error {
	kind := p.graph.Kind
	existing, err := m.store.Load(ctx, kind)
	if err != nil {
		return err
	}
	h, err := hierarchy.NewMainMemory(kind, p.graph.Graph, p.graph.Root, existing,
		hierarchy.WithUniverse(m.opts.universe),
		hierarchy.WithCounter(heldLease{p.lease}))
	if err != nil {
		return err
	}
	res, err := m.opts.labeler.AssignLabels(ctx, h)
	if err != nil {
		return err
	}
	p.existing, p.h, p.res, p.modified = existing, h, res, h.ModifiedLabels()
	return nil
}

// persist saves the moved labels of every pass, then commits the counters.
func (m *Incremental) persist(ctx context.Context, passes []*kindPass) error {
	for i, p := range passes {
		if err := m.store.Save(ctx, p.graph.Kind, p.modified); err != nil {
			m.restore(ctx, passes[:i])
			return err
		}
	}
	for _, p := range passes {
		if err := p.h.Commit(ctx); err != nil {
			m.restore(ctx, passes)
			return err
		}
		m.opts.logger.Debug("hierarchy saved", "hierarchy", p.graph.Kind.String(), "modified", len(p.modified))
	}
	return nil
}

// restore puts back the persisted labels the passes overwrote and drops the
// ones they added.
func (m *Incremental) restore(ctx context.Context, passes []*kindPass) {
	ctx = context.WithoutCancel(ctx)
	for _, p := range passes {
		kind := p.graph.Kind
		old := make(hierarchy.MapLabels)
		var added []string
		for uri := range p.modified {
			if l, ok := p.existing[uri]; ok {
				old[uri] = l
			} else {
				added = append(added, uri)
			}
		}
		if err := m.store.Save(ctx, kind, old); err != nil {
			m.opts.logger.Error("restore labels", "hierarchy", kind.String(), "err", err)
		}
		if err := m.store.Delete(ctx, kind, added); err != nil {
			m.opts.logger.Error("drop new labels", "hierarchy", kind.String(), "err", err)
		}
	}
}

// IsFirstAncestorOfSecond implements [LabelManager].
func (m *Incremental) IsFirstAncestorOfSecond(kind hierarchy.Kind, a, b string) (bool, error) {
	return m.set.isFirstAncestorOfSecond(kind, a, b)
}

// LabelOf implements [LabelManager].
func (m *Incremental) LabelOf(kind hierarchy.Kind, uri string) (*label.Label, error) {
	return m.set.labelOf(kind, uri)
}

// heldLease hands an already acquired lease to a hierarchy.
type heldLease struct {
	lease hierarchy.CounterLease
}

func (h heldLease) Acquire(context.Context, hierarchy.Kind) (hierarchy.CounterLease, error) {
	return h.lease, nil
}

var _ LabelManager = (*Incremental)(nil)
