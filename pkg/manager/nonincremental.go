package manager

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/isalabel/pkg/hierarchy"
	"github.com/matzehuels/isalabel/pkg/label"
	"github.com/matzehuels/isalabel/pkg/rdf"
)

// NonIncremental relabels every hierarchy from scratch after any change.
// It is safe for concurrent use.
type NonIncremental struct {
	opts options
	set  *labelSet
}

// NewNonIncremental returns a manager over an empty triple set.
func NewNonIncremental(opts ...Option) (*NonIncremental, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	return &NonIncremental{opts: o, set: newLabelSet(o.logger)}, nil
}

// AddTriple implements [LabelManager].
func (m *NonIncremental) AddTriple(t rdf.Triple) error { return m.set.add(t) }

// DeleteTriple implements [LabelManager].
func (m *NonIncremental) DeleteTriple(t rdf.Triple) error {
	m.set.delete(t)
	return nil
}

// UpdateLabels rebuilds all four hierarchies concurrently. Nothing changes
// if any of them fails.
func (m *NonIncremental) UpdateLabels(ctx context.Context) (*Report, error) {
	m.set.mu.Lock()
	defer m.set.mu.Unlock()
	if !m.set.stale {
		return &Report{}, nil
	}

	start := time.Now()
	graphs := m.set.builder.Build()
	reports := make([]KindReport, len(hierarchy.Kinds))
	labels := make([]hierarchy.MapLabels, len(hierarchy.Kinds))

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range hierarchy.Kinds {
		g.Go(func() error {
			graph := graphs[kind]
			h, err := hierarchy.NewMainMemory(kind, graph.Graph, graph.Root, nil, hierarchy.WithUniverse(m.opts.universe))
			if err != nil {
				return err
			}
			res, err := m.opts.labeler.AssignLabels(gctx, h)
			if err != nil {
				return err
			}
			reports[i] = KindReport{
				Kind:    kind,
				Result:  res,
				Changes: h.FindUpdatedResourcesWithKnownURI(),
				Broken:  graph.Broken,
			}
			labels[i] = h.Labels()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, kind := range hierarchy.Kinds {
		m.set.labels[kind] = labels[i]
	}
	m.set.stale = false
	rep := &Report{Kinds: reports}
	m.opts.logger.Info("labels rebuilt", "triples", m.set.builder.Len(), "labeled", rep.Changed(), "duration", time.Since(start))
	return rep, nil
}

// IsFirstAncestorOfSecond implements [LabelManager]. It fails with
// ErrCodeStaleLabels until UpdateLabels ran after the last change.
func (m *NonIncremental) IsFirstAncestorOfSecond(kind hierarchy.Kind, a, b string) (bool, error) {
	return m.set.isFirstAncestorOfSecond(kind, a, b)
}

// LabelOf implements [LabelManager].
func (m *NonIncremental) LabelOf(kind hierarchy.Kind, uri string) (*label.Label, error) {
	return m.set.labelOf(kind, uri)
}

var _ LabelManager = (*NonIncremental)(nil)
