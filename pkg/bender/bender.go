package bender

import (
	"context"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/isalabel/pkg/dag"
	"github.com/matzehuels/isalabel/pkg/errors"
	"github.com/matzehuels/isalabel/pkg/hierarchy"
	"github.com/matzehuels/isalabel/pkg/interval"
	"github.com/matzehuels/isalabel/pkg/observability"
)

// DefaultSlack is the slack factor used when none is configured.
const DefaultSlack = 1.0

// Labeler assigns labels to hierarchies. It holds configuration only, so a
// single Labeler may serve concurrent passes over different hierarchies.
type Labeler struct {
	slack  float64
	logger *log.Logger
}

// Option configures a [Labeler].
type Option func(*Labeler) error

// WithSlack sets the slack factor T. T must lie in [1, 2].
func WithSlack(t float64) Option {
	return func(l *Labeler) error {
		if err := errors.ValidateSlack(t); err != nil {
			return err
		}
		l.slack = t
		return nil
	}
}

// WithLogger sets the logger for pass summaries and placement decisions.
func WithLogger(logger *log.Logger) Option {
	return func(l *Labeler) error {
		if logger != nil {
			l.logger = logger
		}
		return nil
	}
}

// New returns a labeler configured by opts.
func New(opts ...Option) (*Labeler, error) {
	l := &Labeler{
		slack:  DefaultSlack,
		logger: log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Slack returns the configured slack factor.
func (l *Labeler) Slack() float64 { return l.slack }

// Result summarizes a labeling pass.
type Result struct {
	PassID     uuid.UUID
	Kind       hierarchy.Kind
	NewRoots   int
	Labeled    int
	Relabels   int
	Shifted    int
	Overflowed bool
	Duration   time.Duration
}

// AssignLabels runs one labeling pass over h. On error the working labels
// of h must be discarded.
func (l *Labeler) AssignLabels(ctx context.Context, h hierarchy.Hierarchy) (res *Result, err error) {
	start := time.Now()
	p := &pass{
		ctx:   ctx,
		h:     h,
		slack: l.slack,
		res:   &Result{PassID: uuid.New(), Kind: h.Kind()},
	}
	p.log = l.logger.With("pass", p.res.PassID.String()[:8], "hierarchy", h.Kind().String())

	roots := h.NewRoots()
	p.res.NewRoots = len(roots)
	hooks := observability.Labeling()
	hooks.OnPassStart(ctx, h.Kind().String(), len(roots))
	defer func() {
		p.res.Duration = time.Since(start)
		hooks.OnPassComplete(ctx, h.Kind().String(), observability.PassStats{
			NewRoots:   p.res.NewRoots,
			Relabels:   p.res.Relabels,
			Shifted:    p.res.Shifted,
			Overflowed: p.res.Overflowed,
		}, p.res.Duration, err)
	}()

	for _, r := range roots {
		h.Prefetch(h.ExploreDirectAncestors(r))
	}

	for _, r := range roots {
		if p.res.Overflowed {
			break
		}
		if h.LabelOf(r).HasTree() {
			continue
		}
		if err := p.labelNewRoot(r); err != nil {
			return nil, err
		}
	}
	if !p.res.Overflowed {
		if err := p.labelLeftovers(); err != nil {
			return nil, err
		}
	}
	if err := p.checkForNewEdgesWithOldNodes(); err != nil {
		return nil, err
	}

	p.log.Info("labeling pass complete",
		"new_roots", p.res.NewRoots,
		"labeled", p.res.Labeled,
		"relabels", p.res.Relabels,
		"shifted", p.res.Shifted,
		"overflowed", p.res.Overflowed,
		"duration", time.Since(start))
	return p.res, nil
}

// pass is the state of one AssignLabels call.
type pass struct {
	ctx   context.Context
	h     hierarchy.Hierarchy
	slack float64
	log   *log.Logger
	res   *Result
}

// sparseSize is the space reserved for a subtree with d descendants when it
// is appended to an existing hierarchy.
func (p *pass) sparseSize(d int) int {
	return int(math.Ceil(p.slack*20*float64(d+2))) + 1
}

// denseSize is the space reserved for a subtree with d descendants after a
// cascade made room for it.
func denseSize(d int) int {
	return 2*(d+2) + 1
}

// labelLeftovers labels new nodes that no subtree walk reached, parents
// first. Each of them has only labeled parents by the time it is visited.
func (p *pass) labelLeftovers() error {
	for _, n := range dag.TopoOrder(p.h.Graph()) {
		if n == p.h.Root() || !p.h.IsNew(n) || p.h.LabelOf(n).HasTree() {
			continue
		}
		p.log.Debug("labeling unreached node", "node", p.name(n))
		if err := p.labelNewRoot(n); err != nil {
			return err
		}
		if p.res.Overflowed {
			return nil
		}
	}
	return nil
}

// checkForNewEdgesWithOldNodes re-propagates the labels of every labeled
// node, which records edges added between two old nodes. Propagated labels
// travel along as well: a node that gains a parent must hand up what it
// holds for its DAG descendants, not only its tree label.
func (p *pass) checkForNewEdgesWithOldNodes() error {
	for _, n := range p.h.ExploredNodes() {
		if n == p.h.Root() {
			continue
		}
		l := p.h.LabelOf(n)
		if !l.HasTree() {
			continue
		}
		for _, iv := range append([]interval.Interval{l.Tree()}, l.Propagated()...) {
			if err := p.h.PropagateInterval(n, iv); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *pass) name(n dag.NodeID) string {
	if uri := p.h.Graph().URI(n); uri != "" {
		return uri
	}
	return p.h.Graph().Vertex(n).Key.String()
}
