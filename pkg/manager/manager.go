package manager

import (
	"context"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/isalabel/pkg/bender"
	"github.com/matzehuels/isalabel/pkg/errors"
	"github.com/matzehuels/isalabel/pkg/hierarchy"
	"github.com/matzehuels/isalabel/pkg/label"
	"github.com/matzehuels/isalabel/pkg/rdf"
)

// LabelManager keeps schema labels in sync with a triple set.
type LabelManager interface {
	// AddTriple records a triple. Labels become stale if it changes the set.
	AddTriple(t rdf.Triple) error
	// DeleteTriple removes a triple. Labels become stale if it was present.
	DeleteTriple(t rdf.Triple) error
	// UpdateLabels brings the labels of all four hierarchies up to date.
	UpdateLabels(ctx context.Context) (*Report, error)
	// IsFirstAncestorOfSecond reports whether a subsumes b (or equals it) in
	// the hierarchy of kind.
	IsFirstAncestorOfSecond(kind hierarchy.Kind, a, b string) (bool, error)
	// LabelOf returns a copy of the current label of uri.
	LabelOf(kind hierarchy.Kind, uri string) (*label.Label, error)
}

// Report describes one UpdateLabels call, one entry per hierarchy kind in
// [hierarchy.Kinds] order. It is empty when the labels were already current.
type Report struct {
	Kinds []KindReport
}

// KindReport is the outcome of labeling one hierarchy.
type KindReport struct {
	Kind    hierarchy.Kind
	Result  *bender.Result
	Changes []hierarchy.Change
	Broken  []rdf.Edge
}

// Changed returns the total number of moved or newly labeled resources.
func (r *Report) Changed() int {
	n := 0
	for _, k := range r.Kinds {
		n += len(k.Changes)
	}
	return n
}

// Option configures a manager.
type Option func(*options)

type options struct {
	labeler  *bender.Labeler
	universe int
	logger   *log.Logger
}

// WithLabeler sets the labeler used for every hierarchy.
func WithLabeler(l *bender.Labeler) Option {
	return func(o *options) {
		if l != nil {
			o.labeler = l
		}
	}
}

// WithUniverse sets the post of every root label.
func WithUniverse(post int) Option {
	return func(o *options) { o.universe = post }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func newOptions(opts []Option) (options, error) {
	o := options{
		universe: hierarchy.DefaultUniversePost,
		logger:   log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.labeler == nil {
		l, err := bender.New(bender.WithLogger(o.logger))
		if err != nil {
			return o, err
		}
		o.labeler = l
	}
	return o, nil
}

// labelSet is the triple set and the label snapshot derived from it.
type labelSet struct {
	mu      sync.RWMutex
	builder *rdf.Builder
	labels  map[hierarchy.Kind]hierarchy.MapLabels
	stale   bool
}

func newLabelSet(logger *log.Logger) *labelSet {
	return &labelSet{
		builder: rdf.NewBuilder(rdf.WithLogger(logger)),
		labels:  make(map[hierarchy.Kind]hierarchy.MapLabels),
		stale:   true,
	}
}

func (s *labelSet) add(t rdf.Triple) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.builder.Add(t) {
		s.stale = true
	}
	return nil
}

func (s *labelSet) delete(t rdf.Triple) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.builder.Delete(t) {
		s.stale = true
	}
}

func (s *labelSet) lookup(kind hierarchy.Kind, uri string) (*label.Label, error) {
	if s.stale {
		return nil, errors.New(errors.ErrCodeStaleLabels, "labels changed since the last update")
	}
	l, ok := s.labels[kind][uri]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "%s is not in the %s hierarchy", uri, kind)
	}
	return l, nil
}

func (s *labelSet) isFirstAncestorOfSecond(kind hierarchy.Kind, a, b string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	la, err := s.lookup(kind, a)
	if err != nil {
		return false, err
	}
	lb, err := s.lookup(kind, b)
	if err != nil {
		return false, err
	}
	return hierarchy.IsAncestor(la, lb), nil
}

func (s *labelSet) labelOf(kind hierarchy.Kind, uri string) (*label.Label, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, err := s.lookup(kind, uri)
	if err != nil {
		return nil, err
	}
	return l.Clone(), nil
}
