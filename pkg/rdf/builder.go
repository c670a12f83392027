package rdf

import (
	"io"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/isalabel/pkg/dag"
	"github.com/matzehuels/isalabel/pkg/hierarchy"
)

// Graph is the is-a graph of one hierarchy kind.
type Graph struct {
	Kind  hierarchy.Kind
	Graph *dag.Graph
	Root  dag.NodeID
	// Broken lists the child → parent edges dropped to break cycles.
	Broken []Edge
}

// Edge is a child → parent pair of IRIs.
type Edge struct {
	Child, Parent string
}

// Roots maps every hierarchy kind to the IRI of its root.
var Roots = map[hierarchy.Kind]string{
	hierarchy.KindClass:        Resource,
	hierarchy.KindProperty:     TopProperty,
	hierarchy.KindMetaclass:    Class,
	hierarchy.KindMetaproperty: Property,
}

// Builder accumulates schema triples. Adding a triple twice has no effect;
// deleting an absent one neither. A Builder is not safe for concurrent use.
type Builder struct {
	triples map[Triple]struct{}
	order   []Triple
	logger  *log.Logger
}

// BuilderOption configures a [Builder].
type BuilderOption func(*Builder)

// WithLogger sets the logger that reports broken cycles.
func WithLogger(l *log.Logger) BuilderOption {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBuilder returns an empty builder.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		triples: make(map[Triple]struct{}),
		logger:  log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Add records t and reports whether it was new.
func (b *Builder) Add(t Triple) bool {
	if _, ok := b.triples[t]; ok {
		return false
	}
	b.triples[t] = struct{}{}
	b.order = append(b.order, t)
	return true
}

// Delete removes t and reports whether it was present.
func (b *Builder) Delete(t Triple) bool {
	if _, ok := b.triples[t]; !ok {
		return false
	}
	delete(b.triples, t)
	b.order = slices.DeleteFunc(b.order, func(o Triple) bool { return o == t })
	return true
}

// Len returns the number of distinct triples.
func (b *Builder) Len() int { return len(b.triples) }

// Triples returns the triples in insertion order.
func (b *Builder) Triples() []Triple { return slices.Clone(b.order) }

// Build derives all four hierarchies from the current triples.
func (b *Builder) Build() map[hierarchy.Kind]*Graph {
	s := b.classify()
	out := make(map[hierarchy.Kind]*Graph, len(hierarchy.Kinds))
	for _, k := range hierarchy.Kinds {
		out[k] = b.BuildKind(k, s)
	}
	return out
}

// BuildKind derives the hierarchy of one kind. s may be nil, in which case
// the triples are classified first.
func (b *Builder) BuildKind(k hierarchy.Kind, s *Schema) *Graph {
	if s == nil {
		s = b.classify()
	}
	g := dag.New()
	root := g.Ensure(Roots[k])

	members, rel := s.Classes, SubClassOf
	switch k {
	case hierarchy.KindProperty:
		members, rel = s.Properties, SubPropertyOf
	case hierarchy.KindMetaclass:
		members = s.Metaclasses
	case hierarchy.KindMetaproperty:
		members = s.Metaproperties
	}

	for _, iri := range members {
		g.Ensure(iri)
	}
	for _, t := range b.order {
		if t.Predicate != rel || t.Subject == t.Object {
			continue
		}
		c, okc := g.Lookup(t.Subject)
		p, okp := g.Lookup(t.Object)
		if !okc || !okp || c == root {
			continue
		}
		// Both ends exist and differ, so only a future graph rule can refuse.
		if err := g.AddEdge(c, p); err != nil {
			b.logger.Debug("skipped edge", "hierarchy", k.String(), "child", t.Subject, "parent", t.Object, "err", err)
		}
	}

	out := &Graph{Kind: k, Graph: g, Root: root}
	for _, e := range dag.BreakCycles(g) {
		edge := Edge{Child: g.URI(e[0]), Parent: g.URI(e[1])}
		out.Broken = append(out.Broken, edge)
		b.logger.Warn("dropped edge to break cycle", "hierarchy", k.String(), "child", edge.Child, "parent", edge.Parent)
	}
	return out
}

// Schema is the classification of resources into classes, properties,
// metaclasses and metaproperties. Each list is in first-seen order.
type Schema struct {
	Classes        []string
	Properties     []string
	Metaclasses    []string
	Metaproperties []string
}

// Classify returns the classification of the current triples.
func (b *Builder) Classify() *Schema { return b.classify() }

func (b *Builder) classify() *Schema {
	classes := newOrderedSet(Resource, Class, Property)
	properties := newOrderedSet()
	var typed []Triple

	for _, t := range b.order {
		if t.IsLiteral() {
			if !IsVocabulary(t.Predicate) {
				properties.add(t.Predicate)
			}
			continue
		}
		switch t.Predicate {
		case SubClassOf:
			classes.add(t.Subject, t.Object)
		case SubPropertyOf:
			properties.add(t.Subject, t.Object)
		case Type:
			switch t.Object {
			case Class:
				classes.add(t.Subject)
			case Property:
				properties.add(t.Subject)
			default:
				classes.add(t.Object)
			}
			typed = append(typed, t)
		default:
			if !IsVocabulary(t.Predicate) {
				properties.add(t.Predicate)
			}
		}
	}

	// Metaclasses: subclasses of rdfs:Class and types of classes.
	// Metaproperties: subclasses of rdf:Property and types of properties.
	metaclasses := newOrderedSet(Class)
	metaproperties := newOrderedSet(Property)
	for _, t := range typed {
		switch {
		case t.Object == Class || t.Object == Property:
		case classes.has(t.Subject):
			metaclasses.add(t.Object)
		case properties.has(t.Subject):
			metaproperties.add(t.Object)
		}
	}
	b.closeDownward(metaclasses)
	b.closeDownward(metaproperties)

	return &Schema{
		Classes:        classes.items,
		Properties:     properties.items,
		Metaclasses:    metaclasses.items,
		Metaproperties: metaproperties.items,
	}
}

// closeDownward adds every subclass of a member until nothing changes.
func (b *Builder) closeDownward(s *orderedSet) {
	for changed := true; changed; {
		changed = false
		for _, t := range b.order {
			if t.Predicate == SubClassOf && s.has(t.Object) && !s.has(t.Subject) {
				s.add(t.Subject)
				changed = true
			}
		}
	}
}

type orderedSet struct {
	items []string
	index map[string]struct{}
}

func newOrderedSet(items ...string) *orderedSet {
	s := &orderedSet{index: make(map[string]struct{})}
	s.add(items...)
	return s
}

func (s *orderedSet) add(items ...string) {
	for _, it := range items {
		if _, ok := s.index[it]; !ok {
			s.index[it] = struct{}{}
			s.items = append(s.items, it)
		}
	}
}

func (s *orderedSet) has(it string) bool {
	_, ok := s.index[it]
	return ok
}
