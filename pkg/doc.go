// Package pkg provides the libraries of isalabel, an interval labeling
// engine for the is-a hierarchies of RDF schemas.
//
// # Overview
//
// Every class, property, metaclass and metaproperty receives a tree label
// [index, post] nested inside the label of one parent, plus propagated labels
// for its other parents. "A subsumes B" is then answered by checking that A's
// labels contain B's tree label. The pkg directory is organized as:
//
//  1. [interval], [label] - Label values and their algebra
//  2. [dag], [rdf] - Child → parent graphs and their construction from triples
//  3. [hierarchy] - Working and persisted labels of one graph
//  4. [bender] - The labeling algorithm (placement, cascades, propagation)
//  5. [manager] - Incremental and from-scratch label maintenance
//  6. [store] - Label snapshots and counters (file, Redis, MongoDB)
//  7. [render] - Graphviz diagrams of labeled hierarchies
//
// # Architecture
//
// The typical data flow:
//
//	N-Triples
//	    ↓
//	[rdf] Builder (four child → parent graphs, cycles broken)
//	    ↓
//	[hierarchy] MainMemory (seeded with labels from [store])
//	    ↓
//	[bender] Labeler (labels new resources, moves old ones if needed)
//	    ↓
//	[store] Save (changed labels, counter)
//
// # Quick Start
//
//	m, _ := manager.NewNonIncremental()
//	_ = m.AddTriple(rdf.T("urn:ex:Dog", rdf.SubClassOf, "urn:ex:Animal"))
//	_, _ = m.UpdateLabels(ctx)
//	ok, _ := m.IsFirstAncestorOfSecond(hierarchy.KindClass, "urn:ex:Animal", "urn:ex:Dog")
//
// [interval]: github.com/matzehuels/isalabel/pkg/interval
// [label]: github.com/matzehuels/isalabel/pkg/label
// [dag]: github.com/matzehuels/isalabel/pkg/dag
// [rdf]: github.com/matzehuels/isalabel/pkg/rdf
// [hierarchy]: github.com/matzehuels/isalabel/pkg/hierarchy
// [bender]: github.com/matzehuels/isalabel/pkg/bender
// [manager]: github.com/matzehuels/isalabel/pkg/manager
// [store]: github.com/matzehuels/isalabel/pkg/store
// [render]: github.com/matzehuels/isalabel/pkg/render
package pkg
