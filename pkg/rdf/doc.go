// Package rdf turns schema triples into the four is-a graphs of a schema.
//
// Triples are read from N-Triples input ([NewReader]) or added one by one to
// a [Builder]. [Builder.Build] then derives:
//
//   - the class hierarchy from rdfs:subClassOf, rooted at rdfs:Resource
//   - the property hierarchy from rdfs:subPropertyOf, rooted at [TopProperty]
//   - the metaclass hierarchy of classes whose instances are classes,
//     rooted at rdfs:Class
//   - the metaproperty hierarchy of classes whose instances are properties,
//     rooted at rdf:Property
//
// Every graph has edges pointing from child to parent. Cycles, which RDFS
// allows and which mean equivalence, are broken by dropping back edges.
package rdf
