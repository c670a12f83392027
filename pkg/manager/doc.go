// Package manager answers subsumption queries over the four hierarchies of
// an RDF schema and keeps their labels up to date as triples change.
//
// Two strategies implement [LabelManager]:
//
//   - [NonIncremental] discards all labels on any triple change and
//     relabels every hierarchy from scratch on [NonIncremental.UpdateLabels].
//   - [Incremental] loads persisted labels from a [store.Store], labels only
//     what is new and saves what moved, holding each hierarchy's counter
//     lease for the whole update.
//
// Both answer IsFirstAncestorOfSecond by interval containment, so a query is
// a pair of map lookups once labels are current.
package manager
