// Package interval provides closed integer ranges and unordered sets of them.
//
// # Overview
//
// An [Interval] is the closed range [Index, Post]. It is empty when
// Post < Index, and every empty interval behaves the same way: it contains
// no point, overlaps nothing, and is contained only by the empty interval
// itself. Use [Empty] as the canonical empty value.
//
// Intervals are the labels of the is-a hierarchy: a node's tree label is
// nested inside the tree label of its spanning-tree parent, so ancestry
// becomes a containment test.
//
//	a := interval.New(0, 100)
//	b := interval.New(10, 20)
//	a.ContainsInterval(b) // true
//
// # Compound
//
// A [Compound] is an unordered, non-canonicalized collection of intervals.
// It stores the labels a node receives through DAG edges outside the
// spanning tree. Members are kept as inserted so that a later shift of one
// labeled subtree can rewrite exactly the interval that was propagated for it.
//
// # Concurrency
//
// Interval is an immutable value and safe to share. Compound is not safe for
// concurrent mutation.
package interval
