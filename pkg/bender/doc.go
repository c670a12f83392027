// Package bender assigns interval labels to the new nodes of a [hierarchy.Hierarchy].
//
// # Overview
//
// The labeler is a dynamic list-labeling scheme in the spirit of Bender and
// of Dietz and Sleator. Each node gets a tree label nested inside the tree
// label of its spanning-tree parent; DAG edges outside the spanning tree are
// recorded as propagated labels on the ancestors. Ancestry is then an
// interval containment test.
//
// A pass labels every new subtree hanging below already labeled nodes:
//
//  1. The roots of the new subtrees are collected.
//  2. For each root the direct ancestor with the largest free gap between
//     its labeled children is chosen. A root attached directly below the
//     hierarchy root is appended at [hierarchy.Hierarchy.IndexForNewHierarchy];
//     a root whose estimated size fits the gap is labeled there; otherwise a
//     relabel cascade grows the ancestor and shifts its right siblings, with
//     everything nested in them, until enough room exists.
//  3. Inside the chosen interval the subtree is spread out evenly, larger
//     subtrees first.
//  4. If the label universe runs out, every label is discarded and the whole
//     hierarchy is spread out again once.
//  5. Finally every old node re-propagates its tree label, which records new
//     edges between old nodes.
//
// # Slack
//
// The slack factor T in [1, 2] scales the space reserved for a subtree
// appended to an existing hierarchy: a subtree with d descendants reserves
// T*20*(d+2)+1 values. Inside an existing hierarchy after a cascade the
// dense estimate 2*(d+2)+1 is used instead.
//
// # Errors
//
// A pass is all-or-nothing. Running out of space at a single node yields
// [errors.ErrCodeHierarchyTooDeep]; a propagated label clashing with a tree
// label yields [errors.ErrCodeIllegalPropagatedLabel]. After an error the
// hierarchy's working labels are in an undefined state and must be discarded.
package bender
