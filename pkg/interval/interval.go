package interval

import (
	"cmp"
	"fmt"
)

// Interval is the closed integer range [Index, Post].
//
// The zero value is the single-point interval [0, 0]. Use [Empty] for an
// interval that contains nothing. Intervals compare by value with ==, but two
// empty intervals with different bounds are only equal via [Interval.Equal].
type Interval struct {
	Index int `json:"index" bson:"index" toml:"index"`
	Post  int `json:"post" bson:"post" toml:"post"`
}

// Empty is the canonical empty interval.
var Empty = Interval{Index: 0, Post: -1}

// New returns the interval [index, post]. Any post < index yields [Empty].
func New(index, post int) Interval {
	if post < index {
		return Empty
	}
	return Interval{Index: index, Post: post}
}

// Point returns the single-point interval [p, p].
func Point(p int) Interval { return Interval{Index: p, Post: p} }

// IsEmpty reports whether the interval contains no point.
func (iv Interval) IsEmpty() bool { return iv.Post < iv.Index }

// Len returns the number of points in the interval, max(0, Post-Index+1).
func (iv Interval) Len() int {
	if iv.IsEmpty() {
		return 0
	}
	return iv.Post - iv.Index + 1
}

// Equal reports value equality, treating all empty intervals as equal.
func (iv Interval) Equal(o Interval) bool {
	if iv.IsEmpty() || o.IsEmpty() {
		return iv.IsEmpty() && o.IsEmpty()
	}
	return iv == o
}

// Contains reports whether p lies within the interval.
func (iv Interval) Contains(p int) bool {
	return iv.Index <= p && p <= iv.Post
}

// ContainsInterval reports whether o lies entirely within iv.
// Only an empty interval is contained by an empty interval.
func (iv Interval) ContainsInterval(o Interval) bool {
	if o.IsEmpty() {
		return iv.IsEmpty()
	}
	if iv.IsEmpty() {
		return false
	}
	return iv.Index <= o.Index && o.Post <= iv.Post
}

// StrictlyContains reports whether iv contains o and is not equal to it.
func (iv Interval) StrictlyContains(o Interval) bool {
	return iv.ContainsInterval(o) && !iv.Equal(o)
}

// OverlapsWith reports whether the two intervals share at least one point.
func (iv Interval) OverlapsWith(o Interval) bool {
	if iv.IsEmpty() || o.IsEmpty() {
		return false
	}
	return iv.Index <= o.Post && o.Index <= iv.Post
}

// CanBeMergedWith reports whether the intervals overlap or touch, so that
// their union has no hole.
func (iv Interval) CanBeMergedWith(o Interval) bool {
	if iv.IsEmpty() || o.IsEmpty() {
		return false
	}
	return iv.Index <= o.Post+1 && o.Index <= iv.Post+1
}

// Union returns the smallest interval covering both. The union with an empty
// interval is the other operand.
func (iv Interval) Union(o Interval) Interval {
	switch {
	case iv.IsEmpty():
		return o
	case o.IsEmpty():
		return iv
	}
	return Interval{Index: min(iv.Index, o.Index), Post: max(iv.Post, o.Post)}
}

// Intersection returns the common part of both intervals, or [Empty].
func (iv Interval) Intersection(o Interval) Interval {
	if !iv.OverlapsWith(o) {
		return Empty
	}
	return Interval{Index: max(iv.Index, o.Index), Post: min(iv.Post, o.Post)}
}

// Shift moves the interval by d. Empty intervals stay empty.
func (iv Interval) Shift(d int) Interval {
	if iv.IsEmpty() {
		return Empty
	}
	return Interval{Index: iv.Index + d, Post: iv.Post + d}
}

// WithPost returns a copy of iv ending at post.
func (iv Interval) WithPost(post int) Interval {
	return New(iv.Index, post)
}

// String formats the interval as "[index,post]", or "[]" when empty.
func (iv Interval) String() string {
	if iv.IsEmpty() {
		return "[]"
	}
	return fmt.Sprintf("[%d,%d]", iv.Index, iv.Post)
}

// ByPost orders intervals by Post, then by Index. It is meant for
// slices.SortFunc.
func ByPost(a, b Interval) int {
	if c := cmp.Compare(a.Post, b.Post); c != 0 {
		return c
	}
	return cmp.Compare(a.Index, b.Index)
}

// ByIndex orders intervals by Index, then by Post descending so that an
// enclosing interval sorts before the intervals it contains.
func ByIndex(a, b Interval) int {
	if c := cmp.Compare(a.Index, b.Index); c != 0 {
		return c
	}
	return cmp.Compare(b.Post, a.Post)
}
