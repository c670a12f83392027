package interval

import "slices"

// Compound is an unordered collection of intervals.
//
// Members are neither merged nor sorted. Duplicate members are rejected by
// [Compound.Add]. The zero value is an empty, usable Compound.
type Compound struct {
	items []Interval
}

// NewCompound returns a Compound holding the non-empty members of ivs.
func NewCompound(ivs ...Interval) Compound {
	var c Compound
	for _, iv := range ivs {
		c.Add(iv)
	}
	return c
}

// Len returns the number of members.
func (c *Compound) Len() int { return len(c.items) }

// IsEmpty reports whether the compound has no members.
func (c *Compound) IsEmpty() bool { return len(c.items) == 0 }

// Intervals returns a copy of the members in insertion order.
func (c *Compound) Intervals() []Interval { return slices.Clone(c.items) }

// Has reports whether an interval equal to iv is a member.
func (c *Compound) Has(iv Interval) bool {
	return slices.Contains(c.items, iv)
}

// Add inserts iv and reports whether the compound grew. Empty intervals and
// intervals already present are ignored.
func (c *Compound) Add(iv Interval) bool {
	if iv.IsEmpty() || c.Has(iv) {
		return false
	}
	c.items = append(c.items, iv)
	return true
}

// Remove deletes iv and reports whether it was a member.
func (c *Compound) Remove(iv Interval) bool {
	i := slices.Index(c.items, iv)
	if i < 0 {
		return false
	}
	c.items = slices.Delete(c.items, i, i+1)
	return true
}

// Replace rewrites the member equal to old with repl and reports whether old
// was present. If repl is already a member, old is dropped instead.
func (c *Compound) Replace(old, repl Interval) bool {
	i := slices.Index(c.items, old)
	if i < 0 {
		return false
	}
	if repl.IsEmpty() || c.Has(repl) {
		c.items = slices.Delete(c.items, i, i+1)
		return true
	}
	c.items[i] = repl
	return true
}

// Contains reports whether some member contains point p.
func (c *Compound) Contains(p int) bool {
	for _, iv := range c.items {
		if iv.Contains(p) {
			return true
		}
	}
	return false
}

// ContainsInterval reports whether some single member contains iv.
func (c *Compound) ContainsInterval(iv Interval) bool {
	if iv.IsEmpty() {
		return false
	}
	for _, m := range c.items {
		if m.ContainsInterval(iv) {
			return true
		}
	}
	return false
}

// OverlapsWith reports whether some member overlaps iv.
func (c *Compound) OverlapsWith(iv Interval) bool {
	for _, m := range c.items {
		if m.OverlapsWith(iv) {
			return true
		}
	}
	return false
}

// MaxInterval returns the longest member, or [Empty] when there is none.
// The first member wins ties.
func (c *Compound) MaxInterval() Interval {
	best := Empty
	for _, m := range c.items {
		if m.Len() > best.Len() {
			best = m
		}
	}
	return best
}

// Clone returns an independent copy.
func (c *Compound) Clone() Compound {
	return Compound{items: slices.Clone(c.items)}
}

// Equal reports whether both compounds hold the same members, ignoring order.
func (c *Compound) Equal(o *Compound) bool {
	if len(c.items) != len(o.items) {
		return false
	}
	for _, iv := range c.items {
		if !o.Has(iv) {
			return false
		}
	}
	return true
}
