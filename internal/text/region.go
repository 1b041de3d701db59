package text

import "fmt"

// Point is a byte offset into a buffer's content.
type Point = int

// Region is a directional range of text. A is the point the region was
// anchored at, B the point it extends to; B < A is a valid, reversed region.
// XPos is a cursor-affinity hint used when moving selections vertically; it
// takes no part in comparisons.
type Region struct {
	A    Point
	B    Point
	XPos float64
}

// NewRegion creates a region spanning a to b, keeping direction.
func NewRegion(a, b Point) Region {
	return Region{A: a, B: b, XPos: -1}
}

// PointRegion creates an empty region at pt.
func PointRegion(pt Point) Region {
	return Region{A: pt, B: pt, XPos: -1}
}

// String returns a human-readable representation of the region.
func (r Region) String() string {
	return fmt.Sprintf("(%d, %d)", r.A, r.B)
}

// Begin returns the lower bound of the region.
func (r Region) Begin() Point {
	if r.A < r.B {
		return r.A
	}
	return r.B
}

// End returns the upper bound of the region.
func (r Region) End() Point {
	if r.A > r.B {
		return r.A
	}
	return r.B
}

// Empty returns true if the region has no extent.
func (r Region) Empty() bool {
	return r.A == r.B
}

// Size returns the number of bytes the region spans.
func (r Region) Size() int {
	return r.End() - r.Begin()
}

// Reversed returns true if the region extends backward (B < A).
func (r Region) Reversed() bool {
	return r.B < r.A
}

// Equal returns true if both regions have the same endpoints in the same
// direction. XPos is ignored.
func (r Region) Equal(other Region) bool {
	return r.A == other.A && r.B == other.B
}

// SameSpan returns true if both regions cover the same bounds, regardless
// of direction.
func (r Region) SameSpan(other Region) bool {
	return r.Begin() == other.Begin() && r.End() == other.End()
}

// Compare orders regions by their (A, B) tuples.
// Returns -1 if r sorts before other, 1 if after, 0 if equal.
func (r Region) Compare(other Region) int {
	if r.A != other.A {
		if r.A < other.A {
			return -1
		}
		return 1
	}
	if r.B != other.B {
		if r.B < other.B {
			return -1
		}
		return 1
	}
	return 0
}

// Contains returns true if pt lies within the region, boundaries included.
func (r Region) Contains(pt Point) bool {
	return pt >= r.Begin() && pt <= r.End()
}

// ContainsRegion returns true if both of other's endpoints lie within r.
func (r Region) ContainsRegion(other Region) bool {
	return r.Contains(other.A) && r.Contains(other.B)
}

// Cover returns the smallest region containing both r and other.
// The result keeps r's direction.
func (r Region) Cover(other Region) Region {
	a := r.Begin()
	if other.Begin() < a {
		a = other.Begin()
	}
	b := r.End()
	if other.End() > b {
		b = other.End()
	}
	if r.Reversed() {
		return Region{A: b, B: a, XPos: r.XPos}
	}
	return Region{A: a, B: b, XPos: r.XPos}
}

// Intersects returns true if the regions share at least one position.
// Equal regions always intersect. An empty region intersects another region
// only when it sits strictly inside it; touching at a boundary is not
// considered an intersection.
func (r Region) Intersects(other Region) bool {
	lb, le := r.Begin(), r.End()
	rb, re := other.Begin(), other.End()
	if lb == rb && le == re {
		return true
	}
	return (rb > lb && rb < le) || (re > lb && re < le) ||
		(lb > rb && lb < re) || (le > rb && le < re)
}

// Touches returns true if the regions intersect or share a boundary.
func (r Region) Touches(other Region) bool {
	return r.Begin() <= other.End() && other.Begin() <= r.End()
}

// Intersection returns the region both r and other cover. When the regions
// are disjoint the result is the empty region at max(r.Begin, other.Begin),
// the right edge of the gap between them; use Intersects to distinguish a
// genuine empty overlap from no overlap.
func (r Region) Intersection(other Region) Region {
	begin := r.Begin()
	if other.Begin() > begin {
		begin = other.Begin()
	}
	end := r.End()
	if other.End() < end {
		end = other.End()
	}
	if begin >= end {
		return Region{A: begin, B: begin, XPos: -1}
	}
	return Region{A: begin, B: end, XPos: -1}
}
