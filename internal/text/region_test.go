package text

import "testing"

// Region Tests

func TestRegionBounds(t *testing.T) {
	r := NewRegion(5, 10)
	if r.Begin() != 5 || r.End() != 10 {
		t.Errorf("expected bounds (5, 10), got (%d, %d)", r.Begin(), r.End())
	}
	if r.Reversed() {
		t.Error("forward region reported reversed")
	}

	rev := NewRegion(10, 5)
	if rev.Begin() != 5 || rev.End() != 10 {
		t.Errorf("expected bounds (5, 10), got (%d, %d)", rev.Begin(), rev.End())
	}
	if !rev.Reversed() {
		t.Error("reversed region not reported reversed")
	}
}

func TestRegionEmptyAndSize(t *testing.T) {
	if !PointRegion(7).Empty() {
		t.Error("point region should be empty")
	}
	if PointRegion(7).Size() != 0 {
		t.Error("point region should have size 0")
	}
	if NewRegion(5, 10).Empty() {
		t.Error("non-degenerate region reported empty")
	}
	if got := NewRegion(10, 5).Size(); got != 5 {
		t.Errorf("expected size 5, got %d", got)
	}
}

func TestRegionEqualIsDirectional(t *testing.T) {
	if !NewRegion(5, 10).Equal(NewRegion(5, 10)) {
		t.Error("identical regions should be equal")
	}
	if NewRegion(5, 10).Equal(NewRegion(10, 5)) {
		t.Error("equality must compare (A, B) tuples, not spans")
	}
	if !NewRegion(5, 10).SameSpan(NewRegion(10, 5)) {
		t.Error("reversed region should cover the same span")
	}
}

func TestRegionCompare(t *testing.T) {
	a := NewRegion(2, 7)
	b := NewRegion(5, 10)
	if a.Compare(b) != -1 {
		t.Error("a should sort before b")
	}
	if b.Compare(a) != 1 {
		t.Error("b should sort after a")
	}
	if a.Compare(NewRegion(2, 7)) != 0 {
		t.Error("equal regions should compare 0")
	}
	if NewRegion(2, 3).Compare(NewRegion(2, 7)) != -1 {
		t.Error("ties on A should fall through to B")
	}
}

func TestRegionContainsPoint(t *testing.T) {
	r := NewRegion(5, 10)
	for _, pt := range []Point{5, 7, 10} {
		if !r.Contains(pt) {
			t.Errorf("region should contain %d", pt)
		}
	}
	for _, pt := range []Point{4, 11} {
		if r.Contains(pt) {
			t.Errorf("region should not contain %d", pt)
		}
	}
	// Boundaries are inclusive on reversed regions too.
	if !NewRegion(10, 5).Contains(10) {
		t.Error("reversed region should contain its end")
	}
}

func TestRegionContainsRegion(t *testing.T) {
	r := NewRegion(5, 10)
	if !r.ContainsRegion(NewRegion(6, 9)) {
		t.Error("interior region should be contained")
	}
	if !r.ContainsRegion(NewRegion(5, 10)) {
		t.Error("region should contain itself")
	}
	if r.ContainsRegion(NewRegion(4, 9)) {
		t.Error("region extending past begin should not be contained")
	}
	if r.ContainsRegion(NewRegion(6, 11)) {
		t.Error("region extending past end should not be contained")
	}
}

func TestRegionCover(t *testing.T) {
	got := NewRegion(5, 10).Cover(NewRegion(2, 7))
	if got.Begin() != 2 || got.End() != 10 {
		t.Errorf("expected cover (2, 10), got %s", got)
	}

	// Cover law: begin is min of begins, end is max of ends.
	cases := []struct{ r1, r2 Region }{
		{NewRegion(0, 5), NewRegion(10, 20)},
		{NewRegion(3, 3), NewRegion(1, 2)},
		{NewRegion(9, 4), NewRegion(6, 12)},
	}
	for _, tc := range cases {
		c := tc.r1.Cover(tc.r2)
		wantBegin := tc.r1.Begin()
		if tc.r2.Begin() < wantBegin {
			wantBegin = tc.r2.Begin()
		}
		wantEnd := tc.r1.End()
		if tc.r2.End() > wantEnd {
			wantEnd = tc.r2.End()
		}
		if c.Begin() != wantBegin || c.End() != wantEnd {
			t.Errorf("cover(%s, %s) = %s, want (%d, %d)", tc.r1, tc.r2, c, wantBegin, wantEnd)
		}
	}
}

func TestRegionCoverKeepsDirection(t *testing.T) {
	got := NewRegion(10, 5).Cover(NewRegion(2, 7))
	if !got.Reversed() {
		t.Error("cover should keep the receiver's direction")
	}
	if got.Begin() != 2 || got.End() != 10 {
		t.Errorf("expected span (2, 10), got %s", got)
	}
}

func TestRegionIntersection(t *testing.T) {
	got := NewRegion(5, 10).Intersection(NewRegion(7, 12))
	if !got.Equal(NewRegion(7, 10)) {
		t.Errorf("expected (7, 10), got %s", got)
	}

	// Intersection of intersecting regions is contained in both.
	r1, r2 := NewRegion(3, 9), NewRegion(6, 14)
	in := r1.Intersection(r2)
	if !r1.ContainsRegion(in) || !r2.ContainsRegion(in) {
		t.Errorf("intersection %s not contained in both operands", in)
	}
}

func TestRegionIntersectionDisjoint(t *testing.T) {
	// Documented convention: disjoint regions produce the empty region at
	// max of the begins, and the operation is commutative.
	a, b := NewRegion(0, 5), NewRegion(7, 12)
	got := a.Intersection(b)
	if !got.Empty() || got.A != 7 {
		t.Errorf("expected empty region at 7, got %s", got)
	}
	if !b.Intersection(a).Equal(got) {
		t.Error("disjoint intersection should be commutative")
	}
}

func TestRegionIntersects(t *testing.T) {
	cases := []struct {
		r1, r2 Region
		want   bool
	}{
		{NewRegion(0, 5), NewRegion(3, 8), true},
		{NewRegion(0, 5), NewRegion(5, 10), false}, // touching only
		{NewRegion(0, 5), NewRegion(0, 5), true},   // equal
		{PointRegion(3), NewRegion(0, 5), true},    // empty strictly inside
		{PointRegion(0), NewRegion(0, 5), false},   // empty on boundary
		{PointRegion(5), NewRegion(0, 5), false},
		{PointRegion(3), PointRegion(3), true}, // equal empties
		{PointRegion(3), PointRegion(4), false},
		{NewRegion(0, 10), NewRegion(3, 6), true},
	}
	for _, tc := range cases {
		if got := tc.r1.Intersects(tc.r2); got != tc.want {
			t.Errorf("%s.Intersects(%s) = %v, want %v", tc.r1, tc.r2, got, tc.want)
		}
		if got := tc.r2.Intersects(tc.r1); got != tc.want {
			t.Errorf("Intersects should be symmetric for %s, %s", tc.r1, tc.r2)
		}
	}
}

func TestRegionTouches(t *testing.T) {
	if !NewRegion(0, 5).Touches(NewRegion(5, 10)) {
		t.Error("boundary-sharing regions should touch")
	}
	if NewRegion(0, 5).Touches(NewRegion(6, 10)) {
		t.Error("separated regions should not touch")
	}
}
