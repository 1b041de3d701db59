package text

import "testing"

func regionsEqual(a, b []Region) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Begin() != b[i].Begin() || a[i].End() != b[i].End() {
			return false
		}
	}
	return true
}

func TestNormalizeMergesOverlapping(t *testing.T) {
	got := Normalize([]Region{NewRegion(0, 5), NewRegion(3, 8), NewRegion(10, 12)})
	want := []Region{NewRegion(0, 8), NewRegion(10, 12)}
	if !regionsEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestNormalizeMergesTouching(t *testing.T) {
	got := Normalize([]Region{NewRegion(0, 5), NewRegion(5, 10)})
	want := []Region{NewRegion(0, 10)}
	if !regionsEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestNormalizeSorts(t *testing.T) {
	got := Normalize([]Region{NewRegion(10, 12), NewRegion(0, 2), NewRegion(5, 7)})
	want := []Region{NewRegion(0, 2), NewRegion(5, 7), NewRegion(10, 12)}
	if !regionsEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestNormalizeKeepsDirectionOfUnmergedRegions(t *testing.T) {
	got := Normalize([]Region{NewRegion(7, 2), NewRegion(10, 12)})
	if len(got) != 2 {
		t.Fatalf("expected 2 regions, got %d", len(got))
	}
	if !got[0].Reversed() {
		t.Error("unmerged region should keep its direction")
	}
}

func TestNormalizeMergedRegionsAreForward(t *testing.T) {
	got := Normalize([]Region{NewRegion(7, 2), NewRegion(5, 10)})
	want := []Region{NewRegion(2, 10)}
	if !regionsEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if got[0].Reversed() {
		t.Error("merged region should be forward")
	}
}

func TestNormalizeDropsDuplicateCarets(t *testing.T) {
	got := Normalize([]Region{PointRegion(3), PointRegion(3)})
	if len(got) != 1 {
		t.Errorf("expected one caret, got %v", got)
	}
	got = Normalize([]Region{PointRegion(3), PointRegion(5)})
	if len(got) != 2 {
		t.Errorf("distinct carets should both survive, got %v", got)
	}
}

func TestAddIsIdempotent(t *testing.T) {
	once := Add(nil, NewRegion(5, 10))
	twice := Add(once, NewRegion(5, 10))
	if !regionsEqual(once, twice) {
		t.Errorf("adding the same region twice changed membership: %v vs %v", once, twice)
	}
}

func TestAddMergesIntoNeighbors(t *testing.T) {
	set := Add(nil, NewRegion(0, 5))
	set = Add(set, NewRegion(8, 12))
	set = Add(set, NewRegion(4, 9))
	want := []Region{NewRegion(0, 12)}
	if !regionsEqual(set, want) {
		t.Errorf("expected %v, got %v", want, set)
	}
}

func TestSubtractSplitsInterior(t *testing.T) {
	set := []Region{NewRegion(0, 10)}
	got := Subtract(set, NewRegion(3, 5))
	want := []Region{NewRegion(0, 3), NewRegion(5, 10)}
	if !regionsEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestSubtractRemovesCovered(t *testing.T) {
	set := []Region{NewRegion(3, 5), NewRegion(8, 9)}
	got := Subtract(set, NewRegion(0, 10))
	if len(got) != 0 {
		t.Errorf("expected empty set, got %v", got)
	}
}

func TestSubtractTrimsPartialOverlap(t *testing.T) {
	set := []Region{NewRegion(0, 10)}
	got := Subtract(set, NewRegion(7, 15))
	want := []Region{NewRegion(0, 7)}
	if !regionsEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestSubtractLeavesBoundaryCarets(t *testing.T) {
	set := []Region{PointRegion(0), PointRegion(3), PointRegion(5)}
	got := Subtract(set, NewRegion(0, 5))
	want := []Region{PointRegion(0), PointRegion(5)}
	if !regionsEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestSubtractThenAddRestoresCoverage(t *testing.T) {
	set := []Region{NewRegion(0, 10)}
	cut := NewRegion(3, 5)
	got := Add(Subtract(set, cut), cut)
	if !regionsEqual(got, set) {
		t.Errorf("expected coverage restored to %v, got %v", set, got)
	}
}

func TestSetContains(t *testing.T) {
	set := []Region{NewRegion(0, 3), NewRegion(10, 20), PointRegion(30)}
	for _, pt := range []Point{0, 3, 15, 20, 30} {
		if !SetContains(set, pt) {
			t.Errorf("set should contain %d", pt)
		}
	}
	for _, pt := range []Point{4, 9, 21, 29, 31} {
		if SetContains(set, pt) {
			t.Errorf("set should not contain %d", pt)
		}
	}
}

func TestSetContainsRegion(t *testing.T) {
	set := []Region{NewRegion(0, 3), NewRegion(10, 20)}
	if !SetContainsRegion(set, NewRegion(12, 18)) {
		t.Error("interior region should be contained")
	}
	if SetContainsRegion(set, NewRegion(2, 12)) {
		t.Error("region spanning a gap should not be contained")
	}
}
