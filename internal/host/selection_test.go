package host

import (
	"errors"
	"testing"

	"github.com/dshills/stormhost/internal/text"
)

func TestSelection_StartsAtOrigin(t *testing.T) {
	_, v := newTestView(t)
	sel, err := v.Sel()
	if err != nil {
		t.Fatalf("Sel() returned error: %v", err)
	}
	regions, _ := sel.Regions()
	if len(regions) != 1 || !regions[0].Equal(text.PointRegion(0)) {
		t.Errorf("initial selection = %v, want a single empty region at 0", regions)
	}
}

func TestSelection_SharedByReference(t *testing.T) {
	_, v := newTestView(t)
	a, _ := v.Sel()
	b, _ := v.Sel()
	if a != b {
		t.Fatal("Sel() returned distinct selections for the same view")
	}

	if err := a.Set(text.NewRegion(1, 4)); err != nil {
		t.Fatal(err)
	}
	got, _ := b.Get(0)
	if !got.Equal(text.NewRegion(1, 4)) {
		t.Errorf("change through one handle invisible through the other: %v", got)
	}
}

func TestSelection_AddMergesTouching(t *testing.T) {
	_, v := newTestView(t)
	sel, _ := v.Sel()
	_ = sel.Clear()

	_ = sel.Add(text.NewRegion(0, 5))
	_ = sel.Add(text.NewRegion(10, 15))
	_ = sel.Add(text.NewRegion(5, 10))

	regions, _ := sel.Regions()
	if len(regions) != 1 || !regions[0].Equal(text.NewRegion(0, 15)) {
		t.Errorf("merged selection = %v, want [(0, 15)]", regions)
	}
}

func TestSelection_AddAll(t *testing.T) {
	_, v := newTestView(t)
	sel, _ := v.Sel()
	_ = sel.Clear()

	_ = sel.AddAll([]text.Region{
		text.NewRegion(20, 25),
		text.NewRegion(0, 5),
		text.NewRegion(3, 8),
	})
	regions, _ := sel.Regions()
	want := []text.Region{text.NewRegion(0, 8), text.NewRegion(20, 25)}
	if len(regions) != 2 || !regions[0].SameSpan(want[0]) || !regions[1].SameSpan(want[1]) {
		t.Errorf("AddAll result = %v, want %v", regions, want)
	}
}

func TestSelection_SubtractSplits(t *testing.T) {
	_, v := newTestView(t)
	sel, _ := v.Sel()
	_ = sel.Clear()
	_ = sel.Add(text.NewRegion(0, 20))

	if err := sel.Subtract(text.NewRegion(5, 10)); err != nil {
		t.Fatal(err)
	}
	regions, _ := sel.Regions()
	want := []text.Region{text.NewRegion(0, 5), text.NewRegion(10, 20)}
	if len(regions) != 2 || !regions[0].SameSpan(want[0]) || !regions[1].SameSpan(want[1]) {
		t.Errorf("Subtract result = %v, want %v", regions, want)
	}
}

func TestSelection_Contains(t *testing.T) {
	_, v := newTestView(t)
	sel, _ := v.Sel()
	_ = sel.Clear()
	_ = sel.Add(text.NewRegion(5, 10))

	tests := []struct {
		pt   text.Point
		want bool
	}{
		{4, false},
		{5, true},
		{10, true},
		{11, false},
	}
	for _, tt := range tests {
		got, err := sel.Contains(tt.pt)
		if err != nil {
			t.Fatalf("Contains(%d) returned error: %v", tt.pt, err)
		}
		if got != tt.want {
			t.Errorf("Contains(%d) = %v, want %v", tt.pt, got, tt.want)
		}
	}

	if got, _ := sel.ContainsRegion(text.NewRegion(6, 9)); !got {
		t.Error("ContainsRegion(6, 9) = false, want true")
	}
	if got, _ := sel.ContainsRegion(text.NewRegion(6, 12)); got {
		t.Error("ContainsRegion(6, 12) = true, want false")
	}
}

func TestSelection_IndexOutOfRange(t *testing.T) {
	_, v := newTestView(t)
	sel, _ := v.Sel()

	if _, err := sel.Get(5); !errors.Is(err, ErrOutOfSelection) {
		t.Errorf("Get(5) = %v, want ErrOutOfSelection", err)
	}
	if _, err := sel.Get(-1); !errors.Is(err, ErrOutOfSelection) {
		t.Errorf("Get(-1) = %v, want ErrOutOfSelection", err)
	}
}

func TestSelection_StaleAfterViewClose(t *testing.T) {
	_, v := newTestView(t)
	sel, _ := v.Sel()
	if err := v.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := sel.Regions(); !errors.Is(err, ErrStaleView) {
		t.Errorf("Regions() on stale selection = %v, want ErrStaleView", err)
	}
	if err := sel.Add(text.NewRegion(0, 1)); !errors.Is(err, ErrStaleView) {
		t.Errorf("Add() on stale selection = %v, want ErrStaleView", err)
	}
}

func TestSelection_EmitsEvents(t *testing.T) {
	h, v := newTestView(t)
	var fired int
	h.Events().Subscribe(EventSelectionModified, func(EventKind, Payload) { fired++ })

	sel, _ := v.Sel()
	_ = sel.Set(text.NewRegion(0, 3))
	_ = sel.Clear()
	if fired != 2 {
		t.Errorf("selection events fired %d times, want 2", fired)
	}
}
