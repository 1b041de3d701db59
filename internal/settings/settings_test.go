package settings

import (
	"testing"

	"github.com/dshills/stormhost/internal/value"
)

func TestGetSetHas(t *testing.T) {
	s := New(1, nil)
	if s.Has("tab_size") {
		t.Error("expected fresh settings to be empty")
	}
	s.Set("tab_size", 4)
	v, ok := s.Get("tab_size")
	if !ok {
		t.Fatal("expected tab_size to be present")
	}
	if v != int64(4) {
		t.Errorf("expected int64(4), got %#v", v)
	}
	if !s.Has("tab_size") {
		t.Error("expected Has to report the key")
	}
}

func TestGetDefault(t *testing.T) {
	s := New(1, nil)
	if got := s.GetDefault("theme", "dark"); got != "dark" {
		t.Errorf("expected fallback %q, got %#v", "dark", got)
	}
	s.Set("theme", "light")
	if got := s.GetDefault("theme", "dark"); got != "light" {
		t.Errorf("expected stored value, got %#v", got)
	}
}

func TestParentFallback(t *testing.T) {
	base := New(1, nil)
	base.Set("font_size", 12)
	base.Set("theme", "dark")
	child := New(2, base)
	child.Set("theme", "light")

	if got, _ := child.Get("theme"); got != "light" {
		t.Errorf("expected the child layer to win, got %#v", got)
	}
	if got, _ := child.Get("font_size"); got != int64(12) {
		t.Errorf("expected the parent to supply font_size, got %#v", got)
	}
	if child.Has("missing") {
		t.Error("expected missing key to be absent through the whole chain")
	}
}

func TestEraseRevealsParentValue(t *testing.T) {
	base := New(1, nil)
	base.Set("theme", "dark")
	child := New(2, base)
	child.Set("theme", "light")
	child.Erase("theme")
	if got, _ := child.Get("theme"); got != "dark" {
		t.Errorf("expected the parent value after erase, got %#v", got)
	}
}

func TestGetReturnsClones(t *testing.T) {
	s := New(1, nil)
	s.Set("list", []any{int64(1)})
	v, _ := s.Get("list")
	v.([]any)[0] = int64(99)
	back, _ := s.Get("list")
	if back.([]any)[0] != int64(1) {
		t.Error("expected stored value to be isolated from returned clones")
	}
}

func TestListenersFireOnChange(t *testing.T) {
	s := New(1, nil)
	fired := 0
	s.AddOnChange("test", func() { fired++ })

	s.Set("a", 1)
	if fired != 1 {
		t.Errorf("expected 1 fire after set, got %d", fired)
	}
	// Setting the same value again is not a change.
	s.Set("a", 1)
	if fired != 1 {
		t.Errorf("expected no fire for an unchanged value, got %d", fired)
	}
	s.Set("a", 2)
	if fired != 2 {
		t.Errorf("expected 2 fires, got %d", fired)
	}
	s.Erase("a")
	if fired != 3 {
		t.Errorf("expected erase to fire, got %d", fired)
	}
	s.Erase("a")
	if fired != 3 {
		t.Errorf("expected erasing an absent key not to fire, got %d", fired)
	}
}

func TestListenersStackAndFireInOrder(t *testing.T) {
	s := New(1, nil)
	var order []string
	s.AddOnChange("a", func() { order = append(order, "first") })
	s.AddOnChange("b", func() { order = append(order, "second") })
	s.AddOnChange("a", func() { order = append(order, "third") })

	s.Set("k", true)
	want := []string{"first", "second", "third"}
	if len(order) != len(want) {
		t.Fatalf("expected %d fires, got %v", len(want), order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("fire %d: expected %q, got %q", i, want[i], order[i])
		}
	}
}

func TestClearOnChange(t *testing.T) {
	s := New(1, nil)
	fired := false
	other := false
	s.AddOnChange("mine", func() { fired = true })
	s.AddOnChange("mine", func() { fired = true })
	s.AddOnChange("theirs", func() { other = true })

	s.ClearOnChange("mine")
	s.Set("k", 1)
	if fired {
		t.Error("expected cleared listeners not to fire")
	}
	if !other {
		t.Error("expected listeners under other tags to survive")
	}
}

func TestUpdateFiresOnce(t *testing.T) {
	s := New(1, nil)
	fired := 0
	s.AddOnChange("test", func() { fired++ })
	s.Update(map[string]any{"a": 1, "b": 2, "c": 3})
	if fired != 1 {
		t.Errorf("expected a single fire for a batch, got %d", fired)
	}
	// An update that changes nothing stays silent.
	s.Update(map[string]any{"a": 1, "b": 2})
	if fired != 1 {
		t.Errorf("expected no fire for an unchanged batch, got %d", fired)
	}
}

func TestToMapMergesChain(t *testing.T) {
	base := New(1, nil)
	base.Set("a", 1)
	base.Set("b", 2)
	child := New(2, base)
	child.Set("b", 20)
	child.Set("c", 30)

	got := child.ToMap()
	want := map[string]any{"a": int64(1), "b": int64(20), "c": int64(30)}
	if !value.Equal(got, want) {
		t.Errorf("expected %#v, got %#v", want, got)
	}
}

func TestLayerExcludesParent(t *testing.T) {
	base := New(1, nil)
	base.Set("a", 1)
	child := New(2, base)
	child.Set("b", 2)
	got := child.Layer()
	if !value.Equal(got, map[string]any{"b": int64(2)}) {
		t.Errorf("expected only the child's own entries, got %#v", got)
	}
}

func TestTypedGetters(t *testing.T) {
	s := New(1, nil)
	s.Update(map[string]any{
		"flag":  true,
		"size":  4,
		"scale": 1.5,
		"whole": 3.0,
		"name":  "storm",
		"list":  []any{"a", int64(1), "b"},
		"map":   map[string]any{"k": "v"},
	})

	if !s.Bool("flag", false) {
		t.Error("expected Bool to return true")
	}
	if s.Bool("name", false) {
		t.Error("expected Bool to fall back on a non-bool")
	}
	if got := s.Int("size", 0); got != 4 {
		t.Errorf("expected 4, got %d", got)
	}
	if got := s.Int("whole", 0); got != 3 {
		t.Errorf("expected whole floats to convert, got %d", got)
	}
	if got := s.Int("scale", 7); got != 7 {
		t.Errorf("expected fractional floats to fall back, got %d", got)
	}
	if got := s.Float("scale", 0); got != 1.5 {
		t.Errorf("expected 1.5, got %v", got)
	}
	if got := s.Float("size", 0); got != 4.0 {
		t.Errorf("expected integers to widen, got %v", got)
	}
	if got := s.String("name", ""); got != "storm" {
		t.Errorf("expected %q, got %q", "storm", got)
	}
	if got := s.String("size", "dflt"); got != "dflt" {
		t.Errorf("expected fallback, got %q", got)
	}
	if got := s.List("list"); len(got) != 3 {
		t.Errorf("expected 3 members, got %#v", got)
	}
	if got := s.Map("map"); got["k"] != "v" {
		t.Errorf("expected the stored map, got %#v", got)
	}
	if got := s.Strings("list", nil); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("expected the string members only, got %#v", got)
	}
	if got := s.Strings("missing", []string{"x"}); len(got) != 1 || got[0] != "x" {
		t.Errorf("expected the fallback slice, got %#v", got)
	}
}
