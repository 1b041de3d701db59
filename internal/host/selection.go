package host

import (
	"github.com/dshills/stormhost/internal/text"
)

// Selection is the ordered, non-overlapping region set of one view. All
// holders of the same view share one Selection by reference, so a change
// made through any handle is immediately visible to the rest.
//
// Every accessor fails with ErrStaleView once the owning view closes.
type Selection struct {
	view    *View
	regions []text.Region
}

func newSelection(v *View) *Selection {
	return &Selection{view: v}
}

func (s *Selection) guard() error {
	if !s.view.IsValid() {
		return ErrStaleView
	}
	return nil
}

// Len returns the number of regions.
func (s *Selection) Len() (int, error) {
	if err := s.guard(); err != nil {
		return 0, err
	}
	return len(s.regions), nil
}

// Get returns the region at index i in begin order.
func (s *Selection) Get(i int) (text.Region, error) {
	if err := s.guard(); err != nil {
		return text.Region{}, err
	}
	if i < 0 || i >= len(s.regions) {
		return text.Region{}, ErrOutOfSelection
	}
	return s.regions[i], nil
}

// Regions returns a copy of all regions in begin order.
func (s *Selection) Regions() ([]text.Region, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	out := make([]text.Region, len(s.regions))
	copy(out, s.regions)
	return out, nil
}

// Add inserts r, merging it with every existing region it intersects or
// touches. Adding an already-covered region changes nothing.
func (s *Selection) Add(r text.Region) error {
	if err := s.guard(); err != nil {
		return err
	}
	s.regions = text.Add(s.regions, r)
	s.view.notifySelectionModified()
	return nil
}

// AddAll inserts every region of rs.
func (s *Selection) AddAll(rs []text.Region) error {
	if err := s.guard(); err != nil {
		return err
	}
	s.regions = text.Add(s.regions, rs...)
	s.view.notifySelectionModified()
	return nil
}

// Subtract removes the covered span of r from every region, splitting
// regions the subtracted range is strictly inside of.
func (s *Selection) Subtract(r text.Region) error {
	if err := s.guard(); err != nil {
		return err
	}
	s.regions = text.Subtract(s.regions, r)
	s.view.notifySelectionModified()
	return nil
}

// Clear removes all regions.
func (s *Selection) Clear() error {
	if err := s.guard(); err != nil {
		return err
	}
	s.regions = s.regions[:0]
	s.view.notifySelectionModified()
	return nil
}

// Set replaces the selection with exactly r.
func (s *Selection) Set(r text.Region) error {
	if err := s.guard(); err != nil {
		return err
	}
	s.regions = s.regions[:0]
	s.regions = text.Add(s.regions, r)
	s.view.notifySelectionModified()
	return nil
}

// Contains reports whether pt lies inside the selection.
func (s *Selection) Contains(pt text.Point) (bool, error) {
	if err := s.guard(); err != nil {
		return false, err
	}
	return text.SetContains(s.regions, pt), nil
}

// ContainsRegion reports whether r lies entirely inside one region.
func (s *Selection) ContainsRegion(r text.Region) (bool, error) {
	if err := s.guard(); err != nil {
		return false, err
	}
	return text.SetContainsRegion(s.regions, r), nil
}
