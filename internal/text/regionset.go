package text

import "sort"

// Normalize sorts regions by Begin and merges any that intersect or touch.
// Merged regions are forward (A <= B). The input slice is not modified.
func Normalize(regions []Region) []Region {
	if len(regions) == 0 {
		return nil
	}

	sorted := make([]Region, len(regions))
	copy(sorted, regions)
	sort.Slice(sorted, func(i, j int) bool {
		bi, bj := sorted[i].Begin(), sorted[j].Begin()
		if bi != bj {
			return bi < bj
		}
		// Same begin: wider regions first so merging keeps the cover.
		return sorted[i].End() > sorted[j].End()
	})

	merged := sorted[:1]
	for _, r := range sorted[1:] {
		last := &merged[len(merged)-1]
		if r.Begin() <= last.End() {
			nb, ne := last.Begin(), last.End()
			if r.End() > ne {
				ne = r.End()
			}
			last.A, last.B = nb, ne
		} else {
			merged = append(merged, r)
		}
	}
	return merged
}

// Add inserts rs into a normalized region list, merging each with any
// regions it intersects or touches. The result is normalized.
func Add(regions []Region, rs ...Region) []Region {
	return Normalize(append(append([]Region(nil), regions...), rs...))
}

// Subtract removes the span of r from every region in a normalized list.
// Regions fully covered by r are dropped; regions r cuts strictly inside
// are split in two. Empty regions survive unless they sit strictly inside
// r's span.
func Subtract(regions []Region, r Region) []Region {
	rb, re := r.Begin(), r.End()
	var out []Region
	for _, e := range regions {
		eb, ee := e.Begin(), e.End()
		// Half-open overlap test: boundary-touching regions are untouched,
		// and an empty region is consumed only strictly inside the span.
		if re <= eb || rb >= ee {
			out = append(out, e)
			continue
		}
		if eb < rb {
			out = append(out, Region{A: eb, B: rb, XPos: e.XPos})
		}
		if re < ee {
			out = append(out, Region{A: re, B: ee, XPos: e.XPos})
		}
	}
	return out
}

// SetContains returns true if pt lies within any region of a normalized
// list, boundaries included.
func SetContains(regions []Region, pt Point) bool {
	// Binary search on Begin, then check the candidate and its predecessor.
	i := sort.Search(len(regions), func(i int) bool {
		return regions[i].Begin() > pt
	})
	if i > 0 && regions[i-1].Contains(pt) {
		return true
	}
	return i < len(regions) && regions[i].Contains(pt)
}

// SetContainsRegion returns true if some region of a normalized list
// contains all of r.
func SetContainsRegion(regions []Region, r Region) bool {
	for _, e := range regions {
		if e.ContainsRegion(r) {
			return true
		}
	}
	return false
}
