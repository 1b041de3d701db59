// Package text provides the region algebra shared by buffers, selections
// and the plugin API.
//
// A Point is a byte offset into a buffer. A Region is a directional pair of
// Points: A is where the region was anchored, B is where it ends, and Begin/
// End give the sorted bounds. Regions are value types; all operations return
// new Regions.
//
// The package also provides normalized region-list operations (sort, merge,
// subtract) used to maintain the non-overlap invariant of selections and
// region annotations.
package text
