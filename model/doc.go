// Package model defines the core value types shared by every stage of a
// k-means round.
//
// # Types
//
//   - Point: d finite coordinates read from one input record
//   - Aggregate: mergeable sum-of-coordinates plus point count
//   - Centroid: a Point bound to a stable index in [0, k)
//
// # Text Formats
//
// Input records are comma-separated coordinates:
//
//	1.5,-2,0.25
//
// Centroid lines carry the index and the coordinates separated by a tab:
//
//	0	1.5,-2,0.25
//
// Aggregates form a commutative monoid under Merge, with NewAggregate(d)
// as identity, so partial results can be combined in any order and grouping.
package model
