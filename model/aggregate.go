package model

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// Aggregate is a mergeable accumulator: the coordinate-wise sum of the
// points folded into it and how many there were.
//
// Invariants: Count >= 0, and Count == 0 implies Sum is the zero vector.
type Aggregate struct {
	Sum   []float64 `json:"sum"`
	Count int64     `json:"count"`
}

// NewAggregate returns the identity aggregate of dimension d.
func NewAggregate(d int) Aggregate {
	return Aggregate{Sum: make([]float64, d)}
}

// PointAggregate returns the aggregate holding the single point p.
func PointAggregate(p Point) Aggregate {
	return Aggregate{Sum: slices.Clone(p), Count: 1}
}

// Dim returns the dimensionality of the aggregate.
func (a *Aggregate) Dim() int { return len(a.Sum) }

// IsIdentity reports whether no point has been folded into a.
func (a *Aggregate) IsIdentity() bool { return a.Count == 0 }

// Add folds p into a.
// p must have the same dimension as a.
func (a *Aggregate) Add(p Point) {
	floats.Add(a.Sum, p)
	a.Count++
}

// Merge folds other into a.
func (a *Aggregate) Merge(other Aggregate) error {
	if len(other.Sum) != len(a.Sum) {
		return fmt.Errorf("merge aggregates: dimension mismatch: %d != %d", len(a.Sum), len(other.Sum))
	}
	if other.Count < 0 || a.Count < 0 {
		return fmt.Errorf("merge aggregates: negative count")
	}
	floats.Add(a.Sum, other.Sum)
	a.Count += other.Count
	return nil
}

// IsFinite reports whether every coordinate of the sum is finite.
func (a Aggregate) IsFinite() bool { return Point(a.Sum).IsFinite() }

// Clone returns a deep copy of a.
func (a Aggregate) Clone() Aggregate {
	return Aggregate{Sum: slices.Clone(a.Sum), Count: a.Count}
}

// Merged returns the merge of a and b without modifying either.
func Merged(a, b Aggregate) (Aggregate, error) {
	out := a.Clone()
	if err := out.Merge(b); err != nil {
		return Aggregate{}, err
	}
	return out, nil
}

// Mean divides the sum by the count.
//
// A zero count is not guarded: every coordinate of the result is then
// non-finite (NaN), which is how an empty cluster is signalled downstream.
func (a Aggregate) Mean() Point {
	m := make(Point, len(a.Sum))
	n := float64(a.Count)
	for i, s := range a.Sum {
		m[i] = s / n
	}
	return m
}
