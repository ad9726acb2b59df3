package kmeans

import (
	"context"
	"fmt"

	"github.com/hupe1980/mrkmeans/dataset"
	"github.com/hupe1980/mrkmeans/distance"
	"github.com/hupe1980/mrkmeans/model"
)

// ScanFunc feeds the records of one partition to fn.
type ScanFunc func(ctx context.Context, fn func(dataset.Record) error) error

// Assigner folds the points of one partition into one aggregate per
// centroid index. It is not safe for concurrent use.
type Assigner struct {
	centroids []model.Point
	aggs      []model.Aggregate
	dim       int
}

// NewAssigner snapshots centroids. The snapshot is never refreshed, so a
// later Publish cannot affect an assigner that is already running.
func NewAssigner(centroids []model.Centroid) (*Assigner, error) {
	if len(centroids) == 0 {
		return nil, fmt.Errorf("%w: no centroids", ErrInvalidK)
	}
	d := len(centroids[0].Point)
	if d == 0 {
		return nil, fmt.Errorf("%w: d=0", ErrInvalidDimension)
	}

	a := &Assigner{
		centroids: make([]model.Point, len(centroids)),
		aggs:      make([]model.Aggregate, len(centroids)),
		dim:       d,
	}
	for i, c := range centroids {
		if c.Index != i {
			return nil, fmt.Errorf("centroid at position %d has index %d", i, c.Index)
		}
		if len(c.Point) != d {
			return nil, fmt.Errorf("%w: centroid %d has dimension %d, expected %d", ErrInvalidDimension, i, len(c.Point), d)
		}
		a.centroids[i] = c.Point.Clone()
		a.aggs[i] = model.NewAggregate(d)
	}
	return a, nil
}

// Dim returns the point dimensionality.
func (a *Assigner) Dim() int { return a.dim }

// Nearest returns the index of the centroid closest to p by squared
// Euclidean distance. Ties go to the lowest index.
func (a *Assigner) Nearest(p model.Point) int {
	idx, _ := distance.Nearest(p, a.centroids)
	return idx
}

// Fold adds p to the aggregate of its nearest centroid and returns that index.
func (a *Assigner) Fold(p model.Point) int {
	idx := a.Nearest(p)
	a.aggs[idx].Add(p)
	return idx
}

// FoldRecord parses rec and folds it. A record that pushes its cluster sum
// out of the float64 range is rejected like a malformed one.
func (a *Assigner) FoldRecord(rec dataset.Record) error {
	p, err := model.ParsePoint(rec.Line, a.dim)
	if err != nil {
		return &RecordError{Offset: rec.Offset, Record: rec.Line, Err: err}
	}
	if idx := a.Fold(p); !a.aggs[idx].IsFinite() {
		return &RecordError{Offset: rec.Offset, Record: rec.Line, Err: fmt.Errorf("%w: centroid %d", ErrSumOverflow, idx)}
	}
	return nil
}

// Emit returns one aggregate per centroid index, including empty ones.
// The assigner must not be used afterwards.
func (a *Assigner) Emit() []model.Aggregate {
	out := a.aggs
	a.aggs = nil
	return out
}

// AssignPartition runs a fresh Assigner over every record produced by scan
// and returns its k aggregates. The first malformed record aborts the
// partition with a *RecordError.
func AssignPartition(ctx context.Context, centroids []model.Centroid, scan ScanFunc) ([]model.Aggregate, error) {
	a, err := NewAssigner(centroids)
	if err != nil {
		return nil, err
	}
	if err := scan(ctx, a.FoldRecord); err != nil {
		return nil, err
	}
	return a.Emit(), nil
}
