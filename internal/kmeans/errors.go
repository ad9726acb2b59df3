package kmeans

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidK is returned when k is not in [1, n].
	ErrInvalidK = errors.New("kmeans: invalid k")
	// ErrInvalidDimension is returned for a non-positive dimension or
	// centroids of differing dimension.
	ErrInvalidDimension = errors.New("kmeans: invalid dimension")
	// ErrShortDataset is returned when the dataset holds fewer records
	// than the declared n.
	ErrShortDataset = errors.New("kmeans: dataset shorter than declared size")
	// ErrNoAggregates is returned by Reduce when given nothing to merge.
	ErrNoAggregates = errors.New("kmeans: no aggregates to reduce")
	// ErrSumOverflow is returned when the coordinate sum of a cluster
	// leaves the float64 range.
	ErrSumOverflow = errors.New("kmeans: coordinate sum overflows")
)

// RecordError reports a record that could not be parsed as a point.
type RecordError struct {
	Offset int64
	Record string
	Err    error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record at offset %d: %v", e.Offset, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }
