package kmeans

import (
	"fmt"

	"github.com/hupe1980/mrkmeans/model"
)

// Reduce merges every partial aggregate of centroid index and returns the
// new centroid at their mean. The merge is order-independent.
//
// If no point was assigned to the index the coordinates are NaN; detecting
// that is left to the caller.
func Reduce(index int, aggs []model.Aggregate) (model.Centroid, error) {
	if len(aggs) == 0 {
		return model.Centroid{}, fmt.Errorf("%w: index %d", ErrNoAggregates, index)
	}
	total := aggs[0].Clone()
	for _, a := range aggs[1:] {
		if err := total.Merge(a); err != nil {
			return model.Centroid{}, fmt.Errorf("reduce index %d: %w", index, err)
		}
	}
	if !total.IsFinite() {
		return model.Centroid{}, fmt.Errorf("%w: centroid %d", ErrSumOverflow, index)
	}
	return model.Centroid{Index: index, Point: total.Mean()}, nil
}
