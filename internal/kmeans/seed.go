package kmeans

import (
	"context"
	"errors"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/hupe1980/mrkmeans/dataset"
	"github.com/hupe1980/mrkmeans/model"
)

// RandomSource draws uniform integers in [0, n).
// *rand.Rand satisfies it.
type RandomSource interface {
	Int63n(n int64) int64
}

// RecordSource is an ordered, restartable sequence of records.
type RecordSource interface {
	Scan(ctx context.Context, fn func(dataset.Record) error) error
}

var errSeedDone = errors.New("seed done")

// DrawIndices draws k distinct indices uniformly from [0, n) and returns
// them in ascending order.
func DrawIndices(k int, n int64, rng RandomSource) ([]uint64, error) {
	if k <= 0 || int64(k) > n {
		return nil, fmt.Errorf("%w: k=%d, n=%d", ErrInvalidK, k, n)
	}
	drawn := roaring64.New()
	for drawn.GetCardinality() < uint64(k) {
		drawn.Add(uint64(rng.Int63n(n)))
	}
	return drawn.ToArray(), nil
}

// Seed picks k distinct records of source uniformly at random as the
// initial centroids.
//
// The drawn record positions are visited in one ordered scan; centroid 0
// is the record at the smallest drawn position. Records are counted after
// blank lines are skipped.
func Seed(ctx context.Context, source RecordSource, k, d int, n int64, rng RandomSource) ([]model.Centroid, error) {
	if d <= 0 {
		return nil, fmt.Errorf("%w: d=%d", ErrInvalidDimension, d)
	}
	indices, err := DrawIndices(k, n, rng)
	if err != nil {
		return nil, err
	}

	centroids := make([]model.Centroid, 0, k)
	var pos uint64
	err = source.Scan(ctx, func(rec dataset.Record) error {
		if pos == indices[len(centroids)] {
			p, perr := model.ParsePoint(rec.Line, d)
			if perr != nil {
				return &RecordError{Offset: rec.Offset, Record: rec.Line, Err: perr}
			}
			centroids = append(centroids, model.Centroid{Index: len(centroids), Point: p})
			if len(centroids) == k {
				return errSeedDone
			}
		}
		pos++
		return nil
	})
	if err != nil && !errors.Is(err, errSeedDone) {
		return nil, err
	}
	if len(centroids) < k {
		return nil, fmt.Errorf("%w: declared n=%d, found %d records", ErrShortDataset, n, pos)
	}
	return centroids, nil
}
