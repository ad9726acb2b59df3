package kmeans

import (
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/mrkmeans/dataset"
	"github.com/hupe1980/mrkmeans/model"
)

// lines is a RecordSource over in-memory lines.
type lines []string

func (l lines) Scan(ctx context.Context, fn func(dataset.Record) error) error {
	var off int64
	for _, line := range l {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(dataset.Record{Offset: off, Line: line}); err != nil {
			return err
		}
		off += int64(len(line)) + 1
	}
	return nil
}

func centroids(points ...model.Point) []model.Centroid {
	out := make([]model.Centroid, len(points))
	for i, p := range points {
		out[i] = model.Centroid{Index: i, Point: p}
	}
	return out
}

func TestDrawIndices(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		idx, err := DrawIndices(3, 5, rng)
		require.NoError(t, err)
		require.Len(t, idx, 3)
		for j := 1; j < len(idx); j++ {
			assert.Less(t, idx[j-1], idx[j])
		}
		assert.Less(t, idx[2], uint64(5))
	}

	idx, err := DrawIndices(5, 5, rng)
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 1, 2, 3, 4}, idx)

	_, err = DrawIndices(0, 5, rng)
	assert.ErrorIs(t, err, ErrInvalidK)
	_, err = DrawIndices(6, 5, rng)
	assert.ErrorIs(t, err, ErrInvalidK)
}

func TestSeed_SelectsDistinctInputPoints(t *testing.T) {
	src := lines{"0,0", "1,1", "2,2", "3,3", "4,4"}
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 20; i++ {
		cs, err := Seed(context.Background(), src, 3, 2, 5, rng)
		require.NoError(t, err)
		require.Len(t, cs, 3)

		seen := map[float64]bool{}
		prev := -1.0
		for j, c := range cs {
			assert.Equal(t, j, c.Index)
			require.Len(t, c.Point, 2)
			assert.Equal(t, c.Point[0], c.Point[1], "must be an input point")
			assert.False(t, seen[c.Point[0]])
			seen[c.Point[0]] = true
			// centroid order follows dataset order
			assert.Greater(t, c.Point[0], prev)
			prev = c.Point[0]
		}
	}
}

func TestSeed_Errors(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(1))

	_, err := Seed(ctx, lines{"0,0"}, 2, 2, 1, rng)
	assert.ErrorIs(t, err, ErrInvalidK)

	_, err = Seed(ctx, lines{"0,0"}, 1, 0, 1, rng)
	assert.ErrorIs(t, err, ErrInvalidDimension)

	// declared n larger than the dataset
	_, err = Seed(ctx, lines{"0,0", "1,1"}, 2, 2, 1000, rng)
	assert.ErrorIs(t, err, ErrShortDataset)

	// every record is drawn when k == n
	_, err = Seed(ctx, lines{"0,0", "oops"}, 2, 2, 2, rng)
	var re *RecordError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, int64(4), re.Offset)
	assert.ErrorIs(t, err, model.ErrMalformedPoint)
}

func TestAssigner_TieBreaksToLowestIndex(t *testing.T) {
	a, err := NewAssigner(centroids(model.Point{1, 0}, model.Point{-1, 0}))
	require.NoError(t, err)
	assert.Equal(t, 0, a.Fold(model.Point{0, 0}))
}

func TestAssigner_EmitsAllIndices(t *testing.T) {
	a, err := NewAssigner(centroids(model.Point{0, 0}, model.Point{10, 0}, model.Point{100, 100}))
	require.NoError(t, err)

	a.Fold(model.Point{0, 1})
	a.Fold(model.Point{0, 0})
	a.Fold(model.Point{10, 1})

	aggs := a.Emit()
	require.Len(t, aggs, 3)
	assert.Equal(t, model.Aggregate{Sum: []float64{0, 1}, Count: 2}, aggs[0])
	assert.Equal(t, model.Aggregate{Sum: []float64{10, 1}, Count: 1}, aggs[1])
	assert.True(t, aggs[2].IsIdentity())
	assert.Equal(t, []float64{0, 0}, aggs[2].Sum)
}

func TestAssigner_SnapshotIsolation(t *testing.T) {
	cs := centroids(model.Point{0, 0}, model.Point{10, 0})
	a, err := NewAssigner(cs)
	require.NoError(t, err)

	cs[0].Point[0] = 100
	assert.Equal(t, 0, a.Nearest(model.Point{1, 0}))
}

func TestNewAssigner_Errors(t *testing.T) {
	_, err := NewAssigner(nil)
	assert.ErrorIs(t, err, ErrInvalidK)

	_, err = NewAssigner(centroids(model.Point{0, 0}, model.Point{1}))
	assert.ErrorIs(t, err, ErrInvalidDimension)

	_, err = NewAssigner([]model.Centroid{{Index: 1, Point: model.Point{0}}})
	assert.Error(t, err)
}

func TestAssignPartition(t *testing.T) {
	cs := centroids(model.Point{0, 0}, model.Point{10, 0})
	src := lines{"0,0", "0,1", "10,0", "10,1"}

	aggs, err := AssignPartition(context.Background(), cs, src.Scan)
	require.NoError(t, err)
	assert.Equal(t, []model.Aggregate{
		{Sum: []float64{0, 1}, Count: 2},
		{Sum: []float64{20, 1}, Count: 2},
	}, aggs)
}

func TestAssignPartition_MalformedAborts(t *testing.T) {
	cs := centroids(model.Point{0, 0})
	for _, bad := range []string{"1,NaN", "1,abc", "1", "Inf,0"} {
		src := lines{"0,0", bad, "1,1"}
		_, err := AssignPartition(context.Background(), cs, src.Scan)

		var re *RecordError
		require.ErrorAs(t, err, &re, bad)
		assert.Equal(t, int64(4), re.Offset)
		assert.Equal(t, bad, re.Record)
		assert.True(t, strings.Contains(err.Error(), "offset 4"))
	}
}

func TestAssignPartition_SumOverflow(t *testing.T) {
	src := lines{"1e308,0", "1e308,0"}
	_, err := AssignPartition(context.Background(), centroids(model.Point{0, 0}), src.Scan)
	require.ErrorIs(t, err, ErrSumOverflow)

	var re *RecordError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "1e308,0", re.Record)
}

func TestReduce_SumOverflow(t *testing.T) {
	part := model.Aggregate{Sum: []float64{1e308, 0}, Count: 1}
	_, err := Reduce(0, []model.Aggregate{part, part.Clone()})
	assert.ErrorIs(t, err, ErrSumOverflow)
}

func TestReduce(t *testing.T) {
	parts := []model.Aggregate{
		{Sum: []float64{0, 1}, Count: 2},
		model.NewAggregate(2),
		{Sum: []float64{0, 0}, Count: 1},
	}
	c, err := Reduce(4, parts)
	require.NoError(t, err)
	assert.Equal(t, 4, c.Index)
	assert.InDeltaSlice(t, []float64{0, 1.0 / 3}, []float64(c.Point), 1e-12)

	// inputs are not modified
	assert.Equal(t, int64(2), parts[0].Count)
}

func TestReduce_OrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	parts := make([]model.Aggregate, 10)
	for i := range parts {
		parts[i] = model.NewAggregate(3)
		for j := 0; j < rng.Intn(5); j++ {
			parts[i].Add(model.Point{rng.Float64(), rng.Float64(), rng.Float64()})
		}
	}
	parts[0].Add(model.Point{1, 2, 3})

	want, err := Reduce(0, parts)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		rng.Shuffle(len(parts), func(a, b int) { parts[a], parts[b] = parts[b], parts[a] })
		got, err := Reduce(0, parts)
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64(want.Point), []float64(got.Point), 1e-9)
	}
}

func TestReduce_EmptyClusterIsNonFinite(t *testing.T) {
	c, err := Reduce(2, []model.Aggregate{model.NewAggregate(2), model.NewAggregate(2)})
	require.NoError(t, err)
	assert.False(t, c.Point.IsFinite())

	_, err = Reduce(2, nil)
	assert.ErrorIs(t, err, ErrNoAggregates)

	_, err = Reduce(0, []model.Aggregate{model.NewAggregate(2), model.NewAggregate(3)})
	assert.Error(t, err)
}
