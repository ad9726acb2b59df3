package testutil

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/mrkmeans/blobstore"
	"github.com/hupe1980/mrkmeans/model"
)

func TestRNG_Reset(t *testing.T) {
	rng := NewRNG(4711)
	a := rng.Int63n(1 << 40)
	b := rng.Float64()

	rng.Reset()
	assert.Equal(t, a, rng.Int63n(1<<40))
	assert.Equal(t, b, rng.Float64())
	assert.Equal(t, int64(4711), rng.Seed())
}

func TestUniformPoints(t *testing.T) {
	rng := NewRNG(4711)

	points := rng.UniformPoints(8, 3, -1, 1)

	require.Len(t, points, 8)
	for _, p := range points {
		require.Len(t, p, 3)
		for _, v := range p {
			assert.GreaterOrEqual(t, v, -1.0)
			assert.Less(t, v, 1.0)
		}
	}
}

func TestClusteredPoints(t *testing.T) {
	rng := NewRNG(4711)
	centers := []model.Point{{0, 0}, {100, 100}}

	points, labels := rng.ClusteredPoints(100, centers, 0.1)

	require.Len(t, points, 100)
	require.Len(t, labels, 100)
	for i, p := range points {
		c := centers[labels[i]]
		assert.InDelta(t, c[0], p[0], 1)
		assert.InDelta(t, c[1], p[1], 1)
	}
}

func TestShuffle(t *testing.T) {
	rng := NewRNG(4711)
	points := rng.UniformPoints(50, 1, 0, 1)
	sum := func() (s float64) {
		for _, p := range points {
			s += p[0]
		}
		return s
	}
	before := sum()

	rng.Shuffle(points)
	assert.InDelta(t, before, sum(), 1e-9)
}

func TestWriteDataset(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	points := []model.Point{{1, 2.5}, {-3, 1e-7}}

	require.NoError(t, WriteDataset(ctx, store, "points.txt", points))

	data, err := blobstore.ReadAll(ctx, store, "points.txt")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	for i, line := range lines {
		p, err := model.ParsePoint(line, 2)
		require.NoError(t, err)
		assert.Equal(t, points[i], p)
	}
}
