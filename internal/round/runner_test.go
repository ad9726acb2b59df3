package round

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/mrkmeans/blobstore"
	"github.com/hupe1980/mrkmeans/centroidstore"
	"github.com/hupe1980/mrkmeans/codec"
	"github.com/hupe1980/mrkmeans/dataset"
	"github.com/hupe1980/mrkmeans/internal/kmeans"
	"github.com/hupe1980/mrkmeans/model"
	"github.com/hupe1980/mrkmeans/resource"
)

const fourPoints = "0,0\n0,1\n10,0\n10,1\n"

type recorder struct {
	mu     sync.Mutex
	points int64
	calls  int
	errs   int
}

func (r *recorder) RecordPartition(_, _ int, points int64, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.points += points
	if err != nil {
		r.errs++
	}
}

func setup(t *testing.T, content string, k int, initial ...model.Point) (*blobstore.MemoryStore, Config) {
	t.Helper()
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "input/points.txt", []byte(content)))
	ds, err := dataset.Open(ctx, store, "input/points.txt")
	require.NoError(t, err)

	cs := centroidstore.NewMemory()
	centroids := make([]model.Centroid, len(initial))
	for i, p := range initial {
		centroids[i] = model.Centroid{Index: i, Point: p}
	}
	require.NoError(t, cs.Publish(ctx, centroids))

	return store, Config{
		Store:     store,
		Dataset:   ds,
		Centroids: cs,
		K:         k,
		D:         len(initial[0]),
		Reducers:  1,
		Output:    "out",
	}
}

func TestRunRound(t *testing.T) {
	for _, tc := range []struct {
		reducers  int
		splitSize int64
	}{
		{1, 0}, {2, 3}, {3, 5}, {5, 1},
	} {
		store, cfg := setup(t, fourPoints, 2, model.Point{0, 0}, model.Point{10, 0})
		cfg.Reducers = tc.reducers
		cfg.SplitSize = tc.splitSize
		rec := &recorder{}
		cfg.Recorder = rec
		cfg.Controller = resource.NewController(resource.Config{MaxTasks: 2})

		r, err := New(cfg)
		require.NoError(t, err)

		got, err := r.RunRound(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, []model.Centroid{
			{Index: 0, Point: model.Point{0, 0.5}},
			{Index: 1, Point: model.Point{10, 0.5}},
		}, got, "reducers=%d split=%d", tc.reducers, tc.splitSize)
		assert.Equal(t, int64(4), rec.points)

		parts, err := store.List(context.Background(), "out_1/part-r-")
		require.NoError(t, err)
		assert.Len(t, parts, tc.reducers)

		spills, err := store.List(context.Background(), "out_1/_intermediate/")
		require.NoError(t, err)
		assert.Empty(t, spills)
	}
}

func TestRunRound_PartFileFormat(t *testing.T) {
	store, cfg := setup(t, fourPoints, 2, model.Point{0, 0}, model.Point{10, 0})
	cfg.Reducers = 2
	r, err := New(cfg)
	require.NoError(t, err)

	_, err = r.RunRound(context.Background(), 3)
	require.NoError(t, err)

	p0, err := blobstore.ReadAll(context.Background(), store, "out_3/part-r-00000")
	require.NoError(t, err)
	assert.Equal(t, "0\t0,0.5\n", string(p0))
	p1, err := blobstore.ReadAll(context.Background(), store, "out_3/part-r-00001")
	require.NoError(t, err)
	assert.Equal(t, "1\t10,0.5\n", string(p1))
}

func TestRunRound_RoutesByPartition(t *testing.T) {
	const k, reducers = 5, 2
	store, cfg := setup(t, "0,0\n1,1\n2,2\n3,3\n4,4\n", k,
		model.Point{0, 0}, model.Point{1, 1}, model.Point{2, 2}, model.Point{3, 3}, model.Point{4, 4})
	cfg.Reducers = reducers
	r, err := New(cfg)
	require.NoError(t, err)

	_, err = r.RunRound(context.Background(), 1)
	require.NoError(t, err)

	for reducer := 0; reducer < reducers; reducer++ {
		data, err := blobstore.ReadAll(context.Background(), store, PartName("out_1", reducer))
		require.NoError(t, err)
		for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
			c, err := model.ParseCentroid(line, 2)
			require.NoError(t, err)
			assert.Equal(t, reducer, Partition(c.Index, reducers), "centroid %d in part %d", c.Index, reducer)
		}
	}
}

func TestRunRound_SumOverflow(t *testing.T) {
	t.Run("within one split", func(t *testing.T) {
		_, cfg := setup(t, "1e308,0\n1e308,0\n", 1, model.Point{0, 0})
		r, err := New(cfg)
		require.NoError(t, err)

		_, err = r.RunRound(context.Background(), 1)
		require.ErrorIs(t, err, kmeans.ErrSumOverflow)

		var re *kmeans.RecordError
		require.ErrorAs(t, err, &re)
		assert.Equal(t, int64(8), re.Offset)
	})

	t.Run("across splits", func(t *testing.T) {
		_, cfg := setup(t, "1e308,0\n1e308,0\n", 1, model.Point{0, 0})
		cfg.SplitSize = 8
		r, err := New(cfg)
		require.NoError(t, err)

		_, err = r.RunRound(context.Background(), 1)
		require.ErrorIs(t, err, kmeans.ErrSumOverflow)

		var te *TaskError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, PhaseReduce, te.Phase)
	})
}

func TestRunRound_KeepIntermediate(t *testing.T) {
	store, cfg := setup(t, fourPoints, 2, model.Point{0, 0}, model.Point{10, 0})
	cfg.SplitSize = 8
	cfg.KeepIntermediate = true
	cfg.Codec = codec.JSON{}
	r, err := New(cfg)
	require.NoError(t, err)

	_, err = r.RunRound(context.Background(), 1)
	require.NoError(t, err)

	spills, err := store.List(context.Background(), "out_1/_intermediate/")
	require.NoError(t, err)
	require.Len(t, spills, 3)
	assert.Equal(t, SpillName("out_1", 0), spills[0])

	sc, err := newSpillCodec(codec.Default)
	require.NoError(t, err)
	defer sc.close()

	data, err := blobstore.ReadAll(context.Background(), store, spills[0])
	require.NoError(t, err)
	sp, err := sc.decode(data)
	require.NoError(t, err)
	assert.Equal(t, 0, sp.Split)
	assert.Equal(t, int64(2), sp.Points)
	assert.Equal(t, []model.Aggregate{{Sum: []float64{0, 1}, Count: 2}, {Sum: []float64{0, 0}, Count: 0}}, sp.Aggregates)
}

func TestRunRound_EmptyClusterIsNaN(t *testing.T) {
	_, cfg := setup(t, fourPoints, 3, model.Point{0, 0}, model.Point{10, 0}, model.Point{100, 100})
	cfg.Reducers = 2
	r, err := New(cfg)
	require.NoError(t, err)

	got, err := r.RunRound(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[0].Point.IsFinite())
	assert.True(t, math.IsNaN(got[2].Point[0]))
}

func TestRunRound_EmptyDataset(t *testing.T) {
	_, cfg := setup(t, "", 1, model.Point{0, 0})
	r, err := New(cfg)
	require.NoError(t, err)

	got, err := r.RunRound(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, got[0].Point.IsFinite())
}

func TestRunRound_MalformedRecord(t *testing.T) {
	_, cfg := setup(t, "0,0\n0,x\n10,0\n", 1, model.Point{0, 0})
	rec := &recorder{}
	cfg.Recorder = rec
	r, err := New(cfg)
	require.NoError(t, err)

	_, err = r.RunRound(context.Background(), 1)
	require.Error(t, err)

	var te *TaskError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, PhaseMap, te.Phase)
	assert.Equal(t, 0, te.Task)

	var re *kmeans.RecordError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, int64(4), re.Offset)
	assert.Equal(t, "0,x", re.Record)
	assert.ErrorIs(t, err, model.ErrMalformedPoint)
	assert.Equal(t, 1, rec.errs)
}

func TestRunRound_StaleOutputIsCleared(t *testing.T) {
	store, cfg := setup(t, fourPoints, 2, model.Point{0, 0}, model.Point{10, 0})
	require.NoError(t, store.Put(context.Background(), "out_1/part-r-00007", []byte("0\t5,5\n")))

	r, err := New(cfg)
	require.NoError(t, err)
	got, err := r.RunRound(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, model.Point{0, 0.5}, got[0].Point)
}

type failingStore struct {
	*blobstore.MemoryStore
}

func (failingStore) Put(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func TestRunRound_StoreFailure(t *testing.T) {
	store, cfg := setup(t, fourPoints, 2, model.Point{0, 0}, model.Point{10, 0})
	cfg.Store = failingStore{store}
	r, err := New(cfg)
	require.NoError(t, err)

	_, err = r.RunRound(context.Background(), 1)
	assert.ErrorContains(t, err, "disk full")
}

func TestRunRound_Canceled(t *testing.T) {
	_, cfg := setup(t, fourPoints, 2, model.Point{0, 0}, model.Point{10, 0})
	r, err := New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.RunRound(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_Validation(t *testing.T) {
	_, cfg := setup(t, fourPoints, 2, model.Point{0, 0}, model.Point{10, 0})

	bad := cfg
	bad.Reducers = 0
	_, err := New(bad)
	assert.Error(t, err)

	bad = cfg
	bad.Output = ""
	_, err = New(bad)
	assert.Error(t, err)

	bad = cfg
	bad.Dataset = nil
	_, err = New(bad)
	assert.Error(t, err)
}

func TestLayout(t *testing.T) {
	assert.Equal(t, "out_2", OutputDir("out", 2))
	assert.Equal(t, "out_2/part-r-00001", PartName("out_2", 1))
	assert.Equal(t, "out_2/_intermediate/map-00012.zst", SpillName("out_2", 12))
	assert.Equal(t, 1, Partition(5, 2))
}
