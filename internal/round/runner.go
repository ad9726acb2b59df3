package round

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/mrkmeans/blobstore"
	"github.com/hupe1980/mrkmeans/centroidstore"
	"github.com/hupe1980/mrkmeans/codec"
	"github.com/hupe1980/mrkmeans/dataset"
	"github.com/hupe1980/mrkmeans/internal/kmeans"
	"github.com/hupe1980/mrkmeans/model"
	"github.com/hupe1980/mrkmeans/resource"
)

// Recorder receives per-task measurements.
type Recorder interface {
	RecordPartition(iteration, partition int, points int64, duration time.Duration, err error)
}

// Config configures a Runner.
type Config struct {
	Store     blobstore.BlobStore
	Dataset   *dataset.Dataset
	Centroids centroidstore.Store

	K        int
	D        int
	Reducers int
	// Output is the output path prefix; iteration i writes to Output_i.
	Output string

	// SplitSize is the map split size in bytes (dataset.DefaultSplitSize if 0).
	SplitSize int64
	// KeepIntermediate keeps the map spills after a successful round.
	KeepIntermediate bool

	Codec      codec.Codec
	Controller *resource.Controller
	Logger     *slog.Logger
	Recorder   Recorder
}

// Runner executes rounds. It is safe to reuse across iterations but runs
// one round at a time.
type Runner struct {
	cfg Config
}

// New validates cfg and returns a Runner.
func New(cfg Config) (*Runner, error) {
	switch {
	case cfg.Store == nil:
		return nil, errors.New("round: store is required")
	case cfg.Dataset == nil:
		return nil, errors.New("round: dataset is required")
	case cfg.Centroids == nil:
		return nil, errors.New("round: centroid store is required")
	case cfg.K <= 0:
		return nil, fmt.Errorf("round: invalid k %d", cfg.K)
	case cfg.D <= 0:
		return nil, fmt.Errorf("round: invalid dimension %d", cfg.D)
	case cfg.Reducers <= 0:
		return nil, fmt.Errorf("round: invalid reducer count %d", cfg.Reducers)
	case cfg.Output == "":
		return nil, errors.New("round: output is required")
	}
	if cfg.Codec == nil {
		cfg.Codec = codec.Default
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Recorder == nil {
		cfg.Recorder = noopRecorder{}
	}
	return &Runner{cfg: cfg}, nil
}

// RunRound runs the map, reduce and collect phases of iteration and
// returns the k new centroids ordered by index. Centroids of indices that
// received no points have NaN coordinates.
func (r *Runner) RunRound(ctx context.Context, iteration int) ([]model.Centroid, error) {
	dir := OutputDir(r.cfg.Output, iteration)
	log := r.cfg.Logger.With("iteration", iteration, "dir", dir)

	if err := r.clear(ctx, dir); err != nil {
		return nil, err
	}

	sc, err := newSpillCodec(r.cfg.Codec)
	if err != nil {
		return nil, err
	}
	defer sc.close()

	splits := r.cfg.Dataset.Splits(r.cfg.SplitSize)
	log.Debug("map phase", "splits", len(splits), "tasks", r.cfg.Controller.MaxTasks())
	if err := r.mapPhase(ctx, iteration, dir, splits, sc); err != nil {
		return nil, err
	}

	log.Debug("reduce phase", "reducers", r.cfg.Reducers)
	if err := r.reducePhase(ctx, dir, splits, sc); err != nil {
		return nil, err
	}

	centroids, err := r.collect(ctx, dir)
	if err != nil {
		return nil, &TaskError{Phase: PhaseCollect, Task: -1, Err: err}
	}

	if !r.cfg.KeepIntermediate {
		for _, s := range splits {
			if err := r.cfg.Store.Delete(ctx, SpillName(dir, s.Index)); err != nil {
				log.Warn("failed to delete spill", "split", s.Index, "error", err)
			}
		}
	}
	return centroids, nil
}

// clear removes leftovers of an earlier attempt at the same iteration.
func (r *Runner) clear(ctx context.Context, dir string) error {
	stale, err := r.cfg.Store.List(ctx, dir+"/")
	if err != nil {
		return fmt.Errorf("list %s: %w", dir, err)
	}
	for _, name := range stale {
		if err := r.cfg.Store.Delete(ctx, name); err != nil {
			return fmt.Errorf("delete stale %s: %w", name, err)
		}
	}
	return nil
}

func (r *Runner) runTasks(ctx context.Context, n int, task func(ctx context.Context, i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		if err := r.cfg.Controller.AcquireTask(gctx); err != nil {
			break // g.Wait reports the task error that canceled gctx
		}
		g.Go(func() error {
			defer r.cfg.Controller.ReleaseTask()
			return task(gctx, i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (r *Runner) mapPhase(ctx context.Context, iteration int, dir string, splits []dataset.Split, sc *spillCodec) error {
	return r.runTasks(ctx, len(splits), func(ctx context.Context, i int) error {
		s := splits[i]
		start := time.Now()
		points, err := r.mapTask(ctx, dir, s, sc)
		r.cfg.Recorder.RecordPartition(iteration, s.Index, points, time.Since(start), err)
		if err != nil {
			return &TaskError{Phase: PhaseMap, Task: s.Index, Err: err}
		}
		r.cfg.Logger.Debug("map task completed", "iteration", iteration, "split", s.Index, "points", points, "duration", time.Since(start))
		return nil
	})
}

func (r *Runner) mapTask(ctx context.Context, dir string, s dataset.Split, sc *spillCodec) (int64, error) {
	// Read once at setup; never refreshed during the task.
	centroids, err := r.cfg.Centroids.ReadAll(ctx)
	if err != nil {
		return 0, err
	}
	if err := model.ValidateCentroids(centroids, r.cfg.K, r.cfg.D); err != nil {
		return 0, err
	}

	aggs, err := kmeans.AssignPartition(ctx, centroids, func(ctx context.Context, fn func(dataset.Record) error) error {
		return r.cfg.Dataset.ScanSplit(ctx, s, fn)
	})
	if err != nil {
		return 0, err
	}

	var points int64
	for _, a := range aggs {
		points += a.Count
	}

	data, err := sc.encode(spill{Split: s.Index, Points: points, Aggregates: aggs})
	if err != nil {
		return points, err
	}
	if err := r.cfg.Controller.AcquireIO(ctx, len(data)); err != nil {
		return points, err
	}
	return points, r.cfg.Store.Put(ctx, SpillName(dir, s.Index), data)
}

func (r *Runner) reducePhase(ctx context.Context, dir string, splits []dataset.Split, sc *spillCodec) error {
	return r.runTasks(ctx, r.cfg.Reducers, func(ctx context.Context, reducer int) error {
		if err := r.reduceTask(ctx, dir, reducer, splits, sc); err != nil {
			return &TaskError{Phase: PhaseReduce, Task: reducer, Err: err}
		}
		return nil
	})
}

func (r *Runner) reduceTask(ctx context.Context, dir string, reducer int, splits []dataset.Split, sc *spillCodec) error {
	owned := r.owned(reducer)
	groups := make([][]model.Aggregate, len(owned))

	for _, s := range splits {
		data, err := blobstore.ReadAll(ctx, r.cfg.Store, SpillName(dir, s.Index))
		if err != nil {
			return fmt.Errorf("fetch spill of split %d: %w", s.Index, err)
		}
		sp, err := sc.decode(data)
		if err != nil {
			return fmt.Errorf("decode spill of split %d: %w", s.Index, err)
		}
		if len(sp.Aggregates) != r.cfg.K {
			return fmt.Errorf("spill of split %d holds %d aggregates, expected %d", s.Index, len(sp.Aggregates), r.cfg.K)
		}
		for j, idx := range owned {
			groups[j] = append(groups[j], sp.Aggregates[idx])
		}
	}

	w, err := r.cfg.Store.Create(ctx, PartName(dir, reducer))
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(resource.NewRateLimitedWriter(ctx, w, r.cfg.Controller))

	for j, idx := range owned {
		aggs := groups[j]
		if len(aggs) == 0 {
			// An empty dataset has no map tasks.
			aggs = []model.Aggregate{model.NewAggregate(r.cfg.D)}
		}
		c, err := kmeans.Reduce(idx, aggs)
		if err != nil {
			_ = w.Close()
			return err
		}
		bw.WriteString(model.FormatCentroid(c))
		bw.WriteByte('\n')
	}

	if err := bw.Flush(); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// owned returns the centroid indices routed to reducer, ascending.
func (r *Runner) owned(reducer int) []int {
	var out []int
	for i := 0; i < r.cfg.K; i++ {
		if Partition(i, r.cfg.Reducers) == reducer {
			out = append(out, i)
		}
	}
	return out
}

func (r *Runner) collect(ctx context.Context, dir string) ([]model.Centroid, error) {
	names, err := r.cfg.Store.List(ctx, dir+"/"+partPrefix)
	if err != nil {
		return nil, err
	}

	out := make([]model.Centroid, r.cfg.K)
	seen := make([]bool, r.cfg.K)
	for _, name := range names {
		data, err := blobstore.ReadAll(ctx, r.cfg.Store, name)
		if err != nil {
			return nil, err
		}
		for _, line := range strings.Split(string(bytes.TrimRight(data, "\n")), "\n") {
			if line == "" {
				continue
			}
			c, err := model.ParseCentroid(line, r.cfg.D)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			if c.Index >= r.cfg.K {
				return nil, fmt.Errorf("%s: centroid index %d out of range [0, %d)", name, c.Index, r.cfg.K)
			}
			if seen[c.Index] {
				return nil, fmt.Errorf("%s: duplicate centroid index %d", name, c.Index)
			}
			seen[c.Index] = true
			out[c.Index] = c
		}
	}
	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("no reducer produced centroid %d", i)
		}
	}
	return out, nil
}

type noopRecorder struct{}

func (noopRecorder) RecordPartition(int, int, int64, time.Duration, error) {}
