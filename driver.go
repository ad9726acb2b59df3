package mrkmeans

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sync/atomic"
	"time"

	"github.com/hupe1980/mrkmeans/blobstore"
	"github.com/hupe1980/mrkmeans/centroidstore"
	"github.com/hupe1980/mrkmeans/dataset"
	"github.com/hupe1980/mrkmeans/internal/kmeans"
	"github.com/hupe1980/mrkmeans/internal/round"
	"github.com/hupe1980/mrkmeans/manifest"
	"github.com/hupe1980/mrkmeans/model"
)

// State is a stage of the driver loop.
type State int32

const (
	StateIdle State = iota
	StateSeeding
	StatePublishing
	StateRunning
	StateEvaluating
	StateTerminated
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSeeding:
		return "seeding"
	case StatePublishing:
		return "publishing"
	case StateRunning:
		return "running"
	case StateEvaluating:
		return "evaluating"
	case StateTerminated:
		return "terminated"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// RoundRunner executes one round: every point is assigned to its nearest
// published centroid, the per-index aggregates are reduced, and the k new
// centroids are returned ordered by index. Centroids of indices that
// received no points must have non-finite coordinates.
type RoundRunner interface {
	RunRound(ctx context.Context, iteration int) ([]model.Centroid, error)
}

// Result is the outcome of a terminated run.
type Result struct {
	Centroids       []model.Centroid
	Iterations      int
	Converged       bool
	MaxDisplacement float64
	// Displacements holds the max squared displacement of every iteration.
	Displacements []float64
	RunID         string
	Elapsed       time.Duration
}

// Driver runs the k-means loop: seed once, then publish, run a round and
// evaluate until the centroids converge or the iteration cap is reached.
//
// A Driver runs once; create a new one for every run.
type Driver struct {
	cfg   Config
	store blobstore.BlobStore
	opts  options
	state atomic.Int32
	ran   atomic.Bool
}

// New validates cfg and returns a Driver reading cfg.Input from store and
// writing everything below cfg.Output to it.
func New(cfg Config, store blobstore.BlobStore, optFns ...Option) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, invalid("store", nil, "must not be nil")
	}

	opts := applyOptions(optFns)
	if opts.initialCentroids != nil {
		if err := validateInitial(opts.initialCentroids, cfg.K, cfg.D); err != nil {
			return nil, err
		}
	}
	if opts.splitSize < 0 {
		return nil, invalid("split_size", opts.splitSize, "must not be negative")
	}

	return &Driver{cfg: cfg, store: store, opts: opts}, nil
}

func validateInitial(cs []model.Centroid, k, d int) error {
	if err := model.ValidateCentroids(cs, k, d); err != nil {
		return &InvalidArgumentError{Field: "initial_centroids", Reason: err.Error(), cause: err}
	}
	for _, c := range cs {
		if !c.Point.IsFinite() {
			return invalid("initial_centroids", c.Point, fmt.Sprintf("centroid %d is not finite", c.Index))
		}
	}
	return nil
}

// State returns the current state of the driver.
func (d *Driver) State() State {
	return State(d.state.Load())
}

func (d *Driver) transition(ctx context.Context, log *Logger, to State) {
	from := State(d.state.Swap(int32(to)))
	log.LogState(ctx, from, to)
}

// Run executes the loop to completion. On failure the returned error is
// one of *InvalidArgumentError, *MalformedInputError,
// *DegenerateClusterError or *RoundFailureError.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	if !d.ran.CompareAndSwap(false, true) {
		return nil, errors.New("mrkmeans: driver already ran")
	}

	start := time.Now()
	runID := manifest.NewRunID()
	log := d.opts.logger.WithRunID(runID)

	res, iteration, err := d.run(ctx, log, runID)
	elapsed := time.Since(start)
	if err != nil {
		d.transition(ctx, log, StateFailed)
		log.LogFailed(ctx, iteration, err)
		d.opts.metricsCollector.RecordRun(iteration, false, elapsed, err)
		return nil, err
	}

	res.Elapsed = elapsed
	d.transition(ctx, log, StateTerminated)
	log.LogTerminated(ctx, res.Iterations, res.Converged, elapsed)
	d.opts.metricsCollector.RecordRun(res.Iterations, res.Converged, elapsed, nil)

	if err := d.writeSummary(ctx, res, start); err != nil {
		log.WarnContext(ctx, "writing run summary failed", "error", err)
	}
	return res, nil
}

func (d *Driver) run(ctx context.Context, log *Logger, runID string) (*Result, int, error) {
	var ds *dataset.Dataset
	if d.opts.initialCentroids == nil || d.opts.roundRunner == nil {
		var err error
		ds, err = dataset.Open(ctx, d.store, d.cfg.Input, dataset.WithResourceController(d.opts.controller))
		if err != nil {
			if errors.Is(err, blobstore.ErrNotFound) {
				return nil, 0, &InvalidArgumentError{Field: "input", Value: d.cfg.Input, Reason: "not found", cause: err}
			}
			return nil, 0, translateError(fmt.Errorf("open input: %w", err), 0)
		}
	}

	cs := d.opts.centroidStore
	if cs == nil {
		cs = centroidstore.NewBlobStore(d.store, path.Join(d.cfg.Output, centroidstore.DefaultName), d.cfg.D)
	}

	runner := d.opts.roundRunner
	if runner == nil {
		r, err := round.New(round.Config{
			Store:            d.store,
			Dataset:          ds,
			Centroids:        cs,
			K:                d.cfg.K,
			D:                d.cfg.D,
			Reducers:         d.cfg.Reducers,
			Output:           d.cfg.Output,
			SplitSize:        d.opts.splitSize,
			KeepIntermediate: d.opts.keepIntermediate,
			Codec:            d.opts.codec,
			Controller:       d.opts.controller,
			Logger:           log.Logger,
			Recorder:         d.opts.metricsCollector,
		})
		if err != nil {
			return nil, 0, translateError(err, 0)
		}
		runner = r
	}

	d.transition(ctx, log, StateSeeding)
	current, err := d.seed(ctx, log, ds)
	if err != nil {
		return nil, 0, err
	}

	res := &Result{RunID: runID}
	for iteration := 1; ; iteration++ {
		ilog := log.WithIteration(iteration)

		d.transition(ctx, ilog, StatePublishing)
		if err := cs.Publish(ctx, current); err != nil {
			log.LogPublish(ctx, iteration, len(current), err)
			return nil, iteration, &RoundFailureError{Iteration: iteration, cause: fmt.Errorf("publish centroids: %w", err)}
		}
		log.LogPublish(ctx, iteration, len(current), nil)

		d.transition(ctx, ilog, StateRunning)
		roundStart := time.Now()
		next, err := runner.RunRound(ctx, iteration)
		if err == nil {
			err = model.ValidateCentroids(next, d.cfg.K, d.cfg.D)
		}
		roundDuration := time.Since(roundStart)
		d.opts.metricsCollector.RecordRound(iteration, roundDuration, err)
		log.LogRound(ctx, iteration, roundDuration, err)
		if err != nil {
			return nil, iteration, translateError(err, iteration)
		}

		d.transition(ctx, ilog, StateEvaluating)
		ev := Evaluate(current, next, d.cfg.Threshold)
		if len(ev.Degenerate) > 0 {
			return nil, iteration, &DegenerateClusterError{Iteration: iteration, Indices: ev.Degenerate}
		}
		d.opts.metricsCollector.RecordEvaluation(iteration, ev.MaxDisplacement, ev.Converged)
		log.LogEvaluation(ctx, iteration, ev.MaxDisplacement, ev.Converged)

		current = next
		res.Displacements = append(res.Displacements, ev.MaxDisplacement)
		if ev.Converged || iteration == d.cfg.MaxIterations {
			res.Centroids = current
			res.Iterations = iteration
			res.Converged = ev.Converged
			res.MaxDisplacement = ev.MaxDisplacement
			return res, iteration, nil
		}
	}
}

func (d *Driver) seed(ctx context.Context, log *Logger, ds *dataset.Dataset) ([]model.Centroid, error) {
	if d.opts.initialCentroids != nil {
		log.DebugContext(ctx, "using initial centroids", "k", len(d.opts.initialCentroids))
		return model.CloneCentroids(d.opts.initialCentroids), nil
	}

	start := time.Now()
	cs, err := kmeans.Seed(ctx, ds, d.cfg.K, d.cfg.D, d.cfg.N, d.opts.rng)
	err = translateError(err, 0)
	log.LogSeed(ctx, d.cfg.K, d.cfg.D, time.Since(start), err)
	return cs, err
}

func (d *Driver) writeSummary(ctx context.Context, res *Result, start time.Time) error {
	return manifest.Save(ctx, d.store, d.cfg.Output, &manifest.Summary{
		RunID:         res.RunID,
		K:             d.cfg.K,
		D:             d.cfg.D,
		N:             d.cfg.N,
		Threshold:     d.cfg.Threshold,
		MaxIterations: d.cfg.MaxIterations,
		Reducers:      d.cfg.Reducers,
		Input:         d.cfg.Input,
		Iterations:    res.Iterations,
		Converged:     res.Converged,
		Displacements: res.Displacements,
		Centroids:     res.Centroids,
		StartedAt:     start.UTC(),
		Elapsed:       res.Elapsed,
	}, d.opts.codec)
}
