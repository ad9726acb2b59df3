package mrkmeans

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/hupe1980/mrkmeans/centroidstore"
	"github.com/hupe1980/mrkmeans/codec"
	"github.com/hupe1980/mrkmeans/internal/kmeans"
	"github.com/hupe1980/mrkmeans/model"
	"github.com/hupe1980/mrkmeans/resource"
)

type options struct {
	codec            codec.Codec
	metricsCollector MetricsCollector
	logger           *Logger
	rng              kmeans.RandomSource
	initialCentroids []model.Centroid
	splitSize        int64
	controller       *resource.Controller
	keepIntermediate bool
	roundRunner      RoundRunner
	centroidStore    centroidstore.Store
}

// Option configures Driver behavior.
type Option func(*options)

// WithCodec configures the codec used for map spills and the run summary.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithMetricsCollector configures a metrics collector for monitoring the run.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &mrkmeans.BasicMetricsCollector{}
//	d, _ := mrkmeans.New(cfg, store, mrkmeans.WithMetricsCollector(metrics))
//	// ... run ...
//	stats := metrics.GetStats()
//	fmt.Printf("Rounds: %d, Avg latency: %dns\n", stats.RoundCount, stats.RoundAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := mrkmeans.NewJSONLogger(slog.LevelInfo)
//	d, _ := mrkmeans.New(cfg, store, mrkmeans.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithRand sets the random source used for seeding.
func WithRand(rng kmeans.RandomSource) Option {
	return func(o *options) {
		o.rng = rng
	}
}

// WithSeed makes seeding reproducible.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // not security relevant
	}
}

// WithInitialCentroids skips random seeding and starts from centroids.
// They must be exactly k finite points of dimension d with indices 0..k-1.
func WithInitialCentroids(centroids []model.Centroid) Option {
	return func(o *options) {
		o.initialCentroids = model.CloneCentroids(centroids)
	}
}

// WithSplitSize sets the size in bytes of the dataset splits, one map task each.
func WithSplitSize(size int64) Option {
	return func(o *options) {
		o.splitSize = size
	}
}

// WithResourceController bounds task parallelism, spill memory and IO.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.controller = rc
	}
}

// WithKeepIntermediate keeps the per-split map spills of every round.
func WithKeepIntermediate(keep bool) Option {
	return func(o *options) {
		o.keepIntermediate = keep
	}
}

// WithRoundRunner replaces the in-process round runner.
func WithRoundRunner(r RoundRunner) Option {
	return func(o *options) {
		o.roundRunner = r
	}
}

// WithCentroidStore replaces the centroid store. By default centroids are
// published to <output>/centroids.txt in the driver's blob store.
func WithCentroidStore(s centroidstore.Store) Option {
	return func(o *options) {
		o.centroidStore = s
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            codec.Default,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // not security relevant
	}
	return o
}
