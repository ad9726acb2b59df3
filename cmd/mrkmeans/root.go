package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/hupe1980/mrkmeans"
	"github.com/hupe1980/mrkmeans/metrics/prometheus"
	"github.com/hupe1980/mrkmeans/model"
	"github.com/hupe1980/mrkmeans/resource"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "mrkmeans",
		Short:         "Iterative k-means as a map/combine/reduce computation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "mrkmeans", version)
		},
	}
}

// runFlags mirrors fileConfig for the flag set.
type runFlags struct {
	configPath string
	storage    storageConfig
	log        logConfig

	seed             int64
	parallelism      int64
	splitSize        int64
	ioLimit          int64
	cacheBytes       int64
	keepIntermediate bool
	metricsAddr      string
}

func newRunCmd() *cobra.Command {
	var fl runFlags

	cmd := &cobra.Command{
		Use:   "run <k> <d> <n> <threshold> <max_iterations> <reducers> <input> <output>",
		Short: "Cluster the points of input into k clusters",
		Long: `Cluster the points of input into k clusters.

Every record of input is one point: d comma-separated numbers per line.
Round i writes its centroids to <output>_<i>/part-r-*; the run summary is
written to <output>/_SUMMARY.json. All parameters can also be given in the
TOML file named by --config; flags and arguments override it.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 8 {
				return fmt.Errorf("expected 8 arguments or none with --config, got %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(fl.configPath)
			if err != nil {
				return err
			}
			mergeFlags(cmd, &cfg, &fl)
			if len(args) == 8 {
				if err := applyArgs(&cfg.Config, args); err != nil {
					return err
				}
			}
			return run(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVar(&fl.configPath, "config", "", "TOML configuration file")
	f.StringVar(&fl.storage.Backend, "backend", "local", "storage backend: local, memory, s3 or minio")
	f.StringVar(&fl.storage.Root, "root", ".", "root directory of the local backend")
	f.StringVar(&fl.storage.Bucket, "bucket", "", "bucket of the s3 or minio backend")
	f.StringVar(&fl.storage.Prefix, "prefix", "", "key prefix within the bucket")
	f.StringVar(&fl.storage.Region, "region", "", "bucket region")
	f.StringVar(&fl.storage.Endpoint, "endpoint", "", "custom S3 endpoint or MinIO host:port")
	f.StringVar(&fl.storage.AccessKey, "access-key", "", "MinIO access key (defaults to the environment)")
	f.StringVar(&fl.storage.SecretKey, "secret-key", "", "MinIO secret key")
	f.BoolVar(&fl.storage.Secure, "secure", true, "use TLS for MinIO")
	f.Int64Var(&fl.seed, "seed", 0, "random seed for choosing the initial centroids")
	f.Int64Var(&fl.parallelism, "parallelism", 0, "maximum concurrent tasks (default GOMAXPROCS)")
	f.Int64Var(&fl.splitSize, "split-size", 0, "bytes of input per map task (default 32 MiB)")
	f.Int64Var(&fl.ioLimit, "io-limit", 0, "blob store throughput limit in bytes per second")
	f.Int64Var(&fl.cacheBytes, "cache-bytes", 0, "block cache capacity for the input in bytes")
	f.BoolVar(&fl.keepIntermediate, "keep-intermediate", false, "keep map spills of every round")
	f.StringVar(&fl.log.Level, "log-level", "info", "log level: debug, info, warn or error")
	f.StringVar(&fl.log.Format, "log-format", "text", "log format: text or json")
	f.StringVar(&fl.log.Filename, "log-file", "", "write logs to a rotated file instead of stderr")
	f.StringVar(&fl.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	return cmd
}

// mergeFlags copies every explicitly set flag over cfg.
func mergeFlags(cmd *cobra.Command, cfg *fileConfig, fl *runFlags) {
	f := cmd.Flags()
	set := func(name string, apply func()) {
		if f.Changed(name) {
			apply()
		}
	}
	set("backend", func() { cfg.Storage.Backend = fl.storage.Backend })
	set("root", func() { cfg.Storage.Root = fl.storage.Root })
	set("bucket", func() { cfg.Storage.Bucket = fl.storage.Bucket })
	set("prefix", func() { cfg.Storage.Prefix = fl.storage.Prefix })
	set("region", func() { cfg.Storage.Region = fl.storage.Region })
	set("endpoint", func() { cfg.Storage.Endpoint = fl.storage.Endpoint })
	set("access-key", func() { cfg.Storage.AccessKey = fl.storage.AccessKey })
	set("secret-key", func() { cfg.Storage.SecretKey = fl.storage.SecretKey })
	set("secure", func() { cfg.Storage.Secure = fl.storage.Secure })
	set("seed", func() { cfg.Seed = &fl.seed })
	set("parallelism", func() { cfg.Parallelism = fl.parallelism })
	set("split-size", func() { cfg.SplitSize = fl.splitSize })
	set("io-limit", func() { cfg.IOLimit = fl.ioLimit })
	set("cache-bytes", func() { cfg.CacheBytes = fl.cacheBytes })
	set("keep-intermediate", func() { cfg.KeepIntermediate = fl.keepIntermediate })
	set("log-level", func() { cfg.Log.Level = fl.log.Level })
	set("log-format", func() { cfg.Log.Format = fl.log.Format })
	set("log-file", func() { cfg.Log.Filename = fl.log.Filename })
	set("metrics-addr", func() { cfg.MetricsAddr = fl.metricsAddr })
}

func run(ctx context.Context, cfg fileConfig, stdout, stderr io.Writer) error {
	if err := cfg.Config.Validate(); err != nil {
		return err
	}
	if cfg.Storage.Backend == "" || cfg.Storage.Backend == "local" {
		root, input, output, err := localLayout(cfg.Storage.Root, cfg.Input, cfg.Output)
		if err != nil {
			return &mrkmeans.InvalidArgumentError{Field: "output", Value: cfg.Output, Reason: err.Error()}
		}
		cfg.Storage.Root, cfg.Input, cfg.Output = root, input, output
	}

	logger, logCloser, err := newLogger(cfg.Log, stderr)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	rc := resource.NewController(resource.Config{
		MaxTasks:           cfg.Parallelism,
		MemoryLimitBytes:   cfg.CacheBytes,
		IOLimitBytesPerSec: cfg.IOLimit,
	})

	store, err := openStore(ctx, cfg.Storage, cfg.Input)
	if err != nil {
		return err
	}
	store, closeCache := withCache(store, cfg.CacheBytes, cfg.CacheBlockSize, rc)
	defer closeCache()

	opts := []mrkmeans.Option{
		mrkmeans.WithLogger(logger),
		mrkmeans.WithResourceController(rc),
		mrkmeans.WithSplitSize(cfg.SplitSize),
		mrkmeans.WithKeepIntermediate(cfg.KeepIntermediate),
	}
	if cfg.Seed != nil {
		opts = append(opts, mrkmeans.WithSeed(*cfg.Seed))
	}

	if cfg.MetricsAddr != "" {
		reg := prom.NewRegistry()
		collector, err := prometheus.NewCollector(reg)
		if err != nil {
			return err
		}
		opts = append(opts, mrkmeans.WithMetricsCollector(collector))

		stopMetrics, err := serveMetrics(cfg.MetricsAddr, reg, logger)
		if err != nil {
			return err
		}
		defer stopMetrics()
	}

	d, err := mrkmeans.New(cfg.Config, store, opts...)
	if err != nil {
		return err
	}
	res, err := d.Run(ctx)
	if err != nil {
		return err
	}

	for _, c := range res.Centroids {
		fmt.Fprintln(stdout, model.FormatCentroid(c))
	}
	return nil
}

// serveMetrics exposes reg on addr until the returned function is called.
func serveMetrics(addr string, reg *prom.Registry, logger *mrkmeans.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", ln.Addr().String())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
