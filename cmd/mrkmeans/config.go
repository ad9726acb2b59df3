package main

import (
	"fmt"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/hupe1980/mrkmeans"
	"github.com/hupe1980/mrkmeans/blobstore"
)

// fileConfig is everything the CLI can configure. It is filled from the
// TOML file first; explicitly set flags and positional arguments win.
type fileConfig struct {
	mrkmeans.Config

	Storage storageConfig `toml:"storage"`
	Log     logConfig     `toml:"log"`

	Seed             *int64 `toml:"seed"`
	Parallelism      int64  `toml:"parallelism"`
	SplitSize        int64  `toml:"split_size"`
	IOLimit          int64  `toml:"io_limit"`
	CacheBytes       int64  `toml:"cache_bytes"`
	CacheBlockSize   int64  `toml:"cache_block_size"`
	KeepIntermediate bool   `toml:"keep_intermediate"`
	MetricsAddr      string `toml:"metrics_addr"`
}

type storageConfig struct {
	Backend   string `toml:"backend"`
	Root      string `toml:"root"`
	Bucket    string `toml:"bucket"`
	Prefix    string `toml:"prefix"`
	Region    string `toml:"region"`
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Secure    bool   `toml:"secure"`
}

type logConfig struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"`
	Filename   string `toml:"filename"`
	MaxSize    int    `toml:"max_size"`
	MaxBackups int    `toml:"max_backups"`
	MaxDays    int    `toml:"max_days"`
}

func defaultConfig() fileConfig {
	return fileConfig{
		Storage: storageConfig{
			Backend: "local",
			Root:    ".",
			Secure:  true,
		},
		Log: logConfig{
			Level:   "info",
			Format:  "text",
			MaxSize: 100,
		},
		CacheBlockSize: blobstore.DefaultCacheBlockSize,
	}
}

// loadConfig decodes the TOML file at path over the defaults.
func loadConfig(path string) (fileConfig, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("load config %s: unknown keys %v", path, undecoded)
	}
	return cfg, nil
}

// applyArgs sets the run parameters from the eight positional arguments
// k d n threshold max_iterations reducers input output.
func applyArgs(cfg *mrkmeans.Config, args []string) error {
	ints := []struct {
		name string
		dst  *int
		raw  string
	}{
		{"k", &cfg.K, args[0]},
		{"d", &cfg.D, args[1]},
		{"max_iterations", &cfg.MaxIterations, args[4]},
		{"reducers", &cfg.Reducers, args[5]},
	}
	for _, a := range ints {
		v, err := strconv.Atoi(a.raw)
		if err != nil {
			return &mrkmeans.InvalidArgumentError{Field: a.name, Value: a.raw, Reason: "not an integer"}
		}
		*a.dst = v
	}

	n, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil {
		return &mrkmeans.InvalidArgumentError{Field: "n", Value: args[2], Reason: "not an integer"}
	}
	cfg.N = n

	threshold, err := strconv.ParseFloat(args[3], 64)
	if err != nil {
		return &mrkmeans.InvalidArgumentError{Field: "threshold", Value: args[3], Reason: "not a number"}
	}
	cfg.Threshold = threshold

	cfg.Input = args[6]
	cfg.Output = args[7]
	return nil
}
