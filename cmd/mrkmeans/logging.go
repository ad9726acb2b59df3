package main

import (
	"io"
	"log/slog"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/hupe1980/mrkmeans"
)

// newLogger builds the run logger. Without a filename it writes to stderr;
// otherwise to a size-rotated file. The returned closer releases the file.
func newLogger(cfg logConfig, stderr io.Writer) (*mrkmeans.Logger, io.Closer, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, nil, &mrkmeans.InvalidArgumentError{Field: "log-level", Value: cfg.Level, Reason: err.Error()}
	}

	w := stderr
	var closer io.Closer = nopCloser{}
	if cfg.Filename != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxDays,
		}
		w, closer = lj, lj
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		h = slog.NewTextHandler(w, opts)
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		_ = closer.Close()
		return nil, nil, &mrkmeans.InvalidArgumentError{Field: "log-format", Value: cfg.Format, Reason: "expected text or json"}
	}
	return mrkmeans.NewLogger(h), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
