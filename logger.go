package mrkmeans

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with k-means specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000), // unreachable
	}))
}

// WithRunID adds a run_id field to the logger.
func (l *Logger) WithRunID(id string) *Logger {
	return &Logger{Logger: l.Logger.With("run_id", id)}
}

// WithIteration adds an iteration field to the logger.
func (l *Logger) WithIteration(iteration int) *Logger {
	return &Logger{Logger: l.Logger.With("iteration", iteration)}
}

// WithPartition adds a partition field to the logger.
func (l *Logger) WithPartition(partition int) *Logger {
	return &Logger{Logger: l.Logger.With("partition", partition)}
}

// LogState logs a driver state transition.
func (l *Logger) LogState(ctx context.Context, from, to State) {
	l.DebugContext(ctx, "state transition", "from", from.String(), "to", to.String())
}

// LogSeed logs the outcome of seeding.
func (l *Logger) LogSeed(ctx context.Context, k, d int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "seeding failed",
			"k", k,
			"dimension", d,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "seeding completed",
			"k", k,
			"dimension", d,
			"duration", duration,
		)
	}
}

// LogPublish logs the publication of a centroid set.
func (l *Logger) LogPublish(ctx context.Context, iteration, k int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "publishing centroids failed",
			"iteration", iteration,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "centroids published",
			"iteration", iteration,
			"k", k,
		)
	}
}

// LogRound logs the outcome of a round.
func (l *Logger) LogRound(ctx context.Context, iteration int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "round failed",
			"iteration", iteration,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "round completed",
			"iteration", iteration,
			"duration", duration,
		)
	}
}

// LogEvaluation logs a convergence evaluation.
func (l *Logger) LogEvaluation(ctx context.Context, iteration int, maxDisplacement float64, converged bool) {
	l.InfoContext(ctx, "centroids evaluated",
		"iteration", iteration,
		"max_displacement", maxDisplacement,
		"converged", converged,
	)
}

// LogTerminated logs a successful run.
func (l *Logger) LogTerminated(ctx context.Context, iterations int, converged bool, elapsed time.Duration) {
	l.InfoContext(ctx, "k-means terminated",
		"iterations", iterations,
		"converged", converged,
		"elapsed", elapsed,
	)
}

// LogFailed logs a failed run.
func (l *Logger) LogFailed(ctx context.Context, iteration int, err error) {
	var me *MalformedInputError
	if errors.As(err, &me) && me.Partition >= 0 {
		l = l.WithPartition(me.Partition)
	}
	l.ErrorContext(ctx, "k-means failed",
		"iteration", iteration,
		"error", err,
	)
}
