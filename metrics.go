package mrkmeans

import (
	"math"
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus
// (see package metrics/prometheus).
type MetricsCollector interface {
	// RecordRound is called after each round.
	// duration is the wall time of the round, err is nil if successful.
	RecordRound(iteration int, duration time.Duration, err error)

	// RecordPartition is called after each map task.
	// points is the number of points folded by the task.
	RecordPartition(iteration, partition int, points int64, duration time.Duration, err error)

	// RecordEvaluation is called after each convergence evaluation.
	RecordEvaluation(iteration int, maxDisplacement float64, converged bool)

	// RecordRun is called once when the driver reaches a final state.
	RecordRun(iterations int, converged bool, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordRound(int, time.Duration, error)                 {}
func (NoopMetricsCollector) RecordPartition(int, int, int64, time.Duration, error) {}
func (NoopMetricsCollector) RecordEvaluation(int, float64, bool)                   {}
func (NoopMetricsCollector) RecordRun(int, bool, time.Duration, error)             {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	RoundCount          atomic.Int64
	RoundErrors         atomic.Int64
	RoundTotalNanos     atomic.Int64
	PartitionCount      atomic.Int64
	PartitionErrors     atomic.Int64
	PartitionTotalNanos atomic.Int64
	PointsAssigned      atomic.Int64
	EvaluationCount     atomic.Int64

	// LastDisplacementBits holds math.Float64bits of the last max displacement.
	LastDisplacementBits atomic.Uint64
	RunCount             atomic.Int64
	RunErrors            atomic.Int64
	ConvergedRuns        atomic.Int64
}

// RecordRound implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRound(_ int, duration time.Duration, err error) {
	b.RoundCount.Add(1)
	b.RoundTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.RoundErrors.Add(1)
	}
}

// RecordPartition implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPartition(_, _ int, points int64, duration time.Duration, err error) {
	b.PartitionCount.Add(1)
	b.PartitionTotalNanos.Add(duration.Nanoseconds())
	b.PointsAssigned.Add(points)
	if err != nil {
		b.PartitionErrors.Add(1)
	}
}

// RecordEvaluation implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEvaluation(_ int, maxDisplacement float64, _ bool) {
	b.EvaluationCount.Add(1)
	b.LastDisplacementBits.Store(math.Float64bits(maxDisplacement))
}

// RecordRun implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRun(_ int, converged bool, _ time.Duration, err error) {
	b.RunCount.Add(1)
	if err != nil {
		b.RunErrors.Add(1)
	}
	if converged {
		b.ConvergedRuns.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		RoundCount:          b.RoundCount.Load(),
		RoundErrors:         b.RoundErrors.Load(),
		RoundAvgNanos:       avg(b.RoundTotalNanos.Load(), b.RoundCount.Load()),
		PartitionCount:      b.PartitionCount.Load(),
		PartitionErrors:     b.PartitionErrors.Load(),
		PartitionAvgNanos:   avg(b.PartitionTotalNanos.Load(), b.PartitionCount.Load()),
		PointsAssigned:      b.PointsAssigned.Load(),
		EvaluationCount:     b.EvaluationCount.Load(),
		LastMaxDisplacement: math.Float64frombits(b.LastDisplacementBits.Load()),
		RunCount:            b.RunCount.Load(),
		RunErrors:           b.RunErrors.Load(),
		ConvergedRuns:       b.ConvergedRuns.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of metrics from BasicMetricsCollector.
type BasicMetricsStats struct {
	RoundCount          int64
	RoundErrors         int64
	RoundAvgNanos       int64
	PartitionCount      int64
	PartitionErrors     int64
	PartitionAvgNanos   int64
	PointsAssigned      int64
	EvaluationCount     int64
	LastMaxDisplacement float64
	RunCount            int64
	RunErrors           int64
	ConvergedRuns       int64
}
