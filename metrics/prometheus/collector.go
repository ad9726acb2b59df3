// Package prometheus exports run metrics through Prometheus.
package prometheus

import (
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/mrkmeans"
)

var _ mrkmeans.MetricsCollector = (*Collector)(nil)

// Collector implements mrkmeans.MetricsCollector with Prometheus metrics.
type Collector struct {
	roundLatency     *prom.HistogramVec
	partitionLatency *prom.HistogramVec
	points           prom.Counter
	iteration        prom.Gauge
	displacement     prom.Gauge
	runs             *prom.CounterVec
}

// NewCollector creates the metrics and registers them with reg.
// A nil reg registers with prometheus.DefaultRegisterer.
func NewCollector(reg prom.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	c := &Collector{
		roundLatency: prom.NewHistogramVec(prom.HistogramOpts{
			Name:    "mrkmeans_round_duration_seconds",
			Help:    "Wall time of k-means rounds",
			Buckets: prom.DefBuckets,
		}, []string{"status"}),
		partitionLatency: prom.NewHistogramVec(prom.HistogramOpts{
			Name:    "mrkmeans_partition_duration_seconds",
			Help:    "Wall time of map tasks",
			Buckets: prom.DefBuckets,
		}, []string{"status"}),
		points: prom.NewCounter(prom.CounterOpts{
			Name: "mrkmeans_points_assigned_total",
			Help: "Points assigned to a centroid",
		}),
		iteration: prom.NewGauge(prom.GaugeOpts{
			Name: "mrkmeans_iteration",
			Help: "Last evaluated iteration",
		}),
		displacement: prom.NewGauge(prom.GaugeOpts{
			Name: "mrkmeans_max_displacement",
			Help: "Largest squared centroid displacement of the last iteration",
		}),
		runs: prom.NewCounterVec(prom.CounterOpts{
			Name: "mrkmeans_runs_total",
			Help: "Finished runs",
		}, []string{"status", "converged"}),
	}

	for _, m := range []prom.Collector{c.roundLatency, c.partitionLatency, c.points, c.iteration, c.displacement, c.runs} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordRound implements mrkmeans.MetricsCollector.
func (c *Collector) RecordRound(_ int, d time.Duration, err error) {
	c.roundLatency.WithLabelValues(status(err)).Observe(d.Seconds())
}

// RecordPartition implements mrkmeans.MetricsCollector.
func (c *Collector) RecordPartition(_, _ int, points int64, d time.Duration, err error) {
	c.partitionLatency.WithLabelValues(status(err)).Observe(d.Seconds())
	c.points.Add(float64(points))
}

// RecordEvaluation implements mrkmeans.MetricsCollector.
func (c *Collector) RecordEvaluation(iteration int, maxDisplacement float64, _ bool) {
	c.iteration.Set(float64(iteration))
	c.displacement.Set(maxDisplacement)
}

// RecordRun implements mrkmeans.MetricsCollector.
func (c *Collector) RecordRun(_ int, converged bool, _ time.Duration, err error) {
	c.runs.WithLabelValues(status(err), strconv.FormatBool(converged)).Inc()
}
