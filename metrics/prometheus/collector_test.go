package prometheus

import (
	"errors"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	reg := prom.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)

	c.RecordPartition(1, 0, 7, time.Millisecond, nil)
	c.RecordPartition(1, 1, 3, time.Millisecond, errors.New("x"))
	c.RecordRound(1, time.Second, nil)
	c.RecordEvaluation(1, 0.5, false)
	c.RecordRun(1, true, time.Second, nil)

	assert.Equal(t, 10.0, testutil.ToFloat64(c.points))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.iteration))
	assert.Equal(t, 0.5, testutil.ToFloat64(c.displacement))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.runs.WithLabelValues("success", "true")))
	assert.Equal(t, 2, testutil.CollectAndCount(c.partitionLatency))
	assert.Equal(t, 1, testutil.CollectAndCount(c.roundLatency))
}

func TestNewCollector_DuplicateRegistration(t *testing.T) {
	reg := prom.NewRegistry()
	_, err := NewCollector(reg)
	require.NoError(t, err)

	_, err = NewCollector(reg)
	assert.Error(t, err)
}
