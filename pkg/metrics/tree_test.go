package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeMetricsRecordsOperations(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewTreeMetricsWithRegistry(reg, "memory").(*treeMetrics)

	m.RecordOperation("MoveNode", time.Millisecond, nil)
	m.RecordOperation("MoveNode", time.Millisecond, errors.New("boom"))
	m.RecordBackendOperation("batch", time.Microsecond, nil)
	m.ObserveSymlinkHops(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("memory", "MoveNode", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("memory", "MoveNode", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.backendOpsTotal.WithLabelValues("memory", "batch", "success")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "dittotree_resolve_symlink_hops")
}

func TestNoopTreeMetrics(t *testing.T) {
	m := NewNoopTreeMetrics()
	assert.NotPanics(t, func() {
		m.RecordOperation("CopyPath", time.Second, nil)
		m.RecordBackendOperation("hget", time.Second, nil)
		m.ObserveSymlinkHops(3)
	})
}

func TestNewTreeMetricsSharesGlobalCollectors(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		a := NewTreeMetrics("memory")
		b := NewTreeMetrics("redis")
		c := NewTreeMetrics("memory")

		a.RecordOperation("Init", time.Millisecond, nil)
		b.RecordOperation("Init", time.Millisecond, nil)
		c.ObserveSymlinkHops(1)
	})

	m := NewTreeMetrics("redis").(*treeMetrics)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("redis", "Init", "success")))
}
