package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// TreeMetrics provides observability for namespace operations and the
// backend round-trips they issue.
//
// This interface is optional - components given nil use the no-op
// implementation.
type TreeMetrics interface {
	// RecordOperation records a completed public operation (e.g. "MoveNode",
	// "DeleteNode") with its duration and outcome.
	RecordOperation(operation string, duration time.Duration, err error)

	// RecordBackendOperation records one backend round-trip: a single command
	// (e.g. "hget") or a pipelined "batch".
	RecordBackendOperation(operation string, duration time.Duration, err error)

	// ObserveSymlinkHops records how many symlink substitutions one path
	// resolution performed.
	ObserveSymlinkHops(hops int)
}

// treeCollectors are the Prometheus collectors shared by every store type
// registered on one registry.
type treeCollectors struct {
	operationsTotal    *prometheus.CounterVec
	operationDuration  *prometheus.HistogramVec
	backendOpsTotal    *prometheus.CounterVec
	backendOpsDuration *prometheus.HistogramVec
	symlinkHops        *prometheus.HistogramVec
}

// treeMetrics is the Prometheus implementation of TreeMetrics.
type treeMetrics struct {
	*treeCollectors
	storeType string
}

var (
	globalCollectors     *treeCollectors
	globalCollectorsOnce sync.Once
)

// NewTreeMetrics creates TreeMetrics registered on the global registry.
// Returns the no-op implementation when metrics are disabled.
//
// storeType labels every series so several trees over different backends
// can share one registry.
func NewTreeMetrics(storeType string) TreeMetrics {
	if !IsEnabled() {
		return NewNoopTreeMetrics()
	}
	globalCollectorsOnce.Do(func() {
		globalCollectors = newTreeCollectors(GetRegistry())
	})
	return &treeMetrics{treeCollectors: globalCollectors, storeType: storeType}
}

// NewTreeMetricsWithRegistry registers a fresh set of collectors on reg.
// Registering twice on the same registry panics, as with any promauto
// collector.
func NewTreeMetricsWithRegistry(reg prometheus.Registerer, storeType string) TreeMetrics {
	return &treeMetrics{treeCollectors: newTreeCollectors(reg), storeType: storeType}
}

func newTreeCollectors(reg prometheus.Registerer) *treeCollectors {
	return &treeCollectors{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittotree_operations_total",
				Help: "Total number of namespace operations by store type, operation, and status",
			},
			[]string{"store_type", "operation", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "dittotree_operation_duration_seconds",
				Help: "Duration of namespace operations in seconds",
				Buckets: []float64{
					0.0001, // 100µs
					0.0005, // 500µs
					0.001,  // 1ms
					0.005,  // 5ms
					0.01,   // 10ms
					0.025,  // 25ms
					0.05,   // 50ms
					0.1,    // 100ms
					0.25,   // 250ms
					0.5,    // 500ms
					1.0,    // 1s
				},
			},
			[]string{"store_type", "operation"},
		),
		backendOpsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittotree_backend_operations_total",
				Help: "Total number of backend round-trips (single commands and batches)",
			},
			[]string{"store_type", "operation", "status"},
		),
		backendOpsDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "dittotree_backend_operation_duration_seconds",
				Help: "Duration of backend round-trips in seconds",
				Buckets: []float64{
					0.0001, // 100µs
					0.0005, // 500µs
					0.001,  // 1ms
					0.005,  // 5ms
					0.01,   // 10ms
					0.025,  // 25ms
					0.05,   // 50ms
					0.1,    // 100ms
				},
			},
			[]string{"store_type", "operation"},
		),
		symlinkHops: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dittotree_resolve_symlink_hops",
				Help:    "Symlink substitutions performed per path resolution",
				Buckets: []float64{0, 1, 2, 4, 8, 16, 32, 64},
			},
			[]string{"store_type"},
		),
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (m *treeMetrics) RecordOperation(operation string, duration time.Duration, err error) {
	m.operationsTotal.WithLabelValues(m.storeType, operation, status(err)).Inc()
	m.operationDuration.WithLabelValues(m.storeType, operation).Observe(duration.Seconds())
}

func (m *treeMetrics) RecordBackendOperation(operation string, duration time.Duration, err error) {
	m.backendOpsTotal.WithLabelValues(m.storeType, operation, status(err)).Inc()
	m.backendOpsDuration.WithLabelValues(m.storeType, operation).Observe(duration.Seconds())
}

func (m *treeMetrics) ObserveSymlinkHops(hops int) {
	m.symlinkHops.WithLabelValues(m.storeType).Observe(float64(hops))
}

// noopTreeMetrics is a no-op implementation of TreeMetrics with zero overhead.
type noopTreeMetrics struct{}

// NewNoopTreeMetrics returns a collector that discards everything.
func NewNoopTreeMetrics() TreeMetrics {
	return noopTreeMetrics{}
}

func (noopTreeMetrics) RecordOperation(operation string, duration time.Duration, err error) {}
func (noopTreeMetrics) RecordBackendOperation(operation string, duration time.Duration, err error) {
}
func (noopTreeMetrics) ObserveSymlinkHops(hops int) {}
