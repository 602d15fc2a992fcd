// Package metrics provides Prometheus metrics collection for DittoTree.
//
// All metrics are optional - if the registry is not initialized, components
// use no-op implementations with zero overhead. Embedding applications that
// already run an HTTP server can expose GetRegistry() with promhttp.
//
// Usage:
//
//	metrics.InitRegistry()
//	m := metrics.NewTreeMetrics("redis")
//	t := tree.New(store, tree.Config{Metrics: m})
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// registry is the global Prometheus registry for all DittoTree metrics.
	// Protected by registryOnce for write-once, read-many pattern.
	registry     *prometheus.Registry
	registryOnce sync.Once
)

// InitRegistry initializes the global Prometheus registry. Subsequent calls
// are ignored.
func InitRegistry() {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
	})
}

// GetRegistry returns the global registry, or nil when metrics are disabled.
func GetRegistry() *prometheus.Registry {
	return registry
}

// IsEnabled returns true if InitRegistry() has been called.
func IsEnabled() bool {
	return GetRegistry() != nil
}
