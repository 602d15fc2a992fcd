package config

import (
	"github.com/marmos91/dittotree/pkg/metrics"
)

// InitializeMetrics creates the metrics collector described by configuration.
//
// If metrics are enabled the global Prometheus registry is initialized and a
// Prometheus-backed collector labelled with the backend type is returned.
// Otherwise a no-op collector is returned (zero overhead).
func InitializeMetrics(cfg *Config) metrics.TreeMetrics {
	if !cfg.Metrics.Enabled {
		return metrics.NewNoopTreeMetrics()
	}

	metrics.InitRegistry()
	return metrics.NewTreeMetrics(cfg.Backend.Type)
}
