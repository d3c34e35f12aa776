package cache

import (
	"github.com/c360/sportscache/metric"
)

// Option configures store behavior using the functional options pattern.
type Option[V any] func(*storeOptions[V])

// storeOptions holds internal configuration for store instances.
// Stats are always collected; metrics are opt-in via WithMetrics.
type storeOptions[V any] struct {
	// metricsReg is optional - if provided, store stats are also exposed as Prometheus metrics
	metricsReg *metric.MetricsRegistry

	// metricsPrefix is used as the component label for Prometheus metrics
	metricsPrefix string

	// evictCallback is called when items are evicted from the store
	evictCallback EvictCallback[V]

	// evictionGuard is acquired around each key the sweeper evicts
	evictionGuard EvictionGuard
}

// WithMetrics enables Prometheus metrics export for store statistics.
// If registry is nil or prefix is empty, this option is ignored.
func WithMetrics[V any](registry *metric.MetricsRegistry, prefix string) Option[V] {
	return func(opts *storeOptions[V]) {
		if registry != nil && prefix != "" {
			opts.metricsReg = registry
			opts.metricsPrefix = prefix
		}
	}
}

// WithEvictionCallback sets a callback function that is called when items
// are evicted, receiving the key and value of the evicted entry.
func WithEvictionCallback[V any](callback EvictCallback[V]) Option[V] {
	return func(opts *storeOptions[V]) {
		opts.evictCallback = callback
	}
}

// WithEvictionGuard sets the per-key lock the sweeper acquires before
// evicting an entry. Callers that update stored values under their own
// per-key locks pass the same lock here so a sweep never races an update.
func WithEvictionGuard[V any](guard EvictionGuard) Option[V] {
	return func(opts *storeOptions[V]) {
		opts.evictionGuard = guard
	}
}

// applyOptions applies functional options to create final store configuration.
func applyOptions[V any](options ...Option[V]) *storeOptions[V] {
	opts := &storeOptions[V]{}

	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}

	return opts
}
