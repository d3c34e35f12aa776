package cache

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/sportscache/metric"
)

// cacheMetrics holds Prometheus metrics for store operations.
type cacheMetrics struct {
	hits      prometheus.Counter
	misses    prometheus.Counter
	sets      prometheus.Counter
	deletes   prometheus.Counter
	evictions prometheus.Counter

	size prometheus.Gauge
}

// newCacheMetrics creates and registers store metrics with the provided registry.
func newCacheMetrics(registry *metric.MetricsRegistry, prefix string) (*cacheMetrics, error) {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "sportscache",
			Subsystem:   "store",
			Name:        name,
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        help,
		})
	}

	m := &cacheMetrics{
		hits:      counter("hits_total", "Total number of store hits"),
		misses:    counter("misses_total", "Total number of store misses"),
		sets:      counter("sets_total", "Total number of store set operations"),
		deletes:   counter("deletes_total", "Total number of store delete operations"),
		evictions: counter("evictions_total", "Total number of store evictions"),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "sportscache",
			Subsystem:   "store",
			Name:        "size",
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        "Current number of entries in store",
		}),
	}

	registrations := []struct {
		name      string
		collector prometheus.Counter
	}{
		{"store_hits", m.hits},
		{"store_misses", m.misses},
		{"store_sets", m.sets},
		{"store_deletes", m.deletes},
		{"store_evictions", m.evictions},
	}
	for _, reg := range registrations {
		if err := registry.RegisterCounter(prefix, reg.name, reg.collector); err != nil {
			return nil, err
		}
	}
	if err := registry.RegisterGauge(prefix, "store_size", m.size); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *cacheMetrics) recordHit() {
	m.hits.Inc()
}

func (m *cacheMetrics) recordMiss() {
	m.misses.Inc()
}

func (m *cacheMetrics) recordSet() {
	m.sets.Inc()
}

func (m *cacheMetrics) recordDelete() {
	m.deletes.Inc()
}

func (m *cacheMetrics) recordEviction() {
	m.evictions.Inc()
}

func (m *cacheMetrics) updateSize(size int) {
	m.size.Set(float64(size))
}
