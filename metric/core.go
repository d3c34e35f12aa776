package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the platform-level metrics shared by every component.
type Metrics struct {
	// Fetch pipeline metrics
	FetchesTotal   *prometheus.CounterVec
	FetchDuration  *prometheus.HistogramVec
	CoalescedWaits *prometheus.CounterVec
	FetchesFailed  *prometheus.CounterVec
	FailuresMasked prometheus.Counter

	// Cache item metrics
	MergesTotal     *prometheus.CounterVec
	PromotionsTotal prometheus.Counter
	ItemsCached     *prometheus.GaugeVec
	EvictionsTotal  *prometheus.CounterVec

	// NATS metrics
	NATSConnected  prometheus.Gauge
	NATSReconnects prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all platform metrics
func NewMetrics() *Metrics {
	return &Metrics{
		FetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sportscache",
				Subsystem: "fetch",
				Name:      "total",
				Help:      "Total number of upstream fetches issued",
			},
			[]string{"type", "locale", "status"},
		),

		FetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "sportscache",
				Subsystem: "fetch",
				Name:      "duration_seconds",
				Help:      "Upstream fetch duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"type"},
		),

		CoalescedWaits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sportscache",
				Subsystem: "fetch",
				Name:      "coalesced_total",
				Help:      "Total number of callers that joined an in-flight fetch instead of issuing their own",
			},
			[]string{"type"},
		),

		FetchesFailed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sportscache",
				Subsystem: "fetch",
				Name:      "failed_total",
				Help:      "Total number of upstream fetches that ended in error",
			},
			[]string{"type", "locale"},
		),

		FailuresMasked: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "sportscache",
				Subsystem: "fetch",
				Name:      "masked_total",
				Help:      "Total number of fetch failures masked by the suppress policy",
			},
		),

		MergesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sportscache",
				Subsystem: "items",
				Name:      "merges_total",
				Help:      "Total number of locale merges applied to cache items",
			},
			[]string{"kind"},
		),

		PromotionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "sportscache",
				Subsystem: "items",
				Name:      "promotions_total",
				Help:      "Total number of competitor items promoted to team competitors",
			},
		),

		ItemsCached: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "sportscache",
				Subsystem: "items",
				Name:      "cached",
				Help:      "Current number of items held per kind",
			},
			[]string{"kind"},
		),

		EvictionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sportscache",
				Subsystem: "items",
				Name:      "evictions_total",
				Help:      "Total number of items evicted",
			},
			[]string{"kind", "reason"},
		),

		NATSConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "sportscache",
				Subsystem: "nats",
				Name:      "connected",
				Help:      "NATS connection status (0=disconnected, 1=connected)",
			},
		),

		NATSReconnects: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "sportscache",
				Subsystem: "nats",
				Name:      "reconnects_total",
				Help:      "Total number of NATS reconnections",
			},
		),
	}
}

// RecordFetch records the outcome of one upstream fetch.
func (c *Metrics) RecordFetch(entityType, locale, status string, duration time.Duration) {
	c.FetchesTotal.WithLabelValues(entityType, locale, status).Inc()
	c.FetchDuration.WithLabelValues(entityType).Observe(duration.Seconds())
}

// RecordCoalescedWait increments the joined-in-flight-fetch counter.
func (c *Metrics) RecordCoalescedWait(entityType string) {
	c.CoalescedWaits.WithLabelValues(entityType).Inc()
}

// RecordFetchFailure increments the failed fetch counter.
func (c *Metrics) RecordFetchFailure(entityType, locale string) {
	c.FetchesFailed.WithLabelValues(entityType, locale).Inc()
}

// RecordFailureMasked increments the suppressed-failure counter.
func (c *Metrics) RecordFailureMasked() {
	c.FailuresMasked.Inc()
}

// RecordMerge increments the merge counter for an item kind.
func (c *Metrics) RecordMerge(kind string) {
	c.MergesTotal.WithLabelValues(kind).Inc()
}

// RecordPromotion increments the competitor-to-team promotion counter.
func (c *Metrics) RecordPromotion() {
	c.PromotionsTotal.Inc()
}

// RecordItemCount updates the cached item gauge for a kind.
func (c *Metrics) RecordItemCount(kind string, count int) {
	c.ItemsCached.WithLabelValues(kind).Set(float64(count))
}

// RecordEviction increments the eviction counter.
func (c *Metrics) RecordEviction(kind, reason string) {
	c.EvictionsTotal.WithLabelValues(kind, reason).Inc()
}

// RecordNATSStatus updates NATS connection status
func (c *Metrics) RecordNATSStatus(connected bool) {
	value := 0.0
	if connected {
		value = 1.0
	}
	c.NATSConnected.Set(value)
}

// RecordNATSReconnect increments reconnection counter
func (c *Metrics) RecordNATSReconnect() {
	c.NATSReconnects.Inc()
}
