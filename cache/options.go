package cache

import (
	"log/slog"
	"time"

	"github.com/c360/sportscache/metric"
)

const (
	// DefaultTTL is the sliding retention window for regular profiles.
	DefaultTTL = 24 * time.Hour
	// DefaultSweepInterval is how often the store sweeps expired entries.
	DefaultSweepInterval = 10 * time.Minute
	// DefaultFetchTimeout bounds one upstream fetch. Fetches are detached
	// from caller cancellation, so this is the only limit on their runtime.
	DefaultFetchTimeout = 15 * time.Second
)

// Option configures a ProfileCache.
type Option func(*cacheOptions)

type cacheOptions struct {
	ttl           time.Duration
	sweepInterval time.Duration
	policy        FailurePolicy
	fetchTimeout  time.Duration
	logger        *slog.Logger
	registry      *metric.MetricsRegistry
	events        *EventPublisher
}

// WithTTL sets the sliding retention window for regular profiles. Synthetic
// simple teams are always pinned regardless of this value.
func WithTTL(ttl time.Duration) Option {
	return func(opts *cacheOptions) {
		if ttl > 0 {
			opts.ttl = ttl
		}
	}
}

// WithSweepInterval sets how often the expiry sweep runs.
func WithSweepInterval(interval time.Duration) Option {
	return func(opts *cacheOptions) {
		if interval > 0 {
			opts.sweepInterval = interval
		}
	}
}

// WithFetchTimeout bounds each upstream fetch. An outstanding fetch never
// inherits its caller's cancellation (coalesced callers may be waiting on
// it), so the timeout is what keeps a hung upstream from pinning a flight
// forever.
func WithFetchTimeout(timeout time.Duration) Option {
	return func(opts *cacheOptions) {
		if timeout > 0 {
			opts.fetchTimeout = timeout
		}
	}
}

// WithFailurePolicy sets how fetch failures during a fan-out propagate.
func WithFailurePolicy(policy FailurePolicy) Option {
	return func(opts *cacheOptions) {
		opts.policy = policy
	}
}

// WithLogger sets the structured logger; slog.Default is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *cacheOptions) {
		if logger != nil {
			opts.logger = logger
		}
	}
}

// WithMetrics wires the cache and its store into the metrics registry.
func WithMetrics(registry *metric.MetricsRegistry) Option {
	return func(opts *cacheOptions) {
		opts.registry = registry
	}
}

// WithEvents sets the publisher cache lifecycle events are emitted through.
func WithEvents(events *EventPublisher) Option {
	return func(opts *cacheOptions) {
		opts.events = events
	}
}

func applyOptions(options ...Option) *cacheOptions {
	opts := &cacheOptions{
		ttl:           DefaultTTL,
		sweepInterval: DefaultSweepInterval,
		policy:        FailureSurface,
		fetchTimeout:  DefaultFetchTimeout,
		logger:        slog.Default(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}
	return opts
}
