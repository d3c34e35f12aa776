package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/c360/sportscache/errors"
)

// slidingStore is a thread-safe store with sliding expiration. Every Get
// and Set pushes an entry's expiry forward by the configured TTL; pinned
// entries carry no expiry at all. A background sweeper removes entries
// whose idle window has fully elapsed.
type slidingStore[V any] struct {
	mu            sync.RWMutex
	ttl           time.Duration
	sweepInterval time.Duration
	items         map[string]*entry[V]
	stats         *Statistics      // always initialized
	metrics       *cacheMetrics    // optional, if metrics enabled
	evictFn       EvictCallback[V] // optional callback
	guard         EvictionGuard    // optional per-key lock around sweep evictions

	// Background sweeper coordination
	shutdown chan struct{}
	done     chan struct{}
}

// New creates a sliding-expiry store. A ttl of zero disables expiry
// entirely, turning every Set into a pinned write. Returns an error if
// metrics registration fails when requested.
func New[V any](ctx context.Context, ttl, sweepInterval time.Duration, options ...Option[V]) (Store[V], error) {
	opts := applyOptions(options...)

	var metrics *cacheMetrics
	if opts.metricsReg != nil && opts.metricsPrefix != "" {
		var err error
		metrics, err = newCacheMetrics(opts.metricsReg, opts.metricsPrefix)
		if err != nil {
			return nil, errors.WrapTransient(err, "cache", "New", "metrics registration")
		}
	}

	s := &slidingStore[V]{
		ttl:           ttl,
		sweepInterval: sweepInterval,
		items:         make(map[string]*entry[V]),
		stats:         NewStatistics(),
		metrics:       metrics,
		evictFn:       opts.evictCallback,
		guard:         opts.evictionGuard,
		shutdown:      make(chan struct{}),
		done:          make(chan struct{}),
	}

	if ttl > 0 && sweepInterval > 0 {
		go s.sweep(ctx)
	} else {
		close(s.done)
	}

	return s, nil
}

// Get retrieves a value by key and slides its expiry forward.
func (s *slidingStore[V]) Get(key string) (V, bool) {
	now := time.Now()

	s.mu.Lock()
	e, exists := s.items[key]
	if exists && !e.expired(now) {
		if !e.pinned() {
			e.expiresAt = now.Add(s.ttl)
		}
		value := e.value
		s.mu.Unlock()

		s.stats.Hit()
		if s.metrics != nil {
			s.metrics.recordHit()
		}
		return value, true
	}

	// Expired entries are left for the sweeper, which holds the eviction
	// guard; removing them here would bypass that coordination.
	s.mu.Unlock()

	var zero V
	s.stats.Miss()
	if s.metrics != nil {
		s.metrics.recordMiss()
	}
	return zero, false
}

// Peek retrieves a value without sliding its expiry. Peeks do not count
// toward hit/miss statistics.
func (s *slidingStore[V]) Peek(key string) (V, bool) {
	s.mu.RLock()
	e, exists := s.items[key]
	s.mu.RUnlock()

	if !exists || e.expired(time.Now()) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores a value with the store's sliding TTL.
func (s *slidingStore[V]) Set(key string, value V) (bool, error) {
	var expiresAt time.Time
	if s.ttl > 0 {
		expiresAt = time.Now().Add(s.ttl)
	}
	return s.put(key, value, expiresAt)
}

// SetPinned stores a value that never expires.
func (s *slidingStore[V]) SetPinned(key string, value V) (bool, error) {
	return s.put(key, value, time.Time{})
}

func (s *slidingStore[V]) put(key string, value V, expiresAt time.Time) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}

	s.mu.Lock()
	_, exists := s.items[key]
	s.items[key] = &entry[V]{
		key:       key,
		value:     value,
		expiresAt: expiresAt,
	}
	size := len(s.items)
	s.mu.Unlock()

	s.stats.Set()
	s.stats.UpdateSize(int64(size))
	if s.metrics != nil {
		s.metrics.recordSet()
		s.metrics.updateSize(size)
	}

	return !exists, nil
}

// Delete removes an entry by key.
func (s *slidingStore[V]) Delete(key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}

	s.mu.Lock()
	e, exists := s.items[key]
	if exists {
		delete(s.items, key)
		if s.evictFn != nil {
			defer s.evictFn(key, e.value, EvictRemoved)
		}
	}
	size := len(s.items)
	s.mu.Unlock()

	if exists {
		s.stats.Delete()
		s.stats.UpdateSize(int64(size))
		if s.metrics != nil {
			s.metrics.recordDelete()
			s.metrics.updateSize(size)
		}
	}

	return exists, nil
}

// Clear removes all entries from the store.
func (s *slidingStore[V]) Clear() error {
	s.mu.Lock()
	if s.evictFn != nil {
		for _, e := range s.items {
			s.evictFn(e.key, e.value, EvictCleared)
		}
	}
	s.items = make(map[string]*entry[V])
	s.mu.Unlock()

	s.stats.UpdateSize(0)
	if s.metrics != nil {
		s.metrics.updateSize(0)
	}

	return nil
}

// Size returns the current number of entries.
func (s *slidingStore[V]) Size() int {
	s.mu.RLock()
	size := len(s.items)
	s.mu.RUnlock()
	return size
}

// Keys returns all keys with unexpired entries.
func (s *slidingStore[V]) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.items))
	now := time.Now()
	for key, e := range s.items {
		if !e.expired(now) {
			keys = append(keys, key)
		}
	}
	return keys
}

// Stats returns the store's statistics.
func (s *slidingStore[V]) Stats() *Statistics {
	return s.stats
}

// Close shuts down the store and stops the background sweeper.
func (s *slidingStore[V]) Close() error {
	select {
	case <-s.shutdown:
		// Already shutting down
	default:
		close(s.shutdown)
	}

	select {
	case <-s.done:
		return nil
	case <-time.After(5 * time.Second):
		return fmt.Errorf("timeout waiting for sweeper to finish")
	}
}

// sweep runs in a background goroutine and periodically removes entries
// whose idle window has elapsed.
func (s *slidingStore[V]) sweep(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.shutdown:
			return
		case <-ticker.C:
			s.removeExpired()
		}
	}
}

// removeExpired removes every expired entry, acquiring the eviction guard
// per key when configured. The expiry is re-checked under the guard: a
// concurrent touch between the scan and the guard acquisition keeps the
// entry alive.
func (s *slidingStore[V]) removeExpired() {
	now := time.Now()

	s.mu.RLock()
	var candidates []string
	for key, e := range s.items {
		if e.expired(now) {
			candidates = append(candidates, key)
		}
	}
	s.mu.RUnlock()

	var evicted []*entry[V]
	for _, key := range candidates {
		var unlock func()
		if s.guard != nil {
			unlock = s.guard(key)
		}

		s.mu.Lock()
		if e, exists := s.items[key]; exists && e.expired(time.Now()) {
			delete(s.items, key)
			evicted = append(evicted, e)
		}
		size := len(s.items)
		s.mu.Unlock()

		if unlock != nil {
			unlock()
		}

		s.stats.UpdateSize(int64(size))
		if s.metrics != nil {
			s.metrics.updateSize(size)
		}
	}

	// Eviction callbacks run outside every lock.
	for _, e := range evicted {
		if s.evictFn != nil {
			s.evictFn(e.key, e.value, EvictExpired)
		}
		s.stats.Eviction()
		if s.metrics != nil {
			s.metrics.recordEviction()
		}
	}
}
