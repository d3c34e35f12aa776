package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/sportscache/errors"
	"github.com/c360/sportscache/metric"
)

func newTestStore(t *testing.T, ttl, sweep time.Duration, opts ...Option[string]) Store[string] {
	t.Helper()
	s, err := New[string](context.Background(), ttl, sweep, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_SetGet(t *testing.T) {
	s := newTestStore(t, time.Minute, time.Minute)

	created, err := s.Set("a", "one")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.Set("a", "two")
	require.NoError(t, err)
	assert.False(t, created, "overwrite is not a new entry")

	v, ok := s.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "two", v)

	_, ok = s.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, int64(1), s.Stats().Hits())
	assert.Equal(t, int64(1), s.Stats().Misses())
	assert.Equal(t, int64(2), s.Stats().Sets())
}

func TestStore_EmptyKeyRejected(t *testing.T) {
	s := newTestStore(t, time.Minute, time.Minute)

	_, err := s.Set("", "v")
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))

	_, err = s.Delete("")
	require.Error(t, err)
}

func TestStore_SlidingExpiry(t *testing.T) {
	s := newTestStore(t, 50*time.Millisecond, time.Hour)

	_, err := s.Set("a", "one")
	require.NoError(t, err)

	// Keep touching inside the window; the entry must survive well past
	// the original TTL.
	for i := 0; i < 5; i++ {
		time.Sleep(20 * time.Millisecond)
		_, ok := s.Get("a")
		require.True(t, ok, "touched entry expired at iteration %d", i)
	}

	// Now let the idle window elapse.
	time.Sleep(80 * time.Millisecond)
	_, ok := s.Get("a")
	assert.False(t, ok, "idle entry must expire")
}

func TestStore_PinnedNeverExpires(t *testing.T) {
	s := newTestStore(t, 30*time.Millisecond, 10*time.Millisecond)

	_, err := s.SetPinned("pinned", "forever")
	require.NoError(t, err)
	_, err = s.Set("sliding", "gone")
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)

	v, ok := s.Peek("pinned")
	assert.True(t, ok)
	assert.Equal(t, "forever", v)

	_, ok = s.Peek("sliding")
	assert.False(t, ok)
}

func TestStore_ZeroTTLPinsEverything(t *testing.T) {
	s := newTestStore(t, 0, 0)

	_, err := s.Set("a", "one")
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	_, ok := s.Get("a")
	assert.True(t, ok)
}

func TestStore_PeekDoesNotSlide(t *testing.T) {
	s := newTestStore(t, 60*time.Millisecond, time.Hour)

	_, err := s.Set("a", "one")
	require.NoError(t, err)

	// Peeks inside the window must not keep the entry alive.
	for i := 0; i < 4; i++ {
		time.Sleep(25 * time.Millisecond)
		s.Peek("a")
	}

	_, ok := s.Peek("a")
	assert.False(t, ok, "peeked-only entry must still expire")
}

func TestStore_SweepInvokesCallbackAndGuard(t *testing.T) {
	var mu sync.Mutex
	var evictedKeys []string
	var reasons []EvictReason
	var guardedKeys []string

	guard := func(key string) func() {
		mu.Lock()
		guardedKeys = append(guardedKeys, key)
		mu.Unlock()
		return func() {}
	}
	callback := func(key string, _ string, reason EvictReason) {
		mu.Lock()
		evictedKeys = append(evictedKeys, key)
		reasons = append(reasons, reason)
		mu.Unlock()
	}

	s := newTestStore(t, 20*time.Millisecond, 10*time.Millisecond,
		WithEvictionCallback[string](callback),
		WithEvictionGuard[string](guard),
	)

	_, err := s.Set("a", "one")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(evictedKeys) == 1 && len(guardedKeys) >= 1
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a"}, evictedKeys)
	assert.Equal(t, []EvictReason{EvictExpired}, reasons)
	assert.Contains(t, guardedKeys, "a")
	assert.Equal(t, int64(1), s.Stats().Evictions())
}

func TestStore_DeleteInvokesCallback(t *testing.T) {
	var evicted []string
	var reasons []EvictReason
	s := newTestStore(t, time.Minute, time.Minute,
		WithEvictionCallback[string](func(key string, _ string, reason EvictReason) {
			evicted = append(evicted, key)
			reasons = append(reasons, reason)
		}),
	)

	_, err := s.Set("a", "one")
	require.NoError(t, err)

	existed, err := s.Delete("a")
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, []string{"a"}, evicted)
	assert.Equal(t, []EvictReason{EvictRemoved}, reasons,
		"an explicit delete is not reported as an expiry")

	existed, err = s.Delete("a")
	require.NoError(t, err)
	assert.False(t, existed)

	_, err = s.Set("b", "two")
	require.NoError(t, err)
	require.NoError(t, s.Clear())
	assert.Equal(t, []EvictReason{EvictRemoved, EvictCleared}, reasons)
}

func TestStore_KeysSkipsExpired(t *testing.T) {
	s := newTestStore(t, 30*time.Millisecond, time.Hour)

	_, err := s.Set("stale", "x")
	require.NoError(t, err)
	_, err = s.SetPinned("fresh", "y")
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)

	keys := s.Keys()
	assert.Equal(t, []string{"fresh"}, keys)
	// Expired-but-unswept entries still count toward Size.
	assert.Equal(t, 2, s.Size())
}

func TestStore_Clear(t *testing.T) {
	s := newTestStore(t, time.Minute, time.Minute)

	_, err := s.Set("a", "one")
	require.NoError(t, err)
	_, err = s.SetPinned("b", "two")
	require.NoError(t, err)

	require.NoError(t, s.Clear())
	assert.Equal(t, 0, s.Size())
	assert.Equal(t, int64(0), s.Stats().CurrentSize())
}

func TestStore_CloseIdempotent(t *testing.T) {
	s, err := New[string](context.Background(), time.Minute, time.Minute)
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}

func TestStore_WithMetrics(t *testing.T) {
	registry := metric.NewMetricsRegistry()
	s, err := New[string](context.Background(), time.Minute, time.Minute,
		WithMetrics[string](registry, "profiles"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	_, err = s.Set("a", "one")
	require.NoError(t, err)
	s.Get("a")
	s.Get("missing")

	families, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	found := map[string]bool{}
	for _, mf := range families {
		found[mf.GetName()] = true
	}
	assert.True(t, found["sportscache_store_hits_total"])
	assert.True(t, found["sportscache_store_size"])

	// A second store with the same prefix collides on registration.
	_, err = New[string](context.Background(), time.Minute, time.Minute,
		WithMetrics[string](registry, "profiles"))
	require.Error(t, err)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := newTestStore(t, time.Minute, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := string(rune('a' + n))
			for j := 0; j < 100; j++ {
				_, err := s.Set(key, "v")
				assert.NoError(t, err)
				s.Get(key)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 8, s.Size())
}
