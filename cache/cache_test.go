package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/sportscache/errors"
	"github.com/c360/sportscache/feed"
	"github.com/c360/sportscache/metric"
	"github.com/c360/sportscache/profile"
	"github.com/c360/sportscache/urn"
)

// fakeFetcher is a scriptable feed.Fetcher tracking per-(entity, locale)
// call counts.
type fakeFetcher struct {
	mu    sync.Mutex
	calls map[string]int
	delay time.Duration

	fetch      func(id urn.URN, locale string) (*feed.ProfileDTO, error)
	fetchCtx   func(ctx context.Context, id urn.URN, locale string) (*feed.ProfileDTO, error)
	categories func(sport urn.URN, locale string) ([]feed.CategoryDTO, error)
}

func newFakeFetcher() *fakeFetcher {
	f := &fakeFetcher{calls: map[string]int{}}
	f.fetch = func(id urn.URN, locale string) (*feed.ProfileDTO, error) {
		return competitorEnvelope(id, id.Type+" ("+locale+")"), nil
	}
	return f
}

func (f *fakeFetcher) Fetch(ctx context.Context, id urn.URN, locale string) (*feed.ProfileDTO, error) {
	f.mu.Lock()
	f.calls[id.String()+"|"+locale]++
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.fetchCtx != nil {
		return f.fetchCtx(ctx, id, locale)
	}
	return f.fetch(id, locale)
}

func (f *fakeFetcher) FetchCategories(_ context.Context, sport urn.URN, locale string) ([]feed.CategoryDTO, error) {
	f.mu.Lock()
	f.calls["categories:"+sport.String()+"|"+locale]++
	f.mu.Unlock()

	if f.categories == nil {
		return nil, nil
	}
	return f.categories(sport, locale)
}

func (f *fakeFetcher) callCount(id urn.URN, locale string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id.String()+"|"+locale]
}

func competitorEnvelope(id urn.URN, name string) *feed.ProfileDTO {
	return &feed.ProfileDTO{
		Kind:       feed.KindCompetitor,
		Competitor: &feed.CompetitorDTO{ID: id, Name: name},
	}
}

func playerEnvelope(id urn.URN, name string) *feed.ProfileDTO {
	return &feed.ProfileDTO{
		Kind:   feed.KindPlayer,
		Player: &feed.PlayerDTO{ID: id, Name: name},
	}
}

func newTestCache(t *testing.T, fetcher feed.Fetcher, options ...Option) *ProfileCache {
	t.Helper()
	c, err := New(context.Background(), fetcher, options...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNew_RequiresFetcher(t *testing.T) {
	_, err := New(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestEnsureLocales_FetchesMissing(t *testing.T) {
	fetcher := newFakeFetcher()
	c := newTestCache(t, fetcher)

	id := urn.MustParse("sr:competitor:44")
	item, err := c.EnsureLocales(context.Background(), id, []string{"en"})
	require.NoError(t, err)

	assert.Equal(t, []string{"en"}, item.LoadedLocales())
	assert.Equal(t, 1, fetcher.callCount(id, "en"))

	// Fast path: nothing missing, no further fetch.
	again, err := c.EnsureLocales(context.Background(), id, []string{"en"})
	require.NoError(t, err)
	assert.Same(t, item, again)
	assert.Equal(t, 1, fetcher.callCount(id, "en"))
}

func TestEnsureLocales_MonotonicGrowth(t *testing.T) {
	fetcher := newFakeFetcher()
	c := newTestCache(t, fetcher)

	id := urn.MustParse("sr:competitor:44")
	_, err := c.EnsureLocales(context.Background(), id, []string{"en"})
	require.NoError(t, err)

	item, err := c.EnsureLocales(context.Background(), id, []string{"en", "es", "de"})
	require.NoError(t, err)

	assert.Equal(t, []string{"de", "en", "es"}, item.LoadedLocales())
	assert.Equal(t, 1, fetcher.callCount(id, "en"), "already-loaded locale is never refetched")
	assert.Equal(t, 1, fetcher.callCount(id, "es"))
	assert.Equal(t, 1, fetcher.callCount(id, "de"))
}

func TestEnsureLocales_ConcurrentCallersCoalesce(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.delay = 30 * time.Millisecond
	c := newTestCache(t, fetcher)

	id := urn.MustParse("sr:competitor:44")

	const callers = 32
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			item, err := c.EnsureLocales(context.Background(), id, []string{"en"})
			assert.NoError(t, err)
			assert.True(t, item.HasLocale("en"))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, fetcher.callCount(id, "en"),
		"exactly one fetch per (entity, locale) under concurrency")
}

func TestEnsureLocales_ConcurrentLocaleScenario(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.fetch = func(id urn.URN, locale string) (*feed.ProfileDTO, error) {
		names := map[string]string{"en": "Real Madrid", "es": "Real Madrid CF"}
		return competitorEnvelope(id, names[locale]), nil
	}
	c := newTestCache(t, fetcher)

	id := urn.MustParse("sr:competitor:44")

	var wg sync.WaitGroup
	for _, locale := range []string{"en", "es"} {
		wg.Add(1)
		go func(locale string) {
			defer wg.Done()
			_, err := c.EnsureLocales(context.Background(), id, []string{locale})
			assert.NoError(t, err)
		}(locale)
	}
	wg.Wait()

	item, err := c.GetCompetitor(context.Background(), id, []string{"en", "es"})
	require.NoError(t, err)

	en, _ := item.Name("en")
	es, _ := item.Name("es")
	assert.Equal(t, "Real Madrid", en)
	assert.Equal(t, "Real Madrid CF", es)
	assert.Equal(t, []string{"en", "es"}, item.LoadedLocales())
}

func TestEnsureLocales_SurfacePolicy(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.fetch = func(id urn.URN, locale string) (*feed.ProfileDTO, error) {
		if locale == "fr" {
			return nil, fmt.Errorf("connection reset")
		}
		return competitorEnvelope(id, "Real Madrid"), nil
	}
	c := newTestCache(t, fetcher, WithFailurePolicy(FailureSurface))

	id := urn.MustParse("sr:competitor:44")
	_, err := c.EnsureLocales(context.Background(), id, []string{"en", "fr"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUpstream)

	// The sibling locale's merge survived the aborted call.
	item, err := c.EnsureLocales(context.Background(), id, []string{"en"})
	require.NoError(t, err)
	assert.True(t, item.HasLocale("en"))
	assert.False(t, item.HasLocale("fr"))
}

func TestEnsureLocales_SuppressThenRetry(t *testing.T) {
	var failFR atomic.Bool
	failFR.Store(true)

	fetcher := newFakeFetcher()
	fetcher.fetch = func(id urn.URN, locale string) (*feed.ProfileDTO, error) {
		if locale == "fr" && failFR.Load() {
			return nil, fmt.Errorf("network error")
		}
		return competitorEnvelope(id, "Real Madrid"), nil
	}
	c := newTestCache(t, fetcher, WithFailurePolicy(FailureSuppress))

	id := urn.MustParse("sr:competitor:44")
	item, err := c.EnsureLocales(context.Background(), id, []string{"en", "fr"})
	require.NoError(t, err, "suppress mode never raises on fetch failure")
	assert.True(t, item.HasLocale("en"))
	assert.False(t, item.HasLocale("fr"), "failed locale remains missing")

	// The upstream recovers; a retry for fr alone adds it.
	failFR.Store(false)
	item, err = c.EnsureLocales(context.Background(), id, []string{"fr"})
	require.NoError(t, err)
	assert.True(t, item.HasLocale("fr"))
	assert.Equal(t, []string{"en", "fr"}, item.LoadedLocales())
}

func TestEnsureLocales_NotFound(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.fetch = func(urn.URN, string) (*feed.ProfileDTO, error) {
		return nil, fmt.Errorf("no such entity")
	}
	c := newTestCache(t, fetcher, WithFailurePolicy(FailureSuppress))

	_, err := c.EnsureLocales(context.Background(), urn.MustParse("sr:competitor:404"), []string{"en"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrProfileNotFound)
}

func TestEnsureLocales_EmptyLocales(t *testing.T) {
	c := newTestCache(t, newFakeFetcher())

	_, err := c.EnsureLocales(context.Background(), urn.MustParse("sr:competitor:1"), nil)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestEnsureLocales_AfterClose(t *testing.T) {
	c := newTestCache(t, newFakeFetcher())
	require.NoError(t, c.Close())

	_, err := c.EnsureLocales(context.Background(), urn.MustParse("sr:competitor:1"), []string{"en"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrCacheClosed)
}

func TestEnsureLocales_FetchDetachedFromCallerCancellation(t *testing.T) {
	fetcher := newFakeFetcher()
	var sawDeadline atomic.Bool
	fetcher.fetchCtx = func(ctx context.Context, id urn.URN, locale string) (*feed.ProfileDTO, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		_, hasDeadline := ctx.Deadline()
		sawDeadline.Store(hasDeadline)
		return competitorEnvelope(id, "Real Madrid"), nil
	}
	c := newTestCache(t, fetcher, WithFetchTimeout(time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	id := urn.MustParse("sr:competitor:44")
	item, err := c.EnsureLocales(ctx, id, []string{"en"})
	require.NoError(t, err, "an owned fetch runs to completion regardless of the caller")
	assert.True(t, item.HasLocale("en"))
	assert.True(t, sawDeadline.Load(), "the fetch is bounded by the fetch timeout instead")
}

func TestRemove_RecordsRemovalReason(t *testing.T) {
	registry := metric.NewMetricsRegistry()
	fetcher := newFakeFetcher()
	c := newTestCache(t, fetcher, WithMetrics(registry))

	id := urn.MustParse("sr:competitor:44")
	_, err := c.EnsureLocales(context.Background(), id, []string{"en"})
	require.NoError(t, err)

	c.Remove(id)

	families, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	var reasons []string
	for _, mf := range families {
		if mf.GetName() != "sportscache_items_evictions_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "reason" {
					reasons = append(reasons, label.GetValue())
				}
			}
		}
	}
	assert.Equal(t, []string{"removed"}, reasons,
		"an explicit removal is not reported as an expiry")
}

func TestGetPlayer(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.fetch = func(id urn.URN, locale string) (*feed.ProfileDTO, error) {
		return playerEnvelope(id, "Cristiano Ronaldo"), nil
	}
	c := newTestCache(t, fetcher)

	id := urn.MustParse("sr:player:101")
	player, err := c.GetPlayer(context.Background(), id, []string{"en"})
	require.NoError(t, err)

	name, ok := player.Name("en")
	assert.True(t, ok)
	assert.Equal(t, "Cristiano Ronaldo", name)

	// The same key read through the competitor API is a kind mismatch.
	_, err = c.GetCompetitor(context.Background(), id, []string{"en"})
	require.Error(t, err)
}

func TestGetCompetitor_TeamShapedItem(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.fetch = func(id urn.URN, locale string) (*feed.ProfileDTO, error) {
		return &feed.ProfileDTO{
			Kind: feed.KindTeamCompetitor,
			TeamCompetitor: &feed.TeamCompetitorDTO{
				CompetitorDTO: feed.CompetitorDTO{ID: id, Name: "Real Madrid"},
				Qualifier:     "home",
			},
		}, nil
	}
	c := newTestCache(t, fetcher)

	id := urn.MustParse("sr:competitor:44")
	item, err := c.GetCompetitor(context.Background(), id, []string{"en"})
	require.NoError(t, err)

	name, ok := item.Name("en")
	assert.True(t, ok)
	assert.Equal(t, "Real Madrid", name)
}

func TestLocalizedName(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.fetch = func(id urn.URN, locale string) (*feed.ProfileDTO, error) {
		return competitorEnvelope(id, "Real Madrid"), nil
	}
	c := newTestCache(t, fetcher)

	name, err := c.LocalizedName(context.Background(), urn.MustParse("sr:competitor:44"), "en")
	require.NoError(t, err)
	assert.Equal(t, "Real Madrid", name)
}

func TestSimpleTeam_SynthesizedReferenceAndPinning(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.fetch = func(id urn.URN, locale string) (*feed.ProfileDTO, error) {
		return &feed.ProfileDTO{
			Kind: feed.KindSimpleTeamProfile,
			SimpleTeamProfile: &feed.SimpleTeamProfileDTO{
				Competitor: feed.CompetitorDTO{ID: id, Name: "Pickup Eleven"},
			},
		}, nil
	}
	// Aggressive expiry: regular items would be swept almost immediately.
	c := newTestCache(t, fetcher,
		WithTTL(20*time.Millisecond), WithSweepInterval(10*time.Millisecond))

	id := urn.MustParse("sr:simple_team:9999")
	item, err := c.GetCompetitor(context.Background(), id, []string{"en"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"internal": "9999"}, item.ReferenceIDs())

	time.Sleep(80 * time.Millisecond)
	assert.True(t, c.Exists(id), "synthetic entities are pinned and never expire")
}

func TestAdministrativeAPI(t *testing.T) {
	fetcher := newFakeFetcher()
	c := newTestCache(t, fetcher)

	competitor := urn.MustParse("sr:competitor:44")
	player := urn.MustParse("sr:player:101")

	_, err := c.EnsureLocales(context.Background(), competitor, []string{"en"})
	require.NoError(t, err)
	fetcher.fetch = func(id urn.URN, locale string) (*feed.ProfileDTO, error) {
		return playerEnvelope(id, "Player"), nil
	}
	_, err = c.EnsureLocales(context.Background(), player, []string{"en"})
	require.NoError(t, err)

	assert.True(t, c.Exists(competitor))
	assert.False(t, c.Exists(urn.MustParse("sr:competitor:999")))

	snapshot := c.HealthSnapshot()
	assert.Equal(t, 2, snapshot.TotalItems)
	assert.Equal(t, 1, snapshot.ByKind[profile.KindCompetitor])
	assert.Equal(t, 1, snapshot.ByKind[profile.KindPlayer])

	c.Remove(competitor)
	assert.False(t, c.Exists(competitor))
	assert.Equal(t, 1, c.HealthSnapshot().TotalItems)
}

func TestMergeIdempotent_ThroughEnsure(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.fetch = func(id urn.URN, locale string) (*feed.ProfileDTO, error) {
		return competitorEnvelope(id, "Real Madrid"), nil
	}
	c := newTestCache(t, fetcher)

	id := urn.MustParse("sr:competitor:44")
	first, err := c.EnsureLocales(context.Background(), id, []string{"en"})
	require.NoError(t, err)

	// Force a second merge of the identical object through the router.
	saved := c.Router().Save(context.Background(), id,
		&feed.CompetitorDTO{ID: id, Name: "Real Madrid"}, "en", feed.KindCompetitor)
	assert.True(t, saved)

	second, err := c.EnsureLocales(context.Background(), id, []string{"en"})
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, []string{"en"}, second.LoadedLocales())
}
