package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/c360/sportscache/errors"
	"github.com/c360/sportscache/feed"
	"github.com/c360/sportscache/metric"
	store "github.com/c360/sportscache/pkg/cache"
	"github.com/c360/sportscache/profile"
	"github.com/c360/sportscache/urn"
)

// ProfileCache is the locale-aware, fetch-coalescing cache over profile
// items. It is an explicit object with construct/Close lifecycle; tests
// instantiate independent caches.
type ProfileCache struct {
	fetcher      feed.Fetcher
	items        store.Store[profile.Profile]
	locks        *lockTable
	router       *Router
	policy       FailurePolicy
	fetchTimeout time.Duration
	logger       *slog.Logger
	metrics      *metric.Metrics
	events       *EventPublisher

	// decideMu serializes the check-missing-and-decide step and flight
	// table bookkeeping. It is never held across a fetch.
	decideMu sync.Mutex
	flights  map[flightKey]*flight

	closed atomic.Bool
}

// Snapshot is the administrative view of the cache contents.
type Snapshot struct {
	TotalItems int            `json:"total_items"`
	ByKind     map[string]int `json:"by_kind"`
}

// New creates a ProfileCache fetching through the given fetcher. The store's
// sweeper runs until ctx is cancelled or Close is called.
func New(ctx context.Context, fetcher feed.Fetcher, options ...Option) (*ProfileCache, error) {
	if fetcher == nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("nil fetcher"), "ProfileCache", "New", "fetcher is required")
	}

	opts := applyOptions(options...)

	c := &ProfileCache{
		fetcher:      fetcher,
		locks:        newLockTable(),
		policy:       opts.policy,
		fetchTimeout: opts.fetchTimeout,
		logger:       opts.logger.With("component", "cache"),
		events:       opts.events,
		flights:      make(map[flightKey]*flight),
	}
	if opts.registry != nil {
		c.metrics = opts.registry.CoreMetrics()
	}

	storeOpts := []store.Option[profile.Profile]{
		store.WithEvictionGuard[profile.Profile](c.locks.acquire),
		store.WithEvictionCallback[profile.Profile](c.onEvicted),
	}
	if opts.registry != nil {
		storeOpts = append(storeOpts, store.WithMetrics[profile.Profile](opts.registry, "profiles"))
	}

	items, err := store.New[profile.Profile](ctx, opts.ttl, opts.sweepInterval, storeOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "ProfileCache", "New", "create store")
	}
	c.items = items
	c.router = newRouter(items, c.locks, c.logger, c.metrics, c.events)

	return c, nil
}

// Router returns the dispatch router, for wiring ingestion pipelines that
// own their own deserialization.
func (c *ProfileCache) Router() *Router {
	return c.router
}

// EnsureLocales returns the cache item for id with at least the requested
// locales merged, fetching the missing ones. At most one fetch is
// outstanding per (entity, locale) pair under concurrent callers. Under the
// surface policy the first fetch failure is returned once all outstanding
// fetches drain; under suppress the best-effort merged item is returned and
// failed locales simply stay missing.
func (c *ProfileCache) EnsureLocales(ctx context.Context, id urn.URN, locales []string) (profile.Profile, error) {
	if c.closed.Load() {
		return nil, errors.WrapInvalid(errors.ErrCacheClosed, "ProfileCache", "EnsureLocales", "cache closed")
	}
	if len(locales) == 0 {
		return nil, errors.WrapInvalid(
			fmt.Errorf("no locales requested"), "ProfileCache", "EnsureLocales", "empty locale set")
	}
	key := id.String()

	// Check-and-decide under the store lock: compute missing locales and
	// claim or join flights. Fetching happens outside this lock.
	c.decideMu.Lock()
	item, ok := c.items.Get(key)
	missing := locales
	if ok {
		missing = missingLocales(item, locales)
		if len(missing) == 0 {
			c.decideMu.Unlock()
			return item, nil
		}
	}

	var owned []*flight
	var joined []*flight
	for _, locale := range missing {
		fk := flightKey{key: key, locale: locale}
		if fl, inFlight := c.flights[fk]; inFlight {
			joined = append(joined, fl)
			if c.metrics != nil {
				c.metrics.RecordCoalescedWait(id.Type)
			}
			continue
		}
		fl := newFlight(locale)
		c.flights[fk] = fl
		owned = append(owned, fl)
	}
	c.decideMu.Unlock()

	// Fan-out: one fetch per owned flight, a wait per joined flight. All
	// run to completion; the group reports the first error afterwards.
	g := new(errgroup.Group)
	for _, fl := range owned {
		g.Go(func() error {
			err := c.fetchAndMerge(ctx, id, fl.locale)
			c.finishFlight(key, fl, err)
			return c.applyPolicy(id, fl.locale, err)
		})
	}
	for _, fl := range joined {
		g.Go(func() error {
			select {
			case <-fl.done:
				return c.applyPolicy(id, fl.locale, fl.err)
			case <-ctx.Done():
				return errors.WrapTransient(ctx.Err(), "ProfileCache", "EnsureLocales", "wait for in-flight fetch")
			}
		})
	}
	fanErr := g.Wait()

	// Re-read: the router mutated the item in place or inserted it.
	c.decideMu.Lock()
	item, ok = c.items.Get(key)
	c.decideMu.Unlock()

	if fanErr != nil {
		return nil, fanErr
	}
	if !ok {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %s", errors.ErrProfileNotFound, id),
			"ProfileCache", "EnsureLocales", "entity absent after fetch attempts")
	}
	return item, nil
}

// GetCompetitor returns the competitor item for id with the requested
// locales merged. A team-shaped item satisfies the call through its
// embedded competitor state.
func (c *ProfileCache) GetCompetitor(ctx context.Context, id urn.URN, locales []string) (*profile.CompetitorProfile, error) {
	item, err := c.EnsureLocales(ctx, id, locales)
	if err != nil {
		return nil, err
	}
	switch v := item.(type) {
	case *profile.CompetitorProfile:
		return v, nil
	case *profile.TeamCompetitorProfile:
		return &v.CompetitorProfile, nil
	default:
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %s holds a %s item", errors.ErrProfileNotFound, id, item.Kind()),
			"ProfileCache", "GetCompetitor", "kind mismatch")
	}
}

// GetPlayer returns the player item for id with the requested locales merged.
func (c *ProfileCache) GetPlayer(ctx context.Context, id urn.URN, locales []string) (*profile.PlayerProfile, error) {
	item, err := c.EnsureLocales(ctx, id, locales)
	if err != nil {
		return nil, err
	}
	player, ok := item.(*profile.PlayerProfile)
	if !ok {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %s holds a %s item", errors.ErrProfileNotFound, id, item.Kind()),
			"ProfileCache", "GetPlayer", "kind mismatch")
	}
	return player, nil
}

// LocalizedName is the blocking convenience read: it ensures the single
// locale and returns the display name. Callers preferring non-blocking reads
// use EnsureLocales once and the profile accessors afterwards.
func (c *ProfileCache) LocalizedName(ctx context.Context, id urn.URN, locale string) (string, error) {
	item, err := c.EnsureLocales(ctx, id, []string{locale})
	if err != nil {
		return "", err
	}

	var name string
	var ok bool
	switch v := item.(type) {
	case *profile.CompetitorProfile:
		name, ok = v.Name(locale)
	case *profile.TeamCompetitorProfile:
		name, ok = v.Name(locale)
	case *profile.PlayerProfile:
		name, ok = v.Name(locale)
	}
	if !ok {
		return "", errors.WrapTransient(
			fmt.Errorf("%w: %s locale %s", errors.ErrLocaleMissing, id, locale),
			"ProfileCache", "LocalizedName", "locale still missing after ensure")
	}
	return name, nil
}

// Exists reports whether an item is cached for id, without touching its
// expiry.
func (c *ProfileCache) Exists(id urn.URN) bool {
	_, ok := c.items.Peek(id.String())
	return ok
}

// Remove deletes the item for id, if present, under the key's merge lock.
func (c *ProfileCache) Remove(id urn.URN) {
	key := id.String()
	unlock := c.locks.acquire(key)
	defer unlock()

	if existed, _ := c.items.Delete(key); existed {
		c.logger.Debug("item removed", "urn", key)
	}
}

// HealthSnapshot returns the total item count and per-kind counts.
func (c *ProfileCache) HealthSnapshot() Snapshot {
	snapshot := Snapshot{ByKind: make(map[string]int)}
	for _, key := range c.items.Keys() {
		item, ok := c.items.Peek(key)
		if !ok {
			continue
		}
		snapshot.TotalItems++
		snapshot.ByKind[item.Kind()]++
	}
	if c.metrics != nil {
		for kind, count := range snapshot.ByKind {
			c.metrics.RecordItemCount(kind, count)
		}
	}
	return snapshot
}

// Stats returns the underlying store statistics.
func (c *ProfileCache) Stats() *store.Statistics {
	return c.items.Stats()
}

// Close shuts the cache down. Subsequent ensure calls fail with
// ErrCacheClosed; Close is idempotent.
func (c *ProfileCache) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.items.Close()
}

// fetchAndMerge performs one (entity, locale) fetch and routes the result
// into the store. The fetch is detached from the triggering caller's
// cancellation: coalesced joiners may still be waiting on the flight, so it
// runs to completion, bounded only by the fetch timeout.
func (c *ProfileCache) fetchAndMerge(ctx context.Context, id urn.URN, locale string) error {
	fetchCtx := context.WithoutCancel(ctx)
	if c.fetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(fetchCtx, c.fetchTimeout)
		defer cancel()
	}

	start := time.Now()
	dto, err := c.fetcher.Fetch(fetchCtx, id, locale)
	if c.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		c.metrics.RecordFetch(id.Type, locale, status, time.Since(start))
	}
	if err != nil {
		return err
	}

	payload := dto.Payload()
	if payload == nil {
		return errors.WrapInvalid(
			fmt.Errorf("%w: empty %s envelope", errors.ErrDecodeFailed, dto.Kind),
			"ProfileCache", "fetchAndMerge", "inconsistent fetch envelope")
	}

	if !c.router.Save(ctx, id, payload, locale, dto.Kind) {
		c.logger.Warn("fetched object not saved",
			"urn", id.String(), "locale", locale, "kind", dto.Kind.String())
	}
	return nil
}

// finishFlight releases the flight's waiters and removes it from the table.
func (c *ProfileCache) finishFlight(key string, fl *flight, err error) {
	c.decideMu.Lock()
	delete(c.flights, flightKey{key: key, locale: fl.locale})
	c.decideMu.Unlock()
	fl.complete(err)
}

// applyPolicy translates one locale's fetch outcome per the failure policy.
func (c *ProfileCache) applyPolicy(id urn.URN, locale string, err error) error {
	if err == nil {
		return nil
	}
	if c.metrics != nil {
		c.metrics.RecordFetchFailure(id.Type, locale)
	}

	if c.policy == FailureSuppress {
		c.logger.Warn("fetch failed, locale remains missing",
			"urn", id.String(), "locale", locale, "error", err)
		if c.metrics != nil {
			c.metrics.RecordFailureMasked()
		}
		if c.events != nil {
			c.events.FetchFailure(id, locale, err)
		}
		return nil
	}

	return errors.WrapTransient(
		fmt.Errorf("%w: %s locale %s: %w", errors.ErrUpstream, id, locale, err),
		"ProfileCache", "EnsureLocales", "fetch locale")
}

// onEvicted runs for every store eviction, both sweep expiry and explicit
// removal.
func (c *ProfileCache) onEvicted(key string, item profile.Profile, reason store.EvictReason) {
	c.logger.Debug("item evicted", "urn", key, "kind", item.Kind(), "reason", string(reason))
	if c.metrics != nil {
		c.metrics.RecordEviction(item.Kind(), string(reason))
	}
	if c.events != nil {
		c.events.Eviction(item.ID(), item.Kind())
	}
}

// missingLocales diffs the requested locales against the item's loaded set.
func missingLocales(item profile.Profile, requested []string) []string {
	var missing []string
	for _, locale := range requested {
		if !item.HasLocale(locale) {
			missing = append(missing, locale)
		}
	}
	return missing
}
