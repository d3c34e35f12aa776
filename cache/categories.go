package cache

import (
	"context"
	"log/slog"
	"sync"

	"github.com/c360/sportscache/errors"
	"github.com/c360/sportscache/feed"
	"github.com/c360/sportscache/urn"
)

// Category is one cached category of a sport, with its locale-indexed names.
type Category struct {
	ID          urn.URN
	Names       map[string]string
	CountryCode string
}

// CategoryCache is the narrower coalescing variant for sport categories:
// locale completeness is boolean per sub-collection, so it only tracks which
// locales the collection has been loaded for. Fetches run sequentially under
// a single per-sport lock.
type CategoryCache struct {
	fetcher feed.Fetcher
	policy  FailurePolicy
	logger  *slog.Logger

	mu     sync.Mutex
	sports map[string]*sportCategories
}

type sportCategories struct {
	mu         sync.Mutex
	loaded     map[string]struct{}
	categories map[string]*Category
	order      []string
}

// NewCategoryCache creates a category cache fetching through the given
// fetcher.
func NewCategoryCache(fetcher feed.Fetcher, policy FailurePolicy, logger *slog.Logger) *CategoryCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &CategoryCache{
		fetcher: fetcher,
		policy:  policy,
		logger:  logger.With("component", "categories"),
		sports:  make(map[string]*sportCategories),
	}
}

// EnsureCategories loads the category collection of a sport for every
// requested locale not yet loaded. Missing locales are fetched sequentially
// under the sport's lock; the loaded set is appended only after all fetches
// return. Returns the merged category list.
func (c *CategoryCache) EnsureCategories(ctx context.Context, sport urn.URN, locales []string) ([]Category, error) {
	entry := c.entry(sport)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	var missing []string
	for _, locale := range locales {
		if _, ok := entry.loaded[locale]; !ok {
			missing = append(missing, locale)
		}
	}

	var fetched []string
	var firstErr error
	for _, locale := range missing {
		categories, err := c.fetcher.FetchCategories(ctx, sport, locale)
		if err != nil {
			if c.policy == FailureSuppress {
				c.logger.Warn("category fetch failed, locale remains missing",
					"sport", sport.String(), "locale", locale, "error", err)
				continue
			}
			if firstErr == nil {
				firstErr = errors.WrapTransient(err, "CategoryCache", "EnsureCategories", "fetch categories")
			}
			continue
		}
		entry.mergeLocked(categories, locale)
		fetched = append(fetched, locale)
	}

	// Loaded set grows only after every fetch has returned.
	for _, locale := range fetched {
		entry.loaded[locale] = struct{}{}
	}

	if firstErr != nil {
		return entry.snapshotLocked(), firstErr
	}
	return entry.snapshotLocked(), nil
}

// LoadedLocales returns the locales the sport's collection has been loaded
// for.
func (c *CategoryCache) LoadedLocales(sport urn.URN) []string {
	entry := c.entry(sport)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	out := make([]string, 0, len(entry.loaded))
	for locale := range entry.loaded {
		out = append(out, locale)
	}
	return out
}

// Sports reports the loaded locales of every sport collection, keyed by the
// sport identifier.
func (c *CategoryCache) Sports() map[string][]string {
	c.mu.Lock()
	sports := make(map[string]*sportCategories, len(c.sports))
	for key, entry := range c.sports {
		sports[key] = entry
	}
	c.mu.Unlock()

	out := make(map[string][]string, len(sports))
	for key, entry := range sports {
		entry.mu.Lock()
		locales := make([]string, 0, len(entry.loaded))
		for locale := range entry.loaded {
			locales = append(locales, locale)
		}
		entry.mu.Unlock()
		out[key] = locales
	}
	return out
}

// Categories returns the currently cached categories of a sport without
// fetching.
func (c *CategoryCache) Categories(sport urn.URN) []Category {
	entry := c.entry(sport)
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.snapshotLocked()
}

func (c *CategoryCache) entry(sport urn.URN) *sportCategories {
	key := sport.String()
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.sports[key]
	if !ok {
		entry = &sportCategories{
			loaded:     make(map[string]struct{}),
			categories: make(map[string]*Category),
		}
		c.sports[key] = entry
	}
	return entry
}

func (e *sportCategories) mergeLocked(dtos []feed.CategoryDTO, locale string) {
	for _, dto := range dtos {
		key := dto.ID.String()
		cat, ok := e.categories[key]
		if !ok {
			cat = &Category{ID: dto.ID, Names: make(map[string]string)}
			e.categories[key] = cat
			e.order = append(e.order, key)
		}
		if dto.Name != "" {
			cat.Names[locale] = dto.Name
		}
		if dto.CountryCode != "" {
			cat.CountryCode = dto.CountryCode
		}
	}
}

func (e *sportCategories) snapshotLocked() []Category {
	out := make([]Category, 0, len(e.order))
	for _, key := range e.order {
		cat := e.categories[key]
		names := make(map[string]string, len(cat.Names))
		for locale, name := range cat.Names {
			names[locale] = name
		}
		out = append(out, Category{ID: cat.ID, Names: names, CountryCode: cat.CountryCode})
	}
	return out
}
