package feed

import (
	"context"

	"github.com/c360/sportscache/urn"
)

// Fetcher retrieves entity data from the remote source. One call always
// targets exactly one locale; the cache layer fans out one call per missing
// locale and merges the results.
type Fetcher interface {
	// Fetch returns the transfer object for id in the given locale, or an
	// error classified by the errors package (transient upstream failures
	// are retryable; not-found is terminal for the locale).
	Fetch(ctx context.Context, id urn.URN, locale string) (*ProfileDTO, error)

	// FetchCategories returns the category sub-collection of a sport for
	// one locale.
	FetchCategories(ctx context.Context, sport urn.URN, locale string) ([]CategoryDTO, error)
}

// VariantFetcher is implemented by fetchers that support parametrized
// market-style lookups. Callers fall back to Fetch when the hint is empty or
// the fetcher does not implement the interface.
type VariantFetcher interface {
	FetchVariant(ctx context.Context, id urn.URN, locale, variant string) (*ProfileDTO, error)
}

// FetcherFunc adapts a function to the Fetcher interface for tests and
// simple wiring. FetchCategories returns an empty collection.
type FetcherFunc func(ctx context.Context, id urn.URN, locale string) (*ProfileDTO, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, id urn.URN, locale string) (*ProfileDTO, error) {
	return f(ctx, id, locale)
}

// FetchCategories implements Fetcher with an empty result.
func (f FetcherFunc) FetchCategories(_ context.Context, _ urn.URN, _ string) ([]CategoryDTO, error) {
	return nil, nil
}
