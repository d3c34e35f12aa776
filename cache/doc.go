// Package cache is the locale-aware, fetch-coalescing profile cache: the
// orchestration layer between callers, the remote feed, and the long-lived
// cache items.
//
// ProfileCache owns the store and the coalescing protocol: for a requested
// entity and locale set it computes the missing locales, issues at most one
// outstanding fetch per (entity, locale) pair regardless of concurrent
// callers, routes every fetched transfer object through the Router into the
// right item's merge operation, and returns the merged item. Partial fetch
// failure never rolls back locales that already merged.
//
// Router drives heterogeneous transfer objects into cache items by declared
// kind, unpacking composite sport events into their embedded entities and
// promoting plain competitors to the team-shaped variant in place.
//
// CategoryCache is the narrower coalescing variant for sport categories,
// where locale completeness is boolean per sub-collection.
package cache
