// Package sportscache provides a locale-aware, fetch-coalescing cache of
// sports feed entities: competitors, teams, players, and the category
// collections of a sport.
//
// # Design
//
// Every cached item is locale-cumulative. A fetch always targets exactly one
// locale; merging a fetched transfer object into an existing item adds that
// locale's display strings without disturbing the others, so an item's set of
// loaded locales only ever grows. Callers ask for the locales they need and
// the cache fans out one upstream fetch per missing locale, coalescing
// concurrent demand so that at most one fetch per (entity, locale) pair is in
// flight at any time.
//
// The packages divide as follows:
//
//   - cache: the central coalescing cache, its dispatch router, the category
//     loader, and event publishing
//   - profile: the merge protocol of the cached item shapes
//   - feed: transfer object shapes and the NATS fetcher to the feed bridge
//   - ingest: NATS subscriber driving the router from the ingestion stream
//   - gateway: operational HTTP surface (health, metrics, event WebSocket)
//   - urn: the entity identifier scheme
//   - pkg/cache: generic sliding-expiration store with pinned entries
//   - pkg/retry: bounded exponential backoff
//
// The cmd/sportscache binary wires configuration, NATS, the caches,
// ingestion and the gateway into a runnable service.
package sportscache
