// Package metric provides Prometheus metrics registration and the core
// instrumentation shared by the cache, fetcher, and ingest components.
// Components register their own collectors through the MetricsRegistry;
// the registry owns the underlying Prometheus registry and serves it
// through the ops HTTP gateway.
package metric
