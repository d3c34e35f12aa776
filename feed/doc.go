// Package feed defines the boundary to the remote sports-data source: the
// transfer-object shapes produced by the ingestion pipeline's deserializer,
// the closed enumeration of object kinds the dispatch layer switches on, and
// the Fetcher contract for single-locale remote lookups.
//
// Wire-format parsing and the remote protocol itself live outside this
// module; the types here are the already-mapped transfer objects.
package feed
