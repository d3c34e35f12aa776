// Package cache provides a generic, thread-safe store with sliding
// expiration and pinned entries.
//
// Entries given a TTL slide: every read and write pushes the expiry
// forward, so an entry disappears only after a full idle window with no
// access. Pinned entries never expire and survive until explicitly
// deleted. Statistics are always collected; Prometheus export and
// eviction coordination hooks are wired in via functional options.
package cache

import (
	"fmt"
	"time"

	"github.com/c360/sportscache/errors"
)

// Store represents the generic store interface, parameterized by value
// type V for type safety.
type Store[V any] interface {
	// Get retrieves a value by key and slides its expiry forward.
	// Returns the value and true if found, zero value and false otherwise.
	Get(key string) (V, bool)

	// Peek retrieves a value by key without sliding its expiry.
	Peek(key string) (V, bool)

	// Set stores a value under the key with the store's sliding TTL.
	// Returns true if a new entry was created, false if updated.
	Set(key string, value V) (bool, error)

	// SetPinned stores a value that never expires.
	SetPinned(key string, value V) (bool, error)

	// Delete removes an entry by key. Returns true if the key existed.
	Delete(key string) (bool, error)

	// Clear removes all entries from the store.
	Clear() error

	// Size returns the current number of entries.
	Size() int

	// Keys returns all keys with unexpired entries.
	Keys() []string

	// Stats returns the store's statistics (always present).
	Stats() *Statistics

	// Close stops the background sweeper and releases resources.
	Close() error
}

// EvictReason tells an eviction callback why an entry left the store.
type EvictReason string

const (
	// EvictExpired marks entries removed by the sweeper after their idle
	// window elapsed.
	EvictExpired EvictReason = "expired"
	// EvictRemoved marks entries removed by an explicit Delete.
	EvictRemoved EvictReason = "removed"
	// EvictCleared marks entries removed by Clear.
	EvictCleared EvictReason = "cleared"
)

// EvictCallback is called when an entry is evicted from the store, with the
// reason the entry was removed.
type EvictCallback[V any] func(key string, value V, reason EvictReason)

// EvictionGuard is acquired around the eviction of each key during the
// background sweep. It returns an unlock function, letting callers hold a
// per-key lock so a sweep never removes an entry mid-update.
type EvictionGuard func(key string) (unlock func())

// entry is a stored value with its expiry. A zero expiresAt means the
// entry is pinned.
type entry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
}

func (e *entry[V]) pinned() bool {
	return e.expiresAt.IsZero()
}

func (e *entry[V]) expired(now time.Time) bool {
	return !e.pinned() && now.After(e.expiresAt)
}

// validateKey rejects keys the store cannot index.
func validateKey(key string) error {
	if key == "" {
		return errors.WrapInvalid(fmt.Errorf("empty key"), "cache", "validateKey", "key cannot be empty")
	}
	return nil
}
