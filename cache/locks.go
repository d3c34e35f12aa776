package cache

import (
	"sync"
)

// lockTable hands out per-key merge locks. Mutation of a cache item (merge,
// promotion, removal, sweep eviction) happens under its key's lock; the
// table itself only guards lock bookkeeping. Locks are reference counted so
// idle keys do not accumulate entries.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]*keyLock)}
}

// acquire blocks until the key's lock is held and returns the unlock
// function.
func (t *lockTable) acquire(key string) (unlock func()) {
	t.mu.Lock()
	kl, ok := t.locks[key]
	if !ok {
		kl = &keyLock{}
		t.locks[key] = kl
	}
	kl.refs++
	t.mu.Unlock()

	kl.mu.Lock()
	return func() {
		kl.mu.Unlock()

		t.mu.Lock()
		kl.refs--
		if kl.refs == 0 {
			delete(t.locks, key)
		}
		t.mu.Unlock()
	}
}
