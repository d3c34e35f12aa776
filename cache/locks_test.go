package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLockTable_MutualExclusion(t *testing.T) {
	table := newLockTable()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := table.acquire("sr:competitor:44")
			counter++
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestLockTable_IdleKeysReleased(t *testing.T) {
	table := newLockTable()

	unlock := table.acquire("a")
	table.mu.Lock()
	assert.Len(t, table.locks, 1)
	table.mu.Unlock()

	unlock()
	table.mu.Lock()
	assert.Empty(t, table.locks, "unreferenced locks are dropped")
	table.mu.Unlock()
}

func TestLockTable_IndependentKeys(t *testing.T) {
	table := newLockTable()

	unlockA := table.acquire("a")
	done := make(chan struct{})
	go func() {
		unlockB := table.acquire("b")
		unlockB()
		close(done)
	}()

	// A held lock on one key never blocks another key.
	<-done
	unlockA()
}
