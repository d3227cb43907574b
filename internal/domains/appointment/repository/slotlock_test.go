package repository

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlotLocksSerializesSameKey(t *testing.T) {
	const workers = 16

	locks := newSlotLocks()

	var (
		wg      sync.WaitGroup
		counter int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			release := locks.Acquire("2025-09-25-07:30")
			defer release()

			counter++
		}()
	}

	wg.Wait()

	assert.Equal(t, workers, counter)
	assert.Equal(t, 0, locks.Len(), "released keys must not linger")
}

func TestSlotLocksIndependentKeys(t *testing.T) {
	locks := newSlotLocks()

	releaseA := locks.Acquire("2025-09-25-07:30")
	releaseB := locks.Acquire("2025-09-25-08:00")

	assert.Equal(t, 2, locks.Len())

	releaseA()
	releaseB()

	assert.Equal(t, 0, locks.Len())
}

func TestSlotLocksReleaseTwice(t *testing.T) {
	locks := newSlotLocks()

	release := locks.Acquire("2025-09-25-07:30")
	release()
	release()

	assert.Equal(t, 0, locks.Len())
}
