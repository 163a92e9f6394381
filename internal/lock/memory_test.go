package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryAcquireAndRelease(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	release, err := m.Acquire(ctx, "k", 50*time.Millisecond, time.Second)
	require.NoError(t, err)

	// Held: a second acquire times out.
	_, err = m.Acquire(ctx, "k", 20*time.Millisecond, time.Second)
	assert.ErrorIs(t, err, ErrNotAcquired)

	release()

	// Released: acquire succeeds again.
	release2, err := m.Acquire(ctx, "k", 50*time.Millisecond, time.Second)
	require.NoError(t, err)
	release2()
}

func TestMemoryKeysAreIndependent(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	releaseA, err := m.Acquire(ctx, "a", 50*time.Millisecond, time.Second)
	require.NoError(t, err)
	defer releaseA()

	releaseB, err := m.Acquire(ctx, "b", 50*time.Millisecond, time.Second)
	require.NoError(t, err)
	releaseB()
}

func TestMemoryHoldExpiryFreesSlot(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	// Never released by the holder; the hold window frees it.
	_, err := m.Acquire(ctx, "k", 50*time.Millisecond, 30*time.Millisecond)
	require.NoError(t, err)

	release, err := m.Acquire(ctx, "k", 500*time.Millisecond, time.Second)
	require.NoError(t, err)
	release()
}

func TestMemoryReleaseIsIdempotent(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	release, err := m.Acquire(ctx, "k", 50*time.Millisecond, time.Second)
	require.NoError(t, err)
	release()
	release()

	// A double release must not free someone else's slot.
	release2, err := m.Acquire(ctx, "k", 50*time.Millisecond, time.Second)
	require.NoError(t, err)
	defer release2()

	_, err = m.Acquire(ctx, "k", 20*time.Millisecond, time.Second)
	assert.ErrorIs(t, err, ErrNotAcquired)
}

func TestMemoryAcquireHonoursContext(t *testing.T) {
	m := NewMemory()

	release, err := m.Acquire(context.Background(), "k", 50*time.Millisecond, time.Second)
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Acquire(ctx, "k", time.Second, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryMutualExclusion(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	var mu sync.Mutex
	inSection := 0
	maxSeen := 0

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := m.Acquire(ctx, "k", 5*time.Second, 10*time.Second)
			if err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			mu.Lock()
			inSection++
			if inSection > maxSeen {
				maxSeen = inSection
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inSection--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
}
