package lock

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Locker with the same wait/hold semantics as the
// Redis implementation. Suitable for tests and single-node deployments.
type Memory struct {
	mu   sync.Mutex
	sems map[string]chan struct{}
}

// NewMemory returns an in-process locker.
func NewMemory() *Memory {
	return &Memory{sems: make(map[string]chan struct{})}
}

func (m *Memory) sem(key string) chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.sems[key]
	if !ok {
		ch = make(chan struct{}, 1)
		m.sems[key] = ch
	}
	return ch
}

// Acquire blocks up to wait for the per-key slot. The slot auto-releases
// after hold if the caller never invokes release.
func (m *Memory) Acquire(ctx context.Context, key string, wait, hold time.Duration) (func(), error) {
	ch := m.sem(key)

	waitTimer := time.NewTimer(wait)
	defer waitTimer.Stop()

	select {
	case ch <- struct{}{}:
	case <-waitTimer.C:
		return nil, ErrNotAcquired
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var once sync.Once
	free := func() {
		once.Do(func() { <-ch })
	}
	holdTimer := time.AfterFunc(hold, free)

	return func() {
		holdTimer.Stop()
		free()
	}, nil
}
