package lock

import (
	"context"
	"errors"
	"time"
)

// ErrNotAcquired means the wait window elapsed while another holder kept the
// lock. Callers surface it as a retryable busy condition.
var ErrNotAcquired = errors.New("lock: not acquired within wait window")

// Locker serializes critical sections keyed by an arbitrary string. Acquire
// blocks up to wait; the lock auto-releases after hold if the returned release
// function is never called (holder crashed or stalled).
type Locker interface {
	Acquire(ctx context.Context, key string, wait, hold time.Duration) (release func(), err error)
}
