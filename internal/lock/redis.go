package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	retryInterval  = 100 * time.Millisecond
	releaseTimeout = 3 * time.Second
)

// releaseScript deletes the key only when it still carries our token, so a
// lock that already expired and was re-acquired by someone else is left alone.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Redis is a Locker backed by a single Redis instance using SET NX PX.
type Redis struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedis returns a Redis-backed locker.
func NewRedis(client *redis.Client, logger *zap.Logger) *Redis {
	return &Redis{client: client, logger: logger}
}

// Acquire polls SET NX until it wins or the wait window elapses. The key
// expires after hold, which bounds how long a crashed holder can starve others.
func (l *Redis) Acquire(ctx context.Context, key string, wait, hold time.Duration) (func(), error) {
	token := uuid.NewString()
	deadline := time.Now().Add(wait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, hold).Result()
		if err != nil {
			return nil, fmt.Errorf("lock: acquire %s: %w", key, err)
		}
		if ok {
			return l.releaseFunc(key, token), nil
		}
		if !time.Now().Before(deadline) {
			return nil, ErrNotAcquired
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryInterval):
		}
	}
}

func (l *Redis) releaseFunc(key, token string) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			l.logger.Warn("failed to release lock", zap.String("key", key), zap.Error(err))
		}
	}
}
