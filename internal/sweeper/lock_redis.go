package sweeper

import (
	"context"
	"time"

	platformredis "lethe/internal/platform/redis"
)

// RedisLocker implements Locker with a plain SET NX lease. Good enough for
// "don't run two sweeps at once"; the lease TTL covers a crashed holder.
type RedisLocker struct {
	client *platformredis.Client
}

func NewRedisLocker(client *platformredis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, key, "1", ttl).Result()
}

func (l *RedisLocker) Release(ctx context.Context, key string) error {
	return l.client.Del(ctx, key).Err()
}
