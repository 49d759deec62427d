//go:build integration

package sweeper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	platformredis "lethe/internal/platform/redis"
	"lethe/pkg/testutil/containers"
)

func TestRedisLocker(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	client, err := platformredis.New(rc.Addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	locker := NewRedisLocker(client)
	ctx := context.Background()

	acquired, err := locker.Acquire(ctx, lockKey, time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)

	// Second acquire while held fails.
	acquired, err = locker.Acquire(ctx, lockKey, time.Minute)
	require.NoError(t, err)
	assert.False(t, acquired)

	require.NoError(t, locker.Release(ctx, lockKey))

	acquired, err = locker.Acquire(ctx, lockKey, time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestRedisLocker_TTLExpires(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	client, err := platformredis.New(rc.Addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	locker := NewRedisLocker(client)
	ctx := context.Background()

	acquired, err := locker.Acquire(ctx, lockKey, 100*time.Millisecond)
	require.NoError(t, err)
	require.True(t, acquired)

	// A crashed holder never releases; the lease must lapse on its own.
	assert.Eventually(t, func() bool {
		ok, err := locker.Acquire(ctx, lockKey, time.Minute)
		return err == nil && ok
	}, 2*time.Second, 50*time.Millisecond)
}
