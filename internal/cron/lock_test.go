package cron

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisclient "github.com/angelmondragon/vidrobox-backend/pkg/redis"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newLockClient(t *testing.T) (*redisclient.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	raw := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })
	return redisclient.NewFromRaw(raw), mr
}

func TestRedisLockIsExclusive(t *testing.T) {
	client, _ := newLockClient(t)
	ctx := context.Background()

	first, err := NewRedisLock(client, "cron", time.Minute)
	require.NoError(t, err)
	second, err := NewRedisLock(client, "cron", time.Minute)
	require.NoError(t, err)

	ok, err := first.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, second.Release(ctx))
	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	require.False(t, ok, "release by a non-owner must keep the lock")

	require.NoError(t, first.Release(ctx))
	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRedisLockKeepsLockTakenOverAfterExpiry(t *testing.T) {
	client, mr := newLockClient(t)
	ctx := context.Background()

	first, err := NewRedisLock(client, "cron", time.Minute)
	require.NoError(t, err)
	second, err := NewRedisLock(client, "cron", time.Minute)
	require.NoError(t, err)

	ok, err := first.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Minute)
	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, first.Release(ctx))
	require.True(t, mr.Exists(client.LockKey("cron")))
}

func TestNewRedisLockValidates(t *testing.T) {
	client, _ := newLockClient(t)
	_, err := NewRedisLock(client, "", time.Minute)
	require.Error(t, err)
	_, err = NewRedisLock(client, "cron", 0)
	require.Error(t, err)
}
