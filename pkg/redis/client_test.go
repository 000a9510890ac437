package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/vidrobox-backend/pkg/config"
)

func newMiniClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	raw := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })
	return NewFromRaw(raw), mr
}

func TestIncrWithTTLStartsWindowOnFirstHit(t *testing.T) {
	ctx := context.Background()
	client, mr := newMiniClient(t)
	key := client.RateLimitKey("quote:ip:10.0.0.1")

	count, err := client.IncrWithTTL(ctx, key, time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
	require.Equal(t, time.Minute, mr.TTL(key))

	mr.FastForward(30 * time.Second)
	count, err = client.IncrWithTTL(ctx, key, time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)
	require.Equal(t, 30*time.Second, mr.TTL(key), "later hits must not extend the window")

	mr.FastForward(31 * time.Second)
	count, err = client.IncrWithTTL(ctx, key, time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

func TestSetNXAndDel(t *testing.T) {
	ctx := context.Background()
	client, _ := newMiniClient(t)
	lock := client.LockKey("cron-worker:prod")

	ok, err := client.SetNX(ctx, lock, "owner-a", time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = client.SetNX(ctx, lock, "owner-b", time.Hour)
	require.NoError(t, err)
	require.False(t, ok)

	value, err := client.Get(ctx, lock)
	require.NoError(t, err)
	require.Equal(t, "owner-a", value)

	require.NoError(t, client.Del(ctx, lock))
	_, err = client.Get(ctx, lock)
	require.ErrorIs(t, err, redis.Nil)
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	require.Equal(t, "vb:idempotency:admin:1|POST|/api/admin/orders:k", client.IdempotencyKey("admin:1|POST|/api/admin/orders", "k"))
	require.Equal(t, "vb:rate_limit:quote:ip:1.2.3.4", client.RateLimitKey("quote:ip:1.2.3.4"))
	require.Equal(t, "vb:lock:cron", client.LockKey("cron"))
	require.Equal(t, "vb:session:access:abc", client.AccessSessionKey("abc"))
	require.Equal(t, "vb:idempotency:scope", client.IdempotencyKey("scope", " "))
}

func TestOptionsFromConfig(t *testing.T) {
	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://:pw@cache:6380/3", PoolSize: 7, DB: 1})
	require.NoError(t, err)
	require.Equal(t, "cache:6380", opts.Addr)
	require.Equal(t, 3, opts.DB, "the url wins over VIDROBOX_REDIS_DB")
	require.Equal(t, 7, opts.PoolSize)

	opts, err = optionsFromConfig(config.RedisConfig{Address: "localhost:6379", DB: 2})
	require.NoError(t, err)
	require.Equal(t, 2, opts.DB)

	_, err = optionsFromConfig(config.RedisConfig{})
	require.Error(t, err)
}

func TestUninitializedClient(t *testing.T) {
	var client *Client
	require.Error(t, client.Ping(context.Background()))
	_, err := client.IncrWithTTL(context.Background(), "k", time.Second)
	require.Error(t, err)
	require.NoError(t, client.Close())
}

func TestDelIfValueChecksOwner(t *testing.T) {
	ctx := context.Background()
	client, mr := newMiniClient(t)
	key := client.LockKey("cron")
	require.NoError(t, mr.Set(key, "owner-a"))

	deleted, err := client.DelIfValue(ctx, key, "owner-b")
	require.NoError(t, err)
	require.False(t, deleted)
	require.True(t, mr.Exists(key))

	deleted, err = client.DelIfValue(ctx, key, "owner-a")
	require.NoError(t, err)
	require.True(t, deleted)
	require.False(t, mr.Exists(key))
}
