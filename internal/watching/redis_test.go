package watching

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupMiniRedis 启动一个测试用 Redis
func setupMiniRedis(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *RedisBackend) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, NewRedisBackend(client, ttl)
}

func TestRedisBackend_StoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	mr, backend := setupMiniRedis(t, 24*time.Hour)

	s := NewStore(backend, KeyFor("viewer"))
	s.Upsert(ctx, entry("a", 12))
	s.Upsert(ctx, entry("b", 34))

	got := s.ReadAll(ctx)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].BookID)

	assert.True(t, mr.Exists(KeyFor("viewer")))
	assert.Equal(t, 24*time.Hour, mr.TTL(KeyFor("viewer")))

	s.Clear(ctx)
	assert.False(t, mr.Exists(KeyFor("viewer")))
	assert.Empty(t, s.ReadAll(ctx))
}

func TestRedisBackend_Expiry(t *testing.T) {
	ctx := context.Background()
	mr, backend := setupMiniRedis(t, time.Hour)

	s := NewStore(backend, KeyFor("viewer"))
	s.Upsert(ctx, entry("a", 1))

	mr.FastForward(2 * time.Hour)
	assert.Empty(t, s.ReadAll(ctx))
}

func TestRedisBackend_GetMissing(t *testing.T) {
	_, backend := setupMiniRedis(t, 0)

	v, ok, err := backend.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestRedisBackend_ServerDown(t *testing.T) {
	ctx := context.Background()
	mr, backend := setupMiniRedis(t, 0)
	mr.Close()

	_, _, err := backend.Get(ctx, "k")
	assert.Error(t, err)
	assert.Error(t, backend.HealthCheck(ctx))

	// Store 把存储错误当作空状态
	assert.Empty(t, NewStore(backend, KeyFor("v")).ReadAll(ctx))
}

func TestDialRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	backend, err := DialRedis(context.Background(), RedisConfig{Addr: mr.Addr()}, time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	assert.NoError(t, backend.HealthCheck(context.Background()))
}
