package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestCacheStore connects to REDIS_ADDR or skips the test.
func newTestCacheStore(t *testing.T) *CacheStore {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping Redis integration test")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not reachable at %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = client.Close() })

	return NewCacheStore(client)
}

func TestCacheStore_RoundTripAndDelete(t *testing.T) {
	store := newTestCacheStore(t)
	ctx := context.Background()
	key := CabKey("test-" + time.Now().Format("150405.000000"))

	type cached struct {
		Number string `json:"number"`
	}

	var got cached
	hit, err := store.GetJSON(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, store.SetJSON(ctx, key, cached{Number: "KA01"}, time.Minute))

	hit, err = store.GetJSON(ctx, key, &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "KA01", got.Number)

	n, err := store.Delete(ctx, key, key+":missing")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	hit, err = store.GetJSON(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheStore_DeleteNoKeys(t *testing.T) {
	t.Parallel()

	store := NewCacheStore(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}))
	n, err := store.Delete(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
