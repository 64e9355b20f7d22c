package tokens

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis connects to REDIS_TEST_ADDR (localhost:6379 by default) and
// skips when nothing is listening.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := client.Ping(ctx).Err()
	if err != nil {
		_ = client.Close()
		t.Skipf("redis not available for testing: %v", err)
	}

	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestCache_SetGet(t *testing.T) {
	t.Parallel()

	c := New(setupTestRedis(t))
	ctx := context.Background()

	hash := "h-" + uuid.NewString()
	id := uuid.New()

	_, ok, err := c.Get(ctx, hash)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, hash, id, time.Minute))

	got, ok, err := c.Get(ctx, hash)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, id, got)

	// Non-positive TTL never caches.
	other := "h-" + uuid.NewString()
	require.NoError(t, c.Set(ctx, other, id, 0))

	_, ok, err = c.Get(ctx, other)
	require.NoError(t, err)
	assert.False(t, ok)
}
