package revocation

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

func newTestCache(t *testing.T) *Cache {
	t.Helper()

	addr := os.Getenv("AUTH_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("AUTH_TEST_REDIS_ADDR not set, skipping redis integration test")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(t, rdb.Ping(ctx).Err())

	return NewCache(rdb)
}

func TestCache_RevokeAndCheck(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()
	jti := uuid.NewString()

	revoked, err := cache.IsRevoked(ctx, jti)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, cache.Revoke(ctx, jti, time.Minute))

	revoked, err = cache.IsRevoked(ctx, jti)
	require.NoError(t, err)
	assert.True(t, revoked)

	// Revoking again is a no-op overwrite.
	require.NoError(t, cache.Revoke(ctx, jti, time.Minute))
	revoked, err = cache.IsRevoked(ctx, jti)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestCache_ExpiredTokenNotStored(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()
	jti := uuid.NewString()

	require.NoError(t, cache.Revoke(ctx, jti, 0))
	require.NoError(t, cache.Revoke(ctx, jti, -time.Minute))

	revoked, err := cache.IsRevoked(ctx, jti)
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestCache_EntryExpires(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()
	jti := uuid.NewString()

	require.NoError(t, cache.Revoke(ctx, jti, 200*time.Millisecond))

	revoked, err := cache.IsRevoked(ctx, jti)
	require.NoError(t, err)
	assert.True(t, revoked)

	time.Sleep(400 * time.Millisecond)

	revoked, err = cache.IsRevoked(ctx, jti)
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestCache_EmptyJTIRejected(t *testing.T) {
	cache := newTestCache(t)
	assert.Error(t, cache.Revoke(context.Background(), "", time.Minute))
}
