package db

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*RedisDB, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return &RedisDB{Client: client}, mr
}

func TestCacheRoundTrip(t *testing.T) {
	rdb, _ := newTestRedis(t)
	ctx := context.Background()

	type payload struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}

	require.NoError(t, rdb.SetCache(ctx, "project:abc", payload{ID: "abc", Title: "Restaurant API"}, time.Minute))

	var got payload
	require.NoError(t, rdb.GetCache(ctx, "project:abc", &got))
	assert.Equal(t, "abc", got.ID)
	assert.Equal(t, "Restaurant API", got.Title)
}

func TestCacheExpiry(t *testing.T) {
	rdb, mr := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, rdb.SetCache(ctx, "project:abc", "value", 30*time.Second))
	mr.FastForward(31 * time.Second)

	var got string
	err := rdb.GetCache(ctx, "project:abc", &got)
	assert.ErrorIs(t, err, redis.Nil)
}

func TestInvalidateCache(t *testing.T) {
	rdb, _ := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, rdb.SetCache(ctx, "project:abc", "value", time.Minute))
	require.NoError(t, rdb.InvalidateCache(ctx, "project:abc"))

	var got string
	err := rdb.GetCache(ctx, "project:abc", &got)
	assert.ErrorIs(t, err, redis.Nil)

	// Invalidating a missing key is not an error.
	assert.NoError(t, rdb.InvalidateCache(ctx, "project:missing"))
}

func TestClaimIdempotencyKey(t *testing.T) {
	rdb, mr := newTestRedis(t)
	ctx := context.Background()

	claimed, err := rdb.ClaimIdempotencyKey(ctx, "pi_123", 10*time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed)

	// A second delivery loses the claim.
	claimed, err = rdb.ClaimIdempotencyKey(ctx, "pi_123", 10*time.Minute)
	require.NoError(t, err)
	assert.False(t, claimed)

	// Claims expire with their TTL.
	mr.FastForward(11 * time.Minute)
	claimed, err = rdb.ClaimIdempotencyKey(ctx, "pi_123", 10*time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestReleaseIdempotencyKey(t *testing.T) {
	rdb, _ := newTestRedis(t)
	ctx := context.Background()

	claimed, err := rdb.ClaimIdempotencyKey(ctx, "pi_456", 10*time.Minute)
	require.NoError(t, err)
	require.True(t, claimed)

	require.NoError(t, rdb.ReleaseIdempotencyKey(ctx, "pi_456"))

	claimed, err = rdb.ClaimIdempotencyKey(ctx, "pi_456", 10*time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed)
}
