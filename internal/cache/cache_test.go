package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	return New(DefaultConfig(), store), mr
}

func TestCache_SetGet(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "company:stripe.com", map[string]string{"industry": "fintech"}, 0))

	val, res := GetJSON[map[string]string](ctx, c, "company:stripe.com", 0)
	assert.True(t, res.Hit)
	assert.False(t, res.IsNegative)
	assert.Equal(t, "fintech", val["industry"])
}

func TestCache_MissOnUnknownKey(t *testing.T) {
	c, _ := newTestCache(t)
	res := c.Get(context.Background(), "nope", 0)
	assert.False(t, res.Hit)
}

func TestCache_NegativeEntry(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetNegative(ctx, "resolve:ghost-corp"))

	res := c.Get(ctx, "resolve:ghost-corp", 0)
	assert.True(t, res.Hit)
	assert.True(t, res.IsNegative)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.NegativeHits)
	assert.Equal(t, int64(1), stats.NegativeSets)
}

func TestCache_VersionMismatchIsMissAndDeletes(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v1", 0))
	key := c.Key("k")

	c.InvalidateAll()

	// Old-version key still exists remotely but must never surface as a hit.
	require.True(t, mr.Exists(key))
	res := c.Get(ctx, "k", 0)
	assert.False(t, res.Hit)

	// New writes land under the new version.
	require.NoError(t, c.Set(ctx, "k", "v2", 0))
	val, res := GetJSON[string](ctx, c, "k", 0)
	assert.True(t, res.Hit)
	assert.Equal(t, "v2", val)
	assert.NotEqual(t, key, c.Key("k"))
}

func TestCache_TTLExpiry(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	now := time.Now()
	c.nowFunc = func() time.Time { return now }
	require.NoError(t, c.Set(ctx, "k", "v", time.Hour))

	// Within TTL.
	res := c.Get(ctx, "k", time.Hour)
	assert.True(t, res.Hit)

	// Past TTL.
	c.nowFunc = func() time.Time { return now.Add(2 * time.Hour) }
	res = c.Get(ctx, "k", time.Hour)
	assert.False(t, res.Hit)
}

func TestCache_MemoryFallbackWhenRemoteDown(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "warm", 0))

	// Kill redis; the in-memory copy must keep serving.
	mr.Close()

	val, res := GetJSON[string](ctx, c, "k", 0)
	assert.True(t, res.Hit)
	assert.Equal(t, "warm", val)

	// Sets while remote is down still succeed (memory only).
	require.NoError(t, c.Set(ctx, "k2", "v2", 0))
	val, res = GetJSON[string](ctx, c, "k2", 0)
	assert.True(t, res.Hit)
	assert.Equal(t, "v2", val)
	assert.Greater(t, c.Stats().RemoteErrors, int64(0))
}

func TestCache_MemoryOnlyMode(t *testing.T) {
	c := New(DefaultConfig(), nil)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", 42, 0))
	val, res := GetJSON[int](ctx, c, "k", 0)
	assert.True(t, res.Hit)
	assert.Equal(t, 42, val)
	assert.True(t, c.Healthy(ctx))
}

func TestCache_BatchOps(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetMultiple(ctx, map[string]any{
		"a": "1",
		"b": "2",
	}, 0))

	got := c.GetMultiple(ctx, []string{"a", "b", "missing"}, 0)
	assert.Len(t, got, 2)
	assert.JSONEq(t, `"1"`, string(got["a"]))
	assert.JSONEq(t, `"2"`, string(got["b"]))
}

func TestCache_RemoteHitWarmsMemory(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	c1 := New(DefaultConfig(), NewRedisStore(client))
	ctx := context.Background()
	require.NoError(t, c1.Set(ctx, "k", "v", 0))

	// Fresh cache instance with cold memory reads through to redis.
	c2 := New(DefaultConfig(), NewRedisStore(client))
	val, res := GetJSON[string](ctx, c2, "k", 0)
	require.True(t, res.Hit)
	assert.Equal(t, "v", val)

	// Second read is served from memory even if redis goes away.
	mr.Close()
	val, res = GetJSON[string](ctx, c2, "k", 0)
	assert.True(t, res.Hit)
	assert.Equal(t, "v", val)
}

func TestCache_KeyScheme(t *testing.T) {
	c := New(Config{Prefix: "enrich", Version: 3}, nil)
	assert.Equal(t, "enrich:v3:search:q", c.Key("search:q"))
	c.InvalidateAll()
	assert.Equal(t, "enrich:v4:search:q", c.Key("search:q"))
}
