package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	backend, err := NewRedis(RedisConfig{Addr: srv.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	return backend, srv
}

func TestRedis_SetAndGet(t *testing.T) {
	backend, _ := newTestRedis(t)
	ctx := context.Background()

	value := map[string]interface{}{"answer": "42", "count": float64(2)}
	require.NoError(t, backend.Set(ctx, "k", value, time.Minute))

	got, ok, err := backend.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, value, got)
}

func TestRedis_Miss(t *testing.T) {
	backend, _ := newTestRedis(t)

	_, ok, err := backend.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedis_TTLExpiry(t *testing.T) {
	backend, srv := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, backend.Set(ctx, "k", "value", time.Second))

	// miniredis advances TTLs manually.
	srv.FastForward(1100 * time.Millisecond)

	_, ok, err := backend.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedis_DeleteAndClear(t *testing.T) {
	backend, _ := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, backend.Set(ctx, "a", 1, time.Minute))
	require.NoError(t, backend.Set(ctx, "b", 2, time.Minute))

	require.NoError(t, backend.Delete(ctx, "a"))
	_, ok, err := backend.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, backend.Clear(ctx))
	_, ok, err = backend.Get(ctx, "b")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedis_Stats(t *testing.T) {
	backend, _ := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, backend.Set(ctx, "k", "value", time.Minute))

	_, _, _ = backend.Get(ctx, "k")
	_, _, _ = backend.Get(ctx, "k")
	_, _, _ = backend.Get(ctx, "missing")

	stats := backend.Stats()
	assert.Equal(t, uint64(2), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, uint64(3), stats.TotalRequests)
	assert.InDelta(t, 0.667, stats.HitRate, 0.001)
}

func TestNewRedis_ConnectionFailure(t *testing.T) {
	_, err := NewRedis(RedisConfig{Addr: "127.0.0.1:0"})
	assert.Error(t, err)
}
