package inflight

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/inventory-orders/internal/model"
)

func newTestRedisGuard(t *testing.T, ttl time.Duration) (*RedisGuard, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisGuard(client, ttl, nil), mr
}

func TestRedisGuard_RejectsSecondAcquire(t *testing.T) {
	g, mr := newTestRedisGuard(t, time.Minute)
	ctx := context.Background()

	release, err := g.Acquire(ctx, "session-1")
	require.NoError(t, err)
	assert.True(t, mr.Exists(keyPrefix+"session-1"))

	_, err = g.Acquire(ctx, "session-1")
	assert.ErrorIs(t, err, model.ErrSubmissionInFlight)

	other, err := g.Acquire(ctx, "session-2")
	require.NoError(t, err)
	other()

	release()
	assert.False(t, mr.Exists(keyPrefix+"session-1"))

	again, err := g.Acquire(ctx, "session-1")
	require.NoError(t, err)
	again()
}

func TestRedisGuard_StaleReleaseKeepsNewHolder(t *testing.T) {
	g, mr := newTestRedisGuard(t, time.Second)
	ctx := context.Background()

	stale, err := g.Acquire(ctx, "session-1")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)
	require.False(t, mr.Exists(keyPrefix+"session-1"))

	current, err := g.Acquire(ctx, "session-1")
	require.NoError(t, err)

	stale()
	assert.True(t, mr.Exists(keyPrefix+"session-1"))

	_, err = g.Acquire(ctx, "session-1")
	assert.ErrorIs(t, err, model.ErrSubmissionInFlight)

	current()
	assert.False(t, mr.Exists(keyPrefix+"session-1"))
}

func TestRedisGuard_SetsTTL(t *testing.T) {
	g, mr := newTestRedisGuard(t, 30*time.Second)

	release, err := g.Acquire(context.Background(), "k")
	require.NoError(t, err)
	defer release()

	assert.Equal(t, 30*time.Second, mr.TTL(keyPrefix+"k"))
}

func TestRedisGuard_ConnectionFailure(t *testing.T) {
	g, mr := newTestRedisGuard(t, time.Minute)
	mr.Close()

	_, err := g.Acquire(context.Background(), "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrSubmissionInFlight)
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()

	client, err := Connect(context.Background(), addr)
	require.NoError(t, err)
	require.NoError(t, client.Close())

	mr.Close()
	_, err = Connect(context.Background(), addr)
	assert.Error(t, err)
}
