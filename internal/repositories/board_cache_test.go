package repositories

import (
	"context"
	"testing"
	"time"

	"restaurant_pos_backend/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBoardCache(t *testing.T) (*RedisBoardCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisBoardCache(client, time.Second), mr
}

func TestRedisBoardCache_SetGetExpire(t *testing.T) {
	cache, mr := newTestBoardCache(t)
	ctx := context.Background()
	status := models.OrderStatusReady

	gen, err := cache.Generation(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), gen)

	_, hit, err := cache.Get(ctx, gen, &status)
	require.NoError(t, err)
	assert.False(t, hit)

	orders := []models.Order{{ID: "a", OrderNumber: "101", Status: status, Total: decimal.RequireFromString("21.97")}}
	require.NoError(t, cache.Set(ctx, gen, &status, orders))

	got, hit, err := cache.Get(ctx, gen, &status)
	require.NoError(t, err)
	require.True(t, hit)
	require.Len(t, got, 1)
	assert.Equal(t, "101", got[0].OrderNumber)
	assert.True(t, got[0].Total.Equal(orders[0].Total))

	_, hit, _ = cache.Get(ctx, gen, nil)
	assert.False(t, hit, "status-less snapshot is a separate key")

	mr.FastForward(2 * time.Second)
	_, hit, err = cache.Get(ctx, gen, &status)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisBoardCache_Invalidate(t *testing.T) {
	cache, mr := newTestBoardCache(t)
	ctx := context.Background()
	pending := models.OrderStatusPending

	require.NoError(t, cache.Set(ctx, 0, &pending, []models.Order{}))
	require.NoError(t, cache.Set(ctx, 0, nil, []models.Order{}))
	require.True(t, mr.Exists("board:orders:0:PENDING"))

	require.NoError(t, cache.Invalidate(ctx))
	gen, err := cache.Generation(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen)

	_, hit, err := cache.Get(ctx, gen, &pending)
	require.NoError(t, err)
	assert.False(t, hit)
	_, hit, err = cache.Get(ctx, gen, nil)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisBoardCache_SnapshotFromOldGenerationIsUnseen(t *testing.T) {
	cache, _ := newTestBoardCache(t)
	ctx := context.Background()

	seen, err := cache.Generation(ctx)
	require.NoError(t, err)
	require.NoError(t, cache.Invalidate(ctx))

	stale := []models.Order{{ID: "a", OrderNumber: "101", Status: models.OrderStatusPending}}
	require.NoError(t, cache.Set(ctx, seen, nil, stale))

	current, err := cache.Generation(ctx)
	require.NoError(t, err)
	_, hit, err := cache.Get(ctx, current, nil)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisBoardCache_ServerDown(t *testing.T) {
	cache, mr := newTestBoardCache(t)
	mr.Close()

	_, err := cache.Generation(context.Background())
	assert.Error(t, err)
	_, _, err = cache.Get(context.Background(), 0, nil)
	assert.Error(t, err)
}
