package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"restaurant_pos_backend/internal/models"

	"github.com/redis/go-redis/v9"
)

// BoardCache holds short-lived snapshots of the status-board order lists so
// that polling displays do not hit the order store on every tick.
//
// Snapshots belong to a generation. Readers fetch the generation before
// listing orders and write their snapshot under it, so a snapshot built from
// a listing that raced with a write lands in a generation nobody reads.
type BoardCache interface {
	Generation(ctx context.Context) (int64, error)
	Get(ctx context.Context, gen int64, status *models.OrderStatus) ([]models.Order, bool, error)
	Set(ctx context.Context, gen int64, status *models.OrderStatus, orders []models.Order) error
	// Invalidate starts a new generation; called after any order write.
	Invalidate(ctx context.Context) error
}

const boardGenerationKey = "board:generation"

type RedisBoardCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisBoardCache(client *redis.Client, ttl time.Duration) *RedisBoardCache {
	return &RedisBoardCache{Client: client, TTL: ttl}
}

func (c *RedisBoardCache) key(gen int64, status *models.OrderStatus) string {
	name := "ALL"
	if status != nil {
		name = string(*status)
	}
	return fmt.Sprintf("board:orders:%d:%s", gen, name)
}

func (c *RedisBoardCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.Client.Get(ctx, boardGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *RedisBoardCache) Get(ctx context.Context, gen int64, status *models.OrderStatus) ([]models.Order, bool, error) {
	raw, err := c.Client.Get(ctx, c.key(gen, status)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var orders []models.Order
	if err := json.Unmarshal(raw, &orders); err != nil {
		return nil, false, fmt.Errorf("decoding board snapshot: %w", err)
	}
	return orders, true, nil
}

func (c *RedisBoardCache) Set(ctx context.Context, gen int64, status *models.OrderStatus, orders []models.Order) error {
	payload, err := json.Marshal(orders)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, c.key(gen, status), payload, c.TTL).Err()
}

// Invalidate bumps the generation. Snapshots of older generations are left
// to expire with their TTL.
func (c *RedisBoardCache) Invalidate(ctx context.Context) error {
	return c.Client.Incr(ctx, boardGenerationKey).Err()
}

// NoopBoardCache is used when no Redis address is configured.
type NoopBoardCache struct{}

func (NoopBoardCache) Generation(context.Context) (int64, error) { return 0, nil }

func (NoopBoardCache) Get(context.Context, int64, *models.OrderStatus) ([]models.Order, bool, error) {
	return nil, false, nil
}

func (NoopBoardCache) Set(context.Context, int64, *models.OrderStatus, []models.Order) error {
	return nil
}

func (NoopBoardCache) Invalidate(context.Context) error { return nil }
