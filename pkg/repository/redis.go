package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/example/shopbot/pkg/config"
	"github.com/example/shopbot/pkg/models"
)

const orderCacheTTL = 30 * time.Minute

// ErrCacheMiss is returned by GetOrderCache when no cached copy
// exists. A miss is not a failure; callers fall through to the store.
var ErrCacheMiss = redis.Nil

type RedisRepository struct {
	client *redis.Client
	config *config.RedisConfig
}

func NewRedisRepository(cfg *config.RedisConfig) *RedisRepository {
	return &RedisRepository{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			PoolSize: cfg.PoolSize,
		}),
		config: cfg,
	}
}

func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}

func orderKey(id int64) string {
	return fmt.Sprintf("order:%d", id)
}

// CacheOrder stores the full order row so status lookups between
// transitions skip the database.
func (r *RedisRepository) CacheOrder(ctx context.Context, order *models.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, orderKey(order.ID), data, orderCacheTTL).Err()
}

func (r *RedisRepository) GetOrderCache(ctx context.Context, id int64) (*models.Order, error) {
	data, err := r.client.Get(ctx, orderKey(id)).Result()
	if err != nil {
		return nil, err
	}
	var order models.Order
	if err := json.Unmarshal([]byte(data), &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// InvalidateOrder drops the cached copy after a state transition; the
// next read repopulates it from the store.
func (r *RedisRepository) InvalidateOrder(ctx context.Context, id int64) error {
	return r.client.Del(ctx, orderKey(id)).Err()
}
