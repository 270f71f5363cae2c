package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/config"
	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/model"
)

const menuKey = "pos:menu"

// Cache errors
var (
	ErrDisabled = errors.New("cache is disabled")
	ErrMiss     = errors.New("key not found in cache")
)

// RedisCache caches menu listings in a Redis hash keyed by category
type RedisCache struct {
	client  *redis.Client
	ttl     time.Duration
	enabled bool
}

// NewRedisCache creates a new Redis cache. A disabled config yields a cache
// whose reads always miss.
func NewRedisCache(cfg config.RedisConfig) (*RedisCache, error) {
	if !cfg.Enabled {
		return &RedisCache{enabled: false}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "failed to connect to Redis")
	}

	return &RedisCache{
		client:  client,
		ttl:     cfg.MenuTTL,
		enabled: true,
	}, nil
}

// Enabled reports whether the cache talks to Redis
func (c *RedisCache) Enabled() bool {
	return c.enabled
}

// MenuField returns the hash field of a category listing
func MenuField(category string) string {
	if category == "" {
		return "*"
	}
	return "category:" + category
}

// GetMenu returns the cached dishes of a category
func (c *RedisCache) GetMenu(ctx context.Context, category string) ([]model.Dish, error) {
	if !c.enabled {
		return nil, ErrDisabled
	}

	data, err := c.client.HGet(ctx, menuKey, MenuField(category)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrMiss
		}
		return nil, errors.Wrap(err, "failed to get menu from Redis")
	}

	var dishes []model.Dish
	if err := json.Unmarshal(data, &dishes); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal cached menu")
	}
	return dishes, nil
}

// SetMenu stores the dishes of a category. The whole hash expires after the
// configured TTL.
func (c *RedisCache) SetMenu(ctx context.Context, category string, dishes []model.Dish) error {
	if !c.enabled {
		return ErrDisabled
	}

	data, err := json.Marshal(dishes)
	if err != nil {
		return errors.Wrap(err, "failed to marshal menu for caching")
	}

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, menuKey, MenuField(category), data)
		if c.ttl > 0 {
			pipe.Expire(ctx, menuKey, c.ttl)
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "failed to set menu in Redis")
	}
	return nil
}

// InvalidateMenu drops every cached listing
func (c *RedisCache) InvalidateMenu(ctx context.Context) error {
	if !c.enabled {
		return nil
	}
	if err := c.client.Del(ctx, menuKey).Err(); err != nil {
		return errors.Wrap(err, "failed to invalidate menu in Redis")
	}
	return nil
}

// Ping checks the Redis connection
func (c *RedisCache) Ping(ctx context.Context) error {
	if !c.enabled {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	if !c.enabled || c.client == nil {
		return nil
	}
	return c.client.Close()
}
