package cache

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"

	"brewtab/internal/catalog"
	"brewtab/internal/domain"
)

type RedisSnapshotCache struct {
	client *redis.Client
}

func NewRedisSnapshotCache(addr string, password string, db int) *RedisSnapshotCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisSnapshotCache{client: client}
}

func (c *RedisSnapshotCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisSnapshotCache) Close() error {
	return c.client.Close()
}

// cachedSnapshot is the wire form of a snapshot. The indexed form is rebuilt
// on read so cached and freshly fetched snapshots behave identically.
type cachedSnapshot struct {
	Version     string              `json:"version"`
	FetchedAt   time.Time           `json:"fetched_at"`
	Products    []domain.Product    `json:"products"`
	Ingredients []domain.Ingredient `json:"ingredients"`
}

func (c *RedisSnapshotCache) Get(ctx context.Context, key string) (*catalog.Snapshot, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var cached cachedSnapshot
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		return nil, false, err
	}
	snap := catalog.New(cached.Version, cached.FetchedAt, cached.Products, cached.Ingredients)
	return snap, true, nil
}

func (c *RedisSnapshotCache) Set(ctx context.Context, key string, snap *catalog.Snapshot, ttl time.Duration) error {
	if snap == nil {
		return nil
	}

	cached := cachedSnapshot{
		Version:     snap.Version,
		FetchedAt:   snap.FetchedAt,
		Products:    make([]domain.Product, 0, len(snap.Products)),
		Ingredients: make([]domain.Ingredient, 0, len(snap.Ingredients)),
	}
	for _, p := range snap.Products {
		cached.Products = append(cached.Products, p)
	}
	for _, ing := range snap.Ingredients {
		cached.Ingredients = append(cached.Ingredients, ing)
	}

	payload, err := json.Marshal(cached)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}
