package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avoronova/flatbook/config"
	"github.com/avoronova/flatbook/internal/domain"
	"github.com/avoronova/flatbook/internal/observability"
	"github.com/redis/go-redis/v9"
)

// RedisCache caches the apartment list and owns the per-apartment assignment
// locks. The lock funnels every writer for one apartment through a single
// owner so that two managers cannot both pass an availability check and then
// both commit an overlapping stay.
type RedisCache struct {
	client        *redis.Client
	apartmentsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, apartmentsTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:        redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		apartmentsTTL: apartmentsTTL,
	}
}

// NewRedisCacheWithClient is used by tests to plug in a miniredis-backed client.
func NewRedisCacheWithClient(client *redis.Client, apartmentsTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, apartmentsTTL: apartmentsTTL}
}

func (c *RedisCache) GetApartments(ctx context.Context) ([]domain.Apartment, error) {
	data, err := c.client.Get(ctx, apartmentsKey()).Bytes()
	if err != nil {
		if err == redis.Nil {
			observability.ObserveCache("apartments", "miss")
			return nil, nil
		}
		return nil, err
	}

	var apartments []domain.Apartment
	if err := json.Unmarshal(data, &apartments); err != nil {
		return nil, err
	}
	observability.ObserveCache("apartments", "hit")
	return apartments, nil
}

func (c *RedisCache) SetApartments(ctx context.Context, apartments []domain.Apartment) error {
	payload, err := json.Marshal(apartments)
	if err != nil {
		return err
	}
	observability.ObserveCache("apartments", "set")
	return c.client.Set(ctx, apartmentsKey(), payload, c.apartmentsTTL).Err()
}

func (c *RedisCache) InvalidateApartments(ctx context.Context) error {
	observability.ObserveCache("apartments", "del")
	return c.client.Del(ctx, apartmentsKey()).Err()
}

// AcquireAssignLock takes the single-writer lock for an apartment. It returns
// false when another writer holds it. The TTL bounds how long a crashed
// writer can keep the apartment blocked.
func (c *RedisCache) AcquireAssignLock(ctx context.Context, apartmentID string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, assignLockKey(apartmentID), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseAssignLock(ctx context.Context, apartmentID string) error {
	return c.client.Del(ctx, assignLockKey(apartmentID)).Err()
}

func apartmentsKey() string {
	return "cache:apartments"
}

func assignLockKey(apartmentID string) string {
	return fmt.Sprintf("lock:apartment:%s", apartmentID)
}
