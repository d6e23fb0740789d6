package extractor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"vacancy-pipeline/internal/entity"
)

// Cache stores extraction results per artifact version and input hash.
// Get returns (nil, nil) on a miss.
type Cache interface {
	Get(ctx context.Context, key string) (*entity.VacancyCandidate, error)
	Set(ctx context.Context, key string, c entity.VacancyCandidate) error
}

// CacheKey identifies one input under one artifact version.
func CacheKey(version, html string) string {
	sum := sha256.Sum256([]byte(html))
	return version + ":" + hex.EncodeToString(sum[:])
}

type RedisCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisCache(rdb *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (c *RedisCache) key(k string) string {
	return fmt.Sprintf("%s:extract:%s", c.prefix, k)
}

func (c *RedisCache) Get(ctx context.Context, key string) (*entity.VacancyCandidate, error) {
	data, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cached extraction: %w", err)
	}
	var cand entity.VacancyCandidate
	if err := json.Unmarshal(data, &cand); err != nil {
		return nil, fmt.Errorf("decode cached extraction: %w", err)
	}
	return &cand, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, cand entity.VacancyCandidate) error {
	data, err := json.Marshal(cand)
	if err != nil {
		return fmt.Errorf("encode extraction: %w", err)
	}
	if err := c.rdb.Set(ctx, c.key(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache extraction: %w", err)
	}
	return nil
}
