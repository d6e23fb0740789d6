package matching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CachedMatcher keeps match lists in redis. Keys carry a generation number
// so that Invalidate drops every cached list with a single INCR.
type CachedMatcher struct {
	next   Matcher
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedMatcher(next Matcher, rdb *redis.Client, prefix string, ttl time.Duration, logger *zap.Logger) *CachedMatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedMatcher{next: next, rdb: rdb, prefix: prefix, ttl: ttl, logger: logger}
}

func (c *CachedMatcher) genKey() string { return c.prefix + ":match:gen" }

func (c *CachedMatcher) userKey(gen int64, userID uuid.UUID) string {
	return fmt.Sprintf("%s:match:%d:%s", c.prefix, gen, userID)
}

func (c *CachedMatcher) generation(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, c.genKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Match serves from the cache when it can. Cache failures fall through to
// the wrapped matcher.
func (c *CachedMatcher) Match(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		c.logger.Warn("match cache unavailable", zap.Error(err))
		return c.next.Match(ctx, userID)
	}
	key := c.userKey(gen, userID)

	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var ids []uuid.UUID
		if jerr := json.Unmarshal(data, &ids); jerr == nil {
			return ids, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("match cache read failed", zap.Error(err))
	}

	ids, err := c.next.Match(ctx, userID)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(ids); err == nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("match cache write failed", zap.Error(err))
		}
	}
	return ids, nil
}

// Forget drops the cached list of one user.
func (c *CachedMatcher) Forget(ctx context.Context, userID uuid.UUID) error {
	gen, err := c.generation(ctx)
	if err != nil {
		return fmt.Errorf("read match generation: %w", err)
	}
	return c.rdb.Del(ctx, c.userKey(gen, userID)).Err()
}

// Invalidate retires every cached list.
func (c *CachedMatcher) Invalidate(ctx context.Context) error {
	return c.rdb.Incr(ctx, c.genKey()).Err()
}
