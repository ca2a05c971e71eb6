package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"coursesched/internal/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const cacheKeyPrefix = "catalog:"

// CachedStore puts a Redis read-through cache in front of another store.
// Misses and failures are never cached; a broken Redis only costs a trip to
// the backend.
type CachedStore struct {
	next    Store
	redis   *redis.Client
	ttl     time.Duration
	backend string
	logger  *zerolog.Logger
}

func NewCachedStore(next Store, rdb *redis.Client, ttl time.Duration, backend string, logger *zerolog.Logger) *CachedStore {
	return &CachedStore{next: next, redis: rdb, ttl: ttl, backend: backend, logger: logger}
}

func (c *CachedStore) Record(ctx context.Context, code, term string) (*CourseRecord, error) {
	key := fmt.Sprintf("%scourse:%s:%s", cacheKeyPrefix, term, code)
	var rec CourseRecord
	if c.readCache(ctx, key, &rec) {
		metrics.IncCatalogLookup(c.backend, "cached")
		return &rec, nil
	}

	fresh, err := c.next.Record(ctx, code, term)
	if err != nil {
		return nil, err
	}
	c.writeCache(ctx, key, fresh)
	return fresh, nil
}

func (c *CachedStore) Terms(ctx context.Context) ([]string, error) {
	key := cacheKeyPrefix + "terms"
	var terms []string
	if c.readCache(ctx, key, &terms) {
		return terms, nil
	}

	terms, err := c.next.Terms(ctx)
	if err != nil {
		return nil, err
	}
	c.writeCache(ctx, key, terms)
	return terms, nil
}

func (c *CachedStore) CourseCodes(ctx context.Context, term string) ([]string, error) {
	key := fmt.Sprintf("%scodes:%s", cacheKeyPrefix, term)
	var codes []string
	if c.readCache(ctx, key, &codes) {
		return codes, nil
	}

	codes, err := c.next.CourseCodes(ctx, term)
	if err != nil {
		return nil, err
	}
	c.writeCache(ctx, key, codes)
	return codes, nil
}

// Purge drops every cached catalog entry, e.g. after a snapshot reload.
func (c *CachedStore) Purge(ctx context.Context) error {
	if c.redis == nil {
		return nil
	}
	iter := c.redis.Scan(ctx, 0, cacheKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.redis.Del(ctx, keys...).Err()
}

func (c *CachedStore) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.ttl <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug().Err(err).Str("key", key).Msg("cache read failed")
		}
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *CachedStore) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.ttl <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("cache write failed")
	}
}
