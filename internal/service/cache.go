package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	internalRedis "fleetops/internal/redis"
)

// cacheAside wraps the cache so that every failure degrades to a miss.
// The record store stays the source of truth; the cache is only advisory.
type cacheAside struct {
	store internalRedis.CacheStoreInterface
	log   logrus.FieldLogger
}

func newCacheAside(store internalRedis.CacheStoreInterface, log logrus.FieldLogger) *cacheAside {
	return &cacheAside{store: store, log: log}
}

// get reports whether key was found and decoded into dest.
func (c *cacheAside) get(ctx context.Context, key string, dest any) bool {
	if c.store == nil {
		return false
	}
	hit, err := c.store.GetJSON(ctx, key, dest)
	if err != nil {
		c.log.WithError(err).WithField("key", key).Warn("cache read failed, falling back to store")
		return false
	}
	return hit
}

func (c *cacheAside) set(ctx context.Context, key string, value any, ttl time.Duration) {
	if c.store == nil {
		return
	}
	if err := c.store.SetJSON(ctx, key, value, ttl); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("cache write failed")
	}
}

// invalidate deletes every key derived from the mutated entity. It must run
// after the store write succeeds and before the caller sees success.
func (c *cacheAside) invalidate(ctx context.Context, m internalRedis.Mutation) {
	keys := internalRedis.KeysFor(m)
	if c.store == nil || len(keys) == 0 {
		return
	}
	if _, err := c.store.Delete(ctx, keys...); err != nil {
		c.log.WithError(err).WithField("keys", keys).Warn("cache invalidation failed, entries expire at TTL")
	}
}

// readThrough serves key from the cache or loads it from the store and
// populates the cache.
func readThrough[T any](ctx context.Context, c *cacheAside, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var cached T
	if c.get(ctx, key, &cached) {
		return cached, nil
	}

	value, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	c.set(ctx, key, value, ttl)
	return value, nil
}
