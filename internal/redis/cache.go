package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheStore is a JSON look-aside cache over Redis.
type CacheStore struct {
	client redis.Cmdable
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client redis.Cmdable) *CacheStore {
	return &CacheStore{client: client}
}

// GetJSON decodes the value stored at key into dest.
// It returns false with a nil error on a cache miss.
func (s *CacheStore) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil // Cache miss
		}
		return false, err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON stores value at key. A zero ttl stores the value without expiry.
func (s *CacheStore) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

// Delete removes keys and returns how many existed.
func (s *CacheStore) Delete(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	return s.client.Del(ctx, keys...).Result()
}
