package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const scanBatch = 200

// QueryCache stores serialized query envelopes.
// Key format: query:<caller_hash>:<path>?<query>
type QueryCache struct {
	client *redis.Client
}

// NewQueryCache creates a QueryCache wrapping the given Redis client.
func NewQueryCache(client *redis.Client) *QueryCache {
	return &QueryCache{client: client}
}

// Get returns the cached value and whether it was present.
func (q *QueryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := q.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query cache get: %w", err)
	}
	return val, true, nil
}

// Set stores value under key (expires after ttl).
func (q *QueryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := q.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("query cache set: %w", err)
	}
	return nil
}

// DeletePrefix removes every key starting with prefix.
func (q *QueryCache) DeletePrefix(ctx context.Context, prefix string) error {
	iter := q.client.Scan(ctx, 0, prefix+"*", scanBatch).Iterator()
	keys := make([]string, 0, scanBatch)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) == scanBatch {
			if err := q.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("query cache invalidate: %w", err)
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("query cache scan: %w", err)
	}
	if len(keys) > 0 {
		if err := q.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("query cache invalidate: %w", err)
		}
	}
	return nil
}
