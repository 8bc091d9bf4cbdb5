package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sma-adp-console/pkg/errors"
)

// ViewStateRepository stores JSON documents in Redis under a key prefix.
type ViewStateRepository struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewViewStateRepository constructs the repository. A nil client turns every
// read into a miss and every write into a no-op.
func NewViewStateRepository(client *redis.Client, prefix string, logger *zap.Logger) *ViewStateRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ViewStateRepository{client: client, prefix: prefix, logger: logger}
}

// Get unmarshals the stored document into dest or returns ErrCacheMiss.
func (r *ViewStateRepository) Get(ctx context.Context, key string, dest interface{}) error {
	if r.client == nil {
		return appErrors.ErrCacheMiss
	}

	raw, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("redis get %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal view state %s: %w", key, err)
	}
	return nil
}

// Set stores value with the given TTL.
func (r *ViewStateRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal view state %s: %w", key, err)
	}
	if err := r.client.Set(ctx, r.key(key), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// DeleteByPattern removes every key matching pattern below the prefix.
func (r *ViewStateRepository) DeleteByPattern(ctx context.Context, pattern string) error {
	if r.client == nil {
		return nil
	}

	iter := r.client.Scan(ctx, 0, r.key(pattern), 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if err := r.client.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("redis delete %s: %w", key, err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan pattern %s: %w", pattern, err)
	}
	return nil
}

// Ping reports whether Redis answers.
func (r *ViewStateRepository) Ping(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	return r.client.Ping(ctx).Err()
}

// Close releases the Redis connection if present.
func (r *ViewStateRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

func (r *ViewStateRepository) key(k string) string {
	if r.prefix == "" {
		return k
	}
	return r.prefix + ":" + k
}
