package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
)

// maxCacheValueBytes caps a single encoded entry. Normalised logos stay
// well below it.
const maxCacheValueBytes = 1 << 20

// CacheRepository stores JSON encoded values in Redis. A nil client turns
// every read into a miss and every write into a no-op.
type CacheRepository struct {
	client   *redis.Client
	logger   *zap.Logger
	maxBytes int
}

// NewCacheRepository constructs a cache repository.
func NewCacheRepository(client *redis.Client, logger *zap.Logger) *CacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheRepository{client: client, logger: logger, maxBytes: maxCacheValueBytes}
}

// Get retrieves and unmarshals the cached value into dest. A value that no
// longer decodes is dropped and reported as a miss.
func (r *CacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	if r.client == nil {
		return appErrors.ErrCacheMiss
	}

	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("redis get %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		r.logger.Sugar().Warnw("dropping undecodable cache entry", "key", key, "error", err)
		if delErr := r.client.Del(ctx, key).Err(); delErr != nil {
			r.logger.Sugar().Warnw("cache delete failed", "key", key, "error", delErr)
		}
		return appErrors.ErrCacheMiss
	}
	return nil
}

// Set marshals value and stores it with the given TTL. Oversized values
// are skipped.
func (r *CacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}
	if len(payload) > r.maxBytes {
		r.logger.Sugar().Infow("cache value too large, skipped", "key", key, "bytes", len(payload))
		return nil
	}

	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Ping reports whether Redis answers; a nil client is healthy.
func (r *CacheRepository) Ping(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying Redis connection if present.
func (r *CacheRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
