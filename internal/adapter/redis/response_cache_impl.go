package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/user/schema-cache/internal/entity"
	"github.com/user/schema-cache/internal/repository"
	"github.com/user/schema-cache/pkg/utils"
)

const responseCachePrefix = "edge:response:"

// ResponseCacheRepoImpl provides a concrete implementation for the ResponseCacheRepository interface using Redis.
type ResponseCacheRepoImpl struct {
	client redis.Cmdable
}

// NewResponseCacheRepo creates a new instance of ResponseCacheRepoImpl.
func NewResponseCacheRepo(client redis.Cmdable) *ResponseCacheRepoImpl {
	return &ResponseCacheRepoImpl{client: client}
}

// generateKey creates a consistent Redis key for a request URL by hashing it.
func (r *ResponseCacheRepoImpl) generateKey(key string) string {
	return fmt.Sprintf("%s%s", responseCachePrefix, utils.HashURL(key))
}

// Get loads a cached response, returning repository.ErrCacheMiss when the key is absent or expired.
func (r *ResponseCacheRepoImpl) Get(ctx context.Context, key string) (*entity.CachedResponse, error) {
	data, err := r.client.Get(ctx, r.generateKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrCacheMiss
		}
		return nil, err
	}
	var resp entity.CachedResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode cached response: %w", err)
	}
	return &resp, nil
}

// Put stores the response with an expiry; SET with EX is atomic.
func (r *ResponseCacheRepoImpl) Put(ctx context.Context, key string, resp *entity.CachedResponse, ttl time.Duration) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.generateKey(key), data, ttl).Err()
}

// Ping checks that Redis is reachable.
func (r *ResponseCacheRepoImpl) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
