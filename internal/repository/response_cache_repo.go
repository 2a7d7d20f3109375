package repository

import (
	"context"
	"time"

	"github.com/user/schema-cache/internal/entity"
)

// ResponseCacheRepository defines the shared cache used by the edge layer.
type ResponseCacheRepository interface {
	// Get returns ErrCacheMiss if nothing is stored for key.
	Get(ctx context.Context, key string) (*entity.CachedResponse, error)
	// Put stores resp under key for ttl.
	Put(ctx context.Context, key string, resp *entity.CachedResponse, ttl time.Duration) error
}
