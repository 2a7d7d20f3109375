package memory

import (
	"context"
	"sync"
	"time"

	"github.com/user/schema-cache/internal/entity"
	"github.com/user/schema-cache/internal/repository"
)

type cacheEntry struct {
	resp      entity.CachedResponse
	expiresAt time.Time
}

// ResponseCache is a single-process ResponseCacheRepository with per-entry expiry.
type ResponseCache struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]cacheEntry
}

// NewResponseCache creates an empty ResponseCache.
func NewResponseCache() *ResponseCache {
	return &ResponseCache{now: time.Now, entries: make(map[string]cacheEntry)}
}

// WithClock replaces the time source used for expiry.
func (c *ResponseCache) WithClock(now func() time.Time) *ResponseCache {
	c.now = now
	return c
}

func (c *ResponseCache) Get(_ context.Context, key string) (*entity.CachedResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, repository.ErrCacheMiss
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return nil, repository.ErrCacheMiss
	}
	return copyResponse(&e.resp), nil
}

func (c *ResponseCache) Put(_ context.Context, key string, resp *entity.CachedResponse, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{resp: *copyResponse(resp), expiresAt: c.now().Add(ttl)}
	return nil
}

// Len reports how many entries are stored, expired or not.
func (c *ResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func copyResponse(resp *entity.CachedResponse) *entity.CachedResponse {
	return &entity.CachedResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       append([]byte(nil), resp.Body...),
	}
}
