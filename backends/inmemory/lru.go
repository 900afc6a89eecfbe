package inmemory

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/botirk38/imagesim/types"
)

// LRUCache implements ByteCache using LRU eviction policy
type LRUCache struct {
	cache *lru.Cache[string, []byte]
}

// NewLRUCache creates a new LRU byte cache
func NewLRUCache(config types.CacheConfig) (*LRUCache, error) {
	lruCache, err := lru.New[string, []byte](config.Capacity)
	if err != nil {
		return nil, err
	}

	return &LRUCache{cache: lruCache}, nil
}

// Get retrieves a payload from the LRU cache
func (c *LRUCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if payload, ok := c.cache.Get(key); ok {
		return payload, true, nil
	}
	return nil, false, nil
}

// Set stores a payload in the LRU cache
func (c *LRUCache) Set(ctx context.Context, key string, payload []byte) error {
	c.cache.Add(key, payload)
	return nil
}

// Delete removes a payload from the LRU cache
func (c *LRUCache) Delete(ctx context.Context, key string) error {
	c.cache.Remove(key)
	return nil
}

// Flush clears all payloads from the LRU cache
func (c *LRUCache) Flush(ctx context.Context) error {
	c.cache.Purge()
	return nil
}

// Len returns the number of payloads in the LRU cache
func (c *LRUCache) Len(ctx context.Context) (int, error) {
	return c.cache.Len(), nil
}

// Close closes the LRU cache (no-op for in-memory)
func (c *LRUCache) Close() error {
	return nil
}
