package backends

import (
	"errors"

	"github.com/botirk38/imagesim/backends/inmemory"
	"github.com/botirk38/imagesim/backends/remote"
	"github.com/botirk38/imagesim/types"
)

var ErrUnsupportedCache = errors.New("unsupported cache type")

// CacheFactory creates byte caches based on type and configuration
type CacheFactory struct{}

// NewCache creates a new byte cache of the specified type
func (f *CacheFactory) NewCache(cacheType types.CacheType, config types.CacheConfig) (types.ByteCache, error) {
	switch cacheType {
	case types.CacheLRU:
		return NewLRUCache(config)
	case types.CacheFIFO:
		return NewFIFOCache(config)
	case types.CacheLFU:
		return NewLFUCache(config)
	case types.CacheRedis:
		return NewRedisCache(config)
	default:
		return nil, ErrUnsupportedCache
	}
}

// NewLRUCache creates a new LRU byte cache
func NewLRUCache(config types.CacheConfig) (types.ByteCache, error) {
	return inmemory.NewLRUCache(config)
}

// NewFIFOCache creates a new FIFO byte cache
func NewFIFOCache(config types.CacheConfig) (types.ByteCache, error) {
	return inmemory.NewFIFOCache(config)
}

// NewLFUCache creates a new LFU byte cache
func NewLFUCache(config types.CacheConfig) (types.ByteCache, error) {
	return inmemory.NewLFUCache(config)
}

// NewRedisCache creates a new Redis byte cache
func NewRedisCache(config types.CacheConfig) (types.ByteCache, error) {
	return remote.NewRedisCache(config)
}
