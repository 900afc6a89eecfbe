package inmemory

import (
	"context"
	"sync"

	"github.com/botirk38/imagesim/types"
)

// lfuEntry wraps a payload with frequency tracking
type lfuEntry struct {
	payload   []byte
	frequency int
}

// LFUCache implements ByteCache using LFU (Least Frequently Used) eviction policy
type LFUCache struct {
	mu       *sync.RWMutex
	entries  map[string]*lfuEntry
	capacity int
}

// NewLFUCache creates a new LFU byte cache
func NewLFUCache(config types.CacheConfig) (*LFUCache, error) {
	return &LFUCache{
		mu:       &sync.RWMutex{},
		entries:  make(map[string]*lfuEntry),
		capacity: config.Capacity,
	}, nil
}

// Get retrieves a payload from the LFU cache and increments its frequency
func (c *LFUCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok {
		entry.frequency++
		return entry.payload, true, nil
	}
	return nil, false, nil
}

// Set stores a payload in the LFU cache
func (c *LFUCache) Set(ctx context.Context, key string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// If key already exists, update it and increment frequency
	if entry, exists := c.entries[key]; exists {
		entry.payload = payload
		entry.frequency++
		return nil
	}

	// If at capacity, evict the least frequently used payload
	if len(c.entries) >= c.capacity && c.capacity > 0 {
		c.evictLFU()
	}

	// Add new payload with frequency 1
	c.entries[key] = &lfuEntry{
		payload:   payload,
		frequency: 1,
	}
	return nil
}

// evictLFU removes the least frequently used payload
func (c *LFUCache) evictLFU() {
	var lfuKey string
	minFreq := int(^uint(0) >> 1) // Max int value

	for key, entry := range c.entries {
		if entry.frequency < minFreq {
			minFreq = entry.frequency
			lfuKey = key
		}
	}

	delete(c.entries, lfuKey)
}

// Delete removes a payload from the LFU cache
func (c *LFUCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	return nil
}

// Flush clears all payloads from the LFU cache
func (c *LFUCache) Flush(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*lfuEntry)
	return nil
}

// Len returns the number of payloads in the LFU cache
func (c *LFUCache) Len(ctx context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries), nil
}

// Close closes the LFU cache (no-op for in-memory)
func (c *LFUCache) Close() error {
	return nil
}
