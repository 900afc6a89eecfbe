package inmemory

import (
	"context"
	"sync"

	"github.com/botirk38/imagesim/types"
)

// FIFOCache implements ByteCache using FIFO (First In, First Out) eviction policy
type FIFOCache struct {
	mu       *sync.RWMutex
	payloads map[string][]byte
	queue    []string
	capacity int
}

// NewFIFOCache creates a new FIFO byte cache
func NewFIFOCache(config types.CacheConfig) (*FIFOCache, error) {
	return &FIFOCache{
		mu:       &sync.RWMutex{},
		payloads: make(map[string][]byte),
		queue:    make([]string, 0, config.Capacity),
		capacity: config.Capacity,
	}, nil
}

// Get retrieves a payload from the FIFO cache
func (c *FIFOCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	payload, found := c.payloads[key]
	return payload, found, nil
}

// Set stores a payload in the FIFO cache
func (c *FIFOCache) Set(ctx context.Context, key string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// If key already exists, update it without touching queue order
	if _, exists := c.payloads[key]; exists {
		c.payloads[key] = payload
		return nil
	}

	// Evict oldest entries to make room
	for c.capacity > 0 && len(c.queue) >= c.capacity {
		oldest := c.queue[0]
		c.queue = c.queue[1:]
		delete(c.payloads, oldest)
	}

	c.payloads[key] = payload
	c.queue = append(c.queue, key)
	return nil
}

// Delete removes a payload from the FIFO cache
func (c *FIFOCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.payloads[key]; !exists {
		return nil
	}

	delete(c.payloads, key)
	for i, queued := range c.queue {
		if queued == key {
			c.queue = append(c.queue[:i], c.queue[i+1:]...)
			break
		}
	}
	return nil
}

// Flush clears all payloads from the FIFO cache
func (c *FIFOCache) Flush(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.payloads = make(map[string][]byte)
	c.queue = c.queue[:0]
	return nil
}

// Len returns the number of payloads in the FIFO cache
func (c *FIFOCache) Len(ctx context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.payloads), nil
}

// Close closes the FIFO cache (no-op for in-memory)
func (c *FIFOCache) Close() error {
	return nil
}
