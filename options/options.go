// Package options provides functional options for configuring Index instances.
package options

import (
	"context"
	"errors"
	"time"

	"github.com/botirk38/imagesim/backends"
	"github.com/botirk38/imagesim/embed"
	"github.com/botirk38/imagesim/providers/gemini"
	"github.com/botirk38/imagesim/providers/openai"
	"github.com/botirk38/imagesim/similarity"
	"github.com/botirk38/imagesim/types"
)

// DefaultThrottle is the pause between consecutive fetch attempts during a
// rebuild, keeping load on the image source low.
const DefaultThrottle = 100 * time.Millisecond

// Option represents a configuration option for an Index
type Option func(*Config) error

// Config holds the configuration for building an Index
type Config struct {
	Model      types.Model
	Preprocess embed.PreprocessFunc
	Fetcher    types.Fetcher
	Cache      types.ByteCache
	Comparator similarity.SimilarityFunc
	Throttle   time.Duration
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		Comparator: similarity.CosineSimilarity,
		Throttle:   DefaultThrottle,
	}
}

// Apply applies all the given options to the config
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Comparator == nil {
		return errors.New("comparator cannot be nil")
	}
	if c.Throttle < 0 {
		return errors.New("throttle cannot be negative")
	}
	return nil
}

// WithOpenAIProvider sets up an OpenAI-compatible embedding model
func WithOpenAIProvider(apiKey string, model ...string) Option {
	return func(cfg *Config) error {
		config := openai.Config{
			APIKey: apiKey,
		}
		if len(model) > 0 {
			config.Model = model[0]
		}

		provider, err := openai.NewProvider(config)
		if err != nil {
			return err
		}
		cfg.Model = provider
		return nil
	}
}

// WithGeminiProvider sets up a Gemini multimodal embedding model
func WithGeminiProvider(ctx context.Context, apiKey string, model ...string) Option {
	return func(cfg *Config) error {
		config := gemini.Config{
			APIKey: apiKey,
		}
		if len(model) > 0 {
			config.Model = model[0]
		}

		provider, err := gemini.NewProvider(ctx, config)
		if err != nil {
			return err
		}
		cfg.Model = provider
		return nil
	}
}

// WithCustomModel allows using a pre-configured embedding model
func WithCustomModel(model types.Model) Option {
	return func(cfg *Config) error {
		if model == nil {
			return errors.New("model cannot be nil")
		}
		cfg.Model = model
		return nil
	}
}

// WithPreprocess sets the preprocessing transform applied before inference
func WithPreprocess(preprocess embed.PreprocessFunc) Option {
	return func(cfg *Config) error {
		if preprocess == nil {
			return errors.New("preprocess cannot be nil")
		}
		cfg.Preprocess = preprocess
		return nil
	}
}

// WithFetcher allows using a pre-configured image fetcher
func WithFetcher(fetcher types.Fetcher) Option {
	return func(cfg *Config) error {
		if fetcher == nil {
			return errors.New("fetcher cannot be nil")
		}
		cfg.Fetcher = fetcher
		return nil
	}
}

// WithLRUCache sets up an LRU in-memory cache for fetched payloads
func WithLRUCache(capacity int) Option {
	return func(cfg *Config) error {
		cache, err := backends.NewLRUCache(types.CacheConfig{
			Capacity: capacity,
		})
		if err != nil {
			return err
		}
		cfg.Cache = cache
		return nil
	}
}

// WithFIFOCache sets up a FIFO in-memory cache for fetched payloads
func WithFIFOCache(capacity int) Option {
	return func(cfg *Config) error {
		cache, err := backends.NewFIFOCache(types.CacheConfig{
			Capacity: capacity,
		})
		if err != nil {
			return err
		}
		cfg.Cache = cache
		return nil
	}
}

// WithLFUCache sets up an LFU in-memory cache for fetched payloads
func WithLFUCache(capacity int) Option {
	return func(cfg *Config) error {
		cache, err := backends.NewLFUCache(types.CacheConfig{
			Capacity: capacity,
		})
		if err != nil {
			return err
		}
		cfg.Cache = cache
		return nil
	}
}

// WithRedisCache sets up a Redis cache for fetched payloads
func WithRedisCache(addr string, db int) Option {
	return func(cfg *Config) error {
		cache, err := backends.NewRedisCache(types.CacheConfig{
			ConnectionString: addr,
			Database:         db,
		})
		if err != nil {
			return err
		}
		cfg.Cache = cache
		return nil
	}
}

// WithCustomCache allows using a pre-configured byte cache
func WithCustomCache(cache types.ByteCache) Option {
	return func(cfg *Config) error {
		if cache == nil {
			return errors.New("cache cannot be nil")
		}
		cfg.Cache = cache
		return nil
	}
}

// WithComparator sets a custom similarity function
func WithComparator(comparator similarity.SimilarityFunc) Option {
	return func(cfg *Config) error {
		if comparator == nil {
			return errors.New("comparator cannot be nil")
		}
		cfg.Comparator = comparator
		return nil
	}
}

// WithThrottle sets the pause between consecutive fetch attempts
func WithThrottle(throttle time.Duration) Option {
	return func(cfg *Config) error {
		if throttle < 0 {
			return errors.New("throttle cannot be negative")
		}
		cfg.Throttle = throttle
		return nil
	}
}
