package providers

import (
	"context"
	"errors"

	"github.com/botirk38/imagesim/providers/gemini"
	"github.com/botirk38/imagesim/providers/openai"
	"github.com/botirk38/imagesim/types"
)

var ErrUnsupportedProvider = errors.New("unsupported provider type")

// Config provides provider-agnostic configuration options; fields not used
// by a given provider are ignored.
type Config struct {
	APIKey     string
	BaseURL    string
	OrgID      string
	Model      string
	Dimensions int
}

// ProviderFactory creates embedding models based on type and configuration
type ProviderFactory struct{}

// NewProvider creates a new embedding model of the specified type
func (f *ProviderFactory) NewProvider(ctx context.Context, providerType types.ProviderType, config Config) (types.Model, error) {
	switch providerType {
	case types.ProviderOpenAI:
		return NewOpenAIProvider(openai.Config{
			APIKey:     config.APIKey,
			BaseURL:    config.BaseURL,
			OrgID:      config.OrgID,
			Model:      config.Model,
			Dimensions: config.Dimensions,
		})
	case types.ProviderGemini:
		return NewGeminiProvider(ctx, gemini.Config{
			APIKey:     config.APIKey,
			Model:      config.Model,
			Dimensions: config.Dimensions,
		})
	default:
		return nil, ErrUnsupportedProvider
	}
}

// NewOpenAIProvider creates a new OpenAI-compatible image embedding provider
func NewOpenAIProvider(config openai.Config) (types.Model, error) {
	return openai.NewProvider(config)
}

// NewGeminiProvider creates a new Gemini image embedding provider
func NewGeminiProvider(ctx context.Context, config gemini.Config) (types.Model, error) {
	return gemini.NewProvider(ctx, config)
}
