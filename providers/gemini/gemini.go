package gemini

import (
	"context"
	"errors"
	"fmt"
	"os"

	"google.golang.org/genai"

	"github.com/botirk38/imagesim/types"
)

const (
	// DefaultModel is Google's multimodal embedding model.
	DefaultModel = "multimodalembedding@001"

	// DefaultDimensions is the vector length of DefaultModel.
	DefaultDimensions = 1408
)

// Provider embeds images through Google's GenAI SDK using a multimodal
// embedding model. Pixel grids are PNG-encoded and submitted as inline data.
type Provider struct {
	client     *genai.Client
	model      string
	dimensions int
}

// Config provides configuration options for the Gemini provider
type Config struct {
	APIKey     string
	Model      string
	Dimensions int
}

// NewProvider creates an image embedding provider backed by Google's
// multimodal embedding API.
func NewProvider(ctx context.Context, config Config) (*Provider, error) {
	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			return nil, errors.New("Gemini API key is required")
		}
	}

	model := config.Model
	if model == "" {
		model = DefaultModel
	}

	dimensions := config.Dimensions
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Provider{client: client, model: model, dimensions: dimensions}, nil
}

// Infer sends the batch as inline image contents and returns one vector per
// grid, in input order.
func (p *Provider) Infer(ctx context.Context, batch []*types.PixelGrid) ([][]float32, error) {
	contents := make([]*genai.Content, len(batch))
	for i, grid := range batch {
		payload, err := grid.EncodePNG()
		if err != nil {
			return nil, fmt.Errorf("encode grid %d: %w", i, err)
		}
		contents[i] = &genai.Content{
			Parts: []*genai.Part{
				{InlineData: &genai.Blob{MIMEType: "image/png", Data: payload}},
			},
		}
	}

	result, err := p.client.Models.EmbedContent(ctx, p.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini embedding failed: %w", err)
	}
	if len(result.Embeddings) != len(batch) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(batch), len(result.Embeddings))
	}

	vectors := make([][]float32, len(result.Embeddings))
	for i, embedding := range result.Embeddings {
		vectors[i] = embedding.Values
	}
	return vectors, nil
}

// Dimensions returns the configured vector length.
func (p *Provider) Dimensions() int {
	return p.dimensions
}

func (p *Provider) Close() {}
