package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/botirk38/imagesim/types"
)

const (
	// DefaultModel is a CLIP-family checkpoint commonly served by
	// OpenAI-compatible inference servers (LocalAI, vLLM and friends).
	DefaultModel = "clip-vit-base-patch32"

	// DefaultDimensions is the vector length of DefaultModel.
	DefaultDimensions = 512
)

// Provider embeds images through an OpenAI-compatible embeddings endpoint.
// Pixel grids are PNG-encoded and submitted as base64 input strings, the
// convention used by compatible servers hosting vision models.
type Provider struct {
	client     *openai.Client
	model      string
	dimensions int
}

// Config provides configuration options for the OpenAI-compatible provider
type Config struct {
	APIKey     string
	BaseURL    string
	OrgID      string
	Model      string
	Dimensions int
}

// NewProvider creates an image embedding provider backed by an
// OpenAI-compatible endpoint.
func NewProvider(config Config) (*Provider, error) {
	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, errors.New("OpenAI API key is required")
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

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}

	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	if config.OrgID != "" {
		opts = append(opts, option.WithOrganization(config.OrgID))
	}

	client := openai.NewClient(opts...)
	return &Provider{client: &client, model: model, dimensions: dimensions}, nil
}

// Infer sends the batch to the embeddings endpoint and returns one vector
// per grid, in input order.
func (p *Provider) Infer(ctx context.Context, batch []*types.PixelGrid) ([][]float32, error) {
	inputs := make([]string, len(batch))
	for i, grid := range batch {
		payload, err := grid.EncodePNG()
		if err != nil {
			return nil, fmt.Errorf("encode grid %d: %w", i, err)
		}
		inputs[i] = base64.StdEncoding.EncodeToString(payload)
	}

	resp, err := p.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(p.model),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: inputs,
		},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(batch) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(batch), len(resp.Data))
	}

	// The API returns []float64 with explicit row indices; convert to
	// []float32 and restore input order.
	vectors := make([][]float32, len(batch))
	for _, row := range resp.Data {
		vector := make([]float32, len(row.Embedding))
		for i, v := range row.Embedding {
			vector[i] = float32(v)
		}
		if row.Index < 0 || int(row.Index) >= len(vectors) {
			return nil, fmt.Errorf("embedding row index %d out of range", row.Index)
		}
		vectors[row.Index] = vector
	}
	return vectors, nil
}

// Dimensions returns the configured vector length.
func (p *Provider) Dimensions() int {
	return p.dimensions
}

func (p *Provider) Close() {}
