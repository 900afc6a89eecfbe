// Package embed turns canonical pixel grids into embedding vectors using a
// pluggable model and preprocessing transform.
package embed

import (
	"context"
	"errors"
	"fmt"

	"github.com/botirk38/imagesim/types"
)

// PreprocessFunc transforms a pixel grid into the model's expected input
// (scaling, mean subtraction, channel reordering). The input grid is not
// modified.
type PreprocessFunc func(*types.PixelGrid) *types.PixelGrid

// CLIP-family normalization constants (mean/std per RGB channel).
var (
	clipMean = [3]float32{0.48145466, 0.4578275, 0.40821073}
	clipStd  = [3]float32{0.26862954, 0.26130258, 0.27577711}
)

// DefaultPreprocess scales pixel values from [0, 255] to [0, 1] and
// normalizes each channel with the CLIP mean and standard deviation. This is
// the documented default pair with the default OpenAI-compatible provider.
func DefaultPreprocess(grid *types.PixelGrid) *types.PixelGrid {
	out := types.NewPixelGrid(grid.Width, grid.Height)
	for i, v := range grid.Data {
		c := i % types.GridChannels
		out.Data[i] = (v/255 - clipMean[c]) / clipStd[c]
	}
	return out
}

// IdentityPreprocess passes the grid through unchanged. Remote providers
// that accept encoded images perform their own preprocessing server-side.
func IdentityPreprocess(grid *types.PixelGrid) *types.PixelGrid {
	return grid
}

// Extractor wraps an embedding model with its preprocessing transform. It
// holds no mutable state beyond the injected references and is a pure
// function of its inputs.
type Extractor struct {
	model      types.Model
	preprocess PreprocessFunc
}

// NewExtractor creates an Extractor for the given model. A nil preprocess
// falls back to DefaultPreprocess.
func NewExtractor(model types.Model, preprocess PreprocessFunc) (*Extractor, error) {
	if model == nil {
		return nil, errors.New("model cannot be nil")
	}
	if preprocess == nil {
		preprocess = DefaultPreprocess
	}

	return &Extractor{
		model:      model,
		preprocess: preprocess,
	}, nil
}

// Dimensions returns the vector length of the underlying model.
func (e *Extractor) Dimensions() int {
	return e.model.Dimensions()
}

// Extract embeds a single pixel grid via a one-item batch. A nil grid means
// the upstream fetch produced nothing; extraction is skipped and (nil, nil)
// is returned so the caller can drop the item.
func (e *Extractor) Extract(ctx context.Context, grid *types.PixelGrid) ([]float32, error) {
	if grid == nil {
		return nil, nil
	}

	rows, err := e.model.Infer(ctx, []*types.PixelGrid{e.preprocess(grid)})
	if err != nil {
		return nil, fmt.Errorf("model inference: %w", err)
	}
	if len(rows) == 0 {
		return nil, errors.New("model returned no rows")
	}

	return rows[0], nil
}
