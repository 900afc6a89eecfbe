package types

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"time"
)

// Canonical pixel grid dimensions expected by the embedding models.
const (
	GridWidth    = 224
	GridHeight   = 224
	GridChannels = 3
)

// PixelGrid holds a decoded image as a fixed-size RGB float grid.
// Data is row-major with interleaved channels, values in [0, 255].
type PixelGrid struct {
	Width  int
	Height int
	Data   []float32
}

// NewPixelGrid allocates a zeroed grid of the given size.
func NewPixelGrid(width, height int) *PixelGrid {
	return &PixelGrid{
		Width:  width,
		Height: height,
		Data:   make([]float32, width*height*GridChannels),
	}
}

// GridFromImage converts a decoded image into a pixel grid of the same size.
func GridFromImage(img image.Image) *PixelGrid {
	bounds := img.Bounds()
	grid := NewPixelGrid(bounds.Dx(), bounds.Dy())

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			grid.Data[i] = float32(r >> 8)
			grid.Data[i+1] = float32(g >> 8)
			grid.Data[i+2] = float32(b >> 8)
			i += GridChannels
		}
	}
	return grid
}

// Image converts the grid back into an image, clamping values to [0, 255].
func (p *PixelGrid) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, p.Width, p.Height))

	i := 0
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: clampByte(p.Data[i]),
				G: clampByte(p.Data[i+1]),
				B: clampByte(p.Data[i+2]),
				A: 0xff,
			})
			i += GridChannels
		}
	}
	return img
}

// EncodePNG serializes the grid as a PNG payload, the wire format used by
// remote embedding providers.
func (p *PixelGrid) EncodePNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, p.Image()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func clampByte(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

// Record is one indexed entry in a rebuilt collection: the source URL, its
// optional title and the embedding vector derived from its pixels.
type Record struct {
	URL      string
	Title    string
	HasTitle bool
	Vector   []float32
}

// Model defines the interface all embedding models must satisfy. A model
// takes a batch of canonical pixel grids and returns one fixed-length vector
// per grid. Implementations are inference-only and safe to share across
// calls; weights are never mutated at runtime.
type Model interface {
	// Infer embeds a batch of pixel grids.
	Infer(ctx context.Context, batch []*PixelGrid) ([][]float32, error)
	// Dimensions returns the length of the vectors the model produces.
	Dimensions() int
	// Close frees any resources held by the model.
	Close()
}

// Fetcher retrieves an image location and decodes it to the canonical grid.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*PixelGrid, error)
}

// ByteCache caches raw fetched image payloads keyed by URL. This allows
// repeated locations within a run to skip the network round trip.
type ByteCache interface {
	// Get retrieves a cached payload by key
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a payload under key
	Set(ctx context.Context, key string, payload []byte) error

	// Delete removes a payload by key
	Delete(ctx context.Context, key string) error

	// Flush clears all cached payloads
	Flush(ctx context.Context) error

	// Len returns the number of cached payloads
	Len(ctx context.Context) (int, error)

	// Close closes the cache and releases resources
	Close() error
}

// CacheConfig provides configuration options for byte caches
type CacheConfig struct {
	// For in-memory caches
	Capacity int

	// For Redis
	ConnectionString string
	Username         string
	Password         string
	Database         int
	TTL              time.Duration
}

// CacheType represents the type of byte cache
type CacheType string

const (
	CacheLRU   CacheType = "lru"
	CacheFIFO  CacheType = "fifo"
	CacheLFU   CacheType = "lfu"
	CacheRedis CacheType = "redis"
)

// ProviderType represents the type of embedding model provider
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderGemini ProviderType = "gemini"
)
