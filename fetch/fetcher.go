// Package fetch retrieves images over HTTP and decodes them to the canonical
// pixel grid consumed by embedding models.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/botirk38/imagesim/types"
)

// ErrFetchFailed indicates an image could not be retrieved or decoded.
// Callers treat this as a per-item failure, not a fatal condition.
var ErrFetchFailed = errors.New("image fetch failed")

// DefaultTimeout bounds a single fetch attempt.
const DefaultTimeout = 30 * time.Second

// Config provides configuration options for a Fetcher.
type Config struct {
	// Client is the HTTP client used for retrieval. Defaults to a client
	// with DefaultTimeout.
	Client *http.Client

	// Size is the edge length of the canonical square grid.
	// Defaults to types.GridWidth.
	Size int

	// Cache, if set, short-circuits retrieval for payloads already fetched
	// under the same URL.
	Cache types.ByteCache
}

// Fetcher retrieves image payloads over HTTP and normalizes them to a fixed
// square RGB pixel grid. A single Fetch performs exactly one attempt; retry
// policy is left to the caller.
type Fetcher struct {
	client *http.Client
	size   int
	cache  types.ByteCache
}

// NewFetcher creates a Fetcher with the given configuration.
func NewFetcher(config Config) *Fetcher {
	client := config.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}

	size := config.Size
	if size <= 0 {
		size = types.GridWidth
	}

	return &Fetcher{
		client: client,
		size:   size,
		cache:  config.Cache,
	}
}

// Fetch retrieves the image at url and returns it as a canonical pixel grid.
// Any transport, status or decode problem is reported as an error wrapping
// ErrFetchFailed.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*types.PixelGrid, error) {
	payload, err := f.payload(ctx, url)
	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrFetchFailed, url, err)
	}

	return f.canonical(img), nil
}

// payload returns the raw bytes for url, consulting the cache first.
func (f *Fetcher) payload(ctx context.Context, url string) ([]byte, error) {
	if f.cache != nil {
		if cached, found, err := f.cache.Get(ctx, url); err == nil && found {
			return cached, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrFetchFailed, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d for %s", ErrFetchFailed, resp.StatusCode, url)
	}

	// The body may arrive in more chunks than the declared content length
	// suggests; accumulate the full stream before decoding.
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrFetchFailed, err)
	}

	if resp.ContentLength >= 0 && int64(len(payload)) < resp.ContentLength {
		return nil, fmt.Errorf("%w: truncated body for %s: got %d of %d bytes",
			ErrFetchFailed, url, len(payload), resp.ContentLength)
	}

	if f.cache != nil {
		// The cache is advisory; a failed store never fails the fetch.
		_ = f.cache.Set(ctx, url, payload)
	}

	return payload, nil
}

// canonical center-crops img to a square and scales it to size×size.
func (f *Fetcher) canonical(img image.Image) *types.PixelGrid {
	src := img.Bounds()

	edge := src.Dx()
	if src.Dy() < edge {
		edge = src.Dy()
	}
	crop := image.Rect(0, 0, edge, edge).
		Add(image.Pt(src.Min.X+(src.Dx()-edge)/2, src.Min.Y+(src.Dy()-edge)/2))

	dst := image.NewRGBA(image.Rect(0, 0, f.size, f.size))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, crop, draw.Src, nil)

	return types.GridFromImage(dst)
}
