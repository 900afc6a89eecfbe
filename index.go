// Package imagesim ranks a collection of images by visual similarity. Each
// image location is fetched, normalized and embedded through a
// feature-extraction model; queries then find the nearest neighbors of a
// reference entry in embedding space.
package imagesim

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/botirk38/imagesim/embed"
	"github.com/botirk38/imagesim/fetch"
	"github.com/botirk38/imagesim/options"
	"github.com/botirk38/imagesim/providers/openai"
	"github.com/botirk38/imagesim/similarity"
	"github.com/botirk38/imagesim/types"
)

// Index holds the embedded records for one batch of image locations and
// answers nearest-neighbor queries against them. Records are dense and keep
// the relative order of their source locations; failed items are dropped,
// not represented as holes.
//
// An Index is not safe for concurrent use. A caller sharing one instance
// must serialize access externally, in particular around Rebuild.
type Index struct {
	fetcher    types.Fetcher
	extractor  *embed.Extractor
	comparator similarity.SimilarityFunc
	throttle   time.Duration
	records    []Record
}

// Match represents a similarity query result: the position of the matched
// record and its title, when one was supplied at rebuild time.
type Match struct {
	Index    int
	Title    string
	HasTitle bool
	Score    float32
}

// DroppedItem reports one input that did not make it into the rebuilt
// collection and why.
type DroppedItem struct {
	URL string
	Err error
}

// RebuildResult reports the outcome of a rebuild: the retained records and
// the inputs that were dropped.
type RebuildResult struct {
	Records []Record
	Dropped []DroppedItem
}

// New creates an Index with functional options. Without an explicit model
// the default OpenAI-compatible provider is used (see providers/openai),
// paired with embed.DefaultPreprocess.
func New(opts ...options.Option) (*Index, error) {
	cfg := options.NewConfig()

	if err := cfg.Apply(opts...); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	model := cfg.Model
	if model == nil {
		provider, err := openai.NewProvider(openai.Config{})
		if err != nil {
			return nil, fmt.Errorf("default model: %w", err)
		}
		model = provider
	}

	extractor, err := embed.NewExtractor(model, cfg.Preprocess)
	if err != nil {
		return nil, err
	}

	fetcher := cfg.Fetcher
	if fetcher == nil {
		fetcher = fetch.NewFetcher(fetch.Config{Cache: cfg.Cache})
	}

	return &Index{
		fetcher:    fetcher,
		extractor:  extractor,
		comparator: cfg.Comparator,
		throttle:   cfg.Throttle,
	}, nil
}

// Rebuild replaces the collection with records derived from urls, processed
// strictly in order. titles may be nil; otherwise it must parallel urls.
// Items whose fetch or extraction fails are logged, dropped and reported in
// the result; the remaining records are re-numbered densely. Prior contents
// are discarded before the first fetch.
func (ix *Index) Rebuild(ctx context.Context, urls []string, titles []string) (*RebuildResult, error) {
	if titles != nil && len(titles) != len(urls) {
		return nil, fmt.Errorf("%w: %d titles for %d locations", ErrTitleCountMismatch, len(titles), len(urls))
	}

	ix.records = nil

	records := make([]Record, 0, len(urls))
	var dropped []DroppedItem

	for i, url := range urls {
		if i > 0 && ix.throttle > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(ix.throttle):
			}
		}

		vector, err := ix.vectorize(ctx, url)
		if err != nil {
			slog.Warn("dropping image", "url", url, "error", err)
			dropped = append(dropped, DroppedItem{URL: url, Err: err})
			continue
		}

		record := Record{URL: url, Vector: vector}
		if titles != nil {
			record.Title = titles[i]
			record.HasTitle = true
		}
		records = append(records, record)
	}

	ix.records = records
	return &RebuildResult{Records: records, Dropped: dropped}, nil
}

// vectorize runs the fetch and extract stages for a single location. A
// fetcher may signal "no result" with a nil grid and nil error; that
// propagates through extraction as a nil vector and is surfaced here as
// ErrNoVector so the item never reaches the collection.
func (ix *Index) vectorize(ctx context.Context, url string) ([]float32, error) {
	grid, err := ix.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	vector, err := ix.extractor.Extract(ctx, grid)
	if err != nil {
		return nil, err
	}
	if vector == nil {
		return nil, ErrNoVector
	}
	return vector, nil
}

// Len returns the number of records in the collection.
func (ix *Index) Len() int {
	return len(ix.records)
}

// Get returns the record at position i.
func (ix *Index) Get(i int) (Record, error) {
	if i < 0 || i >= len(ix.records) {
		return Record{}, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(ix.records))
	}
	return ix.records[i], nil
}

// BestMatch returns the record most similar to the record at ref. The
// reference's own score is forced to 0.0 rather than computed, so it never
// selects itself while 0.0 stays inside cosine's valid [-1, 1] range; ties
// are broken by lowest index.
//
// Best-match is a pointwise nearest-neighbor relation and is neither
// symmetric nor transitive: A's best match being B does not imply B's best
// match is A.
func (ix *Index) BestMatch(ref int) (*Match, error) {
	if len(ix.records) == 0 {
		return nil, ErrEmptyIndex
	}
	if ref < 0 || ref >= len(ix.records) {
		return nil, fmt.Errorf("%w: reference %d of %d", ErrIndexOutOfRange, ref, len(ix.records))
	}

	refVector := ix.records[ref].Vector

	best := -1
	var bestScore float32
	for i, record := range ix.records {
		var score float32
		if i != ref {
			s, err := ix.comparator(refVector, record.Vector)
			if err != nil {
				return nil, fmt.Errorf("score %d against %d: %w", i, ref, err)
			}
			score = s
		}

		if best == -1 || score > bestScore {
			best = i
			bestScore = score
		}
	}

	record := ix.records[best]
	return &Match{Index: best, Title: record.Title, HasTitle: record.HasTitle, Score: bestScore}, nil
}

// TopMatches returns up to n matches for the record at ref, sorted by
// descending similarity with ties kept in index order. The reference itself
// is excluded.
func (ix *Index) TopMatches(ref, n int) ([]Match, error) {
	if n <= 0 {
		return nil, ErrInvalidMatchCount
	}
	if len(ix.records) == 0 {
		return nil, ErrEmptyIndex
	}
	if ref < 0 || ref >= len(ix.records) {
		return nil, fmt.Errorf("%w: reference %d of %d", ErrIndexOutOfRange, ref, len(ix.records))
	}

	refVector := ix.records[ref].Vector

	matches := make([]Match, 0, len(ix.records)-1)
	for i, record := range ix.records {
		if i == ref {
			continue
		}
		score, err := ix.comparator(refVector, record.Vector)
		if err != nil {
			return nil, fmt.Errorf("score %d against %d: %w", i, ref, err)
		}
		matches = append(matches, Match{Index: i, Title: record.Title, HasTitle: record.HasTitle, Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > n {
		return matches[:n], nil
	}
	return matches, nil
}
