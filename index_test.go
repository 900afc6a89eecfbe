package imagesim

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/botirk38/imagesim/embed"
	"github.com/botirk38/imagesim/fetch"
	"github.com/botirk38/imagesim/options"
	"github.com/botirk38/imagesim/similarity"
	"github.com/botirk38/imagesim/types"
)

// Mock model for testing: hands out vectors in call order. Rebuilds process
// items strictly sequentially, so successful fetches consume vectors in
// input order.
type mockModel struct {
	vectors [][]float32
	calls   int
}

func (m *mockModel) Infer(ctx context.Context, batch []*types.PixelGrid) ([][]float32, error) {
	rows := make([][]float32, len(batch))
	for i := range batch {
		if m.calls >= len(m.vectors) {
			return nil, errors.New("mock model ran out of vectors")
		}
		rows[i] = m.vectors[m.calls]
		m.calls++
	}
	return rows, nil
}

func (m *mockModel) Dimensions() int {
	if len(m.vectors) > 0 {
		return len(m.vectors[0])
	}
	return 0
}

func (m *mockModel) Close() {}

// Mock fetcher for testing: fails for configured URLs, otherwise returns a
// small grid.
type mockFetcher struct {
	fail map[string]bool
}

func (m *mockFetcher) Fetch(ctx context.Context, url string) (*types.PixelGrid, error) {
	if m.fail[url] {
		return nil, fmt.Errorf("%w: status 404 for %s", fetch.ErrFetchFailed, url)
	}
	return types.NewPixelGrid(2, 2), nil
}

// Mock fetcher signaling "no result" with a nil grid and nil error for
// configured URLs.
type silentFetcher struct {
	skip map[string]bool
}

func (m *silentFetcher) Fetch(ctx context.Context, url string) (*types.PixelGrid, error) {
	if m.skip[url] {
		return nil, nil
	}
	return types.NewPixelGrid(2, 2), nil
}

func newTestIndex(t *testing.T, vectors [][]float32, fail map[string]bool) *Index {
	t.Helper()

	ix, err := New(
		options.WithCustomModel(&mockModel{vectors: vectors}),
		options.WithFetcher(&mockFetcher{fail: fail}),
		options.WithPreprocess(embed.IdentityPreprocess),
		options.WithThrottle(0),
	)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return ix
}

func TestRebuild(t *testing.T) {
	ctx := context.Background()

	t.Run("AllSucceed", func(t *testing.T) {
		vectors := [][]float32{{1, 0}, {0, 1}, {1, 1}}
		ix := newTestIndex(t, vectors, nil)

		urls := []string{"http://img/a.jpg", "http://img/b.jpg", "http://img/c.jpg"}
		titles := []string{"a", "b", "c"}

		result, err := ix.Rebuild(ctx, urls, titles)
		if err != nil {
			t.Fatalf("Rebuild() failed: %v", err)
		}

		if ix.Len() != 3 {
			t.Fatalf("expected 3 records, got %d", ix.Len())
		}
		if len(result.Dropped) != 0 {
			t.Errorf("expected no dropped items, got %d", len(result.Dropped))
		}

		for i := range urls {
			record, err := ix.Get(i)
			if err != nil {
				t.Fatalf("Get(%d) failed: %v", i, err)
			}
			if record.URL != urls[i] {
				t.Errorf("record %d URL = %q, want %q", i, record.URL, urls[i])
			}
			if !record.HasTitle || record.Title != titles[i] {
				t.Errorf("record %d title = %q (%v), want %q", i, record.Title, record.HasTitle, titles[i])
			}
			if len(record.Vector) != 2 {
				t.Errorf("record %d vector length = %d, want 2", i, len(record.Vector))
			}
		}
	})

	t.Run("FailedItemsDroppedInOrder", func(t *testing.T) {
		// URLs at positions 1 and 3 fail; survivors keep source order with
		// dense indices.
		urls := []string{"u0", "u1", "u2", "u3", "u4"}
		titles := []string{"t0", "t1", "t2", "t3", "t4"}
		fail := map[string]bool{"u1": true, "u3": true}
		vectors := [][]float32{{1, 0}, {0, 1}, {1, 1}} // consumed by u0, u2, u4

		ix := newTestIndex(t, vectors, fail)

		result, err := ix.Rebuild(ctx, urls, titles)
		if err != nil {
			t.Fatalf("Rebuild() failed: %v", err)
		}

		if ix.Len() != 3 {
			t.Fatalf("expected 3 records, got %d", ix.Len())
		}

		wantURLs := []string{"u0", "u2", "u4"}
		wantTitles := []string{"t0", "t2", "t4"}
		for i := range wantURLs {
			record, _ := ix.Get(i)
			if record.URL != wantURLs[i] || record.Title != wantTitles[i] {
				t.Errorf("record %d = (%q, %q), want (%q, %q)",
					i, record.URL, record.Title, wantURLs[i], wantTitles[i])
			}
		}

		if len(result.Dropped) != 2 {
			t.Fatalf("expected 2 dropped items, got %d", len(result.Dropped))
		}
		if result.Dropped[0].URL != "u1" || result.Dropped[1].URL != "u3" {
			t.Errorf("dropped = %q, %q, want u1, u3", result.Dropped[0].URL, result.Dropped[1].URL)
		}
		for _, item := range result.Dropped {
			if !errors.Is(item.Err, fetch.ErrFetchFailed) {
				t.Errorf("dropped %s error = %v, want ErrFetchFailed", item.URL, item.Err)
			}
		}
	})

	t.Run("NoResultFetchDropped", func(t *testing.T) {
		// A nil grid with nil error is the fetcher's "no result" outcome;
		// the item must be dropped, never stored with a nil vector.
		vectors := [][]float32{{1, 0}, {1, 0.01}} // consumed by u0, u2
		ix, err := New(
			options.WithCustomModel(&mockModel{vectors: vectors}),
			options.WithFetcher(&silentFetcher{skip: map[string]bool{"u1": true}}),
			options.WithPreprocess(embed.IdentityPreprocess),
			options.WithThrottle(0),
		)
		if err != nil {
			t.Fatalf("New() failed: %v", err)
		}

		result, err := ix.Rebuild(ctx, []string{"u0", "u1", "u2"}, nil)
		if err != nil {
			t.Fatalf("Rebuild() failed: %v", err)
		}

		if ix.Len() != 2 {
			t.Fatalf("expected 2 records, got %d", ix.Len())
		}
		for i, want := range []string{"u0", "u2"} {
			record, _ := ix.Get(i)
			if record.URL != want {
				t.Errorf("record %d URL = %q, want %q", i, record.URL, want)
			}
			if record.Vector == nil {
				t.Errorf("record %d has nil vector", i)
			}
		}

		if len(result.Dropped) != 1 || result.Dropped[0].URL != "u1" {
			t.Fatalf("dropped = %+v, want only u1", result.Dropped)
		}
		if !errors.Is(result.Dropped[0].Err, ErrNoVector) {
			t.Errorf("dropped error = %v, want ErrNoVector", result.Dropped[0].Err)
		}

		match, err := ix.BestMatch(0)
		if err != nil {
			t.Fatalf("BestMatch(0) failed: %v", err)
		}
		if match.Index != 1 {
			t.Errorf("BestMatch(0) = %d, want 1", match.Index)
		}
	})

	t.Run("TitlesOptional", func(t *testing.T) {
		ix := newTestIndex(t, [][]float32{{1, 0}}, nil)

		if _, err := ix.Rebuild(ctx, []string{"u0"}, nil); err != nil {
			t.Fatalf("Rebuild() failed: %v", err)
		}

		record, _ := ix.Get(0)
		if record.HasTitle {
			t.Errorf("expected no title, got %q", record.Title)
		}
	})

	t.Run("TitleCountMismatch", func(t *testing.T) {
		ix := newTestIndex(t, [][]float32{{1, 0}}, nil)

		_, err := ix.Rebuild(ctx, []string{"u0", "u1"}, []string{"only one"})
		if !errors.Is(err, ErrTitleCountMismatch) {
			t.Errorf("expected ErrTitleCountMismatch, got %v", err)
		}
	})

	t.Run("ReplacesPriorContents", func(t *testing.T) {
		vectors := [][]float32{{1, 0}, {0, 1}, {1, 1}}
		ix := newTestIndex(t, vectors, nil)

		if _, err := ix.Rebuild(ctx, []string{"u0", "u1"}, nil); err != nil {
			t.Fatalf("first Rebuild() failed: %v", err)
		}
		if _, err := ix.Rebuild(ctx, []string{"u2"}, nil); err != nil {
			t.Fatalf("second Rebuild() failed: %v", err)
		}

		if ix.Len() != 1 {
			t.Fatalf("expected 1 record after second rebuild, got %d", ix.Len())
		}
		record, _ := ix.Get(0)
		if record.URL != "u2" {
			t.Errorf("record 0 URL = %q, want u2", record.URL)
		}
	})

	t.Run("ThrottleBetweenFetches", func(t *testing.T) {
		ix, err := New(
			options.WithCustomModel(&mockModel{vectors: [][]float32{{1}, {1}, {1}}}),
			options.WithFetcher(&mockFetcher{}),
			options.WithThrottle(10*time.Millisecond),
		)
		if err != nil {
			t.Fatalf("New() failed: %v", err)
		}

		start := time.Now()
		if _, err := ix.Rebuild(ctx, []string{"u0", "u1", "u2"}, nil); err != nil {
			t.Fatalf("Rebuild() failed: %v", err)
		}

		// Two inter-fetch pauses for three items
		if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
			t.Errorf("rebuild finished in %v, expected at least 20ms of throttling", elapsed)
		}
	})

	t.Run("CanceledContext", func(t *testing.T) {
		ix, err := New(
			options.WithCustomModel(&mockModel{vectors: [][]float32{{1}, {1}}}),
			options.WithFetcher(&mockFetcher{}),
			options.WithThrottle(50*time.Millisecond),
		)
		if err != nil {
			t.Fatalf("New() failed: %v", err)
		}

		canceled, cancel := context.WithCancel(ctx)
		cancel()

		_, err = ix.Rebuild(canceled, []string{"u0", "u1"}, nil)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	ix := newTestIndex(t, [][]float32{{1, 0}, {0, 1}}, nil)

	if _, err := ix.Rebuild(ctx, []string{"u0", "u1"}, nil); err != nil {
		t.Fatalf("Rebuild() failed: %v", err)
	}

	tests := []struct {
		name    string
		index   int
		wantErr bool
	}{
		{name: "first", index: 0},
		{name: "last", index: 1},
		{name: "negative", index: -1, wantErr: true},
		{name: "past end", index: 2, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ix.Get(tt.index)
			if tt.wantErr && !errors.Is(err, ErrIndexOutOfRange) {
				t.Errorf("Get(%d) error = %v, want ErrIndexOutOfRange", tt.index, err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Get(%d) failed: %v", tt.index, err)
			}
		})
	}
}

func TestBestMatch(t *testing.T) {
	ctx := context.Background()

	t.Run("EmptyIndex", func(t *testing.T) {
		ix := newTestIndex(t, nil, nil)

		if _, err := ix.BestMatch(0); !errors.Is(err, ErrEmptyIndex) {
			t.Errorf("expected ErrEmptyIndex, got %v", err)
		}
	})

	t.Run("ReferenceOutOfRange", func(t *testing.T) {
		ix := newTestIndex(t, [][]float32{{1, 0}}, nil)
		if _, err := ix.Rebuild(ctx, []string{"u0"}, nil); err != nil {
			t.Fatalf("Rebuild() failed: %v", err)
		}

		if _, err := ix.BestMatch(1); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("expected ErrIndexOutOfRange for 1, got %v", err)
		}
		if _, err := ix.BestMatch(-1); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("expected ErrIndexOutOfRange for -1, got %v", err)
		}
	})

	t.Run("NearestDirection", func(t *testing.T) {
		vectors := [][]float32{{1, 0}, {0, 1}, {1, 0.01}}
		ix := newTestIndex(t, vectors, nil)
		if _, err := ix.Rebuild(ctx, []string{"u0", "u1", "u2"}, []string{"t0", "t1", "t2"}); err != nil {
			t.Fatalf("Rebuild() failed: %v", err)
		}

		match, err := ix.BestMatch(0)
		if err != nil {
			t.Fatalf("BestMatch(0) failed: %v", err)
		}
		if match.Index != 2 {
			t.Errorf("BestMatch(0) = %d, want 2", match.Index)
		}
		if !match.HasTitle || match.Title != "t2" {
			t.Errorf("BestMatch(0) title = %q (%v), want t2", match.Title, match.HasTitle)
		}

		match, err = ix.BestMatch(2)
		if err != nil {
			t.Fatalf("BestMatch(2) failed: %v", err)
		}
		if match.Index != 0 {
			t.Errorf("BestMatch(2) = %d, want 0", match.Index)
		}
	})

	t.Run("NeverSelectsReference", func(t *testing.T) {
		// The only other member is identical in value to the reference;
		// the forced 0.0 diagonal still keeps the reference out.
		vectors := [][]float32{{1, 2, 3}, {1, 2, 3}}
		ix := newTestIndex(t, vectors, nil)
		if _, err := ix.Rebuild(ctx, []string{"u0", "u1"}, nil); err != nil {
			t.Fatalf("Rebuild() failed: %v", err)
		}

		for ref := 0; ref < 2; ref++ {
			match, err := ix.BestMatch(ref)
			if err != nil {
				t.Fatalf("BestMatch(%d) failed: %v", ref, err)
			}
			if match.Index == ref {
				t.Errorf("BestMatch(%d) returned the reference itself", ref)
			}
		}
	})

	t.Run("Asymmetry", func(t *testing.T) {
		// B is nearest to A, but D is nearer to B than A is, so the
		// relation does not reverse.
		vectors := [][]float32{
			{1, 0},       // A
			{0.8, 0.6},   // B
			{0, 1},       // C
			{0.7, 0.714}, // D
		}
		ix := newTestIndex(t, vectors, nil)
		if _, err := ix.Rebuild(ctx, []string{"a", "b", "c", "d"}, nil); err != nil {
			t.Fatalf("Rebuild() failed: %v", err)
		}

		fromA, err := ix.BestMatch(0)
		if err != nil {
			t.Fatalf("BestMatch(0) failed: %v", err)
		}
		if fromA.Index != 1 {
			t.Fatalf("BestMatch(A) = %d, want B (1)", fromA.Index)
		}

		fromB, err := ix.BestMatch(1)
		if err != nil {
			t.Fatalf("BestMatch(1) failed: %v", err)
		}
		if fromB.Index == 0 {
			t.Errorf("BestMatch(B) returned A; expected the nearer D")
		}
		if fromB.Index != 3 {
			t.Errorf("BestMatch(B) = %d, want D (3)", fromB.Index)
		}
	})

	t.Run("UntitledMatch", func(t *testing.T) {
		vectors := [][]float32{{1, 0}, {1, 0.01}}
		ix := newTestIndex(t, vectors, nil)
		if _, err := ix.Rebuild(ctx, []string{"u0", "u1"}, nil); err != nil {
			t.Fatalf("Rebuild() failed: %v", err)
		}

		match, err := ix.BestMatch(0)
		if err != nil {
			t.Fatalf("BestMatch(0) failed: %v", err)
		}
		if match.HasTitle {
			t.Errorf("expected absent title, got %q", match.Title)
		}
	})

	t.Run("ZeroMagnitudeVector", func(t *testing.T) {
		vectors := [][]float32{{1, 0}, {0, 0}}
		ix := newTestIndex(t, vectors, nil)
		if _, err := ix.Rebuild(ctx, []string{"u0", "u1"}, nil); err != nil {
			t.Fatalf("Rebuild() failed: %v", err)
		}

		if _, err := ix.BestMatch(0); !errors.Is(err, similarity.ErrZeroMagnitude) {
			t.Errorf("expected ErrZeroMagnitude, got %v", err)
		}
	})
}

func TestTopMatches(t *testing.T) {
	ctx := context.Background()

	vectors := [][]float32{{1, 0}, {0, 1}, {1, 0.01}, {1, 0.5}}
	ix := newTestIndex(t, vectors, nil)
	if _, err := ix.Rebuild(ctx, []string{"u0", "u1", "u2", "u3"}, nil); err != nil {
		t.Fatalf("Rebuild() failed: %v", err)
	}

	t.Run("RankedDescending", func(t *testing.T) {
		matches, err := ix.TopMatches(0, 3)
		if err != nil {
			t.Fatalf("TopMatches() failed: %v", err)
		}

		if len(matches) != 3 {
			t.Fatalf("expected 3 matches, got %d", len(matches))
		}
		want := []int{2, 3, 1}
		for i, match := range matches {
			if match.Index != want[i] {
				t.Errorf("match %d = index %d, want %d", i, match.Index, want[i])
			}
			if match.Index == 0 {
				t.Errorf("TopMatches included the reference")
			}
		}
		for i := 1; i < len(matches); i++ {
			if matches[i].Score > matches[i-1].Score {
				t.Errorf("matches not sorted: %f before %f", matches[i-1].Score, matches[i].Score)
			}
		}
	})

	t.Run("TruncatesToN", func(t *testing.T) {
		matches, err := ix.TopMatches(0, 2)
		if err != nil {
			t.Fatalf("TopMatches() failed: %v", err)
		}
		if len(matches) != 2 {
			t.Errorf("expected 2 matches, got %d", len(matches))
		}
	})

	t.Run("InvalidCount", func(t *testing.T) {
		if _, err := ix.TopMatches(0, 0); !errors.Is(err, ErrInvalidMatchCount) {
			t.Errorf("expected ErrInvalidMatchCount, got %v", err)
		}
	})

	t.Run("EmptyIndex", func(t *testing.T) {
		empty := newTestIndex(t, nil, nil)
		if _, err := empty.TopMatches(0, 1); !errors.Is(err, ErrEmptyIndex) {
			t.Errorf("expected ErrEmptyIndex, got %v", err)
		}
	})
}
