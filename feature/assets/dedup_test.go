package assets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDedup(t *testing.T, fetcher Fetcher, index *Index) (*Deduplicator, *countingSink, *tally, string) {
	t.Helper()
	dir := t.TempDir()
	sink := &countingSink{Sink: NewLocalSink(dir, "/uploads")}
	rec := newTally()
	d := NewDeduplicator(fetcher, sink, index, Options{
		Concurrency: 3,
		Recorder:    rec,
		Logger:      zap.NewNop(),
	})
	return d, sink, rec, dir
}

func TestMaterialize_SameURL(t *testing.T) {
	fetcher := newFakeFetcher(map[string][]byte{
		"https://cdn.test/shared.png": pngA,
		"https://cdn.test/unique.png": pngB,
	})
	d, sink, rec, dir := newTestDedup(t, fetcher, nil)
	ctx := context.Background()

	p1 := d.Materialize(ctx, "https://cdn.test/shared.png", "covers", "/fallback.jpg")
	p2 := d.Materialize(ctx, "https://cdn.test/shared.png", "covers", "/fallback.jpg")
	p3 := d.Materialize(ctx, "https://cdn.test/unique.png", "covers", "/fallback.jpg")

	assert.Equal(t, p1, p2)
	assert.NotEqual(t, p1, p3)
	assert.Regexp(t, `^/uploads/covers/[0-9a-f]{64}\.png$`, p1)
	assert.Equal(t, 1, fetcher.count("https://cdn.test/shared.png"))
	assert.Equal(t, int32(2), sink.stores.Load())
	assert.Equal(t, 2, rec.get(OutcomeMaterialized))
	assert.Equal(t, 1, rec.get(OutcomeCached))
	assert.Equal(t, 0, rec.get(OutcomeDeduplicated))

	stored, err := os.ReadFile(filepath.Join(dir, "covers", filepath.Base(p1)))
	require.NoError(t, err)
	assert.Equal(t, pngA, stored)
}

func TestMaterialize_IdenticalContent(t *testing.T) {
	fetcher := newFakeFetcher(map[string][]byte{
		"https://a.test/cover.png":      pngA,
		"https://mirror.test/copy.webp": pngA,
	})
	d, sink, rec, _ := newTestDedup(t, fetcher, nil)
	ctx := context.Background()

	p1 := d.Materialize(ctx, "https://a.test/cover.png", "covers", "")
	p2 := d.Materialize(ctx, "https://mirror.test/copy.webp", "covers", "")

	assert.Equal(t, p1, p2)
	assert.Equal(t, int32(1), sink.stores.Load())
	assert.Equal(t, 1, rec.get(OutcomeMaterialized))
	assert.Equal(t, 1, rec.get(OutcomeDeduplicated))
	assert.Equal(t, int64(2*len(pngA)), rec.fetched)

	urls, hashes := d.Index().Len()
	assert.Equal(t, 2, urls)
	assert.Equal(t, 1, hashes)
}

func TestMaterialize_DurableIndex(t *testing.T) {
	fetcher := newFakeFetcher(map[string][]byte{"https://a.test/x.jpg": jpgC})
	ctx := context.Background()

	indexPath := filepath.Join(t.TempDir(), "index.json")
	first := NewIndex(indexPath, zap.NewNop())
	d1, _, _, dir := newTestDedup(t, fetcher, first)
	p := d1.Materialize(ctx, "https://a.test/x.jpg", "covers", "")
	require.NoError(t, first.Save())

	t.Run("ValidEntryIsCached", func(t *testing.T) {
		loaded, err := LoadIndex(indexPath, zap.NewNop())
		require.NoError(t, err)

		rec := newTally()
		d2 := NewDeduplicator(fetcher, NewLocalSink(dir, "/uploads"), loaded, Options{Recorder: rec})
		assert.Equal(t, p, d2.Materialize(ctx, "https://a.test/x.jpg", "covers", ""))
		assert.Equal(t, 1, fetcher.count("https://a.test/x.jpg"))
		assert.Equal(t, 1, rec.get(OutcomeCached))
	})

	t.Run("StaleEntryIsRematerialized", func(t *testing.T) {
		loaded, err := LoadIndex(indexPath, zap.NewNop())
		require.NoError(t, err)

		emptyDir := t.TempDir()
		rec := newTally()
		d3 := NewDeduplicator(fetcher, NewLocalSink(emptyDir, "/uploads"), loaded, Options{Recorder: rec})
		got := d3.Materialize(ctx, "https://a.test/x.jpg", "covers", "/fallback.jpg")

		assert.Equal(t, p, got)
		assert.Equal(t, 2, fetcher.count("https://a.test/x.jpg"))
		assert.Equal(t, 1, rec.get(OutcomeMaterialized))
		assert.FileExists(t, filepath.Join(emptyDir, "covers", filepath.Base(got)))
	})
}

func TestMaterialize_Fallbacks(t *testing.T) {
	fetcher := newFakeFetcher(map[string][]byte{
		"https://a.test/blocked.jpg": html,
	})
	d, sink, rec, _ := newTestDedup(t, fetcher, nil)
	ctx := context.Background()

	assert.Equal(t, "/fb.jpg", d.Materialize(ctx, "https://a.test/missing.jpg", "covers", "/fb.jpg"))
	assert.Equal(t, "/fb.jpg", d.Materialize(ctx, "https://a.test/missing.jpg", "covers", "/fb.jpg"))
	assert.Equal(t, 1, fetcher.count("https://a.test/missing.jpg"), "failed URL is not fetched twice")

	assert.Equal(t, "/fb.jpg", d.Materialize(ctx, "https://a.test/blocked.jpg", "covers", "/fb.jpg"))
	assert.Equal(t, 3, rec.get(OutcomeFallback))
	assert.Equal(t, int32(0), sink.stores.Load())

	// Blank and non-remote values never reach the fetcher.
	assert.Equal(t, "/fb.jpg", d.Materialize(ctx, "  ", "covers", "/fb.jpg"))
	assert.Equal(t, "/uploads/covers/already.jpg", d.Materialize(ctx, "/uploads/covers/already.jpg", "covers", "/fb.jpg"))
	assert.Equal(t, int32(2), fetcher.total.Load())
	assert.Equal(t, 3, rec.get(OutcomeFallback))
}

func TestMaterialize_WriteError(t *testing.T) {
	fetcher := newFakeFetcher(map[string][]byte{"https://a.test/x.png": pngA})
	d, sink, rec, _ := newTestDedup(t, fetcher, nil)
	sink.fail = errors.New("disk full")

	got := d.Materialize(context.Background(), "https://a.test/x.png", "covers", "/fb.jpg")
	assert.Equal(t, "/fb.jpg", got)
	assert.Equal(t, 1, rec.get(OutcomeFallback))
	urls, _ := d.Index().Len()
	assert.Zero(t, urls)
}

func TestMaterialize_Extensions(t *testing.T) {
	unknown := []byte{0x00, 0x01, 0x02, 0x03, 0x04}
	fetcher := newFakeFetcher(map[string][]byte{
		"https://a.test/image?id=1":        pngA,
		"https://a.test/photo.JPEG?size=l": jpgC,
		"https://a.test/blob":              unknown,
	})
	d, _, _, _ := newTestDedup(t, fetcher, nil)
	ctx := context.Background()

	assert.Regexp(t, `\.png$`, d.Materialize(ctx, "https://a.test/image?id=1", "", ""))
	assert.Regexp(t, `\.jpeg$`, d.Materialize(ctx, "https://a.test/photo.JPEG?size=l", "", ""))
	assert.Regexp(t, `^/uploads/[0-9a-f]{64}\.jpg$`, d.Materialize(ctx, "https://a.test/blob", "", ""))
}

func TestMaterialize_ConcurrentSameURL(t *testing.T) {
	fetcher := newFakeFetcher(map[string][]byte{"https://a.test/hot.png": pngA})
	d, sink, rec, _ := newTestDedup(t, fetcher, nil)

	var wg sync.WaitGroup
	paths := make([]string, 20)
	for i := range paths {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			paths[i] = d.Materialize(context.Background(), "https://a.test/hot.png", "covers", "")
		}(i)
	}
	wg.Wait()

	for _, p := range paths {
		assert.Equal(t, paths[0], p)
	}
	assert.Equal(t, 1, fetcher.count("https://a.test/hot.png"))
	assert.Equal(t, int32(1), sink.stores.Load())
	assert.Equal(t, 1, rec.get(OutcomeMaterialized))
	assert.Equal(t, 19, rec.get(OutcomeCached))
}

func TestMaterializeAll(t *testing.T) {
	body := make(map[string][]byte)
	urls := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		u := fmt.Sprintf("https://a.test/p%02d.png", i)
		body[u] = append(append([]byte{}, pngA...), byte(i))
		urls = append(urls, u)
	}
	urls = append(urls, "", "https://a.test/missing.png")

	d, _, _, _ := newTestDedup(t, newFakeFetcher(body), nil)
	got := d.MaterializeAll(context.Background(), urls, "chapters/x", "")

	require.Len(t, got, 10)
	for i, p := range got {
		exp := d.Materialize(context.Background(), urls[i], "chapters/x", "")
		assert.Equal(t, exp, p)
	}
}
