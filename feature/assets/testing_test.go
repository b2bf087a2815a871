package assets

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

var (
	pngA = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), []byte("image-a")...)
	pngB = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), []byte("image-b")...)
	jpgC = append([]byte{0xff, 0xd8, 0xff, 0xe0}, []byte("image-c")...)
	html = []byte("<!DOCTYPE html><html><body>Access denied</body></html>")
)

type fakeFetcher struct {
	mu    sync.Mutex
	body  map[string][]byte
	calls map[string]int
	total atomic.Int32
}

func newFakeFetcher(body map[string][]byte) *fakeFetcher {
	return &fakeFetcher{body: body, calls: make(map[string]int)}
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.total.Add(1)
	f.mu.Lock()
	f.calls[url]++
	b, ok := f.body[url]
	f.mu.Unlock()
	if !ok {
		return nil, errors.New("404 not found")
	}
	return b, nil
}

func (f *fakeFetcher) count(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

type tally struct {
	mu      sync.Mutex
	counts  map[Outcome]int
	fetched int64
}

func newTally() *tally { return &tally{counts: make(map[Outcome]int)} }

func (t *tally) RecordAsset(o Outcome, fetched int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[o]++
	t.fetched += fetched
}

func (t *tally) get(o Outcome) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[o]
}

// countingSink wraps a sink and counts Store calls.
type countingSink struct {
	Sink
	stores atomic.Int32
	fail   error
}

func (s *countingSink) Store(ctx context.Context, key string, data []byte, ct string) (string, error) {
	s.stores.Add(1)
	if s.fail != nil {
		return "", s.fail
	}
	return s.Sink.Store(ctx, key, data, ct)
}
