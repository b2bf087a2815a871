package assets

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"path"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var knownExts = map[string]string{
	".jpg":  ".jpg",
	".jpeg": ".jpeg",
	".png":  ".png",
	".gif":  ".gif",
	".webp": ".webp",
	".avif": ".avif",
	".bmp":  ".bmp",
	".svg":  ".svg",
	".jfif": ".jpg",
}

// Options tunes a Deduplicator.
type Options struct {
	// Concurrency bounds MaterializeAll. Values below 1 mean 1.
	Concurrency int
	// DefaultExt is used when the extension cannot be inferred.
	DefaultExt string
	Recorder   Recorder
	Logger     *zap.Logger
}

type result struct {
	path    string
	outcome Outcome
	fetched int64
	err     error
}

// Deduplicator materializes remote assets at most once per URL and stores
// byte-identical content once. Session caches live for one run; the durable
// Index carries entries across runs.
type Deduplicator struct {
	fetcher  Fetcher
	sink     Sink
	index    *Index
	recorder Recorder
	logger   *zap.Logger
	ext      string
	workers  int

	mu      sync.RWMutex
	session map[string]string // url → path, this run
	failed  map[string]error  // url → first failure, this run
	stored  map[string]string // hash → path, verified this run

	urls   singleflight.Group
	hashes singleflight.Group
}

// NewDeduplicator wires a deduplicator. index may be nil for a session-only cache.
func NewDeduplicator(fetcher Fetcher, sink Sink, index *Index, opts Options) *Deduplicator {
	if index == nil {
		index = NewIndex("", nil)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.DefaultExt == "" {
		opts.DefaultExt = ".jpg"
	}
	if !strings.HasPrefix(opts.DefaultExt, ".") {
		opts.DefaultExt = "." + opts.DefaultExt
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Deduplicator{
		fetcher:  fetcher,
		sink:     sink,
		index:    index,
		recorder: opts.Recorder,
		logger:   opts.Logger.With(zap.String("component", "assets")),
		ext:      opts.DefaultExt,
		workers:  opts.Concurrency,
		session:  make(map[string]string),
		failed:   make(map[string]error),
		stored:   make(map[string]string),
	}
}

// Index returns the durable index backing the deduplicator.
func (d *Deduplicator) Index() *Index { return d.index }

// Materialize returns the materialized path for sourceURL, or fallback when
// any step fails. It never returns an error. An empty URL yields fallback and
// values that are not http(s) URLs are returned unchanged.
func (d *Deduplicator) Materialize(ctx context.Context, sourceURL, folder, fallback string) string {
	sourceURL = strings.TrimSpace(sourceURL)
	if sourceURL == "" {
		return fallback
	}
	if !isRemote(sourceURL) {
		return sourceURL
	}

	d.mu.RLock()
	p, hit := d.session[sourceURL]
	failErr, failed := d.failed[sourceURL]
	d.mu.RUnlock()
	if hit {
		d.record(OutcomeCached, 0)
		return p
	}
	if failed {
		d.record(OutcomeFallback, 0)
		d.logger.Debug("Asset failed earlier in this run", zap.String("url", sourceURL), zap.Error(failErr))
		return fallback
	}

	executed := false
	v, _, _ := d.urls.Do(sourceURL, func() (any, error) {
		executed = true
		return d.resolve(ctx, sourceURL, folder), nil
	})
	res := v.(result)

	switch {
	case res.err != nil:
		d.record(OutcomeFallback, res.fetched)
		if executed {
			d.logger.Warn("Using fallback asset",
				zap.String("url", sourceURL),
				zap.String("fallback", fallback),
				zap.Error(res.err))
		}
		return fallback
	case !executed:
		// Another caller did the work for this URL.
		d.record(OutcomeCached, 0)
	default:
		d.record(res.outcome, res.fetched)
	}
	return res.path
}

// MaterializeAll materializes urls with bounded concurrency and returns paths
// in input order. Empty entries are dropped unless fallback is set.
func (d *Deduplicator) MaterializeAll(ctx context.Context, urls []string, folder, fallback string) []string {
	paths := make([]string, len(urls))
	p := pool.New().WithMaxGoroutines(d.workers)
	for i, u := range urls {
		p.Go(func() {
			paths[i] = d.Materialize(ctx, u, folder, fallback)
		})
	}
	p.Wait()

	out := paths[:0]
	for _, mp := range paths {
		if mp != "" {
			out = append(out, mp)
		}
	}
	return out
}

func (d *Deduplicator) resolve(ctx context.Context, sourceURL, folder string) result {
	// A previous flight for this URL may have finished after our first check.
	d.mu.RLock()
	p, hit := d.session[sourceURL]
	failErr, failed := d.failed[sourceURL]
	d.mu.RUnlock()
	if hit {
		return result{path: p, outcome: OutcomeCached}
	}
	if failed {
		return result{err: failErr}
	}

	if p, ok := d.index.LookupURL(sourceURL); ok {
		exists, err := d.sink.Exists(ctx, p)
		if err == nil && exists {
			d.remember(sourceURL, p)
			return result{path: p, outcome: OutcomeCached}
		}
		d.logger.Debug("Stale asset index entry",
			zap.String("url", sourceURL),
			zap.String("path", p),
			zap.Error(err))
		d.index.Forget(sourceURL)
	}

	data, err := d.fetcher.Fetch(ctx, sourceURL)
	if err == nil && len(data) == 0 {
		err = errors.New("empty response body")
	}
	if err != nil {
		return d.fail(sourceURL, result{err: &FetchError{URL: sourceURL, Err: err}})
	}

	mt := mimetype.Detect(data)
	if !acceptable(mt) {
		return d.fail(sourceURL, result{fetched: int64(len(data)), err: &FetchError{URL: sourceURL, Err: ErrNotImage}})
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	owner := false
	v, _, _ := d.hashes.Do(hash, func() (any, error) {
		owner = true
		return d.storeContent(ctx, sourceURL, hash, folder, data, mt), nil
	})
	res := v.(result)
	res.fetched = int64(len(data))
	if res.err != nil {
		return d.fail(sourceURL, res)
	}
	if !owner {
		res.outcome = OutcomeDeduplicated
	}

	d.remember(sourceURL, res.path)
	d.index.Put(sourceURL, hash, res.path)
	return res
}

// storeContent runs once per hash at a time: reuse a verified path or store
// the bytes under <folder>/<hash><ext>.
func (d *Deduplicator) storeContent(ctx context.Context, sourceURL, hash, folder string, data []byte, mt *mimetype.MIME) result {
	d.mu.RLock()
	p, ok := d.stored[hash]
	d.mu.RUnlock()
	if ok {
		return result{path: p, outcome: OutcomeDeduplicated}
	}

	if p, ok := d.index.LookupHash(hash); ok {
		if exists, err := d.sink.Exists(ctx, p); err == nil && exists {
			d.mu.Lock()
			d.stored[hash] = p
			d.mu.Unlock()
			return result{path: p, outcome: OutcomeDeduplicated}
		}
		d.index.ForgetHash(hash)
	}

	key := hash + d.extension(sourceURL, mt)
	if folder = strings.Trim(folder, "/"); folder != "" {
		key = folder + "/" + key
	}

	p, err := d.sink.Store(ctx, key, data, mt.String())
	if err != nil {
		return result{err: &WriteError{URL: sourceURL, Key: key, Err: err}}
	}

	d.mu.Lock()
	d.stored[hash] = p
	d.mu.Unlock()
	d.logger.Debug("Stored asset", zap.String("url", sourceURL), zap.String("path", p))
	return result{path: p, outcome: OutcomeMaterialized}
}

// extension prefers a recognized extension from the URL path, then the
// sniffed type, then the configured default.
func (d *Deduplicator) extension(sourceURL string, mt *mimetype.MIME) string {
	if u, err := url.Parse(sourceURL); err == nil {
		if ext, ok := knownExts[strings.ToLower(path.Ext(u.Path))]; ok {
			return ext
		}
	}
	if isImage(mt) && mt.Extension() != "" {
		return mt.Extension()
	}
	return d.ext
}

func (d *Deduplicator) remember(sourceURL, p string) {
	d.mu.Lock()
	d.session[sourceURL] = p
	d.mu.Unlock()
}

func (d *Deduplicator) fail(sourceURL string, res result) result {
	d.mu.Lock()
	d.failed[sourceURL] = res.err
	d.mu.Unlock()
	return res
}

func (d *Deduplicator) record(o Outcome, fetched int64) {
	if d.recorder != nil {
		d.recorder.RecordAsset(o, fetched)
	}
}

func isRemote(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// acceptable rejects HTML error pages and other text payloads. Unknown binary
// content is accepted and stored with the default extension.
func acceptable(mt *mimetype.MIME) bool {
	if isImage(mt) {
		return true
	}
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return false
		}
	}
	return true
}

func isImage(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "image/") {
			return true
		}
	}
	return false
}
