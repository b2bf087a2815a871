package assets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const indexVersion = 1

// ErrIndexLocked is returned when another process holds the index lock.
var ErrIndexLocked = errors.New("asset index is locked by another process")

type indexFile struct {
	Version int               `json:"version"`
	URLs    map[string]string `json:"urls"`
	Hashes  map[string]string `json:"hashes"`
}

// Index is the durable cross-run cache of URL → path and content hash → path.
// It is safe for concurrent use.
type Index struct {
	path   string
	logger *zap.Logger
	lock   *flock.Flock

	mu     sync.RWMutex
	urls   map[string]string
	hashes map[string]string
	dirty  bool
}

// NewIndex returns an empty index that saves to path. An empty path keeps the
// index in memory only.
func NewIndex(path string, logger *zap.Logger) *Index {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Index{
		path:   path,
		logger: logger.With(zap.String("component", "asset_index")),
		urls:   make(map[string]string),
		hashes: make(map[string]string),
	}
}

// LoadIndex reads the index at path. A missing file yields an empty index.
// A corrupt file is logged and ignored; the cache only saves work.
// Both the versioned format and a legacy flat {url: path} map are accepted.
func LoadIndex(path string, logger *zap.Logger) (*Index, error) {
	ix := NewIndex(path, logger)
	if path == "" {
		return ix, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return ix, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read asset index %s: %w", path, err)
	}

	if err := ix.decode(data); err != nil {
		ix.logger.Warn("Ignoring unreadable asset index", zap.String("path", path), zap.Error(err))
		ix.urls = make(map[string]string)
		ix.hashes = make(map[string]string)
	}
	return ix, nil
}

func (ix *Index) decode(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}

	if _, versioned := probe["version"]; versioned {
		var f indexFile
		if err := json.Unmarshal(data, &f); err != nil {
			return err
		}
		if f.Version > indexVersion {
			return fmt.Errorf("unsupported index version %d", f.Version)
		}
		for k, v := range f.URLs {
			ix.urls[k] = v
		}
		for k, v := range f.Hashes {
			ix.hashes[k] = v
		}
		return nil
	}

	var legacy map[string]string
	if err := json.Unmarshal(data, &legacy); err != nil {
		return err
	}
	for k, v := range legacy {
		ix.urls[k] = v
	}
	if len(legacy) > 0 {
		ix.dirty = true
	}
	return nil
}

// Path returns the file the index saves to.
func (ix *Index) Path() string { return ix.path }

// LookupURL returns the materialized path recorded for url.
func (ix *Index) LookupURL(url string) (string, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	p, ok := ix.urls[url]
	return p, ok
}

// LookupHash returns the materialized path recorded for a content hash.
func (ix *Index) LookupHash(hash string) (string, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	p, ok := ix.hashes[hash]
	return p, ok
}

// Put records url → path and, when hash is set, hash → path.
func (ix *Index) Put(url, hash, path string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if url != "" {
		ix.urls[url] = path
	}
	if hash != "" {
		ix.hashes[hash] = path
	}
	ix.dirty = true
}

// Forget drops url and every hash entry pointing at the same path.
func (ix *Index) Forget(url string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	p, ok := ix.urls[url]
	if !ok {
		return
	}
	delete(ix.urls, url)
	ix.forgetPathLocked(p)
	ix.dirty = true
}

// ForgetHash drops a hash entry and every URL pointing at the same path.
func (ix *Index) ForgetHash(hash string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	p, ok := ix.hashes[hash]
	if !ok {
		return
	}
	delete(ix.hashes, hash)
	ix.forgetPathLocked(p)
	ix.dirty = true
}

func (ix *Index) forgetPathLocked(p string) {
	for h, hp := range ix.hashes {
		if hp == p {
			delete(ix.hashes, h)
		}
	}
	for u, up := range ix.urls {
		if up == p {
			delete(ix.urls, u)
		}
	}
}

// Len returns the number of URL and hash entries.
func (ix *Index) Len() (urls, hashes int) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.urls), len(ix.hashes)
}

// Paths returns the distinct materialized paths referenced by the index.
func (ix *Index) Paths() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	seen := make(map[string]struct{}, len(ix.hashes))
	out := make([]string, 0, len(ix.hashes))
	for _, m := range []map[string]string{ix.urls, ix.hashes} {
		for _, p := range m {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

// Prune removes entries whose path no longer exists on the sink.
// It returns the number of distinct paths removed.
func (ix *Index) Prune(ctx context.Context, sink Sink) (int, error) {
	removed := 0
	for _, p := range ix.Paths() {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		ok, err := sink.Exists(ctx, p)
		if err != nil {
			return removed, fmt.Errorf("failed to check %s: %w", p, err)
		}
		if ok {
			continue
		}
		ix.mu.Lock()
		ix.forgetPathLocked(p)
		ix.dirty = true
		ix.mu.Unlock()
		removed++
	}
	return removed, nil
}

// Lock takes an exclusive, non-blocking lock next to the index file so that
// two imports never interleave writes to the same index.
func (ix *Index) Lock() error {
	if ix.path == "" || ix.lock != nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(ix.path), 0o755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}
	l := flock.New(ix.path + ".lock")
	locked, err := l.TryLock()
	if err != nil {
		return fmt.Errorf("failed to lock asset index: %w", err)
	}
	if !locked {
		return ErrIndexLocked
	}
	ix.lock = l
	return nil
}

// Unlock releases the lock taken by Lock.
func (ix *Index) Unlock() error {
	if ix.lock == nil {
		return nil
	}
	err := ix.lock.Unlock()
	ix.lock = nil
	return err
}

// Save rewrites the index file atomically. It is a no-op when nothing changed
// or the index has no path.
func (ix *Index) Save() error {
	if ix.path == "" {
		return nil
	}

	ix.mu.Lock()
	if !ix.dirty {
		ix.mu.Unlock()
		return nil
	}
	data, err := json.MarshalIndent(indexFile{Version: indexVersion, URLs: ix.urls, Hashes: ix.hashes}, "", "  ")
	ix.dirty = false
	ix.mu.Unlock()
	if err != nil {
		ix.markDirty()
		return fmt.Errorf("failed to encode asset index: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(ix.path), 0o755); err != nil {
		ix.markDirty()
		return fmt.Errorf("failed to create index directory: %w", err)
	}
	if err := writeFileAtomic(ix.path, data); err != nil {
		ix.markDirty()
		return fmt.Errorf("failed to save asset index: %w", err)
	}
	return nil
}

func (ix *Index) markDirty() {
	ix.mu.Lock()
	ix.dirty = true
	ix.mu.Unlock()
}

// writeFileAtomic writes to a unique temp file in the target directory and
// renames it over path.
func writeFileAtomic(path string, data []byte) error {
	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
