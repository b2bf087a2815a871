package reference

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"content-importer/core/database"
	"content-importer/core/utils"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Resolver maps free-text reference names to row ids, creating rows on first
// sight. The cache lives for one run.
type Resolver struct {
	store  Store
	logger *zap.Logger

	mu    sync.RWMutex
	cache map[string]uint
	group singleflight.Group

	created atomic.Int64
}

// NewResolver creates a resolver backed by store.
func NewResolver(store Store, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		store:  store,
		logger: logger.With(zap.String("component", "reference")),
		cache:  make(map[string]uint),
	}
}

// Normalize returns the display name stored for raw and its lookup key.
// Blank and placeholder names map to "Unknown <Kind>".
func Normalize(kind Kind, raw string) (name, key string) {
	name = utils.CollapseSpace(raw)
	switch strings.ToLower(name) {
	case "", "_", "-", "--", "?", "n/a", "null", "none":
		name = "Unknown " + kind.Label()
	}
	return name, utils.NameKey(name)
}

// Resolve returns the id for rawName, creating the row if needed. Concurrent
// first sightings of the same key share one lookup/insert.
func (r *Resolver) Resolve(ctx context.Context, kind Kind, rawName string) (uint, error) {
	name, key := Normalize(kind, rawName)
	cacheKey := string(kind) + "\x00" + key

	if id, ok := r.cached(cacheKey); ok {
		return id, nil
	}

	v, err, _ := r.group.Do(cacheKey, func() (any, error) {
		if id, ok := r.cached(cacheKey); ok {
			return id, nil
		}
		id, err := r.findOrCreate(ctx, kind, name, key)
		if err != nil {
			return uint(0), err
		}
		r.mu.Lock()
		r.cache[cacheKey] = id
		r.mu.Unlock()
		return id, nil
	})
	if err != nil {
		return 0, &ResolutionError{Kind: kind, Name: name, Err: err}
	}
	return v.(uint), nil
}

// ResolveAll resolves names in order, dropping entries that normalize to a
// key already seen. Blank entries are skipped rather than mapped to the
// sentinel.
func (r *Resolver) ResolveAll(ctx context.Context, kind Kind, names []string) ([]uint, error) {
	ids := make([]uint, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, raw := range names {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		_, key := Normalize(kind, raw)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		id, err := r.Resolve(ctx, kind, raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Created returns how many rows this resolver inserted.
func (r *Resolver) Created() int64 {
	return r.created.Load()
}

func (r *Resolver) cached(cacheKey string) (uint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.cache[cacheKey]
	return id, ok
}

func (r *Resolver) findOrCreate(ctx context.Context, kind Kind, name, key string) (uint, error) {
	id, found, err := r.store.FindByKey(ctx, kind, key)
	if err != nil {
		return 0, err
	}
	if found {
		return id, nil
	}

	id, err = r.store.Create(ctx, kind, name, key, utils.Slugify(name))
	if err == nil {
		r.created.Add(1)
		r.logger.Debug("Created reference",
			zap.String("kind", string(kind)),
			zap.String("name", name),
			zap.Uint("id", id))
		return id, nil
	}
	if !database.IsDuplicate(err) {
		return 0, err
	}

	// Another writer won the race. One more lookup, no loop.
	id, found, lookupErr := r.store.FindByKey(ctx, kind, key)
	if lookupErr != nil {
		return 0, lookupErr
	}
	if !found {
		return 0, fmt.Errorf("no row for %q after unique conflict: %w", key, err)
	}
	return id, nil
}
