package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"content-importer/core/database"
	"content-importer/core/retry"
	"content-importer/feature/assets"
	"content-importer/feature/importer/models"
	"content-importer/feature/reference"
	"content-importer/feature/report"
	"content-importer/feature/schema"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func png(tag string) []byte {
	return append(append([]byte{}, pngHeader...), []byte(tag)...)
}

type fakeFetcher struct {
	mu    sync.Mutex
	body  map[string][]byte
	calls int
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	b, ok := f.body[url]
	if !ok {
		return nil, errors.New("404")
	}
	return b, nil
}

type harness struct {
	t         *testing.T
	db        *gorm.DB
	dir       string
	fetcher   *fakeFetcher
	persister func(Persister) Persister
	store     func(reference.Store) reference.Store
}

func newHarness(t *testing.T, body map[string][]byte) *harness {
	t.Helper()
	dir := t.TempDir()
	db, err := database.Connect(database.Config{
		Driver: database.DriverSQLite,
		Name:   filepath.Join(dir, "import.db"),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return &harness{t: t, db: db, dir: dir, fetcher: &fakeFetcher{body: body}}
}

func (h *harness) folders() assets.Config {
	return assets.Config{
		CoverFolder:    "covers",
		BannerFolder:   "banners",
		PageFolder:     "chapters",
		AvatarFolder:   "avatars",
		ThumbFolder:    "thumbnails",
		CoverFallback:  "/images/placeholder-cover.jpg",
		PageFallback:   "/images/placeholder-page.jpg",
		AvatarFallback: "/images/default-avatar.png",
	}
}

// run performs one import run with fresh per-run caches over the shared
// database, upload directory and index file.
func (h *harness) run(sources Sources, dryRun bool) (report.Statistics, error) {
	h.t.Helper()
	index, err := assets.LoadIndex(filepath.Join(h.dir, "index.json"), zap.NewNop())
	require.NoError(h.t, err)

	rep := report.New("test-run", index, zap.NewNop())
	var persister Persister = NewRepository(h.db)
	if h.persister != nil {
		persister = h.persister(persister)
	}

	var store reference.Store = reference.NewGormStore(h.db)
	if h.store != nil {
		store = h.store(store)
	}
	resolver := reference.NewResolver(store, zap.NewNop())
	rep.TrackReferences(resolver.Created)
	dedup := assets.NewDeduplicator(h.fetcher, assets.NewLocalSink(filepath.Join(h.dir, "uploads"), "/uploads"), index, assets.Options{
		Concurrency: 2,
		Recorder:    rep,
	})

	adapters := DefaultAdapters(Deps{
		Persister: persister,
		Resolver:  resolver,
		Assets:    dedup,
		Folders:   h.folders(),
	})
	engine := NewEngine(persister, adapters, rep, EngineOptions{
		Concurrency: 4,
		Retry:       retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond},
	}, zap.NewNop())

	validator := schema.NewValidator(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	return NewPipeline(NewLoader(zap.NewNop()), validator, engine, rep, zap.NewNop()).Run(context.Background(), sources, dryRun)
}

func (h *harness) write(name, content string) string {
	h.t.Helper()
	p := filepath.Join(h.dir, name)
	require.NoError(h.t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func (h *harness) count(model any) int64 {
	h.t.Helper()
	var n int64
	require.NoError(h.t, h.db.Model(model).Count(&n).Error)
	return n
}
