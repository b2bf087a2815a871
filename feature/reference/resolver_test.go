package reference_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"content-importer/core/database"
	"content-importer/feature/importer/models"
	"content-importer/feature/reference"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) FindByKey(ctx context.Context, kind reference.Kind, key string) (uint, bool, error) {
	args := m.Called(ctx, kind, key)
	return args.Get(0).(uint), args.Bool(1), args.Error(2)
}

func (m *mockStore) Create(ctx context.Context, kind reference.Kind, name, key, slug string) (uint, error) {
	args := m.Called(ctx, kind, name, key, slug)
	return args.Get(0).(uint), args.Error(1)
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(database.Config{
		Driver: database.DriverSQLite,
		Name:   filepath.Join(t.TempDir(), "refs.db"),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Author{}, &models.Artist{}, &models.Category{}, &models.Tag{}))
	return db
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		kind reference.Kind
		raw  string
		name string
		key  string
	}{
		{reference.KindAuthor, " Jane   Doe ", "Jane Doe", "jane doe"},
		{reference.KindAuthor, "", "Unknown Author", "unknown author"},
		{reference.KindArtist, "_", "Unknown Artist", "unknown artist"},
		{reference.KindCategory, "  -  ", "Unknown Category", "unknown category"},
		{reference.KindAuthor, "NONE", "Unknown Author", "unknown author"},
		{reference.KindTag, "Null", "Unknown Tag", "unknown tag"},
		{reference.KindArtist, "N/a", "Unknown Artist", "unknown artist"},
		{reference.KindTag, "Slice of Life", "Slice of Life", "slice of life"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			name, key := reference.Normalize(tt.kind, tt.raw)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.key, key)
		})
	}
}

func TestResolve_NormalizesToOneRow(t *testing.T) {
	db := setupDB(t)
	r := reference.NewResolver(reference.NewGormStore(db), zap.NewNop())
	ctx := context.Background()

	var ids []uint
	for _, name := range []string{"Jane Doe", " jane doe ", "JANE DOE"} {
		id, err := r.Resolve(ctx, reference.KindAuthor, name)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	assert.Equal(t, ids[0], ids[1])
	assert.Equal(t, ids[0], ids[2])
	assert.Equal(t, int64(1), r.Created())

	var rows []models.Author
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "Jane Doe", rows[0].Name)
	assert.Equal(t, "jane-doe", rows[0].Slug)

	// Same name in another table is a different entity.
	artistID, err := r.Resolve(ctx, reference.KindArtist, "Jane Doe")
	require.NoError(t, err)
	assert.Equal(t, int64(2), r.Created())
	assert.NotZero(t, artistID)
}

func TestResolve_AcrossRuns(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	first := reference.NewResolver(reference.NewGormStore(db), zap.NewNop())
	id1, err := first.Resolve(ctx, reference.KindTag, "Action")
	require.NoError(t, err)

	second := reference.NewResolver(reference.NewGormStore(db), zap.NewNop())
	id2, err := second.Resolve(ctx, reference.KindTag, "action")
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.Equal(t, int64(0), second.Created())
}

func TestResolve_ConcurrentFirstSight(t *testing.T) {
	db := setupDB(t)
	r := reference.NewResolver(reference.NewGormStore(db), zap.NewNop())

	var wg sync.WaitGroup
	ids := make([]uint, 32)
	errs := make([]error, 32)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], errs[i] = r.Resolve(context.Background(), reference.KindCategory, "Manhwa")
		}(i)
	}
	wg.Wait()

	for i := range ids {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	assert.Equal(t, int64(1), r.Created())
}

func TestResolve_ConflictFallsBackToLookup(t *testing.T) {
	store := new(mockStore)
	ctx := context.Background()

	store.On("FindByKey", ctx, reference.KindAuthor, "jane doe").Return(uint(0), false, nil).Once()
	store.On("Create", ctx, reference.KindAuthor, "Jane Doe", "jane doe", "jane-doe").Return(uint(0), gorm.ErrDuplicatedKey).Once()
	store.On("FindByKey", ctx, reference.KindAuthor, "jane doe").Return(uint(7), true, nil).Once()

	r := reference.NewResolver(store, zap.NewNop())
	id, err := r.Resolve(ctx, reference.KindAuthor, "Jane Doe")
	require.NoError(t, err)
	assert.Equal(t, uint(7), id)
	assert.Equal(t, int64(0), r.Created())

	// Cached now; no further store calls.
	id, err = r.Resolve(ctx, reference.KindAuthor, "jane DOE")
	require.NoError(t, err)
	assert.Equal(t, uint(7), id)
	store.AssertExpectations(t)
}

func TestResolve_ConflictRetriesOnce(t *testing.T) {
	store := new(mockStore)
	ctx := context.Background()

	store.On("FindByKey", ctx, reference.KindTag, "ghost").Return(uint(0), false, nil).Twice()
	store.On("Create", ctx, reference.KindTag, "Ghost", "ghost", "ghost").Return(uint(0), gorm.ErrDuplicatedKey).Once()

	r := reference.NewResolver(store, zap.NewNop())
	_, err := r.Resolve(ctx, reference.KindTag, "Ghost")

	var rerr *reference.ResolutionError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, reference.KindTag, rerr.Kind)
	assert.Equal(t, "Ghost", rerr.Name)
	store.AssertNumberOfCalls(t, "Create", 1)
	store.AssertNumberOfCalls(t, "FindByKey", 2)
}

func TestResolve_StoreErrorPropagates(t *testing.T) {
	store := new(mockStore)
	ctx := context.Background()
	boom := errors.New("boom")

	store.On("FindByKey", ctx, reference.KindArtist, "x").Return(uint(0), false, boom)

	r := reference.NewResolver(store, zap.NewNop())
	_, err := r.Resolve(ctx, reference.KindArtist, "x")
	assert.ErrorIs(t, err, boom)
}

func TestResolveAll(t *testing.T) {
	db := setupDB(t)
	r := reference.NewResolver(reference.NewGormStore(db), zap.NewNop())

	ids, err := r.ResolveAll(context.Background(), reference.KindTag, []string{"Action", "", "Drama", "ACTION", " drama", "Comedy"})
	require.NoError(t, err)
	require.Len(t, ids, 3)
	assert.Equal(t, int64(3), r.Created())

	var names []string
	require.NoError(t, db.Model(&models.Tag{}).Order("id").Pluck("name", &names).Error)
	assert.Equal(t, []string{"Action", "Drama", "Comedy"}, names)
}
