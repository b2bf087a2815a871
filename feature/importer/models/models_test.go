package models_test

import (
	"path/filepath"
	"testing"

	"content-importer/core/database"
	"content-importer/feature/importer/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoMigrate(t *testing.T) {
	db, err := database.Connect(database.Config{
		Driver: database.DriverSQLite,
		Name:   filepath.Join(t.TempDir(), "models.db"),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	for _, table := range []string{"users", "series", "series_tags", "chapters", "chapter_pages", "authors", "artists", "categories", "tags"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasIndex(&models.Chapter{}, "idx_chapters_series_number"))

	missing, err := database.MissingColumns(db, "authors", []string{"id", "name", "name_key", "slug"})
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestSeries_AltTitlesRoundTrip(t *testing.T) {
	db, err := database.Connect(database.Config{
		Driver: database.DriverSQLite,
		Name:   filepath.Join(t.TempDir(), "alt.db"),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Series{}))

	in := models.Series{Slug: "a", Title: "A", AltTitles: []string{"Ä", "B"}}
	require.NoError(t, db.Create(&in).Error)

	var out models.Series
	require.NoError(t, db.First(&out, "slug = ?", "a").Error)
	assert.Equal(t, []string{"Ä", "B"}, out.AltTitles)
}
