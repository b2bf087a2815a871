package reference

import (
	"context"
	"errors"

	"content-importer/core/database"
	"content-importer/feature/importer/models"

	"gorm.io/gorm"
)

// Store is the persistence side of the resolver.
type Store interface {
	// FindByKey returns the id of the row whose name_key equals key.
	FindByKey(ctx context.Context, kind Kind, key string) (uint, bool, error)
	// Create inserts a row and returns its id. A unique conflict on name_key
	// must be reported so that database.IsDuplicate recognizes it.
	Create(ctx context.Context, kind Kind, name, key, slug string) (uint, error)
}

// GormStore implements Store on the reference tables.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store on db.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) FindByKey(ctx context.Context, kind Kind, key string) (uint, bool, error) {
	table, err := kind.Table()
	if err != nil {
		return 0, false, err
	}

	var row models.Lookup
	err = s.db.WithContext(ctx).Table(table).Select("id").Where("name_key = ?", key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, database.Classify(err)
	}
	return row.ID, true, nil
}

func (s *GormStore) Create(ctx context.Context, kind Kind, name, key, slug string) (uint, error) {
	table, err := kind.Table()
	if err != nil {
		return 0, err
	}

	row := models.Lookup{Name: name, NameKey: key, Slug: slug}
	if err := s.db.WithContext(ctx).Table(table).Create(&row).Error; err != nil {
		return 0, database.Classify(err)
	}
	return row.ID, nil
}
