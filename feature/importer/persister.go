package importer

import (
	"context"
	"errors"
	"reflect"

	"content-importer/core/database"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Persister is the persistence contract of the orchestrator. Rows are gorm
// model pointers; keys are column → value maps.
type Persister interface {
	// Transaction runs fn in a transaction. fn receives a Persister bound to it.
	Transaction(ctx context.Context, fn func(tx Persister) error) error

	// FindByUniqueKey loads the row matching key into dest and reports whether
	// it exists.
	FindByUniqueKey(ctx context.Context, dest any, key map[string]any) (bool, error)

	// Insert creates row.
	Insert(ctx context.Context, row any) error

	// UpdateByUniqueKey updates the given columns of the row matching key and
	// returns the number of affected rows.
	UpdateByUniqueKey(ctx context.Context, model any, key map[string]any, values map[string]any) (int64, error)

	// InsertOnConflictUpdate inserts row or, when the conflict columns
	// collide, updates the listed columns in one statement.
	InsertOnConflictUpdate(ctx context.Context, row any, conflict, update []string) error

	// ReplaceChildren deletes every child of parentID and inserts rows.
	// rows is a slice of child models and may be empty.
	ReplaceChildren(ctx context.Context, model any, parentColumn string, parentID uint, rows any) error
}

// Repository implements Persister with gorm. Driver errors are classified
// with database.Classify.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a repository on db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Transaction(ctx context.Context, fn func(tx Persister) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
	return database.Classify(err)
}

func (r *Repository) FindByUniqueKey(ctx context.Context, dest any, key map[string]any) (bool, error) {
	err := r.db.WithContext(ctx).Where(key).Take(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, database.Classify(err)
	}
	return true, nil
}

func (r *Repository) Insert(ctx context.Context, row any) error {
	return database.Classify(r.db.WithContext(ctx).Create(row).Error)
}

func (r *Repository) UpdateByUniqueKey(ctx context.Context, model any, key map[string]any, values map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).Model(model).Where(key).Updates(values)
	return res.RowsAffected, database.Classify(res.Error)
}

func (r *Repository) InsertOnConflictUpdate(ctx context.Context, row any, conflict, update []string) error {
	columns := make([]clause.Column, len(conflict))
	for i, c := range conflict {
		columns[i] = clause.Column{Name: c}
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   columns,
		DoUpdates: clause.AssignmentColumns(update),
	}).Create(row).Error
	return database.Classify(err)
}

func (r *Repository) ReplaceChildren(ctx context.Context, model any, parentColumn string, parentID uint, rows any) error {
	db := r.db.WithContext(ctx)
	if err := db.Where(parentColumn+" = ?", parentID).Delete(model).Error; err != nil {
		return database.Classify(err)
	}
	if rows == nil {
		return nil
	}
	v := reflect.ValueOf(rows)
	if v.Kind() == reflect.Slice {
		// gorm writes generated ids back, so it needs an addressable slice.
		p := reflect.New(v.Type())
		p.Elem().Set(v)
		rows, v = p.Interface(), p
	}
	if e := reflect.Indirect(v); e.Kind() == reflect.Slice && e.Len() == 0 {
		return nil
	}
	return database.Classify(db.Create(rows).Error)
}
