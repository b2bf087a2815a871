package importer

import (
	"context"
	"errors"
	"fmt"
	"reflect"
)

// upsert is the shared Mutation: probe for the natural key, insert or update
// in one statement, reload the id, then replace children.
type upsert struct {
	row      any
	probe    func() any
	key      map[string]any
	conflict []string
	update   []string
	// children returns the child model, its parent column and the rows to
	// insert for the given parent id. Nil when the kind has no children.
	children func(id uint) (model any, parentColumn string, rows any)
}

func (u *upsert) Apply(ctx context.Context, tx Persister) (bool, error) {
	existing := u.probe()
	found, err := tx.FindByUniqueKey(ctx, existing, u.key)
	if err != nil {
		return false, fmt.Errorf("lookup: %w", err)
	}

	row := u.fresh()
	if err := tx.InsertOnConflictUpdate(ctx, row, u.conflict, u.update); err != nil {
		return false, fmt.Errorf("upsert: %w", err)
	}

	if u.children == nil {
		return !found, nil
	}

	// Drivers disagree on the id reported after ON DUPLICATE KEY UPDATE.
	saved := u.probe()
	ok, err := tx.FindByUniqueKey(ctx, saved, u.key)
	if err != nil {
		return false, fmt.Errorf("reload: %w", err)
	}
	if !ok {
		return false, errors.New("reload: row vanished after upsert")
	}

	model, column, rows := u.children(idOf(saved))
	if err := tx.ReplaceChildren(ctx, model, column, idOf(saved), rows); err != nil {
		return false, fmt.Errorf("replace %s children: %w", column, err)
	}
	return !found, nil
}

// fresh copies the row. An id assigned by a rolled back insert must not leak
// into the next attempt.
func (u *upsert) fresh() any {
	v := reflect.ValueOf(u.row).Elem()
	cp := reflect.New(v.Type())
	cp.Elem().Set(v)
	return cp.Interface()
}

func idOf(row any) uint {
	v := reflect.Indirect(reflect.ValueOf(row))
	f := v.FieldByName("ID")
	if !f.IsValid() {
		return 0
	}
	return uint(f.Uint())
}
