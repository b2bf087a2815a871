package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
		fatal     bool
		duplicate bool
	}{
		{"MySQLDeadlock", &mysql.MySQLError{Number: 1213, Message: "Deadlock found"}, true, false, false},
		{"MySQLLockWait", &mysql.MySQLError{Number: 1205, Message: "Lock wait timeout"}, true, false, false},
		{"MySQLAccessDenied", &mysql.MySQLError{Number: 1045, Message: "Access denied"}, false, true, false},
		{"MySQLDuplicate", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, false, false, true},
		{"PostgresSerialization", &pgconn.PgError{Code: "40001"}, true, false, false},
		{"PostgresConnection", &pgconn.PgError{Code: "08006"}, false, true, false},
		{"PostgresAuth", &pgconn.PgError{Code: "28P01"}, false, true, false},
		{"PostgresUnique", &pgconn.PgError{Code: "23505"}, false, false, true},
		{"SQLiteBusy", errors.New("database is locked"), true, false, false},
		{"SQLiteUnique", errors.New("UNIQUE constraint failed: series.slug"), false, false, true},
		{"GormDuplicate", fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), false, false, true},
		{"BadConn", driver.ErrBadConn, false, true, false},
		{"Canceled", context.Canceled, false, true, false},
		{"Plain", errors.New("check constraint failed"), false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.transient, IsTransient(tt.err), "transient")
			assert.Equal(t, tt.fatal, IsFatal(tt.err), "fatal")
			assert.Equal(t, tt.duplicate, IsDuplicate(tt.err), "duplicate")

			classified := Classify(tt.err)
			assert.ErrorIs(t, classified, tt.err)
			assert.Equal(t, tt.transient, errors.Is(classified, ErrTransient))
			assert.Equal(t, tt.fatal, errors.Is(classified, ErrFatal))
		})
	}
}

func TestClassify_Idempotent(t *testing.T) {
	once := Classify(&mysql.MySQLError{Number: 1213})
	twice := Classify(once)
	assert.Same(t, once, twice)
	assert.Nil(t, Classify(nil))
}
