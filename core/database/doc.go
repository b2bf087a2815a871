// Package database handles database connections, driver error classification
// and schema inspection.
//
// It wraps GORM to open MySQL, PostgreSQL or SQLite connections from the
// application's configuration. Driver errors are translated so callers can ask
// simple questions about them:
//
//   - IsTransient: deadlocks, serialization failures, lock timeouts, busy sqlite.
//     The importer retries these with backoff.
//   - IsFatal: connection loss, bad credentials, missing schema. The importer
//     aborts the run on these.
//   - IsDuplicate: unique constraint violations, used by find-or-create.
//
// # Schema Inspection
//
// GetTableColumns and MissingColumns let the migrate command verify that the
// tables the importer writes to carry every column it needs.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	missing, err := database.MissingColumns(db, "series", []string{"slug", "title"})
package database
