package importer

import (
	"context"
	"errors"

	"content-importer/feature/schema"
)

// ErrParentNotFound marks a record whose parent row does not exist. Such
// records are skipped, not errored.
var ErrParentNotFound = errors.New("parent record not found")

// Adapter implements import logic for one record kind.
type Adapter interface {
	// Kind returns the record kind handled by this adapter.
	Kind() schema.Kind

	// Prepare runs outside any transaction. It resolves references, looks up
	// parents and materializes assets, and returns the writes to perform.
	// A missing parent is reported by wrapping ErrParentNotFound.
	Prepare(ctx context.Context, rec *schema.Record) (Mutation, error)
}

// Mutation is the prepared write of one record. Apply may run more than once
// when the transaction is retried, so it must not depend on earlier attempts.
type Mutation interface {
	// Apply writes the record and its children inside tx and reports whether
	// the main row was created (true) or updated (false).
	Apply(ctx context.Context, tx Persister) (created bool, err error)
}
