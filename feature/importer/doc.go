// Package importer is the upsert orchestrator of content-importer.
//
// A run loads JSON files (Loader), validates them (schema.Validator) and
// hands the valid records to the Engine. The Engine processes kinds as
// phases, users then series then chapters, each phase with a bounded pool
// of workers. For every record the kind's Adapter first resolves references,
// checks the parent and materializes assets outside any transaction. The
// resulting Mutation then runs in a transaction:
//
//  1. look the row up by its natural key (created vs updated),
//  2. insert-on-conflict-update the mutable columns and updated_at,
//  3. reload the id,
//  4. delete and reinsert child rows (chapter pages, series tags).
//
// Transient database errors (deadlocks, serialization failures, lock waits,
// busy databases) retry the whole transaction with exponential backoff.
// Other errors mark the record errored and the batch continues. A chapter
// whose series does not exist is skipped. Fatal errors (lost connection,
// authentication, missing schema) cancel the pool and abort the run.
//
// Persister is the persistence contract; Repository implements it on gorm.
package importer
