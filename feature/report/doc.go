// Package report aggregates the outcome of an import run.
//
// Reporter counts created, updated, skipped and errored records per kind,
// asset outcomes and transferred bytes, and keeps the first 100 error
// summaries. Finish saves the durable asset index (a failure is logged, not
// fatal) and returns a Statistics snapshot that renders as tables or JSON.
package report
