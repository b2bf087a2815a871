// Package assets materializes remote images with content-addressed
// deduplication.
//
// Each Materialize call ends in one of four outcomes:
//
//   - Cached: the URL was resolved earlier in the run, or the durable index
//     knows it and the stored file still exists.
//   - Deduplicated: the bytes were fetched but identical content (same
//     SHA-256) is already stored; its path is reused.
//   - Materialized: novel content was stored as <folder>/<hash><ext>.
//   - Fallback: fetching or storing failed; the caller's fallback path is
//     returned and a warning logged.
//
// A URL is fetched at most once per run and a given content hash is stored
// once, both enforced with singleflight groups. Stale index entries are
// forgotten and the asset is materialized again. The Index is a JSON file
// rewritten atomically at the end of a run and guarded by a lock file.
package assets
