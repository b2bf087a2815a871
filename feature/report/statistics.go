package report

import (
	"encoding/json"
	"io"
	"time"

	"content-importer/feature/schema"
)

// Outcome is the per-record result of an import.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeUpdated Outcome = "updated"
	OutcomeSkipped Outcome = "skipped"
	OutcomeErrored Outcome = "errored"
)

// KindStats aggregates outcomes for one record kind.
type KindStats struct {
	// Valid counts records that passed validation.
	Valid    int           `json:"valid"`
	Created  int           `json:"created"`
	Updated  int           `json:"updated"`
	Skipped  int           `json:"skipped"`
	Errored  int           `json:"errored"`
	Duration time.Duration `json:"duration_ns"`
}

// Total returns the number of records with a final outcome.
func (k KindStats) Total() int {
	return k.Created + k.Updated + k.Skipped + k.Errored
}

// ImageStats aggregates asset outcomes. Downloaded counts stored (novel)
// assets; BytesDownloaded counts every fetched byte.
type ImageStats struct {
	Downloaded      int   `json:"downloaded"`
	Deduplicated    int   `json:"deduplicated"`
	Cached          int   `json:"cached"`
	Fallback        int   `json:"fallback"`
	BytesDownloaded int64 `json:"bytes_downloaded"`
}

// ErrorSummary describes one failed or skipped record.
type ErrorSummary struct {
	Kind    schema.Kind `json:"kind"`
	Key     string      `json:"key,omitempty"`
	Origin  string      `json:"origin,omitempty"`
	Outcome Outcome     `json:"outcome"`
	Message string      `json:"message"`
}

// Statistics is the snapshot returned at the end of a run.
type Statistics struct {
	RunID             string                    `json:"run_id"`
	DryRun            bool                      `json:"dry_run"`
	StartedAt         time.Time                 `json:"started_at"`
	FinishedAt        time.Time                 `json:"finished_at"`
	Elapsed           time.Duration             `json:"elapsed_ns"`
	Kinds             map[schema.Kind]KindStats `json:"kinds"`
	Images            ImageStats                `json:"images"`
	ReferencesCreated int64                     `json:"references_created"`
	Errors            []ErrorSummary            `json:"errors"`
	ErrorsTotal       int                       `json:"errors_total"`
	IndexError        string                    `json:"index_error,omitempty"`
}

// Kind returns the counters of k, zero when the kind was not imported.
func (s Statistics) Kind(k schema.Kind) KindStats {
	return s.Kinds[k]
}

// HasErrors reports whether any record ended as errored.
func (s Statistics) HasErrors() bool {
	for _, k := range s.Kinds {
		if k.Errored > 0 {
			return true
		}
	}
	return false
}

// WriteJSON writes s as indented JSON.
func (s Statistics) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
