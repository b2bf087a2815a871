package report

import (
	"context"
	"sync"
	"time"

	"content-importer/core/utils"
	"content-importer/feature/assets"
	"content-importer/feature/schema"

	"go.uber.org/zap"
)

// MaxErrorSummaries caps the error list kept in Statistics.
const MaxErrorSummaries = 100

// IndexSaver persists the durable asset index.
type IndexSaver interface {
	Save() error
}

// Reporter accumulates run statistics. It is safe for concurrent use and
// implements assets.Recorder.
type Reporter struct {
	logger *zap.Logger
	index  IndexSaver
	now    func() time.Time

	mu          sync.Mutex
	stats       Statistics
	kinds       map[schema.Kind]*KindStats
	refsCreated func() int64
}

// New creates a reporter for runID. index may be nil.
func New(runID string, index IndexSaver, logger *zap.Logger) *Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Reporter{
		logger: logger.With(zap.String("component", "report")),
		index:  index,
		now:    time.Now,
		kinds:  make(map[schema.Kind]*KindStats),
	}
	r.stats.RunID = runID
	r.stats.StartedAt = r.now()
	return r
}

// SetDryRun marks the run as validation only.
func (r *Reporter) SetDryRun(dry bool) {
	r.mu.Lock()
	r.stats.DryRun = dry
	r.mu.Unlock()
}

// TrackReferences registers a counter of reference rows created during the run.
func (r *Reporter) TrackReferences(created func() int64) {
	r.mu.Lock()
	r.refsCreated = created
	r.mu.Unlock()
}

// RecordValid counts a record that passed validation.
func (r *Reporter) RecordValid(kind schema.Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kindLocked(kind).Valid++
}

func (r *Reporter) kindLocked(kind schema.Kind) *KindStats {
	k, ok := r.kinds[kind]
	if !ok {
		k = &KindStats{}
		r.kinds[kind] = k
	}
	return k
}

// Record adds one record outcome. err is summarized for skipped and errored
// outcomes.
func (r *Reporter) Record(kind schema.Kind, key, origin string, outcome Outcome, d time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := r.kindLocked(kind)
	k.Duration += d

	switch outcome {
	case OutcomeCreated:
		k.Created++
	case OutcomeUpdated:
		k.Updated++
	case OutcomeSkipped:
		k.Skipped++
	default:
		k.Errored++
	}

	if err == nil || outcome == OutcomeCreated || outcome == OutcomeUpdated {
		return
	}
	r.stats.ErrorsTotal++
	if len(r.stats.Errors) < MaxErrorSummaries {
		r.stats.Errors = append(r.stats.Errors, ErrorSummary{
			Kind:    kind,
			Key:     key,
			Origin:  origin,
			Outcome: outcome,
			Message: utils.Truncate(err.Error(), 500),
		})
	}
}

// RecordAsset implements assets.Recorder.
func (r *Reporter) RecordAsset(outcome assets.Outcome, fetched int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	img := &r.stats.Images
	img.BytesDownloaded += fetched
	switch outcome {
	case assets.OutcomeMaterialized:
		img.Downloaded++
	case assets.OutcomeDeduplicated:
		img.Deduplicated++
	case assets.OutcomeCached:
		img.Cached++
	case assets.OutcomeFallback:
		img.Fallback++
	}
}

// Snapshot returns the statistics gathered so far.
func (r *Reporter) Snapshot() Statistics {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Reporter) snapshotLocked() Statistics {
	s := r.stats
	s.Kinds = make(map[schema.Kind]KindStats, len(r.kinds))
	for kind, k := range r.kinds {
		s.Kinds[kind] = *k
	}
	s.Errors = append([]ErrorSummary(nil), r.stats.Errors...)
	if r.refsCreated != nil {
		s.ReferencesCreated = r.refsCreated()
	}
	s.FinishedAt = r.now()
	s.Elapsed = s.FinishedAt.Sub(s.StartedAt)
	return s
}

// Finish persists the durable asset index and returns the final snapshot.
// The index is saved even for aborted runs; every entry in it is valid.
// A failed save is logged and reported in IndexError; it does not fail
// the run.
func (r *Reporter) Finish(ctx context.Context) Statistics {
	var indexErr error
	if r.index != nil {
		indexErr = r.index.Save()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if indexErr != nil {
		r.logger.Warn("Failed to save asset index", zap.Error(indexErr))
		r.stats.IndexError = indexErr.Error()
	}

	s := r.snapshotLocked()
	msg := "Import finished"
	if ctx.Err() != nil {
		msg = "Import aborted"
	}
	r.logger.Info(msg,
		zap.String("run_id", s.RunID),
		zap.Duration("elapsed", s.Elapsed),
		zap.Int("errors", s.ErrorsTotal),
		zap.Int("images_downloaded", s.Images.Downloaded),
		zap.Int("images_deduplicated", s.Images.Deduplicated),
		zap.Int("images_cached", s.Images.Cached))
	return s
}
