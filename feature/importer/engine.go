package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"content-importer/core/database"
	"content-importer/core/logger"
	"content-importer/core/retry"
	"content-importer/feature/report"
	"content-importer/feature/schema"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// Result is the outcome of one record.
type Result struct {
	Kind     schema.Kind
	Key      string
	Origin   string
	Outcome  report.Outcome
	Duration time.Duration
	Err      error
}

// EngineOptions tunes an Engine.
type EngineOptions struct {
	// Concurrency bounds in-flight records per phase, clamped to [1, MaxConcurrency].
	Concurrency int
	// Retry governs transaction retries on transient errors.
	Retry retry.Policy
}

// Engine drives validated records through their adapters with bounded
// concurrency. Kinds run as sequential phases in schema.Kinds order so that
// parents exist before their children.
type Engine struct {
	persister Persister
	adapters  map[schema.Kind]Adapter
	reporter  *report.Reporter
	logger    *zap.Logger
	opts      EngineOptions
}

// NewEngine creates an engine. reporter may be nil.
func NewEngine(persister Persister, adapters []Adapter, reporter *report.Reporter, opts EngineOptions, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	switch {
	case opts.Concurrency < 1:
		opts.Concurrency = 1
	case opts.Concurrency > MaxConcurrency:
		opts.Concurrency = MaxConcurrency
	}
	if opts.Retry.MaxAttempts < 1 {
		opts.Retry = retry.DefaultPolicy
	}

	byKind := make(map[schema.Kind]Adapter, len(adapters))
	for _, a := range adapters {
		byKind[a.Kind()] = a
	}
	return &Engine{
		persister: persister,
		adapters:  byKind,
		reporter:  reporter,
		logger:    log.With(zap.String("component", "engine")),
		opts:      opts,
	}
}

// Run imports records and returns one Result per record. Record-level
// failures are reported in the results; only a fatal persistence error stops
// the run, in which case the results gathered so far are returned with it.
func (e *Engine) Run(ctx context.Context, records []*schema.Record) ([]Result, error) {
	byKind := make(map[schema.Kind][]*schema.Record)
	for _, rec := range records {
		byKind[rec.Kind] = append(byKind[rec.Kind], rec)
	}

	results := make([]Result, 0, len(records))
	for _, kind := range schema.Kinds {
		batch := byKind[kind]
		if len(batch) == 0 {
			continue
		}

		start := time.Now()
		phase, err := e.runPhase(ctx, kind, batch)
		results = append(results, phase...)
		e.logger.Info("Phase finished",
			zap.String("kind", string(kind)),
			zap.Int("records", len(phase)),
			zap.Duration("elapsed", time.Since(start)))
		if err != nil {
			return results, fmt.Errorf("import aborted during %s phase: %w", kind, err)
		}
	}
	return results, nil
}

func (e *Engine) runPhase(ctx context.Context, kind schema.Kind, batch []*schema.Record) ([]Result, error) {
	adapter, ok := e.adapters[kind]
	if !ok {
		return nil, fmt.Errorf("no adapter for kind %q", kind)
	}

	results := make([]Result, len(batch))
	done := make([]bool, len(batch))

	p := pool.New().
		WithMaxGoroutines(e.opts.Concurrency).
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError()

	for i, rec := range batch {
		p.Go(func(ctx context.Context) error {
			res, fatal := e.process(ctx, adapter, rec)
			results[i] = res
			done[i] = true
			return fatal
		})
	}
	err := p.Wait()

	out := results[:0]
	for i := range results {
		if done[i] {
			out = append(out, results[i])
		}
	}
	return out, err
}

// process imports one record and returns its result plus a non-nil error
// only when the failure is fatal for the whole run.
func (e *Engine) process(ctx context.Context, adapter Adapter, rec *schema.Record) (Result, error) {
	start := time.Now()
	res := Result{Kind: rec.Kind, Key: rec.Key, Origin: rec.Origin}
	log := logger.WithRecord(e.logger, string(rec.Kind), rec.Key, rec.Origin)

	var fatal error
	created, err := e.importRecord(ctx, adapter, rec, log)
	switch {
	case err == nil && created:
		res.Outcome = report.OutcomeCreated
	case err == nil:
		res.Outcome = report.OutcomeUpdated
	case errors.Is(err, ErrParentNotFound):
		res.Outcome = report.OutcomeSkipped
		log.Warn("Skipping record without parent", zap.Error(err))
	case ctx.Err() != nil:
		res.Outcome = report.OutcomeErrored
		log.Debug("Record interrupted by abort", zap.Error(err))
	case database.IsFatal(err):
		res.Outcome = report.OutcomeErrored
		fatal = err
		log.Error("Fatal persistence error", zap.Error(err))
	default:
		res.Outcome = report.OutcomeErrored
		log.Warn("Record failed", zap.Error(err))
	}

	res.Err = err
	res.Duration = time.Since(start)
	if e.reporter != nil {
		e.reporter.Record(res.Kind, res.Key, res.Origin, res.Outcome, res.Duration, err)
	}
	return res, fatal
}

func (e *Engine) importRecord(ctx context.Context, adapter Adapter, rec *schema.Record, log *zap.Logger) (bool, error) {
	var mutation Mutation
	err := retry.Do(ctx, e.opts.Retry, database.IsTransient,
		func(attempt int, wait time.Duration, err error) {
			log.Info("Retrying prepare",
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait),
				zap.Error(err))
		},
		func(int) error {
			m, err := adapter.Prepare(ctx, rec)
			mutation = m
			return err
		})
	if err != nil {
		return false, err
	}

	var created bool
	err = retry.Do(ctx, e.opts.Retry, database.IsTransient,
		func(attempt int, wait time.Duration, err error) {
			log.Info("Retrying transaction",
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait),
				zap.Error(err))
		},
		func(int) error {
			return e.persister.Transaction(ctx, func(tx Persister) error {
				c, err := mutation.Apply(ctx, tx)
				created = c
				return err
			})
		})
	return created, err
}
