package importer

import (
	"context"
	"fmt"

	"content-importer/feature/report"
	"content-importer/feature/schema"

	"go.uber.org/zap"
)

// Sources maps each kind to its input paths or glob patterns.
type Sources map[schema.Kind][]string

// Pipeline wires loading, validation, the engine and the reporter into one run.
type Pipeline struct {
	loader    *Loader
	validator *schema.Validator
	engine    *Engine
	reporter  *report.Reporter
	logger    *zap.Logger
}

// NewPipeline creates a pipeline. engine may be nil for dry runs.
func NewPipeline(loader *Loader, validator *schema.Validator, engine *Engine, reporter *report.Reporter, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		loader:    loader,
		validator: validator,
		engine:    engine,
		reporter:  reporter,
		logger:    logger.With(zap.String("component", "pipeline")),
	}
}

// Run loads and validates every source, imports the valid records unless
// dryRun is set, and finishes the reporter. The returned error is non-nil only
// for input errors (unreadable files) and fatal persistence errors; the
// statistics are returned in both cases.
func (p *Pipeline) Run(ctx context.Context, sources Sources, dryRun bool) (report.Statistics, error) {
	p.reporter.SetDryRun(dryRun)

	records, err := p.Prepare(sources)
	if err != nil {
		return p.reporter.Finish(ctx), err
	}

	if dryRun {
		p.logger.Info("Dry run, nothing written", zap.Int("valid_records", len(records)))
		return p.reporter.Snapshot(), nil
	}
	if p.engine == nil {
		return p.reporter.Snapshot(), fmt.Errorf("pipeline has no engine")
	}

	_, runErr := p.engine.Run(ctx, records)
	return p.reporter.Finish(ctx), runErr
}

// Prepare loads and validates every source. Series may carry nested chapters,
// which join the chapter phase. Invalid records are reported as errored.
// When two records share a natural key the later one wins and the earlier is
// reported as skipped.
func (p *Pipeline) Prepare(sources Sources) ([]*schema.Record, error) {
	envelopes := make(map[schema.Kind][]schema.Envelope)
	for _, kind := range schema.Kinds {
		envs, err := p.loader.Load(kind, sources[kind])
		if err != nil {
			return nil, err
		}
		for _, env := range envs {
			self, children := schema.Expand(env, kind)
			envelopes[kind] = append(envelopes[kind], self)
			envelopes[schema.KindChapter] = append(envelopes[schema.KindChapter], children...)
		}
	}

	var records []*schema.Record
	for _, kind := range schema.Kinds {
		valid := make([]*schema.Record, 0, len(envelopes[kind]))
		byKey := make(map[string]int)
		for _, env := range envelopes[kind] {
			rec, err := p.validator.Validate(env, kind)
			if err != nil {
				p.logger.Warn("Invalid record",
					zap.String("kind", string(kind)),
					zap.String("origin", env.Origin()),
					zap.Error(err))
				p.reporter.Record(kind, "", env.Origin(), report.OutcomeErrored, 0, err)
				continue
			}
			p.reporter.RecordValid(kind)

			if i, dup := byKey[rec.Key]; dup {
				prev := valid[i]
				p.reporter.Record(kind, prev.Key, prev.Origin, report.OutcomeSkipped, 0,
					fmt.Errorf("superseded by %s", rec.Origin))
				valid[i] = rec
				continue
			}
			byKey[rec.Key] = len(valid)
			valid = append(valid, rec)
		}
		records = append(records, valid...)
	}
	return records, nil
}
