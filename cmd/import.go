package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"content-importer/core/config"
	"content-importer/core/database"
	"content-importer/core/fetch"
	"content-importer/core/logger"
	"content-importer/core/retry"
	"content-importer/feature/assets"
	"content-importer/feature/importer"
	"content-importer/feature/reference"
	"content-importer/feature/report"
	"content-importer/feature/schema"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	importUsers       []string
	importSeries      []string
	importChapters    []string
	importConcurrency int
	importDryRun      bool
	importJSON        bool
)

// errRecordsFailed makes the process exit non-zero after a completed run
// with errored records.
var errRecordsFailed = errors.New("one or more records failed to import")

// importCmd runs one import.
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import users, series and chapters from JSON files",
	Long: `Import loads the given JSON files, validates every record, resolves authors,
artists, categories and tags, materializes images and upserts rows.

Patterns may be exact paths or globs; flags override the IMPORT_USERS,
IMPORT_SERIES and IMPORT_CHAPTERS settings.

Examples:
  # Validate only
  import --series 'data/series/*.json' --dry-run

  # Full import with a JSON summary
  import --users users.json --series 'series/*.json' --chapters 'chapters/*.json' --json`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringSliceVar(&importUsers, "users", nil, "User file paths or glob patterns")
	importCmd.Flags().StringSliceVar(&importSeries, "series", nil, "Series file paths or glob patterns")
	importCmd.Flags().StringSliceVar(&importChapters, "chapters", nil, "Chapter file paths or glob patterns")
	importCmd.Flags().IntVar(&importConcurrency, "concurrency", 0, "Records in flight per phase (1-32, default from config)")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Validate only; write nothing")
	importCmd.Flags().BoolVar(&importJSON, "json", false, "Print the summary as JSON")

	RootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, l, err := setup()
	if err != nil {
		return err
	}
	defer l.Sync()

	if importConcurrency > 0 {
		cfg.Import.Concurrency = importConcurrency
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	sources := importer.Sources{
		schema.KindUser:    pick(importUsers, cfg.Import.Users),
		schema.KindSeries:  pick(importSeries, cfg.Import.Series),
		schema.KindChapter: pick(importChapters, cfg.Import.Chapters),
	}
	if len(sources[schema.KindUser])+len(sources[schema.KindSeries])+len(sources[schema.KindChapter]) == 0 {
		return errors.New("nothing to import: pass --users, --series or --chapters")
	}

	runID := uuid.NewString()
	l = logger.WithRun(l, runID)
	l.Info("Starting import",
		zap.Bool("dry_run", importDryRun),
		zap.Int("concurrency", cfg.Import.Concurrency),
		zap.String("assets_backend", cfg.Assets.Backend))

	index, err := assets.LoadIndex(cfg.Assets.IndexPath, l)
	if err != nil {
		return err
	}
	rep := report.New(runID, index, l)
	validator := schema.NewValidator(time.Now())
	loader := importer.NewLoader(l)

	var engine *importer.Engine
	if !importDryRun {
		if err := index.Lock(); err != nil {
			return fmt.Errorf("%s: %w", index.Path(), err)
		}
		defer index.Unlock()

		engine, err = buildEngine(ctx, cfg, rep, index, l)
		if err != nil {
			return err
		}
	}

	stats, runErr := importer.NewPipeline(loader, validator, engine, rep, l).Run(ctx, sources, importDryRun)
	if err := printStats(stats); err != nil {
		l.Warn("Failed to print summary", zap.Error(err))
	}
	if runErr != nil {
		return runErr
	}
	if stats.HasErrors() {
		return errRecordsFailed
	}
	return nil
}

func buildEngine(ctx context.Context, cfg *config.Config, rep *report.Reporter, index *assets.Index, l *zap.Logger) (*importer.Engine, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}

	sink, err := openSink(ctx, cfg)
	if err != nil {
		return nil, err
	}

	resolver := reference.NewResolver(reference.NewGormStore(db), l)
	rep.TrackReferences(resolver.Created)

	dedup := assets.NewDeduplicator(fetch.New(cfg.Fetch, l), sink, index, assets.Options{
		Concurrency: cfg.Assets.Concurrency,
		DefaultExt:  cfg.Assets.DefaultExt,
		Recorder:    rep,
		Logger:      l,
	})

	persister := importer.NewRepository(db)
	adapters := importer.DefaultAdapters(importer.Deps{
		Persister: persister,
		Resolver:  resolver,
		Assets:    dedup,
		Folders:   cfg.Assets,
		Logger:    l,
	})

	return importer.NewEngine(persister, adapters, rep, importer.EngineOptions{
		Concurrency: cfg.Import.Concurrency,
		Retry: retry.Policy{
			MaxAttempts: cfg.Import.MaxAttempts,
			BaseDelay:   time.Duration(cfg.Import.BaseDelayMS) * time.Millisecond,
			MaxDelay:    time.Duration(cfg.Import.MaxDelayMS) * time.Millisecond,
		},
	}, l), nil
}

// printStats writes a table on terminals and JSON otherwise.
func printStats(stats report.Statistics) error {
	fd := os.Stdout.Fd()
	if importJSON || !(isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)) {
		return stats.WriteJSON(os.Stdout)
	}
	return stats.Render(os.Stdout)
}

func pick(flag, fallback []string) []string {
	if len(flag) > 0 {
		return flag
	}
	return fallback
}
