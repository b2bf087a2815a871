package cmd

import (
	"fmt"
	"os"

	"content-importer/feature/assets"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var pruneYes bool

// indexCmd groups durable asset index maintenance.
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Inspect and maintain the durable asset index",
}

// indexStatsCmd prints index counters.
var indexStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show how many URLs and content hashes the index holds",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, l, err := setup()
		if err != nil {
			return err
		}
		defer l.Sync()

		index, err := assets.LoadIndex(cfg.Assets.IndexPath, l)
		if err != nil {
			return err
		}
		urls, hashes := index.Len()

		var size int64
		if info, err := os.Stat(index.Path()); err == nil {
			size = info.Size()
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"Index", "URLs", "Hashes", "Paths", "Size"})
		t.AppendRow(table.Row{index.Path(), humanize.Comma(int64(urls)), humanize.Comma(int64(hashes)),
			humanize.Comma(int64(len(index.Paths()))), humanize.Bytes(uint64(size))})
		t.Render()
		return nil
	},
}

// indexPruneCmd drops entries whose stored file no longer exists.
var indexPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Drop index entries whose asset is missing from the sink",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, l, err := setup()
		if err != nil {
			return err
		}
		defer l.Sync()

		index, err := assets.LoadIndex(cfg.Assets.IndexPath, l)
		if err != nil {
			return err
		}
		if err := index.Lock(); err != nil {
			return fmt.Errorf("%s: %w", index.Path(), err)
		}
		defer index.Unlock()

		sink, err := openSink(ctx, cfg)
		if err != nil {
			return err
		}

		if !confirm(fmt.Sprintf("Prune stale entries from %s?", index.Path()), pruneYes) {
			l.Warn("Operation cancelled by user. No changes were made.")
			return nil
		}

		removed, err := index.Prune(ctx, sink)
		if err != nil {
			return err
		}
		if err := index.Save(); err != nil {
			return err
		}
		l.Info("Pruned asset index", zap.Int("removed", removed), zap.String("path", index.Path()))
		return nil
	},
}

func init() {
	indexPruneCmd.Flags().BoolVar(&pruneYes, "yes", false, "Skip the confirmation prompt")

	indexCmd.AddCommand(indexStatsCmd, indexPruneCmd)
	RootCmd.AddCommand(indexCmd)
}
