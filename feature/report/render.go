package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"content-importer/feature/schema"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Render writes the human readable summary: one table per section.
func (s Statistics) Render(w io.Writer) error {
	title := "Import summary"
	if s.DryRun {
		title = "Validation summary (dry run)"
	}
	if _, err := fmt.Fprintf(w, "%s  run %s  %s\n", title, s.RunID, s.Elapsed.Round(time.Millisecond)); err != nil {
		return err
	}

	records := newTable("Kind", "Valid", "Created", "Updated", "Skipped", "Errored", "Time")
	for _, kind := range schema.Kinds {
		k, ok := s.Kinds[kind]
		if !ok {
			continue
		}
		records.AppendRow(table.Row{
			string(kind),
			humanize.Comma(int64(k.Valid)),
			humanize.Comma(int64(k.Created)),
			humanize.Comma(int64(k.Updated)),
			humanize.Comma(int64(k.Skipped)),
			humanize.Comma(int64(k.Errored)),
			k.Duration.Round(time.Millisecond).String(),
		})
	}
	if _, err := fmt.Fprintln(w, records.Render()); err != nil {
		return err
	}

	if !s.DryRun {
		images := newTable("Downloaded", "Deduplicated", "Cached", "Fallback", "Transferred", "References")
		images.AppendRow(table.Row{
			humanize.Comma(int64(s.Images.Downloaded)),
			humanize.Comma(int64(s.Images.Deduplicated)),
			humanize.Comma(int64(s.Images.Cached)),
			humanize.Comma(int64(s.Images.Fallback)),
			humanize.Bytes(uint64(s.Images.BytesDownloaded)),
			humanize.Comma(s.ReferencesCreated),
		})
		if _, err := fmt.Fprintln(w, images.Render()); err != nil {
			return err
		}
	}

	if len(s.Errors) > 0 {
		errs := newTable("#", "Kind", "Outcome", "Record", "Message")
		for i, e := range s.Errors {
			where := e.Key
			if where == "" {
				where = e.Origin
			}
			errs.AppendRow(table.Row{strconv.Itoa(i + 1), string(e.Kind), string(e.Outcome), where, e.Message})
		}
		if _, err := fmt.Fprintln(w, errs.Render()); err != nil {
			return err
		}
		if hidden := s.ErrorsTotal - len(s.Errors); hidden > 0 {
			if _, err := fmt.Fprintf(w, "... and %s more\n", humanize.Comma(int64(hidden))); err != nil {
				return err
			}
		}
	}

	if s.IndexError != "" {
		if _, err := fmt.Fprintf(w, "warning: asset index not saved: %s\n", s.IndexError); err != nil {
			return err
		}
	}
	return nil
}

func newTable(headers ...string) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	configs := make([]table.ColumnConfig, len(headers))
	for i, h := range headers {
		header[i] = h
		align := text.AlignRight
		if i == 0 || h == "Kind" || h == "Outcome" || h == "Record" || h == "Message" {
			align = text.AlignLeft
		}
		configs[i] = table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)
	return tw
}
