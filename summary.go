package main

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"slideshow/models"
)

// renderSummary prints one row per batch followed by run totals.
func renderSummary(w io.Writer, report *models.RunReport) {
	if len(report.Batches) == 0 {
		fmt.Fprintln(w, "No videos were produced.")
		for _, warning := range report.Warnings {
			fmt.Fprintf(w, "Warning: %s\n", warning)
		}
		return
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Batch", "Status", "Images", "Duration", "Size", "Output"})

	for _, br := range report.Batches {
		tw.AppendRow(table.Row{
			br.Index,
			batchStatus(br),
			fmt.Sprintf("%d/%d", br.Succeeded(), len(br.Images)),
			formatSeconds(br.SegmentDuration),
			formatSize(br.SizeBytes),
			outputName(br),
		})
	}

	s := report.Summary
	tw.AppendFooter(table.Row{
		"Total",
		fmt.Sprintf("%d encoded", s.BatchesEncoded),
		fmt.Sprintf("%d/%d", s.ImagesOK, s.Images),
		formatSeconds(s.OutputSeconds),
		formatSize(s.OutputBytes),
		"",
	})

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	tw.Render()

	if report.DryRun {
		for _, br := range report.Batches {
			if br.Command != "" {
				fmt.Fprintf(w, "Batch %d: %s\n", br.Index, br.Command)
			}
		}
		return
	}
	elapsed := report.FinishedAt.Sub(report.StartedAt).Round(time.Second)
	fmt.Fprintf(w, "%d skipped, %d failed, %d warnings in %s\n",
		s.BatchesSkipped, s.BatchesFailed, s.Warnings, elapsed)
}

func batchStatus(br *models.BatchResult) string {
	if br.Status == models.BatchStatusEncoded && len(br.Warnings) > 0 {
		return fmt.Sprintf("encoded (warnings: %d)", len(br.Warnings))
	}
	return string(br.Status)
}

func outputName(br *models.BatchResult) string {
	if br.OutputPath == "" {
		return "-"
	}
	return filepath.Base(br.OutputPath)
}

func formatSeconds(s float64) string {
	return humanize.FtoaWithDigits(s, 2) + "s"
}

func formatSize(n int64) string {
	if n <= 0 {
		return "-"
	}
	return humanize.Bytes(uint64(n))
}
