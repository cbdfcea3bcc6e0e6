package models

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// RunReport collects the per-batch results of one run.
type RunReport struct {
	RunID      string         `json:"run_id"`
	ImageDir   string         `json:"image_dir"`
	OutputDir  string         `json:"output_dir"`
	DryRun     bool           `json:"dry_run"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Summary    ReportSummary  `json:"summary"`
	Batches    []*BatchResult `json:"batches"`
	Warnings   []string       `json:"warnings,omitempty"` // run-level, e.g. no images found
}

// ReportSummary is derived from the batch results by Finalize.
type ReportSummary struct {
	Images         int     `json:"images"`
	ImagesOK       int     `json:"images_ok"`
	ImagesFailed   int     `json:"images_failed"`
	BatchesEncoded int     `json:"batches_encoded"`
	BatchesSkipped int     `json:"batches_skipped"`
	BatchesFailed  int     `json:"batches_failed"`
	BatchesPlanned int     `json:"batches_planned,omitempty"`
	Warnings       int     `json:"warnings"`
	OutputSeconds  float64 `json:"output_seconds"`
	OutputBytes    int64   `json:"output_bytes"`
}

// Add appends a batch result.
func (r *RunReport) Add(br *BatchResult) {
	r.Batches = append(r.Batches, br)
}

// Finalize normalizes times to UTC, orders batches by index and computes
// the summary from the batch results.
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	sort.SliceStable(r.Batches, func(i, j int) bool {
		return r.Batches[i].Index < r.Batches[j].Index
	})

	s := ReportSummary{Warnings: len(r.Warnings)}
	for _, br := range r.Batches {
		s.Images += len(br.Images)
		s.ImagesOK += br.Succeeded()
		s.ImagesFailed += br.Failed()
		s.Warnings += len(br.Warnings)
		switch br.Status {
		case BatchStatusEncoded:
			s.BatchesEncoded++
			s.OutputSeconds += br.SegmentDuration
			s.OutputBytes += br.SizeBytes
		case BatchStatusSkipped:
			s.BatchesSkipped++
		case BatchStatusFailed:
			s.BatchesFailed++
		case BatchStatusPlanned:
			s.BatchesPlanned++
		}
	}
	r.Summary = s
}

// WriteFile writes the report as indented JSON.
func (r *RunReport) WriteFile(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
