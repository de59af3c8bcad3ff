package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"TranscriptEnricher/internal/domain"
)

var metricsHeader = []string{
	"started_at",
	"finished_at",
	"duration_seconds",
	"total_evaluated",
	"relevant_count",
	"failed_count",
	"skipped_by_limit",
	"extraction_skipped",
	"threshold",
}

// MetricsWriter appends one CSV row per enrichment run for offline analysis.
type MetricsWriter struct {
	path string
}

// NewMetricsWriter targets the given CSV path; parent directories are
// created on first append.
func NewMetricsWriter(path string) *MetricsWriter {
	return &MetricsWriter{path: path}
}

// Append records the run. The header is written when the file is new.
func (w *MetricsWriter) Append(startedAt time.Time, rep domain.EnrichmentReport) error {
	if w == nil || w.path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}

	_, statErr := os.Stat(w.path)
	writeHeader := os.IsNotExist(statErr)

	file, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open metrics csv: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if writeHeader {
		if err := writer.Write(metricsHeader); err != nil {
			return fmt.Errorf("write metrics header: %w", err)
		}
	}

	row := []string{
		startedAt.UTC().Format(time.RFC3339),
		startedAt.Add(rep.Elapsed).UTC().Format(time.RFC3339),
		strconv.FormatFloat(rep.Elapsed.Seconds(), 'f', 4, 64),
		strconv.Itoa(rep.TotalEvaluated),
		strconv.Itoa(rep.RelevantCount),
		strconv.Itoa(rep.FailedCount),
		strconv.Itoa(rep.SkippedByLimit),
		strconv.Itoa(rep.ExtractionSkipped),
		strconv.Itoa(rep.ThresholdUsed),
	}
	if err := writer.Write(row); err != nil {
		return fmt.Errorf("write metrics row: %w", err)
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush metrics csv: %w", err)
	}
	return nil
}
