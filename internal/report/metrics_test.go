package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"TranscriptEnricher/internal/domain"
)

func TestMetricsWriterAppend(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "runs", "metrics.csv")
	writer := NewMetricsWriter(path)

	rep := domain.EnrichmentReport{
		ThresholdUsed:     3,
		TotalEvaluated:    6,
		RelevantCount:     4,
		FailedCount:       1,
		SkippedByLimit:    1,
		ExtractionSkipped: 2,
		Elapsed:           1500 * time.Millisecond,
	}
	startedAt := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	if err := writer.Append(startedAt, rep); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := writer.Append(startedAt.Add(time.Hour), rep); err != nil {
		t.Fatalf("second append: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "started_at" {
		t.Fatalf("header missing, first cell %q", rows[0][0])
	}

	row := rows[1]
	if row[0] != "2025-03-10T09:00:00Z" {
		t.Fatalf("started_at %q", row[0])
	}
	if row[2] != "1.5000" {
		t.Fatalf("duration %q", row[2])
	}
	if row[3] != "6" || row[4] != "4" || row[5] != "1" {
		t.Fatalf("counters %v", row[3:6])
	}
	if row[8] != "3" {
		t.Fatalf("threshold %q", row[8])
	}
}

func TestMetricsWriterNilPathIsNoop(t *testing.T) {
	t.Parallel()

	var writer *MetricsWriter
	if err := writer.Append(time.Now(), domain.EnrichmentReport{}); err != nil {
		t.Fatalf("nil writer must be a no-op, got %v", err)
	}
}
