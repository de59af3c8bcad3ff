package report

import (
	"testing"
	"time"

	"TranscriptEnricher/internal/domain"
)

func completed(order, score int) domain.AnalysisResult {
	return domain.AnalysisResult{
		Item:           domain.Item{Fingerprint: "fp", FirstSeenOrder: order},
		SummaryText:    "summary",
		RelevanceScore: score,
		Outcome:        domain.OutcomeCompleted,
	}
}

func TestBuildFiltersByThreshold(t *testing.T) {
	t.Parallel()

	scores := []int{5, 2, 4, 3, 1, 4}
	var dispatched []domain.AnalysisResult
	for order, score := range scores {
		dispatched = append(dispatched, completed(order, score))
	}

	rep := New(3, nil).Build(nil, dispatched, 0, time.Second)

	if rep.TotalEvaluated != 6 {
		t.Fatalf("total evaluated %d", rep.TotalEvaluated)
	}
	if rep.RelevantCount != 4 {
		t.Fatalf("relevant count %d, want 4", rep.RelevantCount)
	}
	if got := rep.SummaryLine(); got != "4/6 items relevant" {
		t.Fatalf("summary line %q", got)
	}
	if len(rep.Entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(rep.Entries))
	}

	wantOrders := []int{0, 2, 3, 5}
	for i, entry := range rep.Entries {
		if entry.Item.FirstSeenOrder != wantOrders[i] {
			t.Fatalf("entry %d has order %d, want %d", i, entry.Item.FirstSeenOrder, wantOrders[i])
		}
	}
}

func TestBuildMergesHitsInTranscriptOrder(t *testing.T) {
	t.Parallel()

	hits := []domain.AnalysisResult{completed(1, 5), completed(3, 5)}
	hits[0].FromCache = true
	hits[1].FromCache = true
	dispatched := []domain.AnalysisResult{completed(0, 5), completed(2, 5)}

	rep := New(3, nil).Build(hits, dispatched, 0, time.Second)

	if len(rep.Entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(rep.Entries))
	}
	for i, entry := range rep.Entries {
		if entry.Item.FirstSeenOrder != i {
			t.Fatalf("entry %d has order %d", i, entry.Item.FirstSeenOrder)
		}
	}
	if !rep.Entries[1].FromCache || rep.Entries[0].FromCache {
		t.Fatalf("cache provenance lost in merge")
	}
}

func TestBuildCountsTerminalOutcomes(t *testing.T) {
	t.Parallel()

	dispatched := []domain.AnalysisResult{
		completed(0, 5),
		{Item: domain.Item{FirstSeenOrder: 1}, Outcome: domain.OutcomeFailed},
		{Item: domain.Item{FirstSeenOrder: 2}, Outcome: domain.OutcomeTimedOut},
		{Item: domain.Item{FirstSeenOrder: 3}, Outcome: domain.OutcomeSkippedByLimit},
	}

	rep := New(3, nil).Build(nil, dispatched, 2, time.Second)

	if rep.TotalEvaluated != 4 {
		t.Fatalf("total evaluated %d", rep.TotalEvaluated)
	}
	if rep.FailedCount != 2 {
		t.Fatalf("failed count %d, want failed+timed_out", rep.FailedCount)
	}
	if rep.SkippedByLimit != 1 {
		t.Fatalf("skipped by limit %d", rep.SkippedByLimit)
	}
	if rep.ExtractionSkipped != 2 {
		t.Fatalf("extraction skipped %d", rep.ExtractionSkipped)
	}
	if rep.SkippedCount() != 3 {
		t.Fatalf("skipped count %d", rep.SkippedCount())
	}
	if len(rep.Entries) != 1 {
		t.Fatalf("only the completed relevant item may appear, got %d", len(rep.Entries))
	}
}

func TestBuildEmptyRun(t *testing.T) {
	t.Parallel()

	rep := New(3, nil).Build(nil, nil, 0, 0)

	if rep.TotalEvaluated != 0 || rep.RelevantCount != 0 || len(rep.Entries) != 0 {
		t.Fatalf("empty run produced non-empty report: %+v", rep)
	}
	if got := rep.SummaryLine(); got != "0/0 items relevant" {
		t.Fatalf("summary line %q", got)
	}
}
