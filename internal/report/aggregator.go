package report

import (
	"log/slog"
	"sort"
	"time"

	"TranscriptEnricher/internal/domain"
)

// Aggregator merges cache hits with dispatcher output into the final
// transcript-ordered report.
type Aggregator struct {
	threshold int
	logger    *slog.Logger
}

// New captures the relevance threshold used for filtering.
func New(threshold int, logger *slog.Logger) *Aggregator {
	return &Aggregator{threshold: threshold, logger: logger}
}

// Build reorders the merged result set by first-seen position and keeps an
// entry iff it completed with a score at or above the threshold. The
// counters always describe the full evaluated population, so the report is
// reproducible for identical input and cache state no matter how the
// concurrent phase interleaved.
func (a *Aggregator) Build(hits, dispatched []domain.AnalysisResult, extractionSkipped int, elapsed time.Duration) domain.EnrichmentReport {
	merged := make([]domain.AnalysisResult, 0, len(hits)+len(dispatched))
	merged = append(merged, hits...)
	merged = append(merged, dispatched...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Item.FirstSeenOrder < merged[j].Item.FirstSeenOrder
	})

	rep := domain.EnrichmentReport{
		ThresholdUsed:     a.threshold,
		TotalEvaluated:    len(merged),
		ExtractionSkipped: extractionSkipped,
		Elapsed:           elapsed,
	}

	for _, result := range merged {
		switch result.Outcome {
		case domain.OutcomeCompleted:
			if result.RelevanceScore >= a.threshold {
				rep.RelevantCount++
				rep.Entries = append(rep.Entries, result)
			}
		case domain.OutcomeFailed, domain.OutcomeTimedOut:
			rep.FailedCount++
		case domain.OutcomeSkippedByLimit:
			rep.SkippedByLimit++
		}
	}

	a.info("enrichment report built",
		"relevant", rep.RelevantCount,
		"evaluated", rep.TotalEvaluated,
		"failed", rep.FailedCount,
		"skipped", rep.SkippedCount(),
		"threshold", a.threshold,
	)

	return rep
}

func (a *Aggregator) info(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Info(msg, args...)
	}
}
