package domain

import (
	"fmt"
	"time"
)

// Kind classifies an enrichable reference found in a transcript.
type Kind string

const (
	KindURL   Kind = "url"
	KindImage Kind = "image"
	KindPDF   Kind = "pdf"
	KindVideo Kind = "video"
)

// Message is a single transcript line produced by the parsing stage.
type Message struct {
	Timestamp time.Time `json:"timestamp"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
}

// Item is an enrichable reference extracted from a transcript.
// Items live for a single run and are never persisted.
type Item struct {
	Fingerprint    string
	Kind           Kind
	RawReference   string
	ContextBefore  []string
	ContextAfter   []string
	FirstSeenOrder int
}

// CacheEntry is the durable record of one successful analysis.
// Entries are immutable once written; only the eviction sweep removes them.
type CacheEntry struct {
	Fingerprint      string    `json:"fingerprint"`
	Kind             Kind      `json:"kind"`
	ModelID          string    `json:"model_id"`
	SummaryText      string    `json:"summary_text"`
	RelevanceScore   int       `json:"relevance_score,omitempty"`
	AnalyzedAt       time.Time `json:"analyzed_at"`
	ExpiresAfterDays int       `json:"expires_after_days,omitempty"`
}

// Expired reports whether the entry outlived its own retention window.
func (e CacheEntry) Expired(now time.Time) bool {
	if e.ExpiresAfterDays <= 0 {
		return false
	}
	return e.AnalyzedAt.Add(time.Duration(e.ExpiresAfterDays) * 24 * time.Hour).Before(now)
}

// Outcome is the terminal state of one item within a run.
type Outcome string

const (
	OutcomeCompleted      Outcome = "completed"
	OutcomeFailed         Outcome = "failed"
	OutcomeTimedOut       Outcome = "timed_out"
	OutcomeSkippedByLimit Outcome = "skipped_by_limit"
)

// AnalysisResult holds the per-item outcome of a run.
// RelevanceScore is meaningful only when Outcome is OutcomeCompleted.
type AnalysisResult struct {
	Item           Item          `json:"item"`
	SummaryText    string        `json:"summary_text,omitempty"`
	RelevanceScore int           `json:"relevance_score,omitempty"`
	Outcome        Outcome       `json:"outcome"`
	FromCache      bool          `json:"from_cache,omitempty"`
	Latency        time.Duration `json:"latency,omitempty"`
}

// EnrichmentReport is the run output consumed by the content generator.
// Entries hold only the relevant items in transcript order; the counters
// reflect the full evaluated population.
type EnrichmentReport struct {
	ThresholdUsed     int              `json:"threshold_used"`
	TotalEvaluated    int              `json:"total_evaluated"`
	RelevantCount     int              `json:"relevant_count"`
	FailedCount       int              `json:"failed_count"`
	SkippedByLimit    int              `json:"skipped_by_limit"`
	ExtractionSkipped int              `json:"extraction_skipped"`
	Elapsed           time.Duration    `json:"elapsed"`
	Entries           []AnalysisResult `json:"entries"`
}

// SkippedCount combines limit-skipped items with extraction drops.
func (r EnrichmentReport) SkippedCount() int {
	return r.SkippedByLimit + r.ExtractionSkipped
}

// SummaryLine renders the operator-facing one-liner for logs.
func (r EnrichmentReport) SummaryLine() string {
	return fmt.Sprintf("%d/%d items relevant", r.RelevantCount, r.TotalEvaluated)
}
