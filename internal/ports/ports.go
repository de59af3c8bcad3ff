package ports

import (
	"context"
	"time"

	"TranscriptEnricher/internal/domain"
)

// CacheStore persists analysis results across runs keyed by fingerprint.
type CacheStore interface {
	// Lookup is read-only; a missing or unreadable entry returns ok=false.
	Lookup(ctx context.Context, fingerprint string) (domain.CacheEntry, bool, error)
	// Insert stores the entry only if the fingerprint is absent.
	// Concurrent inserts for one fingerprint collapse to exactly one winner.
	Insert(ctx context.Context, entry domain.CacheEntry) (bool, error)
	// EvictOlderThan deletes entries analyzed before now minus maxAge.
	EvictOlderThan(ctx context.Context, maxAge time.Duration) (int, error)
}

// Analysis is the structured response of the external provider.
type Analysis struct {
	SummaryText    string
	RelevanceScore int
}

// Analyzer submits one item to the external multimodal provider.
type Analyzer interface {
	Analyze(ctx context.Context, item domain.Item) (Analysis, error)
}

// PageFetcher captures a lightweight text snapshot of a web page used to
// ground URL analyses when the provider cannot ingest the link directly.
type PageFetcher interface {
	Snapshot(ctx context.Context, pageURL string) (string, error)
}

// TranscriptSource loads the ordered transcript produced by the parsing stage.
type TranscriptSource interface {
	Load(ctx context.Context) ([]domain.Message, error)
}

// Notifier publishes the run summary to an operator channel.
type Notifier interface {
	PublishSummary(ctx context.Context, summary string) error
}
