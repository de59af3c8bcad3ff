package dispatch

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"TranscriptEnricher/internal/domain"
	"TranscriptEnricher/internal/ports"
)

// Config bounds one dispatch phase.
type Config struct {
	Concurrency   int
	MaxItems      int
	MaxTotalTime  time.Duration
	ModelID       string
	RetentionDays int
}

// Dispatcher runs provider analyses for cache misses under a worker pool,
// an item cap, and a single wall-clock deadline.
type Dispatcher struct {
	analyzer ports.Analyzer
	cache    ports.CacheStore
	logger   *slog.Logger
}

// New wires the provider client and the cache sink. A nil cache disables
// streaming persistence (used when the run bypasses the cache).
func New(analyzer ports.Analyzer, cache ports.CacheStore, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{analyzer: analyzer, cache: cache, logger: logger}
}

type indexedResult struct {
	idx    int
	result domain.AnalysisResult
}

// Run analyzes the given items and returns exactly one terminal result per
// item, ordered by first-seen position. Items beyond MaxItems are marked
// skipped without any provider call. Once the deadline fires no new analyses
// start, in-flight ones are abandoned, and unfinished items come back as
// timed out. Completed results are persisted to the cache as they arrive,
// so a later timeout cannot lose paid-for work.
func (d *Dispatcher) Run(ctx context.Context, items []domain.Item, cfg Config) []domain.AnalysisResult {
	ordered := make([]domain.Item, len(items))
	copy(ordered, items)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].FirstSeenOrder < ordered[j].FirstSeenOrder
	})

	active := ordered
	var skipped []domain.Item
	if cfg.MaxItems > 0 && len(ordered) > cfg.MaxItems {
		active = ordered[:cfg.MaxItems]
		skipped = ordered[cfg.MaxItems:]
	}

	results := make([]domain.AnalysisResult, len(ordered))
	for i, item := range skipped {
		results[len(active)+i] = domain.AnalysisResult{Item: item, Outcome: domain.OutcomeSkippedByLimit}
	}

	if len(active) == 0 {
		return results
	}

	runCtx := ctx
	cancel := func() {}
	if cfg.MaxTotalTime > 0 {
		runCtx, cancel = context.WithTimeout(ctx, cfg.MaxTotalTime)
	}
	defer cancel()

	workers := cfg.Concurrency
	if workers < 1 {
		workers = 1
	}
	if workers > len(active) {
		workers = len(active)
	}

	jobs := make(chan int, len(active))
	for i := range active {
		jobs <- i
	}
	close(jobs)

	resC := make(chan indexedResult, len(active))
	for w := 0; w < workers; w++ {
		go d.worker(runCtx, active, cfg, jobs, resC)
	}

	pending := len(active)
collect:
	for pending > 0 {
		select {
		case res := <-resC:
			results[res.idx] = res.result
			pending--
		case <-runCtx.Done():
			// Keep whatever finished before the deadline; everything else
			// is abandoned and marked below.
			for pending > 0 {
				select {
				case res := <-resC:
					results[res.idx] = res.result
					pending--
				default:
					break collect
				}
			}
		}
	}

	for i, item := range active {
		if results[i].Outcome == "" {
			results[i] = domain.AnalysisResult{Item: item, Outcome: domain.OutcomeTimedOut}
		}
	}

	return results
}

func (d *Dispatcher) worker(ctx context.Context, items []domain.Item, cfg Config, jobs <-chan int, resC chan<- indexedResult) {
	for {
		select {
		case <-ctx.Done():
			return
		case idx, ok := <-jobs:
			if !ok {
				return
			}

			result := d.analyzeOne(ctx, items[idx], cfg)
			if ctx.Err() != nil {
				// Deadline fired while this analysis was in flight; the
				// result is discarded, never persisted or reported.
				return
			}
			resC <- indexedResult{idx: idx, result: result}
		}
	}
}

func (d *Dispatcher) analyzeOne(ctx context.Context, item domain.Item, cfg Config) domain.AnalysisResult {
	start := time.Now()
	analysis, err := d.analyzer.Analyze(ctx, item)
	latency := time.Since(start)

	if err != nil {
		d.warn("analysis failed", "kind", item.Kind, "reference", item.RawReference, "error", err)
		return domain.AnalysisResult{Item: item, Outcome: domain.OutcomeFailed, Latency: latency}
	}

	if analysis.RelevanceScore < 1 || analysis.RelevanceScore > 5 {
		d.warn("unscoreable analysis response", "kind", item.Kind, "reference", item.RawReference, "score", analysis.RelevanceScore)
		return domain.AnalysisResult{Item: item, Outcome: domain.OutcomeFailed, Latency: latency}
	}

	d.persist(ctx, item, analysis, cfg)

	return domain.AnalysisResult{
		Item:           item,
		SummaryText:    analysis.SummaryText,
		RelevanceScore: analysis.RelevanceScore,
		Outcome:        domain.OutcomeCompleted,
		Latency:        latency,
	}
}

// persist writes a completed analysis straight away. Cache trouble never
// fails the item; the worst case is a re-analysis on a later run.
func (d *Dispatcher) persist(ctx context.Context, item domain.Item, analysis ports.Analysis, cfg Config) {
	if d.cache == nil || ctx.Err() != nil {
		return
	}

	inserted, err := d.cache.Insert(ctx, domain.CacheEntry{
		Fingerprint:      item.Fingerprint,
		Kind:             item.Kind,
		ModelID:          cfg.ModelID,
		SummaryText:      analysis.SummaryText,
		RelevanceScore:   analysis.RelevanceScore,
		AnalyzedAt:       time.Now().UTC(),
		ExpiresAfterDays: cfg.RetentionDays,
	})
	if err != nil {
		d.warn("cache insert failed", "fingerprint", item.Fingerprint, "error", err)
		return
	}
	if !inserted {
		d.warn("cache insert lost the race", "fingerprint", item.Fingerprint)
	}
}

func (d *Dispatcher) warn(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Warn(msg, args...)
	}
}
