package usecase

import (
	"context"
	"log/slog"
	"time"

	"TranscriptEnricher/internal/config"
	"TranscriptEnricher/internal/dispatch"
	"TranscriptEnricher/internal/domain"
	"TranscriptEnricher/internal/extract"
	"TranscriptEnricher/internal/ports"
	"TranscriptEnricher/internal/report"
)

// PipelineDeps wires all driven adapters into the enrichment pipeline.
type PipelineDeps struct {
	Extractor  *extract.Extractor
	Cache      ports.CacheStore
	Analyzer   ports.Analyzer
	Notifier   ports.Notifier
	Metrics    *report.MetricsWriter
	Logger     *slog.Logger
	Enrichment config.EnrichmentConfig
	Cleanup    config.CacheConfig
}

// Pipeline implements the transcript-enrichment workflow: sweep the cache,
// extract items, resolve hits, dispatch misses, aggregate the report.
type Pipeline struct {
	extractor  *extract.Extractor
	cache      ports.CacheStore
	dispatcher *dispatch.Dispatcher
	aggregator *report.Aggregator
	notifier   ports.Notifier
	metrics    *report.MetricsWriter
	logger     *slog.Logger
	enrichment config.EnrichmentConfig
	cleanup    config.CacheConfig
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		extractor:  deps.Extractor,
		cache:      deps.Cache,
		dispatcher: dispatch.New(deps.Analyzer, deps.Cache, deps.Logger),
		aggregator: report.New(deps.Enrichment.RelevanceThreshold, deps.Logger),
		notifier:   deps.Notifier,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		enrichment: deps.Enrichment,
		cleanup:    deps.Cleanup,
	}
}

// Run enriches one transcript and returns the report consumed downstream.
// Per-item provider failures never surface as an error here; only the empty
// report of a disabled run skips the phases entirely.
func (p *Pipeline) Run(ctx context.Context, messages []domain.Message) (domain.EnrichmentReport, error) {
	start := time.Now()

	if p.enrichment.Disabled {
		p.info("enrichment disabled, returning empty report")
		return domain.EnrichmentReport{ThresholdUsed: p.enrichment.RelevanceThreshold}, nil
	}

	p.sweepCache(ctx)

	extracted := p.extractor.Extract(messages)
	p.info("extraction done", "items", len(extracted.Items), "dropped", extracted.Skipped)

	hits, misses := p.resolveCache(ctx, extracted.Items)
	p.info("cache resolved", "hits", len(hits), "misses", len(misses))

	dispatched := p.dispatcher.Run(ctx, misses, dispatch.Config{
		Concurrency:   p.enrichment.Concurrency,
		MaxItems:      p.enrichment.MaxItems,
		MaxTotalTime:  p.enrichment.MaxTotalTime(),
		ModelID:       p.enrichment.Model,
		RetentionDays: p.cleanup.RetentionDays,
	})

	rep := p.aggregator.Build(hits, dispatched, extracted.Skipped, time.Since(start))

	if p.metrics != nil {
		if err := p.metrics.Append(start, rep); err != nil {
			p.warn("metrics append failed", "error", err)
		}
	}

	p.info("enrichment finished", "summary", rep.SummaryLine(), "elapsed", rep.Elapsed.Round(time.Millisecond))
	p.publishSummary(ctx, rep)

	return rep, nil
}

// sweepCache purges entries past the configured age before any lookup.
func (p *Pipeline) sweepCache(ctx context.Context) {
	if p.cache == nil || p.cleanup.CleanupDays <= 0 {
		return
	}

	maxAge := time.Duration(p.cleanup.CleanupDays) * 24 * time.Hour
	removed, err := p.cache.EvictOlderThan(ctx, maxAge)
	if err != nil {
		p.warn("cache sweep failed", "error", err)
		return
	}
	p.info("cache sweep done", "removed", removed, "max_age_days", p.cleanup.CleanupDays)
}

func (p *Pipeline) resolveCache(ctx context.Context, items []domain.Item) (hits []domain.AnalysisResult, misses []domain.Item) {
	for _, item := range items {
		if p.cache == nil {
			misses = append(misses, item)
			continue
		}

		entry, ok, err := p.cache.Lookup(ctx, item.Fingerprint)
		if err != nil {
			p.warn("cache lookup failed", "fingerprint", item.Fingerprint, "error", err)
			misses = append(misses, item)
			continue
		}
		if !ok {
			misses = append(misses, item)
			continue
		}

		hits = append(hits, domain.AnalysisResult{
			Item:           item,
			SummaryText:    entry.SummaryText,
			RelevanceScore: entry.RelevanceScore,
			Outcome:        domain.OutcomeCompleted,
			FromCache:      true,
		})
	}
	return hits, misses
}

func (p *Pipeline) publishSummary(ctx context.Context, rep domain.EnrichmentReport) {
	if p.notifier == nil {
		return
	}
	if err := p.notifier.PublishSummary(ctx, rep.SummaryLine()); err != nil {
		p.warn("summary notification failed", "error", err)
	}
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
