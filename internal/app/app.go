package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"TranscriptEnricher/internal/config"
	"TranscriptEnricher/internal/extract"
	"TranscriptEnricher/internal/infrastructure/llm"
	"TranscriptEnricher/internal/infrastructure/storage"
	"TranscriptEnricher/internal/infrastructure/telegram"
	"TranscriptEnricher/internal/infrastructure/transcript"
	"TranscriptEnricher/internal/infrastructure/webfetch"
	"TranscriptEnricher/internal/logging"
	"TranscriptEnricher/internal/ports"
	"TranscriptEnricher/internal/report"
	"TranscriptEnricher/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	source   ports.TranscriptSource
	pipeline *usecase.Pipeline
}

// New builds a runnable application instance. Cache and provider wiring
// failures surface here, before any dispatch happens.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	cache, err := buildCache(ctx, cfg.Cache, baseLogger)
	if err != nil {
		return nil, err
	}

	registry := extract.NewRegistry()
	registry.Register(extract.NewURLScanner())
	registry.Register(extract.NewMediaScanner())

	extractor := extract.New(registry, cfg.Enrichment.ContextWindow, baseLogger.With("component", "extractor"))

	fetcher := webfetch.NewPageFetcher(nil)
	analyzer := llm.NewAnalysisClient(cfg.LLM, cfg.Enrichment.Model, fetcher, baseLogger.With("component", "analyzer"))

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.BotToken != "" && cfg.Notifications.Telegram.ChatID != "" {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	var metrics *report.MetricsWriter
	if cfg.Output.MetricsCSVPath != "" {
		metrics = report.NewMetricsWriter(cfg.Output.MetricsCSVPath)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Extractor:  extractor,
		Cache:      cache,
		Analyzer:   analyzer,
		Notifier:   notifier,
		Metrics:    metrics,
		Logger:     baseLogger.With("component", "pipeline"),
		Enrichment: cfg.Enrichment,
		Cleanup:    cfg.Cache,
	})

	return &Application{
		cfg:      cfg,
		source:   transcript.NewFileSource(cfg.Input.Path),
		pipeline: pipeline,
	}, nil
}

// Run loads the transcript, executes one enrichment run, and writes the
// report JSON to the configured path or stdout.
func (a *Application) Run(ctx context.Context) error {
	if a.pipeline == nil || a.source == nil {
		return nil
	}

	messages, err := a.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("load transcript: %w", err)
	}

	rep, err := a.pipeline.Run(ctx, messages)
	if err != nil {
		return fmt.Errorf("run enrichment: %w", err)
	}

	encoded, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	if a.cfg.Output.ReportPath != "" {
		if err := os.WriteFile(a.cfg.Output.ReportPath, append(encoded, '\n'), 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		return nil
	}

	_, err = os.Stdout.Write(append(encoded, '\n'))
	return err
}

func buildCache(ctx context.Context, cfg config.CacheConfig, logger *slog.Logger) (ports.CacheStore, error) {
	if cfg.Disabled {
		return nil, nil
	}

	if cfg.DSN != "" {
		store, err := storage.OpenPostgresStore(ctx, cfg.DSN, logger.With("component", "cache.postgres"))
		if err != nil {
			return nil, fmt.Errorf("open postgres cache: %w", err)
		}
		return store, nil
	}

	store, err := storage.NewFileStore(cfg.Dir, logger.With("component", "cache.file"))
	if err != nil {
		return nil, fmt.Errorf("open file cache: %w", err)
	}
	return store, nil
}
