package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "TRANSCRIPT_ENRICHER_CONFIG"
	transcriptPathEnv = "TRANSCRIPT_PATH"
	cacheDirEnv       = "CACHE_DIR"
	cacheDSNEnv       = "CACHE_DSN"
	llmEndpointEnv    = "LLM_ENDPOINT"
	llmAPIKeyEnv      = "LLM_API_KEY"
	llmModelEnv       = "ENRICHMENT_MODEL"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Input         InputConfig        `yaml:"input"`
	Output        OutputConfig       `yaml:"output"`
	Enrichment    EnrichmentConfig   `yaml:"enrichment"`
	Cache         CacheConfig        `yaml:"cache"`
	LLM           LLMConfig          `yaml:"llm"`
	Notifications NotificationConfig `yaml:"notifications"`
}

// LoggingConfig controls the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// InputConfig points at the parsed transcript file.
type InputConfig struct {
	Path string `yaml:"path"`
}

// OutputConfig describes where run artifacts land.
type OutputConfig struct {
	ReportPath     string `yaml:"reportPath"`
	MetricsCSVPath string `yaml:"metricsCsvPath"`
}

// EnrichmentConfig bounds a single enrichment run.
type EnrichmentConfig struct {
	Disabled            bool   `yaml:"disabled"`
	RelevanceThreshold  int    `yaml:"relevanceThreshold"`
	MaxItems            int    `yaml:"maxItems"`
	MaxTotalTimeSeconds int    `yaml:"maxTotalTimeSeconds"`
	Model               string `yaml:"model"`
	ContextWindow       int    `yaml:"contextWindow"`
	Concurrency         int    `yaml:"concurrency"`
}

// MaxTotalTime resolves the wall-clock budget as a duration.
func (e EnrichmentConfig) MaxTotalTime() time.Duration {
	return time.Duration(e.MaxTotalTimeSeconds) * time.Second
}

// CacheConfig selects and tunes the persistent cache store.
type CacheConfig struct {
	Dir           string `yaml:"dir"`
	DSN           string `yaml:"dsn"`
	Disabled      bool   `yaml:"disabled"`
	CleanupDays   int    `yaml:"cleanupDays"`
	RetentionDays int    `yaml:"retentionDays"`
}

// LLMConfig defines how to reach the analysis provider gateway.
type LLMConfig struct {
	Endpoint     string `yaml:"endpoint"`
	APIKey       string `yaml:"apiKey"`
	SystemPrompt string `yaml:"systemPrompt"`
}

// NotificationConfig encapsulates outbound operator channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

// Validate rejects settings that would make a run meaningless before any
// provider call is issued.
func (c Config) Validate() error {
	if c.Enrichment.Disabled {
		return nil
	}

	if c.Enrichment.RelevanceThreshold < 1 || c.Enrichment.RelevanceThreshold > 5 {
		return fmt.Errorf("relevance threshold %d outside [1,5]", c.Enrichment.RelevanceThreshold)
	}
	if c.Enrichment.Concurrency < 1 {
		return fmt.Errorf("analysis concurrency %d must be positive", c.Enrichment.Concurrency)
	}
	if c.Enrichment.MaxItems < 0 {
		return fmt.Errorf("max enrichment items %d must not be negative", c.Enrichment.MaxItems)
	}
	if c.Enrichment.MaxTotalTimeSeconds < 0 {
		return fmt.Errorf("max enrichment time %ds must not be negative", c.Enrichment.MaxTotalTimeSeconds)
	}
	if c.Enrichment.ContextWindow < 0 {
		return fmt.Errorf("context window %d must not be negative", c.Enrichment.ContextWindow)
	}
	if c.Enrichment.Model == "" {
		return fmt.Errorf("enrichment model is empty")
	}
	if !c.Cache.Disabled && c.Cache.DSN == "" && c.Cache.Dir == "" {
		return fmt.Errorf("cache directory is empty while the cache is enabled")
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(transcriptPathEnv); v != "" {
		c.Input.Path = v
	}
	if v := os.Getenv(cacheDirEnv); v != "" {
		c.Cache.Dir = v
	}
	if v := os.Getenv(cacheDSNEnv); v != "" {
		c.Cache.DSN = v
	}
	if v := os.Getenv(llmEndpointEnv); v != "" {
		c.LLM.Endpoint = v
	}
	if v := os.Getenv(llmAPIKeyEnv); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv(llmModelEnv); v != "" {
		c.Enrichment.Model = v
	}
	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Input.Path != "" {
		base.Input.Path = override.Input.Path
	}

	if override.Output.ReportPath != "" {
		base.Output.ReportPath = override.Output.ReportPath
	}
	if override.Output.MetricsCSVPath != "" {
		base.Output.MetricsCSVPath = override.Output.MetricsCSVPath
	}

	if override.Enrichment.Disabled {
		base.Enrichment.Disabled = true
	}
	if override.Enrichment.RelevanceThreshold != 0 {
		base.Enrichment.RelevanceThreshold = override.Enrichment.RelevanceThreshold
	}
	if override.Enrichment.MaxItems != 0 {
		base.Enrichment.MaxItems = override.Enrichment.MaxItems
	}
	if override.Enrichment.MaxTotalTimeSeconds != 0 {
		base.Enrichment.MaxTotalTimeSeconds = override.Enrichment.MaxTotalTimeSeconds
	}
	if override.Enrichment.Model != "" {
		base.Enrichment.Model = override.Enrichment.Model
	}
	if override.Enrichment.ContextWindow != 0 {
		base.Enrichment.ContextWindow = override.Enrichment.ContextWindow
	}
	if override.Enrichment.Concurrency != 0 {
		base.Enrichment.Concurrency = override.Enrichment.Concurrency
	}

	if override.Cache.Dir != "" {
		base.Cache.Dir = override.Cache.Dir
	}
	if override.Cache.DSN != "" {
		base.Cache.DSN = override.Cache.DSN
	}
	if override.Cache.Disabled {
		base.Cache.Disabled = true
	}
	if override.Cache.CleanupDays != 0 {
		base.Cache.CleanupDays = override.Cache.CleanupDays
	}
	if override.Cache.RetentionDays != 0 {
		base.Cache.RetentionDays = override.Cache.RetentionDays
	}

	if override.LLM.Endpoint != "" {
		base.LLM.Endpoint = override.LLM.Endpoint
	}
	if override.LLM.APIKey != "" {
		base.LLM.APIKey = override.LLM.APIKey
	}
	if override.LLM.SystemPrompt != "" {
		base.LLM.SystemPrompt = override.LLM.SystemPrompt
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Input:   InputConfig{Path: "transcript.json"},
		Enrichment: EnrichmentConfig{
			RelevanceThreshold:  3,
			MaxItems:            50,
			MaxTotalTimeSeconds: 120,
			Model:               "gemini-flash-latest",
			ContextWindow:       3,
			Concurrency:         4,
		},
		Cache: CacheConfig{
			Dir:           ".enrichment-cache",
			RetentionDays: 90,
		},
		LLM: LLMConfig{
			Endpoint:     "https://api.openai.com/v1/chat/completions",
			SystemPrompt: "You summarize shared links and media for a conversation digest.",
		},
	}
}
