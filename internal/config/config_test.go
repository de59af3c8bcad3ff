package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateDefaults(t *testing.T) {
	t.Parallel()

	if err := defaultConfig().Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestValidateRejectsBadSettings(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"threshold too low", func(c *Config) { c.Enrichment.RelevanceThreshold = 0 }},
		{"threshold too high", func(c *Config) { c.Enrichment.RelevanceThreshold = 6 }},
		{"zero concurrency", func(c *Config) { c.Enrichment.Concurrency = 0 }},
		{"negative max items", func(c *Config) { c.Enrichment.MaxItems = -1 }},
		{"negative total time", func(c *Config) { c.Enrichment.MaxTotalTimeSeconds = -5 }},
		{"negative context window", func(c *Config) { c.Enrichment.ContextWindow = -1 }},
		{"empty model", func(c *Config) { c.Enrichment.Model = "" }},
		{"cache enabled without location", func(c *Config) { c.Cache.Dir = "" }},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := defaultConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestValidateSkippedWhenDisabled(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.Enrichment.Disabled = true
	cfg.Enrichment.RelevanceThreshold = 99
	cfg.Enrichment.Model = ""

	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled enrichment must skip validation: %v", err)
	}
}

func TestValidateAcceptsDSNWithoutDir(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.Cache.Dir = ""
	cfg.Cache.DSN = "postgres://localhost/enrichment"

	if err := cfg.Validate(); err != nil {
		t.Fatalf("dsn-backed cache must not require a directory: %v", err)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
logging:
  level: debug
enrichment:
  relevanceThreshold: 4
  concurrency: 8
cache:
  dir: /tmp/enrichment-cache
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)

	cfg := Load()

	if cfg.Logging.Level != "debug" {
		t.Fatalf("level %q", cfg.Logging.Level)
	}
	if cfg.Enrichment.RelevanceThreshold != 4 || cfg.Enrichment.Concurrency != 8 {
		t.Fatalf("enrichment overrides lost: %+v", cfg.Enrichment)
	}
	if cfg.Cache.Dir != "/tmp/enrichment-cache" {
		t.Fatalf("cache dir %q", cfg.Cache.Dir)
	}
	// Untouched fields keep their defaults.
	if cfg.Enrichment.MaxItems != 50 {
		t.Fatalf("max items default lost: %d", cfg.Enrichment.MaxItems)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv(transcriptPathEnv, "/data/chat.json")
	t.Setenv(llmAPIKeyEnv, "secret")
	t.Setenv(llmModelEnv, "model-override")
	t.Setenv(cacheDSNEnv, "postgres://db/enrichment")

	cfg := Load()

	if cfg.Input.Path != "/data/chat.json" {
		t.Fatalf("input path %q", cfg.Input.Path)
	}
	if cfg.LLM.APIKey != "secret" {
		t.Fatalf("api key not applied")
	}
	if cfg.Enrichment.Model != "model-override" {
		t.Fatalf("model %q", cfg.Enrichment.Model)
	}
	if cfg.Cache.DSN != "postgres://db/enrichment" {
		t.Fatalf("dsn %q", cfg.Cache.DSN)
	}
}

func TestLoadSurvivesBrokenConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(":\tnot yaml"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)

	cfg := Load()
	if cfg.Enrichment.RelevanceThreshold != 3 {
		t.Fatalf("broken file must fall back to defaults, got %+v", cfg.Enrichment)
	}
}
