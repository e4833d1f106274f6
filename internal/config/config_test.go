package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestNewConfig tests that defaults are sensible.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	if cfg.Timeout != DefaultTimeout {
		t.Errorf("expected timeout %v, got %v", DefaultTimeout, cfg.Timeout)
	}
	if cfg.MaxPerSecond != DefaultMaxPerSecond {
		t.Errorf("expected rate %v, got %v", DefaultMaxPerSecond, cfg.MaxPerSecond)
	}
	if cfg.CrawlDepth != DefaultCrawlDepth {
		t.Errorf("expected depth %d, got %d", DefaultCrawlDepth, cfg.CrawlDepth)
	}
	if len(cfg.HeuristicPaths) == 0 {
		t.Error("expected default heuristic paths")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

// TestConfigValidate tests validation failures.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, ErrInvalidTimeout},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }, ErrInvalidTimeout},
		{"zero retries", func(c *Config) { c.Retries = 0 }, ErrInvalidRetries},
		{"zero rate", func(c *Config) { c.MaxPerSecond = 0 }, ErrInvalidRate},
		{"negative depth", func(c *Config) { c.CrawlDepth = -1 }, ErrInvalidDepth},
		{"zero concurrency", func(c *Config) { c.MaxConcurrency = 0 }, ErrInvalidConcurrency},
		{"negative body size", func(c *Config) { c.MaxBodySize = -1 }, ErrInvalidMaxBodySize},
		{"llm threshold below crawl threshold", func(c *Config) {
			c.Relevance.CrawlThreshold = 3
			c.Relevance.LLMThreshold = 1
		}, ErrInvalidThresholds},
		{"positive negative-weight", func(c *Config) { c.Relevance.NegativeWeight = 1 }, ErrInvalidRelevanceWeights},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

// TestRelevanceApplyDefaults tests partial override merging.
func TestRelevanceApplyDefaults(t *testing.T) {
	t.Parallel()

	r := Relevance{ThemeTerms: []string{"volunteer"}}
	r.ApplyDefaults()

	if len(r.ThemeTerms) != 1 || r.ThemeTerms[0] != "volunteer" {
		t.Errorf("explicit theme terms were replaced: %v", r.ThemeTerms)
	}
	if len(r.GovernanceTerms) == 0 {
		t.Error("governance terms should fall back to defaults")
	}
	if r.ThemeWeight != 2 || r.NegativeWeight != -3 {
		t.Errorf("weights should fall back to defaults, got %d / %d", r.ThemeWeight, r.NegativeWeight)
	}
	if r.CrawlThreshold != 1 || r.LLMThreshold != 3 {
		t.Errorf("thresholds should fall back to defaults, got %d / %d", r.CrawlThreshold, r.LLMThreshold)
	}
}

// TestLoadConfigFile tests YAML loading and merging into a Config.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for missing file", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("loads and applies overrides", func(t *testing.T) {
		t.Parallel()

		content := `
userAgent: "custom-agent/1.0"
heuristicPaths:
  - /volunteering
relevance:
  themeTerms: ["volunteer"]
  crawlThreshold: 2
  llmThreshold: 4
llm:
  model: "gpt-4o"
  maxChars: 12000
`
		path := filepath.Join(t.TempDir(), ".civimon")
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		cfg := NewConfig()
		cf.Apply(cfg)

		if cfg.UserAgent != "custom-agent/1.0" {
			t.Errorf("user agent not applied: %q", cfg.UserAgent)
		}
		if len(cfg.HeuristicPaths) != 1 || cfg.HeuristicPaths[0] != "/volunteering" {
			t.Errorf("heuristic paths not applied: %v", cfg.HeuristicPaths)
		}
		if cfg.Relevance.CrawlThreshold != 2 || cfg.Relevance.LLMThreshold != 4 {
			t.Errorf("thresholds not applied: %d / %d", cfg.Relevance.CrawlThreshold, cfg.Relevance.LLMThreshold)
		}
		// Unset relevance sections fall back to defaults.
		if len(cfg.Relevance.NegativeTerms) == 0 {
			t.Error("negative terms should fall back to defaults")
		}
		if cfg.LLMModel != "gpt-4o" {
			t.Errorf("llm model not applied: %q", cfg.LLMModel)
		}
		if cfg.LLMMaxChars != 12000 {
			t.Errorf("llm max chars not applied: %d", cfg.LLMMaxChars)
		}
		// Endpoint untouched by this file.
		if cfg.LLMEndpoint != DefaultLLMEndpoint {
			t.Errorf("endpoint should keep default, got %q", cfg.LLMEndpoint)
		}
	})

	t.Run("rejects malformed yaml", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".civimon")
		if err := os.WriteFile(path, []byte("relevance: [not a map"), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected error for malformed yaml")
		}
	})
}

// TestFindConfigFile tests explicit path resolution.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit existing path", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "conf.yaml")
		if err := os.WriteFile(path, []byte("{}"), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if got := FindConfigFile(path); got != path {
			t.Errorf("expected %q, got %q", path, got)
		}
	})

	t.Run("explicit missing path returns empty", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile(filepath.Join(t.TempDir(), "missing")); got != "" {
			t.Errorf("expected empty, got %q", got)
		}
	})
}
