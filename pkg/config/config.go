// Package config loads pipeline configuration from an optional YAML file
// with environment variable overrides. Secrets (API keys) must only come
// from environment variables or CLI flags.
package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for the flight-log pipeline.
// Environment variables always override YAML values.
type Config struct {
	Vision  VisionConfig  `yaml:"vision"`
	Extract ExtractConfig `yaml:"extract"`
	Fusion  FusionConfig  `yaml:"fusion"`
}

// VisionConfig holds settings for the external vision service.
type VisionConfig struct {
	// Provider selects the vision backend: "anthropic" or "openai".
	Provider string `yaml:"provider" env:"VISION_PROVIDER" env-default:"anthropic"`
	Model    string `yaml:"model" env:"VISION_MODEL" env-default:"claude-sonnet-4-5-20250929"`

	// BaseURL is only used by the openai provider, for OpenAI-compatible
	// endpoints (vLLM, LM Studio, etc.). Empty means the provider default.
	BaseURL string `yaml:"base_url" env:"VISION_BASE_URL" env-default:""`

	// APIKey is a secret and never read from YAML. The --api-key CLI flag
	// takes precedence over the environment.
	APIKey string `yaml:"-" env:"ANTHROPIC_API_KEY"`

	MaxTokens      int `yaml:"max_tokens" env:"VISION_MAX_TOKENS" env-default:"8192"`
	TimeoutSeconds int `yaml:"timeout_seconds" env:"VISION_TIMEOUT_SECONDS" env-default:"120"`
	MaxRetries     int `yaml:"max_retries" env:"VISION_MAX_RETRIES" env-default:"2"`
}

// ExtractConfig holds settings for PDF splitting and page extraction.
type ExtractConfig struct {
	Concurrency int    `yaml:"concurrency" env:"EXTRACT_CONCURRENCY" env-default:"10"`
	DPI         int    `yaml:"dpi" env:"EXTRACT_DPI" env-default:"200"`
	ImageFormat string `yaml:"image_format" env:"EXTRACT_IMAGE_FORMAT" env-default:"png"`
}

// FusionConfig holds identity-resolution thresholds.
type FusionConfig struct {
	// FuzzyThreshold is the minimum Jaro-Winkler similarity for a fuzzy
	// merge candidate to be proposed at all.
	FuzzyThreshold float64 `yaml:"fuzzy_threshold" env:"FUSION_FUZZY_THRESHOLD" env-default:"0.85"`

	// AutoMergeThreshold is the similarity at or above which a fuzzy
	// candidate is marked safe to apply without confirmation.
	AutoMergeThreshold float64 `yaml:"auto_merge_threshold" env:"FUSION_AUTO_MERGE_THRESHOLD" env-default:"0.95"`

	// MinEntityFrequency is the flight count at which a name seeds a new
	// canonical entity during analysis.
	MinEntityFrequency int `yaml:"min_entity_frequency" env:"FUSION_MIN_ENTITY_FREQUENCY" env-default:"5"`

	// AbbreviationsFile optionally points at a YAML map of known
	// abbreviation -> canonical name pairs. Empty means no table.
	AbbreviationsFile string `yaml:"abbreviations_file" env:"FUSION_ABBREVIATIONS_FILE" env-default:""`
}

// Load reads configuration from the given YAML path with environment
// variable overrides. A missing file is not an error: the CLIs are expected
// to work from environment variables and flags alone.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path == "" {
		path = "config.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Extract.Concurrency < 1 {
		return fmt.Errorf("extract concurrency must be positive, got %d", c.Extract.Concurrency)
	}
	if c.Extract.DPI < 1 {
		return fmt.Errorf("extract dpi must be positive, got %d", c.Extract.DPI)
	}
	if c.Fusion.FuzzyThreshold < 0 || c.Fusion.FuzzyThreshold > 1 {
		return fmt.Errorf("fuzzy_threshold must be in [0,1], got %g", c.Fusion.FuzzyThreshold)
	}
	if c.Fusion.AutoMergeThreshold < 0 || c.Fusion.AutoMergeThreshold > 1 {
		return fmt.Errorf("auto_merge_threshold must be in [0,1], got %g", c.Fusion.AutoMergeThreshold)
	}
	switch c.Vision.Provider {
	case "anthropic", "openai":
	default:
		return fmt.Errorf("unknown vision provider %q", c.Vision.Provider)
	}
	return nil
}
