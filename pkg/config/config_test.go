package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable the config reads so host environment
// leakage cannot skew defaults.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"VISION_PROVIDER", "VISION_MODEL", "VISION_BASE_URL", "ANTHROPIC_API_KEY",
		"VISION_MAX_TOKENS", "VISION_TIMEOUT_SECONDS", "VISION_MAX_RETRIES",
		"EXTRACT_CONCURRENCY", "EXTRACT_DPI", "EXTRACT_IMAGE_FORMAT",
		"FUSION_FUZZY_THRESHOLD", "FUSION_AUTO_MERGE_THRESHOLD",
		"FUSION_MIN_ENTITY_FREQUENCY", "FUSION_ABBREVIATIONS_FILE",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

// missingPath returns a config path that does not exist, forcing the
// env-only load path.
func missingPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "config.yaml")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(missingPath(t))
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.Vision.Provider)
	assert.Equal(t, "claude-sonnet-4-5-20250929", cfg.Vision.Model)
	assert.Equal(t, 8192, cfg.Vision.MaxTokens)
	assert.Equal(t, 120, cfg.Vision.TimeoutSeconds)
	assert.Equal(t, 2, cfg.Vision.MaxRetries)
	assert.Equal(t, 10, cfg.Extract.Concurrency)
	assert.Equal(t, 200, cfg.Extract.DPI)
	assert.Equal(t, "png", cfg.Extract.ImageFormat)
	assert.Equal(t, 0.85, cfg.Fusion.FuzzyThreshold)
	assert.Equal(t, 0.95, cfg.Fusion.AutoMergeThreshold)
	assert.Equal(t, 5, cfg.Fusion.MinEntityFrequency)
}

func TestLoad_YAMLWithEnvOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("EXTRACT_CONCURRENCY", "4")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
extract:
  concurrency: 20
  dpi: 300
vision:
  provider: openai
  model: gpt-4o
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 300, cfg.Extract.DPI, "from YAML")
	assert.Equal(t, 4, cfg.Extract.Concurrency, "environment beats YAML")
	assert.Equal(t, "openai", cfg.Vision.Provider)
	assert.Equal(t, "gpt-4o", cfg.Vision.Model)
}

func TestLoad_APIKeyNeverFromYAML(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
vision:
  api_key: leaked-secret
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Vision.APIKey)

	t.Setenv("ANTHROPIC_API_KEY", "from-env")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Vision.APIKey)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero concurrency", "EXTRACT_CONCURRENCY", "0"},
		{"zero dpi", "EXTRACT_DPI", "0"},
		{"fuzzy threshold out of range", "FUSION_FUZZY_THRESHOLD", "1.5"},
		{"auto-merge threshold out of range", "FUSION_AUTO_MERGE_THRESHOLD", "-0.1"},
		{"unknown provider", "VISION_PROVIDER", "bedrock"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load(missingPath(t))
			assert.Error(t, err)
		})
	}
}
