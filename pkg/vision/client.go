// Package vision drives the external vision-capable AI service: one
// request per page image, bounded concurrency, per-page failure isolation.
package vision

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Client is the interface to a vision-capable model. Use it for dependency
// injection to enable mocking in tests.
type Client interface {
	// Describe sends one image plus an instruction and returns the raw
	// model text, possibly malformed.
	Describe(ctx context.Context, imageData []byte, mediaType, prompt string) (string, error)

	// Model returns the configured model name.
	Model() string
}

// Config holds configuration for creating a vision client.
type Config struct {
	Provider  string // "anthropic" or "openai"
	Model     string
	BaseURL   string // OpenAI-compatible endpoints only; empty = provider default
	APIKey    string
	MaxTokens int
}

// NewClient creates a vision client for the configured provider.
func NewClient(cfg *Config, logger *zap.Logger) (Client, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	switch cfg.Provider {
	case "anthropic", "":
		return newAnthropicClient(cfg, logger), nil
	case "openai":
		return newOpenAIClient(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown vision provider %q", cfg.Provider)
	}
}

// MediaTypeForImage maps an image path to its MIME type.
func MediaTypeForImage(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/png"
	}
}
