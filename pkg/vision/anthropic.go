package vision

import (
	"context"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"
)

// requestTemperature keeps transcription deterministic; the instruction
// asks for verbatim output, not creativity.
const requestTemperature = float32(0.1)

// anthropicClient sends page images through the Anthropic Messages API.
type anthropicClient struct {
	client    *anthropic.Client
	model     string
	maxTokens int
	logger    *zap.Logger
}

func newAnthropicClient(cfg *Config, logger *zap.Logger) *anthropicClient {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 8192
	}
	return &anthropicClient{
		client:    anthropic.NewClient(cfg.APIKey),
		model:     cfg.Model,
		maxTokens: maxTokens,
		logger:    logger.Named("anthropic"),
	}
}

func (c *anthropicClient) Model() string { return c.model }

func (c *anthropicClient) Describe(ctx context.Context, imageData []byte, mediaType, prompt string) (string, error) {
	temperature := requestTemperature

	c.logger.Debug("vision request",
		zap.String("model", c.model),
		zap.Int("image_bytes", len(imageData)))

	start := time.Now()

	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:       anthropic.Model(c.model),
		MaxTokens:   c.maxTokens,
		Temperature: &temperature,
		Messages: []anthropic.Message{
			{
				Role: anthropic.RoleUser,
				Content: []anthropic.MessageContent{
					anthropic.NewImageMessageContent(
						anthropic.NewMessageContentSource(anthropic.MessagesContentSourceTypeBase64, mediaType, imageData)),
					anthropic.NewTextMessageContent(prompt),
				},
			},
		},
	})
	if err != nil {
		c.logger.Debug("vision request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", ClassifyError(err)
	}

	text := ""
	for _, block := range resp.Content {
		if block.Type == anthropic.MessagesContentTypeText && block.Text != nil {
			text = *block.Text
			break
		}
	}

	c.logger.Debug("vision request completed",
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
		zap.Duration("elapsed", time.Since(start)))

	return text, nil
}
