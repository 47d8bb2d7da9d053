package fusion

import (
	"context"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"

	"github.com/skyledger/flightlog/pkg/jsonutil"
)

// Suggester asks the model to propose identities for names the heuristics
// could not place. Its output is advisory: every suggestion comes back as
// an AIInferred candidate that requires human confirmation.
type Suggester struct {
	client *anthropic.Client
	model  string
	logger *zap.Logger
}

// NewSuggester creates an AI suggestion pass.
func NewSuggester(apiKey, model string, logger *zap.Logger) *Suggester {
	return &Suggester{
		client: anthropic.NewClient(apiKey),
		model:  model,
		logger: logger.Named("fusion-ai"),
	}
}

type aiSuggestion struct {
	SourceName    string  `json:"source_name"`
	CanonicalName string  `json:"canonical_name"`
	Confidence    float64 `json:"confidence"`
	Reason        string  `json:"reason"`
}

// Suggest proposes matches for unmapped names against the canonical entity
// list. Names the model declines to match are simply absent from the
// result; a malformed response is an error the caller may ignore.
func (s *Suggester) Suggest(ctx context.Context, unmapped []string, entities []PersonEntity) ([]MergeCandidate, error) {
	if len(unmapped) == 0 || len(entities) == 0 {
		return nil, nil
	}

	byCanonical := make(map[string]*PersonEntity, len(entities))
	canonicals := make([]string, 0, len(entities))
	for i := range entities {
		byCanonical[entities[i].CanonicalName] = &entities[i]
		canonicals = append(canonicals, entities[i].CanonicalName)
	}

	prompt := fmt.Sprintf(`These names were transcribed from handwritten flight logs. The canonical passenger list is:

%s

For each of the following unresolved names, decide whether it plausibly refers to one of the canonical passengers (nickname, initials, misspelling, partial name). Skip names that match nobody.

%s

Respond with ONLY a JSON array:
[{"source_name": "...", "canonical_name": "...", "confidence": 0.0, "reason": "..."}]`,
		strings.Join(canonicals, "\n"), strings.Join(unmapped, "\n"))

	resp, err := s.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(s.model),
		MaxTokens: 4096,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(prompt),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("suggestion request: %w", err)
	}

	text := ""
	for _, block := range resp.Content {
		if block.Type == anthropic.MessagesContentTypeText && block.Text != nil {
			text = *block.Text
			break
		}
	}

	suggestions, err := jsonutil.ParseArray[aiSuggestion](text)
	if err != nil {
		return nil, fmt.Errorf("parse suggestions: %w", err)
	}

	var candidates []MergeCandidate
	for _, sg := range suggestions {
		entity, ok := byCanonical[normalizeName(sg.CanonicalName)]
		if !ok {
			s.logger.Debug("suggestion targets unknown entity",
				zap.String("source", sg.SourceName),
				zap.String("target", sg.CanonicalName))
			continue
		}
		score := sg.Confidence
		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
		candidates = append(candidates, MergeCandidate{
			SourceName:          sg.SourceName,
			TargetEntityID:      entity.ID,
			TargetCanonicalName: entity.CanonicalName,
			SimilarityScore:     score,
			MatchType:           MatchAIInferred,
			AutoMerge:           false,
		})
	}

	s.logger.Info("AI suggestion pass complete",
		zap.Int("unmapped", len(unmapped)),
		zap.Int("suggested", len(candidates)))

	return candidates, nil
}
