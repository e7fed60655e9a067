package extract

import (
	"context"
	"strings"

	"github.com/ppiankov/realitycheck/internal/llm"
	"github.com/ppiankov/realitycheck/internal/model"
	"go.uber.org/zap"
)

// LLMExtractor asks a provider for claims section by section. A section the
// provider fails on falls back to the heuristic extractor, so one bad call
// never empties the claim set.
type LLMExtractor struct {
	provider  llm.Provider
	fallback  *HeuristicExtractor
	maxTokens int
	logger    *zap.Logger
}

// NewLLMExtractor creates an extractor backed by provider
func NewLLMExtractor(provider llm.Provider, maxTokens int, logger *zap.Logger) *LLMExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMExtractor{
		provider:  provider,
		fallback:  NewHeuristicExtractor(logger),
		maxTokens: maxTokens,
		logger:    logger,
	}
}

// Extract extracts claims from the documentation
func (e *LLMExtractor) Extract(ctx context.Context, doc model.Documentation) ([]model.Claim, error) {
	if strings.TrimSpace(doc.Text) == "" {
		return []model.Claim{}, nil
	}

	var candidates []Candidate
	for _, section := range e.fallback.sections(doc) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := e.provider.ExtractClaims(ctx, llm.ExtractRequest{
			DocumentationText: section.Text,
			Revision:          doc.Revision,
			Section:           section.Name,
			MaxTokens:         e.maxTokens,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			e.logger.Warn("LLM extraction failed, using heuristics for section",
				zap.String("provider", e.provider.Name()),
				zap.String("section", section.Name),
				zap.Error(err))
			candidates = append(candidates, e.fallback.SectionCandidates(section)...)
			continue
		}

		for _, raw := range resp.Claims {
			candidates = append(candidates, fromRaw(raw, section.Name))
		}
	}

	return Finalize(candidates, doc.Text, e.logger), nil
}

func fromRaw(raw llm.RawClaim, section string) Candidate {
	if raw.SourceSection == "" {
		raw.SourceSection = section
	}
	return Candidate{
		ClaimText:          raw.ClaimText,
		Category:           raw.Category,
		Tone:               raw.ConfidenceTone,
		ImpliedCommitments: raw.ImpliedCommitments,
		SourceSection:      raw.SourceSection,
		Quote:              raw.Quote,
	}
}
