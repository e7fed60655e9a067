package extract

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ppiankov/realitycheck/internal/model"
	"go.uber.org/zap"
)

// Candidate is an unvalidated claim as produced by an extraction strategy.
// Fields are plain strings so that malformed output from any producer can be
// rejected in one place.
type Candidate struct {
	ClaimText          string   `json:"claim_text" validate:"required"`
	Category           string   `json:"category" validate:"required"`
	Tone               string   `json:"confidence_tone" validate:"required"`
	ImpliedCommitments []string `json:"implied_commitments" validate:"omitempty,dive,required"`
	SourceSection      string   `json:"source_section" validate:"required"`
	Quote              string   `json:"quote" validate:"required"`
}

var candidateValidate = validator.New()

// VerifyQuote reports whether quote occurs verbatim in the source text.
// This exact substring check is the only defence against paraphrased or
// fabricated claims.
func VerifyQuote(quote, source string) bool {
	if strings.TrimSpace(quote) == "" {
		return false
	}
	return strings.Contains(source, quote)
}

// Finalize validates candidates against the source documentation and returns
// the accepted claims. Rejections are filtering decisions, never errors:
// a candidate with missing fields, an unknown category or tone, or a quote
// that is not a verbatim substring of source is dropped. A claim may carry no
// implied commitments, but never a blank one. Claims with an
// identical quote are deduplicated, first one wins.
func Finalize(candidates []Candidate, source string, logger *zap.Logger) []model.Claim {
	if logger == nil {
		logger = zap.NewNop()
	}

	claims := make([]model.Claim, 0, len(candidates))
	seen := make(map[string]bool)

	for _, c := range candidates {
		if err := candidateValidate.Struct(c); err != nil {
			logger.Debug("discarding malformed claim", zap.String("quote", c.Quote), zap.Error(err))
			continue
		}

		category, err := model.ParseCategory(c.Category)
		if err != nil {
			logger.Debug("discarding claim outside taxonomy", zap.String("category", c.Category))
			continue
		}
		tone, err := model.ParseTone(c.Tone)
		if err != nil {
			logger.Debug("discarding claim with unknown tone", zap.String("tone", c.Tone))
			continue
		}

		if !VerifyQuote(c.Quote, source) {
			logger.Warn("discarding claim: quote not found verbatim", zap.String("quote", c.Quote))
			continue
		}

		if seen[c.Quote] {
			continue
		}
		seen[c.Quote] = true

		claims = append(claims, model.Claim{
			Text:               strings.TrimSpace(c.ClaimText),
			Category:           category,
			Tone:               tone,
			ImpliedCommitments: append([]string{}, c.ImpliedCommitments...),
			SourceSection:      c.SourceSection,
			Quote:              c.Quote,
		})
	}

	return claims
}
