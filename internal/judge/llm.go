package judge

import (
	"context"
	"fmt"

	"github.com/ppiankov/realitycheck/internal/llm"
	"github.com/ppiankov/realitycheck/internal/model"
)

// LLMJudge delegates the semantic decision to a language model provider
type LLMJudge struct {
	provider  llm.Provider
	model     string
	maxTokens int
}

// NewLLMJudge creates a judge backed by provider. An empty model uses the
// provider's default.
func NewLLMJudge(provider llm.Provider, model string, maxTokens int) *LLMJudge {
	return &LLMJudge{provider: provider, model: model, maxTokens: maxTokens}
}

// Name returns the provider-qualified judge name
func (j *LLMJudge) Name() string {
	return "llm:" + j.provider.Name()
}

// CacheIdentity names everything that shapes this judge's output: provider,
// model and prompt version
func (j *LLMJudge) CacheIdentity() string {
	name := j.model
	if name == "" {
		name = "default"
	}
	return j.Name() + "/" + name + "/" + llm.PromptVersion
}

// Assess asks the provider for a verdict and converts it to typed values
func (j *LLMJudge) Assess(ctx context.Context, req Request) (*Assessment, error) {
	resp, err := j.provider.Judge(ctx, llm.JudgeRequest{
		Claim:        req.Claim,
		Evidence:     req.Evidence,
		UseCase:      req.UseCase,
		FloorPenalty: req.FloorPenalty,
		Model:        j.model,
		MaxTokens:    j.maxTokens,
	})
	if err != nil {
		return nil, err
	}

	verdict, err := model.ParseVerdict(resp.Verdict)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAssessment, err)
	}
	confidence, err := model.ParseConfidence(resp.Confidence)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAssessment, err)
	}

	return &Assessment{
		Verdict:         verdict,
		Confidence:      confidence,
		Reasoning:       resp.Reasoning,
		EvidenceRefs:    resp.EvidenceRefs,
		ProposedPenalty: resp.FinalPenalty,
	}, nil
}
