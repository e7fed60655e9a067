package judge

import (
	"context"
	"fmt"

	"github.com/ppiankov/realitycheck/internal/model"
	"go.uber.org/zap"
)

// Deltas are the penalty increments each verdict adds over the floor
type Deltas struct {
	Contradicted int
	Unproven     int
	Supported    int
}

// DeltasFromModel converts the judge configuration section
func DeltasFromModel(cfg model.JudgeConfig) Deltas {
	return Deltas{
		Contradicted: cfg.ContradictedDelta,
		Unproven:     cfg.UnprovenDelta,
		Supported:    cfg.SupportedDelta,
	}
}

// For returns the delta of a verdict
func (d Deltas) For(v model.Verdict) int {
	switch v {
	case model.VerdictContradicted:
		return d.Contradicted
	case model.VerdictSupported:
		return d.Supported
	default:
		return d.Unproven
	}
}

// noEvidenceReasoning is recorded when the judge is skipped
const noEvidenceReasoning = "No matched issues for this claim's category. Absence of evidence is not proof that the claim holds."

// Stage runs the semantic judge for one claim and merges its verdict with
// the floor. Judge failures never escape: they become an Unproven result at
// the floor.
type Stage struct {
	judge  Judge
	deltas Deltas
	retry  RetryConfig
	sleep  sleepFunc
	logger *zap.Logger
}

// NewStage creates a stage around judge
func NewStage(judge Judge, deltas Deltas, retry RetryConfig, logger *zap.Logger) *Stage {
	if logger == nil {
		logger = zap.NewNop()
	}
	retry.ApplyDefaults()
	return &Stage{
		judge:  judge,
		deltas: deltas,
		retry:  retry,
		sleep:  sleepContext,
		logger: logger,
	}
}

// JudgeName returns the name of the wrapped judge
func (s *Stage) JudgeName() string {
	return s.judge.Name()
}

// Evaluate judges one claim. The only error is cancellation of ctx.
func (s *Stage) Evaluate(ctx context.Context, claim model.Claim, evidence []*model.EvidenceItem, floor model.Floor, useCase string) (model.JudgmentResult, error) {
	result := model.JudgmentResult{
		Claim:           claim,
		MatchedEvidence: evidence,
		FloorPenalty:    floor.Penalty,
		TriggeredRules:  floor.Triggers,
	}
	if result.MatchedEvidence == nil {
		result.MatchedEvidence = []*model.EvidenceItem{}
	}
	if result.TriggeredRules == nil {
		result.TriggeredRules = []model.RuleTrigger{}
	}

	if err := ctx.Err(); err != nil {
		return model.JudgmentResult{}, err
	}

	if len(evidence) == 0 {
		result.Verdict = model.VerdictUnproven
		result.Confidence = model.ConfidenceLow
		result.Reasoning = noEvidenceReasoning
		result.FinalPenalty = MergePenalty(floor.Penalty, 0, s.deltas.Unproven)
		return result, nil
	}

	req := Request{
		Claim:        claim,
		Evidence:     evidence,
		UseCase:      useCase,
		FloorPenalty: floor.Penalty,
	}

	a, err := assessWithRetry(ctx, s.judge, req, s.retry, s.sleep, s.logger)
	if err == nil {
		err = ValidateAssessment(a, evidence)
	}
	if err != nil {
		if ctx.Err() != nil {
			return model.JudgmentResult{}, ctx.Err()
		}
		s.logger.Warn("semantic evaluation failed, keeping floor",
			zap.String("judge", s.judge.Name()),
			zap.String("claim", claim.Text),
			zap.Error(err))
		return failed(result, err), nil
	}

	result.Verdict = a.Verdict
	result.Confidence = a.Confidence
	result.Reasoning = a.Reasoning
	result.FinalPenalty = MergePenalty(floor.Penalty, a.ProposedPenalty, s.deltas.For(a.Verdict))
	return result, nil
}

// failed fills a result for a judge that could not produce a valid assessment
func failed(result model.JudgmentResult, err error) model.JudgmentResult {
	result.Verdict = model.VerdictUnproven
	result.Confidence = model.ConfidenceLow
	result.Reasoning = fmt.Sprintf("semantic evaluation failed: %v", err)
	result.FinalPenalty = result.FloorPenalty
	result.EvaluationFailed = true
	return result
}
