package judge

import (
	"context"
	"testing"

	"github.com/ppiankov/realitycheck/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeuristicJudge_MemoryLeakDependsOnUseCase(t *testing.T) {
	claim := model.Claim{Text: "Low memory footprint", Category: model.CategoryPerformance, Tone: model.ToneAssertive}
	evidence := []*model.EvidenceItem{{
		ID: "12", Title: "Memory leak after hours of uptime", State: model.StateOpen, AgeDays: 10,
	}}
	j := NewHeuristicJudge()

	service, err := j.Assess(context.Background(), Request{Claim: claim, Evidence: evidence, UseCase: "long-running chatbot service"})
	require.NoError(t, err)
	assert.Equal(t, model.VerdictContradicted, service.Verdict)

	cli, err := j.Assess(context.Background(), Request{Claim: claim, Evidence: evidence, UseCase: "one-off CLI script"})
	require.NoError(t, err)
	assert.Equal(t, model.VerdictUnproven, cli.Verdict)
	assert.Contains(t, cli.Reasoning, "#12")
}

func TestHeuristicJudge_Supported(t *testing.T) {
	claim := model.Claim{Text: "Retries recover from errors", Category: model.CategoryReliability, Tone: model.ToneSuggestive}
	evidence := []*model.EvidenceItem{{
		ID: "4", Title: "Crash on reconnect", BodyExcerpt: "Fixed in 2.1, verified in production.", State: model.StateClosed,
	}}

	a, err := NewHeuristicJudge().Assess(context.Background(), Request{Claim: claim, Evidence: evidence})
	require.NoError(t, err)
	assert.Equal(t, model.VerdictSupported, a.Verdict)
	assert.Equal(t, model.ConfidenceMedium, a.Confidence)
	assert.NoError(t, ValidateAssessment(a, evidence))
}

func TestHeuristicJudge_OpenButHarmless(t *testing.T) {
	claim := model.Claim{Text: "Unified API", Category: model.CategoryAbstractionBoundaries}
	evidence := []*model.EvidenceItem{{ID: "8", Title: "Document the interface", State: model.StateOpen}}

	a, err := NewHeuristicJudge().Assess(context.Background(), Request{Claim: claim, Evidence: evidence})
	require.NoError(t, err)
	assert.Equal(t, model.VerdictUnproven, a.Verdict)
	assert.Equal(t, model.ConfidenceLow, a.Confidence)
}

func TestHeuristicJudge_MediumConfidenceForSingleLoudIssue(t *testing.T) {
	claim := model.Claim{Text: "Production ready", Category: model.CategoryReliability}
	evidence := []*model.EvidenceItem{{ID: "3", Title: "Panic on empty config", State: model.StateOpen}}

	a, err := NewHeuristicJudge().Assess(context.Background(), Request{Claim: claim, Evidence: evidence, UseCase: "internal dashboard"})
	require.NoError(t, err)
	assert.Equal(t, model.VerdictContradicted, a.Verdict)
	assert.Equal(t, model.ConfidenceMedium, a.Confidence)
	assert.Equal(t, []string{"3"}, a.EvidenceRefs)
}

func TestHeuristicJudge_RequiresCategory(t *testing.T) {
	_, err := NewHeuristicJudge().Assess(context.Background(), Request{Claim: model.Claim{}})
	assert.ErrorIs(t, err, ErrInvalidAssessment)
}
