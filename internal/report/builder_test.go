package report

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/realitycheck/internal/model"
	"github.com/ppiankov/realitycheck/internal/score"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func judgment(v model.Verdict, tone model.Tone, penalty int) model.JudgmentResult {
	return model.JudgmentResult{
		Claim:        model.Claim{Text: "claim", Category: model.CategoryPerformance, Tone: tone},
		FloorPenalty: penalty,
		FinalPenalty: penalty,
		Verdict:      v,
	}
}

func meta() Metadata {
	return Metadata{
		ToolVersion:    "v0.2.0",
		Repo:           "acme/fastpool",
		RepoSHA:        "abc123",
		UseCase:        "500+ concurrent medical users",
		IssuesAnalyzed: 7,
	}
}

func TestBuilder_Build(t *testing.T) {
	b := NewBuilder(meta(), 3, nil)
	b.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600)) }

	require.NoError(t, b.Set(2, judgment(model.VerdictSupported, model.ToneSuggestive, 0)))
	require.NoError(t, b.Set(0, judgment(model.VerdictContradicted, model.ToneAssertive, 90)))
	require.NoError(t, b.Set(1, judgment(model.VerdictUnproven, model.ToneAspirational, 10)))

	r, err := b.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "acme/fastpool", r.Repo)
	assert.Equal(t, "abc123", r.RepoSHA)
	assert.Equal(t, "v0.2.0", r.ToolVersion)
	assert.Equal(t, 7, r.IssuesAnalyzed)
	assert.Equal(t, time.UTC, r.Timestamp.Location())
	assert.Equal(t, 11, r.Timestamp.Hour())

	_, err = uuid.Parse(r.RunID)
	assert.NoError(t, err)

	require.Len(t, r.Judgments, 3)
	assert.Equal(t, 90, r.Judgments[0].FinalPenalty, "judgments keep claim order")
	assert.Equal(t, 0, r.Judgments[2].FinalPenalty)

	assert.Equal(t, model.VerdictSummary{Supported: 1, Contradicted: 1, Unproven: 1}, r.Summary)
	assert.Equal(t, 90, r.OverallScore.Value)
	assert.Equal(t, "max", r.OverallScore.Method)
	assert.NotEmpty(t, r.OverallScore.Formula)
}

func TestBuilder_ToneWeightedMean(t *testing.T) {
	b := NewBuilder(meta(), 2, score.ToneWeightedMean{})
	require.NoError(t, b.Set(0, judgment(model.VerdictContradicted, model.ToneAssertive, 90)))
	require.NoError(t, b.Set(1, judgment(model.VerdictUnproven, model.ToneAspirational, 10)))

	r, err := b.Build(context.Background())
	require.NoError(t, err)
	// (90*3 + 10*1) / 4 = 70
	assert.Equal(t, 70, r.OverallScore.Value)
	assert.Equal(t, "tone_weighted_mean", r.OverallScore.Method)
}

func TestBuilder_Incomplete(t *testing.T) {
	b := NewBuilder(meta(), 2, nil)
	require.NoError(t, b.Set(0, judgment(model.VerdictUnproven, model.ToneAssertive, 10)))

	r, err := b.Build(context.Background())
	assert.Nil(t, r)
	assert.True(t, errors.Is(err, ErrIncomplete))
	assert.Equal(t, []int{1}, b.Missing())
}

func TestBuilder_Cancelled(t *testing.T) {
	b := NewBuilder(meta(), 1, nil)
	require.NoError(t, b.Set(0, judgment(model.VerdictUnproven, model.ToneAssertive, 10)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, err := b.Build(ctx)
	assert.Nil(t, r)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuilder_EmptyClaimSet(t *testing.T) {
	r, err := NewBuilder(meta(), 0, nil).Build(context.Background())
	require.NoError(t, err)
	assert.Empty(t, r.Judgments)
	assert.Equal(t, 0, r.OverallScore.Value)
	assert.Equal(t, model.VerdictSummary{}, r.Summary)
}

func TestBuilder_SetRejectsDuplicatesAndRange(t *testing.T) {
	b := NewBuilder(meta(), 1, nil)
	require.NoError(t, b.Set(0, judgment(model.VerdictUnproven, model.ToneAssertive, 10)))
	assert.Error(t, b.Set(0, judgment(model.VerdictUnproven, model.ToneAssertive, 10)))
	assert.Error(t, b.Set(1, judgment(model.VerdictUnproven, model.ToneAssertive, 10)))
	assert.Error(t, b.Set(-1, judgment(model.VerdictUnproven, model.ToneAssertive, 10)))

	_, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Error(t, b.Set(0, judgment(model.VerdictUnproven, model.ToneAssertive, 10)), "built reports are immutable")
}

func TestBuilder_ConcurrentSet(t *testing.T) {
	const n = 50
	b := NewBuilder(meta(), n, nil)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, b.Set(i, judgment(model.VerdictUnproven, model.ToneAssertive, i)))
		}(i)
	}
	wg.Wait()

	r, err := b.Build(context.Background())
	require.NoError(t, err)
	for i, j := range r.Judgments {
		assert.Equal(t, i, j.FinalPenalty)
	}
	assert.Equal(t, n-1, r.OverallScore.Value)
}
