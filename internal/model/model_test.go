package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseCategory(t *testing.T) {
	cases := map[string]Category{
		"Performance":            CategoryPerformance,
		"Concurrency & Scale":    CategoryConcurrencyScale,
		"concurrency_scale":      CategoryConcurrencyScale,
		"Reliability":            CategoryReliability,
		"Abstraction Boundaries": CategoryAbstractionBoundaries,
		"Abstraction":            CategoryAbstractionBoundaries,
		"SECURITY":               CategorySecurity,
	}
	for in, want := range cases {
		got, err := ParseCategory(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "Usability", "Developer Experience"} {
		_, err := ParseCategory(bad)
		assert.Error(t, err, bad)
	}
}

func TestCategoryClosedWorld(t *testing.T) {
	assert.Len(t, Categories(), 5)
	for _, c := range Categories() {
		assert.True(t, c.Valid())
	}
	assert.False(t, Category(0).Valid())

	var c Category
	assert.Error(t, json.Unmarshal([]byte(`"Usability"`), &c))

	_, err := json.Marshal(Category(0))
	assert.Error(t, err)
}

func TestToneStrength(t *testing.T) {
	assert.Greater(t, ToneAssertive.Strength(), ToneSuggestive.Strength())
	assert.Greater(t, ToneSuggestive.Strength(), ToneAspirational.Strength())
	assert.Equal(t, 0, Tone(0).Strength())
}

func TestVerdictZeroValueIsUnproven(t *testing.T) {
	var j JudgmentResult
	assert.Equal(t, VerdictUnproven, j.Verdict)
	assert.Equal(t, ConfidenceLow, j.Confidence)
}

func TestParseVerdictAndConfidence(t *testing.T) {
	v, err := ParseVerdict(" Contradicted ")
	require.NoError(t, err)
	assert.Equal(t, VerdictContradicted, v)

	_, err = ParseVerdict("refuted")
	assert.Error(t, err)

	c, err := ParseConfidence("HIGH")
	require.NoError(t, err)
	assert.Equal(t, ConfidenceHigh, c)

	_, err = ParseConfidence("certain")
	assert.Error(t, err)
}

func TestJudgmentResultJSON(t *testing.T) {
	j := JudgmentResult{
		Claim: Claim{
			Text:     "Handles 10,000 concurrent connections",
			Category: CategoryConcurrencyScale,
			Tone:     ToneAssertive,
			Quote:    "handles 10,000 concurrent connections",
		},
		FloorPenalty: 50,
		FinalPenalty: 90,
		Verdict:      VerdictContradicted,
		Confidence:   ConfidenceHigh,
		Reasoning:    "#101 shows the pool hangs under load",
	}

	data, err := json.Marshal(j)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "Handles 10,000 concurrent connections", out["claim_text"])
	assert.Equal(t, "Concurrency & Scale", out["category"])
	assert.Equal(t, "contradicted", out["verdict"])
	assert.Equal(t, "high", out["confidence"])
	assert.EqualValues(t, 90, out["penalty_score"])
	assert.EqualValues(t, 50, out["floor_penalty"])
}

func TestClaimHashStable(t *testing.T) {
	c := Claim{Text: "a", Category: CategoryPerformance, Tone: ToneAssertive, Quote: "a", ImpliedCommitments: []string{"x"}}
	assert.Equal(t, c.Hash(), c.Hash())

	d := c
	d.ImpliedCommitments = []string{"y"}
	assert.NotEqual(t, c.Hash(), d.Hash())
}

func TestEvidenceSetHashOrderIndependent(t *testing.T) {
	a := &EvidenceItem{ID: "1", Title: "hang", State: StateOpen, Labels: []string{"bug", "perf"}}
	b := &EvidenceItem{ID: "2", Title: "crash", State: StateClosed}

	assert.Equal(t, EvidenceSetHash([]*EvidenceItem{a, b}), EvidenceSetHash([]*EvidenceItem{b, a}))

	c := *a
	c.Labels = []string{"perf", "bug"}
	assert.Equal(t, EvidenceSetHash([]*EvidenceItem{a}), EvidenceSetHash([]*EvidenceItem{&c}))

	c.AgeDays = 10
	assert.NotEqual(t, EvidenceSetHash([]*EvidenceItem{a}), EvidenceSetHash([]*EvidenceItem{&c}))
}

func TestEligibleIssuesExcludesPullRequests(t *testing.T) {
	s := &EvidenceSnapshot{Issues: []EvidenceItem{
		{ID: "1", Title: "hang under load"},
		{ID: "2", Title: "fix hang", IsPullRequest: true},
	}}

	items := s.EligibleIssues()
	require.Len(t, items, 1)
	assert.Equal(t, "1", items[0].ID)
	assert.Same(t, &s.Issues[0], items[0])
}

func TestParseRepo(t *testing.T) {
	for _, in := range []string{
		"acme/fastpool",
		"github.com/acme/fastpool",
		"https://github.com/acme/fastpool",
		"https://github.com/acme/fastpool.git",
		"https://github.com/acme/fastpool/",
	} {
		ref, err := ParseRepo(in)
		require.NoError(t, err, in)
		assert.Equal(t, "acme/fastpool", ref.String(), in)
	}

	for _, bad := range []string{"", "fastpool", "acme/", "/fastpool", "acme/fastpool/issues"} {
		_, err := ParseRepo(bad)
		assert.Error(t, err, bad)
	}
}

func TestSnapshotYAMLRoundTripKeepsEnums(t *testing.T) {
	claim := Claim{Text: "fast", Category: CategoryPerformance, Tone: ToneSuggestive, Quote: "fast", SourceSection: "intro", ImpliedCommitments: []string{"low latency"}}

	data, err := yaml.Marshal(claim)
	require.NoError(t, err)
	assert.Contains(t, string(data), "category: Performance")

	var out Claim
	require.NoError(t, yaml.Unmarshal(data, &out))
	assert.Equal(t, claim, out)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 30, cfg.Rules.ZombiePenalty)
	assert.Equal(t, 20, cfg.Rules.SilentFailurePenalty)
	assert.Equal(t, 40, cfg.Judge.ContradictedDelta)
	assert.Equal(t, 10, cfg.Judge.UnprovenDelta)
	assert.Equal(t, MaxPenalty, cfg.Rules.FloorCap)
	assert.Equal(t, "max", cfg.Report.Aggregation)
}
