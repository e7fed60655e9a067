package extract

import (
	"testing"

	"github.com/ppiankov/realitycheck/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const finalizeSource = "FastPool handles 10,000 concurrent connections without blocking."

func validCandidate() Candidate {
	return Candidate{
		ClaimText:          "Handles 10,000 concurrent connections",
		Category:           "Concurrency & Scale",
		Tone:               "assertive",
		ImpliedCommitments: []string{"Remains responsive at 10,000 connections"},
		SourceSection:      "features",
		Quote:              "handles 10,000 concurrent connections",
	}
}

func TestFinalize_AcceptsValidCandidate(t *testing.T) {
	claims := Finalize([]Candidate{validCandidate()}, finalizeSource, nil)

	require.Len(t, claims, 1)
	assert.Equal(t, model.CategoryConcurrencyScale, claims[0].Category)
	assert.Equal(t, model.ToneAssertive, claims[0].Tone)
}

func TestFinalize_QuoteGuardrail(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)

	paraphrased := validCandidate()
	paraphrased.Quote = "handles ten thousand concurrent connections"

	claims := Finalize([]Candidate{paraphrased}, finalizeSource, zap.New(core))
	assert.Empty(t, claims)
	assert.Equal(t, 1, logs.FilterMessage("discarding claim: quote not found verbatim").Len())
}

func TestFinalize_CategoryClosure(t *testing.T) {
	outside := validCandidate()
	outside.Category = "Usability"

	assert.Empty(t, Finalize([]Candidate{outside}, finalizeSource, nil))
}

func TestFinalize_RejectsMissingFields(t *testing.T) {
	blankCommitment := validCandidate()
	blankCommitment.ImpliedCommitments = []string{"Remains responsive", ""}

	badTone := validCandidate()
	badTone.Tone = "confident"

	noQuote := validCandidate()
	noQuote.Quote = ""

	assert.Empty(t, Finalize([]Candidate{blankCommitment, badTone, noQuote}, finalizeSource, nil))
}

func TestFinalize_AcceptsEmptyCommitments(t *testing.T) {
	empty := validCandidate()
	empty.ImpliedCommitments = []string{}

	absent := validCandidate()
	absent.Quote = "10,000 concurrent connections without blocking"
	absent.ImpliedCommitments = nil

	claims := Finalize([]Candidate{empty, absent}, finalizeSource, nil)
	require.Len(t, claims, 2)
	for _, c := range claims {
		assert.NotNil(t, c.ImpliedCommitments)
		assert.Empty(t, c.ImpliedCommitments)
	}
}

func TestFinalize_DeduplicatesQuotes(t *testing.T) {
	claims := Finalize([]Candidate{validCandidate(), validCandidate()}, finalizeSource, nil)
	assert.Len(t, claims, 1)
}

func TestVerifyQuote(t *testing.T) {
	assert.True(t, VerifyQuote("10,000 concurrent", finalizeSource))
	assert.False(t, VerifyQuote("10000 concurrent", finalizeSource))
	assert.False(t, VerifyQuote("  ", finalizeSource))
}
