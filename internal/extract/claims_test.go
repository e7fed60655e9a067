package extract

import (
	"context"
	"strings"
	"testing"

	"github.com/ppiankov/realitycheck/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fastPoolReadme = "# FastPool\n\n" +
	"FastPool is a connection pool for Python services.\n\n" +
	"## Features\n\n" +
	"- FastPool handles 10,000 concurrent connections without blocking.\n" +
	"- Automatic retries recover from transient network errors.\n\n" +
	"## Installation\n\n" +
	"```bash\npip install fastpool\n# handles 1,000,000 concurrent connections\n```\n\n" +
	"## Performance\n\n" +
	"Benchmarks show a p99 latency under 5ms.\n"

func TestHeuristicExtractor_ReadmeClaims(t *testing.T) {
	extractor := NewHeuristicExtractor(nil)

	claims, err := extractor.Extract(context.Background(), model.Documentation{Text: fastPoolReadme, Revision: "abc"})
	require.NoError(t, err)
	require.Len(t, claims, 3)

	assert.Equal(t, "FastPool handles 10,000 concurrent connections without blocking.", claims[0].Quote)
	assert.Equal(t, model.CategoryConcurrencyScale, claims[0].Category)
	assert.Equal(t, model.ToneAssertive, claims[0].Tone)
	assert.Equal(t, "features", claims[0].SourceSection)
	assert.Contains(t, claims[0].ImpliedCommitments, "Holds at the stated figure: 10,000")

	assert.Equal(t, model.CategoryReliability, claims[1].Category)
	assert.Equal(t, model.ToneSuggestive, claims[1].Tone)

	assert.Equal(t, model.CategoryPerformance, claims[2].Category)
	assert.Equal(t, "performance", claims[2].SourceSection)
}

func TestHeuristicExtractor_QuotesAreVerbatim(t *testing.T) {
	claims, err := NewHeuristicExtractor(nil).Extract(context.Background(), model.Documentation{Text: fastPoolReadme})
	require.NoError(t, err)

	for _, c := range claims {
		assert.True(t, strings.Contains(fastPoolReadme, c.Quote), "quote %q is not verbatim", c.Quote)
		assert.True(t, c.Category.Valid())
		assert.NotEmpty(t, c.ImpliedCommitments)
	}
}

func TestHeuristicExtractor_GenericPraise(t *testing.T) {
	claims, err := NewHeuristicExtractor(nil).Extract(context.Background(), model.Documentation{Text: "We love developers!"})
	require.NoError(t, err)
	assert.Empty(t, claims)
}

func TestHeuristicExtractor_EmptyDocumentation(t *testing.T) {
	claims, err := NewHeuristicExtractor(nil).Extract(context.Background(), model.Documentation{Text: "   \n"})
	require.NoError(t, err)
	assert.NotNil(t, claims)
	assert.Empty(t, claims)
}

func TestHeuristicExtractor_SkipsCodeFences(t *testing.T) {
	claims, err := NewHeuristicExtractor(nil).Extract(context.Background(), model.Documentation{Text: fastPoolReadme})
	require.NoError(t, err)

	for _, c := range claims {
		assert.NotContains(t, c.Quote, "1,000,000")
	}
}

func TestHeuristicExtractor_AspirationalTone(t *testing.T) {
	doc := "## Roadmap and scale\n\nWe aim to scale to millions of concurrent users in the future.\n"

	claims, err := NewHeuristicExtractor(nil).Extract(context.Background(), model.Documentation{Text: doc})
	require.NoError(t, err)
	require.Len(t, claims, 1)
	assert.Equal(t, model.ToneAspirational, claims[0].Tone)
	assert.Equal(t, model.CategoryConcurrencyScale, claims[0].Category)
}

func TestHeuristicExtractor_AudienceOutweighsLatency(t *testing.T) {
	doc := "LangChain is designed for production-ready applications. It supports 1000+ concurrent users with low latency.\n"

	claims, err := NewHeuristicExtractor(nil).Extract(context.Background(), model.Documentation{Text: doc})
	require.NoError(t, err)
	require.Len(t, claims, 2)

	assert.Equal(t, model.CategoryReliability, claims[0].Category)
	assert.Equal(t, "It supports 1000+ concurrent users with low latency.", claims[1].Quote)
	assert.Equal(t, model.CategoryConcurrencyScale, claims[1].Category)
}

func TestClassifyCategory(t *testing.T) {
	tests := []struct {
		sentence string
		want     model.Category
		ok       bool
	}{
		{"it supports 1000+ concurrent users with low latency.", model.CategoryConcurrencyScale, true},
		{"benchmarks show a p99 latency under 5ms.", model.CategoryPerformance, true},
		{"serves 10,000 requests per second with low latency.", model.CategoryPerformance, true},
		{"it scales to many users.", model.CategoryConcurrencyScale, true},
		{"we love developers!", 0, false},
	}

	for _, tt := range tests {
		got, ok := classifyCategory(tt.sentence)
		assert.Equal(t, tt.ok, ok, tt.sentence)
		assert.Equal(t, tt.want, got, tt.sentence)
	}
}

func TestSentences_HTMLBlock(t *testing.T) {
	text := `<p align="center">Blazing fast JSON parsing with zero allocations.</p>`

	sentences := Sentences(text)
	require.Len(t, sentences, 1)
	assert.Equal(t, "Blazing fast JSON parsing with zero allocations.", sentences[0])
	assert.Contains(t, text, sentences[0])
}

func TestSentences_SplitsOnTerminators(t *testing.T) {
	sentences := Sentences("First sentence is here. Second one follows! Is this third?")
	assert.Equal(t, []string{"First sentence is here.", "Second one follows!", "Is this third?"}, sentences)
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "Uses the fast path for big inputs",
		CleanText("Uses the **fast path** for [big inputs](https://example.com)"))
}
