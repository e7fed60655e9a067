package match

import (
	"testing"

	"github.com/ppiankov/realitycheck/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot() *model.EvidenceSnapshot {
	return &model.EvidenceSnapshot{
		Repo: "acme/fastpool",
		Issues: []model.EvidenceItem{
			{ID: "1", Title: "Pool hangs", BodyExcerpt: "hangs indefinitely under load", State: model.StateOpen, AgeDays: 63},
			{ID: "2", Title: "Fix deadlock", BodyExcerpt: "fixes the deadlock in acquire", State: model.StateOpen, IsPullRequest: true},
			{ID: "3", Title: "Docs typo", BodyExcerpt: "README has a typo", State: model.StateOpen},
			{ID: "4", Title: "Slow startup", BodyExcerpt: "startup is slow", State: model.StateClosed, Labels: []string{"type: performance"}},
			{ID: "5", Title: "Question", BodyExcerpt: "how do I configure it", Labels: []string{"area/async"}, State: model.StateOpen},
		},
	}
}

func TestMatcher_CategoryScoped(t *testing.T) {
	m := NewMatcher(snapshot())

	matched := m.Match(model.Claim{Category: model.CategoryConcurrencyScale})
	ids := idsOf(matched)
	assert.Equal(t, []string{"1", "5"}, ids)

	matched = m.Match(model.Claim{Category: model.CategoryPerformance})
	assert.Equal(t, []string{"4"}, idsOf(matched))
}

func TestMatcher_ExcludesPullRequests(t *testing.T) {
	snap := snapshot()
	m := NewMatcher(snap)

	assert.Equal(t, 4, m.Len())
	for _, c := range model.Categories() {
		for _, item := range m.Match(model.Claim{Category: c}) {
			assert.False(t, item.IsPullRequest, "pull request %s matched %s", item.ID, c)
		}
	}
}

func TestMatcher_SharesSnapshotItems(t *testing.T) {
	snap := snapshot()
	m := NewMatcher(snap)

	matched := m.Match(model.Claim{Category: model.CategoryConcurrencyScale})
	require.NotEmpty(t, matched)
	assert.Same(t, &snap.Issues[0], matched[0])
}

func TestMatcher_UnknownCategory(t *testing.T) {
	assert.Empty(t, NewMatcher(snapshot()).Match(model.Claim{}))
}

func TestMatcher_EmptySnapshot(t *testing.T) {
	m := NewMatcher(&model.EvidenceSnapshot{})
	assert.Empty(t, m.Match(model.Claim{Category: model.CategoryReliability}))
}

func idsOf(items []*model.EvidenceItem) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}
