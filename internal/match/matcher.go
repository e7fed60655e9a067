// Package match pairs claims with the issues that fall in their category.
package match

import (
	"github.com/ppiankov/realitycheck/internal/model"
	"github.com/ppiankov/realitycheck/internal/taxonomy"
)

// Matcher selects the evidence relevant to a claim. Matching is
// category-scoped: an issue about memory leaks is never evidence against an
// abstraction-boundaries claim.
type Matcher struct {
	issues []*model.EvidenceItem
}

// NewMatcher indexes the snapshot's issues. Pull requests are dropped here
// and can never reach a claim.
func NewMatcher(snapshot *model.EvidenceSnapshot) *Matcher {
	return &Matcher{issues: snapshot.EligibleIssues()}
}

// Match returns the issues whose labels or text belong to the claim's
// category, in snapshot order. Items are shared, not copied.
func (m *Matcher) Match(claim model.Claim) []*model.EvidenceItem {
	lex, ok := taxonomy.For(claim.Category)
	if !ok {
		return nil
	}

	var matched []*model.EvidenceItem
	for _, item := range m.issues {
		if item.IsPullRequest {
			continue
		}
		if Relevant(lex, item) {
			matched = append(matched, item)
		}
	}
	return matched
}

// Relevant reports whether an item belongs to the lexicon's category
func Relevant(lex taxonomy.Lexicon, item *model.EvidenceItem) bool {
	for _, label := range item.Labels {
		if lex.LabelMatches(label) {
			return true
		}
	}
	return len(taxonomy.MatchedTerms(item.SearchText(), lex.EvidenceTerms)) > 0
}

// Len returns how many eligible issues the matcher holds
func (m *Matcher) Len() int {
	return len(m.issues)
}
