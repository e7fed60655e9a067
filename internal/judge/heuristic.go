package judge

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/realitycheck/internal/model"
	"github.com/ppiankov/realitycheck/internal/taxonomy"
)

var (
	// silentTerms mark failures a caller cannot detect and recover from
	silentTerms = []string{"hang", "deadlock", "freeze", "stuck", "infinite loop", "silent", "unresponsive"}

	// leakTerms only hurt deployments that live long enough to accumulate
	leakTerms = []string{"memory leak", "leak", "oom", "out of memory"}

	resolutionTerms = []string{"fixed", "resolved", "no longer", "works as expected", "verified", "confirmed working"}
)

// HeuristicJudge is a deterministic judge that reads the category failure
// lexicon, issue state and the use-case profile. It needs no network and is
// used when no model provider is configured.
type HeuristicJudge struct{}

// NewHeuristicJudge creates a heuristic judge
func NewHeuristicJudge() *HeuristicJudge {
	return &HeuristicJudge{}
}

// Name returns the judge name
func (HeuristicJudge) Name() string {
	return "heuristic"
}

type finding struct {
	item  *model.EvidenceItem
	terms []string
}

// Assess decides a verdict from the lexicon alone
func (j HeuristicJudge) Assess(_ context.Context, req Request) (*Assessment, error) {
	lex, ok := taxonomy.For(req.Claim.Category)
	if !ok {
		return nil, fmt.Errorf("%w: claim has no category", ErrInvalidAssessment)
	}
	profile := taxonomy.ProfileUseCase(req.UseCase)

	var contradicting, resolved []finding
	var discounted []string
	openRelevant := 0

	for _, item := range req.Evidence {
		text := item.SearchText()
		failures := taxonomy.MatchedTerms(text, lex.FailureTerms)

		if profile.ShortLived && !profile.LongRunning {
			kept := failures[:0:0]
			for _, f := range failures {
				if contains(leakTerms, f) {
					discounted = append(discounted, item.ID)
					continue
				}
				kept = append(kept, f)
			}
			failures = kept
		}

		switch {
		case item.IsOpen() && len(failures) > 0:
			contradicting = append(contradicting, finding{item: item, terms: failures})
		case item.IsOpen():
			openRelevant++
		case len(taxonomy.MatchedTerms(text, resolutionTerms)) > 0:
			resolved = append(resolved, finding{item: item})
		}
	}

	if len(contradicting) > 0 {
		confidence := model.ConfidenceMedium
		if profile.Critical || profile.HighConcurrency || len(contradicting) >= 2 || anySilent(contradicting) {
			confidence = model.ConfidenceHigh
		}
		return &Assessment{
			Verdict:      model.VerdictContradicted,
			Confidence:   confidence,
			Reasoning:    contradictionReasoning(contradicting, req.UseCase),
			EvidenceRefs: ids(contradicting),
		}, nil
	}

	if len(resolved) > 0 && openRelevant == 0 {
		return &Assessment{
			Verdict:    model.VerdictSupported,
			Confidence: model.ConfidenceMedium,
			Reasoning: fmt.Sprintf("Matched reports %s were resolved and no open issue contradicts the claim.",
				refList(ids(resolved))),
			EvidenceRefs: ids(resolved),
		}, nil
	}

	reasoning := fmt.Sprintf("%d matched issue(s) relate to %s but none describes a failure incompatible with the claim.",
		len(req.Evidence), req.Claim.Category)
	if len(discounted) > 0 {
		reasoning += fmt.Sprintf(" Leak reports %s were discounted for a short-lived use case.", refList(dedupe(discounted)))
	}
	return &Assessment{
		Verdict:    model.VerdictUnproven,
		Confidence: model.ConfidenceLow,
		Reasoning:  reasoning,
	}, nil
}

func contradictionReasoning(findings []finding, useCase string) string {
	var parts []string
	for _, f := range findings {
		parts = append(parts, fmt.Sprintf("Issue #%s (open, %d days) reports %s",
			f.item.ID, f.item.AgeDays, quoteTerms(f.terms)))
	}
	scope := "the stated use case"
	if strings.TrimSpace(useCase) != "" {
		scope = fmt.Sprintf("the use case %q", useCase)
	}
	return strings.Join(parts, "; ") + fmt.Sprintf(", which is incompatible with the claim under %s.", scope)
}

func anySilent(findings []finding) bool {
	for _, f := range findings {
		for _, t := range f.terms {
			if contains(silentTerms, t) {
				return true
			}
		}
	}
	return false
}

func ids(findings []finding) []string {
	out := make([]string, 0, len(findings))
	for _, f := range findings {
		out = append(out, f.item.ID)
	}
	return out
}

func refList(ids []string) string {
	refs := make([]string, len(ids))
	for i, id := range ids {
		refs[i] = "#" + id
	}
	return strings.Join(refs, ", ")
}

func quoteTerms(terms []string) string {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = fmt.Sprintf("%q", t)
	}
	return strings.Join(quoted, ", ")
}

func dedupe(in []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
