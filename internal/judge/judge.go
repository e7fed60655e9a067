// Package judge decides whether matched evidence contradicts a claim under a
// use-case context, and merges that decision with the deterministic floor.
package judge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/realitycheck/internal/llm"
	"github.com/ppiankov/realitycheck/internal/model"
)

// ErrInvalidAssessment is returned when a judge's output breaks the contract
var ErrInvalidAssessment = errors.New("invalid assessment")

// Request is everything a judge sees for one claim
type Request struct {
	Claim        model.Claim
	Evidence     []*model.EvidenceItem
	UseCase      string
	FloorPenalty int
}

// Assessment is a judge's typed verdict for one claim
type Assessment struct {
	Verdict      model.Verdict    `json:"verdict"`
	Confidence   model.Confidence `json:"confidence"`
	Reasoning    string           `json:"reasoning"`
	EvidenceRefs []string         `json:"evidence_refs"`

	// ProposedPenalty is the judge's own penalty suggestion, 0 when it has none
	ProposedPenalty int `json:"proposed_penalty"`
}

// Judge produces an assessment for one claim
type Judge interface {
	Name() string
	Assess(ctx context.Context, req Request) (*Assessment, error)
}

// ValidateAssessment checks an assessment against the evidence it was given.
// Non-Unproven verdicts need evidence and their reasoning must cite at least
// one item by "#id"; evidence_refs alone do not count. Every cited id must
// belong to the matched set.
func ValidateAssessment(a *Assessment, evidence []*model.EvidenceItem) error {
	if a == nil {
		return fmt.Errorf("%w: empty assessment", ErrInvalidAssessment)
	}
	if !a.Verdict.Valid() {
		return fmt.Errorf("%w: verdict %d", ErrInvalidAssessment, int(a.Verdict))
	}
	if !a.Confidence.Valid() {
		return fmt.Errorf("%w: confidence %d", ErrInvalidAssessment, int(a.Confidence))
	}
	if strings.TrimSpace(a.Reasoning) == "" {
		return fmt.Errorf("%w: empty reasoning", ErrInvalidAssessment)
	}
	if a.ProposedPenalty < 0 || a.ProposedPenalty > model.MaxPenalty {
		return fmt.Errorf("%w: proposed penalty %d out of range", ErrInvalidAssessment, a.ProposedPenalty)
	}

	allowed := make(map[string]bool, len(evidence))
	for _, e := range evidence {
		allowed[e.ID] = true
	}

	cited := citations(a)
	for _, ref := range cited {
		if !allowed[ref] {
			return fmt.Errorf("%w: cites #%s outside the matched evidence", ErrInvalidAssessment, ref)
		}
	}

	if a.Verdict != model.VerdictUnproven {
		if len(evidence) == 0 {
			return fmt.Errorf("%w: %s without evidence", ErrInvalidAssessment, a.Verdict)
		}
		if len(llm.CitedRefs(a.Reasoning)) == 0 {
			return fmt.Errorf("%w: %s reasoning cites no evidence", ErrInvalidAssessment, a.Verdict)
		}
	}
	return nil
}

// citations returns every evidence id the assessment refers to
func citations(a *Assessment) []string {
	seen := make(map[string]bool)
	var refs []string
	add := func(ref string) {
		ref = strings.TrimPrefix(strings.TrimSpace(ref), "#")
		if ref != "" && !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	}
	for _, r := range a.EvidenceRefs {
		add(r)
	}
	for _, r := range llm.CitedRefs(a.Reasoning) {
		add(r)
	}
	return refs
}

// MergePenalty applies the monotonic merge: the result is never below the
// floor and never above MaxPenalty.
//
//	final = min(100, max(floor, floor + delta))
//	delta = max(verdictDelta, proposed - floor, 0)
func MergePenalty(floor, proposed, verdictDelta int) int {
	delta := verdictDelta
	if proposed-floor > delta {
		delta = proposed - floor
	}
	if delta < 0 {
		delta = 0
	}

	final := floor + delta
	if final < floor {
		final = floor
	}
	if final > model.MaxPenalty {
		final = model.MaxPenalty
	}
	return final
}
