package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/realitycheck/internal/model"
	"github.com/ppiankov/realitycheck/internal/util"
)

// ExtractSystemPrompt instructs the model to act as a claim auditor
const ExtractSystemPrompt = `You are a senior technical auditor. Extract specific, verifiable claims from software documentation.

Follow these rules strictly:
1. Only extract claims that are technical promises with a checkable predicate. Skip generic praise.
2. Every claim MUST have a "quote" that is a substring present VERBATIM in the text. Do not paraphrase the quote.
3. "category" MUST be exactly one of: "Performance", "Concurrency & Scale", "Reliability", "Abstraction Boundaries", "Security". If a claim fits none, leave it out.
4. "confidence_tone" MUST be one of:
   - "assertive": strong language (guarantees, must, always, stated figures)
   - "suggestive": capabilities (supports, allows, can)
   - "aspirational": future or weak goals (aims to, experimental, roadmap)
5. "implied_commitments" lists the technical expectations the claim creates for a developer.
6. If no claims are found, return an empty list.

Respond with a single JSON object: {"claims": [{"claim_text": "...", "category": "...", "confidence_tone": "...", "implied_commitments": ["..."], "source_section": "...", "quote": "..."}]}`

// JudgeSystemPrompt instructs the model to act as a feasibility reviewer
const JudgeSystemPrompt = `You are a senior systems architect performing a technical feasibility check.
You are given a claim about a software library, the issues matched to the claim's category, a deployment use case, and a deterministic floor penalty.
Decide whether the issues are semantically incompatible with the claim UNDER THE STATED USE CASE (a memory leak barely matters for a short CLI run and is critical for a long-running service).

Verdict definitions:
- "contradicted": at least one issue is explicitly incompatible with the claim under the use case.
- "supported": at least one issue affirmatively shows the claim holds under the use case, and none contradicts it. This is rare.
- "unproven": evidence is absent or insufficient for either. Absence of evidence is not proof of safety.

Confidence: "high" for direct, clear evidence; "medium" for indirect or mixed signals; "low" for speculative links or noisy data.

Rules:
1. Cite evidence ONLY by the ids listed (e.g. "#123"). Never invent ids.
2. Unless the verdict is "unproven", cite at least one id in "reasoning" and "evidence_refs".
3. "final_penalty" is an integer 0-100 and MUST be greater than or equal to the floor penalty. You may only add risk.

Respond with a single JSON object: {"verdict": "...", "confidence": "...", "reasoning": "...", "evidence_refs": ["..."], "final_penalty": 0}`

// PromptVersion changes whenever the judge prompt or its response contract
// changes, so judgments cached under an older prompt are not replayed
const PromptVersion = "judge-v1"

// maxEvidenceInPrompt limits how many issues are listed to avoid token bloat
const maxEvidenceInPrompt = 20

// bodyPreviewChars is how much of each issue body the model sees
const bodyPreviewChars = 200

// BuildExtractPrompt constructs the user prompt for claim extraction
func BuildExtractPrompt(req ExtractRequest) string {
	section := req.Section
	if section == "" {
		section = "documentation"
	}
	return fmt.Sprintf("Extract claims from the following '%s' section (revision %s):\n\n%s",
		section, req.Revision, req.DocumentationText)
}

// BuildJudgePrompt constructs the user prompt for semantic judgment
func BuildJudgePrompt(req JudgeRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Use Case: %s\n", req.UseCase)
	fmt.Fprintf(&b, "Claim: %s\n", req.Claim.Text)
	fmt.Fprintf(&b, "Quote: %q\n", req.Claim.Quote)
	fmt.Fprintf(&b, "Category: %s\n", req.Claim.Category)
	fmt.Fprintf(&b, "Tone: %s\n", req.Claim.Tone)
	if len(req.Claim.ImpliedCommitments) > 0 {
		fmt.Fprintf(&b, "Implied commitments: %s\n", strings.Join(req.Claim.ImpliedCommitments, "; "))
	}
	fmt.Fprintf(&b, "Floor penalty: %d\n\n", req.FloorPenalty)

	b.WriteString("Matched issues:\n")
	b.WriteString(formatEvidence(req.Evidence))
	return b.String()
}

func formatEvidence(items []*model.EvidenceItem) string {
	if len(items) == 0 {
		return "(No matched issues)\n"
	}
	var b strings.Builder
	for i, item := range items {
		if i >= maxEvidenceInPrompt {
			fmt.Fprintf(&b, "... and %d more issues\n", len(items)-maxEvidenceInPrompt)
			break
		}
		body := item.BodyExcerpt
		if len(body) > bodyPreviewChars {
			body = util.Truncate(body, bodyPreviewChars) + "..."
		}
		fmt.Fprintf(&b, "- [Issue %s] (%s, %d days, labels: %s): %s. Content: %s\n",
			item.Ref(), item.State, item.AgeDays, strings.Join(item.Labels, ", "), item.Title, body)
	}
	return b.String()
}
