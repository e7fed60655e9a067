package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// MaxPenalty is the upper bound of every penalty score
const MaxPenalty = 100

// RuleTrigger records one deterministic rule that fired for a claim
type RuleTrigger struct {
	RuleID       string                 `json:"rule_id"`
	Description  string                 `json:"description"`
	PenaltyDelta int                    `json:"penalty_delta"`
	EvidenceIDs  []string               `json:"evidence_ids,omitempty"`
	Data         map[string]interface{} `json:"data,omitempty"` // Transparent inputs and formula
}

// Floor is the non-negotiable minimum penalty computed by the rule engine
type Floor struct {
	Penalty  int           `json:"penalty"`
	Triggers []RuleTrigger `json:"triggers"`
}

// Verdict is the categorical outcome for one claim.
// The zero value is Unproven, so a verdict is never unset.
type Verdict int

const (
	VerdictUnproven Verdict = iota
	VerdictSupported
	VerdictContradicted
)

var verdictNames = map[Verdict]string{
	VerdictUnproven:     "unproven",
	VerdictSupported:    "supported",
	VerdictContradicted: "contradicted",
}

// Valid reports whether v is one of the three verdicts
func (v Verdict) Valid() bool {
	_, ok := verdictNames[v]
	return ok
}

func (v Verdict) String() string {
	if name, ok := verdictNames[v]; ok {
		return name
	}
	return "invalid"
}

// ParseVerdict parses a verdict name (case-insensitive)
func ParseVerdict(s string) (Verdict, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "unproven":
		return VerdictUnproven, nil
	case "supported":
		return VerdictSupported, nil
	case "contradicted":
		return VerdictContradicted, nil
	}
	return VerdictUnproven, fmt.Errorf("unknown verdict %q", s)
}

func (v Verdict) MarshalText() ([]byte, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("invalid verdict %d", int(v))
	}
	return []byte(v.String()), nil
}

func (v *Verdict) UnmarshalText(text []byte) error {
	parsed, err := ParseVerdict(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Confidence is the judge's certainty in a verdict. The zero value is low.
type Confidence int

const (
	ConfidenceLow Confidence = iota
	ConfidenceMedium
	ConfidenceHigh
)

var confidenceNames = map[Confidence]string{
	ConfidenceLow:    "low",
	ConfidenceMedium: "medium",
	ConfidenceHigh:   "high",
}

// Valid reports whether c is a known confidence level
func (c Confidence) Valid() bool {
	_, ok := confidenceNames[c]
	return ok
}

func (c Confidence) String() string {
	if name, ok := confidenceNames[c]; ok {
		return name
	}
	return "invalid"
}

// ParseConfidence parses a confidence level (case-insensitive)
func ParseConfidence(s string) (Confidence, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return ConfidenceLow, nil
	case "medium":
		return ConfidenceMedium, nil
	case "high":
		return ConfidenceHigh, nil
	}
	return ConfidenceLow, fmt.Errorf("unknown confidence %q", s)
}

func (c Confidence) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid confidence %d", int(c))
	}
	return []byte(c.String()), nil
}

func (c *Confidence) UnmarshalText(text []byte) error {
	parsed, err := ParseConfidence(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// JudgmentResult is the full evaluation of one claim.
// FinalPenalty is never below FloorPenalty.
type JudgmentResult struct {
	Claim            Claim           `json:"claim"`
	MatchedEvidence  []*EvidenceItem `json:"matched_evidence"`
	FloorPenalty     int             `json:"floor_penalty"`
	FinalPenalty     int             `json:"penalty_score"`
	Verdict          Verdict         `json:"verdict"`
	Confidence       Confidence      `json:"confidence"`
	Reasoning        string          `json:"reasoning"`
	TriggeredRules   []RuleTrigger   `json:"triggered_rules"`
	EvaluationFailed bool            `json:"evaluation_failed,omitempty"`
}

// MarshalJSON flattens claim_text and category onto the judgment object
func (j JudgmentResult) MarshalJSON() ([]byte, error) {
	type alias JudgmentResult
	return json.Marshal(struct {
		ClaimText string   `json:"claim_text"`
		Category  Category `json:"category"`
		alias
	}{
		ClaimText: j.Claim.Text,
		Category:  j.Claim.Category,
		alias:     alias(j),
	})
}

// Report is the immutable outcome of one analysis run
type Report struct {
	RunID          string           `json:"run_id"`
	ToolVersion    string           `json:"tool_version"`
	Timestamp      time.Time        `json:"timestamp"`
	Repo           string           `json:"repo"`
	RepoSHA        string           `json:"repo_sha"`
	UseCase        string           `json:"use_case"`
	IssuesAnalyzed int              `json:"issues_analyzed"`
	Judgments      []JudgmentResult `json:"judgments"`
	OverallScore   OverallScore     `json:"overall_score"`
	Summary        VerdictSummary   `json:"summary"`
}

// OverallScore is the aggregate penalty with the function that produced it
type OverallScore struct {
	Value   int    `json:"value"`
	Method  string `json:"method"`
	Formula string `json:"formula"`
}

// VerdictSummary counts judgments per verdict
type VerdictSummary struct {
	Supported    int `json:"supported"`
	Contradicted int `json:"contradicted"`
	Unproven     int `json:"unproven"`
}

// Add counts one verdict
func (s *VerdictSummary) Add(v Verdict) {
	switch v {
	case VerdictSupported:
		s.Supported++
	case VerdictContradicted:
		s.Contradicted++
	default:
		s.Unproven++
	}
}
