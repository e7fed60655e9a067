package score

import (
	"fmt"

	"github.com/ppiankov/realitycheck/internal/model"
	"github.com/ppiankov/realitycheck/internal/taxonomy"
)

// Rule identifiers as they appear in reports
const (
	RuleZombieBug     = "zombie_bug"
	RuleSilentFailure = "silent_failure"
	RuleLoudFailure   = "loud_failure"
	RuleChurnVelocity = "churn_velocity"
)

// DefaultRules returns the built-in rules in evaluation order
func DefaultRules(cfg model.RulesConfig) []Rule {
	return []Rule{
		ZombieBug{AgeDays: cfg.ZombieAgeDays, Penalty: cfg.ZombiePenalty},
		SilentFailure{Keywords: cfg.SilentFailureKeywords, Penalty: cfg.SilentFailurePenalty},
		LoudFailure{Keywords: cfg.CrashKeywords, SilentKeywords: cfg.SilentFailureKeywords, Penalty: cfg.CrashPenalty},
		ChurnVelocity{Threshold: cfg.ChurnThreshold, Penalty: cfg.ChurnPenalty},
	}
}

// ZombieBug fires when matched evidence has stayed open past AgeDays
type ZombieBug struct {
	AgeDays int
	Penalty int
}

func (r ZombieBug) ID() string { return RuleZombieBug }

func (r ZombieBug) Evaluate(in Input) *model.RuleTrigger {
	var ids []string
	oldest := 0
	for _, item := range in.Evidence {
		if item.IsOpen() && item.AgeDays > r.AgeDays {
			ids = append(ids, item.ID)
			if item.AgeDays > oldest {
				oldest = item.AgeDays
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}

	return &model.RuleTrigger{
		RuleID:       RuleZombieBug,
		Description:  fmt.Sprintf("%d matched issue(s) open longer than %d days", len(ids), r.AgeDays),
		PenaltyDelta: r.Penalty,
		EvidenceIDs:  ids,
		Data: map[string]interface{}{
			"threshold_days": r.AgeDays,
			"oldest_days":    oldest,
			"count":          len(ids),
			"formula":        "state == open && age_days > threshold_days",
		},
	}
}

// SilentFailure fires when matched evidence describes a hang or silent misbehaviour
type SilentFailure struct {
	Keywords []string
	Penalty  int
}

func (r SilentFailure) ID() string { return RuleSilentFailure }

func (r SilentFailure) Evaluate(in Input) *model.RuleTrigger {
	ids, hits := keywordHits(in.Evidence, r.Keywords, nil)
	if len(ids) == 0 {
		return nil
	}

	return &model.RuleTrigger{
		RuleID:       RuleSilentFailure,
		Description:  fmt.Sprintf("%d matched issue(s) describe silent failures", len(ids)),
		PenaltyDelta: r.Penalty,
		EvidenceIDs:  ids,
		Data: map[string]interface{}{
			"keywords": hits,
			"formula":  "title/body contains any silent-failure keyword",
		},
	}
}

// LoudFailure fires on crash reports. Items already counted as silent
// failures are skipped so one report is not penalised twice.
type LoudFailure struct {
	Keywords       []string
	SilentKeywords []string
	Penalty        int
}

func (r LoudFailure) ID() string { return RuleLoudFailure }

func (r LoudFailure) Evaluate(in Input) *model.RuleTrigger {
	ids, hits := keywordHits(in.Evidence, r.Keywords, r.SilentKeywords)
	if len(ids) == 0 {
		return nil
	}

	return &model.RuleTrigger{
		RuleID:       RuleLoudFailure,
		Description:  fmt.Sprintf("%d matched issue(s) report crashes", len(ids)),
		PenaltyDelta: r.Penalty,
		EvidenceIDs:  ids,
		Data: map[string]interface{}{
			"keywords": hits,
			"formula":  "title/body contains any crash keyword and no silent-failure keyword",
		},
	}
}

// ChurnVelocity fires when core abstraction files change faster than the
// threshold. It ignores the claim and the evidence.
type ChurnVelocity struct {
	Threshold int
	Penalty   int
}

func (r ChurnVelocity) ID() string { return RuleChurnVelocity }

func (r ChurnVelocity) Evaluate(in Input) *model.RuleTrigger {
	if in.Churn == nil || in.Churn.Commits <= r.Threshold {
		return nil
	}

	return &model.RuleTrigger{
		RuleID: RuleChurnVelocity,
		Description: fmt.Sprintf("%d commits to core files in %d days (threshold %d)",
			in.Churn.Commits, in.Churn.WindowDays, r.Threshold),
		PenaltyDelta: r.Penalty,
		Data: map[string]interface{}{
			"commits":     in.Churn.Commits,
			"window_days": in.Churn.WindowDays,
			"paths":       in.Churn.Paths,
			"threshold":   r.Threshold,
			"formula":     "commits > threshold",
		},
	}
}

// keywordHits returns the ids of items whose text contains a keyword and
// none of the excluded keywords, plus the distinct keywords seen
func keywordHits(items []*model.EvidenceItem, keywords, exclude []string) ([]string, []string) {
	var ids []string
	var hits []string
	seen := make(map[string]bool)

	for _, item := range items {
		text := item.SearchText()
		if len(exclude) > 0 && len(taxonomy.MatchedTerms(text, exclude)) > 0 {
			continue
		}
		matched := taxonomy.MatchedTerms(text, keywords)
		if len(matched) == 0 {
			continue
		}
		ids = append(ids, item.ID)
		for _, kw := range matched {
			if !seen[kw] {
				seen[kw] = true
				hits = append(hits, kw)
			}
		}
	}
	return ids, hits
}
