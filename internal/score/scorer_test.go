package score

import (
	"errors"
	"reflect"
	"testing"

	"github.com/ppiankov/realitycheck/internal/model"
)

func scenarioAEvidence() []*model.EvidenceItem {
	return []*model.EvidenceItem{
		{
			ID:          "101",
			Title:       "Connection pool stalls",
			BodyExcerpt: "The pool hangs indefinitely under load after a few minutes.",
			State:       model.StateOpen,
			AgeDays:     63,
		},
	}
}

func TestEngine_Evaluate_ScenarioA(t *testing.T) {
	engine := NewEngine(model.DefaultConfig().Rules, nil)

	floor, err := engine.Evaluate(Input{
		Claim:    model.Claim{Text: "Handles thousands of concurrent connections", Category: model.CategoryConcurrencyScale},
		Evidence: scenarioAEvidence(),
	})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if floor.Penalty != 50 {
		t.Errorf("Expected floor 50 (zombie 30 + silent 20), got %d", floor.Penalty)
	}
	if len(floor.Triggers) != 2 {
		t.Fatalf("Expected 2 triggers, got %d", len(floor.Triggers))
	}
	if floor.Triggers[0].RuleID != RuleZombieBug || floor.Triggers[1].RuleID != RuleSilentFailure {
		t.Errorf("Unexpected rule order: %s, %s", floor.Triggers[0].RuleID, floor.Triggers[1].RuleID)
	}
	if floor.Triggers[0].Data["formula"] == nil {
		t.Error("Expected formula in trigger data")
	}
}

func TestEngine_Evaluate_NoEvidence(t *testing.T) {
	engine := NewEngine(model.DefaultConfig().Rules, nil)

	floor, err := engine.Evaluate(Input{Claim: model.Claim{Category: model.CategoryPerformance}})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if floor.Penalty != 0 || len(floor.Triggers) != 0 {
		t.Errorf("Expected empty floor, got %+v", floor)
	}
}

func TestEngine_Evaluate_Deterministic(t *testing.T) {
	engine := NewEngine(model.DefaultConfig().Rules, nil)
	in := Input{
		Evidence: append(scenarioAEvidence(), &model.EvidenceItem{
			ID: "7", Title: "Segfault on shutdown", State: model.StateOpen, AgeDays: 3,
		}),
		Churn: &model.ChurnMetric{Commits: 42, WindowDays: 90},
	}

	first, err := engine.Evaluate(in)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := engine.Evaluate(in)
		if err != nil {
			t.Fatalf("Evaluate failed: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("Evaluation is not deterministic:\n%+v\n%+v", first, again)
		}
	}
}

func TestEngine_Evaluate_EachRuleOnce(t *testing.T) {
	engine := NewEngine(model.DefaultConfig().Rules, nil)

	// Three zombie, silent issues still count each rule once
	var evidence []*model.EvidenceItem
	for _, id := range []string{"1", "2", "3"} {
		evidence = append(evidence, &model.EvidenceItem{
			ID: id, Title: "Deadlock in acquire", State: model.StateOpen, AgeDays: 200,
		})
	}

	floor, err := engine.Evaluate(Input{Evidence: evidence})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if floor.Penalty != 50 {
		t.Errorf("Expected 50, got %d", floor.Penalty)
	}
	if got := floor.Triggers[0].EvidenceIDs; !reflect.DeepEqual(got, []string{"1", "2", "3"}) {
		t.Errorf("Expected every matching id in input order, got %v", got)
	}
}

func TestEngine_Evaluate_Cap(t *testing.T) {
	rules := model.DefaultConfig().Rules
	rules.FloorCap = 60

	floor, err := NewEngine(rules, nil).Evaluate(Input{
		Evidence: scenarioAEvidence(),
		Churn:    &model.ChurnMetric{Commits: 100, WindowDays: 90},
	})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if floor.Penalty != 60 {
		t.Errorf("Expected capped floor 60, got %d", floor.Penalty)
	}
	if len(floor.Triggers) != 3 {
		t.Errorf("Expected all 3 triggers recorded, got %d", len(floor.Triggers))
	}
}

func TestEngine_Evaluate_RejectsPullRequests(t *testing.T) {
	engine := NewEngine(model.DefaultConfig().Rules, nil)

	_, err := engine.Evaluate(Input{Evidence: []*model.EvidenceItem{
		{ID: "9", Title: "Fix deadlock", State: model.StateOpen, AgeDays: 90, IsPullRequest: true},
	}})
	if !errors.Is(err, ErrPullRequestEvidence) {
		t.Fatalf("Expected ErrPullRequestEvidence, got %v", err)
	}
}

func TestZombieBug_BoundaryAndState(t *testing.T) {
	rule := ZombieBug{AgeDays: 60, Penalty: 30}

	tests := []struct {
		name  string
		item  model.EvidenceItem
		fires bool
	}{
		{"exactly threshold", model.EvidenceItem{ID: "1", State: model.StateOpen, AgeDays: 60}, false},
		{"past threshold", model.EvidenceItem{ID: "1", State: model.StateOpen, AgeDays: 61}, true},
		{"closed and old", model.EvidenceItem{ID: "1", State: model.StateClosed, AgeDays: 400}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := tt.item
			got := rule.Evaluate(Input{Evidence: []*model.EvidenceItem{&item}}) != nil
			if got != tt.fires {
				t.Errorf("Expected fires=%v, got %v", tt.fires, got)
			}
		})
	}
}

func TestSilentFailure_KeywordForms(t *testing.T) {
	rule := SilentFailure{Keywords: model.DefaultConfig().Rules.SilentFailureKeywords, Penalty: 20}

	tests := []struct {
		title string
		fires bool
	}{
		{"Worker hangs after reconnect", true},
		{"Process freezes on Windows", true},
		{"Errors are silently swallowed", true},
		{"Infinite loop in parser", true},
		{"Change default timeout", false},
		{"Crash on startup", false},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			got := rule.Evaluate(Input{Evidence: []*model.EvidenceItem{{ID: "1", Title: tt.title}}}) != nil
			if got != tt.fires {
				t.Errorf("Expected fires=%v for %q", tt.fires, tt.title)
			}
		})
	}
}

func TestLoudFailure_SkipsSilentItems(t *testing.T) {
	cfg := model.DefaultConfig().Rules
	rule := LoudFailure{Keywords: cfg.CrashKeywords, SilentKeywords: cfg.SilentFailureKeywords, Penalty: 10}

	trigger := rule.Evaluate(Input{Evidence: []*model.EvidenceItem{
		{ID: "1", Title: "Panic then hang on shutdown"},
		{ID: "2", Title: "Segfault when closing"},
	}})
	if trigger == nil {
		t.Fatal("Expected loud failure to fire")
	}
	if !reflect.DeepEqual(trigger.EvidenceIDs, []string{"2"}) {
		t.Errorf("Expected only item 2, got %v", trigger.EvidenceIDs)
	}
}

func TestChurnVelocity(t *testing.T) {
	rule := ChurnVelocity{Threshold: 20, Penalty: 15}

	if rule.Evaluate(Input{}) != nil {
		t.Error("Expected no trigger without churn metric")
	}
	if rule.Evaluate(Input{Churn: &model.ChurnMetric{Commits: 20}}) != nil {
		t.Error("Expected no trigger at the threshold")
	}
	trigger := rule.Evaluate(Input{Churn: &model.ChurnMetric{Commits: 21, WindowDays: 90}})
	if trigger == nil || trigger.PenaltyDelta != 15 {
		t.Errorf("Expected +15 trigger, got %+v", trigger)
	}
}
