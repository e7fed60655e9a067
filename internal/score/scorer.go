// Package score computes the deterministic penalty floor of a claim.
// The floor is a pure function of the matched evidence and the supplied
// churn metric: no clocks, no randomness, no network.
package score

import (
	"errors"
	"fmt"

	"github.com/ppiankov/realitycheck/internal/model"
	"go.uber.org/zap"
)

// ErrPullRequestEvidence is returned when a pull request reaches the engine
var ErrPullRequestEvidence = errors.New("pull request in rule engine input")

// Input is everything a rule may look at
type Input struct {
	Claim    model.Claim
	Evidence []*model.EvidenceItem
	Churn    *model.ChurnMetric
}

// Rule is one deterministic penalty rule
type Rule interface {
	// ID returns the stable rule identifier used in reports
	ID() string

	// Evaluate returns a trigger when the rule fires, nil otherwise
	Evaluate(in Input) *model.RuleTrigger
}

// Engine evaluates rules in a fixed order and sums their penalties
type Engine struct {
	rules    []Rule
	floorCap int
	logger   *zap.Logger
}

// NewEngine creates an engine with the default rule set
func NewEngine(cfg model.RulesConfig, logger *zap.Logger) *Engine {
	return NewEngineWithRules(cfg.FloorCap, DefaultRules(cfg), logger)
}

// NewEngineWithRules creates an engine with an explicit rule set
func NewEngineWithRules(floorCap int, rules []Rule, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if floorCap <= 0 || floorCap > model.MaxPenalty {
		floorCap = model.MaxPenalty
	}
	return &Engine{
		rules:    rules,
		floorCap: floorCap,
		logger:   logger,
	}
}

// Rules returns the rule set in evaluation order
func (e *Engine) Rules() []Rule {
	return e.rules
}

// Evaluate computes the floor for one claim. Each rule contributes at most
// once; the sum is capped at the configured floor cap.
func (e *Engine) Evaluate(in Input) (model.Floor, error) {
	for _, item := range in.Evidence {
		if item.IsPullRequest {
			return model.Floor{}, fmt.Errorf("%w: #%s", ErrPullRequestEvidence, item.ID)
		}
	}

	floor := model.Floor{Triggers: []model.RuleTrigger{}}
	sum := 0
	for _, rule := range e.rules {
		trigger := rule.Evaluate(in)
		if trigger == nil {
			continue
		}
		if trigger.PenaltyDelta < 0 {
			trigger.PenaltyDelta = 0
		}
		sum += trigger.PenaltyDelta
		floor.Triggers = append(floor.Triggers, *trigger)

		e.logger.Debug("rule triggered",
			zap.String("rule", trigger.RuleID),
			zap.Int("delta", trigger.PenaltyDelta),
			zap.Strings("evidence", trigger.EvidenceIDs),
			zap.String("claim", in.Claim.Text))
	}

	floor.Penalty = sum
	if floor.Penalty > e.floorCap {
		floor.Penalty = e.floorCap
	}
	return floor, nil
}
