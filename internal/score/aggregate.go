package score

import (
	"fmt"
	"math"
	"strings"

	"github.com/ppiankov/realitycheck/internal/model"
)

// Aggregation method names accepted in configuration
const (
	AggregateMax              = "max"
	AggregateToneWeightedMean = "tone_weighted_mean"
)

// Aggregator folds per-claim penalties into one repository score
type Aggregator interface {
	Name() string
	Formula() string
	Aggregate(judgments []model.JudgmentResult) int
}

// NewAggregator returns the aggregator for a configured method name
func NewAggregator(method string) (Aggregator, error) {
	switch strings.ToLower(strings.TrimSpace(method)) {
	case "", AggregateMax:
		return MaxAggregator{}, nil
	case AggregateToneWeightedMean, "weighted_mean", "mean":
		return ToneWeightedMean{}, nil
	default:
		return nil, fmt.Errorf("unknown aggregation %q (supported: %s, %s)", method, AggregateMax, AggregateToneWeightedMean)
	}
}

// MaxAggregator reports the worst claim: one contradicted promise is enough
// to fail a dependency review
type MaxAggregator struct{}

func (MaxAggregator) Name() string    { return AggregateMax }
func (MaxAggregator) Formula() string { return "max(penalty_score)" }

func (MaxAggregator) Aggregate(judgments []model.JudgmentResult) int {
	overall := 0
	for _, j := range judgments {
		if j.FinalPenalty > overall {
			overall = j.FinalPenalty
		}
	}
	return overall
}

// ToneWeightedMean weighs each claim by how strongly it was stated
type ToneWeightedMean struct{}

func (ToneWeightedMean) Name() string { return AggregateToneWeightedMean }
func (ToneWeightedMean) Formula() string {
	return "sum(penalty_score * w) / sum(w), w = assertive 3, suggestive 2, aspirational 1"
}

func (ToneWeightedMean) Aggregate(judgments []model.JudgmentResult) int {
	var sum, weights float64
	for _, j := range judgments {
		w := float64(j.Claim.Tone.Strength())
		if w <= 0 {
			w = 1
		}
		sum += float64(j.FinalPenalty) * w
		weights += w
	}
	if weights == 0 {
		return 0
	}
	return int(math.Round(sum / weights))
}
