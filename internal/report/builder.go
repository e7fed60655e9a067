// Package report assembles per-claim judgments into one immutable report.
package report

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/realitycheck/internal/model"
	"github.com/ppiankov/realitycheck/internal/score"
)

// ErrIncomplete is returned by Build when a claim has no judgment
var ErrIncomplete = errors.New("report incomplete")

// Metadata is the run context stamped onto the report
type Metadata struct {
	ToolVersion    string
	Repo           string
	RepoSHA        string
	UseCase        string
	IssuesAnalyzed int
}

// Builder collects exactly one judgment per claim and commits them as a
// report in one step. It is safe for concurrent Set calls.
type Builder struct {
	meta       Metadata
	aggregator score.Aggregator

	mu    sync.Mutex
	slots []*model.JudgmentResult
	built bool

	now   func() time.Time
	newID func() string
}

// NewBuilder creates a builder with one slot per claim
func NewBuilder(meta Metadata, claims int, aggregator score.Aggregator) *Builder {
	if aggregator == nil {
		aggregator = score.MaxAggregator{}
	}
	if claims < 0 {
		claims = 0
	}
	return &Builder{
		meta:       meta,
		aggregator: aggregator,
		slots:      make([]*model.JudgmentResult, claims),
		now:        time.Now,
		newID:      func() string { return uuid.New().String() },
	}
}

// Set records the judgment for the claim at index. Each slot accepts one
// judgment; a second one for the same claim is an error.
func (b *Builder) Set(index int, j model.JudgmentResult) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.built {
		return fmt.Errorf("report already built")
	}
	if index < 0 || index >= len(b.slots) {
		return fmt.Errorf("claim index %d out of range [0,%d)", index, len(b.slots))
	}
	if b.slots[index] != nil {
		return fmt.Errorf("claim %d already judged", index)
	}
	b.slots[index] = &j
	return nil
}

// Missing returns the indices of claims without a judgment
func (b *Builder) Missing() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.missing()
}

func (b *Builder) missing() []int {
	var out []int
	for i, s := range b.slots {
		if s == nil {
			out = append(out, i)
		}
	}
	return out
}

// Build commits the report. It fails without producing anything if ctx is
// done or any claim is still unjudged, so a partial report never escapes.
func (b *Builder) Build(ctx context.Context) (*model.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("build report: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if missing := b.missing(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %d of %d claims unjudged (first: %d)", ErrIncomplete, len(missing), len(b.slots), missing[0])
	}

	judgments := make([]model.JudgmentResult, len(b.slots))
	var summary model.VerdictSummary
	for i, s := range b.slots {
		judgments[i] = *s
		summary.Add(s.Verdict)
	}

	b.built = true

	return &model.Report{
		RunID:          b.newID(),
		ToolVersion:    b.meta.ToolVersion,
		Timestamp:      b.now().UTC(),
		Repo:           b.meta.Repo,
		RepoSHA:        b.meta.RepoSHA,
		UseCase:        b.meta.UseCase,
		IssuesAnalyzed: b.meta.IssuesAnalyzed,
		Judgments:      judgments,
		OverallScore: model.OverallScore{
			Value:   b.aggregator.Aggregate(judgments),
			Method:  b.aggregator.Name(),
			Formula: b.aggregator.Formula(),
		},
		Summary: summary,
	}, nil
}
