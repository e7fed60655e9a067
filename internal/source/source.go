// Package source acquires the evidence snapshot a run audits: README text
// and non-pull-request issues, plus optional file churn.
package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ppiankov/realitycheck/internal/model"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrNoEvidence is returned when issue acquisition failed and nothing was obtained
var ErrNoEvidence = errors.New("no evidence could be obtained")

// Source is an evidence collaborator
type Source interface {
	// FetchDocumentation returns the README text tied to a revision
	FetchDocumentation(ctx context.Context, repo string) (model.Documentation, error)

	// FetchIssues returns non-pull-request issues. On failure it may return
	// the items obtained so far together with the error.
	FetchIssues(ctx context.Context, repo string, filter IssueFilter) ([]model.EvidenceItem, error)

	// FetchChurn counts commits touching core files; nil when not configured
	FetchChurn(ctx context.Context, repo string) (*model.ChurnMetric, error)
}

// IssueFilter narrows which issues become evidence. Pull requests are
// always excluded.
type IssueFilter struct {
	MaxIssues      int
	PerPage        int
	Labels         []string
	ActivityWindow time.Duration
	IncludeClosed  bool
}

// IssueFilterFromModel builds a filter from the GitHub configuration section
func IssueFilterFromModel(cfg model.GitHubConfig) IssueFilter {
	return IssueFilter{
		MaxIssues:      cfg.MaxIssues,
		PerPage:        cfg.PerPage,
		Labels:         cfg.Labels,
		ActivityWindow: cfg.ActivityWindow,
		IncludeClosed:  cfg.IncludeClosed,
	}
}

// Collect fetches documentation, issues and churn concurrently and freezes
// them into one snapshot. A documentation failure aborts the run. An issue
// failure aborts only when no issue was obtained; otherwise the partial set
// is used. Churn failures are logged and ignored.
func Collect(ctx context.Context, src Source, repo string, filter IssueFilter, logger *zap.Logger) (*model.EvidenceSnapshot, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		doc      model.Documentation
		issues   []model.EvidenceItem
		issueErr error
		churn    *model.ChurnMetric
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		doc, err = src.FetchDocumentation(gctx, repo)
		if err != nil {
			return fmt.Errorf("fetch documentation for %s: %w", repo, err)
		}
		return nil
	})

	g.Go(func() error {
		issues, issueErr = src.FetchIssues(gctx, repo, filter)
		return nil
	})

	g.Go(func() error {
		c, err := src.FetchChurn(gctx, repo)
		if err != nil {
			logger.Warn("churn unavailable", zap.String("repo", repo), zap.Error(err))
			return nil
		}
		churn = c
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if issueErr != nil {
		if len(issues) == 0 {
			return nil, fmt.Errorf("%w for %s: %v", ErrNoEvidence, repo, issueErr)
		}
		logger.Warn("using partial evidence",
			zap.String("repo", repo),
			zap.Int("issues", len(issues)),
			zap.Error(issueErr))
	}

	return &model.EvidenceSnapshot{
		Repo:          repo,
		Documentation: doc,
		Issues:        issues,
		Churn:         churn,
		FetchedAt:     time.Now().UTC(),
	}, nil
}
