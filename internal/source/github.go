package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/ppiankov/realitycheck/internal/extract"
	"github.com/ppiankov/realitycheck/internal/model"
	"github.com/ppiankov/realitycheck/internal/util"
	"github.com/ppiankov/realitycheck/internal/worker"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const maxPerPage = 100

// GitHubSource reads README, issues and commits from the GitHub REST API
type GitHubSource struct {
	client     *github.Client
	corePaths  []string
	churnDays  int
	excerptLen int
	now        func() time.Time
	logger     *zap.Logger
}

// NewGitHubSource creates a GitHub collaborator. Every request passes the
// per-host limiter; a token, when set, is attached through oauth2.
func NewGitHubSource(ctx context.Context, cfg model.GitHubConfig, logger *zap.Logger) (*GitHubSource, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	base := util.NewHTTPClient(cfg.HTTPProxy, cfg.HTTPSProxy, "")
	limiter := worker.NewLimiter(cfg.RequestsPerSecond, cfg.Burst)
	httpClient := &http.Client{
		Transport: limiter.Transport(base.Transport),
		Timeout:   cfg.Timeout,
	}

	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		httpClient = oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, httpClient), ts)
		httpClient.Timeout = cfg.Timeout
	}

	client := github.NewClient(httpClient)
	if cfg.BaseURL != "" {
		baseURL, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parse GitHub base URL: %w", err)
		}
		client.BaseURL = baseURL
	}

	excerpt := cfg.BodyExcerptChars
	if excerpt <= 0 {
		excerpt = 1000
	}

	return &GitHubSource{
		client:     client,
		corePaths:  cfg.CorePaths,
		churnDays:  cfg.ChurnWindowDays,
		excerptLen: excerpt,
		now:        time.Now,
		logger:     logger,
	}, nil
}

// FetchDocumentation downloads and decodes the README. The revision is the
// README blob sha, which changes whenever the documentation does.
func (s *GitHubSource) FetchDocumentation(ctx context.Context, repo string) (model.Documentation, error) {
	ref, err := model.ParseRepo(repo)
	if err != nil {
		return model.Documentation{}, err
	}

	readme, _, err := s.client.Repositories.GetReadme(ctx, ref.Owner, ref.Name, nil)
	if err != nil {
		return model.Documentation{}, fmt.Errorf("get README: %w", err)
	}

	text, err := readme.GetContent()
	if err != nil {
		return model.Documentation{}, fmt.Errorf("decode README: %w", err)
	}

	s.logger.Debug("fetched README",
		zap.String("repo", ref.String()),
		zap.String("sha", readme.GetSHA()),
		zap.Int("bytes", len(text)))

	return model.Documentation{
		Text:     text,
		Revision: readme.GetSHA(),
		Sections: extract.SplitSections(text),
	}, nil
}

// FetchIssues pages through issues newest first, dropping pull requests.
// Paging stops at MaxIssues, at the last page, or as soon as GitHub reports
// the rate limit exhausted.
func (s *GitHubSource) FetchIssues(ctx context.Context, repo string, filter IssueFilter) ([]model.EvidenceItem, error) {
	ref, err := model.ParseRepo(repo)
	if err != nil {
		return nil, err
	}

	perPage := filter.PerPage
	if perPage <= 0 || perPage > maxPerPage {
		perPage = maxPerPage
	}
	state := "open"
	if filter.IncludeClosed {
		state = "all"
	}

	opts := &github.IssueListByRepoOptions{
		State:       state,
		Labels:      filter.Labels,
		Sort:        "created",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: perPage},
	}
	if filter.ActivityWindow > 0 {
		opts.Since = s.now().Add(-filter.ActivityWindow)
	}

	var items []model.EvidenceItem
	page := 0
	for {
		page++
		issues, resp, err := s.client.Issues.ListByRepo(ctx, ref.Owner, ref.Name, opts)
		if err != nil {
			return items, fmt.Errorf("list issues page %d: %w", page, err)
		}

		for _, issue := range issues {
			if issue.IsPullRequest() {
				continue
			}
			items = append(items, s.normalize(issue))
			if filter.MaxIssues > 0 && len(items) >= filter.MaxIssues {
				return items, nil
			}
		}

		s.logger.Debug("fetched issue page",
			zap.String("repo", ref.String()),
			zap.Int("page", page),
			zap.Int("total", len(items)))

		if resp.Rate.Limit > 0 && resp.Rate.Remaining == 0 {
			s.logger.Warn("GitHub rate limit reached, stopping issue fetch",
				zap.String("repo", ref.String()),
				zap.Time("reset", resp.Rate.Reset.Time))
			return items, nil
		}
		if resp.NextPage == 0 {
			return items, nil
		}
		opts.Page = resp.NextPage
	}
}

func (s *GitHubSource) normalize(issue *github.Issue) model.EvidenceItem {
	labels := make([]string, 0, len(issue.Labels))
	for _, l := range issue.Labels {
		labels = append(labels, l.GetName())
	}

	age := 0
	if created := issue.GetCreatedAt(); !created.Time.IsZero() {
		age = int(s.now().Sub(created.Time).Hours() / 24)
	}

	state := model.StateOpen
	if issue.GetState() == "closed" {
		state = model.StateClosed
	}

	return model.EvidenceItem{
		ID:            strconv.Itoa(issue.GetNumber()),
		Number:        issue.GetNumber(),
		Title:         issue.GetTitle(),
		BodyExcerpt:   util.Truncate(issue.GetBody(), s.excerptLen),
		State:         state,
		AgeDays:       age,
		Labels:        labels,
		IsPullRequest: issue.IsPullRequest(),
		URL:           issue.GetHTMLURL(),
	}
}

// FetchChurn counts distinct commits touching any core path within the
// churn window. Without configured paths there is no metric.
func (s *GitHubSource) FetchChurn(ctx context.Context, repo string) (*model.ChurnMetric, error) {
	if len(s.corePaths) == 0 {
		return nil, nil
	}
	ref, err := model.ParseRepo(repo)
	if err != nil {
		return nil, err
	}

	window := s.churnDays
	if window <= 0 {
		window = 90
	}
	since := s.now().AddDate(0, 0, -window)

	seen := make(map[string]bool)
	for _, path := range s.corePaths {
		opts := &github.CommitsListOptions{
			Path:        path,
			Since:       since,
			ListOptions: github.ListOptions{PerPage: maxPerPage},
		}
		for {
			commits, resp, err := s.client.Repositories.ListCommits(ctx, ref.Owner, ref.Name, opts)
			if err != nil {
				return nil, fmt.Errorf("list commits for %s: %w", path, err)
			}
			for _, c := range commits {
				seen[c.GetSHA()] = true
			}
			if resp.NextPage == 0 || (resp.Rate.Limit > 0 && resp.Rate.Remaining == 0) {
				break
			}
			opts.Page = resp.NextPage
		}
	}

	return &model.ChurnMetric{
		Paths:      append([]string(nil), s.corePaths...),
		Commits:    len(seen),
		WindowDays: window,
	}, nil
}
