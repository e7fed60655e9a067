// Package pipeline wires extraction, matching, the rule floor and the
// semantic judge into one audit run.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/ppiankov/realitycheck/internal/cache"
	"github.com/ppiankov/realitycheck/internal/extract"
	"github.com/ppiankov/realitycheck/internal/judge"
	"github.com/ppiankov/realitycheck/internal/llm"
	"github.com/ppiankov/realitycheck/internal/match"
	"github.com/ppiankov/realitycheck/internal/model"
	"github.com/ppiankov/realitycheck/internal/report"
	"github.com/ppiankov/realitycheck/internal/score"
	"github.com/ppiankov/realitycheck/internal/source"
	"github.com/ppiankov/realitycheck/internal/worker"
	"go.uber.org/zap"
)

// Pipeline orchestrates the complete audit process
type Pipeline struct {
	source     source.Source
	filter     source.IssueFilter
	extractor  extract.Extractor
	engine     *score.Engine
	stage      *judge.Stage
	aggregator score.Aggregator
	renderer   *Renderer
	provider   llm.Provider
	config     *model.Config
	logger     *zap.Logger
}

// Options overrides the collaborators a pipeline would otherwise build
// from configuration. Zero fields fall back to the heuristic defaults.
type Options struct {
	Source    source.Source
	Extractor extract.Extractor
	Judge     judge.Judge
	Logger    *zap.Logger
}

// New creates a pipeline from configuration and explicit collaborators
func New(cfg *model.Config, opts Options) (*Pipeline, error) {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	aggregator, err := score.NewAggregator(cfg.Report.Aggregation)
	if err != nil {
		return nil, err
	}

	extractor := opts.Extractor
	if extractor == nil {
		extractor = extract.NewHeuristicExtractor(logger)
	}
	j := opts.Judge
	if j == nil {
		j = judge.NewHeuristicJudge()
	}

	engine := score.NewEngine(cfg.Rules, logger)
	ruleIDs := make([]string, 0, len(engine.Rules()))
	for _, r := range engine.Rules() {
		ruleIDs = append(ruleIDs, r.ID())
	}
	logger.Debug("pipeline ready",
		zap.Strings("rules", ruleIDs),
		zap.String("judge", j.Name()),
		zap.String("aggregation", cfg.Report.Aggregation))

	return &Pipeline{
		source:     opts.Source,
		filter:     source.IssueFilterFromModel(cfg.GitHub),
		extractor:  extractor,
		engine:     engine,
		stage:      judge.NewStage(j, judge.DeltasFromModel(cfg.Judge), judge.RetryConfigFromModel(cfg.Judge), logger),
		aggregator: aggregator,
		renderer:   NewRenderer(cfg.Output.IncludeFooter),
		config:     cfg,
		logger:     logger,
	}, nil
}

// NewFromConfig builds the full production pipeline: the configured LLM
// provider (if any) as judge and optionally as extractor, the judgment
// cache, and src as evidence collaborator. Without a provider the
// heuristic judge is used.
func NewFromConfig(cfg *model.Config, src source.Source, logger *zap.Logger) (*Pipeline, error) {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := Options{Source: src, Logger: logger}

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM, cfg.GitHub.HTTPProxy, cfg.GitHub.HTTPSProxy), logger)
	if err != nil {
		return nil, fmt.Errorf("initialize LLM provider: %w", err)
	}

	if provider != nil {
		opts.Judge = judge.NewCachedJudge(
			judge.NewLLMJudge(provider, cfg.LLM.Model, cfg.LLM.MaxTokens),
			cache.New(cfg.Cache),
			cfg.Cache.DiskTTL,
			logger,
		)
		if cfg.LLM.ExtractClaims {
			opts.Extractor = extract.NewLLMExtractor(provider, cfg.LLM.MaxTokens, logger)
		}
		logger.Info("semantic judge enabled",
			zap.String("provider", provider.Name()),
			zap.String("model", cfg.LLM.Model),
			zap.Bool("llm_extraction", cfg.LLM.ExtractClaims))
	}

	p, err := New(cfg, opts)
	if err != nil {
		return nil, err
	}
	p.provider = provider
	return p, nil
}

// Preflight checks that the configured model provider answers before any
// evidence is collected. A heuristic-only pipeline always passes.
func (p *Pipeline) Preflight(ctx context.Context) error {
	if p.provider == nil {
		return nil
	}
	if !p.provider.IsAvailable(ctx) {
		return fmt.Errorf("LLM provider %s is not reachable", p.provider.Name())
	}
	return nil
}

// JudgeName returns the name of the semantic judge in use
func (p *Pipeline) JudgeName() string {
	return p.stage.JudgeName()
}

// Audit fetches an evidence snapshot for repo and runs the analysis on it
func (p *Pipeline) Audit(ctx context.Context, repo, useCase string) (*model.Report, error) {
	snapshot, err := p.Collect(ctx, repo)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, snapshot, useCase)
}

// Collect fetches and freezes the evidence for repo
func (p *Pipeline) Collect(ctx context.Context, repo string) (*model.EvidenceSnapshot, error) {
	if p.source == nil {
		return nil, errors.New("no evidence source configured")
	}
	ref, err := model.ParseRepo(repo)
	if err != nil {
		return nil, err
	}

	snapshot, err := source.Collect(ctx, p.source, ref.String(), p.filter, p.logger)
	if err != nil {
		return nil, fmt.Errorf("collect evidence: %w", err)
	}
	p.logger.Info("collected evidence",
		zap.String("repo", snapshot.Repo),
		zap.String("revision", snapshot.Documentation.Revision),
		zap.Int("issues", len(snapshot.Issues)))
	return snapshot, nil
}

// claimJob evaluates one claim: match, floor, judge
type claimJob struct {
	index    int
	claim    model.Claim
	matcher  *match.Matcher
	churn    *model.ChurnMetric
	useCase  string
	pipeline *Pipeline
}

// claimResult carries one claim's judgment back to the builder
type claimResult struct {
	index    int
	judgment model.JudgmentResult
	err      error
}

func (r *claimResult) GetError() error {
	return r.err
}

func (j *claimJob) Execute(ctx context.Context) worker.Result {
	evidence := j.matcher.Match(j.claim)

	floor, err := j.pipeline.engine.Evaluate(score.Input{
		Claim:    j.claim,
		Evidence: evidence,
		Churn:    j.churn,
	})
	if err != nil {
		return &claimResult{index: j.index, err: fmt.Errorf("claim %d: %w", j.index, err)}
	}

	judgment, err := j.pipeline.stage.Evaluate(ctx, j.claim, evidence, floor, j.useCase)
	if err != nil {
		return &claimResult{index: j.index, err: err}
	}
	return &claimResult{index: j.index, judgment: judgment}
}

// Run analyses a frozen snapshot. Claims are judged concurrently on a
// bounded worker pool; the report is committed only once every claim has a
// judgment. Cancellation returns an error and no report.
func (p *Pipeline) Run(ctx context.Context, snapshot *model.EvidenceSnapshot, useCase string) (*model.Report, error) {
	if snapshot == nil {
		return nil, errors.New("nil evidence snapshot")
	}

	claims, err := p.extractor.Extract(ctx, snapshot.Documentation)
	if err != nil {
		return nil, fmt.Errorf("extract claims: %w", err)
	}

	matcher := match.NewMatcher(snapshot)
	p.logger.Info("extracted claims",
		zap.String("repo", snapshot.Repo),
		zap.Int("claims", len(claims)),
		zap.Int("eligible_issues", matcher.Len()))

	builder := report.NewBuilder(report.Metadata{
		ToolVersion:    p.config.Report.ToolVersion,
		Repo:           snapshot.Repo,
		RepoSHA:        snapshot.Documentation.Revision,
		UseCase:        useCase,
		IssuesAnalyzed: matcher.Len(),
	}, len(claims), p.aggregator)

	pool := worker.NewPool(ctx, p.config.Concurrency.JudgeWorkers)
	pool.Start()

	for i, claim := range claims {
		err := pool.Submit(&claimJob{
			index:    i,
			claim:    claim,
			matcher:  matcher,
			churn:    snapshot.Churn,
			useCase:  useCase,
			pipeline: p,
		})
		if err != nil {
			break
		}
	}

	for _, result := range pool.Wait() {
		r := result.(*claimResult)
		if r.err != nil {
			if ctx.Err() == nil {
				return nil, r.err
			}
			continue
		}
		if err := builder.Set(r.index, r.judgment); err != nil {
			return nil, err
		}
	}

	rep, err := builder.Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("audit %s: %w", snapshot.Repo, err)
	}

	p.logger.Info("report built",
		zap.String("run_id", rep.RunID),
		zap.Int("overall", rep.OverallScore.Value),
		zap.Int("contradicted", rep.Summary.Contradicted),
		zap.Int("unproven", rep.Summary.Unproven),
		zap.Int("supported", rep.Summary.Supported))

	return rep, nil
}

// RenderReport renders the report to the specified outputs and prints the
// terminal summary
func (p *Pipeline) RenderReport(rep *model.Report, jsonPath, mdPath string) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(rep, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		p.logger.Info("wrote JSON report", zap.String("path", jsonPath))
	}

	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(rep, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		p.logger.Info("wrote Markdown report", zap.String("path", mdPath))
	}

	p.renderer.RenderSummary(rep)
	return nil
}
