package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/ppiankov/realitycheck/internal/logging"
	"github.com/ppiankov/realitycheck/internal/model"
	"github.com/ppiankov/realitycheck/internal/pipeline"
	"github.com/ppiankov/realitycheck/internal/source"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	useCase      string
	outJSON      string
	outMD        string
	snapshotPath string
	saveSnapshot string
	timeout      time.Duration
	noCache      bool
	noFooter     bool
	httpProxy    string
	httpsProxy   string
	maxIssues    int
	labels       []string
	corePaths    []string
	closed       bool
	llmProvider  string
	llmModel     string
	llmExtract   bool
	aggregation  string
)

// auditCmd represents the audit command
var auditCmd = &cobra.Command{
	Use:   "audit <repo>",
	Short: "Audit one repository's README claims against its issues",
	Long: `Audit fetches a repository's README and recent issues and:
- Extracts falsifiable claims (performance, concurrency, reliability, ...)
- Matches non-PR issues to each claim's category
- Applies the deterministic rules (zombie issues, silent failures, crashes, churn)
- Asks the semantic judge whether the evidence contradicts the claim for your use case
- Writes a JSON and/or Markdown report and prints a verdict table

The repository may be given as owner/name or as a GitHub URL.

Example:
  realitycheck audit acme/fastpool --use-case "500+ concurrent medical users"
  realitycheck audit https://github.com/acme/fastpool --use-case "CLI tool" --json report.json --md report.md
  realitycheck audit acme/fastpool --use-case "chatbot" --llm-provider openai --llm-model gpt-4o-mini
  realitycheck audit acme/fastpool --use-case "chatbot" --save-snapshot evidence.json
  realitycheck audit acme/fastpool --use-case "chatbot" --snapshot evidence.json`,
	Args: cobra.ExactArgs(1),
	RunE: runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	addSharedFlags(auditCmd)

	// Output flags
	auditCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (optional)")
	auditCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")

	// Evidence flags
	auditCmd.Flags().StringVar(&snapshotPath, "snapshot", "", "analyse a saved evidence snapshot instead of calling GitHub")
	auditCmd.Flags().StringVar(&saveSnapshot, "save-snapshot", "", "write the collected evidence to this path (.json or .yaml)")
	auditCmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "overall audit timeout")

	// a verdict is meaningless without the context it was judged under
	_ = auditCmd.MarkFlagRequired("use-case")
}

// addSharedFlags registers the flags audit and batch have in common
func addSharedFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&useCase, "use-case", "", "production context the claims are judged against")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the judgment cache")
	cmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	cmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	cmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")

	// Evidence flags
	cmd.Flags().IntVar(&maxIssues, "max-issues", 0, "maximum number of issues to analyse")
	cmd.Flags().StringSliceVar(&labels, "labels", nil, "only fetch issues with these labels")
	cmd.Flags().StringSliceVar(&corePaths, "core-paths", nil, "paths whose commit churn feeds the churn rule")
	cmd.Flags().BoolVar(&closed, "include-closed", false, "include closed issues")

	// Judge flags
	cmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider for the semantic judge (openai, anthropic, ollama)")
	cmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
	cmd.Flags().BoolVar(&llmExtract, "llm-extract", false, "also use the LLM to extract claims")
	cmd.Flags().StringVar(&aggregation, "aggregation", "", "overall score aggregation (max, tone_weighted_mean)")
}

// applyFlags overrides configuration with the flags the user actually set
func applyFlags(cmd *cobra.Command, cfg *model.Config) {
	flags := cmd.Flags()
	if flags.Changed("no-cache") {
		cfg.Cache.Enabled = !noCache
	}
	if flags.Changed("no-footer") {
		cfg.Output.IncludeFooter = !noFooter
	}
	if flags.Changed("http-proxy") {
		cfg.GitHub.HTTPProxy = httpProxy
	}
	if flags.Changed("https-proxy") {
		cfg.GitHub.HTTPSProxy = httpsProxy
	}
	if flags.Changed("max-issues") {
		cfg.GitHub.MaxIssues = maxIssues
	}
	if flags.Changed("labels") {
		cfg.GitHub.Labels = labels
	}
	if flags.Changed("core-paths") {
		cfg.GitHub.CorePaths = corePaths
	}
	if flags.Changed("include-closed") {
		cfg.GitHub.IncludeClosed = closed
	}
	if flags.Changed("llm-provider") {
		cfg.LLM.Provider = llmProvider
	}
	if flags.Changed("llm-model") {
		cfg.LLM.Model = llmModel
	}
	if flags.Changed("llm-extract") {
		cfg.LLM.ExtractClaims = llmExtract
	}
	if flags.Changed("aggregation") {
		cfg.Report.Aggregation = aggregation
	}
	cfg.Output.Verbose = verbose
}

// prepare loads configuration, applies flags and builds the logger
func prepare(cmd *cobra.Command) (*model.Config, *zap.Logger, error) {
	cfg, err := loadConfig(viper.GetViper(), os.Getenv)
	if err != nil {
		return nil, nil, err
	}
	applyFlags(cmd, cfg)
	applyEnv(cfg, os.Getenv)
	if err := checkCredentials(cfg); err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(cfg.Output.Verbose)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, logger, nil
}

func runAudit(cmd *cobra.Command, args []string) error {
	repo := args[0]

	cfg, logger, err := prepare(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Auditing: %s\n", repo)
		fmt.Fprintf(os.Stderr, "Use case: %s\n", useCase)
		fmt.Fprintf(os.Stderr, "Timeout:  %v\n", timeout)
		fmt.Fprintln(os.Stderr)
	}

	src, err := newSource(ctx, cfg, snapshotPath, logger)
	if err != nil {
		return err
	}

	p, err := pipeline.NewFromConfig(cfg, src, logger)
	if err != nil {
		return err
	}
	if err := p.Preflight(ctx); err != nil {
		return err
	}

	snapshot, err := p.Collect(ctx, repo)
	if err != nil {
		return fmt.Errorf("audit failed: %w", err)
	}

	if saveSnapshot != "" {
		if err := source.SaveSnapshot(saveSnapshot, snapshot); err != nil {
			return err
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Saved evidence snapshot to %s\n", saveSnapshot)
		}
	}

	rep, err := p.Run(ctx, snapshot, useCase)
	if err != nil {
		return fmt.Errorf("audit failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Judged %d claims with %s\n", len(rep.Judgments), p.JudgeName())
		fmt.Fprintf(os.Stderr, "✓ Analysed %d issues\n", rep.IssuesAnalyzed)
		fmt.Fprintln(os.Stderr)
	}

	if err := p.RenderReport(rep, outJSON, outMD); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	return nil
}

// newSource returns the snapshot at path when one is given, otherwise the
// GitHub API
func newSource(ctx context.Context, cfg *model.Config, path string, logger *zap.Logger) (source.Source, error) {
	if path != "" {
		src, err := source.OpenSnapshotSource(path)
		if err != nil {
			return nil, err
		}
		return src, nil
	}

	src, err := source.NewGitHubSource(ctx, cfg.GitHub, logger)
	if err != nil {
		return nil, fmt.Errorf("create GitHub client: %w", err)
	}
	return src, nil
}
