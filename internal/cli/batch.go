package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/realitycheck/internal/model"
	"github.com/ppiankov/realitycheck/internal/pipeline"
	"github.com/ppiankov/realitycheck/internal/source"
	"github.com/ppiankov/realitycheck/internal/worker"
	"github.com/spf13/cobra"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Audit multiple repositories from a file in parallel",
	Long: `Batch audits every repository listed in a file:
- One repository per line (owner/name or GitHub URL)
- An optional use case after the repository overrides --use-case for that line
- Lines starting with # are comments
- Repositories are audited in parallel; one failure never stops the others
- A JSON and a Markdown report is written per repository

Example:
  realitycheck batch repos.txt --use-case "long-running API service"
  realitycheck batch repos.txt --concurrency 4 --output-dir ./reports
  realitycheck batch repos.txt --llm-provider ollama --llm-model llama3.1:8b`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)
	addSharedFlags(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of repositories audited at once (default from config)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./realitycheck-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, logger, err := prepare(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if concurrency > 0 {
		cfg.Concurrency.BatchWorkers = concurrency
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Realitycheck Batch Audit\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.BatchWorkers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	if cfg.LLM.Provider != "" {
		fmt.Fprintf(os.Stderr, "  LLM:          %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	}
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	src, err := source.NewGitHubSource(ctx, cfg.GitHub, logger)
	if err != nil {
		return fmt.Errorf("create GitHub client: %w", err)
	}

	p, err := pipeline.NewFromConfig(cfg, src, logger)
	if err != nil {
		return err
	}
	if err := p.Preflight(ctx); err != nil {
		return err
	}

	processor := worker.NewBatchProcessor(p, cfg.Concurrency.BatchWorkers, logger)

	fmt.Fprintf(os.Stderr, "⚙️  Auditing repositories...\n\n")
	results, err := processor.ProcessFile(ctx, file, useCase)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	success, failures := writeBatchReports(results, outputDir, cfg)

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d repositories\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", success)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failures)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if failures > 0 {
		return fmt.Errorf("%d of %d audits failed", failures, len(results))
	}
	return nil
}

// writeBatchReports renders one JSON and one Markdown file per successful
// audit and returns the success and failure counts
func writeBatchReports(results []*worker.AuditResult, dir string, cfg *model.Config) (int, int) {
	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	success, failures := 0, 0

	for _, result := range results {
		if result.Error != nil {
			failures++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Target.Repo, result.Error)
			continue
		}

		slug := reportSlug(result.Report.Repo)
		jsonPath := filepath.Join(dir, slug+".json")
		mdPath := filepath.Join(dir, slug+".md")

		if err := renderer.RenderJSON(result.Report, jsonPath); err != nil {
			failures++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.Target.Repo, err)
			continue
		}
		if err := renderer.RenderMarkdown(result.Report, mdPath); err != nil {
			failures++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", result.Target.Repo, err)
			continue
		}

		success++
		fmt.Fprintf(os.Stderr, "✓ %s (penalty: %d/100, %d contradicted)\n",
			result.Report.Repo, result.Report.OverallScore.Value, result.Report.Summary.Contradicted)
	}
	return success, failures
}

// reportSlug turns owner/name into a file name
func reportSlug(repo string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "-",
	)
	s := replacer.Replace(repo)

	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "report"
	}
	return s
}
