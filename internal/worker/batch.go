package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/realitycheck/internal/model"
	"go.uber.org/zap"
)

// Auditor runs one complete audit of a repository for a use case
type Auditor interface {
	Audit(ctx context.Context, repo, useCase string) (*model.Report, error)
}

// Target is one repository to audit, with its deployment use case
type Target struct {
	Repo    string
	UseCase string
}

// AuditJob represents a repository audit job
type AuditJob struct {
	Index   int
	Target  Target
	Auditor Auditor
}

// Execute executes the audit job
func (j *AuditJob) Execute(ctx context.Context) Result {
	report, err := j.Auditor.Audit(ctx, j.Target.Repo, j.Target.UseCase)
	return &AuditResult{
		Index:  j.Index,
		Target: j.Target,
		Report: report,
		Error:  err,
	}
}

// AuditResult represents the result of an audit job
type AuditResult struct {
	Index  int
	Target Target
	Report *model.Report
	Error  error
}

// GetError returns the error from the audit result
func (r *AuditResult) GetError() error {
	return r.Error
}

// BatchProcessor audits multiple repositories concurrently
type BatchProcessor struct {
	auditor     Auditor
	concurrency int
	logger      *zap.Logger
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(auditor Auditor, concurrency int, logger *zap.Logger) *BatchProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchProcessor{
		auditor:     auditor,
		concurrency: concurrency,
		logger:      logger,
	}
}

// ProcessTargets audits every target and returns results in input order.
// One failing repository never aborts the others.
func (b *BatchProcessor) ProcessTargets(ctx context.Context, targets []Target) []*AuditResult {
	if len(targets) == 0 {
		return []*AuditResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, target := range targets {
		job := &AuditJob{
			Index:   i,
			Target:  target,
			Auditor: b.auditor,
		}
		if err := pool.Submit(job); err != nil {
			b.logger.Warn("batch stopped submitting", zap.String("repo", target.Repo), zap.Error(err))
			break
		}
	}

	results := pool.Wait()

	auditResults := make([]*AuditResult, 0, len(results))
	for _, result := range results {
		r := result.(*AuditResult)
		if r.Error != nil {
			b.logger.Warn("audit failed", zap.String("repo", r.Target.Repo), zap.Error(r.Error))
		}
		auditResults = append(auditResults, r)
	}
	sort.Slice(auditResults, func(i, j int) bool {
		return auditResults[i].Index < auditResults[j].Index
	})

	return auditResults
}

// ProcessFile reads targets from a file and audits them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath, defaultUseCase string) ([]*AuditResult, error) {
	targets, err := ReadTargetsFromFile(filePath, defaultUseCase)
	if err != nil {
		return nil, fmt.Errorf("read targets: %w", err)
	}

	return b.ProcessTargets(ctx, targets), nil
}

// ReadTargetsFromFile reads one target per line: a repository, optionally
// followed by whitespace and a use case that overrides defaultUseCase.
// Blank lines and lines starting with "#" are skipped; repeats are dropped.
func ReadTargetsFromFile(filePath, defaultUseCase string) ([]Target, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var targets []Target
	seen := make(map[Target]bool)

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		target := Target{UseCase: defaultUseCase}
		fields := strings.Fields(line)
		target.Repo = fields[0]
		if len(fields) > 1 {
			target.UseCase = strings.TrimSpace(strings.TrimPrefix(line, fields[0]))
		}

		ref, err := model.ParseRepo(target.Repo)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		target.Repo = ref.String()

		if !seen[target] {
			seen[target] = true
			targets = append(targets, target)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return targets, nil
}
