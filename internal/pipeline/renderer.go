package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/realitycheck/internal/model"
	"github.com/ppiankov/realitycheck/internal/util"
)

// Renderer writes reports as JSON and Markdown and prints terminal summaries
type Renderer struct {
	includeFooter bool
	out           io.Writer
}

// NewRenderer creates a renderer that prints summaries to stdout
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter, out: os.Stdout}
}

// RenderJSON writes the report atomically: readers see the old file or the
// complete new one, never a partial write
func (r *Renderer) RenderJSON(rep *model.Report, path string) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return util.WriteFileAtomic(path, append(data, '\n'))
}

// RenderMarkdown writes a human-readable report
func (r *Renderer) RenderMarkdown(rep *model.Report, path string) error {
	return util.WriteFileAtomic(path, []byte(r.Markdown(rep)))
}

var verdictIcon = map[model.Verdict]string{
	model.VerdictContradicted: "❌",
	model.VerdictUnproven:     "⚠️",
	model.VerdictSupported:    "✅",
}

// Markdown renders the report as Markdown
func (r *Renderer) Markdown(rep *model.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Reality Check: %s\n\n", rep.Repo)
	b.WriteString("| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Use case | %s |\n", escapeCell(rep.UseCase))
	fmt.Fprintf(&b, "| README revision | `%s` |\n", rep.RepoSHA)
	fmt.Fprintf(&b, "| Issues analysed | %d |\n", rep.IssuesAnalyzed)
	fmt.Fprintf(&b, "| Run | `%s` |\n", rep.RunID)
	fmt.Fprintf(&b, "| Generated | %s |\n\n", rep.Timestamp.Format("2006-01-02 15:04:05 UTC"))

	fmt.Fprintf(&b, "## Overall penalty: %d/100\n\n", rep.OverallScore.Value)
	fmt.Fprintf(&b, "Aggregation `%s`: `%s`\n\n", rep.OverallScore.Method, rep.OverallScore.Formula)
	fmt.Fprintf(&b, "- Contradicted: %d\n- Unproven: %d\n- Supported: %d\n\n",
		rep.Summary.Contradicted, rep.Summary.Unproven, rep.Summary.Supported)

	if len(rep.Judgments) == 0 {
		b.WriteString("No falsifiable claims were found in the documentation.\n")
	}

	for i, j := range rep.Judgments {
		fmt.Fprintf(&b, "## %d. %s %s\n\n", i+1, verdictIcon[j.Verdict], j.Claim.Text)
		fmt.Fprintf(&b, "> %s\n\n", j.Claim.Quote)
		fmt.Fprintf(&b, "- Category: %s\n", j.Claim.Category)
		fmt.Fprintf(&b, "- Tone: %s\n", j.Claim.Tone)
		fmt.Fprintf(&b, "- Section: %s\n", j.Claim.SourceSection)
		fmt.Fprintf(&b, "- Verdict: **%s** (%s confidence)\n", j.Verdict, j.Confidence)
		fmt.Fprintf(&b, "- Penalty: **%d** (floor %d)\n", j.FinalPenalty, j.FloorPenalty)
		if j.EvaluationFailed {
			b.WriteString("- Semantic evaluation failed; the penalty is the rule floor\n")
		}
		b.WriteString("\n")

		if len(j.Claim.ImpliedCommitments) > 0 {
			b.WriteString("**Implied commitments**\n\n")
			for _, c := range j.Claim.ImpliedCommitments {
				fmt.Fprintf(&b, "- %s\n", c)
			}
			b.WriteString("\n")
		}

		if len(j.TriggeredRules) > 0 {
			b.WriteString("| Rule | Penalty | Evidence | Description |\n|---|---|---|---|\n")
			for _, t := range j.TriggeredRules {
				fmt.Fprintf(&b, "| `%s` | +%d | %s | %s |\n",
					t.RuleID, t.PenaltyDelta, refs(t.EvidenceIDs), escapeCell(t.Description))
			}
			b.WriteString("\n")
		}

		fmt.Fprintf(&b, "**Reasoning:** %s\n\n", j.Reasoning)

		if len(j.MatchedEvidence) > 0 {
			b.WriteString("**Matched issues**\n\n")
			for _, e := range j.MatchedEvidence {
				title := e.Title
				if e.URL != "" {
					title = fmt.Sprintf("[%s](%s)", e.Title, e.URL)
				}
				fmt.Fprintf(&b, "- %s %s (%s, %d days)\n", e.Ref(), title, e.State, e.AgeDays)
			}
			b.WriteString("\n")
		}
	}

	if r.includeFooter {
		fmt.Fprintf(&b, "---\n\n*Generated by realitycheck %s. Verdicts describe documentation against reported issues for the stated use case; they are not benchmarks.*\n", rep.ToolVersion)
	}

	return b.String()
}

func refs(ids []string) string {
	if len(ids) == 0 {
		return "-"
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = "#" + id
	}
	return strings.Join(out, ", ")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

// RenderSummary prints a short verdict table to the terminal
func (r *Renderer) RenderSummary(rep *model.Report) {
	fmt.Fprintf(r.out, "\n%s (%s)\n", rep.Repo, rep.UseCase)
	fmt.Fprintf(r.out, "Overall penalty: %d/100 [%s]\n", rep.OverallScore.Value, rep.OverallScore.Method)
	fmt.Fprintf(r.out, "Contradicted: %d  Unproven: %d  Supported: %d\n\n",
		rep.Summary.Contradicted, rep.Summary.Unproven, rep.Summary.Supported)

	for _, j := range rep.Judgments {
		fmt.Fprintf(r.out, "  %-13s %3d  %s\n", strings.ToUpper(j.Verdict.String()), j.FinalPenalty, util.Ellipsize(j.Claim.Text, 70))
	}
	fmt.Fprintln(r.out)
}
