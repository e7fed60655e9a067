package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ppiankov/realitycheck/internal/model"
	"github.com/ppiankov/realitycheck/internal/taxonomy"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Extractor turns documentation into validated claims
type Extractor interface {
	Extract(ctx context.Context, doc model.Documentation) ([]model.Claim, error)
}

// HeuristicExtractor extracts claims with the shared lexicons. It is a pure
// function of the documentation text and the taxonomy.
type HeuristicExtractor struct {
	targetKeywords []string
	logger         *zap.Logger
}

// NewHeuristicExtractor creates a new lexicon-based extractor
func NewHeuristicExtractor(logger *zap.Logger) *HeuristicExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HeuristicExtractor{
		targetKeywords: DefaultTargetKeywords,
		logger:         logger,
	}
}

// Extract extracts claims from the documentation. Empty or malformed input
// yields an empty claim set.
func (e *HeuristicExtractor) Extract(_ context.Context, doc model.Documentation) ([]model.Claim, error) {
	if strings.TrimSpace(doc.Text) == "" {
		return []model.Claim{}, nil
	}

	var candidates []Candidate
	for _, section := range e.sections(doc) {
		candidates = append(candidates, e.SectionCandidates(section)...)
	}

	return Finalize(candidates, doc.Text, e.logger), nil
}

func (e *HeuristicExtractor) sections(doc model.Documentation) []model.Section {
	sections := doc.Sections
	if len(sections) == 0 {
		sections = SplitSections(doc.Text)
	}
	return TargetSections(sections, e.targetKeywords)
}

// SectionCandidates returns one candidate per falsifiable sentence
func (e *HeuristicExtractor) SectionCandidates(section model.Section) []Candidate {
	var candidates []Candidate
	for _, sentence := range Sentences(section.Text) {
		c, ok := e.candidate(section.Name, sentence)
		if ok {
			candidates = append(candidates, c)
		}
	}
	return candidates
}

// candidate classifies one sentence. Sentences without a category term or
// without a checkable predicate are generic prose and are dropped.
func (e *HeuristicExtractor) candidate(section, sentence string) (Candidate, bool) {
	lowered := strings.ToLower(sentence)

	category, ok := classifyCategory(lowered)
	if !ok {
		return Candidate{}, false
	}
	if !taxonomy.HasPredicate(lowered) {
		e.logger.Debug("dropping sentence without predicate", zap.String("sentence", sentence))
		return Candidate{}, false
	}

	return Candidate{
		ClaimText:          CleanText(sentence),
		Category:           category.String(),
		Tone:               taxonomy.ClassifyTone(lowered).String(),
		ImpliedCommitments: commitments(category, lowered),
		SourceSection:      section,
		Quote:              sentence,
	}, true
}

// classifyCategory picks the category with the most distinct claim-term
// hits. A term nested inside a longer hit ("latency" in "low latency") counts
// once, and a stated concurrent audience ("1000+ concurrent users") weighs
// toward concurrency. No hits or a tie means the claim is ambiguous and has
// no category.
func classifyCategory(lowered string) (model.Category, bool) {
	audience := taxonomy.StatesAudience(lowered)
	best, bestScore, tied := model.Category(0), 0, false
	for _, lex := range taxonomy.All() {
		score := len(taxonomy.DistinctTerms(lowered, lex.ClaimTerms))
		if score > 0 && audience && lex.Category == model.CategoryConcurrencyScale {
			score++
		}
		switch {
		case score > bestScore:
			best, bestScore, tied = lex.Category, score, false
		case score == bestScore && score > 0:
			tied = true
		}
	}
	if bestScore == 0 || tied {
		return 0, false
	}
	return best, true
}

const maxFigureCommitments = 3

func commitments(category model.Category, lowered string) []string {
	lex, _ := taxonomy.For(category)
	out := append([]string(nil), lex.Commitments...)
	for i, q := range taxonomy.Quantities(lowered) {
		if i >= maxFigureCommitments {
			break
		}
		out = append(out, fmt.Sprintf("Holds at the stated figure: %s", q))
	}
	return out
}

const (
	minSentenceLen = 12
	maxSentenceLen = 500
)

// Sentences splits prose into sentences. Every returned sentence is a
// verbatim substring of text; code fences, tables, badges and headers are
// skipped, HTML blocks contribute their text nodes.
func Sentences(text string) []string {
	var out []string
	for _, block := range proseBlocks(text) {
		out = append(out, splitSentences(block)...)
	}
	return out
}

var listMarker = regexp.MustCompile(`^\s*(?:[-*+]|\d+[.)]|>)\s+`)

// proseBlocks groups lines into paragraphs and list items
func proseBlocks(text string) []string {
	var blocks []string
	lines := strings.SplitAfter(text, "\n")
	inFence := false
	start, end := -1, -1
	offset := 0

	flush := func() {
		if start >= 0 {
			if b := strings.TrimSpace(text[start:end]); b != "" {
				blocks = append(blocks, b)
			}
		}
		start, end = -1, -1
	}

	for _, raw := range lines {
		lineStart := offset
		offset += len(raw)
		line := strings.TrimRight(raw, "\r\n")
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~"):
			flush()
			inFence = !inFence
			continue
		case inFence:
			continue
		case trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "|") ||
			strings.HasPrefix(trimmed, "![") || strings.HasPrefix(trimmed, "[!["):
			flush()
			continue
		case strings.HasPrefix(trimmed, "<"):
			flush()
			blocks = append(blocks, htmlTextNodes(line)...)
			continue
		}

		contentStart := lineStart + (len(line) - len(strings.TrimLeft(line, " \t")))
		if m := listMarker.FindStringIndex(line); m != nil {
			flush()
			contentStart = lineStart + m[1]
		}
		if start < 0 {
			start = contentStart
		}
		end = lineStart + len(line)
	}
	flush()
	return blocks
}

// htmlTextNodes returns the text nodes of an HTML line that occur verbatim in it
func htmlTextNodes(line string) []string {
	doc, err := html.Parse(strings.NewReader(line))
	if err != nil {
		return nil
	}

	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "img":
				return
			}
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" && strings.Contains(line, text) {
				out = append(out, text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out
}

// splitSentences splits a block on terminators followed by whitespace
func splitSentences(block string) []string {
	var sentences []string
	start := 0

	add := func(end int) {
		sentence := strings.TrimSpace(block[start:end])
		if len(sentence) >= minSentenceLen && len(sentence) <= maxSentenceLen {
			sentences = append(sentences, sentence)
		}
	}

	for i := 0; i < len(block); i++ {
		switch block[i] {
		case '.', '!', '?':
			if i+1 < len(block) && (block[i+1] == ' ' || block[i+1] == '\t' || block[i+1] == '\n') {
				add(i + 1)
				start = i + 1
			}
		}
	}
	if start < len(block) {
		add(len(block))
	}
	return sentences
}

var (
	markdownLink = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	emphasis     = strings.NewReplacer("**", "", "__", "", "`", "")
	whitespace   = regexp.MustCompile(`\s+`)
)

// CleanText strips markdown markup and collapses whitespace for display
func CleanText(s string) string {
	s = markdownLink.ReplaceAllString(s, "$1")
	s = emphasis.Replace(s)
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
