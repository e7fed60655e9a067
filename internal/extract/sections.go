package extract

import (
	"regexp"
	"strings"

	"github.com/ppiankov/realitycheck/internal/model"
)

// IntroductionSection names the text before the first header
const IntroductionSection = "introduction"

var (
	headerPattern    = regexp.MustCompile(`^#{1,6}\s+(.*)$`)
	nonKeyChars      = regexp.MustCompile(`[^\w\s-]`)
	repeatUnderscore = regexp.MustCompile(`_+`)
)

// DefaultTargetKeywords select which README sections carry claims worth
// auditing. The introduction (or the first section) is always included.
var DefaultTargetKeywords = []string{
	"concurrency", "scale", "scalability", "performance", "features", "capabilities",
	"why", "overview", "highlights", "reliability", "security", "about",
}

// SplitSections splits markdown into named sections. Header lines inside
// fenced code blocks are ignored. Every section text is a verbatim
// substring of text.
func SplitSections(text string) []model.Section {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	type header struct {
		name      string
		lineStart int
		bodyStart int
	}

	var headers []header
	inFence := false
	offset := 0
	for offset < len(text) {
		lineEnd := strings.IndexByte(text[offset:], '\n')
		next := len(text)
		if lineEnd >= 0 {
			next = offset + lineEnd + 1
		}
		line := strings.TrimRight(text[offset:next], "\r\n")
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
		} else if !inFence {
			if m := headerPattern.FindStringSubmatch(line); m != nil {
				headers = append(headers, header{name: NormalizeKey(m[1]), lineStart: offset, bodyStart: next})
			}
		}
		offset = next
	}

	var sections []model.Section
	introEnd := len(text)
	if len(headers) > 0 {
		introEnd = headers[0].lineStart
	}
	if intro := strings.TrimSpace(text[:introEnd]); intro != "" {
		sections = append(sections, model.Section{Name: IntroductionSection, Text: intro})
	}

	for i, h := range headers {
		end := len(text)
		if i+1 < len(headers) {
			end = headers[i+1].lineStart
		}
		body := strings.TrimSpace(text[h.bodyStart:end])
		if h.name == "" || body == "" {
			continue
		}
		sections = append(sections, model.Section{Name: h.name, Text: body})
	}
	return sections
}

// NormalizeKey turns a markdown header into a section key:
// "## 🚀 Quick Start" becomes "quick_start".
func NormalizeKey(header string) string {
	key := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(header), "#"))
	key = nonKeyChars.ReplaceAllString(key, "")
	key = strings.ToLower(key)
	key = strings.NewReplacer(" ", "_", "-", "_", "\t", "_").Replace(key)
	key = repeatUnderscore.ReplaceAllString(key, "_")
	return strings.Trim(key, "_")
}

// TargetSections selects the sections worth auditing, in document order
func TargetSections(sections []model.Section, keywords []string) []model.Section {
	if len(sections) == 0 {
		return nil
	}

	hasIntro := false
	for _, s := range sections {
		if s.Name == IntroductionSection {
			hasIntro = true
			break
		}
	}

	var selected []model.Section
	seen := make(map[string]bool)
	for i, s := range sections {
		keep := s.Name == IntroductionSection || (!hasIntro && i == 0)
		if !keep {
			for _, kw := range keywords {
				if strings.Contains(s.Name, kw) {
					keep = true
					break
				}
			}
		}
		if keep && !seen[s.Name] {
			seen[s.Name] = true
			selected = append(selected, s)
		}
	}
	return selected
}
