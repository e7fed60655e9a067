package taxonomy

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/realitycheck/internal/model"
)

var (
	aspirationalMarkers = []string{
		"aims to", "aim to", "goal", "experimental", "roadmap", "planned", "plan to",
		"future", "strive", "working on", "coming soon", "eventually", "hope to",
		"intended to", "wip", "alpha", "beta",
	}

	assertiveMarkers = []string{
		"guarantee", "guaranteed", "always", "never", "must", "ensure", "ensures",
		"100%", "fully", "completely", "production-ready", "production ready",
		"battle-tested", "battle tested", "proven", "without any",
	}

	suggestiveMarkers = []string{
		"support", "supports", "allow", "allows", "can", "enable", "enables", "provide",
		"provides", "help", "helps", "lets", "designed to", "makes it easy",
	}

	// predicateTerms are capability verbs that make a sentence checkable
	predicateTerms = []string{
		"handle", "handles", "scale", "scales", "run", "runs", "process", "processes",
		"deliver", "delivers", "achieve", "achieves", "outperform", "outperforms",
		"reduce", "reduces", "prevent", "prevents", "protect", "protects", "is designed",
		"built for", "built-in", "recover", "recovers", "retry", "retries", "encrypt",
		"encrypts", "isolate", "isolates", "is thread-safe", "is safe", "works with",
	}

	// audiencePattern is a stated concurrent audience: "1000+ concurrent",
	// "500 users", "10k connections"
	audiencePattern = regexp.MustCompile(`\d[\d,]*\s*k?\s*\+?\s*(?:concurrent|simultaneous|parallel|(?:users|connections|sessions|clients)\b)`)

	quantityPattern = regexp.MustCompile(`\d[\d,.]*\s*(\+|%|x\b|k\b|ms\b|µs\b|us\b|ns\b|s\b|gb\b|mb\b|kb\b|rps\b|qps\b|req/s|ops/s|users|connections|requests|times)?`)
)

// ClassifyTone ranks the wording of a sentence. Aspirational language wins
// because a roadmap item is never a present-tense guarantee; quantified
// figures and absolute words make a claim assertive.
func ClassifyTone(lowered string) model.Tone {
	if len(MatchedTerms(lowered, aspirationalMarkers)) > 0 {
		return model.ToneAspirational
	}
	if len(MatchedTerms(lowered, assertiveMarkers)) > 0 || HasQuantity(lowered) {
		return model.ToneAssertive
	}
	return model.ToneSuggestive
}

// HasQuantity reports whether the sentence states a measurable figure
func HasQuantity(lowered string) bool {
	return quantityPattern.MatchString(lowered)
}

// StatesAudience reports whether the sentence quantifies a concurrent
// audience rather than a latency or throughput figure
func StatesAudience(lowered string) bool {
	return audiencePattern.MatchString(lowered)
}

// Quantities returns every measurable figure in the sentence
func Quantities(lowered string) []string {
	var out []string
	for _, m := range quantityPattern.FindAllString(lowered, -1) {
		m = strings.TrimSpace(m)
		if m != "" {
			out = append(out, m)
		}
	}
	return out
}

// HasPredicate reports whether the sentence asserts a verifiable capability
func HasPredicate(lowered string) bool {
	return HasQuantity(lowered) ||
		len(MatchedTerms(lowered, predicateTerms)) > 0 ||
		len(MatchedTerms(lowered, assertiveMarkers)) > 0 ||
		len(MatchedTerms(lowered, suggestiveMarkers)) > 0
}

// UseCaseProfile is what the judge reads out of a free-text use-case context
type UseCaseProfile struct {
	LongRunning     bool
	ShortLived      bool
	Critical        bool
	HighConcurrency bool
	Concurrency     int // Stated concurrent users/requests, 0 if none
}

var (
	longRunningMarkers = []string{
		"service", "server", "long-running", "long running", "daemon", "chatbot", "api",
		"backend", "24/7", "always-on", "production", "saas", "platform", "worker",
	}
	shortLivedMarkers = []string{
		"cli", "command-line", "command line", "script", "one-off", "one off", "notebook",
		"prototype", "hackathon", "batch job", "cron", "demo",
	}
	criticalMarkers = []string{
		"medical", "healthcare", "health", "clinical", "patient", "financial", "banking",
		"payment", "payments", "trading", "safety", "mission-critical", "mission critical",
		"regulated", "hipaa", "pci",
	}
	concurrencyPattern = regexp.MustCompile(`(\d[\d,]*)\s*(k)?\s*\+?\s*(concurrent|simultaneous|parallel|users|requests|connections|rps|qps|sessions)`)
)

// highConcurrencyThreshold is the stated load above which a use case counts
// as high-concurrency
const highConcurrencyThreshold = 100

// ProfileUseCase extracts deployment constraints from a use-case context
func ProfileUseCase(useCase string) UseCaseProfile {
	lowered := strings.ToLower(useCase)
	p := UseCaseProfile{
		LongRunning: len(MatchedTerms(lowered, longRunningMarkers)) > 0,
		ShortLived:  len(MatchedTerms(lowered, shortLivedMarkers)) > 0,
		Critical:    len(MatchedTerms(lowered, criticalMarkers)) > 0,
	}

	for _, m := range concurrencyPattern.FindAllStringSubmatch(lowered, -1) {
		n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
		if err != nil {
			continue
		}
		if m[2] == "k" {
			n *= 1000
		}
		if n > p.Concurrency {
			p.Concurrency = n
		}
	}
	p.HighConcurrency = p.Concurrency >= highConcurrencyThreshold ||
		ContainsTerm(lowered, "high concurrency") || ContainsTerm(lowered, "high traffic")

	// A stated concurrent audience implies a long-running deployment
	if p.Concurrency > 0 {
		p.LongRunning = true
	}
	return p
}
