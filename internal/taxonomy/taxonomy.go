// Package taxonomy holds the closed-world lexicons shared by the extractor,
// the evidence matcher and the heuristic judge. Every category term lives here
// so that "which domain does this text belong to" has exactly one answer.
package taxonomy

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/realitycheck/internal/model"
)

// Lexicon is the vocabulary of one category
type Lexicon struct {
	Category model.Category

	// ClaimTerms classify documentation sentences into the category
	ClaimTerms []string

	// EvidenceTerms mark an issue as relevant to the category
	EvidenceTerms []string

	// Labels are issue labels that map onto the category
	Labels []string

	// FailureTerms describe defects that are semantically incompatible with
	// a claim in this category
	FailureTerms []string

	// Commitments are the default expectations a claim in this category creates
	Commitments []string
}

var lexicons = map[model.Category]Lexicon{
	model.CategoryPerformance: {
		Category: model.CategoryPerformance,
		ClaimTerms: []string{
			"fast", "faster", "fastest", "blazing", "high-performance", "high performance",
			"performant", "low latency", "low-latency", "latency", "throughput", "speed",
			"efficient", "lightweight", "zero-copy", "zero allocation", "zero-allocation",
			"benchmark", "ops/sec", "requests per second", "req/s", "milliseconds",
			"memory footprint", "overhead", "optimized",
		},
		EvidenceTerms: []string{
			"slow", "slower", "latency", "performance", "perf", "throughput", "memory leak",
			"high cpu", "cpu usage", "memory usage", "regression", "benchmark", "takes too long",
			"oom", "out of memory", "bottleneck",
		},
		Labels: []string{"performance", "perf", "slow", "memory", "regression", "optimization"},
		FailureTerms: []string{
			"slow", "latency", "memory leak", "leak", "high cpu", "regression", "takes too long",
			"out of memory", "oom", "bottleneck", "timeout", "timed out",
		},
		Commitments: []string{
			"Meets the stated latency or throughput figures in production workloads",
			"Does not degrade under sustained use",
		},
	},
	model.CategoryConcurrencyScale: {
		Category: model.CategoryConcurrencyScale,
		ClaimTerms: []string{
			"concurrent", "concurrency", "concurrently", "parallel", "scale", "scales",
			"scalable", "scalability", "thread-safe", "thread safe", "async", "asynchronous",
			"non-blocking", "nonblocking", "simultaneous", "connections",
			"horizontal", "distributed", "cluster",
		},
		EvidenceTerms: []string{
			"concurrent", "concurrency", "race", "race condition", "deadlock", "hang", "hangs",
			"under load", "thread", "async", "parallel", "lock", "mutex", "contention",
			"scale", "scaling", "many users", "connections", "pool", "freeze", "stuck",
		},
		Labels: []string{
			"concurrency", "async", "threading", "race-condition", "scalability", "scaling",
			"deadlock", "load",
		},
		FailureTerms: []string{
			"hang", "deadlock", "race", "race condition", "under load", "freeze", "stuck",
			"contention", "timeout", "timed out", "infinite loop", "exhausted", "unresponsive",
		},
		Commitments: []string{
			"Remains responsive under the stated concurrent load",
			"Shared state is safe under concurrent access",
		},
	},
	model.CategoryReliability: {
		Category: model.CategoryReliability,
		ClaimTerms: []string{
			"reliable", "reliability", "production-ready", "production ready", "battle-tested",
			"battle tested", "stable", "stability", "fault-tolerant", "fault tolerant",
			"resilient", "retries", "retry", "recover", "recovery", "durable", "uptime",
			"never lose", "no data loss", "graceful", "robust", "availability",
		},
		EvidenceTerms: []string{
			"crash", "crashes", "panic", "segfault", "data loss", "lost data", "corrupt",
			"corruption", "exception",
			"infinite loop", "restart", "memory leak", "unstable", "flaky",
		},
		Labels: []string{"crash", "reliability", "stability", "data-loss", "critical", "p0", "regression"},
		FailureTerms: []string{
			"crash", "panic", "segfault", "data loss", "lost data", "corrupt", "unstable",
			"flaky", "infinite loop", "hang", "memory leak", "leak", "fails silently",
		},
		Commitments: []string{
			"Does not crash or lose data in normal operation",
			"Failures surface as errors instead of silent misbehaviour",
		},
	},
	model.CategoryAbstractionBoundaries: {
		Category: model.CategoryAbstractionBoundaries,
		ClaimTerms: []string{
			"abstraction", "abstracts", "unified", "unified api", "interface", "pluggable",
			"modular", "composable", "drop-in", "drop in", "swap", "backend-agnostic",
			"provider-agnostic", "agnostic", "compatible", "compatibility", "seamless",
			"seamlessly", "integrates", "integration", "extensible", "backwards compatible",
		},
		EvidenceTerms: []string{
			"breaking change", "breaking", "leaky", "abstraction", "workaround",
			"private api", "incompatible", "compatibility", "interface", "api change",
			"deprecated", "not supported",
		},
		Labels: []string{"breaking-change", "breaking", "api", "compatibility", "integration", "design"},
		FailureTerms: []string{
			"breaking change", "breaking", "leaky", "workaround", "incompatible", "monkeypatch",
			"monkey patch", "private api", "not supported", "inconsistent",
		},
		Commitments: []string{
			"Callers do not need to know implementation details behind the interface",
			"Swapping implementations does not change observable behaviour",
		},
	},
	model.CategorySecurity: {
		Category: model.CategorySecurity,
		ClaimTerms: []string{
			"secure", "security", "encrypted", "encryption", "sandbox", "sandboxed",
			"authentication", "authorization", "memory-safe", "memory safe", "sanitized", "sanitizes", "tls",
			"ssl", "injection", "xss", "csrf", "privacy", "compliant", "compliance",
			"audited", "vulnerability", "secrets",
		},
		EvidenceTerms: []string{
			"security", "vulnerability", "cve", "injection", "xss", "csrf", "rce",
			"exploit", "leaked", "credentials", "secret", "bypass", "unsafe",
			"sandbox escape", "authentication", "privilege",
		},
		Labels: []string{"security", "vulnerability", "cve", "sec"},
		FailureTerms: []string{
			"vulnerability", "cve", "injection", "xss", "csrf", "rce", "exploit",
			"credentials", "bypass", "sandbox escape", "privilege escalation", "leaked",
		},
		Commitments: []string{
			"Untrusted input cannot escape the documented security boundary",
			"Secrets and credentials are not exposed",
		},
	},
}

// For returns the lexicon of a category
func For(c model.Category) (Lexicon, bool) {
	lex, ok := lexicons[c]
	return lex, ok
}

// All returns every lexicon in category order
func All() []Lexicon {
	out := make([]Lexicon, 0, len(lexicons))
	for _, c := range model.Categories() {
		out = append(out, lexicons[c])
	}
	return out
}

// LabelMatches reports whether an issue label belongs to the lexicon.
// Namespaced labels such as "type: performance" or "area/async" match on
// their last segment.
func (l Lexicon) LabelMatches(label string) bool {
	name := strings.ToLower(strings.TrimSpace(label))
	if idx := strings.LastIndexAny(name, ":/"); idx >= 0 {
		name = strings.TrimSpace(name[idx+1:])
	}
	for _, candidate := range l.Labels {
		if name == candidate {
			return true
		}
	}
	return false
}

// inflections are the word endings accepted after a term, so "hang" matches
// "hangs" and "hanging" but "ms" does not match "msgpack"
var inflections = []string{"", "s", "es", "d", "ed", "ing", "ly", "er"}

// ContainsTerm reports whether lowered text contains term as a word or an
// inflected word. "hangs" contains "hang"; "change" does not.
func ContainsTerm(lowered, term string) bool {
	return len(termSpans(lowered, strings.ToLower(term))) > 0
}

// termSpans returns the byte ranges where term occurs as a word or an
// inflected word
func termSpans(lowered, term string) [][2]int {
	if term == "" {
		return nil
	}
	var spans [][2]int
	offset := 0
	for offset <= len(lowered) {
		idx := strings.Index(lowered[offset:], term)
		if idx < 0 {
			break
		}
		pos := offset + idx
		end := pos + len(term)
		if (pos == 0 || !isWordByte(lowered[pos-1])) && inflectedEnd(lowered[end:]) {
			spans = append(spans, [2]int{pos, end})
		}
		offset = pos + 1
	}
	return spans
}

// MatchedTerms returns every term found in lowered text, in term order
func MatchedTerms(lowered string, terms []string) []string {
	var found []string
	for _, t := range terms {
		if ContainsTerm(lowered, t) {
			found = append(found, t)
		}
	}
	return found
}

// DistinctTerms is MatchedTerms without the terms that only occur inside a
// longer matched term: "low latency" counts once, not again as "latency".
func DistinctTerms(lowered string, terms []string) []string {
	spans := make(map[string][][2]int, len(terms))
	var matched []string
	for _, t := range terms {
		if s := termSpans(lowered, strings.ToLower(t)); len(s) > 0 {
			if _, dup := spans[t]; !dup {
				matched = append(matched, t)
			}
			spans[t] = s
		}
	}

	var distinct []string
	for _, t := range matched {
		for _, s := range spans[t] {
			if !nested(s, t, matched, spans) {
				distinct = append(distinct, t)
				break
			}
		}
	}
	return distinct
}

// nested reports whether span s of term lies inside an occurrence of a
// longer matched term
func nested(s [2]int, term string, matched []string, spans map[string][][2]int) bool {
	for _, other := range matched {
		if len(other) <= len(term) {
			continue
		}
		for _, o := range spans[other] {
			if o[0] <= s[0] && s[1] <= o[1] {
				return true
			}
		}
	}
	return false
}

// inflectedEnd reports whether rest starts with an accepted inflection
// followed by a word boundary
func inflectedEnd(rest string) bool {
	wordLen := 0
	for wordLen < len(rest) && isWordByte(rest[wordLen]) {
		wordLen++
	}
	tail := rest[:wordLen]
	for _, suffix := range inflections {
		if tail == suffix {
			return true
		}
	}
	return false
}

// isWordByte treats any byte of a multi-byte sequence as part of a word
func isWordByte(b byte) bool {
	if b >= utf8.RuneSelf {
		return true
	}
	r := rune(b)
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
