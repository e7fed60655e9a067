package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Claim is a falsifiable, quote-backed statement extracted from documentation.
// Claims are created once by an extractor and only referenced afterwards.
type Claim struct {
	Text               string   `json:"claim_text" yaml:"claim_text"`
	Category           Category `json:"category" yaml:"category"`
	Tone               Tone     `json:"confidence_tone" yaml:"confidence_tone"`
	ImpliedCommitments []string `json:"implied_commitments" yaml:"implied_commitments"`
	SourceSection      string   `json:"source_section" yaml:"source_section"`
	Quote              string   `json:"quote" yaml:"quote"` // Verbatim substring of the source documentation
}

// Hash returns a stable content hash of the claim
func (c Claim) Hash() string {
	h := sha256.New()
	for _, part := range []string{c.Text, c.Category.String(), c.Tone.String(), c.SourceSection, c.Quote} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	for _, commitment := range c.ImpliedCommitments {
		h.Write([]byte(commitment))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Category is the closed set of technical domains a claim can belong to.
// The zero value is not a category.
type Category int

const (
	CategoryPerformance Category = iota + 1
	CategoryConcurrencyScale
	CategoryReliability
	CategoryAbstractionBoundaries
	CategorySecurity
)

var categoryNames = map[Category]string{
	CategoryPerformance:           "Performance",
	CategoryConcurrencyScale:      "Concurrency & Scale",
	CategoryReliability:           "Reliability",
	CategoryAbstractionBoundaries: "Abstraction Boundaries",
	CategorySecurity:              "Security",
}

// Categories returns every category in declaration order
func Categories() []Category {
	return []Category{
		CategoryPerformance,
		CategoryConcurrencyScale,
		CategoryReliability,
		CategoryAbstractionBoundaries,
		CategorySecurity,
	}
}

// Valid reports whether c is one of the five categories
func (c Category) Valid() bool {
	_, ok := categoryNames[c]
	return ok
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "invalid"
}

// ParseCategory maps a category name onto the closed taxonomy.
// Matching ignores case, spacing and punctuation, so "concurrency_scale" and
// "Concurrency & Scale" are the same category. "Abstraction" is accepted as
// a short form of Abstraction Boundaries.
func ParseCategory(s string) (Category, error) {
	switch normalizeEnum(s) {
	case "performance":
		return CategoryPerformance, nil
	case "concurrencyscale", "concurrencyandscale", "concurrency", "scale":
		return CategoryConcurrencyScale, nil
	case "reliability":
		return CategoryReliability, nil
	case "abstractionboundaries", "abstraction":
		return CategoryAbstractionBoundaries, nil
	case "security":
		return CategorySecurity, nil
	}
	return 0, fmt.Errorf("unknown category %q", s)
}

func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid category %d", int(c))
	}
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Tone describes how strongly a claim is worded. It is interpretive context
// for the judge, never a penalty multiplier on its own.
type Tone int

const (
	ToneAspirational Tone = iota + 1
	ToneSuggestive
	ToneAssertive
)

var toneNames = map[Tone]string{
	ToneAssertive:    "assertive",
	ToneSuggestive:   "suggestive",
	ToneAspirational: "aspirational",
}

// Valid reports whether t is a known tone
func (t Tone) Valid() bool {
	_, ok := toneNames[t]
	return ok
}

// Strength orders tones: Assertive (3) > Suggestive (2) > Aspirational (1)
func (t Tone) Strength() int {
	if !t.Valid() {
		return 0
	}
	return int(t)
}

func (t Tone) String() string {
	if name, ok := toneNames[t]; ok {
		return name
	}
	return "invalid"
}

// ParseTone parses a tone name (case-insensitive)
func ParseTone(s string) (Tone, error) {
	switch normalizeEnum(s) {
	case "assertive":
		return ToneAssertive, nil
	case "suggestive":
		return ToneSuggestive, nil
	case "aspirational":
		return ToneAspirational, nil
	}
	return 0, fmt.Errorf("unknown confidence tone %q", s)
}

func (t Tone) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid tone %d", int(t))
	}
	return []byte(t.String()), nil
}

func (t *Tone) UnmarshalText(text []byte) error {
	parsed, err := ParseTone(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// normalizeEnum lowercases s and drops everything that is not a letter
func normalizeEnum(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
