package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// completion is one system+user exchange with a provider
type completion struct {
	System    string
	User      string
	Model     string
	MaxTokens int
}

// completionResult is the raw text the provider produced
type completionResult struct {
	Text       string
	Model      string
	TokensUsed int
}

// completer is implemented by every provider's transport
type completer interface {
	complete(ctx context.Context, c completion) (*completionResult, error)
}

var responseValidate = validator.New()

// extractClaims runs claim extraction over any transport
func extractClaims(ctx context.Context, c completer, config Config, req ExtractRequest) (*ExtractResponse, error) {
	res, err := c.complete(ctx, completion{
		System:    ExtractSystemPrompt,
		User:      BuildExtractPrompt(req),
		Model:     req.Model,
		MaxTokens: maxTokens(req.MaxTokens, config),
	})
	if err != nil {
		return nil, err
	}

	var out ExtractResponse
	if err := decodeJSONObject(res.Text, &out); err != nil {
		return nil, err
	}
	out.Model = res.Model
	out.TokensUsed = res.TokensUsed
	return &out, nil
}

// judge runs semantic judgment over any transport and enforces the
// response contract before anything leaves the provider
func judge(ctx context.Context, c completer, config Config, req JudgeRequest) (*JudgeResponse, error) {
	res, err := c.complete(ctx, completion{
		System:    JudgeSystemPrompt,
		User:      BuildJudgePrompt(req),
		Model:     req.Model,
		MaxTokens: maxTokens(req.MaxTokens, config),
	})
	if err != nil {
		return nil, err
	}

	var out JudgeResponse
	if err := decodeJSONObject(res.Text, &out); err != nil {
		return nil, err
	}
	if err := responseValidate.Struct(out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if config.StrictEvidence {
		allowed := req.AllowedRefs()
		for _, ref := range append(normalizeRefs(out.EvidenceRefs), CitedRefs(out.Reasoning)...) {
			if !contains(allowed, ref) {
				return nil, fmt.Errorf("%w: model cited unknown evidence %q", ErrCitationLeak, ref)
			}
		}
	}
	out.EvidenceRefs = normalizeRefs(out.EvidenceRefs)

	out.Model = res.Model
	out.TokensUsed = res.TokensUsed
	return &out, nil
}

var citationPattern = regexp.MustCompile(`#([A-Za-z0-9_-]+)`)

// CitedRefs extracts "#id" citations from reasoning text, deduplicated
func CitedRefs(text string) []string {
	seen := make(map[string]bool)
	var refs []string
	for _, m := range citationPattern.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			refs = append(refs, m[1])
		}
	}
	return refs
}

// normalizeRefs strips a leading "#" or "Issue " from cited ids
func normalizeRefs(refs []string) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		r = strings.TrimSpace(r)
		r = strings.TrimPrefix(r, "Issue ")
		r = strings.TrimPrefix(r, "#")
		if r != "" {
			out = append(out, r)
		}
	}
	return out
}

var fencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// decodeJSONObject decodes the first JSON object in model output,
// tolerating markdown fences and surrounding prose
func decodeJSONObject(text string, v interface{}) error {
	text = strings.TrimSpace(text)
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		text = m[1]
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return fmt.Errorf("%w: no JSON object in output", ErrMalformedResponse)
	}

	if err := json.Unmarshal([]byte(text[start:end+1]), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
