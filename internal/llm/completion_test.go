package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/ppiankov/realitycheck/internal/model"
)

// fakeCompleter returns a canned completion
type fakeCompleter struct {
	text  string
	err   error
	calls []completion
}

func (f *fakeCompleter) complete(_ context.Context, c completion) (*completionResult, error) {
	f.calls = append(f.calls, c)
	if f.err != nil {
		return nil, f.err
	}
	return &completionResult{Text: f.text, Model: "fake"}, nil
}

func TestJudge_StrictEvidenceChecksReasoning(t *testing.T) {
	c := &fakeCompleter{text: `{"verdict":"contradicted","confidence":"high","reasoning":"#101 and #555 both hang.","evidence_refs":["101"],"final_penalty":90}`}

	_, err := judge(context.Background(), c, Config{StrictEvidence: true}, concurrencyJudgeRequest())
	if !errors.Is(err, ErrCitationLeak) {
		t.Fatalf("Expected citation leak from reasoning, got %v", err)
	}

	// Without strict mode the same output passes through
	resp, err := judge(context.Background(), c, Config{}, concurrencyJudgeRequest())
	if err != nil {
		t.Fatalf("judge: %v", err)
	}
	if resp.Verdict != "contradicted" {
		t.Errorf("Unexpected verdict %s", resp.Verdict)
	}
}

func TestJudge_MissingFields(t *testing.T) {
	c := &fakeCompleter{text: `{"verdict":"contradicted"}`}

	_, err := judge(context.Background(), c, Config{}, concurrencyJudgeRequest())
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("Expected malformed response, got %v", err)
	}
}

func TestJudge_UsesConfiguredTokenBudget(t *testing.T) {
	c := &fakeCompleter{text: `{"verdict":"unproven","confidence":"low","reasoning":"none","final_penalty":50}`}

	if _, err := judge(context.Background(), c, Config{MaxTokens: 700}, concurrencyJudgeRequest()); err != nil {
		t.Fatalf("judge: %v", err)
	}
	if c.calls[0].MaxTokens != 700 {
		t.Errorf("Expected 700 max tokens, got %d", c.calls[0].MaxTokens)
	}
	if c.calls[0].System != JudgeSystemPrompt {
		t.Error("Expected judge system prompt")
	}
}

func TestDecodeJSONObject(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{"plain", `{"verdict":"supported"}`, false},
		{"fenced", "```json\n{\"verdict\":\"supported\"}\n```", false},
		{"prose around", `Sure! {"verdict":"supported"} Hope this helps.`, false},
		{"no object", "no json here", true},
		{"broken", `{"verdict":`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out struct {
				Verdict string `json:"verdict"`
			}
			err := decodeJSONObject(tt.text, &out)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedResponse) {
					t.Errorf("Expected malformed response, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if out.Verdict != "supported" {
				t.Errorf("Unexpected verdict %q", out.Verdict)
			}
		})
	}
}

func TestCitedRefs(t *testing.T) {
	refs := CitedRefs("Issue #12 and #34 both show it; #12 again.")
	if len(refs) != 2 || refs[0] != "12" || refs[1] != "34" {
		t.Errorf("Unexpected refs %v", refs)
	}
}

func TestBuildJudgePrompt(t *testing.T) {
	prompt := BuildJudgePrompt(concurrencyJudgeRequest())

	for _, want := range []string{
		"Use Case: 500+ concurrent medical users",
		"Floor penalty: 50",
		"- [Issue #101] (open, 63 days",
		"hangs indefinitely under load",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Expected prompt to contain %q", want)
		}
	}
}

func TestBuildJudgePrompt_TruncatesEvidence(t *testing.T) {
	req := concurrencyJudgeRequest()
	req.Evidence = nil
	for i := 0; i < maxEvidenceInPrompt+5; i++ {
		req.Evidence = append(req.Evidence, &model.EvidenceItem{ID: "1", Title: "x", BodyExcerpt: strings.Repeat("a", 300)})
	}

	prompt := BuildJudgePrompt(req)
	if !strings.Contains(prompt, "... and 5 more issues") {
		t.Error("Expected truncation marker")
	}
	if strings.Contains(prompt, strings.Repeat("a", bodyPreviewChars+1)) {
		t.Error("Expected body preview to be truncated")
	}
}

func TestBuildJudgePrompt_MultibyteBodyStaysValidUTF8(t *testing.T) {
	req := concurrencyJudgeRequest()
	req.Evidence = []*model.EvidenceItem{{ID: "7", Title: "ロック", BodyExcerpt: strings.Repeat("デッドロック", 20)}}

	prompt := BuildJudgePrompt(req)
	if !utf8.ValidString(prompt) {
		t.Error("Expected the body preview to be cut on a rune boundary")
	}
	if !strings.Contains(prompt, "...") {
		t.Error("Expected truncation marker")
	}
}

func TestConfigFromModel_KeepsDefaultsForZeroValues(t *testing.T) {
	cfg := ConfigFromModel(model.LLMConfig{Provider: "ollama", Model: "llama3.1:8b", StrictEvidence: true}, "", "http://proxy:8443")

	defaults := DefaultConfig()
	if cfg.Timeout != defaults.Timeout || cfg.MaxTokens != defaults.MaxTokens {
		t.Errorf("Expected default timeout and tokens, got %d and %d", cfg.Timeout, cfg.MaxTokens)
	}
	if cfg.Provider != "ollama" || cfg.Model != "llama3.1:8b" || cfg.HTTPSProxy != "http://proxy:8443" {
		t.Errorf("Unexpected config %+v", cfg)
	}

	cfg = ConfigFromModel(model.LLMConfig{Timeout: 5, MaxTokens: 200}, "", "")
	if cfg.Timeout != 5 || cfg.MaxTokens != 200 {
		t.Errorf("Expected explicit values to win, got %d and %d", cfg.Timeout, cfg.MaxTokens)
	}
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(Config{Provider: ""}, nil)
	if err != nil || p != nil {
		t.Errorf("Expected disabled provider, got %v, %v", p, err)
	}

	p, err = NewProvider(Config{Provider: "ollama", Model: "llama3.1:8b"}, nil)
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	if p.Name() != "ollama" {
		t.Errorf("Unexpected provider %s", p.Name())
	}

	if _, err := NewProvider(Config{Provider: "bard"}, nil); err == nil {
		t.Error("Expected error for unknown provider")
	}
}
