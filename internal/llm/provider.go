package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ppiankov/realitycheck/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// ExtractClaims asks the model for falsifiable claims in one documentation section
	ExtractClaims(ctx context.Context, req ExtractRequest) (*ExtractResponse, error)

	// Judge asks the model whether matched evidence contradicts a claim
	Judge(ctx context.Context, req JudgeRequest) (*JudgeResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// ExtractRequest is the claim extraction contract: documentation text tied to a revision
type ExtractRequest struct {
	DocumentationText string
	Revision          string
	Section           string

	// Model overrides the configured model
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// RawClaim is a claim exactly as the model returned it, before validation
type RawClaim struct {
	ClaimText          string   `json:"claim_text"`
	Category           string   `json:"category"`
	ConfidenceTone     string   `json:"confidence_tone"`
	ImpliedCommitments []string `json:"implied_commitments"`
	SourceSection      string   `json:"source_section"`
	Quote              string   `json:"quote"`
}

// ExtractResponse contains the model's candidate claims
type ExtractResponse struct {
	Claims     []RawClaim `json:"claims"`
	Model      string     `json:"-"`
	TokensUsed int        `json:"-"`
}

// JudgeRequest is the semantic judgment contract
type JudgeRequest struct {
	Claim        model.Claim
	Evidence     []*model.EvidenceItem
	UseCase      string
	FloorPenalty int

	Model     string
	MaxTokens int
}

// AllowedRefs returns the evidence identifiers the model may cite
func (r JudgeRequest) AllowedRefs() []string {
	refs := make([]string, 0, len(r.Evidence))
	for _, e := range r.Evidence {
		refs = append(refs, e.ID)
	}
	return refs
}

// JudgeResponse is the model's verdict, still as untyped strings
type JudgeResponse struct {
	Verdict      string   `json:"verdict" validate:"required"`
	Confidence   string   `json:"confidence" validate:"required"`
	Reasoning    string   `json:"reasoning" validate:"required"`
	EvidenceRefs []string `json:"evidence_refs"`
	FinalPenalty int      `json:"final_penalty" validate:"min=0,max=100"`

	Model      string `json:"-"`
	TokensUsed int    `json:"-"`
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// StrictEvidence rejects judgments that cite evidence outside the matched set
	StrictEvidence bool

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:       "", // Disabled by default
		Model:          "",
		Timeout:        60,
		StrictEvidence: true,
		MaxTokens:      1500,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config. Zero timeouts and
// token limits keep the DefaultConfig values.
func ConfigFromModel(modelConfig model.LLMConfig, httpProxy, httpsProxy string) Config {
	cfg := DefaultConfig()
	cfg.Provider = modelConfig.Provider
	cfg.Model = modelConfig.Model
	cfg.APIKey = modelConfig.APIKey
	cfg.BaseURL = modelConfig.BaseURL
	cfg.StrictEvidence = modelConfig.StrictEvidence
	if modelConfig.Timeout > 0 {
		cfg.Timeout = modelConfig.Timeout
	}
	if modelConfig.MaxTokens > 0 {
		cfg.MaxTokens = modelConfig.MaxTokens
	}
	cfg.HTTPProxy = httpProxy
	cfg.HTTPSProxy = httpsProxy
	return cfg
}

// ErrCitationLeak is returned when a judgment cites evidence that was not supplied
var ErrCitationLeak = errors.New("citation leak")

// ErrMalformedResponse is returned when the model output is not the expected JSON
var ErrMalformedResponse = errors.New("malformed model response")

// APIError is a non-2xx answer from a provider
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (%d): %s", e.Provider, e.StatusCode, e.Message)
}

// Retryable reports whether the call may succeed when repeated
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// maxTokens resolves the token budget: request, then config, then default
func maxTokens(requested int, config Config) int {
	if requested > 0 {
		return requested
	}
	if config.MaxTokens > 0 {
		return config.MaxTokens
	}
	return 1500
}

// contains checks if a slice contains a string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
