package model

import "time"

// Config is the complete runtime configuration of realitycheck
type Config struct {
	GitHub      GitHubConfig      `yaml:"github" mapstructure:"github"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Rules       RulesConfig       `yaml:"rules" mapstructure:"rules"`
	Judge       JudgeConfig       `yaml:"judge" mapstructure:"judge"`
	Report      ReportConfig      `yaml:"report" mapstructure:"report"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// GitHubConfig configures the evidence collaborator
type GitHubConfig struct {
	Token             string        `yaml:"-" mapstructure:"token"` // From GITHUB_TOKEN, never written to disk
	BaseURL           string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	MaxIssues         int           `yaml:"max_issues" mapstructure:"max_issues"`
	PerPage           int           `yaml:"per_page" mapstructure:"per_page"`
	Labels            []string      `yaml:"labels,omitempty" mapstructure:"labels"`
	ActivityWindow    time.Duration `yaml:"activity_window" mapstructure:"activity_window"` // Only issues updated within the window; 0 = no limit
	IncludeClosed     bool          `yaml:"include_closed" mapstructure:"include_closed"`
	BodyExcerptChars  int           `yaml:"body_excerpt_chars" mapstructure:"body_excerpt_chars"`
	CorePaths         []string      `yaml:"core_paths,omitempty" mapstructure:"core_paths"`
	ChurnWindowDays   int           `yaml:"churn_window_days" mapstructure:"churn_window_days"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	HTTPProxy         string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy        string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// LLMConfig configures the optional reasoning service
type LLMConfig struct {
	Provider       string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama, "" (heuristic only)
	Model          string `yaml:"model" mapstructure:"model"`
	APIKey         string `yaml:"-" mapstructure:"api_key"`
	BaseURL        string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout        int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	StrictEvidence bool   `yaml:"strict_evidence" mapstructure:"strict_evidence"`
	MaxTokens      int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	ExtractClaims  bool   `yaml:"extract_claims" mapstructure:"extract_claims"` // Use the LLM for extraction, not only judgment
}

// RulesConfig holds the thresholds and penalties of the deterministic rules
type RulesConfig struct {
	ZombieAgeDays         int      `yaml:"zombie_age_days" mapstructure:"zombie_age_days"`
	ZombiePenalty         int      `yaml:"zombie_penalty" mapstructure:"zombie_penalty"`
	SilentFailurePenalty  int      `yaml:"silent_failure_penalty" mapstructure:"silent_failure_penalty"`
	SilentFailureKeywords []string `yaml:"silent_failure_keywords" mapstructure:"silent_failure_keywords"`
	CrashPenalty          int      `yaml:"crash_penalty" mapstructure:"crash_penalty"`
	CrashKeywords         []string `yaml:"crash_keywords" mapstructure:"crash_keywords"`
	ChurnThreshold        int      `yaml:"churn_threshold" mapstructure:"churn_threshold"`
	ChurnPenalty          int      `yaml:"churn_penalty" mapstructure:"churn_penalty"`
	FloorCap              int      `yaml:"floor_cap" mapstructure:"floor_cap"`
}

// JudgeConfig configures the semantic stage
type JudgeConfig struct {
	ContradictedDelta int           `yaml:"contradicted_delta" mapstructure:"contradicted_delta"`
	UnprovenDelta     int           `yaml:"unproven_delta" mapstructure:"unproven_delta"`
	SupportedDelta    int           `yaml:"supported_delta" mapstructure:"supported_delta"`
	CallTimeout       time.Duration `yaml:"call_timeout" mapstructure:"call_timeout"`
	MaxRetries        int           `yaml:"max_retries" mapstructure:"max_retries"`
	InitialBackoff    time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff"`
	MaxBackoff        time.Duration `yaml:"max_backoff" mapstructure:"max_backoff"`
}

// ReportConfig configures report synthesis
type ReportConfig struct {
	Aggregation string `yaml:"aggregation" mapstructure:"aggregation"` // max, tone_weighted_mean
	ToolVersion string `yaml:"-" mapstructure:"-"`
}

// ConcurrencyConfig bounds parallel work
type ConcurrencyConfig struct {
	JudgeWorkers int `yaml:"judge_workers" mapstructure:"judge_workers"`
	BatchWorkers int `yaml:"batch_workers" mapstructure:"batch_workers"`
}

// CacheConfig configures the semantic judgment memo
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// OutputConfig configures rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		GitHub: GitHubConfig{
			MaxIssues:         50,
			PerPage:           50,
			BodyExcerptChars:  1000,
			ChurnWindowDays:   90,
			RequestsPerSecond: 1,
			Burst:             5,
			Timeout:           30 * time.Second,
		},
		LLM: LLMConfig{
			Provider:       "", // Heuristic judge unless configured
			Timeout:        60,
			StrictEvidence: true,
			MaxTokens:      1500,
		},
		Rules: RulesConfig{
			ZombieAgeDays:         60,
			ZombiePenalty:         30,
			SilentFailurePenalty:  20,
			SilentFailureKeywords: []string{"hang", "deadlock", "infinite loop", "freeze", "silent", "stuck"},
			CrashPenalty:          10,
			CrashKeywords:         []string{"crash", "panic", "segfault", "segmentation fault", "exception"},
			ChurnThreshold:        20,
			ChurnPenalty:          15,
			FloorCap:              MaxPenalty,
		},
		Judge: JudgeConfig{
			ContradictedDelta: 40,
			UnprovenDelta:     10,
			SupportedDelta:    0,
			CallTimeout:       90 * time.Second,
			MaxRetries:        3,
			InitialBackoff:    time.Second,
			MaxBackoff:        30 * time.Second,
		},
		Report: ReportConfig{
			Aggregation: "max",
			ToolVersion: "v0.2.0",
		},
		Concurrency: ConcurrencyConfig{
			JudgeWorkers: 4,
			BatchWorkers: 2,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".realitycheck-cache",
			MemoryTTL: time.Hour,
			DiskTTL:   30 * 24 * time.Hour,
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
	}
}
