package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/realitycheck/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "realitycheck",
	Short: "Realitycheck - audit README claims against a repository's own issue tracker",
	Long: `Realitycheck reads the marketing claims in a repository's README and checks
them against the defects its users have reported.

For a stated production use case it emits one verdict per claim:
contradicted, unproven or supported, with a penalty score between 0 and 100
and the rules and issues that produced it.

Realitycheck does not benchmark anything. Absence of evidence is reported as
unproven, never as proof.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of realitycheck.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "realitycheck %s\n", model.DefaultConfig().Report.ToolVersion)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.realitycheck/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// envKeys are the nested settings that can be overridden with
// REALITYCHECK_<SECTION>_<KEY> variables
var envKeys = []string{
	"github.token", "github.base_url", "github.max_issues", "github.include_closed",
	"github.requests_per_second", "github.http_proxy", "github.https_proxy",
	"llm.provider", "llm.model", "llm.api_key", "llm.base_url", "llm.extract_claims",
	"report.aggregation",
	"concurrency.judge_workers", "concurrency.batch_workers",
	"cache.enabled", "cache.dir",
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".realitycheck"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	bindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("REALITYCHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}
}

// loadConfig layers the config file and REALITYCHECK_* variables held by v
// over the built-in defaults, then fills credentials from the conventional
// provider variables.
func loadConfig(v *viper.Viper, getenv func(string) string) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	applyEnv(cfg, getenv)
	return cfg, nil
}

func applyEnv(cfg *model.Config, getenv func(string) string) {
	if cfg.GitHub.Token == "" {
		cfg.GitHub.Token = getenv("GITHUB_TOKEN")
	}

	switch strings.ToLower(cfg.LLM.Provider) {
	case "openai":
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = getenv("OPENAI_API_KEY")
		}
	case "anthropic", "claude":
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = getenv("ANTHROPIC_API_KEY")
		}
	case "ollama":
		if cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = getenv("OLLAMA_BASE_URL")
		}
	}
}

// checkCredentials fails early with the variable a provider is missing
func checkCredentials(cfg *model.Config) error {
	if cfg.LLM.APIKey != "" {
		return nil
	}
	switch strings.ToLower(cfg.LLM.Provider) {
	case "openai":
		return fmt.Errorf("OPENAI_API_KEY environment variable not set")
	case "anthropic", "claude":
		return fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
	}
	return nil
}
