package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ndavault/internal/adapters/driven/ai"
	"github.com/custodia-labs/ndavault/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure search, expiration, processing and AI provider settings.

Settings are stored in ~/.ndavault/config.toml.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change a setting",
	Long: `Validates and stores a single setting, for example:

  ndavault settings set search.lexical_weight 0.3
  ndavault settings set embedding.provider ollama
  ndavault settings set embedding.model nomic-embed-text`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List setting keys",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

var settingsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check AI provider connectivity",
	Args:  cobra.NoArgs,
	RunE:  runSettingsCheck,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsCheckCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println(styles.Title.Render("Current Settings"))
	cmd.Println()

	cmd.Println("[Search]")
	cmd.Printf("  Lexical weight: %.2f\n", settings.Search.LexicalWeight)
	cmd.Printf("  Max results: %d\n", settings.Search.MaxResults)
	cmd.Printf("  Candidate limit: %d\n", settings.Search.CandidateLimit)
	cmd.Printf("  Oracle timeout: %s\n", settings.Search.OracleTimeout)
	cmd.Println()

	cmd.Println("[Expiration]")
	cmd.Printf("  Near threshold: %d days\n", settings.Expiration.NearThresholdDays)
	cmd.Println()

	cmd.Println("[Processing]")
	cmd.Printf("  Chunk size: %d\n", settings.Processing.ChunkSize)
	cmd.Printf("  Chunk overlap: %d\n", settings.Processing.ChunkOverlap)
	cmd.Printf("  Embed concurrency: %d\n", settings.Processing.EmbedConcurrency)
	cmd.Printf("  Fact timeout: %s\n", settings.Processing.FactTimeout)
	cmd.Printf("  LLM rate: %.2f/s\n", settings.Processing.LLMRatePerSecond)
	cmd.Println()

	cmd.Println("[Embedding]")
	printProvider(cmd, settings.Embedding.Provider, settings.Embedding.Model, settings.Embedding.BaseURL)
	cmd.Println()

	cmd.Println("[LLM]")
	printProvider(cmd, settings.LLM.Provider, settings.LLM.Model, settings.LLM.BaseURL)
	cmd.Println()

	if !settings.Embedding.IsConfigured() {
		cmd.Println(styles.Muted.Render("No embedding provider: search is lexical-only."))
	}
	if !settings.LLM.IsConfigured() {
		cmd.Println(styles.Muted.Render("No LLM provider: facts are extracted heuristically."))
	}

	return nil
}

func printProvider(cmd *cobra.Command, provider domain.AIProvider, model, baseURL string) {
	cmd.Printf("  Provider: %s\n", provider.Description())
	if !provider.IsValid() {
		return
	}
	cmd.Printf("  Model: %s\n", model)
	cmd.Printf("  Base URL: %s\n", baseURL)
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	cmd.Printf("Set %s = %s\n", key, value)
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	for _, k := range settingsService.Keys() {
		cmd.Println(k)
	}
	return nil
}

func runSettingsCheck(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	applyEnvOverrides(settings)
	ctx := commandContext(cmd)

	failed := false
	report := func(name string, configured bool, err error) {
		switch {
		case !configured:
			cmd.Printf("  %s: %s\n", name, styles.Muted.Render("not configured"))
		case err != nil:
			failed = true
			cmd.Printf("  %s: %s\n", name, styles.Error.Render(err.Error()))
		default:
			cmd.Printf("  %s: %s\n", name, styles.Success.Render("ok"))
		}
	}

	cmd.Println("Checking AI providers...")
	report("Embedding", settings.Embedding.IsConfigured(), ai.ValidateEmbeddingConfig(ctx, &settings.Embedding))
	report("LLM", settings.LLM.IsConfigured(), ai.ValidateLLMConfig(ctx, &settings.LLM))

	if failed {
		return errors.New("one or more providers are unreachable")
	}
	return nil
}
