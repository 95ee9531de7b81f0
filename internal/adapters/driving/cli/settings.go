package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
	"github.com/custodia-labs/vectorlite-cli/internal/core/services"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change settings stored in ~/.vectorlite/config.toml.

Environment variables (VECTORLITE_EMBEDDING_PROVIDER, VECTORLITE_EMBEDDING_API_KEY,
VECTORLITE_EMBEDDING_MODEL, VECTORLITE_EMBEDDING_ENDPOINT, VECTORLITE_STORAGE_DSN)
override the file for the current process.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a single setting",
	Long: `Set a single setting by its dotted key.

Known keys:
  ` + strings.Join(services.SettingKeys(), "\n  "),
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsProviderCmd = &cobra.Command{
	Use:   "provider [name]",
	Short: "Configure the embedding provider",
	Long: `Configure the embedding provider used for draining and search.

Without a name, prompts for the provider interactively. Model and endpoint
default to the provider's standard values. Providers that need an API key
prompt for it unless --api-key is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSettingsProvider,
}

var (
	providerModel    string
	providerEndpoint string
	providerAPIKey   string
)

func init() {
	settingsProviderCmd.Flags().StringVar(&providerModel, "model", "", "embedding model name")
	settingsProviderCmd.Flags().StringVar(&providerEndpoint, "endpoint", "", "API base URL")
	settingsProviderCmd.Flags().StringVar(&providerAPIKey, "api-key", "", "API key")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsProviderCmd)
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

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	// Embedding settings
	emb := settings.Embedding
	cmd.Println("[Embedding]")
	if emb.Provider == "" {
		cmd.Println("  Provider: (not set)")
	} else {
		cmd.Printf("  Provider: %s\n", emb.Provider.Description())
	}
	cmd.Printf("  Model: %s\n", emb.Model)
	cmd.Printf("  Endpoint: %s\n", emb.Endpoint)
	if emb.Provider.RequiresAPIKey() {
		if emb.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(emb.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	if emb.ExpectedDimensions > 0 {
		cmd.Printf("  Dimensions: %d\n", emb.ExpectedDimensions)
	}
	if emb.RateLimit > 0 {
		cmd.Printf("  Rate Limit: %.1f req/s\n", emb.RateLimit)
	}
	cmd.Printf("  Max Retries: %d\n", emb.MaxRetries)
	status := "configured"
	if !emb.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	cmd.Println("[Chunking]")
	cmd.Printf("  Size: %d characters\n", settings.Chunking.Size)
	cmd.Printf("  Overlap: %d characters\n", settings.Chunking.Overlap)
	cmd.Println()

	cmd.Println("[Search]")
	cmd.Printf("  Limit: %d\n", settings.Search.Limit)
	cmd.Printf("  Threshold: %.2f\n", settings.Search.Threshold)
	cmd.Println()

	cmd.Println("[Queue]")
	cmd.Printf("  Batch Size: %d\n", settings.Queue.BatchSize)
	cmd.Printf("  Stale After: %s\n", settings.Queue.StaleAfter)
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Driver: %s\n", settings.Storage.Driver)
	if settings.Storage.DSN != "" {
		cmd.Printf("  DSN: %s\n", maskDSN(settings.Storage.DSN))
	}
	if settings.WatchInbox != "" {
		cmd.Println()
		cmd.Println("[Watch]")
		cmd.Printf("  Inbox: %s\n", settings.WatchInbox)
	}
	cmd.Println()

	if !emb.IsConfigured() {
		cmd.Println("Run 'vectorlite settings provider' to configure embeddings.")
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.SetValue(args[0], args[1]); err != nil {
		return err
	}
	cmd.Printf("Set %s\n", strings.ToLower(args[0]))
	return nil
}

func runSettingsProvider(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())

	var provider domain.EmbeddingProviderName
	if len(args) == 1 {
		provider = domain.EmbeddingProviderName(strings.ToLower(args[0]))
	} else {
		provider = chooseProvider(cmd, reader)
	}
	if !provider.IsValid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownProvider, provider)
	}

	apiKey := providerAPIKey
	if provider.RequiresAPIKey() && apiKey == "" {
		current, err := settingsService.Get()
		if err != nil {
			return fmt.Errorf("failed to get settings: %w", err)
		}
		if current.Embedding.Provider != provider || current.Embedding.APIKey == "" {
			cmd.Printf("API key for %s: ", provider.Description())
			apiKey = readPassword()
			cmd.Println()
		}
	}

	if err := settingsService.SetEmbeddingProvider(provider, providerModel, providerEndpoint, apiKey); err != nil {
		return fmt.Errorf("failed to configure provider: %w", err)
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	cmd.Printf("Embedding provider configured: %s (%s)\n",
		settings.Embedding.Provider.Description(), settings.Embedding.Model)
	cmd.Println("Run 'vectorlite provider test' to check the connection.")
	return nil
}

func chooseProvider(cmd *cobra.Command, reader *bufio.Reader) domain.EmbeddingProviderName {
	providers := domain.AllEmbeddingProviders()
	cmd.Println("Embedding providers:")
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Printf("Select provider [1-%d] (default: 1): ", len(providers))
	choice := parseChoice(readLine(reader), len(providers), 1)
	return providers[choice-1]
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Try to read password without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// maskDSN hides the password in a postgres URL.
func maskDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return dsn
	}
	creds := dsn[scheme+3 : at]
	if user, _, ok := strings.Cut(creds, ":"); ok {
		return dsn[:scheme+3] + user + ":****" + dsn[at:]
	}
	return dsn
}
