package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
)

var providerCmd = &cobra.Command{
	Use:   "provider",
	Short: "Embedding provider commands",
}

var providerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List supported embedding providers",
	Args:  cobra.NoArgs,
	RunE:  runProviderList,
}

var providerTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Embed a probe string with the configured provider",
	Args:  cobra.NoArgs,
	RunE:  runProviderTest,
}

func init() {
	providerCmd.AddCommand(providerListCmd)
	providerCmd.AddCommand(providerTestCmd)
	rootCmd.AddCommand(providerCmd)
}

func runProviderList(cmd *cobra.Command, _ []string) error {
	var current domain.EmbeddingProviderName
	if settingsService != nil {
		if settings, err := settingsService.Get(); err == nil {
			current = settings.Embedding.Provider
		}
	}

	for _, p := range domain.AllEmbeddingProviders() {
		d := domain.DefaultsFor(p)
		marker := " "
		if p == current {
			marker = "*"
		}
		key := ""
		if p.RequiresAPIKey() {
			key = "  (API key)"
		}
		cmd.Printf("%s %-9s %-24s %s%s\n", marker, p, d.Model, d.Endpoint, key)
	}
	return nil
}

func runProviderTest(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cmd.Print("Testing embedding provider... ")
	check, err := settingsService.TestProvider(cmd.Context())
	if err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("provider test failed: %w", err)
	}
	cmd.Println("OK")
	cmd.Printf("%s returned %d dimensions with model %s\n", check.Provider.Description(), check.Dimensions, check.Model)
	return nil
}
