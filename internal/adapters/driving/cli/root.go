// Package cli implements the vectorlite command line interface with cobra.
// Commands talk to the core only through driving ports, injected by
// cmd/vectorlite before Execute runs.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driven"
	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driving"
	"github.com/custodia-labs/vectorlite-cli/internal/logger"
)

// version is set at build time with -ldflags "-X ...cli.version=v1.2.3".
var version = "dev"

var verbose bool

// Services holds everything the commands need.
// Any field may be nil; commands that need a missing one fail with a
// "not configured" error.
type Services struct {
	Ingest     driving.IngestService
	Queue      driving.QueueService
	Search     driving.SearchService
	Group      driving.GroupService
	Document   driving.DocumentService
	Settings   driving.SettingsService
	Extractors driven.ExtractorRegistry
}

var (
	ingestService   driving.IngestService
	queueService    driving.QueueService
	searchService   driving.SearchService
	groupService    driving.GroupService
	documentService driving.DocumentService
	settingsService driving.SettingsService
	extractors      driven.ExtractorRegistry
)

var rootCmd = &cobra.Command{
	Use:   "vectorlite",
	Short: "Local semantic search over your documents",
	Long: `vectorlite ingests documents, splits them into segments, embeds each
segment with a configurable provider and answers similarity queries.

Embedding is queued: ingest never calls the provider. Run 'vectorlite drain'
to embed pending segments, then 'vectorlite search' to query them.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug output to stderr")
}

// SetServices injects the core services used by every command.
func SetServices(s Services) {
	ingestService = s.Ingest
	queueService = s.Queue
	searchService = s.Search
	groupService = s.Group
	documentService = s.Document
	settingsService = s.Settings
	extractors = s.Extractors
}

// SetVersion sets the version reported by 'vectorlite version'.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
