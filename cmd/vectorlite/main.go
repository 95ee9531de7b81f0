// Command vectorlite is a local semantic search CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driven/ai"
	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driven/extract"
	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driven"
	"github.com/custodia-labs/vectorlite-cli/internal/core/services"
	"github.com/custodia-labs/vectorlite-cli/internal/logger"
	"github.com/custodia-labs/vectorlite-cli/internal/postprocessors"
)

// Set with -ldflags "-X main.version=v1.2.3".
var version = ""

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if err := file.LoadDotEnv(); err != nil {
		logger.Warn("Loading .env: %v", err)
	}

	cfg, err := file.NewConfigStore("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading config: %v\n", err)
		return err
	}

	settingsService := services.NewSettingsService(cfg, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: reading settings: %v\n", err)
		return err
	}

	store, err := openStorage(ctx, settings.Storage)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: opening %s storage: %v\n", settings.Storage.Driver, err)
		return err
	}
	defer store.Close()

	// A broken provider config must not block ingest or settings commands.
	provider, err := ai.NewFactory().Create(settings.Embedding)
	if err != nil {
		logger.Warn("Embedding provider unavailable: %v", err)
		provider = nil
	}

	pipeline, err := postprocessors.DefaultPipeline(settings.Chunking)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: building chunking pipeline: %v\n", err)
		return err
	}
	extractors := extract.Default()

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Ingest: services.NewIngestService(
			store.DocumentStore(), store.GroupStore(), pipeline, extractors),
		Queue:      services.NewQueueService(store.QueueStore(), store.EmbeddingStore(), provider),
		Search:     services.NewSearchService(store.EmbeddingStore(), provider),
		Group:      services.NewGroupService(store.GroupStore()),
		Document:   services.NewDocumentService(store.DocumentStore(), store.StatsStore()),
		Settings:   settingsService,
		Extractors: extractors,
	})

	return cli.Execute(ctx)
}

// openStorage opens the configured backend. For SQLite a DSN is the
// database file path; without one the default data directory is used.
func openStorage(ctx context.Context, s domain.StorageSettings) (driven.Storage, error) {
	switch s.Driver {
	case domain.StoragePostgres:
		if s.DSN == "" {
			return nil, fmt.Errorf("%w: storage.dsn is required for postgres", domain.ErrInvalidInput)
		}
		return postgres.NewStore(ctx, s.DSN)
	case domain.StorageMemory:
		return memory.NewStore(), nil
	default:
		if s.DSN != "" {
			return sqlite.Open(s.DSN)
		}
		return sqlite.NewStore("")
	}
}
