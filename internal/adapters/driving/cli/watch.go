package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/vectorlite-cli/internal/connectors/filesystem"
	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driving"
	"github.com/custodia-labs/vectorlite-cli/internal/core/services"
	"github.com/custodia-labs/vectorlite-cli/internal/logger"
)

var (
	watchGroups   []string
	watchExisting bool
	watchDrain    bool
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Ingest files dropped into an inbox directory",
	Long: `Watches a directory and ingests every supported file that is created
or changed in it. The directory defaults to watch.inbox, or ~/.vectorlite/inbox
when that is unset.

Changed files replace the document ingested from them earlier. Removed
files are left in the store. Press Ctrl+C to stop.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringSliceVarP(&watchGroups, "group", "g", nil, "group to add the documents to (repeatable)")
	watchCmd.Flags().BoolVar(&watchExisting, "existing", false, "ingest files already in the directory first")
	watchCmd.Flags().BoolVar(&watchDrain, "drain", false, "embed each document right after ingesting it")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", filesystem.DefaultDebounce, "quiet time before a changed file is ingested")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}
	if watchDrain && queueService == nil {
		return errors.New("queue service not configured")
	}

	dir, err := inboxDir(args)
	if err != nil {
		return err
	}

	w := filesystem.New(dir,
		filesystem.WithDebounce(watchDebounce),
		filesystem.WithFilter(supportedFile))
	defer w.Close()

	ctx := cmd.Context()
	if watchExisting {
		paths, err := w.Scan()
		if err != nil {
			return err
		}
		for _, path := range paths {
			watchIngest(ctx, cmd, path)
		}
	}

	events, err := w.Watch(ctx)
	if err != nil {
		return err
	}
	cmd.Printf("Watching %s (Ctrl+C to stop)\n", dir)

	for ev := range events {
		switch ev.Type {
		case filesystem.EventCreated, filesystem.EventUpdated:
			watchIngest(ctx, cmd, ev.Path)
		case filesystem.EventRemoved:
			logger.Debug("Ignoring removal of %s", ev.Path)
		}
	}
	return nil
}

// inboxDir resolves the watched directory. The default inbox is created
// on first use.
func inboxDir(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if settingsService != nil {
		if settings, err := settingsService.Get(); err == nil && settings.WatchInbox != "" {
			return settings.WatchInbox, nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	dir := filepath.Join(home, ".vectorlite", "inbox")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("creating inbox: %w", err)
	}
	return dir, nil
}

func supportedFile(path string) bool {
	if extractors == nil {
		return true
	}
	_, fileType := services.SplitFileName(path)
	return fileType == "" || extractors.Supports(fileType)
}

func watchIngest(ctx context.Context, cmd *cobra.Command, path string) {
	res, err := ingestService.IngestFile(ctx, path, watchGroups, driving.DuplicateReplace)
	if err != nil {
		cmd.PrintErrf("%s: %v\n", filepath.Base(path), err)
		return
	}
	cmd.Printf("%s  %s (%s) -> document %d, %d segments\n",
		time.Now().Format(time.TimeOnly), filepath.Base(path), fileSize(path), res.DocumentID, res.SegmentCount)

	if !watchDrain {
		return
	}
	scope := domain.Scope{DocumentIDs: []int64{res.DocumentID}}
	for offset := 0; ; offset++ {
		report, err := queueService.DrainBatch(ctx, scope, 0, offset)
		if err != nil {
			cmd.PrintErrf("drain document %d: %v\n", res.DocumentID, err)
			return
		}
		if !report.HasMore {
			cmd.Printf("          processed %d/%d segments\n", report.Completed, report.Total)
			return
		}
	}
}

func fileSize(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return "?"
	}
	return humanize.Bytes(uint64(info.Size()))
}
