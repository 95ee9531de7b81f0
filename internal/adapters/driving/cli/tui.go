package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driving/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface for vectorlite.

The TUI searches embedded segments, browses ingested documents and drains
the embedding queue with a live progress bar.

Controls:
  ↑/k, ↓/j  - Navigate
  Enter     - Search / Open
  group:x   - Restrict a search to group x
  d, space  - Drain / pause (drain view)
  r         - Requeue failed entries (drain view)
  Esc       - Back
  q         - Quit`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = errors.New("TUI crashed")
		}
	}()

	if searchService == nil {
		return errors.New("search service not configured")
	}

	ports := tui.NewPorts(searchService, queueService, documentService)
	if settingsService != nil {
		if settings, serr := settingsService.Get(); serr == nil {
			ports.SearchOptions = settings.Search
			if settings.Queue.BatchSize > 0 {
				ports.BatchSize = settings.Queue.BatchSize
			}
		}
	}

	app, err := tui.NewApp(ports)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	if err := app.WithContext(cmd.Context()).Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
