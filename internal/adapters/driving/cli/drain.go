package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driving/tui"
	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
)

var (
	drainSize      int
	drainOffset    int
	drainAll       bool
	drainProgress  bool
	drainDryRun    bool
	drainDocuments []int64
	drainGroups    []string
)

var drainCmd = &cobra.Command{
	Use:   "drain",
	Short: "Embed pending segments",
	Long: `Claims pending queue entries, embeds their text with the configured
provider and stores the vectors. Failed entries are marked failed and left
for 'vectorlite queue requeue'.

Without flags one batch is processed. Repeat with --offset 1, 2 ... until
no entries remain, or use --all to loop until the queue is empty, or
--progress to watch the batches in an interactive progress view.`,
	Args: cobra.NoArgs,
	RunE: runDrain,
}

func init() {
	drainCmd.Flags().IntVarP(&drainSize, "size", "s", 0, "entries per batch (default from queue.batch_size)")
	drainCmd.Flags().IntVar(&drainOffset, "offset", 0, "batch index, for resuming paginated drains")
	drainCmd.Flags().BoolVar(&drainAll, "all", false, "drain every pending entry")
	drainCmd.Flags().BoolVar(&drainProgress, "progress", false, "show an interactive progress bar")
	drainCmd.Flags().BoolVar(&drainDryRun, "dry-run", false, "list the entries the batch would process")
	drainCmd.Flags().Int64SliceVar(&drainDocuments, "document", nil, "only drain segments of these document IDs")
	drainCmd.Flags().StringSliceVarP(&drainGroups, "group", "g", nil, "only drain documents in these groups")
	drainCmd.MarkFlagsMutuallyExclusive("all", "progress", "dry-run")
	rootCmd.AddCommand(drainCmd)
}

func runDrain(cmd *cobra.Command, _ []string) error {
	if queueService == nil {
		return errors.New("queue service not configured")
	}

	ctx := cmd.Context()
	scope := domain.Scope{DocumentIDs: drainDocuments, Groups: drainGroups}
	size := drainBatchSize()

	switch {
	case drainDryRun:
		entries, err := queueService.Plan(ctx, scope, size, drainOffset)
		if err != nil {
			return fmt.Errorf("plan failed: %w", err)
		}
		printPlan(cmd, entries)
		return nil

	case drainAll:
		if !scope.IsGlobal() {
			return errors.New("--all drains the whole queue; drop --document and --group")
		}
		report, err := queueService.DrainAll(ctx, drainSize)
		if report != nil {
			printDrainReport(cmd, report)
		}
		if err != nil {
			return fmt.Errorf("drain failed: %w", err)
		}
		return nil

	case drainProgress:
		report, err := tui.RunDrain(ctx, queueService, scope, size)
		if report != nil {
			printDrainSummary(cmd, report)
		}
		return err

	default:
		report, err := queueService.DrainBatch(ctx, scope, size, drainOffset)
		if report != nil {
			printDrainReport(cmd, report)
		}
		if err != nil {
			return fmt.Errorf("drain failed: %w", err)
		}
		if report.HasMore {
			cmd.Printf("More entries pending: run 'vectorlite drain --offset %d'\n", drainOffset+1)
		}
		return nil
	}
}

// drainBatchSize returns --size, falling back to the configured batch size.
func drainBatchSize() int {
	if drainSize > 0 || settingsService == nil {
		return drainSize
	}
	settings, err := settingsService.Get()
	if err != nil {
		return 0
	}
	return settings.Queue.BatchSize
}

func printPlan(cmd *cobra.Command, entries []domain.QueueEntry) {
	if len(entries) == 0 {
		cmd.Println("Nothing pending.")
		return
	}
	cmd.Printf("Batch would process %d entries:\n", len(entries))
	for i := range entries {
		e := &entries[i]
		cmd.Printf("  entry %d  document %d  segment %d  %s\n",
			e.ID, e.DocumentID, e.SegmentID, preview(e.Content, 50))
	}
}

func printDrainReport(cmd *cobra.Command, report *domain.DrainReport) {
	for _, res := range report.Results {
		if res.Status == domain.QueueStatusFailed {
			cmd.Printf("  entry %d (segment %d) failed: %s\n", res.EntryID, res.SegmentID, res.Error)
		}
	}
	printDrainSummary(cmd, report)
}

func printDrainSummary(cmd *cobra.Command, report *domain.DrainReport) {
	cmd.Printf("Embedded %d, failed %d (%d/%d, %.0f%%)\n",
		report.Succeeded(), report.Failed(), report.Completed, report.Total, report.ProgressPercent())
}
