package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect and maintain the embedding queue",
}

var queueListCmd = &cobra.Command{
	Use:   "list",
	Short: "List queue entries",
	Args:  cobra.NoArgs,
	RunE:  runQueueList,
}

var queueStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count queue entries per status",
	Args:  cobra.NoArgs,
	RunE:  runQueueStats,
}

var queueRequeueCmd = &cobra.Command{
	Use:   "requeue",
	Short: "Reset failed entries to pending",
	Args:  cobra.NoArgs,
	RunE:  runQueueRequeue,
}

var queueRecoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Reset entries stranded in processing",
	Long: `Resets entries that have been processing for longer than --older-than
back to pending. Entries only get stranded when a drain is killed mid-batch.`,
	Args: cobra.NoArgs,
	RunE: runQueueRecover,
}

var (
	queueStatus      string
	queueLimit       int
	requeueDocuments []int64
	requeueGroups    []string
	recoverOlderThan time.Duration
)

func init() {
	queueListCmd.Flags().StringVar(&queueStatus, "status", "", "pending, processing, completed or failed")
	queueListCmd.Flags().IntVarP(&queueLimit, "limit", "n", 50, "maximum entries to show")
	queueRequeueCmd.Flags().Int64SliceVar(&requeueDocuments, "document", nil, "only requeue entries of these document IDs")
	queueRequeueCmd.Flags().StringSliceVarP(&requeueGroups, "group", "g", nil, "only requeue documents in these groups")
	queueRecoverCmd.Flags().DurationVar(&recoverOlderThan, "older-than", 0, "minimum time in processing (default from queue.stale_after)")

	queueCmd.AddCommand(queueListCmd)
	queueCmd.AddCommand(queueStatsCmd)
	queueCmd.AddCommand(queueRequeueCmd)
	queueCmd.AddCommand(queueRecoverCmd)
	rootCmd.AddCommand(queueCmd)
}

func runQueueList(cmd *cobra.Command, _ []string) error {
	if queueService == nil {
		return errors.New("queue service not configured")
	}

	entries, err := queueService.List(cmd.Context(), domain.QueueStatus(queueStatus), queueLimit)
	if err != nil {
		return fmt.Errorf("failed to list queue: %w", err)
	}
	if len(entries) == 0 {
		cmd.Println("Queue is empty.")
		return nil
	}

	for i := range entries {
		e := &entries[i]
		cmd.Printf("%6d  %-10s  doc %-5d seg %-6d attempts %d  %s\n",
			e.ID, e.Status, e.DocumentID, e.SegmentID, e.Attempts, e.UpdatedAt.Format(time.DateTime))
		if e.LastError != "" {
			cmd.Printf("        error: %s\n", e.LastError)
		}
	}
	return nil
}

func runQueueStats(cmd *cobra.Command, _ []string) error {
	if queueService == nil {
		return errors.New("queue service not configured")
	}

	stats, err := queueService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get queue stats: %w", err)
	}
	printQueueStats(cmd, stats)
	return nil
}

func runQueueRequeue(cmd *cobra.Command, _ []string) error {
	if queueService == nil {
		return errors.New("queue service not configured")
	}

	scope := domain.Scope{DocumentIDs: requeueDocuments, Groups: requeueGroups}
	n, err := queueService.Requeue(cmd.Context(), scope)
	if err != nil {
		return fmt.Errorf("requeue failed: %w", err)
	}
	cmd.Printf("Requeued %d failed entries.\n", n)
	return nil
}

func runQueueRecover(cmd *cobra.Command, _ []string) error {
	if queueService == nil {
		return errors.New("queue service not configured")
	}

	olderThan := recoverOlderThan
	if olderThan <= 0 && settingsService != nil {
		if settings, err := settingsService.Get(); err == nil {
			olderThan = settings.Queue.StaleAfter
		}
	}

	n, err := queueService.Recover(cmd.Context(), olderThan)
	if err != nil {
		return fmt.Errorf("recover failed: %w", err)
	}
	cmd.Printf("Recovered %d stranded entries.\n", n)
	return nil
}

func printQueueStats(cmd *cobra.Command, stats domain.QueueStats) {
	cmd.Println("[Queue]")
	cmd.Printf("  Pending:    %d\n", stats.Pending)
	cmd.Printf("  Processing: %d\n", stats.Processing)
	cmd.Printf("  Completed:  %d\n", stats.Completed)
	cmd.Printf("  Failed:     %d\n", stats.Failed)
}
