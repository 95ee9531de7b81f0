package cli

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarise the store",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	stats, err := documentService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	cmd.Println("[Store]")
	cmd.Printf("  Documents:  %s\n", humanize.Comma(int64(stats.Documents)))
	cmd.Printf("  Segments:   %s\n", humanize.Comma(int64(stats.Segments)))
	cmd.Printf("  Embeddings: %s\n", humanize.Comma(int64(stats.Embeddings)))
	cmd.Printf("  Groups:     %s\n", humanize.Comma(int64(stats.Groups)))
	cmd.Println()
	printQueueStats(cmd, stats.Queue)
	return nil
}
