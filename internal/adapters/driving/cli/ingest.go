package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driving"
)

var (
	ingestGroups []string
	ingestSkip   bool
	ingestTitle  string
	ingestType   string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Add documents to the store",
	Long: `Extracts text from each file, splits it into segments and queues every
segment for embedding. Nothing is sent to the embedding provider until the
queue is drained.

A document whose title and file type match an existing one replaces it,
unless --skip-duplicates is set. Use "-" to read text from stdin, in which
case --title is required.

Examples:
  vectorlite ingest notes.md report.docx --group work
  cat todo.txt | vectorlite ingest - --title todo`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringSliceVarP(&ingestGroups, "group", "g", nil, "group to add the documents to (repeatable)")
	ingestCmd.Flags().BoolVar(&ingestSkip, "skip-duplicates", false, "leave existing documents with the same title untouched")
	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "document title when reading from stdin")
	ingestCmd.Flags().StringVar(&ingestType, "type", "txt", "file type when reading from stdin")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	policy := driving.DuplicateReplace
	if ingestSkip {
		policy = driving.DuplicateSkip
	}

	var failed int
	for _, path := range args {
		var (
			res *driving.IngestResult
			err error
		)
		if path == "-" {
			res, err = ingestStdin(cmd, policy)
			path = "stdin"
		} else {
			res, err = ingestService.IngestFile(cmd.Context(), path, ingestGroups, policy)
		}
		if err != nil {
			cmd.PrintErrf("%s: %v\n", path, err)
			failed++
			continue
		}
		printIngestResult(cmd, path, res)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d inputs failed", failed, len(args))
	}
	return nil
}

func ingestStdin(cmd *cobra.Command, policy driving.DuplicatePolicy) (*driving.IngestResult, error) {
	if strings.TrimSpace(ingestTitle) == "" {
		return nil, errors.New("--title is required when reading from stdin")
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	return ingestService.Ingest(cmd.Context(), driving.IngestRequest{
		Title:       ingestTitle,
		FileType:    ingestType,
		Content:     string(data),
		Size:        int64(len(data)),
		Groups:      ingestGroups,
		OnDuplicate: policy,
	})
}

func printIngestResult(cmd *cobra.Command, path string, res *driving.IngestResult) {
	switch {
	case res.Skipped:
		cmd.Printf("Skipped %s: already ingested as document %d\n", path, res.DocumentID)
	case res.Replaced:
		cmd.Printf("Replaced document %d from %s (%s segments queued)\n",
			res.DocumentID, path, humanize.Comma(int64(res.SegmentCount)))
	default:
		cmd.Printf("Ingested %s as document %d (%s segments queued)\n",
			path, res.DocumentID, humanize.Comma(int64(res.SegmentCount)))
	}
}
