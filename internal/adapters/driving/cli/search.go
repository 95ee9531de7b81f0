package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
)

var (
	searchLimit     int
	searchThreshold float64
	searchGroups    []string
	searchJSON      bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search embedded segments",
	Long: `Embeds the query with the configured provider and ranks every stored
segment by cosine similarity. Only segments that have been drained are
searchable.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", domain.DefaultSearchLimit, "maximum number of results")
	searchCmd.Flags().Float64Var(&searchThreshold, "threshold", domain.DefaultSearchThreshold,
		"minimum similarity (default from search.threshold)")
	searchCmd.Flags().StringSliceVarP(&searchGroups, "group", "g", nil, "only search documents in these groups")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	if searchService == nil {
		return errors.New("search service not configured")
	}

	opts := domain.SearchOptions{
		Limit:     searchLimit,
		Threshold: searchThreshold,
		Groups:    searchGroups,
	}
	if settingsService != nil {
		if settings, err := settingsService.Get(); err == nil {
			if !cmd.Flags().Changed("threshold") {
				opts.Threshold = settings.Search.Threshold
			}
			if !cmd.Flags().Changed("limit") {
				opts.Limit = settings.Search.Limit
			}
		}
	}

	results, err := searchService.Search(cmd.Context(), query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}

	return outputSearchTable(cmd, results)
}

type searchHit struct {
	Score      float64  `json:"score"`
	DocumentID int64    `json:"document_id"`
	Title      string   `json:"title"`
	FileType   string   `json:"file_type"`
	Groups     []string `json:"groups"`
	SegmentID  int64    `json:"segment_id"`
	Index      int      `json:"index"`
	Content    string   `json:"content"`
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	hits := make([]searchHit, 0, len(results))
	for i := range results {
		r := &results[i]
		hits = append(hits, searchHit{
			Score:      r.Score,
			DocumentID: r.Document.ID,
			Title:      r.Document.Title,
			FileType:   r.Document.FileType,
			Groups:     r.Document.Groups,
			SegmentID:  r.Segment.ID,
			Index:      r.Segment.Index,
			Content:    r.Segment.Content,
		})
	}
	data, err := json.MarshalIndent(hits, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		r := &results[i]
		// Format: [N] Title #segment (Score)
		cmd.Printf("  [%d] %s.%s #%d (%.3f)\n", i+1, r.Document.Title, r.Document.FileType, r.Segment.Index, r.Score)
		cmd.Printf("      Groups: %s\n", strings.Join(r.Document.Groups, ", "))
		cmd.Printf("      %s\n", preview(r.Segment.Content, 160))
		cmd.Println()
	}
	return nil
}
