package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query     string   `json:"query" jsonschema:"the text to find similar segments for"`
	Limit     int      `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
	Threshold *float64 `json:"threshold,omitempty" jsonschema:"minimum cosine similarity between -1 and 1 (default 0.3)"`
	Groups    []string `json:"groups,omitempty" jsonschema:"only search documents in these groups"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	DocumentID   int64    `json:"document_id"`
	Title        string   `json:"title"`
	FileType     string   `json:"file_type"`
	Groups       []string `json:"groups,omitempty"`
	SegmentID    int64    `json:"segment_id"`
	SegmentIndex int      `json:"segment_index"`
	Score        float64  `json:"score"`
	Content      string   `json:"content"`
}

// DrainInput is the input schema for the drain tool.
type DrainInput struct {
	Size        int      `json:"size,omitempty" jsonschema:"entries per batch (default 10)"`
	Offset      int      `json:"offset,omitempty" jsonschema:"batch index, increase by one to continue a paginated drain"`
	DocumentIDs []int64  `json:"document_ids,omitempty" jsonschema:"only drain segments of these documents"`
	Groups      []string `json:"groups,omitempty" jsonschema:"only drain documents in these groups"`
}

// DrainOutput is the output schema for the drain tool.
type DrainOutput struct {
	Total     int                 `json:"total"`
	Completed int                 `json:"completed"`
	Progress  float64             `json:"progress_percent"`
	Succeeded int                 `json:"succeeded"`
	Failed    int                 `json:"failed"`
	HasMore   bool                `json:"has_more"`
	Results   []DrainResultOutput `json:"results"`
}

// DrainResultOutput is the outcome of one queue entry.
type DrainResultOutput struct {
	EntryID    int64  `json:"entry_id"`
	SegmentID  int64  `json:"segment_id"`
	DocumentID int64  `json:"document_id"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	Dimensions int    `json:"dimensions,omitempty"`
}

// RequeueInput is the input schema for the requeue tool.
type RequeueInput struct {
	DocumentIDs []int64  `json:"document_ids,omitempty" jsonschema:"only requeue entries of these documents"`
	Groups      []string `json:"groups,omitempty" jsonschema:"only requeue documents in these groups"`
}

// RequeueOutput is the output schema for the requeue tool.
type RequeueOutput struct {
	Requeued int `json:"requeued"`
}

// StatsInput is the (empty) input schema for the stats tool.
type StatsInput struct{}

// StatsOutput is the output schema for the stats tool.
type StatsOutput struct {
	Documents  int `json:"documents"`
	Segments   int `json:"segments"`
	Embeddings int `json:"embeddings"`
	Groups     int `json:"groups"`
	Pending    int `json:"queue_pending"`
	Processing int `json:"queue_processing"`
	Completed  int `json:"queue_completed"`
	Failed     int `json:"queue_failed"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.protocol, &mcp.Tool{
		Name:        "search",
		Description: "Find the stored text segments most similar to a query",
	}, s.handleSearch)

	mcp.AddTool(s.protocol, &mcp.Tool{
		Name:        "drain",
		Description: "Embed one batch of pending queue entries; repeat with offset+1 while has_more is true",
	}, s.handleDrain)

	mcp.AddTool(s.protocol, &mcp.Tool{
		Name:        "requeue",
		Description: "Reset failed queue entries to pending so the next drain retries them",
	}, s.handleRequeue)

	mcp.AddTool(s.protocol, &mcp.Tool{
		Name:        "stats",
		Description: "Count documents, segments, embeddings, groups and queue entries",
	}, s.handleStats)
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	opts := domain.DefaultSearchOptions()
	if input.Limit > 0 {
		opts.Limit = input.Limit
	}
	if input.Threshold != nil {
		opts.Threshold = *input.Threshold
	}
	opts.Groups = input.Groups

	results, err := s.ports.Search.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}

	for i := range results {
		output.Results[i] = SearchResultOutput{
			DocumentID:   results[i].Document.ID,
			Title:        results[i].Document.Title,
			FileType:     results[i].Document.FileType,
			Groups:       results[i].Document.Groups,
			SegmentID:    results[i].Segment.ID,
			SegmentIndex: results[i].Segment.Index,
			Score:        results[i].Score,
			Content:      results[i].Segment.Content,
		}
	}

	return nil, output, nil
}

// handleDrain handles the drain tool invocation.
func (s *Server) handleDrain(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DrainInput,
) (*mcp.CallToolResult, DrainOutput, error) {
	if s.ports.Queue == nil {
		return nil, DrainOutput{}, errQueueUnavailable
	}

	scope := domain.Scope{DocumentIDs: input.DocumentIDs, Groups: input.Groups}
	report, err := s.ports.Queue.DrainBatch(ctx, scope, input.Size, input.Offset)
	if err != nil {
		return nil, DrainOutput{}, err
	}

	output := DrainOutput{
		Total:     report.Total,
		Completed: report.Completed,
		Progress:  report.ProgressPercent(),
		Succeeded: report.Succeeded(),
		Failed:    report.Failed(),
		HasMore:   report.HasMore,
		Results:   make([]DrainResultOutput, len(report.Results)),
	}
	for i, r := range report.Results {
		output.Results[i] = DrainResultOutput{
			EntryID:    r.EntryID,
			SegmentID:  r.SegmentID,
			DocumentID: r.DocumentID,
			Status:     string(r.Status),
			Error:      r.Error,
			Dimensions: r.Dimensions,
		}
	}

	return nil, output, nil
}

// handleRequeue handles the requeue tool invocation.
func (s *Server) handleRequeue(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RequeueInput,
) (*mcp.CallToolResult, RequeueOutput, error) {
	if s.ports.Queue == nil {
		return nil, RequeueOutput{}, errQueueUnavailable
	}

	n, err := s.ports.Queue.Requeue(ctx, domain.Scope{DocumentIDs: input.DocumentIDs, Groups: input.Groups})
	if err != nil {
		return nil, RequeueOutput{}, err
	}
	return nil, RequeueOutput{Requeued: n}, nil
}

// handleStats handles the stats tool invocation.
func (s *Server) handleStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatsInput,
) (*mcp.CallToolResult, StatsOutput, error) {
	if s.ports.Document == nil {
		return nil, StatsOutput{}, errDocumentsUnavailable
	}

	stats, err := s.ports.Document.Stats(ctx)
	if err != nil {
		return nil, StatsOutput{}, err
	}
	return nil, StatsOutput{
		Documents:  stats.Documents,
		Segments:   stats.Segments,
		Embeddings: stats.Embeddings,
		Groups:     stats.Groups,
		Pending:    stats.Queue.Pending,
		Processing: stats.Queue.Processing,
		Completed:  stats.Queue.Completed,
		Failed:     stats.Queue.Failed,
	}, nil
}
