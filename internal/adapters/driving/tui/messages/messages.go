// Package messages holds the tea.Msg values exchanged between the TUI
// views and the app router.
package messages

import (
	"time"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
)

// ViewType identifies a screen.
type ViewType int

// Screens, in menu order where they appear there.
const (
	ViewMenu ViewType = iota
	ViewSearch
	ViewHelp
	ViewDocuments
	ViewDocContent
	ViewDrain
)

var viewNames = map[ViewType]string{
	ViewMenu:       "menu",
	ViewSearch:     "search",
	ViewHelp:       "help",
	ViewDocuments:  "documents",
	ViewDocContent: "doc_content",
	ViewDrain:      "drain",
}

func (v ViewType) String() string {
	if name, ok := viewNames[v]; ok {
		return name
	}
	return "unknown"
}

// ViewChanged asks the app to switch screens.
type ViewChanged struct {
	View ViewType
}

// ErrorOccurred reports a failure to the active view.
type ErrorOccurred struct {
	Err error
}

// Quit exits the program.
type Quit struct{}

// SearchCompleted carries the ranked results of a query and how long it took.
type SearchCompleted struct {
	Query   string
	Results []domain.SearchResult
	Elapsed time.Duration
	Err     error
}

// Document screens.
type (
	DocumentsLoaded struct {
		Documents []domain.Document
		Err       error
	}

	DocumentSelected struct {
		Document domain.Document
	}

	// DocumentContentLoaded carries the refreshed document and its segments.
	DocumentContentLoaded struct {
		DocumentID int64
		Document   *domain.Document
		Segments   []domain.Segment
		Err        error
	}

	DocumentDeleted struct {
		DocumentID int64
		Err        error
	}
)

// Queue screens.
type (
	QueueStatsLoaded struct {
		Stats domain.QueueStats
		Err   error
	}

	// DrainBatchCompleted carries the report of one claimed batch.
	DrainBatchCompleted struct {
		Report *domain.DrainReport
		Err    error
	}

	// DrainFinished means no pending entries remain in scope.
	DrainFinished struct {
		Report *domain.DrainReport
	}

	RequeueCompleted struct {
		Count int
		Err   error
	}
)
