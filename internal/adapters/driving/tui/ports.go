// Package tui provides an interactive terminal user interface for vectorlite.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"errors"

	"github.com/custodia-labs/vectorlite-cli/internal/core/domain"
	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driving"
)

// Validation errors.
var (
	ErrInvalidPorts         = errors.New("tui: invalid ports configuration")
	ErrMissingSearchService = errors.New("tui: search service is required")
	ErrMissingQueueService  = errors.New("tui: queue service is required")
)

// Ports aggregates the driving ports the TUI uses.
type Ports struct {
	// Search ranks segments against a query. Required.
	Search driving.SearchService

	// Queue drains and requeues embedding work.
	Queue driving.QueueService

	// Document lists, shows and deletes documents.
	Document driving.DocumentService

	// SearchOptions seeds the limit and threshold of TUI searches.
	SearchOptions domain.SearchOptions

	// BatchSize is the drain view's batch size.
	BatchSize int
}

// NewPorts creates a Ports aggregate with default search options.
func NewPorts(
	search driving.SearchService,
	queue driving.QueueService,
	document driving.DocumentService,
) *Ports {
	return &Ports{
		Search:        search,
		Queue:         queue,
		Document:      document,
		SearchOptions: domain.DefaultSearchOptions(),
		BatchSize:     domain.DefaultBatchSize,
	}
}

// Validate ensures the required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
