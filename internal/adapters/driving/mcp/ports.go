package mcp

import (
	"github.com/custodia-labs/vectorlite-cli/internal/core/ports/driving"
)

// Ports are the services behind the tools and resources. Only Search is
// required; a tool whose service is nil answers with an error result.
type Ports struct {
	Search   driving.SearchService
	Queue    driving.QueueService
	Document driving.DocumentService
	Group    driving.GroupService
}

// Validate reports ErrMissingSearchService when Search is unset.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
