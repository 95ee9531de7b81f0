// Package mcp serves vectorlite over the Model Context Protocol: search,
// queue drain and requeue, and store stats as tools, groups as a resource.
package mcp

import "errors"

var (
	ErrMissingSearchService = errors.New("mcp: search service is required")

	errQueueUnavailable     = errors.New("mcp: queue service not configured")
	errDocumentsUnavailable = errors.New("mcp: document service not configured")
)
