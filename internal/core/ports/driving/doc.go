// Package driving holds the use cases the CLI, TUI and MCP server call:
// ingest, search, queue maintenance, documents and groups.
// internal/core/services implements every interface here.
package driving
