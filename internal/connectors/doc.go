// Package connectors holds document sources that feed the ingest service.
// The filesystem connector watches an inbox directory; files appearing in
// it are ingested without an explicit 'vectorlite ingest'.
package connectors
