// Package filesystem watches a local inbox directory for files to ingest.
//
// The watcher is non-recursive: only files directly inside the root are
// reported. Hidden files and anything under a hidden directory below the
// root are ignored. Bursts of writes to one file are coalesced into a
// single event once the file has been quiet for the debounce interval.
package filesystem
