package domain

import "time"

// Document is an ingested file with its full extracted text.
type Document struct {
	// ID is the store-assigned identifier. Zero until saved.
	ID int64

	// Key is an opaque unique key, e.g. "doc_<uuid>".
	Key string

	// Title is the file name without its extension.
	Title string

	// Content is the full extracted text.
	Content string

	// FileType is the lowercased file extension, e.g. "md".
	FileType string

	// Size is the original file size in bytes.
	Size int64

	// Groups are the names of the groups this document belongs to.
	Groups []string

	// CreatedAt is when the document was first ingested.
	CreatedAt time.Time

	// UpdatedAt is when the content was last replaced.
	UpdatedAt time.Time
}

// InGroup reports whether the document belongs to the named group.
func (d *Document) InGroup(name string) bool {
	for _, g := range d.Groups {
		if g == name {
			return true
		}
	}
	return false
}

// Segment is a bounded slice of a document's text.
type Segment struct {
	// ID is the store-assigned identifier. Zero until saved.
	ID int64

	// DocumentID is the owning document.
	DocumentID int64

	// Index is the zero-based position within the document.
	Index int

	// Content is the segment text.
	Content string

	// TokenCount is an estimate used for display only.
	TokenCount int

	// CreatedAt is when the segment was produced.
	CreatedAt time.Time
}
