package domain

import "time"

// Embedding is the vector computed for a single segment.
// A segment has at most one embedding; re-embedding replaces it.
type Embedding struct {
	ID         int64
	SegmentID  int64
	Vector     []float32
	Model      string
	Dimensions int
	CreatedAt  time.Time
}

// EmbeddingResult is what a provider returns for one piece of text.
type EmbeddingResult struct {
	// Vector is the flat embedding.
	Vector []float32

	// Model is the model name that produced the vector.
	Model string
}

// Dimensions returns the length of the vector.
func (r *EmbeddingResult) Dimensions() int {
	return len(r.Vector)
}

// Candidate is a stored vector joined to its segment and document,
// loaded for scoring during search.
type Candidate struct {
	Segment  Segment
	Document Document
	Vector   []float32
}
