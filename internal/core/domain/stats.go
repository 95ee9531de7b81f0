package domain

// Stats summarises the contents of the store.
type Stats struct {
	Documents  int
	Segments   int
	Embeddings int
	Groups     int
	Queue      QueueStats
}
