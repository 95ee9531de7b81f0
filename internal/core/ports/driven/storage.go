package driven

// Storage is a storage backend exposing every store over one connection.
// SQLite, PostgreSQL and in-memory backends implement it.
type Storage interface {
	DocumentStore() DocumentStore
	QueueStore() QueueStore
	EmbeddingStore() EmbeddingStore
	GroupStore() GroupStore
	StatsStore() StatsStore
	Close() error
}
