// Package driven lists what core needs from infrastructure.
//
// Storage is split by concern (DocumentStore, QueueStore, EmbeddingStore,
// GroupStore, StatsStore) so a single adapter such as sqlite.Store can
// satisfy all of them while tests swap in the memory store. ConfigStore,
// Extractor and PostProcessor cover settings and text handling.
//
// EmbeddingProvider may be nil. Ingest still queues work; draining and
// search then fail with domain.ErrEmbeddingUnavailable.
//
// This package imports domain and nothing else from internal/.
package driven
