// Package sqlite is the default store: one database file holding documents,
// segments, the embedding queue, vectors and groups.
//
// It runs on modernc.org/sqlite, so builds need no C toolchain. Store
// implements DocumentStore, QueueStore, EmbeddingStore, GroupStore and
// StatsStore over a single *sql.DB opened in WAL mode.
//
// Vectors are little-endian float32 blobs, one row per segment. Queue
// claims are conditional UPDATEs on status, so two drains racing for the
// same entry cannot both win.
//
// Migrations live in migrations/ as numbered .up.sql/.down.sql pairs and
// are applied on Open. The default path is ~/.vectorlite/data/vectorlite.db.
package sqlite
