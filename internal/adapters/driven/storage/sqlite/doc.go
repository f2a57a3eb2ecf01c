// Package sqlite provides a unified SQLite-based implementation of the
// persistence ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements several ports through
// a single database connection:
//
//   - VectorIndex: chunk embeddings with cosine similarity search
//   - SessionStore: conversation turns for session memory
//   - IngestionStatusStore: per-document ingestion progress
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.ragent/data/ragent.db
//
// # Thread Safety
//
// All operations are thread-safe. The store runs SQLite in WAL mode so a
// search reads a consistent snapshot while another goroutine replaces a
// document's records in a transaction.
package sqlite
