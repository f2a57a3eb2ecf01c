// Package postgres implements the persistence ports on PostgreSQL with the
// pgvector extension.
//
// Vectors are stored in a vector(N) column where N is fixed when the schema
// is first created. Similarity search runs in the database using the cosine
// distance operator (<=>); similarity is reported as 1 - distance.
//
// The same Store provides:
//
//   - VectorIndex: chunk embeddings with cosine similarity search
//   - SessionStore: conversation turns for session memory
//   - IngestionStatusStore: per-document ingestion progress
//
// Writes that replace a document's chunks run in a single transaction, so a
// concurrent search (READ COMMITTED) sees either the old or the new set.
package postgres
