// Package sqlite provides a local-file implementation of driven.CorpusStore.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Embeddings are stored as little-endian
// float32 blobs and similarity search is a brute-force cosine scan of one
// collection, which is adequate for the single-document corpora docqa ingests.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files;
// applied versions are recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.docqa/data/corpus.db
//
// # Atomicity
//
// ReplaceCollection runs in a single transaction, so readers see either the
// previous collection or the new one.
package sqlite
