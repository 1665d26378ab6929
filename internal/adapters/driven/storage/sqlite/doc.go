// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO. It implements multiple store interfaces through a single database:
//
//   - RecordStore: document records, including one-time data migrations
//   - FragmentStore: extracted text fragments
//   - VectorIndex: fragment embeddings with cosine scoring
//   - SchedulerStore: scheduled task state and run history
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.ndavault/data/ndavault.db
//
// # Thread Safety
//
// All operations are thread-safe. The store runs SQLite in WAL mode over a
// single connection, so record updates are serialised.
package sqlite
