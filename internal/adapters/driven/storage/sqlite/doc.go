// Package sqlite provides the SQLite-backed document and paragraph stores.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. One database connection serves three ports:
//
//   - DocumentStore: document metadata and extracted content
//   - ParagraphStore: paragraph text and embeddings per document
//   - DocumentCatalog: the owner-scoped view consulted by retrieval
//
// # Schema
//
// The schema is managed through versioned migrations in the migrations/
// directory. Embeddings are stored as little-endian float32 BLOBs.
//
// # Consistency
//
// A document's paragraph set is replaced in a single transaction, and reads
// of several documents share one read transaction. In WAL mode readers see
// either the old or the new set, never a mix.
//
// # Data Location
//
// By default, the database is stored at ~/.libsearch/data/library.db
package sqlite
