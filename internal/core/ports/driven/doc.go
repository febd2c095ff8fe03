// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - DocumentStore: Document metadata persistence
//   - ParagraphStore: Atomic per-document paragraph/embedding persistence
//   - DocumentCatalog: Owner-scoped lookup of processed documents
//   - EmbeddingService: Text to vector. The deterministic embedder is always available.
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - VectorIndex: Approximate nearest neighbour delegate (Qdrant). Without it,
//     or whenever it fails, similarity queries use the exact cosine scan.
//   - Extractor: Text extraction from uploaded files. Only the CLI and watcher use it.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
