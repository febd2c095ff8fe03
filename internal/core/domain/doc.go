// Package domain holds the entities and rules shared by every libsearch layer.
//
// The types are plain data plus validation:
//
//   - Document: text uploaded by one owner, with its processing state
//   - Paragraph and ParagraphSet: the retrievable units of a document and
//     the embeddings that locate them
//   - SearchResult and SearchOptions: a ranked match and the query scope
//   - AppSettings: persisted segmenter, embedding and vector backend choices
//
// Vector helpers (Normalize, CosineSimilarity) live here so storage
// adapters and services agree on the embedding geometry.
//
// Nothing in this package imports another libsearch package or a
// third-party module.
package domain
