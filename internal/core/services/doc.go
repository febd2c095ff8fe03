// Package services implements the driving ports.
//
// RetrievalService answers queries and rebuilds a document's paragraph set.
// DocumentService owns the document lifecycle and processes content inline.
// SettingsService maps the flat configuration keys onto domain.AppSettings.
// SimilarityIndex is the shared vector search used by retrieval; it scans
// stored embeddings exactly and may delegate to an approximate index.
package services
