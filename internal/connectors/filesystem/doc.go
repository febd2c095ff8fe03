// Package filesystem watches a local directory for document changes.
//
// A Watcher reports files that were created, modified or removed under its
// root. Hidden files and directories are ignored, as are files the supplied
// filter rejects. Each reported change carries the file content and its
// HighwayHash fingerprint so callers can skip unchanged rewrites.
package filesystem
