// Package connectors provides the document sources that feed the library
// outside of explicit uploads. The filesystem connector watches a directory
// and reports file changes for inline ingestion.
package connectors
