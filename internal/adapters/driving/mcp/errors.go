// Package mcp provides an MCP (Model Context Protocol) server adapter for libsearch.
// It lets AI assistants query a user's library and trigger reprocessing.
package mcp

import "errors"

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")
