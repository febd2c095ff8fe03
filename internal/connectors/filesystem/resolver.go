package filesystem

import (
	"path/filepath"
	"strings"
)

const fileScheme = "file://"

// LocalPath converts a document URI to a local path.
// Handles file:// URIs and bare paths.
func LocalPath(uri string) string {
	// Strip file:// prefix for local paths
	if strings.HasPrefix(uri, fileScheme) {
		return strings.TrimPrefix(uri, fileScheme)
	}
	// Bare paths pass through unchanged
	return uri
}

// URI returns the file:// URI of a local path. Relative paths are made
// absolute first; a path that cannot be resolved is used as given.
func URI(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return fileScheme + path
}
