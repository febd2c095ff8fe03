package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studesprit/libsearch/internal/connectors/filesystem"
)

// Document Command Tests

func TestDocumentCmd_Use(t *testing.T) {
	assert.Equal(t, "document", documentCmd.Use)
}

func TestDocumentCmd_HasSubcommands(t *testing.T) {
	commands := documentCmd.Commands()
	commandNames := make([]string, 0, len(commands))
	for _, cmd := range commands {
		commandNames = append(commandNames, cmd.Name())
	}

	for _, want := range []string{"add", "list", "get", "content", "paragraphs", "delete", "reindex"} {
		assert.Contains(t, commandNames, want)
	}
}

func TestDocumentCmd_ArgValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "add without file", args: []string{"document", "add"}, want: "accepts 1 arg(s)"},
		{name: "get without id", args: []string{"document", "get"}, want: "accepts 1 arg(s)"},
		{name: "content without id", args: []string{"document", "content"}, want: "accepts 1 arg(s)"},
		{name: "delete without id", args: []string{"document", "delete"}, want: "accepts 1 arg(s)"},
		{name: "reindex without id", args: []string{"document", "reindex"}, want: "accepts 1 arg(s)"},
		{name: "list with id", args: []string{"document", "list", "extra"}, want: "unknown command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

// Document Add Tests

func TestDocumentAddCmd_AddsMarkdownFile(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	path := filepath.Join(t.TempDir(), "notes.md")
	data := []byte("# Lecture Notes\n\nThe **mitochondria** is the powerhouse of the cell.\n")
	require.NoError(t, os.WriteFile(path, data, 0600))

	out, err := execute(t, "document", "add", path)
	require.NoError(t, err)

	assert.Contains(t, out, "Added document new-1")
	assert.Contains(t, out, "Title:      Lecture Notes")

	require.Len(t, installed.documents.added, 1)
	req := installed.documents.added[0]
	assert.Equal(t, defaultOwner, req.OwnerID)
	assert.Equal(t, "Lecture Notes", req.Title)
	assert.Equal(t, "notes.md", req.Filename)
	assert.Equal(t, filesystem.URI(path), req.URI)
	assert.Contains(t, req.Content, "The mitochondria is the powerhouse of the cell.")
	assert.NotContains(t, req.Content, "**")
	assert.Equal(t, filesystem.Fingerprint(data), req.Metadata[metaFingerprint])
	assert.Equal(t, "markdown", req.Metadata["extractor"])
}

func TestDocumentAddCmd_TitleFlag(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	path := filepath.Join(t.TempDir(), "plain.txt")
	require.NoError(t, os.WriteFile(path, []byte("Some text."), 0600))

	_, err := execute(t, "document", "add", "--title", "Custom", path)
	require.NoError(t, err)

	require.Len(t, installed.documents.added, 1)
	assert.Equal(t, "Custom", installed.documents.added[0].Title)
}

func TestDocumentAddCmd_WarnsWhenNotProcessed(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, []byte(""), 0600))

	out, err := execute(t, "document", "add", path)
	require.NoError(t, err)
	assert.Contains(t, out, "not searchable")
}

func TestDocumentAddCmd_UnsupportedType(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	path := filepath.Join(t.TempDir(), "image.png")
	require.NoError(t, os.WriteFile(path, []byte{0x89, 'P', 'N', 'G'}, 0600))

	_, err := execute(t, "document", "add", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to extract image.png")
	assert.Empty(t, installed.documents.added)
}

func TestDocumentAddCmd_MissingFile(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "document", "add", filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading file")
}

func TestDocumentAddCmd_NoExtractors(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	extractors = nil

	path := filepath.Join(t.TempDir(), "plain.txt")
	require.NoError(t, os.WriteFile(path, []byte("text"), 0600))

	_, err := execute(t, "document", "add", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extractor registry not configured")
}

// Document List/Get/Content Tests

func TestDocumentListCmd_Executes(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "document", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "Documents for owner local:")
	assert.Contains(t, out, "doc-1")
	assert.Contains(t, out, "Test Document 1")
	assert.Contains(t, out, "Status: processed")
	assert.Contains(t, out, "Total: 1 documents")
}

func TestDocumentListCmd_OtherOwnerIsEmpty(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "--owner", "bob", "document", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "No documents found for owner: bob")
}

func TestDocumentGetCmd_Executes(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "document", "get", "doc-1")

	require.NoError(t, err)
	assert.Contains(t, out, "Document: doc-1")
	assert.Contains(t, out, "Title:      Test Document 1")
	assert.Contains(t, out, "Paragraphs: 2")
	assert.Contains(t, out, "Model:      deterministic-sha256")
	assert.Contains(t, out, "Created:    2025-03-01 10:00:00")
	assert.Contains(t, out, "format: markdown")
}

func TestDocumentGetCmd_NotFound(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "document", "get", "nope")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get document")
}

func TestDocumentContentCmd_Executes(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "document", "content", "doc-1")

	require.NoError(t, err)
	assert.Equal(t, "First document content.\n", out)
}

func TestDocumentParagraphsCmd_Executes(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "document", "paragraphs", "doc-1")

	require.NoError(t, err)
	assert.Contains(t, out, "[1]\nFirst paragraph.")
	assert.Contains(t, out, "[2]\nSecond paragraph.")
}

func TestDocumentParagraphsCmd_NoneIndexed(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "document", "paragraphs", "doc-9")

	require.NoError(t, err)
	assert.Contains(t, out, "No paragraphs indexed.")
}

// Document Delete/Reindex Tests

func TestDocumentDeleteCmd_Executes(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "document", "delete", "doc-1")

	require.NoError(t, err)
	assert.Contains(t, out, "Document doc-1 deleted.")
	assert.Equal(t, []string{"doc-1"}, installed.documents.deleted)
}

func TestDocumentDeleteCmd_OtherOwnerForbidden(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "--owner", "mallory", "document", "delete", "doc-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "forbidden")
	assert.Empty(t, installed.documents.deleted)
}

func TestDocumentReindexCmd_Executes(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "document", "reindex", "doc-1")

	require.NoError(t, err)
	assert.Contains(t, out, "Reindexing document doc-1...")
	assert.Contains(t, out, "Document doc-1 reindexed successfully.")
	assert.Equal(t, []string{"doc-1"}, installed.documents.reprocessed)
}

// Service Not Configured Tests

func TestDocumentCmds_ServiceNotConfigured(t *testing.T) {
	commands := [][]string{
		{"document", "add", "file.txt"},
		{"document", "list"},
		{"document", "get", "doc-1"},
		{"document", "content", "doc-1"},
		{"document", "paragraphs", "doc-1"},
		{"document", "delete", "doc-1"},
		{"document", "reindex", "doc-1"},
	}

	for _, args := range commands {
		t.Run(args[1], func(t *testing.T) {
			cleanup := setupTestServices()
			defer cleanup()
			documentService = nil

			_, err := execute(t, args...)

			require.Error(t, err)
			assert.Contains(t, err.Error(), "document service not configured")
		})
	}
}

func TestDocumentCmds_ServiceError(t *testing.T) {
	commands := map[string][]string{
		"failed to list documents":       {"document", "list"},
		"failed to get document content": {"document", "content", "doc-1"},
		"failed to get paragraphs":       {"document", "paragraphs", "doc-1"},
		"failed to delete document":      {"document", "delete", "doc-1"},
		"failed to reindex document":     {"document", "reindex", "doc-1"},
	}

	for want, args := range commands {
		t.Run(args[1], func(t *testing.T) {
			cleanup := setupTestServices()
			defer cleanup()
			installed.documents.err = errors.New("storage error")

			_, err := execute(t, args...)

			require.Error(t, err)
			assert.Contains(t, err.Error(), want)
		})
	}
}

func TestWithFingerprint(t *testing.T) {
	original := map[string]any{"format": "pdf"}

	merged := withFingerprint(original, "00ff")

	assert.Equal(t, "00ff", merged[metaFingerprint])
	assert.Equal(t, "pdf", merged["format"])
	assert.NotContains(t, original, metaFingerprint)
}
