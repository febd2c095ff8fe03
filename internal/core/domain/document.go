package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Document represents an owned unit of text content in the library.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// OwnerID identifies the user that uploaded the document.
	OwnerID string

	// Title is the human-readable title.
	Title string

	// Filename is the original upload filename.
	Filename string

	// URI is the original location (file path, URL, etc).
	URI string

	// Content is the raw extracted text. Empty until extraction completes.
	Content string

	// IsProcessed is true once segmentation and embedding have completed.
	// A processed document always has a non-empty paragraph set.
	IsProcessed bool

	// EmbeddingModel names the model that produced the stored paragraph
	// embeddings. Vectors from different models are never compared.
	EmbeddingModel string

	// ParagraphCount is the number of stored paragraphs.
	ParagraphCount int

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// CreatedAt is when the document was uploaded.
	CreatedAt time.Time

	// UpdatedAt is when the document was last modified or reprocessed.
	UpdatedAt time.Time
}

// Paragraph is a segment of a document's text and the atomic unit of retrieval.
type Paragraph struct {
	// DocumentID links to the owning Document.
	DocumentID string

	// Index is the 0-based position within the document.
	Index int

	// Text is the normalised paragraph text.
	Text string

	// Embedding is the vector representation for similarity search.
	Embedding []float32
}

// ParagraphSet is the complete set of paragraphs stored for one document.
// It is always written and replaced as a whole.
type ParagraphSet struct {
	// DocumentID links to the owning Document.
	DocumentID string

	// Model names the embedding model that produced the vectors.
	Model string

	// Paragraphs are ordered by Index.
	Paragraphs []Paragraph

	// ContentHash, when set, is the ContentHash of the text the paragraphs
	// were cut from. The store refuses the write with ErrConflict if the
	// document's stored content no longer matches it.
	ContentHash string
}

// ContentHash fingerprints document content for ParagraphSet.ContentHash.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
