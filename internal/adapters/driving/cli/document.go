package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/studesprit/libsearch/internal/connectors/filesystem"
	"github.com/studesprit/libsearch/internal/core/domain"
	"github.com/studesprit/libsearch/internal/core/ports/driven"
	"github.com/studesprit/libsearch/internal/core/ports/driving"
)

// metaFingerprint is the metadata key holding the source file fingerprint.
const metaFingerprint = "fingerprint"

const timeLayout = "2006-01-02 15:04:05"

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage library documents",
	Long:  `Add, list, view, delete, or reindex documents in the library.`,
}

var documentAddCmd = &cobra.Command{
	Use:   "add [file]",
	Short: "Add a file to the library",
	Long: `Extracts the text of a file, stores it as a document and indexes its
paragraphs. Supported formats are chosen by file extension.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentAdd,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the owner's documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentContentCmd = &cobra.Command{
	Use:   "content [doc-id]",
	Short: "Print document content",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentContent,
}

var documentParagraphsCmd = &cobra.Command{
	Use:   "paragraphs [doc-id]",
	Short: "Print the indexed paragraphs of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentParagraphs,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document and its paragraphs",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

var documentReindexCmd = &cobra.Command{
	Use:   "reindex [doc-id]",
	Short: "Re-segment and re-embed a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentReindex,
}

// addTitle is a flag for the add command.
var addTitle string

func init() {
	documentAddCmd.Flags().StringVarP(&addTitle, "title", "t", "", "document title (default from the file)")

	documentCmd.AddCommand(documentAddCmd)
	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentContentCmd)
	documentCmd.AddCommand(documentParagraphsCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	documentCmd.AddCommand(documentReindexCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentAdd(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	path, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	extraction, err := extractFile(cmd.Context(), path, data)
	if err != nil {
		return err
	}

	title := addTitle
	if title == "" {
		title = extraction.Title
	}

	doc, err := documentService.Add(cmd.Context(), driving.AddDocumentRequest{
		OwnerID:  ownerID,
		Title:    title,
		Filename: filepath.Base(path),
		URI:      filesystem.URI(path),
		Content:  extraction.Content,
		Metadata: withFingerprint(extraction.Metadata, filesystem.Fingerprint(data)),
	})
	if err != nil {
		return fmt.Errorf("failed to add document: %w", err)
	}

	cmd.Printf("%s %s\n", styles.Success.Render("Added document"), doc.ID)
	cmd.Printf("  Title:      %s\n", doc.Title)
	cmd.Printf("  Paragraphs: %d\n", doc.ParagraphCount)
	if !doc.IsProcessed {
		cmd.Println(styles.Warning.Render("  No paragraph met the minimum length; the document is not searchable."))
	}
	return nil
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docs, err := documentService.List(cmd.Context(), ownerID)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Printf("No documents found for owner: %s\n", ownerID)
		return nil
	}

	cmd.Println(styles.Title.Render(fmt.Sprintf("Documents for owner %s:", ownerID)))
	cmd.Println()
	for i := range docs {
		cmd.Printf("  %s\n", docs[i].ID)
		cmd.Printf("    Title: %s\n", docs[i].Title)
		if docs[i].URI != "" {
			cmd.Printf("    URI: %s\n", docs[i].URI)
		}
		cmd.Printf("    Status: %s\n", processedStatus(&docs[i]))
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc, err := documentService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Title:      %s\n", doc.Title)
	cmd.Printf("  Owner:      %s\n", doc.OwnerID)
	cmd.Printf("  Filename:   %s\n", doc.Filename)
	cmd.Printf("  URI:        %s\n", doc.URI)
	cmd.Printf("  Status:     %s\n", processedStatus(doc))
	cmd.Printf("  Paragraphs: %d\n", doc.ParagraphCount)
	if doc.EmbeddingModel != "" {
		cmd.Printf("  Model:      %s\n", doc.EmbeddingModel)
	}
	cmd.Printf("  Created:    %s\n", doc.CreatedAt.Format(timeLayout))
	cmd.Printf("  Updated:    %s\n", doc.UpdatedAt.Format(timeLayout))

	if len(doc.Metadata) > 0 {
		cmd.Println("\n  Metadata:")
		for k, v := range doc.Metadata {
			cmd.Printf("    %s: %v\n", k, v)
		}
	}

	return nil
}

func runDocumentContent(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	content, err := documentService.Content(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document content: %w", err)
	}

	cmd.Println(content)
	return nil
}

func runDocumentParagraphs(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	paragraphs, err := documentService.Paragraphs(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get paragraphs: %w", err)
	}

	if len(paragraphs) == 0 {
		cmd.Println("No paragraphs indexed.")
		return nil
	}

	for _, p := range paragraphs {
		cmd.Println(styles.Subtitle.Render(fmt.Sprintf("[%d]", p.Index+1)))
		cmd.Println(p.Text)
		cmd.Println()
	}
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docID := args[0]
	if err := documentService.Delete(cmd.Context(), ownerID, docID); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Document %s deleted.\n", docID)
	return nil
}

func runDocumentReindex(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docID := args[0]
	cmd.Printf("Reindexing document %s...\n", docID)

	if err := documentService.Reprocess(cmd.Context(), docID); err != nil {
		return fmt.Errorf("failed to reindex document: %w", err)
	}

	cmd.Printf("Document %s reindexed successfully.\n", docID)
	return nil
}

// extractFile turns raw file bytes into searchable text.
func extractFile(ctx context.Context, path string, data []byte) (*driven.Extraction, error) {
	if extractors == nil {
		return nil, errors.New("extractor registry not configured")
	}

	extraction, err := extractors.Extract(ctx, path, data)
	if err != nil {
		return nil, fmt.Errorf("failed to extract %s: %w", filepath.Base(path), err)
	}
	return extraction, nil
}

// withFingerprint copies metadata and adds the content fingerprint.
func withFingerprint(metadata map[string]any, fingerprint string) map[string]any {
	out := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		out[k] = v
	}
	out[metaFingerprint] = fingerprint
	return out
}

func processedStatus(doc *domain.Document) string {
	if doc.IsProcessed {
		return styles.Success.Render("processed")
	}
	return styles.Warning.Render("not processed")
}
