package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/studesprit/libsearch/internal/connectors/filesystem"
	"github.com/studesprit/libsearch/internal/core/ports/driving"
	"github.com/studesprit/libsearch/internal/logger"
)

// Outcomes of applying a file change to the library.
const (
	syncAdded     = "added"
	syncUpdated   = "updated"
	syncUnchanged = "unchanged"
	syncDeleted   = "deleted"
	syncSkipped   = "skipped"
)

var watchOnce bool

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Keep the library in step with a directory",
	Long: `Adds every supported file under a directory to the library, then watches
the directory and adds, reindexes or deletes documents as files change.
Unchanged files are recognised by their content fingerprint.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "scan the directory once and exit")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}
	if extractors == nil {
		return errors.New("extractor registry not configured")
	}

	root, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lib, err := newLibrarySync(ctx, documentService, ownerID)
	if err != nil {
		return err
	}

	watcher := filesystem.New(root, extractors.Supports)
	defer watcher.Close()

	changes, err := watcher.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", root, err)
	}
	for _, change := range changes {
		reportSync(ctx, cmd, lib, change)
	}
	cmd.Printf("Scanned %s: %d files\n", root, len(changes))

	if watchOnce {
		return nil
	}

	events, err := watcher.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watching %s: %w", root, err)
	}
	cmd.Println(styles.Muted.Render("Watching for changes, press Ctrl+C to stop."))

	for change := range events {
		reportSync(ctx, cmd, lib, change)
	}
	return nil
}

func reportSync(ctx context.Context, cmd *cobra.Command, lib *librarySync, change filesystem.Change) {
	outcome, err := lib.Apply(ctx, change)
	if err != nil {
		cmd.PrintErrln(styles.Error.Render(fmt.Sprintf("  %s: %v", change.Path, err)))
		return
	}
	if outcome == syncUnchanged || outcome == syncSkipped {
		logger.Debug("watch: %s %s", outcome, change.Path)
		return
	}
	cmd.Printf("  %s %s\n", styles.Success.Render(outcome), change.Path)
}

// trackedFile is a library document backed by a local file.
type trackedFile struct {
	documentID  string
	fingerprint string
}

// librarySync applies file changes to an owner's documents.
type librarySync struct {
	documents driving.DocumentService
	owner     string
	files     map[string]trackedFile
}

// newLibrarySync indexes the owner's file-backed documents by local path.
func newLibrarySync(ctx context.Context, documents driving.DocumentService, owner string) (*librarySync, error) {
	docs, err := documents.List(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	files := make(map[string]trackedFile, len(docs))
	for i := range docs {
		if !strings.HasPrefix(docs[i].URI, "file://") {
			continue
		}
		fingerprint, _ := docs[i].Metadata[metaFingerprint].(string)
		files[filesystem.LocalPath(docs[i].URI)] = trackedFile{
			documentID:  docs[i].ID,
			fingerprint: fingerprint,
		}
	}

	return &librarySync{
		documents: documents,
		owner:     owner,
		files:     files,
	}, nil
}

// Apply brings the library in line with one file change.
func (s *librarySync) Apply(ctx context.Context, change filesystem.Change) (string, error) {
	tracked, known := s.files[change.Path]

	if change.Type == filesystem.ChangeDeleted {
		if !known {
			return syncSkipped, nil
		}
		if err := s.documents.Delete(ctx, s.owner, tracked.documentID); err != nil {
			return "", fmt.Errorf("deleting document: %w", err)
		}
		delete(s.files, change.Path)
		return syncDeleted, nil
	}

	if known && tracked.fingerprint == change.Fingerprint {
		return syncUnchanged, nil
	}

	extraction, err := extractFile(ctx, change.Path, change.Content)
	if err != nil {
		return "", err
	}
	metadata := withFingerprint(extraction.Metadata, change.Fingerprint)

	if known {
		if err := s.documents.UpdateContent(ctx, tracked.documentID, extraction.Content, metadata); err != nil {
			return "", fmt.Errorf("updating document: %w", err)
		}
		tracked.fingerprint = change.Fingerprint
		s.files[change.Path] = tracked
		return syncUpdated, nil
	}

	doc, err := s.documents.Add(ctx, driving.AddDocumentRequest{
		OwnerID:  s.owner,
		Title:    extraction.Title,
		Filename: filepath.Base(change.Path),
		URI:      filesystem.URI(change.Path),
		Content:  extraction.Content,
		Metadata: metadata,
	})
	if err != nil {
		return "", fmt.Errorf("adding document: %w", err)
	}
	s.files[change.Path] = trackedFile{documentID: doc.ID, fingerprint: change.Fingerprint}
	return syncAdded, nil
}
