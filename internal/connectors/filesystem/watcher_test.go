package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eventTimeout = 2 * time.Second

func textOnly(path string) bool {
	return strings.HasSuffix(path, ".txt")
}

func TestNew(t *testing.T) {
	t.Run("creates watcher with root", func(t *testing.T) {
		w := New("/tmp/test", nil)
		require.NotNil(t, w)
		assert.Equal(t, "/tmp/test", w.Root())
		assert.True(t, w.filter("anything.bin"))
	})

	t.Run("keeps filter", func(t *testing.T) {
		w := New("/tmp/test", textOnly)
		assert.True(t, w.filter("a.txt"))
		assert.False(t, w.filter("a.png"))
	})
}

func TestChangeType_String(t *testing.T) {
	assert.Equal(t, "created", ChangeCreated.String())
	assert.Equal(t, "updated", ChangeUpdated.String())
	assert.Equal(t, "deleted", ChangeDeleted.String())
	assert.Equal(t, "unknown", ChangeType(42).String())
}

func TestWatcher_Scan(t *testing.T) {
	t.Run("reports accepted files recursively", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("alpha"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(root, "b.png"), []byte("binary"), 0o644))
		require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "c.txt"), []byte("gamma"), 0o644))
		require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(root, ".git", "d.txt"), []byte("hidden"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(root, ".e.txt"), []byte("hidden"), 0o644))

		changes, err := New(root, textOnly).Scan(context.Background())
		require.NoError(t, err)

		paths := make([]string, 0, len(changes))
		for _, c := range changes {
			assert.Equal(t, ChangeCreated, c.Type)
			assert.Equal(t, Fingerprint(c.Content), c.Fingerprint)
			paths = append(paths, c.Path)
		}
		assert.ElementsMatch(t, []string{
			filepath.Join(root, "a.txt"),
			filepath.Join(root, "sub", "c.txt"),
		}, paths)
	})

	t.Run("empty directory", func(t *testing.T) {
		changes, err := New(t.TempDir(), nil).Scan(context.Background())
		require.NoError(t, err)
		assert.Empty(t, changes)
	})

	t.Run("missing root", func(t *testing.T) {
		_, err := New("/non/existent/path", nil).Scan(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "root path error")
	})

	t.Run("root is a file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "f.txt")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

		_, err := New(file, nil).Scan(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a directory")
	})

	t.Run("cancelled context", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("alpha"), 0o644))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := New(root, nil).Scan(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

// TestHandleFsEvent tests the handleFsEvent function with various event types.
func TestHandleFsEvent(t *testing.T) {
	tests := []struct {
		name           string
		setupFile      bool
		setupDir       bool
		setupHidden    bool
		filename       string
		operation      fsnotify.Op
		expectedChange bool
		expectedType   ChangeType
	}{
		{
			name:           "create file event",
			setupFile:      true,
			operation:      fsnotify.Create,
			expectedChange: true,
			expectedType:   ChangeCreated,
		},
		{
			name:           "write file event",
			setupFile:      true,
			operation:      fsnotify.Write,
			expectedChange: true,
			expectedType:   ChangeUpdated,
		},
		{
			name:           "remove file event",
			operation:      fsnotify.Remove,
			expectedChange: true,
			expectedType:   ChangeDeleted,
		},
		{
			name:           "rename file event",
			operation:      fsnotify.Rename,
			expectedChange: true,
			expectedType:   ChangeDeleted,
		},
		{
			name:           "chmod file event - not handled",
			setupFile:      true,
			operation:      fsnotify.Chmod,
			expectedChange: false,
		},
		{
			name:           "create directory event - skipped",
			setupDir:       true,
			operation:      fsnotify.Create,
			expectedChange: false,
		},
		{
			name:           "hidden file create - skipped",
			setupHidden:    true,
			operation:      fsnotify.Create,
			expectedChange: false,
		},
		{
			name:           "hidden file remove - skipped",
			setupHidden:    true,
			operation:      fsnotify.Remove,
			expectedChange: false,
		},
		{
			name:           "filtered file create - skipped",
			setupFile:      true,
			filename:       "image.png",
			operation:      fsnotify.Create,
			expectedChange: false,
		},
		{
			name:           "filtered file remove - skipped",
			filename:       "image.png",
			operation:      fsnotify.Remove,
			expectedChange: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()

			var eventPath string
			switch {
			case tt.setupDir:
				eventPath = filepath.Join(tempDir, "testdir")
				require.NoError(t, os.Mkdir(eventPath, 0o755))
			case tt.setupHidden:
				eventPath = filepath.Join(tempDir, ".hidden.txt")
				if tt.operation != fsnotify.Remove {
					require.NoError(t, os.WriteFile(eventPath, []byte("hidden"), 0o644))
				}
			default:
				name := tt.filename
				if name == "" {
					name = "test.txt"
				}
				eventPath = filepath.Join(tempDir, name)
				if tt.setupFile {
					require.NoError(t, os.WriteFile(eventPath, []byte("content"), 0o644))
				}
			}

			w := New(tempDir, textOnly)
			change := w.handleFsEvent(fsnotify.Event{Name: eventPath, Op: tt.operation})

			if !tt.expectedChange {
				assert.Nil(t, change, "expected no change but got one")
				return
			}

			require.NotNil(t, change, "expected change but got nil")
			assert.Equal(t, tt.expectedType, change.Type)
			assert.Equal(t, eventPath, change.Path)
			if tt.expectedType == ChangeDeleted {
				assert.Empty(t, change.Content)
				assert.Empty(t, change.Fingerprint)
			} else {
				assert.Equal(t, []byte("content"), change.Content)
				assert.Equal(t, Fingerprint([]byte("content")), change.Fingerprint)
			}
		})
	}

	t.Run("combined operations", func(t *testing.T) {
		tempDir := t.TempDir()
		testFile := filepath.Join(tempDir, "test.txt")
		require.NoError(t, os.WriteFile(testFile, []byte("content"), 0o644))

		change := New(tempDir, nil).handleFsEvent(fsnotify.Event{
			Name: testFile,
			Op:   fsnotify.Write | fsnotify.Chmod,
		})

		require.NotNil(t, change)
		assert.Equal(t, ChangeUpdated, change.Type)
	})

	t.Run("root inside hidden directory", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), ".libsearch", "inbox")
		require.NoError(t, os.MkdirAll(root, 0o755))
		testFile := filepath.Join(root, "notes.txt")
		require.NoError(t, os.WriteFile(testFile, []byte("content"), 0o644))

		change := New(root, nil).handleFsEvent(fsnotify.Event{Name: testFile, Op: fsnotify.Create})
		require.NotNil(t, change)
		assert.Equal(t, ChangeCreated, change.Type)
	})
}

func waitForChange(t *testing.T, changes <-chan Change, want ChangeType, name string) {
	t.Helper()
	deadline := time.After(eventTimeout)
	for {
		select {
		case change, ok := <-changes:
			require.True(t, ok, "channel closed before %s event", want)
			if change.Type == want && strings.HasSuffix(change.Path, name) {
				return
			}
		case <-deadline:
			t.Fatalf("timeout waiting for %s event on %s", want, name)
		}
	}
}

func TestWatcher_Watch(t *testing.T) {
	t.Run("reports created files", func(t *testing.T) {
		tempDir := t.TempDir()
		w := New(tempDir, nil)
		defer w.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		changes, err := w.Watch(ctx)
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(filepath.Join(tempDir, "new-file.txt"), []byte("content"), 0o644))
		waitForChange(t, changes, ChangeCreated, "new-file.txt")
	})

	t.Run("reports modifications", func(t *testing.T) {
		tempDir := t.TempDir()
		testFile := filepath.Join(tempDir, "test.txt")
		require.NoError(t, os.WriteFile(testFile, []byte("initial"), 0o644))

		w := New(tempDir, nil)
		defer w.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		changes, err := w.Watch(ctx)
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(testFile, []byte("modified"), 0o644))
		waitForChange(t, changes, ChangeUpdated, "test.txt")
	})

	t.Run("reports deletions", func(t *testing.T) {
		tempDir := t.TempDir()
		testFile := filepath.Join(tempDir, "to-delete.txt")
		require.NoError(t, os.WriteFile(testFile, []byte("delete me"), 0o644))

		w := New(tempDir, nil)
		defer w.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		changes, err := w.Watch(ctx)
		require.NoError(t, err)

		require.NoError(t, os.Remove(testFile))
		waitForChange(t, changes, ChangeDeleted, "to-delete.txt")
	})

	t.Run("watches new subdirectories", func(t *testing.T) {
		tempDir := t.TempDir()
		w := New(tempDir, nil)
		defer w.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		changes, err := w.Watch(ctx)
		require.NoError(t, err)

		sub := filepath.Join(tempDir, "week2")
		require.NoError(t, os.Mkdir(sub, 0o755))
		// Give the loop time to register the new directory
		time.Sleep(100 * time.Millisecond)
		require.NoError(t, os.WriteFile(filepath.Join(sub, "lab.txt"), []byte("content"), 0o644))
		waitForChange(t, changes, ChangeCreated, "lab.txt")
	})

	t.Run("returns error for non-existent directory", func(t *testing.T) {
		changes, err := New("/non/existent/path", nil).Watch(context.Background())

		assert.Error(t, err)
		assert.Nil(t, changes)
		assert.Contains(t, err.Error(), "root path error")
	})

	t.Run("closes channel when context is cancelled", func(t *testing.T) {
		w := New(t.TempDir(), nil)
		defer w.Close()

		ctx, cancel := context.WithCancel(context.Background())
		changes, err := w.Watch(ctx)
		require.NoError(t, err)

		cancel()

		select {
		case _, ok := <-changes:
			if ok {
				for range changes {
				}
			}
		case <-time.After(eventTimeout):
			t.Fatal("channel did not close after context cancellation")
		}
	})

	t.Run("returns error when closed", func(t *testing.T) {
		w := New(t.TempDir(), nil)
		require.NoError(t, w.Close())

		changes, err := w.Watch(context.Background())
		assert.ErrorIs(t, err, ErrClosed)
		assert.Nil(t, changes)
	})
}

func TestWatcher_Close(t *testing.T) {
	w := New("/tmp/test", nil)

	assert.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}

func TestIsHidden(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{".hidden", true},
		{"path/to/.hidden", true},
		{"/root/.config/file.txt", true},
		{"/path/.hidden/file.txt", true},
		{"dir/.git/config", true},
		{".config/.cache/data", true},

		{"file.txt", false},
		{"path/to/file.txt", false},
		{"/root/visible/file.txt", false},
		{".", false},
		{"..", false},
		{"path/./file", false},
		{"path/../file", false},
		{"../outside.txt", false},
		{"", false},
		{"/", false},
		{"file.hidden", false},
		{"directory.name/file", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, isHidden(tt.path))
		})
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]byte("lecture notes"))

	assert.Len(t, a, 16)
	assert.Equal(t, a, Fingerprint([]byte("lecture notes")))
	assert.NotEqual(t, a, Fingerprint([]byte("lecture notes!")))
	assert.Len(t, Fingerprint(nil), 16)
}
