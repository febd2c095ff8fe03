// Package cli provides the libsearch command line interface.
package cli

import (
	"context"
	"errors"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	tuistyles "github.com/studesprit/libsearch/internal/adapters/driving/tui/styles"
	"github.com/studesprit/libsearch/internal/core/ports/driving"
	"github.com/studesprit/libsearch/internal/logger"
	"github.com/studesprit/libsearch/internal/normalisers"
)

// defaultOwner is used when neither --owner nor LIBSEARCH_OWNER is set.
const defaultOwner = "local"

// skipBootstrap marks commands that run without opening the library.
const skipBootstrap = "skip-bootstrap"

var version = "dev"

// Services injected by Execute or by tests.
var (
	retrievalService driving.RetrievalService
	documentService  driving.DocumentService
	settingsService  driving.SettingsService
	extractors       *normalisers.Registry
)

// Persistent flags.
var (
	verbose bool
	dataDir string
	noColor bool
	ownerID string
)

// styles is the active output style set.
var styles = PlainStyles()

// openApp builds the services for a command. Execute sets it; tests leave
// it nil and inject services directly.
var openApp func(ctx context.Context, opts Options) (*App, error)

// currentApp is the application opened for the running command.
var currentApp *App

var rootCmd = &cobra.Command{
	Use:   "libsearch",
	Short: "Semantic paragraph search over a document library",
	Long: `libsearch indexes documents paragraph by paragraph and answers natural
language queries with the most similar paragraphs of a user's library.`,
	SilenceUsage:       true,
	PersistentPreRunE:  persistentPreRun,
	PersistentPostRunE: persistentPostRun,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "library directory (default ~/.libsearch)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable coloured output")
	rootCmd.PersistentFlags().StringVar(&ownerID, "owner", ownerFromEnv(), "owner whose library is used")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute loads .env, wires the services on demand and runs the root command.
func Execute() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("loading .env: %v", err)
	}

	openApp = Open
	defer closeApp() //nolint:errcheck // already reported when the command succeeds

	return rootCmd.Execute()
}

func persistentPreRun(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if noColor || os.Getenv("NO_COLOR") != "" {
		styles = PlainStyles()
	} else {
		styles = NewStyles(tuistyles.DefaultTheme())
	}

	if openApp == nil || documentService != nil || cmd.Annotations[skipBootstrap] == "true" {
		return nil
	}

	app, err := openApp(cmd.Context(), Options{HomeDir: dataDir})
	if err != nil {
		return err
	}
	for _, warning := range app.Warnings {
		cmd.PrintErrln(styles.Warning.Render("Warning: " + warning))
	}

	currentApp = app
	retrievalService = app.Retrieval
	documentService = app.Documents
	settingsService = app.Settings
	extractors = app.Extractors
	return nil
}

func persistentPostRun(_ *cobra.Command, _ []string) error {
	return closeApp()
}

// closeApp releases the opened application and clears the injected services.
func closeApp() error {
	if currentApp == nil {
		return nil
	}

	err := currentApp.Close()
	currentApp = nil
	retrievalService = nil
	documentService = nil
	settingsService = nil
	extractors = nil
	return err
}

func ownerFromEnv() string {
	if owner := os.Getenv("LIBSEARCH_OWNER"); owner != "" {
		return owner
	}
	return defaultOwner
}
