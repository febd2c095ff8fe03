package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/studesprit/libsearch/internal/adapters/driving/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Search your library interactively",
	Long: `Launch the interactive terminal UI.

Type a question and press enter to list the most relevant paragraphs.
Open a result to read the whole document scrolled to that paragraph.

Controls:
  Enter     - Search / Open result
  ↑/k, ↓/j  - Navigate results or scroll
  n         - New search
  g, G      - Top / bottom of a document
  Esc       - Back
  q         - Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

// runProgram runs the bubbletea model until it exits. Replaced in tests.
var runProgram = func(ctx context.Context, model tea.Model) error {
	_, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

func init() {
	tuiCmd.Flags().IntP("limit", "n", 0, "Paragraphs per query (default from settings)")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("TUI panic: %v", r)
		}
	}()

	if retrievalService == nil || documentService == nil {
		return errors.New("library services not configured")
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return fmt.Errorf("getting limit flag: %w", err)
	}

	app, err := tui.NewApp(&tui.Ports{
		Retrieval: retrievalService,
		Document:  documentService,
		OwnerID:   ownerID,
		Limit:     resolveSearchLimit(limit),
	})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(cmd.Context())

	if err := runProgram(cmd.Context(), app); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
