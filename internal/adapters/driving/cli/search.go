package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/studesprit/libsearch/internal/core/domain"
)

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the document library",
	Long: `Embeds the query and returns the most similar paragraphs from the
owner's processed documents, ranked by cosine similarity.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (default from settings)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

// searchResultJSON is the JSON shape of one search result.
type searchResultJSON struct {
	DocumentID     string  `json:"document_id"`
	DocumentTitle  string  `json:"document_title"`
	ParagraphIndex int     `json:"paragraph_index"`
	Text           string  `json:"text"`
	Similarity     float64 `json:"similarity"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	opts := domain.SearchOptions{
		OwnerID: ownerID,
		Limit:   resolveSearchLimit(searchLimit),
	}

	results, err := retrievalService.Search(cmd.Context(), query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}

	return outputSearchTable(cmd, results)
}

// resolveSearchLimit applies the configured default when no limit is given.
func resolveSearchLimit(requested int) int {
	if requested > 0 {
		return requested
	}
	if settingsService != nil {
		if settings, err := settingsService.Get(); err == nil && settings.Search.DefaultLimit > 0 {
			return settings.Search.DefaultLimit
		}
	}
	return domain.DefaultSearchLimit
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	out := make([]searchResultJSON, len(results))
	for i, r := range results {
		out[i] = searchResultJSON{
			DocumentID:     r.DocumentID,
			DocumentTitle:  r.DocumentTitle,
			ParagraphIndex: r.ParagraphIndex,
			Text:           r.Text,
			Similarity:     r.Similarity,
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println(styles.Title.Render("Results:"))
	cmd.Println()
	for i := range results {
		title := results[i].DocumentTitle
		if title == "" {
			title = results[i].DocumentID
		}

		// Format: [N] Title, paragraph P (Score)
		cmd.Printf("  [%d] %s, paragraph %d %s\n",
			i+1, title, results[i].ParagraphIndex+1,
			styles.Score.Render(fmt.Sprintf("(%.3f)", results[i].Similarity)))
		cmd.Printf("      %s\n", styles.Muted.Render(snippet(results[i].Text, 240)))
		cmd.Println()
	}

	return nil
}

// snippet shortens text to at most n runes.
func snippet(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
