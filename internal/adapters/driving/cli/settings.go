package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/studesprit/libsearch/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the embedding provider, paragraph segmentation,
vector backend and search defaults.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long: `Configure the embedding provider used to index paragraphs and embed queries.

Without --provider the command prompts for each value. Existing documents
keep their stored vectors until they are reindexed with the new model.`,
	RunE: runSettingsEmbedding,
}

var settingsSegmenterCmd = &cobra.Command{
	Use:   "segmenter",
	Short: "Configure paragraph length bounds",
	Long: `Set the minimum and maximum paragraph length in characters. Shorter
paragraphs are dropped and longer ones are split at sentence boundaries.`,
	RunE: runSettingsSegmenter,
}

var settingsBackendCmd = &cobra.Command{
	Use:   "backend",
	Short: "Configure the vector backend",
	Long: `Select the approximate nearest neighbour backend.

Available backends:
  none   - Exact cosine scan over stored paragraphs
  qdrant - Qdrant collection over gRPC, falls back to the exact scan`,
	RunE: runSettingsBackend,
}

var settingsLimitCmd = &cobra.Command{
	Use:   "limit [n]",
	Short: "Set the default number of search results",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsLimit,
}

// Flags for the settings subcommands.
var (
	embedProvider   string
	embedModel      string
	embedBaseURL    string
	embedAPIKey     string
	segmenterMin    int
	segmenterMax    int
	backendName     string
	backendAddress  string
	backendCollName string
)

func init() {
	settingsEmbeddingCmd.Flags().StringVar(&embedProvider, "provider", "", "embedding provider (deterministic, ollama, openai)")
	settingsEmbeddingCmd.Flags().StringVar(&embedModel, "model", "", "embedding model (default per provider)")
	settingsEmbeddingCmd.Flags().StringVar(&embedBaseURL, "base-url", "", "API endpoint (ollama)")
	settingsEmbeddingCmd.Flags().StringVar(&embedAPIKey, "api-key", "", "API key (openai)")

	settingsSegmenterCmd.Flags().IntVar(&segmenterMin, "min", 0, "minimum paragraph length")
	settingsSegmenterCmd.Flags().IntVar(&segmenterMax, "max", 0, "maximum paragraph length")

	settingsBackendCmd.Flags().StringVar(&backendName, "backend", "", "vector backend (none, qdrant)")
	settingsBackendCmd.Flags().StringVar(&backendAddress, "address", "", "backend gRPC address (host:port)")
	settingsBackendCmd.Flags().StringVar(&backendCollName, "collection", "", "collection holding paragraph vectors")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsSegmenterCmd)
	settingsCmd.AddCommand(settingsBackendCmd)
	settingsCmd.AddCommand(settingsLimitCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println(styles.Title.Render("Current Settings"))
	cmd.Println("================")
	cmd.Println()

	cmd.Println(styles.Subtitle.Render("[Search]"))
	cmd.Printf("  Default limit: %d\n", settings.Search.DefaultLimit)
	cmd.Println()

	cmd.Println(styles.Subtitle.Render("[Embedding]"))
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	if settings.Embedding.Provider == domain.AIProviderOllama {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	if settings.Embedding.Provider.RequiresAPIKey() {
		if settings.Embedding.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(settings.Embedding.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	status := styles.Success.Render("configured")
	if !settings.Embedding.IsConfigured() {
		status = styles.Warning.Render("not configured")
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	cmd.Println(styles.Subtitle.Render("[Segmenter]"))
	cmd.Printf("  Min length: %d\n", settings.Segmenter.MinLength)
	cmd.Printf("  Max length: %d\n", settings.Segmenter.MaxLength)
	cmd.Println()

	cmd.Println(styles.Subtitle.Render("[Vector Backend]"))
	cmd.Printf("  Backend: %s\n", settings.VectorBackend.Backend.Description())
	if settings.VectorBackend.Backend != domain.VectorBackendNone {
		cmd.Printf("  Address: %s\n", settings.VectorBackend.Address)
		cmd.Printf("  Collection: %s\n", settings.VectorBackend.Collection)
	}
	cmd.Println()

	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if embedProvider == "" {
		reader := bufio.NewReader(cmd.InOrStdin())
		return configureEmbeddingProvider(cmd, reader)
	}

	provider := domain.AIProvider(embedProvider)
	if !provider.IsValid() {
		return fmt.Errorf("unknown embedding provider: %s", embedProvider)
	}

	return applyEmbeddingProvider(cmd, provider, embedModel, embedBaseURL, embedAPIKey)
}

func configureEmbeddingProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select Embedding Provider")
	providers := domain.AllEmbeddingProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	// Get model
	defaults := domain.DefaultEmbeddingModels()
	defaultModel := defaults[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var baseURL string
	if selectedProvider == domain.AIProviderOllama {
		cmd.Print("Enter base URL [http://localhost:11434]: ")
		baseURL = readLine(reader)
	}

	// Get API key if needed
	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(cmd, reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	return applyEmbeddingProvider(cmd, selectedProvider, model, baseURL, apiKey)
}

func applyEmbeddingProvider(cmd *cobra.Command, provider domain.AIProvider, model, baseURL, apiKey string) error {
	if err := settingsService.SetEmbeddingProvider(provider, model, baseURL, apiKey); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	// Validate the configuration by pinging the service
	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateEmbeddingConfig(); err != nil {
		cmd.Printf("%s: %v\n", styles.Error.Render("FAILED"), err)
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	cmd.Println(styles.Success.Render("OK"))

	if model == "" {
		model = domain.DefaultEmbeddingModels()[provider]
	}
	cmd.Printf("Embedding provider configured: %s (%s)\n", provider.Description(), model)
	cmd.Println(styles.Muted.Render("Run 'libsearch document reindex' on existing documents to use the new model."))
	return nil
}

func runSettingsSegmenter(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	minLength := settings.Segmenter.MinLength
	maxLength := settings.Segmenter.MaxLength
	if cmd.Flags().Changed("min") {
		minLength = segmenterMin
	}
	if cmd.Flags().Changed("max") {
		maxLength = segmenterMax
	}

	if err := settingsService.SetSegmenter(minLength, maxLength); err != nil {
		return fmt.Errorf("failed to configure segmenter: %w", err)
	}

	cmd.Printf("Segmenter configured: %d to %d characters\n", minLength, maxLength)
	return nil
}

func runSettingsBackend(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	backend := domain.VectorBackend(backendName)
	address := backendAddress
	if backendName == "" {
		reader := bufio.NewReader(cmd.InOrStdin())
		cmd.Println("Select Vector Backend")
		backends := domain.AllVectorBackends()
		for i, b := range backends {
			cmd.Printf("  %d. %s\n", i+1, b.Description())
		}
		cmd.Print("\nEnter choice [1]: ")
		backend = backends[parseChoice(readLine(reader), len(backends), 1)-1]

		if backend != domain.VectorBackendNone && address == "" {
			cmd.Print("Enter address [localhost:6334]: ")
			address = readLine(reader)
			if address == "" {
				address = "localhost:6334"
			}
		}
	}

	if err := settingsService.SetVectorBackend(backend, address, backendCollName); err != nil {
		return fmt.Errorf("failed to configure vector backend: %w", err)
	}

	cmd.Printf("Vector backend configured: %s\n", backend.Description())
	return nil
}

func runSettingsLimit(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	limit, err := strconv.Atoi(args[0])
	if err != nil || limit < 1 {
		return fmt.Errorf("invalid limit: %s", args[0])
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	settings.Search.DefaultLimit = limit

	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	cmd.Printf("Default search limit set to %d\n", limit)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads a secret without echo when stdin is a terminal.
func readPassword(cmd *cobra.Command, reader *bufio.Reader) string {
	if cmd.InOrStdin() == os.Stdin && term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	// Fallback to regular input
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
