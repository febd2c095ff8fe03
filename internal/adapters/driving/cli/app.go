package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/studesprit/libsearch/internal/adapters/driven/ai"
	"github.com/studesprit/libsearch/internal/adapters/driven/config/file"
	"github.com/studesprit/libsearch/internal/adapters/driven/storage/sqlite"
	"github.com/studesprit/libsearch/internal/core/domain"
	"github.com/studesprit/libsearch/internal/core/services"
	"github.com/studesprit/libsearch/internal/logger"
	"github.com/studesprit/libsearch/internal/normalisers"
	"github.com/studesprit/libsearch/internal/postprocessors"
)

// Environment variables that override stored settings for one process.
const (
	envOpenAIKey   = "OPENAI_API_KEY"
	envQdrantAddr  = "LIBSEARCH_QDRANT_ADDR"
	dataSubdir     = "data"
	defaultHomeDir = ".libsearch"
)

// Options configures Open.
type Options struct {
	// HomeDir holds config.toml and the data directory. Defaults to ~/.libsearch.
	HomeDir string
}

// App holds the wired services for one process.
type App struct {
	Settings   *services.SettingsService
	Retrieval  *services.RetrievalService
	Documents  *services.DocumentService
	Extractors *normalisers.Registry

	// Warnings lists fallbacks taken while wiring.
	Warnings []string

	store *sqlite.Store
	ai    *ai.InitResult
}

// Open wires the configuration, storage, embedding and retrieval services.
func Open(ctx context.Context, opts Options) (*App, error) {
	home, err := resolveHome(opts.HomeDir)
	if err != nil {
		return nil, err
	}
	logger.Section("Startup")
	logger.Debug("Library directory: %s", home)

	configStore, err := file.NewConfigStore(home)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	settingsSvc := services.NewSettingsService(configStore, ai.NewConfigValidator())

	settings, err := settingsSvc.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	applyEnvOverrides(settings)

	segmenter, err := postprocessors.NewSegmenter(settings.Segmenter)
	if err != nil {
		return nil, fmt.Errorf("building segmenter: %w", err)
	}

	store, err := sqlite.NewStore(filepath.Join(home, dataSubdir))
	if err != nil {
		return nil, fmt.Errorf("opening library: %w", err)
	}

	initResult := ai.Initialise(ctx, *settings)
	embedder := initResult.EmbeddingService

	var indexOpts []services.SimilarityOption
	if initResult.VectorIndex != nil {
		indexOpts = append(indexOpts, services.WithVectorIndex(initResult.VectorIndex))
	}
	index := services.NewSimilarityIndex(store.ParagraphStore(), embedder.ModelName(), indexOpts...)

	retrieval := services.NewRetrievalService(store.Catalog(), store.DocumentStore(), index, segmenter, embedder)
	documents := services.NewDocumentService(store.DocumentStore(), store.ParagraphStore(), retrieval, index)

	logger.Debug("Embedding model: %s (%d dims)", embedder.ModelName(), embedder.Dimensions())

	return &App{
		Settings:   settingsSvc,
		Retrieval:  retrieval,
		Documents:  documents,
		Extractors: normalisers.NewDefaultRegistry(),
		Warnings:   initResult.Warnings,
		store:      store,
		ai:         initResult,
	}, nil
}

// Close releases the embedding backend, vector delegate and database.
func (a *App) Close() error {
	if a.ai != nil {
		a.ai.Close()
	}
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

// applyEnvOverrides replaces stored settings with values from the environment.
func applyEnvOverrides(settings *domain.AppSettings) {
	if key := os.Getenv(envOpenAIKey); key != "" {
		settings.Embedding.APIKey = key
	}
	if addr := os.Getenv(envQdrantAddr); addr != "" {
		settings.VectorBackend.Backend = domain.VectorBackendQdrant
		settings.VectorBackend.Address = addr
	}
}

func resolveHome(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving library directory: %w", err)
	}
	return filepath.Join(home, defaultHomeDir), nil
}
