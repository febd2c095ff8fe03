// Package ai provides factory functions for creating embedding backends and
// the optional vector index delegate.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/studesprit/libsearch/internal/adapters/driven/embedding/deterministic"
	ollamaembed "github.com/studesprit/libsearch/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/studesprit/libsearch/internal/adapters/driven/embedding/openai"
	"github.com/studesprit/libsearch/internal/adapters/driven/vector/qdrant"
	"github.com/studesprit/libsearch/internal/core/domain"
	"github.com/studesprit/libsearch/internal/core/ports/driven"
	"github.com/studesprit/libsearch/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
var pingTimeout = 5 * time.Second

// dialVectorIndex connects the ANN delegate. Tests replace it.
var dialVectorIndex = func(ctx context.Context, settings domain.VectorBackendSettings) (driven.VectorIndex, error) {
	index, err := qdrant.Dial(ctx, settings.Address, qdrant.WithCollection(settings.Collection))
	if err != nil {
		return nil, err
	}
	return index, nil
}

// InitResult contains the result of AI service initialisation.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	VectorIndex      driven.VectorIndex // Nil when no delegate is configured or reachable.
	Warnings         []string           // Non-fatal issues that caused fallback.
	FellBack         bool               // True if the deterministic embedder replaced the configured one.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.VectorIndex != nil {
		r.VectorIndex.Close()
	}
}

// Initialise builds the embedding backend and vector delegate for the process.
//
// A configured embedder that cannot be built or fails its ping is replaced by
// the deterministic embedder for the whole process. An unreachable vector
// delegate is dropped so that queries use the exact scan. Neither is fatal.
func Initialise(ctx context.Context, settings domain.AppSettings) *InitResult {
	result := &InitResult{}

	embedder, err := CreateAndValidateEmbeddingService(ctx, &settings.Embedding)
	if err != nil {
		logger.Fallback("embedding", settings.Embedding.Provider.String(), domain.AIProviderDeterministic.String(), err)
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("embedding provider %s unavailable, using deterministic embedder: %v",
				settings.Embedding.Provider, err))
		result.FellBack = true
		embedder = deterministic.NewEmbeddingService()
	}
	result.EmbeddingService = embedder

	if settings.VectorBackend.IsEnabled() {
		index, err := CreateVectorIndex(ctx, settings.VectorBackend)
		if err != nil {
			logger.Fallback("similarity", settings.VectorBackend.Backend.String(), "exact scan", err)
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("vector backend %s unavailable, using exact scan: %v", settings.VectorBackend.Backend, err))
		}
		result.VectorIndex = index
	}

	return result
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
func CreateAndValidateEmbeddingService(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable: %w", domain.ErrEmbeddingUnavailable, err)
	}

	return svc, nil
}

// ValidateEmbeddingConfig validates an embedding configuration by creating a service and pinging it.
// Unconfigured settings are not an error.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	svc, err := CreateAndValidateEmbeddingService(context.Background(), settings)
	if err != nil {
		return err
	}
	return svc.Close()
}

// CreateEmbeddingService creates the embedding service selected by settings.
// Nil or empty settings select the deterministic embedder. Backends that do
// not produce domain.EmbeddingDimensions-sized vectors are rejected.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || settings.Provider == "" {
		return deterministic.NewEmbeddingService(), nil
	}
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: provider %q is not configured", domain.ErrEmbeddingUnavailable, settings.Provider)
	}

	var (
		svc driven.EmbeddingService
		err error
	)
	switch settings.Provider {
	case domain.AIProviderDeterministic:
		svc = deterministic.NewEmbeddingService()

	case domain.AIProviderOllama:
		svc, err = ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: domain.ModelDimensions()[settings.Model],
		})

	case domain.AIProviderOpenAI:
		svc, err = openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("%w: embedding provider %s", domain.ErrUnsupportedType, settings.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}

	if svc.Dimensions() != domain.EmbeddingDimensions {
		svc.Close()
		return nil, fmt.Errorf("%w: model %s produces %d dimensions, need %d",
			domain.ErrDimensionMismatch, svc.ModelName(), svc.Dimensions(), domain.EmbeddingDimensions)
	}

	return svc, nil
}

// CreateVectorIndex connects the configured ANN delegate.
func CreateVectorIndex(ctx context.Context, settings domain.VectorBackendSettings) (driven.VectorIndex, error) {
	if !settings.IsEnabled() {
		return nil, nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	index, err := dialVectorIndex(dialCtx, settings)
	if err != nil {
		return nil, err
	}
	logger.Debug("vector index: connected to %s at %s", settings.Backend, settings.Address)
	return index, nil
}
