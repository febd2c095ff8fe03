package driving

import "github.com/studesprit/libsearch/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetEmbeddingProvider configures the embedding provider.
	SetEmbeddingProvider(provider domain.AIProvider, model, baseURL, apiKey string) error

	// SetSegmenter configures paragraph length bounds.
	SetSegmenter(minLength, maxLength int) error

	// SetVectorBackend configures the optional ANN delegate.
	SetVectorBackend(backend domain.VectorBackend, address, collection string) error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// ValidateEmbeddingConfig checks that the configured embedding
	// provider is reachable.
	ValidateEmbeddingConfig() error
}
