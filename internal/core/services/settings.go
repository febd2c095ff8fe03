package services

import (
	"fmt"

	"github.com/studesprit/libsearch/internal/core/domain"
	"github.com/studesprit/libsearch/internal/core/ports/driven"
	"github.com/studesprit/libsearch/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keySearchLimit      = "search.default_limit"
	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedAPIKey      = "embedding.api_key"
	keySegmenterMin     = "segmenter.min_length"
	keySegmenterMax     = "segmenter.max_length"
	keyVectorBackend    = "vector_backend.backend"
	keyVectorAddress    = "vector_backend.address"
	keyVectorCollection = "vector_backend.collection"
)

// defaultOllamaURL is used when a local provider has no base URL.
const defaultOllamaURL = "http://localhost:11434"

// SettingsService maps dot-notation config keys to domain.AppSettings.
type SettingsService struct {
	configStore driven.ConfigStore
	validator   driven.EmbeddingValidator
}

// NewSettingsService creates a new settings service.
// The validator is optional (can be nil).
func NewSettingsService(configStore driven.ConfigStore, validator driven.EmbeddingValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		validator:   validator,
	}
}

// Get retrieves current application settings. Missing or invalid values
// resolve to their defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Search: domain.SearchSettings{
			DefaultLimit: s.getInt(keySearchLimit, defaults.Search.DefaultLimit),
		},
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(defaults.Embedding.Provider),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL),
			APIKey:   s.configStore.GetString(keyEmbedAPIKey),
		},
		Segmenter: domain.SegmenterSettings{
			MinLength: s.getInt(keySegmenterMin, defaults.Segmenter.MinLength),
			MaxLength: s.getInt(keySegmenterMax, defaults.Segmenter.MaxLength),
		},
		VectorBackend: domain.VectorBackendSettings{
			Backend:    s.getVectorBackend(defaults.VectorBackend.Backend),
			Address:    s.configStore.GetString(keyVectorAddress),
			Collection: s.getString(keyVectorCollection, defaults.VectorBackend.Collection),
		},
	}

	// The model default follows the provider
	settings.Embedding.Model = s.getString(keyEmbedModel, domain.DefaultEmbeddingModels()[settings.Embedding.Provider])

	if !settings.Segmenter.IsValid() {
		settings.Segmenter = defaults.Segmenter
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keySearchLimit, settings.Search.DefaultLimit},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keySegmenterMin, settings.Segmenter.MinLength},
		{keySegmenterMax, settings.Segmenter.MaxLength},
		{keyVectorBackend, settings.VectorBackend.Backend.String()},
		{keyVectorAddress, settings.VectorBackend.Address},
		{keyVectorCollection, settings.VectorBackend.Collection},
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// An empty key never overwrites a stored one
	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", keyEmbedAPIKey, err)
		}
	}

	return nil
}

// SetEmbeddingProvider configures the embedding provider.
// Models known to produce vectors of another size are rejected.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, baseURL, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: embedding provider %q", domain.ErrInvalidInput, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	if model == "" {
		model = domain.DefaultEmbeddingModels()[provider]
	}
	if err := checkModelDimensions(provider, model); err != nil {
		return err
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = model
	settings.Embedding.APIKey = apiKey

	switch {
	case baseURL != "":
		settings.Embedding.BaseURL = baseURL
	case provider == domain.AIProviderOllama:
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = defaultOllamaURL
		}
	default:
		settings.Embedding.BaseURL = ""
	}

	return s.Save(settings)
}

// SetSegmenter configures paragraph length bounds.
func (s *SettingsService) SetSegmenter(minLength, maxLength int) error {
	bounds := domain.SegmenterSettings{MinLength: minLength, MaxLength: maxLength}
	if !bounds.IsValid() {
		return fmt.Errorf("%w: segmenter bounds min=%d max=%d", domain.ErrInvalidInput, minLength, maxLength)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Segmenter = bounds

	return s.Save(settings)
}

// SetVectorBackend configures the optional ANN delegate.
func (s *SettingsService) SetVectorBackend(backend domain.VectorBackend, address, collection string) error {
	if !backend.IsValid() {
		return fmt.Errorf("%w: vector backend %q", domain.ErrInvalidInput, backend)
	}
	if backend != domain.VectorBackendNone && address == "" {
		return fmt.Errorf("%w: address required for %s", domain.ErrInvalidInput, backend)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.VectorBackend.Backend = backend
	settings.VectorBackend.Address = address
	if collection != "" {
		settings.VectorBackend.Collection = collection
	}

	return s.Save(settings)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig pings the configured embedding provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.validator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.validator.ValidateEmbedding(&settings.Embedding)
}

// checkModelDimensions rejects models whose native size is known and is not
// domain.EmbeddingDimensions. OpenAI text-embedding-3 models are shortened on
// request and always pass.
func checkModelDimensions(provider domain.AIProvider, model string) error {
	if provider == domain.AIProviderOpenAI && isShortenable(model) {
		return nil
	}
	if d, ok := domain.ModelDimensions()[model]; ok && d != domain.EmbeddingDimensions {
		return fmt.Errorf("%w: model %s produces %d-dimensional vectors, want %d",
			domain.ErrDimensionMismatch, model, d, domain.EmbeddingDimensions)
	}
	return nil
}

// isShortenable reports whether an OpenAI model accepts a dimensions parameter.
func isShortenable(model string) bool {
	return model == "text-embedding-3-small" || model == "text-embedding-3-large"
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getProvider(defaultVal domain.AIProvider) domain.AIProvider {
	provider := domain.AIProvider(s.configStore.GetString(keyEmbedProvider))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getVectorBackend(defaultVal domain.VectorBackend) domain.VectorBackend {
	backend := domain.VectorBackend(s.configStore.GetString(keyVectorBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}
