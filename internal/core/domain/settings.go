package domain

const unknownDescription = "Unknown"

// AIProvider identifies an embedding service provider.
type AIProvider string

// Available embedding providers.
const (
	// AIProviderDeterministic is the built-in hash-based embedder. No setup required.
	AIProviderDeterministic AIProvider = "deterministic"

	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderDeterministic, AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// IsLocal returns true if this provider runs without network access to a cloud API.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderDeterministic
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderDeterministic:
		return "Deterministic (built-in, hash based)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// VectorBackend identifies the optional approximate nearest-neighbour delegate.
type VectorBackend string

// Available vector backends.
const (
	// VectorBackendNone uses only the exact linear scan.
	VectorBackendNone VectorBackend = "none"

	// VectorBackendQdrant delegates similarity queries to a Qdrant collection.
	VectorBackendQdrant VectorBackend = "qdrant"
)

// IsValid returns true if the backend is recognised.
func (b VectorBackend) IsValid() bool {
	return b == VectorBackendNone || b == VectorBackendQdrant
}

// String returns the string representation.
func (b VectorBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b VectorBackend) Description() string {
	switch b {
	case VectorBackendNone:
		return "None (exact cosine scan)"
	case VectorBackendQdrant:
		return "Qdrant (approximate, falls back to exact scan)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// SegmenterSettings holds paragraph length bounds.
type SegmenterSettings struct {
	// MinLength discards shorter paragraphs.
	MinLength int

	// MaxLength triggers sentence re-splitting for longer paragraphs.
	MaxLength int
}

// IsValid returns true if the bounds are usable.
func (s SegmenterSettings) IsValid() bool {
	return s.MinLength >= 0 && s.MaxLength > 0 && s.MinLength <= s.MaxLength
}

// VectorBackendSettings holds the optional ANN delegate configuration.
type VectorBackendSettings struct {
	// Backend selects the delegate. VectorBackendNone disables delegation.
	Backend VectorBackend

	// Address is the backend gRPC address (host:port).
	Address string

	// Collection is the collection holding paragraph vectors.
	Collection string
}

// IsEnabled returns true if a delegate should be constructed.
func (v VectorBackendSettings) IsEnabled() bool {
	return v.Backend == VectorBackendQdrant && v.Address != ""
}

// SearchSettings holds search behaviour configuration.
type SearchSettings struct {
	// DefaultLimit is the number of results when the caller gives none.
	DefaultLimit int
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Search holds search behaviour settings.
	Search SearchSettings

	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// Segmenter holds paragraph segmentation bounds.
	Segmenter SegmenterSettings

	// VectorBackend holds the optional ANN delegate settings.
	VectorBackend VectorBackendSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// The deterministic embedder and the exact scan work out of the box.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Search: SearchSettings{
			DefaultLimit: DefaultSearchLimit,
		},
		Embedding: EmbeddingSettings{
			Provider: AIProviderDeterministic,
			Model:    DeterministicModelName,
		},
		Segmenter: SegmenterSettings{
			MinLength: 100,
			MaxLength: 1000,
		},
		VectorBackend: VectorBackendSettings{
			Backend:    VectorBackendNone,
			Collection: "paragraphs",
		},
	}
}

// DeterministicModelName is the model name reported by the built-in embedder.
const DeterministicModelName = "deterministic-sha256"

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderDeterministic,
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllVectorBackends returns all available vector backends.
func AllVectorBackends() []VectorBackend {
	return []VectorBackend{
		VectorBackendNone,
		VectorBackendQdrant,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
// Every default produces EmbeddingDimensions-sized vectors.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderDeterministic: DeterministicModelName,
		AIProviderOllama:        "all-minilm",
		AIProviderOpenAI:        "text-embedding-3-small",
	}
}

// ModelDimensions returns the native vector dimensions for known models.
// OpenAI text-embedding-3-* models can be shortened on request.
func ModelDimensions() map[string]int {
	return map[string]int{
		DeterministicModelName: EmbeddingDimensions,
		// Ollama models
		"all-minilm":        384,
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
