package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studesprit/libsearch/internal/core/domain"
	"github.com/studesprit/libsearch/internal/core/ports/driven"
)

// newOllamaServer answers /api/tags with the given model names.
func newOllamaServer(t *testing.T, models ...string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, _ *http.Request) {
		list := make([]map[string]string, 0, len(models))
		for _, m := range models {
			list = append(list, map[string]string{"name": m, "model": m})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"models": list})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// stubIndex is a VectorIndex that records Close.
type stubIndex struct {
	driven.VectorIndex
	closed bool
}

func (s *stubIndex) Close() error {
	s.closed = true
	return nil
}

func stubDial(t *testing.T, index driven.VectorIndex, err error) {
	t.Helper()
	orig := dialVectorIndex
	dialVectorIndex = func(context.Context, domain.VectorBackendSettings) (driven.VectorIndex, error) {
		return index, err
	}
	t.Cleanup(func() { dialVectorIndex = orig })
}

func TestInitResult_Close(t *testing.T) {
	t.Run("close with nil services", func(t *testing.T) {
		result := &InitResult{}
		result.Close()
	})

	t.Run("closes vector index", func(t *testing.T) {
		index := &stubIndex{}
		result := &InitResult{VectorIndex: index}
		result.Close()
		assert.True(t, index.closed)
	})
}

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name      string
		settings  *domain.EmbeddingSettings
		wantModel string
		wantErr   error
	}{
		{
			name:      "nil settings selects deterministic",
			settings:  nil,
			wantModel: domain.DeterministicModelName,
		},
		{
			name:      "empty provider selects deterministic",
			settings:  &domain.EmbeddingSettings{},
			wantModel: domain.DeterministicModelName,
		},
		{
			name:      "deterministic provider",
			settings:  &domain.EmbeddingSettings{Provider: domain.AIProviderDeterministic},
			wantModel: domain.DeterministicModelName,
		},
		{
			name:      "ollama all-minilm",
			settings:  &domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "all-minilm"},
			wantModel: "all-minilm",
		},
		{
			name: "openai shortened to 384",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI, Model: "text-embedding-3-large", APIKey: "sk-test",
			},
			wantModel: "text-embedding-3-large",
		},
		{
			name:     "ollama model with other dimensions",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "mxbai-embed-large"},
			wantErr:  domain.ErrDimensionMismatch,
		},
		{
			name: "openai model without dimension control",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI, Model: "text-embedding-ada-002", APIKey: "sk-test",
			},
			wantErr: domain.ErrDimensionMismatch,
		},
		{
			name:     "openai without key",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI},
			wantErr:  domain.ErrEmbeddingUnavailable,
		},
		{
			name:     "unknown provider",
			settings: &domain.EmbeddingSettings{Provider: "cohere"},
			wantErr:  domain.ErrEmbeddingUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, svc)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantModel, svc.ModelName())
			assert.Equal(t, domain.EmbeddingDimensions, svc.Dimensions())
		})
	}
}

func TestCreateAndValidateEmbeddingService_Ollama(t *testing.T) {
	server := newOllamaServer(t, "all-minilm:latest")
	settings := &domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "all-minilm", BaseURL: server.URL}

	svc, err := CreateAndValidateEmbeddingService(context.Background(), settings)

	require.NoError(t, err)
	assert.Equal(t, "all-minilm", svc.ModelName())
}

func TestCreateAndValidateEmbeddingService_PingFails(t *testing.T) {
	server := newOllamaServer(t)
	settings := &domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "all-minilm", BaseURL: server.URL}

	_, err := CreateAndValidateEmbeddingService(context.Background(), settings)

	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestInitialise_Defaults(t *testing.T) {
	result := Initialise(context.Background(), domain.DefaultAppSettings())
	defer result.Close()

	require.NotNil(t, result.EmbeddingService)
	assert.Equal(t, domain.DeterministicModelName, result.EmbeddingService.ModelName())
	assert.Nil(t, result.VectorIndex)
	assert.False(t, result.FellBack)
	assert.Empty(t, result.Warnings)
}

func TestInitialise_FallsBackToDeterministic(t *testing.T) {
	server := newOllamaServer(t)
	url := server.URL
	server.Close()

	settings := domain.DefaultAppSettings()
	settings.Embedding = domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "all-minilm", BaseURL: url}

	result := Initialise(context.Background(), settings)
	defer result.Close()

	assert.True(t, result.FellBack)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "ollama")
	assert.Equal(t, domain.DeterministicModelName, result.EmbeddingService.ModelName())
}

func TestInitialise_WrongDimensionsFallsBack(t *testing.T) {
	settings := domain.DefaultAppSettings()
	settings.Embedding = domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "nomic-embed-text"}

	result := Initialise(context.Background(), settings)

	assert.True(t, result.FellBack)
	assert.Equal(t, domain.DeterministicModelName, result.EmbeddingService.ModelName())
}

func TestInitialise_VectorBackend(t *testing.T) {
	index := &stubIndex{}
	stubDial(t, index, nil)

	settings := domain.DefaultAppSettings()
	settings.VectorBackend = domain.VectorBackendSettings{
		Backend: domain.VectorBackendQdrant, Address: "localhost:6334", Collection: "paragraphs",
	}

	result := Initialise(context.Background(), settings)

	assert.Same(t, index, result.VectorIndex)
	assert.Empty(t, result.Warnings)
	result.Close()
	assert.True(t, index.closed)
}

func TestInitialise_VectorBackendUnavailable(t *testing.T) {
	stubDial(t, nil, domain.ErrVectorIndexUnavailable)

	settings := domain.DefaultAppSettings()
	settings.VectorBackend = domain.VectorBackendSettings{Backend: domain.VectorBackendQdrant, Address: "localhost:1"}

	result := Initialise(context.Background(), settings)

	assert.Nil(t, result.VectorIndex)
	assert.False(t, result.FellBack, "vector fallback does not affect the embedder")
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "exact scan")
}

func TestCreateVectorIndex_Disabled(t *testing.T) {
	stubDial(t, nil, errors.New("must not be called"))

	index, err := CreateVectorIndex(context.Background(), domain.VectorBackendSettings{Backend: domain.VectorBackendNone})

	assert.NoError(t, err)
	assert.Nil(t, index)
}
