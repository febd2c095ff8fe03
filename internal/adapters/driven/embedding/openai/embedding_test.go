package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI is a minimal /embeddings and /models server.
type fakeAPI struct {
	mu       sync.Mutex
	requests []embeddingRequest
	status   int
	reverse  bool
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/embeddings", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req embeddingRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		f.mu.Lock()
		f.requests = append(f.requests, req)
		f.mu.Unlock()

		if f.status != 0 {
			w.WriteHeader(f.status)
			_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded","type":"insufficient_quota"}}`))
			return
		}

		type item struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		data := make([]item, len(req.Input))
		for i, text := range req.Input {
			vec := make([]float32, req.Dimensions)
			vec[0] = float32(len(text))
			data[i] = item{Embedding: vec, Index: i}
		}
		if f.reverse {
			for i, j := 0, len(data)-1; i < j; i, j = i+1, j-1 {
				data[i], data[j] = data[j], data[i]
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
	})
	mux.HandleFunc("/models", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	})
	return mux
}

func newTestService(t *testing.T, api *fakeAPI, cfg Config) *EmbeddingService {
	t.Helper()
	server := httptest.NewServer(api.handler(t))
	t.Cleanup(server.Close)

	if cfg.APIKey == "" {
		cfg.APIKey = "sk-test"
	}
	cfg.BaseURL = server.URL
	cfg.RequestsPerSecond = 1000
	cfg.BurstSize = 100

	svc, err := NewEmbeddingService(cfg)
	require.NoError(t, err)
	return svc
}

func TestNewEmbeddingService_RequiresAPIKey(t *testing.T) {
	_, err := NewEmbeddingService(Config{})
	assert.Error(t, err)
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	svc, err := NewEmbeddingService(Config{APIKey: "sk-test"})
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, 384, svc.Dimensions())
	assert.Equal(t, DefaultBatchSize, svc.batchSize)
	assert.NoError(t, svc.Close())
}

func TestNewEmbeddingService_FixedDimensionModel(t *testing.T) {
	svc, err := NewEmbeddingService(Config{APIKey: "sk-test", Model: "text-embedding-ada-002"})
	require.NoError(t, err)

	assert.Equal(t, 1536, svc.Dimensions())
}

func TestSupportsDimensions(t *testing.T) {
	assert.True(t, SupportsDimensions("text-embedding-3-small"))
	assert.True(t, SupportsDimensions("text-embedding-3-large"))
	assert.False(t, SupportsDimensions("text-embedding-ada-002"))
}

func TestEmbeddingService_EmbedBatch_RequestsShortenedVectors(t *testing.T) {
	api := &fakeAPI{}
	svc := newTestService(t, api, Config{})

	vecs, err := svc.EmbedBatch(context.Background(), []string{"a", "bb"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Len(t, vecs[0], 384)
	require.Len(t, api.requests, 1)
	assert.Equal(t, 384, api.requests[0].Dimensions)
	assert.Equal(t, "text-embedding-3-small", api.requests[0].Model)
}

func TestEmbeddingService_EmbedBatch_OrdersByIndex(t *testing.T) {
	api := &fakeAPI{reverse: true}
	svc := newTestService(t, api, Config{})

	vecs, err := svc.EmbedBatch(context.Background(), []string{"a", "bb", "ccc"})
	require.NoError(t, err)
	assert.Equal(t, float32(1), vecs[0][0])
	assert.Equal(t, float32(2), vecs[1][0])
	assert.Equal(t, float32(3), vecs[2][0])
}

func TestEmbeddingService_EmbedBatch_SplitsBatches(t *testing.T) {
	api := &fakeAPI{}
	svc := newTestService(t, api, Config{BatchSize: 2})

	vecs, err := svc.EmbedBatch(context.Background(), []string{"a", "bb", "ccc", "dddd", "eeeee"})
	require.NoError(t, err)
	require.Len(t, vecs, 5)
	assert.Equal(t, float32(5), vecs[4][0])
	assert.Len(t, api.requests, 3)
}

func TestEmbeddingService_EmbedBatch_Empty(t *testing.T) {
	api := &fakeAPI{}
	svc := newTestService(t, api, Config{})

	vecs, err := svc.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vecs)
	assert.Empty(t, api.requests)
}

func TestEmbeddingService_Embed_APIError(t *testing.T) {
	api := &fakeAPI{status: http.StatusTooManyRequests}
	svc := newTestService(t, api, Config{})

	_, err := svc.Embed(context.Background(), "a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Contains(t, err.Error(), "429")
}

func TestEmbeddingService_Embed_CancelledContext(t *testing.T) {
	api := &fakeAPI{}
	svc := newTestService(t, api, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Embed(ctx, "a")
	assert.Error(t, err)
}

func TestEmbeddingService_Ping(t *testing.T) {
	api := &fakeAPI{}

	good := newTestService(t, api, Config{})
	assert.NoError(t, good.Ping(context.Background()))

	bad := newTestService(t, api, Config{APIKey: "sk-wrong"})
	err := bad.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
