package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprintrag/internal/domain"
)

func newTestEmbedder(t *testing.T, handler http.HandlerFunc, opts Options) *OpenAIEmbedder {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	t.Setenv("TEST_EMBED_KEY", "secret")
	opts.BaseURL = srv.URL
	opts.APIKeyEnv = "TEST_EMBED_KEY"
	e, err := NewOpenAIEmbedder(opts)
	require.NoError(t, err)
	return e
}

func TestOpenAIEmbedder_Embed(t *testing.T) {
	e := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"hello"}, req.Input)

		json.NewEncoder(w).Encode(embeddingResponse{
			Data: []embeddingData{{Embedding: []float32{0.1, 0.2, 0.3}}},
		})
	}, Options{Model: "test-model", Dimension: 3})

	vec, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, 3, e.Dimension())
	assert.Equal(t, "test-model", e.ModelName())
}

func TestOpenAIEmbedder_StatusError(t *testing.T) {
	e := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}, Options{Dimension: 3})

	_, err := e.Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, domain.ErrExternalService)
}

func TestOpenAIEmbedder_DimensionMismatch(t *testing.T) {
	e := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embeddingResponse{
			Data: []embeddingData{{Embedding: []float32{0.1}}},
		})
	}, Options{Dimension: 3})

	_, err := e.Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, domain.ErrExternalService)
}

func TestOpenAIEmbedder_Timeout(t *testing.T) {
	e := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, Options{Dimension: 3, Timeout: 50 * time.Millisecond})

	_, err := e.Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, domain.ErrExternalService)
}

func TestNewOpenAIEmbedder_MissingKey(t *testing.T) {
	t.Setenv("MISSING_KEY_FOR_TEST", "")
	_, err := NewOpenAIEmbedder(Options{APIKeyEnv: "MISSING_KEY_FOR_TEST"})
	assert.Error(t, err)
}

func TestNewOllamaEmbedder_NoKeyNeeded(t *testing.T) {
	e, err := NewOllamaEmbedder(Options{Model: "all-minilm"})
	require.NoError(t, err)
	assert.Equal(t, 384, e.Dimension())
}

func TestMockEmbedder(t *testing.T) {
	e := NewMockEmbedder(64)
	ctx := context.Background()

	a, err := e.Embed(ctx, "sprint velocity improved")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "sprint velocity improved")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	e.FailOn = func(text string) bool { return text == "bad" }
	_, err = e.Embed(ctx, "bad")
	assert.ErrorIs(t, err, domain.ErrExternalService)
}
