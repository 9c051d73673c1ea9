package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprintrag/internal/domain"
	"sprintrag/internal/port"
)

func TestOpenAIGenerator_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 512, req.MaxTokens)
		assert.InDelta(t, 0.7, req.Temperature, 1e-9)
		assert.InDelta(t, 0.9, req.TopP, 1e-9)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "the prompt", req.Messages[0].Content)

		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"the answer"}}]}`))
	}))
	defer srv.Close()

	g, err := NewOllamaGenerator(Options{BaseURL: srv.URL, Model: "llama3"})
	require.NoError(t, err)

	out, err := g.Generate(context.Background(), "the prompt", port.GenerateOptions{MaxTokens: 512, Temperature: 0.7, TopP: 0.9})
	require.NoError(t, err)
	assert.Equal(t, "the answer", out)
	assert.Equal(t, "llama3", g.ModelName())
}

func TestOpenAIGenerator_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	g, err := NewOllamaGenerator(Options{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), "p", port.GenerateOptions{})
	assert.ErrorIs(t, err, domain.ErrExternalService)
}

func TestOpenAIGenerator_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"message":"model overloaded"}}`))
	}))
	defer srv.Close()

	g, _ := NewOllamaGenerator(Options{BaseURL: srv.URL})
	_, err := g.Generate(context.Background(), "p", port.GenerateOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model overloaded")
}
