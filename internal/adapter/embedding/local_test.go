package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprintrag/internal/domain"
)

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i] * b[i])
	}
	return s
}

func TestLocalEmbedder(t *testing.T) {
	e := NewLocalEmbedder(0)
	ctx := context.Background()
	assert.Equal(t, DefaultLocalDimension, e.Dimension())
	assert.Equal(t, "local-hash-512", e.ModelName())

	q, err := e.Embed(ctx, "Which stories were closed?")
	require.NoError(t, err)
	related, err := e.Embed(ctx, "The team closed twelve stories this sprint")
	require.NoError(t, err)
	unrelated, err := e.Embed(ctx, "Cloud costs grew by ten percent")
	require.NoError(t, err)

	assert.InDelta(t, 1.0, math.Sqrt(dot(q, q)), 1e-5)
	assert.Greater(t, dot(q, related), dot(q, unrelated))
}

func TestLocalEmbedder_StopwordsOnly(t *testing.T) {
	vec, err := NewLocalEmbedder(8).Embed(context.Background(), "what were the")
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 8), vec)
}

func TestLocalEmbedder_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLocalEmbedder(8).Embed(ctx, "text")
	assert.ErrorIs(t, err, domain.ErrExternalService)
}
