package embedding

import (
	"context"
	"fmt"

	"sprintrag/internal/domain"
)

// MockEmbedder is the local embedder with injectable failures, for tests.
type MockEmbedder struct {
	local *LocalEmbedder
	// FailOn makes Embed fail for matching texts.
	FailOn func(text string) bool
}

func NewMockEmbedder(dimension int) *MockEmbedder {
	if dimension <= 0 {
		dimension = 1536
	}
	return &MockEmbedder{local: NewLocalEmbedder(dimension)}
}

func (e *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.FailOn != nil && e.FailOn(text) {
		return nil, fmt.Errorf("%w: mock embedding failure", domain.ErrExternalService)
	}
	return e.local.Embed(ctx, text)
}

func (e *MockEmbedder) Dimension() int {
	return e.local.Dimension()
}

func (e *MockEmbedder) ModelName() string {
	return "mock"
}
