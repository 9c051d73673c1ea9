package llm

import (
	"context"
	"fmt"
	"sync"

	"sprintrag/internal/domain"
	"sprintrag/internal/port"
)

// MockGenerator records prompts and returns a canned reply.
type MockGenerator struct {
	Reply string
	Err   error

	mu      sync.Mutex
	prompts []string
}

func NewMockGenerator(reply string) *MockGenerator {
	return &MockGenerator{Reply: reply}
}

func (g *MockGenerator) Generate(ctx context.Context, prompt string, _ port.GenerateOptions) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrExternalService, err)
	}
	if g.Err != nil {
		return "", g.Err
	}
	return g.Reply, nil
}

// Prompts returns every prompt received so far.
func (g *MockGenerator) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.prompts...)
}

func (g *MockGenerator) ModelName() string {
	return "mock"
}
