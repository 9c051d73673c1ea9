package port

import "context"

// Generator turns a prompt into generated text.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}

// GenerateOptions configures a single generation call.
type GenerateOptions struct {
	MaxTokens   int
	Temperature float64
	TopP        float64
}
