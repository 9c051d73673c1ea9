package port

import (
	"context"

	"sprintrag/internal/domain"
)

// Searcher finds the chunks most relevant to a query text.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]domain.SearchResult, error)
}
