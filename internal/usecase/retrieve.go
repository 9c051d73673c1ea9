package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"sprintrag/internal/domain"
	"sprintrag/internal/port"
)

// NoDocumentsFound is the context given to the model when retrieval is empty.
const NoDocumentsFound = "No relevant documents found."

// DefaultTopK is the number of chunks retrieved for a general question.
const DefaultTopK = 3

// Retriever embeds query text and searches one collection.
type Retriever struct {
	index         port.VectorIndex
	embedder      port.Embedder
	name          string
	maxInputChars int
	logger        *zap.Logger

	mu   sync.RWMutex
	coll port.Collection
}

// NewRetriever acquires the named collection. The collection must exist and
// have been built with vectors of the embedder's dimension.
func NewRetriever(ctx context.Context, index port.VectorIndex, embedder port.Embedder, name string, logger *zap.Logger) (*Retriever, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Retriever{
		index:         index,
		embedder:      embedder,
		name:          name,
		maxInputChars: MaxEmbedInputChars,
		logger:        logger,
	}
	coll, err := r.acquire(ctx)
	if err != nil {
		return nil, err
	}
	r.coll = coll
	return r, nil
}

// SetMaxInputChars overrides the query truncation length.
func (r *Retriever) SetMaxInputChars(n int) {
	if n > 0 {
		r.maxInputChars = n
	}
}

func (r *Retriever) acquire(ctx context.Context) (port.Collection, error) {
	coll, err := r.index.GetCollection(ctx, r.name)
	if err != nil {
		return nil, err
	}
	if dim := coll.Info().Dimension; dim != r.embedder.Dimension() {
		return nil, fmt.Errorf("%w: collection %s has dimension %d, embedder %s produces %d",
			domain.ErrInvalidConfig, r.name, dim, r.embedder.ModelName(), r.embedder.Dimension())
	}
	return coll, nil
}

// Info describes the collection currently held.
func (r *Retriever) Info() domain.CollectionInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.coll.Info()
}

// Refresh re-acquires the collection handle and reports whether the
// collection was rebuilt since the previous handle was taken.
func (r *Retriever) Refresh(ctx context.Context) (bool, error) {
	coll, err := r.acquire(ctx)
	if err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	changed := !coll.Info().BuiltAt.Equal(r.coll.Info().BuiltAt)
	r.coll = coll
	return changed, nil
}

func (r *Retriever) handle() port.Collection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.coll
}

// Search returns up to topK chunks ordered by ascending distance. A blank
// query or a failed query embedding yields no results and no error.
func (r *Retriever) Search(ctx context.Context, query string, topK int) ([]domain.SearchResult, error) {
	if strings.TrimSpace(query) == "" || topK <= 0 {
		return nil, nil
	}

	vec, err := r.embedder.Embed(ctx, TruncateInput(query, r.maxInputChars))
	if err != nil {
		r.logger.Warn("query embedding failed", zap.Error(err))
		return nil, nil
	}

	results, err := r.handle().Query(ctx, vec, topK)
	if errors.Is(err, domain.ErrNotFound) {
		// The collection was replaced under us; take a fresh handle once.
		r.logger.Debug("collection handle stale, re-acquiring", zap.String("collection", r.name))
		if _, rerr := r.Refresh(ctx); rerr != nil {
			return nil, rerr
		}
		results, err = r.handle().Query(ctx, vec, topK)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", r.name, err)
	}
	return results, nil
}

// FormatContext renders results as numbered blocks in ranked order.
func FormatContext(results []domain.SearchResult) string {
	if len(results) == 0 {
		return NoDocumentsFound
	}
	blocks := make([]string, len(results))
	for i, res := range results {
		blocks[i] = fmt.Sprintf("[Document %d - %s]\n%s", i+1, res.Metadata.Source, res.Text)
	}
	return strings.Join(blocks, "\n\n")
}

// UniqueSources lists the distinct sources of results in first-seen order.
func UniqueSources(results []domain.SearchResult) []string {
	seen := make(map[string]bool, len(results))
	var sources []string
	for _, res := range results {
		src := res.Metadata.Source
		if src == "" {
			src = "Unknown"
		}
		if seen[src] {
			continue
		}
		seen[src] = true
		sources = append(sources, src)
	}
	return sources
}
