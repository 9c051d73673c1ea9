package cli

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"sprintrag/config"
	"sprintrag/internal/adapter/cache"
	"sprintrag/internal/adapter/embedding"
	"sprintrag/internal/adapter/llm"
	"sprintrag/internal/adapter/store"
	"sprintrag/internal/domain"
	"sprintrag/internal/port"
	"sprintrag/internal/usecase"
)

var errNoStore = errors.New("vector store not found: run 'rag index' first")

func newEmbedder(cfg *config.Config) (port.Embedder, error) {
	opts := embedding.Options{
		BaseURL:   cfg.Embedding.BaseURL,
		APIKeyEnv: cfg.Embedding.APIKeyEnv,
		Model:     cfg.Embedding.Model,
		Dimension: cfg.Embedding.Dimension,
		Timeout:   cfg.Embedding.Timeout(),
	}
	switch cfg.Embedding.Provider {
	case "openai":
		return embedding.NewOpenAIEmbedder(opts)
	case "ollama":
		return embedding.NewOllamaEmbedder(opts)
	case "local":
		return embedding.NewLocalEmbedder(cfg.Embedding.Dimension), nil
	case "mock":
		return embedding.NewMockEmbedder(cfg.Embedding.Dimension), nil
	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider: %s", domain.ErrInvalidConfig, cfg.Embedding.Provider)
	}
}

func newGenerator(cfg *config.Config) (port.Generator, error) {
	opts := llm.Options{
		BaseURL:   cfg.Generation.BaseURL,
		APIKeyEnv: cfg.Generation.APIKeyEnv,
		Model:     cfg.Generation.Model,
		Timeout:   cfg.Generation.Timeout(),
	}
	switch cfg.Generation.Provider {
	case "openai":
		return llm.NewOpenAIGenerator(opts)
	case "ollama":
		return llm.NewOllamaGenerator(opts)
	case "mock":
		return llm.NewMockGenerator("This is a mock answer."), nil
	default:
		return nil, fmt.Errorf("%w: unsupported generation provider: %s", domain.ErrInvalidConfig, cfg.Generation.Provider)
	}
}

func routerOptions(cfg *config.Config) usecase.RouterOptions {
	return usecase.RouterOptions{
		TopK:            cfg.Retrieve.TopK,
		SummarizeTopK:   cfg.Retrieve.SummarizeTopK,
		SummaryMaxChars: cfg.Retrieve.SummaryMaxChars,
		Rule: usecase.MatchRule{
			Extensions:  cfg.Router.ReportExtensions,
			NameMarkers: cfg.Router.ReportNameMarkers,
		},
		Generate: port.GenerateOptions{
			MaxTokens:   cfg.Generation.MaxTokens,
			Temperature: cfg.Generation.Temperature,
			TopP:        cfg.Generation.TopP,
		},
	}
}

// serving holds everything the query side needs, built once per process.
type serving struct {
	index     *store.BoltIndex
	retriever *usecase.Retriever
	searcher  port.Searcher
	router    *usecase.Router
}

func (s *serving) Close() error {
	return s.index.Close()
}

// openServing opens the store read-only and wires the query path. A missing
// store or collection is fatal; the operator has to index first.
func openServing(ctx context.Context, cfg *config.Config, withGenerator bool, logger *zap.Logger) (*serving, error) {
	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	var generator port.Generator
	if withGenerator {
		generator, err = newGenerator(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create generator: %w", err)
		}
	}

	idx, err := store.OpenReadOnly(cfg.ResolveStorePath(GetRootDir()), logger)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, errNoStore
	}
	if err != nil {
		return nil, err
	}

	retriever, err := usecase.NewRetriever(ctx, idx, embedder, cfg.Store.Collection, logger)
	if err != nil {
		idx.Close()
		if errors.Is(err, domain.ErrNotFound) {
			return nil, errNoStore
		}
		return nil, err
	}
	retriever.SetMaxInputChars(cfg.Embedding.MaxInputChars)

	built := retriever.Info()
	if drift := store.CheckDrift(built, currentBuild(cfg, embedder)); drift.NeedsRebuild() {
		logger.Warn("collection was built with different settings, consider re-indexing",
			zap.String("collection", built.Name),
			zap.Strings("reasons", drift.Reasons))
	}

	s := &serving{index: idx, retriever: retriever, searcher: retriever}
	if cfg.Retrieve.CacheSize > 0 {
		s.searcher = cache.NewCachedRetriever(retriever, cache.NewQueryCache(cfg.Retrieve.CacheSize, cfg.Retrieve.CacheTTL()))
	}
	s.router = usecase.NewRouter(s.searcher, generator, routerOptions(cfg), logger)
	return s, nil
}

// currentBuild describes the collection an index run would produce now.
func currentBuild(cfg *config.Config, embedder port.Embedder) domain.CollectionInfo {
	return domain.CollectionInfo{
		Name:         cfg.Store.Collection,
		Dimension:    embedder.Dimension(),
		Model:        embedder.ModelName(),
		Metric:       cfg.Store.Metric,
		ChunkSize:    cfg.Index.ChunkSize,
		ChunkOverlap: cfg.Index.ChunkOverlap,
	}
}
