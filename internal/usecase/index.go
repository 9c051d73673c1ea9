package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"sprintrag/internal/domain"
	"sprintrag/internal/port"
)

// FailurePolicy decides what to do with a chunk whose embedding failed.
type FailurePolicy string

const (
	// ZeroFill stores the chunk with a zero vector of the index dimension.
	// Such chunks rank close to each other and far from most queries.
	ZeroFill FailurePolicy = "zero_fill"
	// SkipChunk leaves the chunk out of the index.
	SkipChunk FailurePolicy = "skip"
)

// IndexOptions configures an Indexer.
type IndexOptions struct {
	Collection    string
	Metric        string
	ChunkSize     int
	ChunkOverlap  int
	BatchSize     int
	Workers       int
	MaxInputChars int
	FailurePolicy FailurePolicy
}

// ProgressFunc is called after each embedding batch.
type ProgressFunc func(processed, total int)

// Indexer rebuilds a collection from a folder of reports.
type Indexer struct {
	walker    port.FileWalker
	extractor port.TextExtractor
	chunker   port.Chunker
	embedder  port.Embedder
	index     port.VectorIndex
	opts      IndexOptions
	logger    *zap.Logger
}

func NewIndexer(
	walker port.FileWalker,
	extractor port.TextExtractor,
	chunker port.Chunker,
	embedder port.Embedder,
	index port.VectorIndex,
	opts IndexOptions,
	logger *zap.Logger,
) *Indexer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 5
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.MaxInputChars <= 0 {
		opts.MaxInputChars = MaxEmbedInputChars
	}
	if opts.FailurePolicy == "" {
		opts.FailurePolicy = ZeroFill
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{
		walker:    walker,
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		index:     index,
		opts:      opts,
		logger:    logger,
	}
}

// SkippedFile is a source file left out of the index.
type SkippedFile struct {
	Filename string
	Err      error
}

// IndexResult contains the results of an indexing run.
type IndexResult struct {
	FilesFound    int
	FilesIndexed  int
	Skipped       []SkippedFile
	ChunksCreated int
	ChunksStored  int
	EmbedFailures int
	Collection    domain.CollectionInfo
	Duration      time.Duration
}

// IndexFolder extracts, chunks and embeds every eligible file under root and
// replaces the collection with the result. It is always a full rebuild.
func (x *Indexer) IndexFolder(ctx context.Context, root string, progress ProgressFunc) (*IndexResult, error) {
	start := time.Now()

	files, err := x.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", domain.ErrEmptyCorpus, root)
	}
	x.logger.Info("found source files", zap.Int("count", len(files)), zap.String("folder", root))

	result := &IndexResult{FilesFound: len(files)}

	var chunks []domain.Chunk
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		docChunks, err := x.loadFile(f)
		if err != nil {
			x.logger.Warn("skipping file", zap.String("file", f.RelPath), zap.Error(err))
			result.Skipped = append(result.Skipped, SkippedFile{Filename: f.RelPath, Err: err})
			continue
		}
		result.FilesIndexed++
		chunks = append(chunks, docChunks...)
	}
	result.ChunksCreated = len(chunks)

	// Nothing usable: keep whatever collection exists rather than replacing it with an empty one.
	if len(chunks) == 0 {
		return result, fmt.Errorf("%w: no text could be extracted from %d files in %s", domain.ErrEmptyCorpus, len(files), root)
	}

	vectors, failed, err := x.embedAll(ctx, chunks, progress)
	if err != nil {
		return nil, err
	}

	dim := x.embedder.Dimension()
	records := make([]domain.Record, 0, len(chunks))
	for i, ch := range chunks {
		vec := vectors[i]
		if failed[i] {
			result.EmbedFailures++
			if x.opts.FailurePolicy == SkipChunk {
				continue
			}
			vec = make([]float32, dim)
		}
		records = append(records, domain.RecordFromChunk(domain.EmbeddedChunk{Chunk: ch, Vector: vec}))
	}
	if result.EmbedFailures > 0 {
		x.logger.Warn("some chunks could not be embedded",
			zap.Int("failed", result.EmbedFailures),
			zap.String("policy", string(x.opts.FailurePolicy)))
	}

	coll, err := port.ReplaceCollection(ctx, x.index, domain.CollectionInfo{
		Name:         x.opts.Collection,
		Dimension:    dim,
		Model:        x.embedder.ModelName(),
		Metric:       x.opts.Metric,
		ChunkSize:    x.opts.ChunkSize,
		ChunkOverlap: x.opts.ChunkOverlap,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to replace collection: %w", err)
	}
	if err := coll.Upsert(ctx, records); err != nil {
		return nil, fmt.Errorf("failed to store chunks: %w", err)
	}

	result.ChunksStored = len(records)
	result.Collection = coll.Info()
	result.Duration = time.Since(start)

	x.logger.Info("collection rebuilt",
		zap.String("collection", x.opts.Collection),
		zap.Int("files", result.FilesIndexed),
		zap.Int("chunks", result.ChunksStored),
		zap.Duration("took", result.Duration))
	return result, nil
}

func (x *Indexer) loadFile(f port.FileInfo) ([]domain.Chunk, error) {
	text, err := x.extractor.Extract(f.Path)
	if err != nil {
		return nil, err
	}
	chunks, err := x.chunker.Chunk(domain.Document{Filename: f.RelPath, Path: f.Path, Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to chunk %s: %w", f.RelPath, err)
	}
	if len(chunks) == 0 {
		x.logger.Warn("no text extracted", zap.String("file", f.RelPath))
	}
	return chunks, nil
}

// embedAll embeds chunks in batches. Batches run on at most Workers
// goroutines; a failed chunk is only marked, never fatal. Only context
// cancellation aborts the run.
func (x *Indexer) embedAll(ctx context.Context, chunks []domain.Chunk, progress ProgressFunc) ([][]float32, []bool, error) {
	vectors := make([][]float32, len(chunks))
	failed := make([]bool, len(chunks))
	dim := x.embedder.Dimension()

	var mu sync.Mutex
	processed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(x.opts.Workers)

	for start := 0; start < len(chunks); start += x.opts.BatchSize {
		end := min(start+x.opts.BatchSize, len(chunks))
		g.Go(func() error {
			for i := start; i < end; i++ {
				vec, err := x.embedder.Embed(gctx, TruncateInput(chunks[i].Text, x.opts.MaxInputChars))
				if err == nil && len(vec) != dim {
					err = fmt.Errorf("%w: expected %d dimensions, got %d", domain.ErrExternalService, dim, len(vec))
				}
				if err != nil {
					if ctxErr := gctx.Err(); ctxErr != nil {
						return ctxErr
					}
					x.logger.Warn("embedding failed", zap.String("chunk", chunks[i].ID), zap.Error(err))
					failed[i] = true
					continue
				}
				vectors[i] = vec
			}

			mu.Lock()
			processed += end - start
			if progress != nil {
				progress(processed, len(chunks))
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("embedding interrupted: %w", err)
	}
	return vectors, failed, nil
}
