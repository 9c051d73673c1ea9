package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"

	"sprintrag/internal/adapter/analyzer"
	"sprintrag/internal/domain"
)

// DefaultLocalDimension is the vector length of the local embedder.
const DefaultLocalDimension = 512

// LocalEmbedder hashes stemmed terms into a fixed-length, L2-normalized
// count vector. It needs no network and is deterministic, so it serves
// offline use and tests. Texts sharing terms get nearby vectors.
type LocalEmbedder struct {
	dimension int
	tokenizer *analyzer.Tokenizer
}

func NewLocalEmbedder(dimension int) *LocalEmbedder {
	if dimension <= 0 {
		dimension = DefaultLocalDimension
	}
	return &LocalEmbedder{
		dimension: dimension,
		tokenizer: analyzer.NewTokenizer(true),
	}
}

func (e *LocalEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExternalService, err)
	}

	vec := make([]float32, e.dimension)
	for _, term := range e.tokenizer.Tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(term))
		vec[h.Sum32()%uint32(e.dimension)]++
	}

	var sum float64
	for _, v := range vec {
		sum += float64(v * v)
	}
	if sum > 0 {
		norm := float32(1 / math.Sqrt(sum))
		for i := range vec {
			vec[i] *= norm
		}
	}
	return vec, nil
}

func (e *LocalEmbedder) Dimension() int {
	return e.dimension
}

func (e *LocalEmbedder) ModelName() string {
	return fmt.Sprintf("local-hash-%d", e.dimension)
}
