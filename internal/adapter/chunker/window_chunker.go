package chunker

import (
	"fmt"
	"iter"

	"sprintrag/internal/domain"
)

const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 200
)

// WindowChunker splits text into fixed-size character windows where each
// window after the first repeats the last overlap characters of the previous one.
type WindowChunker struct {
	size    int
	overlap int
}

func NewWindowChunker(size, overlap int) (*WindowChunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidConfig, size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: chunk overlap must not be negative, got %d", domain.ErrInvalidConfig, overlap)
	}
	if overlap >= size {
		return nil, fmt.Errorf("%w: chunk overlap %d must be smaller than chunk size %d", domain.ErrInvalidConfig, overlap, size)
	}
	return &WindowChunker{size: size, overlap: overlap}, nil
}

func (c *WindowChunker) Size() int    { return c.size }
func (c *WindowChunker) Overlap() int { return c.overlap }

// Windows yields (sequence index, window) pairs. Lengths are counted in
// runes so multi-byte characters are never split.
func (c *WindowChunker) Windows(text string) iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		runes := []rune(text)
		step := c.size - c.overlap
		seq := 0
		for start := 0; start < len(runes); start += step {
			end := min(start+c.size, len(runes))
			if !yield(seq, string(runes[start:end])) {
				return
			}
			// A further window would lie entirely inside this one.
			if end == len(runes) {
				return
			}
			seq++
		}
	}
}

// Split returns all windows of text in order.
func (c *WindowChunker) Split(text string) []string {
	var out []string
	for _, w := range c.Windows(text) {
		out = append(out, w)
	}
	return out
}

// Chunk splits a document into chunks identified by "<filename>_<seq>".
func (c *WindowChunker) Chunk(doc domain.Document) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	for seq, text := range c.Windows(doc.Text) {
		chunks = append(chunks, domain.Chunk{
			ID:     ChunkID(doc.Filename, seq),
			Source: doc.Filename,
			Seq:    seq,
			Text:   text,
		})
	}
	return chunks, nil
}

func ChunkID(filename string, seq int) string {
	return fmt.Sprintf("%s_%d", filename, seq)
}
