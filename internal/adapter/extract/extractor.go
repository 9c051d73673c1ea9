// Package extract turns source report files into plain text.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"sprintrag/internal/domain"
)

// Extractor extracts plain text from PDF and plain text reports.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and returns its text. Every failure wraps
// domain.ErrExtraction.
func (e *Extractor) Extract(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: read file: %v", domain.ErrExtraction, err)
	}
	text, err := e.ExtractBytes(content, strings.ToLower(filepath.Ext(path)))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrExtraction, filepath.Base(path), err)
	}
	return text, nil
}

// ExtractBytes extracts text from content based on its extension (with the leading dot).
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	switch ext {
	case ".pdf":
		return extractPDF(content)
	case ".txt", ".md", "":
		return extractPlain(content)
	default:
		return "", fmt.Errorf("unsupported file type %q", ext)
	}
}

func extractPlain(content []byte) (string, error) {
	if !utf8.Valid(content) {
		return "", fmt.Errorf("content is not valid UTF-8")
	}
	return string(content), nil
}
