package domain

import "errors"

var (
	// ErrNotFound covers a missing corpus folder, collection or named report.
	ErrNotFound = errors.New("not found")

	// ErrEmptyCorpus indicates no eligible source files were found.
	ErrEmptyCorpus = errors.New("no eligible source files")

	// ErrExternalService wraps embedding and generation failures, timeouts included.
	ErrExternalService = errors.New("external service failure")

	// ErrExtraction indicates text could not be extracted from a source file.
	ErrExtraction = errors.New("text extraction failed")

	ErrInvalidConfig = errors.New("invalid configuration")
)
