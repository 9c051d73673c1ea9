package port

import (
	"context"

	"sprintrag/internal/domain"
)

// VectorIndex manages named collections of embedded chunks.
type VectorIndex interface {
	// DropCollection deletes a collection. A missing collection is not an error.
	DropCollection(ctx context.Context, name string) error

	// CreateCollection creates an empty collection and returns its handle.
	CreateCollection(ctx context.Context, info domain.CollectionInfo) (Collection, error)

	// GetCollection returns a handle to an existing collection or domain.ErrNotFound.
	GetCollection(ctx context.Context, name string) (Collection, error)

	ListCollections(ctx context.Context) ([]domain.CollectionInfo, error)

	Close() error
}

// Collection is a handle to one collection. A handle stays valid only as
// long as the collection is not dropped; afterwards every call returns
// domain.ErrNotFound and the caller must re-acquire it.
type Collection interface {
	Info() domain.CollectionInfo

	// Upsert writes records. A duplicate ID overwrites the stored record.
	Upsert(ctx context.Context, records []domain.Record) error

	// Query returns up to k records ordered by ascending distance.
	Query(ctx context.Context, vector []float32, k int) ([]domain.SearchResult, error)

	Count(ctx context.Context) (int, error)
}

// ReplaceCollection drops the named collection and creates a fresh one.
// The two phases are separate: a reader may observe the collection missing
// between them.
func ReplaceCollection(ctx context.Context, idx VectorIndex, info domain.CollectionInfo) (Collection, error) {
	if err := idx.DropCollection(ctx, info.Name); err != nil {
		return nil, err
	}
	return idx.CreateCollection(ctx, info)
}
