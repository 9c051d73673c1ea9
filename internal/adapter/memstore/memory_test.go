package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprintrag/internal/domain"
	"sprintrag/internal/port"
)

func TestMemoryIndex_ReplaceInvalidatesHandle(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()

	old, err := port.ReplaceCollection(ctx, idx, domain.CollectionInfo{Name: "c", Dimension: 2})
	require.NoError(t, err)
	require.NoError(t, old.Upsert(ctx, []domain.Record{{ID: "a", Vector: []float32{1, 1}}}))

	_, err = port.ReplaceCollection(ctx, idx, domain.CollectionInfo{Name: "c", Dimension: 2})
	require.NoError(t, err)

	_, err = old.Query(ctx, []float32{1, 1}, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	fresh, err := idx.GetCollection(ctx, "c")
	require.NoError(t, err)
	n, err := fresh.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestMemoryIndex_QueryStableOnTies(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()

	coll, err := idx.CreateCollection(ctx, domain.CollectionInfo{Name: "c", Dimension: 1})
	require.NoError(t, err)
	for _, id := range []string{"z", "y", "x", "w"} {
		require.NoError(t, coll.Upsert(ctx, []domain.Record{{
			ID: id, Vector: []float32{0}, Metadata: domain.ResultMetadata{ChunkID: id},
		}}))
	}

	results, err := coll.Query(ctx, []float32{0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "z", results[0].Metadata.ChunkID)
	assert.Equal(t, "y", results[1].Metadata.ChunkID)
	assert.Equal(t, "x", results[2].Metadata.ChunkID)
}

func TestMemoryIndex_GetMissing(t *testing.T) {
	_, err := NewMemoryIndex().GetCollection(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
