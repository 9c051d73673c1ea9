package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprintrag/internal/domain"
	"sprintrag/internal/port"
)

func openTestIndex(t *testing.T) (*BoltIndex, string) {
	t.Helper()
	dir := t.TempDir()
	idx, err := Open(dir, nil)
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx, dir
}

func rec(id, source string, vec ...float32) domain.Record {
	return domain.Record{
		ID:       id,
		Vector:   vec,
		Text:     "text of " + id,
		Metadata: domain.ResultMetadata{Source: source, ChunkID: id},
	}
}

func TestBoltIndex_GetMissingCollection(t *testing.T) {
	idx, _ := openTestIndex(t)

	_, err := idx.GetCollection(context.Background(), "sprint_reports")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBoltIndex_ReplaceMissingCollection(t *testing.T) {
	idx, _ := openTestIndex(t)
	ctx := context.Background()

	coll, err := port.ReplaceCollection(ctx, idx, domain.CollectionInfo{Name: "sprint_reports", Dimension: 2})
	require.NoError(t, err)
	assert.Equal(t, "l2", coll.Info().Metric)
	assert.Equal(t, CurrentSchemaVersion, coll.Info().SchemaVersion)

	n, err := coll.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestBoltIndex_QueryOrdersByDistance(t *testing.T) {
	idx, _ := openTestIndex(t)
	ctx := context.Background()

	coll, err := idx.CreateCollection(ctx, domain.CollectionInfo{Name: "c", Dimension: 2})
	require.NoError(t, err)
	require.NoError(t, coll.Upsert(ctx, []domain.Record{
		rec("far", "a.pdf", 10, 10),
		rec("near", "a.pdf", 1, 0),
		rec("exact", "b.pdf", 0, 0),
	}))

	results, err := coll.Query(ctx, []float32{0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "exact", results[0].Metadata.ChunkID)
	assert.Equal(t, "near", results[1].Metadata.ChunkID)
	assert.Equal(t, 0.0, results[0].Distance)
	assert.Equal(t, 1.0, results[1].Distance)
	assert.Equal(t, "b.pdf", results[0].Metadata.Source)

	all, err := coll.Query(ctx, []float32{0, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestBoltIndex_TiesKeepInsertionOrder(t *testing.T) {
	idx, _ := openTestIndex(t)
	ctx := context.Background()

	coll, err := idx.CreateCollection(ctx, domain.CollectionInfo{Name: "c", Dimension: 2})
	require.NoError(t, err)
	// Keys sort differently from insertion order.
	require.NoError(t, coll.Upsert(ctx, []domain.Record{rec("z", "a.pdf", 1, 1)}))
	require.NoError(t, coll.Upsert(ctx, []domain.Record{rec("m", "a.pdf", 1, 1)}))
	require.NoError(t, coll.Upsert(ctx, []domain.Record{rec("a", "a.pdf", 1, 1)}))

	results, err := coll.Query(ctx, []float32{0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "z", results[0].Metadata.ChunkID)
	assert.Equal(t, "m", results[1].Metadata.ChunkID)
	assert.Equal(t, "a", results[2].Metadata.ChunkID)
}

func TestBoltIndex_DuplicateIDOverwrites(t *testing.T) {
	idx, _ := openTestIndex(t)
	ctx := context.Background()

	coll, err := idx.CreateCollection(ctx, domain.CollectionInfo{Name: "c", Dimension: 2})
	require.NoError(t, err)
	require.NoError(t, coll.Upsert(ctx, []domain.Record{rec("x", "old.pdf", 5, 5), rec("y", "a.pdf", 1, 1)}))
	require.NoError(t, coll.Upsert(ctx, []domain.Record{rec("x", "new.pdf", 1, 1)}))

	n, err := coll.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	results, err := coll.Query(ctx, []float32{1, 1}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	// Equal distance: x was inserted first and keeps that position.
	assert.Equal(t, "x", results[0].Metadata.ChunkID)
	assert.Equal(t, "new.pdf", results[0].Metadata.Source)
}

func TestBoltIndex_DimensionChecks(t *testing.T) {
	idx, _ := openTestIndex(t)
	ctx := context.Background()

	coll, err := idx.CreateCollection(ctx, domain.CollectionInfo{Name: "c", Dimension: 3})
	require.NoError(t, err)

	assert.Error(t, coll.Upsert(ctx, []domain.Record{rec("x", "a.pdf", 1, 2)}))
	_, err = coll.Query(ctx, []float32{1}, 1)
	assert.Error(t, err)

	_, err = idx.CreateCollection(ctx, domain.CollectionInfo{Name: "zero", Dimension: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestBoltIndex_StaleHandleAfterReplace(t *testing.T) {
	idx, _ := openTestIndex(t)
	ctx := context.Background()

	old, err := port.ReplaceCollection(ctx, idx, domain.CollectionInfo{Name: "c", Dimension: 2})
	require.NoError(t, err)
	require.NoError(t, old.Upsert(ctx, []domain.Record{rec("x", "a.pdf", 1, 1)}))

	// Drop phase only: the handle observes the deletion.
	require.NoError(t, idx.DropCollection(ctx, "c"))
	_, err = old.Query(ctx, []float32{1, 1}, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Rebuilt collection: the old handle stays invalid, a fresh one works.
	_, err = idx.CreateCollection(ctx, domain.CollectionInfo{Name: "c", Dimension: 2})
	require.NoError(t, err)
	_, err = old.Count(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	fresh, err := idx.GetCollection(ctx, "c")
	require.NoError(t, err)
	n, err := fresh.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestBoltIndex_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	idx, err := Open(dir, nil)
	require.NoError(t, err)
	coll, err := idx.CreateCollection(ctx, domain.CollectionInfo{Name: "c", Dimension: 2, Metric: "cosine", Model: "m"})
	require.NoError(t, err)
	require.NoError(t, coll.Upsert(ctx, []domain.Record{rec("x", "a.pdf", 1, 0)}))
	require.NoError(t, idx.Close())

	ro, err := OpenReadOnly(dir, nil)
	require.NoError(t, err)
	defer ro.Close()

	got, err := ro.GetCollection(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, "cosine", got.Info().Metric)
	assert.Equal(t, "m", got.Info().Model)

	results, err := got.Query(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 0.0, results[0].Distance, 1e-9)

	infos, err := ro.ListCollections(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "c", infos[0].Name)
}

func TestOpenReadOnly_MissingStore(t *testing.T) {
	_, err := OpenReadOnly(t.TempDir(), nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCheckSchema_NewerVersion(t *testing.T) {
	err := CheckSchema(domain.CollectionInfo{Name: "c", SchemaVersion: CurrentSchemaVersion + 1})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	assert.NoError(t, CheckSchema(domain.CollectionInfo{SchemaVersion: CurrentSchemaVersion}))
}

func TestCheckDrift(t *testing.T) {
	built := domain.CollectionInfo{Dimension: 1536, Model: "a", ChunkSize: 1000, ChunkOverlap: 200}

	d := CheckDrift(built, built)
	assert.False(t, d.NeedsRebuild())

	d = CheckDrift(built, domain.CollectionInfo{Dimension: 768, Model: "a", ChunkSize: 1000, ChunkOverlap: 200})
	assert.True(t, d.DimensionMismatch)
	assert.True(t, d.NeedsRebuild())

	d = CheckDrift(built, domain.CollectionInfo{Dimension: 1536, Model: "a", ChunkSize: 800, ChunkOverlap: 200})
	assert.False(t, d.DimensionMismatch)
	assert.Len(t, d.Reasons, 1)
}
