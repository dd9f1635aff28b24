package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testVectorSize = 4

func newTestStore(t *testing.T) *ChromemStore {
	t.Helper()
	store, err := NewChromemStore(ChromemConfig{
		CollectionName: "web_embeddings",
		VectorSize:     testVectorSize,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func vec(vals ...float32) []float32 { return vals }

func TestEnsureCollection_Idempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	exists, err := store.CollectionExists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.EnsureCollection(ctx))
	require.NoError(t, store.EnsureCollection(ctx))

	exists, err = store.CollectionExists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUpsert_LengthMismatch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.EnsureCollection(ctx))

	_, err := store.Upsert(ctx,
		[][]float32{vec(1, 0, 0, 0), vec(0, 1, 0, 0)},
		[]Chunk{{Text: "only one"}},
	)
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestUpsert_EmptyBatch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.EnsureCollection(ctx))

	_, err := store.Upsert(ctx, nil, nil)
	assert.ErrorIs(t, err, ErrEmptyBatch)
}

func TestUpsert_DimensionMismatch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.EnsureCollection(ctx))

	_, err := store.Upsert(ctx,
		[][]float32{vec(1, 0)},
		[]Chunk{{Text: "bad vector"}},
	)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestUpsertAndSearch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.EnsureCollection(ctx))

	chunks := []Chunk{
		{Text: "chunk about cats", SourceURL: "https://example.com/cats", Index: 0},
		{Text: "chunk about dogs", SourceURL: "https://example.com/dogs", Index: 0},
		{Text: "chunk about birds", SourceURL: "https://example.com/birds", Index: 0},
	}
	vectors := [][]float32{
		vec(1, 0, 0, 0),
		vec(0, 1, 0, 0),
		vec(0, 0, 1, 0),
	}

	ids, err := store.Upsert(ctx, vectors, chunks)
	require.NoError(t, err)
	require.Len(t, ids, 3)

	results, err := store.Search(ctx, vec(0.9, 0.1, 0, 0), 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Nearest neighbor first.
	assert.Equal(t, "chunk about cats", results[0].Text)
	assert.Equal(t, "https://example.com/cats", results[0].SourceURL)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
}

func TestSearch_CollectionNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Search(context.Background(), vec(1, 0, 0, 0), 5)
	assert.ErrorIs(t, err, ErrCollectionNotFound)
}

func TestSearch_EmptyCollection(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.EnsureCollection(ctx))

	results, err := store.Search(ctx, vec(1, 0, 0, 0), 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_LimitCappedAtCount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.EnsureCollection(ctx))

	_, err := store.Upsert(ctx,
		[][]float32{vec(1, 0, 0, 0)},
		[]Chunk{{Text: "single chunk", SourceURL: "https://example.com"}},
	)
	require.NoError(t, err)

	results, err := store.Search(ctx, vec(1, 0, 0, 0), 5)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearch_DimensionMismatch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.EnsureCollection(ctx))

	_, err := store.Search(ctx, vec(1, 0), 5)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestUpsert_SameChunksOverwrite(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.EnsureCollection(ctx))

	chunks := []Chunk{{Text: "stable content", SourceURL: "https://example.com/page", Index: 0}}
	vectors := [][]float32{vec(1, 0, 0, 0)}

	ids1, err := store.Upsert(ctx, vectors, chunks)
	require.NoError(t, err)
	ids2, err := store.Upsert(ctx, vectors, chunks)
	require.NoError(t, err)

	// Content-derived ids are stable across re-ingestion, so the second
	// upsert overwrites instead of duplicating.
	assert.Equal(t, ids1, ids2)

	results, err := store.Search(ctx, vec(1, 0, 0, 0), 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestDeleteCollection(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Deleting an absent collection reports nothing done, no error.
	deleted, err := store.DeleteCollection(ctx)
	require.NoError(t, err)
	assert.False(t, deleted)

	require.NoError(t, store.EnsureCollection(ctx))

	deleted, err = store.DeleteCollection(ctx)
	require.NoError(t, err)
	assert.True(t, deleted)

	exists, err := store.CollectionExists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	// Idempotent: a second delete is a clean no-op.
	deleted, err = store.DeleteCollection(ctx)
	require.NoError(t, err)
	assert.False(t, deleted)
}
