package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleChunk(id string) *ChunkRow {
	return &ChunkRow{
		ID:                  id,
		FilePath:            "internal/foo/foo.go",
		Symbol:              "DoThing",
		SHA:                 "deadbeef",
		Lang:                "go",
		ChunkType:           "function",
		Embedding:           []float32{0.1, 0.2, 0.3},
		EmbeddingProvider:   "jina",
		EmbeddingDimensions: 3,
		PampaTags:           []string{"auth", "core"},
		PampaIntent:         "authenticate a user",
		PampaDescription:    "validates credentials",
	}
}

func TestNewSQLiteStoreCreatesSchema(t *testing.T) {
	store := setupTestStore(t)
	var tableName string
	err := store.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='code_chunks'").Scan(&tableName)
	require.NoError(t, err)
	assert.Equal(t, "code_chunks", tableName)
}

func TestUpsertAndGetChunk(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	chunk := sampleChunk("internal/foo/foo.go:DoThing:deadbeef")
	require.NoError(t, store.UpsertChunk(ctx, chunk))

	got, err := store.GetChunk(ctx, chunk.ID)
	require.NoError(t, err)
	assert.Equal(t, chunk.FilePath, got.FilePath)
	assert.Equal(t, chunk.Symbol, got.Symbol)
	assert.Equal(t, chunk.SHA, got.SHA)
	assert.Equal(t, chunk.PampaTags, got.PampaTags)
	assert.InDeltaSlice(t, chunk.Embedding, got.Embedding, 1e-6)
}

func TestUpsertChunkIsIdempotentOnConflict(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	chunk := sampleChunk("x:y:z")
	require.NoError(t, store.UpsertChunk(ctx, chunk))

	chunk.PampaDescription = "updated description"
	require.NoError(t, store.UpsertChunk(ctx, chunk))

	got, err := store.GetChunk(ctx, chunk.ID)
	require.NoError(t, err)
	assert.Equal(t, "updated description", got.PampaDescription)

	n, err := store.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestGetChunkNotFound(t *testing.T) {
	store := setupTestStore(t)
	_, err := store.GetChunk(context.Background(), "missing")
	assert.Error(t, err)
}

func TestGetChunkBySha(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	chunk := sampleChunk("internal/foo/foo.go:DoThing:deadbeef")
	require.NoError(t, store.UpsertChunk(ctx, chunk))

	got, err := store.GetChunkBySha(ctx, chunk.SHA)
	require.NoError(t, err)
	assert.Equal(t, chunk.ID, got.ID)
}

func TestGetChunkByShaNotFound(t *testing.T) {
	store := setupTestStore(t)
	_, err := store.GetChunkBySha(context.Background(), "missing")
	assert.Error(t, err)
}

func TestDeleteChunksNotIn(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	keep := sampleChunk("f.go:Keep:aaa")
	stale := sampleChunk("f.go:Stale:bbb")
	keep.FilePath = "f.go"
	stale.FilePath = "f.go"
	require.NoError(t, store.UpsertChunk(ctx, keep))
	require.NoError(t, store.UpsertChunk(ctx, stale))

	deleted, err := store.DeleteChunksNotIn(ctx, "f.go", []string{keep.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	_, err = store.GetChunk(ctx, stale.ID)
	assert.Error(t, err)
	got, err := store.GetChunk(ctx, keep.ID)
	require.NoError(t, err)
	assert.Equal(t, keep.ID, got.ID)
}

func TestListChunksByFileAndAllFilePaths(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	a := sampleChunk("a.go:A:1")
	a.FilePath = "a.go"
	b := sampleChunk("b.go:B:2")
	b.FilePath = "b.go"
	require.NoError(t, store.UpsertChunk(ctx, a))
	require.NoError(t, store.UpsertChunk(ctx, b))

	chunks, err := store.ListChunksByFile(ctx, "a.go")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "A", chunks[0].Symbol)

	paths, err := store.ListAllFilePaths(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.go", "b.go"}, paths)
}

func TestTransactionCommitAndRollback(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.UpsertChunk(ctx, sampleChunk("tx:commit:1")))
	require.NoError(t, tx.Commit())

	_, err = store.GetChunk(ctx, "tx:commit:1")
	require.NoError(t, err)

	tx2, err := store.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx2.UpsertChunk(ctx, sampleChunk("tx:rollback:1")))
	require.NoError(t, tx2.Rollback())

	_, err = store.GetChunk(ctx, "tx:rollback:1")
	assert.Error(t, err)
}

func TestIntentionCacheRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	entry := &IntentionRow{
		QueryNormalized: "user auth",
		OriginalQuery:   "how do we authenticate a user",
		TargetSha:       "deadbeef",
		Confidence:      0.92,
	}
	require.NoError(t, store.UpsertIntention(ctx, entry))
	require.NotZero(t, entry.ID)

	found, err := store.FindIntention(ctx, "user auth")
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", found.TargetSha)

	require.NoError(t, store.TouchIntention(ctx, found.ID, found.LastUsed))
	touched, err := store.FindIntention(ctx, "user auth")
	require.NoError(t, err)
	assert.Equal(t, 1, touched.UsageCount)
}

func TestQueryPatternsAccumulateFrequency(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordQueryPattern(ctx, "auth flow"))
	require.NoError(t, store.RecordQueryPattern(ctx, "auth flow"))
	require.NoError(t, store.RecordQueryPattern(ctx, "payment flow"))

	top, err := store.TopQueryPatterns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "auth flow", top[0].Pattern)
	assert.Equal(t, 2, top[0].Frequency)
}

func TestDistinctProviderDimsDetectsMismatch(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	a := sampleChunk("a:1:1")
	a.EmbeddingProvider, a.EmbeddingDimensions = "jina", 768
	b := sampleChunk("b:2:2")
	b.EmbeddingProvider, b.EmbeddingDimensions = "openai", 1536
	require.NoError(t, store.UpsertChunk(ctx, a))
	require.NoError(t, store.UpsertChunk(ctx, b))

	pairs, err := store.DistinctProviderDims(ctx)
	require.NoError(t, err)
	assert.Len(t, pairs, 2)
}

func TestStats(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.UpsertChunk(ctx, sampleChunk("s:1:1")))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalChunks)
	assert.Equal(t, 1, stats.DistinctFiles)
}
