package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarityIdenticalVectorsIsOne(t *testing.T) {
	v := []float32{1, 2, 3}
	assert.InDelta(t, 1.0, CosineSimilarity(v, v), 1e-9)
}

func TestCosineSimilarityOrthogonalIsZero(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}
	assert.InDelta(t, 0.0, CosineSimilarity(a, b), 1e-9)
}

func TestCosineSimilarityMismatchedLengthIsZero(t *testing.T) {
	assert.Equal(t, 0.0, CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}))
}

func TestCosineSimilarityZeroVectorIsZero(t *testing.T) {
	assert.Equal(t, 0.0, CosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}

func TestSerializeDeserializeVectorRoundTrip(t *testing.T) {
	original := []float32{0.5, -1.25, 3.0, 0.0}
	blob := SerializeVector(original)
	restored := DeserializeVector(blob)
	assert.InDeltaSlice(t, original, restored, 1e-6)
}

func TestVectorCandidatesFiltersByProviderAndDimensions(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	match := sampleChunk("m:1:1")
	match.EmbeddingProvider, match.EmbeddingDimensions = "jina", 3
	other := sampleChunk("o:2:2")
	other.EmbeddingProvider, other.EmbeddingDimensions = "openai", 1536
	require.NoError(t, store.UpsertChunk(ctx, match))
	require.NoError(t, store.UpsertChunk(ctx, other))

	candidates, err := store.VectorCandidates(ctx, "jina", 3, nil)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, match.ID, candidates[0].ChunkID)
	assert.Equal(t, match.FilePath, candidates[0].FilePath)
	assert.Equal(t, match.PampaTags, candidates[0].PampaTags)
	assert.Equal(t, match.PampaIntent, candidates[0].PampaIntent)
}

func TestLexicalCandidatesReturnsTextFields(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.UpsertChunk(ctx, sampleChunk("l:1:1")))

	candidates, err := store.LexicalCandidates(ctx, nil)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "DoThing", candidates[0].Symbol)
	assert.Equal(t, "authenticate a user", candidates[0].Intent)
}

func TestLexicalCandidatesFilterByPathGlob(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	inPkg := sampleChunk("p:1:1")
	inPkg.FilePath = "internal/auth/login.go"
	elsewhere := sampleChunk("q:2:2")
	elsewhere.FilePath = "internal/billing/invoice.go"
	require.NoError(t, store.UpsertChunk(ctx, inPkg))
	require.NoError(t, store.UpsertChunk(ctx, elsewhere))

	candidates, err := store.LexicalCandidates(ctx, &SearchFilters{PathGlob: "internal/auth/*"})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, inPkg.ID, candidates[0].ChunkID)
}
