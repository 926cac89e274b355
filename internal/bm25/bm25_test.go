package bm25

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocs() []Document {
	return []Document{
		{ID: "a", Text: "func getUserByID looks up a user by their identifier"},
		{ID: "b", Text: "func deleteOrder removes an order from the checkout queue"},
		{ID: "c", Text: "func createCheckoutSession starts a new checkout session for a user"},
	}
}

func TestQuery_RanksMoreRelevantDocHigher(t *testing.T) {
	idx := BuildFromDocuments(sampleDocs())
	results := idx.Query("checkout session", 10, nil)
	require.NotEmpty(t, results)
	assert.Equal(t, "c", results[0].ID)
}

func TestQuery_MatchesSplitIdentifierTokens(t *testing.T) {
	idx := BuildFromDocuments(sampleDocs())
	results := idx.Query("user id", 10, nil)
	require.NotEmpty(t, results)
	assert.Equal(t, "a", results[0].ID)
}

func TestQuery_RespectsAllowedSet(t *testing.T) {
	idx := BuildFromDocuments(sampleDocs())
	allowed := map[string]bool{"b": true}
	results := idx.Query("checkout session", 10, allowed)
	for _, r := range results {
		assert.Equal(t, "b", r.ID)
	}
}

func TestQuery_TopNCapsResults(t *testing.T) {
	idx := BuildFromDocuments(sampleDocs())
	results := idx.Query("checkout user order", 1, nil)
	assert.Len(t, results, 1)
}

func TestQuery_EmptyIndexOrQueryReturnsNil(t *testing.T) {
	idx := New()
	assert.Nil(t, idx.Query("anything", 10, nil))

	idx2 := BuildFromDocuments(sampleDocs())
	assert.Nil(t, idx2.Query("", 10, nil))
}

func TestAddRemove_UpdatesStatistics(t *testing.T) {
	idx := New()
	idx.Add(Document{ID: "x", Text: "widget factory builder"})
	assert.Equal(t, 1, idx.Len())

	idx.Remove("x")
	assert.Equal(t, 0, idx.Len())
	assert.Nil(t, idx.Query("widget", 10, nil))
}

func TestAdd_ReplacesExistingDocument(t *testing.T) {
	idx := New()
	idx.Add(Document{ID: "x", Text: "alpha"})
	idx.Add(Document{ID: "x", Text: "beta"})

	assert.Equal(t, 1, idx.Len())
	assert.Nil(t, idx.Query("alpha", 10, nil))
	assert.NotNil(t, idx.Query("beta", 10, nil))
}

func TestSplitIdentifier(t *testing.T) {
	assert.Equal(t, []string{"get", "User", "By", "ID"}, splitIdentifier("getUserByID"))
	assert.Equal(t, []string{"get", "user", "by", "id"}, splitIdentifier("get_user_by_id"))
	assert.Equal(t, []string{"widget"}, splitIdentifier("widget"))
}

func TestCache_BuildsOnceAndMemoizes(t *testing.T) {
	c := NewCache()
	calls := 0
	build := func() ([]Document, error) {
		calls++
		return sampleDocs(), nil
	}

	idx1, err := c.Get("/repo", "openai", 1536, build)
	require.NoError(t, err)
	idx2, err := c.Get("/repo", "openai", 1536, build)
	require.NoError(t, err)

	assert.Same(t, idx1, idx2)
	assert.Equal(t, 1, calls)
}

func TestCache_DistinctKeysBuildIndependently(t *testing.T) {
	c := NewCache()
	build := func() ([]Document, error) { return sampleDocs(), nil }

	idxA, err := c.Get("/repo", "openai", 1536, build)
	require.NoError(t, err)
	idxB, err := c.Get("/repo", "cohere", 1024, build)
	require.NoError(t, err)

	assert.NotSame(t, idxA, idxB)
}

func TestCache_InvalidateDropsOnlyMatchingBasePath(t *testing.T) {
	c := NewCache()
	build := func() ([]Document, error) { return sampleDocs(), nil }

	idx1, _ := c.Get("/repo-a", "openai", 1536, build)
	idx2, _ := c.Get("/repo-b", "openai", 1536, build)

	c.Invalidate("/repo-a")

	rebuilt, _ := c.Get("/repo-a", "openai", 1536, build)
	assert.NotSame(t, idx1, rebuilt)

	stillCached, _ := c.Get("/repo-b", "openai", 1536, build)
	assert.Same(t, idx2, stillCached)
}

func TestCache_BuildErrorIsPropagated(t *testing.T) {
	c := NewCache()
	wantErr := errors.New("db unavailable")
	_, err := c.Get("/repo", "openai", 1536, func() ([]Document, error) {
		return nil, wantErr
	})
	assert.ErrorIs(t, err, wantErr)
}

func TestCache_InvalidateAll(t *testing.T) {
	c := NewCache()
	build := func() ([]Document, error) { return sampleDocs(), nil }
	idx1, _ := c.Get("/repo", "openai", 1536, build)

	c.InvalidateAll()

	rebuilt, _ := c.Get("/repo", "openai", 1536, build)
	assert.NotSame(t, idx1, rebuilt)
}
