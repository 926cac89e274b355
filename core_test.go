package pampax

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lemon07r/pampax/internal/searcher"
	"github.com/lemon07r/pampax/pkg/types"
)

func openTestCore(t *testing.T) *Core {
	t.Helper()
	t.Setenv("PAMPAX_EMBEDDING_PROVIDER", "local")
	t.Setenv("PAMPAX_ENCRYPTION_KEY", "")
	root := t.TempDir()
	writeSampleGoFile(t, root)

	c, err := Open(root, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func writeSampleGoFile(t *testing.T, root string) {
	t.Helper()
	src := "package sample\n\nfunc ProcessPayment(amount int) error {\n\treturn nil\n}\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "sample.go"), []byte(src), 0o644))
}

func TestOpenCreatesOnDiskLayout(t *testing.T) {
	c := openTestCore(t)
	assert.DirExists(t, filepath.Join(c.root, ".pampa", "chunks"))
	assert.DirExists(t, filepath.Join(c.root, ".pampa", "contextpacks"))
	assert.FileExists(t, c.dbPath)
}

func TestIndexThenSearchFindsChunk(t *testing.T) {
	c := openTestCore(t)
	ctx := context.Background()

	stats, err := c.Index(ctx, IndexOptions{})
	require.NoError(t, err)
	require.Greater(t, stats.ProcessedChunks, 0)

	resp, err := c.Search(ctx, searcher.Request{Query: "ProcessPayment", Limit: 5})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	assert.Contains(t, resp.Results[0].ChunkID, "ProcessPayment")
}

func TestIndexTwiceIsIdempotent(t *testing.T) {
	c := openTestCore(t)
	ctx := context.Background()

	_, err := c.Index(ctx, IndexOptions{})
	require.NoError(t, err)

	stats, err := c.Index(ctx, IndexOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, stats.ProcessedChunks)
}

func TestGetOverviewOrdersByFileThenSymbol(t *testing.T) {
	c := openTestCore(t)
	ctx := context.Background()
	_, err := c.Index(ctx, IndexOptions{})
	require.NoError(t, err)

	overview := c.GetOverview(0)
	require.NotEmpty(t, overview)
	assert.Equal(t, "ProcessPayment", overview[0].Entry.Symbol)
}

func TestGetStatsReflectsIndexedChunks(t *testing.T) {
	c := openTestCore(t)
	ctx := context.Background()
	_, err := c.Index(ctx, IndexOptions{})
	require.NoError(t, err)

	stats, err := c.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalChunks)
}

func TestListAndUseContextPack(t *testing.T) {
	c := openTestCore(t)

	pack := types.ContextPack{
		Description: "go files only",
		Lang:        []string{"go"},
	}
	data, err := json.Marshal(pack)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(c.packsDir, "go-only.json"), data, 0o644))

	packs, err := c.ListContextPacks()
	require.NoError(t, err)
	require.Len(t, packs, 1)
	assert.Equal(t, "go-only", packs[0].Name)

	loaded, scope, err := c.UseContextPack("go-only")
	require.NoError(t, err)
	assert.Equal(t, "go-only", loaded.Name)
	assert.Equal(t, []string{"go"}, scope.Lang)
}

func TestUseContextPackMissingReturnsNotFound(t *testing.T) {
	c := openTestCore(t)
	_, _, err := c.UseContextPack("nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestIndexEncryptWithoutKeyFails(t *testing.T) {
	c := openTestCore(t)
	encrypt := true
	_, err := c.Index(context.Background(), IndexOptions{Encrypt: &encrypt})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrEncryptionKeyRequired)
}
