package mcp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	t.Setenv("PAMPAX_EMBEDDING_PROVIDER", "local")
	root := t.TempDir()
	src := "package sample\n\nfunc ProcessPayment(amount int) error {\n\treturn nil\n}\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "sample.go"), []byte(src), 0o644))

	s, err := NewServer(root, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.core.Close() })
	return s
}

func callTool(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func TestNewServerRegistersAllTools(t *testing.T) {
	s := newTestServer(t)
	assert.NotNil(t, s.mcp)
	assert.NotNil(t, s.core)
}

func TestHandleIndexThenSearch(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleIndex(ctx, callTool("pampax_index", nil))
	require.NoError(t, err)
	require.False(t, res.IsError)

	res, err = s.handleSearch(ctx, callTool("pampax_search", map[string]any{"query": "ProcessPayment"}))
	require.NoError(t, err)
	require.False(t, res.IsError)
}

func TestHandleSearchRequiresQuery(t *testing.T) {
	s := newTestServer(t)
	res, err := s.handleSearch(context.Background(), callTool("pampax_search", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestHandleGetStatsAfterIndex(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	_, err := s.handleIndex(ctx, callTool("pampax_index", nil))
	require.NoError(t, err)

	res, err := s.handleGetStats(ctx, callTool("pampax_get_stats", nil))
	require.NoError(t, err)
	require.False(t, res.IsError)
}

func TestHandleListContextPacksEmpty(t *testing.T) {
	s := newTestServer(t)
	res, err := s.handleListContextPacks(context.Background(), callTool("pampax_list_context_packs", nil))
	require.NoError(t, err)
	assert.False(t, res.IsError)
}

func TestSplitCSV(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitCSV("a, b"))
	assert.Nil(t, splitCSV(""))
	assert.Nil(t, splitCSV("   "))
}
