package chunker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lemon07r/pampax/internal/langs"
	"github.com/lemon07r/pampax/internal/tokenizer"
	"github.com/lemon07r/pampax/pkg/types"
)

func generousLimits() tokenizer.Limits {
	return tokenizer.Limits{Min: 1, Optimal: 1000, Max: 2000}
}

func newAnalyzer() *tokenizer.Analyzer {
	return tokenizer.New(nil, 64, nil)
}

func TestChunk_GoFunction_EmitsWholeChunkWithMetadata(t *testing.T) {
	rule, ok := langs.Default().ForName("go")
	require.True(t, ok)

	source := `package sample

// Add returns the sum of a and b.
// @pampa-tags: math, arithmetic
// @pampa-intent: perform addition
func Add(a int, b int) int {
	return helper(a) + b
}
`
	c := New(newAnalyzer(), generousLimits())
	result, err := c.Chunk("sample/math.go", []byte(source), rule)
	require.NoError(t, err)
	require.Len(t, result.Chunks, 1)

	chunk := result.Chunks[0]
	assert.Equal(t, "Add", chunk.Symbol)
	assert.Equal(t, "go", chunk.Language)
	assert.Equal(t, types.ChunkType("function_declaration"), chunk.ChunkType)
	assert.Contains(t, chunk.Code, "func Add")
	assert.Equal(t, "perform addition", chunk.Intent)
	assert.Contains(t, chunk.Tags, "math")
	assert.Contains(t, chunk.Tags, "arithmetic")
	assert.True(t, chunk.Context.HasFlag("hasPampaTags"))
	assert.True(t, chunk.Context.HasFlag("hasIntent"))
	assert.True(t, chunk.Context.HasFlag("hasDocumentation"))
	assert.NotEmpty(t, chunk.SHAHex())
	assert.Equal(t, 1, result.Stats.NormalChunks)
}

func TestChunk_JSNestedFunction_SkipsSmallNestedNode(t *testing.T) {
	rule, ok := langs.Default().ForName("javascript")
	require.True(t, ok)

	source := "function outer() {\n  function inner() { return 1; }\n  return inner();\n}\n"
	limits := tokenizer.Limits{Min: 10, Optimal: 50, Max: 100}
	c := New(newAnalyzer(), limits)

	result, err := c.Chunk("app.js", []byte(source), rule)
	require.NoError(t, err)
	require.Len(t, result.Chunks, 1)
	assert.Equal(t, "outer", result.Chunks[0].Symbol)
	assert.Contains(t, result.Chunks[0].Code, "function inner")
	assert.GreaterOrEqual(t, result.Stats.SkippedSmall, 1)
}

func TestChunk_JSOversizedClass_MergesSmallMethods(t *testing.T) {
	rule, ok := langs.Default().ForName("javascript")
	require.True(t, ok)

	source := "class Foo {\n  a() { return 1; }\n  b() { return 2; }\n  c() { return 3; }\n}"
	limits := tokenizer.Limits{Min: 6, Optimal: 10, Max: 15}
	c := New(newAnalyzer(), limits)

	result, err := c.Chunk("foo.js", []byte(source), rule)
	require.NoError(t, err)
	require.Len(t, result.Chunks, 1)

	chunk := result.Chunks[0]
	assert.Equal(t, "small_methods_3", chunk.Symbol)
	assert.Equal(t, types.ChunkType("class_declaration_merged"), chunk.ChunkType)
	assert.Contains(t, chunk.Code, "a() { return 1; }")
	assert.Contains(t, chunk.Code, "c() { return 3; }")
	assert.Equal(t, 1, result.Stats.MergedSmall)

	expectedSHA := (&types.Chunk{Code: chunk.Code}).ComputeSHA().SHA
	assert.Equal(t, expectedSHA, chunk.SHA)
}

func TestChunk_UnsupportedLanguage_FallsBackToWholeFile(t *testing.T) {
	rule := &langs.LangRule{Name: "yaml", Extensions: []string{".yaml"}}
	c := New(newAnalyzer(), generousLimits())

	source := "key: value\n"
	result, err := c.Chunk("config/settings.yaml", []byte(source), rule)
	require.NoError(t, err)
	require.Len(t, result.Chunks, 1)

	chunk := result.Chunks[0]
	assert.Equal(t, "settings", chunk.Symbol)
	assert.Equal(t, types.ChunkFile, chunk.ChunkType)
	assert.Equal(t, source, chunk.Code)
}

func TestChunk_NilRule_FallsBackToWholeFile(t *testing.T) {
	c := New(newAnalyzer(), generousLimits())
	result, err := c.Chunk("README", []byte("hello"), nil)
	require.NoError(t, err)
	require.Len(t, result.Chunks, 1)
	assert.Equal(t, types.ChunkFile, result.Chunks[0].ChunkType)
}

func TestAutoTags_CapsAtTenAndDedups(t *testing.T) {
	sym := types.Symbol{IsRepository: true}
	tags := autoTags("internal/order_repository_service.go", "OrderRepositoryService", sym, nil)
	assert.LessOrEqual(t, len(tags), maxAutoTags)
	assert.Contains(t, tags, "repository")
	assert.Contains(t, tags, "service")
	assert.Contains(t, tags, "repository_pattern")
}

func TestExtractImportantVariables_CapsValueLength(t *testing.T) {
	code := "const API_KEY = \"" + repeatChar('x', 150) + "\"\n"
	vars := extractImportantVariables(code)
	require.Len(t, vars, 1)
	assert.Equal(t, "API_KEY", vars[0].Name)
	assert.LessOrEqual(t, len(vars[0].Value), 100)
}

func repeatChar(c byte, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = c
	}
	return string(b)
}
