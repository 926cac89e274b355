package symbols

import (
	"context"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lemon07r/pampax/internal/langs"
	"github.com/lemon07r/pampax/pkg/types"
)

func parseFirst(t *testing.T, rule *langs.LangRule, source string) *sitter.Node {
	t.Helper()
	parser := sitter.NewParser()
	parser.SetLanguage(rule.Language)
	tree, err := parser.ParseCtx(context.Background(), nil, []byte(source))
	require.NoError(t, err)

	var found *sitter.Node
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if found != nil || n == nil {
			return
		}
		if rule.IsChunkNode(n.Type()) {
			found = n
			return
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(tree.RootNode())
	require.NotNil(t, found, "no chunk node found in source")
	return found
}

func TestExtract_GoFunction(t *testing.T) {
	rule, ok := langs.Default().ForName("go")
	require.True(t, ok)

	source := `package sample

// Add returns the sum of a and b.
func Add(a int, b int) int {
	return helper(a) + b
}
`
	node := parseFirst(t, rule, source)
	sym := New().Extract(node, []byte(source), rule, "sample")

	assert.Equal(t, "Add", sym.Name)
	assert.Equal(t, types.KindFunction, sym.Kind)
	assert.Equal(t, types.ScopeExported, sym.Scope)
	assert.Equal(t, "sample", sym.Package)
	assert.Equal(t, "func Add(a int, b int) int", sym.Signature)
	assert.Equal(t, "Add returns the sum of a and b.", sym.DocComment)
	assert.Equal(t, "int", sym.ReturnType)
	require.Len(t, sym.Parameters, 2)
	assert.Equal(t, "a", sym.Parameters[0].Name)
	assert.Equal(t, "int", sym.Parameters[0].Type)
	assert.Contains(t, sym.Calls, "helper")
}

func TestExtract_GoMethodWithReceiver(t *testing.T) {
	rule, ok := langs.Default().ForName("go")
	require.True(t, ok)

	source := `package sample

func (s *Store) get(key string) (string, error) {
	return s.data[key], nil
}
`
	node := parseFirst(t, rule, source)
	sym := New().Extract(node, []byte(source), rule, "sample")

	assert.Equal(t, "get", sym.Name)
	assert.Equal(t, types.KindMethod, sym.Kind)
	assert.Equal(t, "Store", sym.Receiver)
	assert.Equal(t, types.ScopeUnexported, sym.Scope)
}

func TestExtract_GoStructDDDRepository(t *testing.T) {
	rule, ok := langs.Default().ForName("go")
	require.True(t, ok)

	source := `package sample

type OrderRepository struct {
	db *sql.DB
}
`
	node := parseFirst(t, rule, source)
	sym := New().Extract(node, []byte(source), rule, "sample")

	assert.Equal(t, "OrderRepository", sym.Name)
	assert.Equal(t, types.KindStruct, sym.Kind)
	assert.True(t, sym.IsRepository)
	assert.True(t, sym.IsDDDPattern())
}

func TestExtract_PythonFunction(t *testing.T) {
	rule, ok := langs.Default().ForName("python")
	require.True(t, ok)

	source := "def _load(path):\n    return open(path).read()\n"
	node := parseFirst(t, rule, source)
	sym := New().Extract(node, []byte(source), rule, "")

	assert.Equal(t, "_load", sym.Name)
	assert.Equal(t, types.KindFunction, sym.Kind)
	assert.Equal(t, types.ScopeUnexported, sym.Scope)
	require.Len(t, sym.Parameters, 1)
	assert.Equal(t, "path", sym.Parameters[0].Name)
}

func TestExtractCalls_Deduplicates(t *testing.T) {
	rule, ok := langs.Default().ForName("go")
	require.True(t, ok)

	source := `package sample

func run() {
	step()
	step()
	other()
}
`
	node := parseFirst(t, rule, source)
	sym := New().Extract(node, []byte(source), rule, "sample")

	assert.Equal(t, []string{"step", "other"}, sym.Calls)
}
