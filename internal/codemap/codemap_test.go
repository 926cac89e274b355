package codemap

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lemon07r/pampax/pkg/types"
)

func TestLoad_MissingFileReturnsEmpty(t *testing.T) {
	s, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	root := t.TempDir()
	s, err := Load(root)
	require.NoError(t, err)

	s.Merge("b.go:Foo:aaaaaaaa", types.CodemapEntry{FilePath: "b.go", Symbol: "Foo", Sha: "aaaaaaaa", Language: "go"})
	s.Merge("a.go:Bar:bbbbbbbb", types.CodemapEntry{FilePath: "a.go", Symbol: "Bar", Sha: "bbbbbbbb", Language: "go"})

	require.NoError(t, s.Save())

	reloaded, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Len())

	entry, ok := reloaded.Get("a.go:Bar:bbbbbbbb")
	require.True(t, ok)
	assert.Equal(t, "a.go", entry.FilePath)
	assert.Equal(t, "Bar", entry.Symbol)
}

func TestSave_KeysAreSorted(t *testing.T) {
	root := t.TempDir()
	s, err := Load(root)
	require.NoError(t, err)

	s.Merge("zzz:Z:1", types.CodemapEntry{FilePath: "z.go", Symbol: "Z", Sha: "1"})
	s.Merge("aaa:A:1", types.CodemapEntry{FilePath: "a.go", Symbol: "A", Sha: "1"})
	require.NoError(t, s.Save())

	matches, err := filepath.Glob(filepath.Join(root, fileName))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	raw, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	content := string(raw)
	assert.Less(t, strings.Index(content, `"aaa:A:1"`), strings.Index(content, `"zzz:Z:1"`))
}

func TestMerge_PreservesSynonymsAndWeightsAcrossReindex(t *testing.T) {
	s := &Store{entries: make(types.Codemap)}
	s.Merge("id1", types.CodemapEntry{
		FilePath: "f.go", Symbol: "Foo", Sha: "old",
		Synonyms: []string{"widget"},
		Weights:  map[string]float64{"relevance": 0.9},
	})

	// A re-index produces a fresh entry (new sha) with no user-authored
	// fields set; the merge must carry the old ones forward.
	s.Merge("id1", types.CodemapEntry{FilePath: "f.go", Symbol: "Foo", Sha: "new"})

	entry, ok := s.Get("id1")
	require.True(t, ok)
	assert.Equal(t, "new", entry.Sha)
	assert.Equal(t, []string{"widget"}, entry.Synonyms)
	assert.Equal(t, 0.9, entry.Weights["relevance"])
}

func TestMerge_NewSynonymsOverrideOld(t *testing.T) {
	s := &Store{entries: make(types.Codemap)}
	s.Merge("id1", types.CodemapEntry{Synonyms: []string{"old"}})
	s.Merge("id1", types.CodemapEntry{Synonyms: []string{"new"}})

	entry, _ := s.Get("id1")
	assert.Equal(t, []string{"new"}, entry.Synonyms)
}

func TestMerge_AttachesCallsGraphFromCalls(t *testing.T) {
	s := &Store{entries: make(types.Codemap)}
	s.Merge("id1", types.CodemapEntry{Calls: []string{"helper", "log"}})

	entry, _ := s.Get("id1")
	assert.Equal(t, []string{"helper", "log"}, entry.CallsGraph)
}

func TestChunkIDsForFile(t *testing.T) {
	s := &Store{entries: make(types.Codemap)}
	s.Merge("a:Foo:1", types.CodemapEntry{FilePath: "a.go"})
	s.Merge("a:Bar:2", types.CodemapEntry{FilePath: "a.go"})
	s.Merge("b:Baz:3", types.CodemapEntry{FilePath: "b.go"})

	ids := s.ChunkIDsForFile("a.go")
	assert.ElementsMatch(t, []string{"a:Foo:1", "a:Bar:2"}, ids)
}

func TestRemove(t *testing.T) {
	s := &Store{entries: make(types.Codemap)}
	s.Merge("id1", types.CodemapEntry{})
	assert.True(t, s.Remove("id1"))
	assert.False(t, s.Remove("id1"))
	assert.Equal(t, 0, s.Len())
}

func TestSnapshot_IsIndependentOfLiveStore(t *testing.T) {
	s := &Store{entries: make(types.Codemap)}
	s.Merge("id1", types.CodemapEntry{Calls: []string{"a"}})

	snap := s.Snapshot()
	snapEntry := snap["id1"]
	snapEntry.Calls[0] = "mutated"

	live, _ := s.Get("id1")
	assert.Equal(t, "a", live.Calls[0])
}
