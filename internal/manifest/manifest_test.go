package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lemon07r/pampax/pkg/types"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingReturnsEmpty(t *testing.T) {
	root := t.TempDir()
	m, err := Load(root)
	require.NoError(t, err)
	require.Empty(t, m.Paths())
}

func TestPutSaveLoadRoundTrip(t *testing.T) {
	root := t.TempDir()
	m, err := Load(root)
	require.NoError(t, err)

	m.Put("src/foo.go", types.ManifestEntry{ShaFile: "abc123", ChunkShas: []string{"c1", "c2"}})
	require.NoError(t, m.Save())

	reloaded, err := Load(root)
	require.NoError(t, err)
	entry, ok := reloaded.Get("src/foo.go")
	require.True(t, ok)
	require.Equal(t, "abc123", entry.ShaFile)
	require.Equal(t, []string{"c1", "c2"}, entry.ChunkShas)
}

func TestUnchangedComparesShaFile(t *testing.T) {
	root := t.TempDir()
	m, err := Load(root)
	require.NoError(t, err)

	m.Put("a.go", types.ManifestEntry{ShaFile: "same"})
	require.True(t, m.Unchanged("a.go", "same"))
	require.False(t, m.Unchanged("a.go", "different"))
	require.False(t, m.Unchanged("missing.go", "same"))
}

func TestRemoveReportsMutation(t *testing.T) {
	root := t.TempDir()
	m, err := Load(root)
	require.NoError(t, err)

	require.False(t, m.Remove("nope.go"))

	m.Put("gone.go", types.ManifestEntry{ShaFile: "x"})
	require.True(t, m.Remove("gone.go"))
	require.False(t, m.Remove("gone.go"))
}

func TestCloneIsIndependent(t *testing.T) {
	root := t.TempDir()
	m, err := Load(root)
	require.NoError(t, err)
	m.Put("f.go", types.ManifestEntry{ShaFile: "s", ChunkShas: []string{"a"}})

	clone := m.Clone()
	clone.Put("f.go", types.ManifestEntry{ShaFile: "changed"})

	original, _ := m.Get("f.go")
	require.Equal(t, "s", original.ShaFile)
}

func TestSaveIsAtomicNoPartialFileLeftOnDisk(t *testing.T) {
	root := t.TempDir()
	m, err := Load(root)
	require.NoError(t, err)
	m.Put("x.go", types.ManifestEntry{ShaFile: "z"})
	require.NoError(t, m.Save())

	entries, err := os.ReadDir(filepath.Join(root, ".pampa"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, fileName, entries[0].Name())
}

func TestHashFileMatchesHashBytes(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "sample.txt")
	require.NoError(t, os.WriteFile(p, []byte("hello world"), 0o644))

	fromFile, err := HashFile(p)
	require.NoError(t, err)
	require.Equal(t, HashBytes([]byte("hello world")), fromFile)
}
