// Package manifest implements the C2 Merkle Manifest: a per-file registry of
// content hashes and produced chunk SHAs, persisted at
// "<root>/.pampa/merkle.json", that lets the Indexer skip files whose content
// hasn't changed since the last successful pass.
//
// The load/mutate-a-working-copy/save shape separates in-memory working
// state from when it's committed to disk, the same split a SQL querier
// draws between a transaction and its commit, applied here to a single JSON
// file since the manifest has no relational structure of its own.
package manifest

import (
	"crypto/sha1" //nolint:gosec // content fingerprinting, not a security boundary
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/lemon07r/pampax/pkg/types"
)

const fileName = "merkle.json"

// Manifest is the C2 Merkle Manifest's in-memory working copy.
type Manifest struct {
	mu      sync.RWMutex
	path    string
	entries map[string]types.ManifestEntry
}

// Path returns the manifest's backing file path for a repo root, i.e.
// "<root>/.pampa/merkle.json".
func Path(root string) string {
	return filepath.Join(root, ".pampa", fileName)
}

// Load reads the manifest at root, returning an empty Manifest if the file
// doesn't exist yet (a fresh repo has no manifest history).
func Load(root string) (*Manifest, error) {
	path := Path(root)
	m := &Manifest{path: path, entries: make(map[string]types.ManifestEntry)}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", path, err)
	}
	if len(data) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(data, &m.entries); err != nil {
		return nil, fmt.Errorf("manifest: parse %s: %w", path, err)
	}
	return m, nil
}

// Get returns the stored entry for path and whether one exists.
func (m *Manifest) Get(path string) (types.ManifestEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[path]
	return e, ok
}

// Unchanged reports whether path's stored shaFile matches currentSha, i.e.
// whether the Indexer may skip reparsing this file entirely.
func (m *Manifest) Unchanged(path, currentSha string) bool {
	e, ok := m.Get(path)
	return ok && e.ShaFile == currentSha
}

// Put rewrites path's entry in the working copy. Persistence happens once,
// at Save.
func (m *Manifest) Put(path string, entry types.ManifestEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[path] = entry.Clone()
}

// Remove deletes path's entry, reporting whether the manifest was actually
// mutated (path was previously present).
func (m *Manifest) Remove(path string) (mutated bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[path]; !ok {
		return false
	}
	delete(m.entries, path)
	return true
}

// Paths returns every path currently tracked, for the Indexer's
// deleted-file reconciliation pass.
func (m *Manifest) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	paths := make([]string, 0, len(m.entries))
	for p := range m.entries {
		paths = append(paths, p)
	}
	return paths
}

// Clone returns an independent deep copy of the manifest's current working
// state, letting a caller snapshot progress mid-run without holding a lock
// across long-running work.
func (m *Manifest) Clone() *Manifest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cp := &Manifest{path: m.path, entries: make(map[string]types.ManifestEntry, len(m.entries))}
	for k, v := range m.entries {
		cp.entries[k] = v.Clone()
	}
	return cp
}

// Save persists the working copy atomically: written to a temp file in the
// same directory then renamed over the destination, so a crash mid-write
// never leaves a truncated manifest on disk.
func (m *Manifest) Save() error {
	m.mu.RLock()
	data, err := json.MarshalIndent(m.entries, "", "  ")
	m.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("manifest: marshal: %w", err)
	}

	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("manifest: create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, fileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("manifest: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("manifest: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("manifest: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, m.path); err != nil {
		return fmt.Errorf("manifest: rename into place: %w", err)
	}
	return nil
}

// HashFile returns the SHA-1 hex digest of a file's UTF-8 bytes, the fast
// hash the manifest compares against on each indexing pass.
func HashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("manifest: read %s: %w", path, err)
	}
	return HashBytes(data), nil
}

// HashBytes returns the SHA-1 hex digest of b.
func HashBytes(b []byte) string {
	sum := sha1.Sum(b) //nolint:gosec
	return hex.EncodeToString(sum[:])
}
