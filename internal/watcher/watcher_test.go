package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lemon07r/pampax/internal/embedder"
)

type batchCall struct {
	changed []string
	deleted []string
}

type fakeIndexer struct {
	mu      sync.Mutex
	calls   []batchCall
	err     error
	block   chan struct{}
	started chan struct{}
}

func (f *fakeIndexer) IndexBatch(_ context.Context, _ embedder.Embedder, changed, deleted []string) error {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}

	changed = append([]string(nil), changed...)
	deleted = append([]string(nil), deleted...)
	sort.Strings(changed)
	sort.Strings(deleted)

	f.mu.Lock()
	f.calls = append(f.calls, batchCall{changed: changed, deleted: deleted})
	f.mu.Unlock()
	return f.err
}

func (f *fakeIndexer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeIndexer) callAt(i int) batchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[i]
}

func localEmbedderFactory() (embedder.Embedder, error) {
	return embedder.NewLocalProvider(nil)
}

func TestNew_ValidatesConfig(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	_, err = New(Config{Root: t.TempDir()})
	assert.Error(t, err)
}

func TestWatcher_DetectsFileWrite(t *testing.T) {
	dir := t.TempDir()
	idx := &fakeIndexer{}
	results := make(chan BatchResult, 4)

	w, err := New(Config{
		Root:            dir,
		Debounce:        60 * time.Millisecond,
		Indexer:         idx,
		EmbedderFactory: localEmbedderFactory,
		OnBatch:         func(r BatchResult) { results <- r },
	})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer func() { _ = w.Close() }()

	file := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(file, []byte("package main"), 0o644))

	select {
	case r := <-results:
		assert.Equal(t, []string{file}, r.Changed)
		assert.Empty(t, r.Deleted)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for batch")
	}
}

func TestWatcher_CoalescesRapidWrites(t *testing.T) {
	dir := t.TempDir()
	idx := &fakeIndexer{}
	results := make(chan BatchResult, 4)

	w, err := New(Config{
		Root:            dir,
		Debounce:        80 * time.Millisecond,
		Indexer:         idx,
		EmbedderFactory: localEmbedderFactory,
		OnBatch:         func(r BatchResult) { results <- r },
	})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer func() { _ = w.Close() }()

	file := filepath.Join(dir, "burst.go")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(file, []byte("package burst"), 0o644))
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case r := <-results:
		assert.Equal(t, []string{file}, r.Changed)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for batch")
	}

	select {
	case extra := <-results:
		t.Fatalf("expected exactly one batch, got extra: %+v", extra)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_DetectsDelete(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(file, []byte("package a"), 0o644))

	idx := &fakeIndexer{}
	results := make(chan BatchResult, 4)
	w, err := New(Config{
		Root:            dir,
		Debounce:        60 * time.Millisecond,
		Indexer:         idx,
		EmbedderFactory: localEmbedderFactory,
		OnBatch:         func(r BatchResult) { results <- r },
	})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer func() { _ = w.Close() }()

	require.NoError(t, os.Remove(file))

	select {
	case r := <-results:
		assert.Equal(t, []string{file}, r.Deleted)
		assert.Empty(t, r.Changed)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for batch")
	}
}

func TestWatcher_IgnoresDeniedDirectories(t *testing.T) {
	dir := t.TempDir()
	vendorDir := filepath.Join(dir, "vendor")
	require.NoError(t, os.Mkdir(vendorDir, 0o755))

	idx := &fakeIndexer{}
	results := make(chan BatchResult, 4)
	w, err := New(Config{
		Root:            dir,
		Debounce:        50 * time.Millisecond,
		Indexer:         idx,
		EmbedderFactory: localEmbedderFactory,
		OnBatch:         func(r BatchResult) { results <- r },
	})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer func() { _ = w.Close() }()

	require.NoError(t, os.WriteFile(filepath.Join(vendorDir, "lib.go"), []byte("package lib"), 0o644))

	select {
	case r := <-results:
		t.Fatalf("expected no batch for a denied directory, got: %+v", r)
	case <-time.After(400 * time.Millisecond):
	}
}

func TestWatcher_ReArmsWhileBatchProcessing(t *testing.T) {
	dir := t.TempDir()
	idx := &fakeIndexer{block: make(chan struct{}), started: make(chan struct{}, 4)}

	w, err := New(Config{
		Root:            dir,
		Debounce:        40 * time.Millisecond,
		Indexer:         idx,
		EmbedderFactory: localEmbedderFactory,
	})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer func() { _ = w.Close() }()

	file1 := filepath.Join(dir, "one.go")
	require.NoError(t, os.WriteFile(file1, []byte("package one"), 0o644))

	select {
	case <-idx.started:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for first batch to start")
	}

	file2 := filepath.Join(dir, "two.go")
	require.NoError(t, os.WriteFile(file2, []byte("package two"), 0o644))
	time.Sleep(150 * time.Millisecond) // let the second event's timer fire at least once while blocked

	close(idx.block)

	select {
	case <-idx.started:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for second batch to start")
	}

	require.Eventually(t, func() bool { return idx.callCount() == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{file1}, idx.callAt(0).changed)
	assert.Equal(t, []string{file2}, idx.callAt(1).changed)
}

func TestWatcher_EmbedderFactoryFailureSkipsBatch(t *testing.T) {
	dir := t.TempDir()
	idx := &fakeIndexer{}
	wantErr := errors.New("no api key configured")

	w, err := New(Config{
		Root:     dir,
		Debounce: 50 * time.Millisecond,
		Indexer:  idx,
		EmbedderFactory: func() (embedder.Embedder, error) {
			return nil, wantErr
		},
	})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer func() { _ = w.Close() }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.go"), []byte("package x"), 0o644))
	time.Sleep(400 * time.Millisecond)

	assert.Equal(t, 0, idx.callCount())
}

func TestWatcher_MemoizesEmbedderAcrossBatches(t *testing.T) {
	dir := t.TempDir()
	idx := &fakeIndexer{}
	results := make(chan BatchResult, 4)
	var factoryCalls int32

	w, err := New(Config{
		Root:     dir,
		Debounce: 50 * time.Millisecond,
		Indexer:  idx,
		EmbedderFactory: func() (embedder.Embedder, error) {
			atomic.AddInt32(&factoryCalls, 1)
			return localEmbedderFactory()
		},
		OnBatch: func(r BatchResult) { results <- r },
	})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer func() { _ = w.Close() }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("package a"), 0o644))
	select {
	case <-results:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for first batch")
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.go"), []byte("package b"), 0o644))
	select {
	case <-results:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for second batch")
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&factoryCalls))
}

func TestWatcher_CloseDrainsPendingBatch(t *testing.T) {
	dir := t.TempDir()
	idx := &fakeIndexer{}

	w, err := New(Config{
		Root:            dir,
		Debounce:        5 * time.Second,
		Indexer:         idx,
		EmbedderFactory: localEmbedderFactory,
	})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	file := filepath.Join(dir, "drain.go")
	require.NoError(t, os.WriteFile(file, []byte("package drain"), 0o644))
	time.Sleep(150 * time.Millisecond) // let the event reach the pending set before Close

	require.NoError(t, w.Close())
	require.Equal(t, 1, idx.callCount())
	assert.Equal(t, []string{file}, idx.callAt(0).changed)

	require.NoError(t, w.Close()) // idempotent
	assert.Equal(t, 1, idx.callCount())
}
