// Package pampax exposes the full semantic-code-memory pipeline — indexing,
// incremental update, watching, and hybrid retrieval — behind a single Core
// facade, so the CLI (cmd/pampax) and the MCP adapter (internal/mcp) share
// one wiring point instead of each re-assembling C1-C14 themselves.
package pampax

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/lemon07r/pampax/internal/bm25"
	"github.com/lemon07r/pampax/internal/chunkstore"
	"github.com/lemon07r/pampax/internal/codemap"
	"github.com/lemon07r/pampax/internal/embedder"
	"github.com/lemon07r/pampax/internal/indexer"
	"github.com/lemon07r/pampax/internal/langs"
	"github.com/lemon07r/pampax/internal/searcher"
	"github.com/lemon07r/pampax/internal/storage"
	"github.com/lemon07r/pampax/internal/watcher"
	"github.com/lemon07r/pampax/pkg/types"
)

// Core wires together the C1-C14 internal packages rooted at one repository
// checkout. It is safe for concurrent use by multiple goroutines except
// where a method's doc comment says otherwise (Index/Update/Watch share the
// Indexer's own single-run lock, per §5's "only the Indexer holds exclusive
// write access during a run"; an Index/Update with IndexOptions.Encrypt set
// runs on a separate Indexer built for that call, which does not share that
// lock).
type Core struct {
	root      string
	dbPath    string
	chunksDir string
	packsDir  string

	store   storage.Store
	chunks  *chunkstore.Store
	codemap *codemap.Store
	bm25    *bm25.Cache
	langs   *langs.Registry
	cfg     Config
	logger  *slog.Logger

	indexer  *indexer.Indexer
	searcher *searcher.Searcher

	embOnce sync.Once
	emb     embedder.Embedder
	embErr  error
}

// Open creates (if absent) and wires the on-disk layout of §6 under root:
// .pampa/pampa.db, .pampa/chunks, .pampa/contextpacks, and
// pampax.codemap.json. logger may be nil, in which case slog.Default() is
// used.
func Open(root string, logger *slog.Logger) (*Core, error) {
	if logger == nil {
		logger = slog.Default()
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("pampax: resolve root: %w", err)
	}

	pampaDir := filepath.Join(absRoot, ".pampa")
	chunksDir := filepath.Join(pampaDir, "chunks")
	packsDir := filepath.Join(pampaDir, "contextpacks")
	for _, dir := range []string{pampaDir, chunksDir, packsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("pampax: create %s: %w", dir, err)
		}
	}

	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("pampax: %w", err)
	}

	dbPath := filepath.Join(pampaDir, "pampa.db")
	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("pampax: open metadata store: %w", err)
	}

	chunks, err := chunkstore.New(chunksDir, cfg.EncryptionKey, cfg.encryptionMode(), logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("pampax: open chunk store: %w", err)
	}

	cm, err := codemap.Load(absRoot)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("pampax: load codemap: %w", err)
	}

	c := &Core{
		root:      absRoot,
		dbPath:    dbPath,
		chunksDir: chunksDir,
		packsDir:  packsDir,
		store:     store,
		chunks:    chunks,
		codemap:   cm,
		bm25:      bm25.NewCache(),
		langs:     langs.Default(),
		cfg:       cfg,
		logger:    logger,
	}
	c.indexer = indexer.New(absRoot, store, chunks, c.langs, c.bm25, logger)
	c.searcher = searcher.New(absRoot, store, chunks, cm, c.bm25, cfg.Reranker, logger)
	return c, nil
}

// Close releases the metadata store's handle. Chunk bodies and the codemap
// are plain files and need no explicit close.
func (c *Core) Close() error {
	return c.store.Close()
}

// Root returns the absolute repository root Core was opened against.
func (c *Core) Root() string { return c.root }

// defaultEmbedder builds (once) and memoizes the embedder implied by the
// process environment, per internal/embedder/factory.go's NewFromEnv.
// Memoized even on failure so a misconfigured provider fails the same way
// on every call within this Core's lifetime rather than retrying silently
// mid-run, matching §14 step 3 of the watcher's own lazy-init contract.
func (c *Core) defaultEmbedder() (embedder.Embedder, error) {
	c.embOnce.Do(func() {
		c.emb, c.embErr = embedder.NewFromEnv()
	})
	return c.emb, c.embErr
}

// resolveEmbedder returns the default embedder unless provider is set, in
// which case a fresh instance for that provider is constructed directly
// (bypassing PAMPAX_EMBEDDING_PROVIDER auto-detection), per §6's
// `index(path, provider, ...)` operation taking an explicit provider.
func (c *Core) resolveEmbedder(provider string) (embedder.Embedder, error) {
	if provider == "" {
		return c.defaultEmbedder()
	}
	return embedder.New(embedder.Config{Provider: provider})
}

// IndexOptions configures Index/Update, mirroring §6's
// `index(path, provider, encrypt?)` operation.
type IndexOptions struct {
	// Provider overrides PAMPAX_EMBEDDING_PROVIDER auto-detection for
	// this run only.
	Provider string

	// Encrypt overrides the chunk store's encryption mode for this run
	// only. Nil keeps the mode Core was opened with (auto if
	// PAMPAX_ENCRYPTION_KEY is set, off otherwise); true requires a key
	// to already be configured.
	Encrypt *bool

	// ChangedFiles/DeletedFiles restrict Update to an incremental pass;
	// left nil on Index for a full repo walk.
	ChangedFiles []string
	DeletedFiles []string

	OnProgress func(indexer.Progress)
}

func (c *Core) runOptions(opts IndexOptions) (indexer.Options, *indexer.Indexer, error) {
	ix := c.indexer
	if opts.Encrypt != nil {
		mode := chunkstore.EncryptionOff
		if *opts.Encrypt {
			if len(c.cfg.EncryptionKey) == 0 {
				return indexer.Options{}, nil, fmt.Errorf("pampax: %w: encrypt requested but %s is not set", types.ErrEncryptionKeyRequired, EnvEncryptionKey)
			}
			mode = chunkstore.EncryptionOn
		}
		chunks, err := chunkstore.New(c.chunksDir, c.cfg.EncryptionKey, mode, c.logger)
		if err != nil {
			return indexer.Options{}, nil, fmt.Errorf("pampax: %w", err)
		}
		ix = indexer.New(c.root, c.store, chunks, c.langs, c.bm25, c.logger)
	}
	return indexer.Options{
		Provider:     opts.Provider,
		ChangedFiles: opts.ChangedFiles,
		DeletedFiles: opts.DeletedFiles,
		OnProgress:   opts.OnProgress,
	}, ix, nil
}

// Index runs a full repository walk-and-embed pass (§4.10).
func (c *Core) Index(ctx context.Context, opts IndexOptions) (*indexer.Stats, error) {
	runOpts, ix, err := c.runOptions(opts)
	if err != nil {
		return nil, err
	}
	emb, err := c.resolveEmbedder(opts.Provider)
	if err != nil {
		return nil, fmt.Errorf("pampax: %w", err)
	}
	return ix.Index(ctx, emb, runOpts)
}

// Update runs an incremental pass restricted to opts.ChangedFiles/DeletedFiles.
// A nil opts.ChangedFiles makes it a full repository walk, as Index is, with
// opts.DeletedFiles removed as well.
func (c *Core) Update(ctx context.Context, opts IndexOptions) (*indexer.Stats, error) {
	runOpts, ix, err := c.runOptions(opts)
	if err != nil {
		return nil, err
	}
	emb, err := c.resolveEmbedder(opts.Provider)
	if err != nil {
		return nil, fmt.Errorf("pampax: %w", err)
	}
	return ix.Update(ctx, emb, runOpts)
}

// WatchHandle is the running handle §6's `watch()` operation returns: Close
// stops the underlying fsnotify watch, waits for any in-flight batch, and
// indexes any changes still pending. It has no separate flush method;
// pending changes are otherwise indexed when the debounce timer fires.
type WatchHandle struct {
	w *watcher.Watcher
}

// Close stops watching and blocks until the watcher's goroutines exit.
func (h *WatchHandle) Close() error { return h.w.Close() }

// Watch starts a debounced filesystem watch over the repository root that
// drives incremental Update runs, per §4.14.
func (c *Core) Watch(ctx context.Context, opts IndexOptions, debounceMs int, onBatch func(watcher.BatchResult)) (*WatchHandle, error) {
	if debounceMs <= 0 {
		debounceMs = 500
	}
	debounce := time.Duration(debounceMs) * time.Millisecond
	w, err := watcher.New(watcher.Config{
		Root:            c.root,
		Debounce:        debounce,
		Indexer:         c.indexer,
		EmbedderFactory: func() (embedder.Embedder, error) { return c.resolveEmbedder(opts.Provider) },
		Registry:        c.langs,
		OnBatch:         onBatch,
		Logger:          c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("pampax: %w", err)
	}
	if err := w.Start(ctx); err != nil {
		return nil, fmt.Errorf("pampax: %w", err)
	}
	return &WatchHandle{w: w}, nil
}

// Search runs the C12 retrieval pipeline. req.Provider, left empty,
// defaults to the search-time embedder's own provider identity, per
// searcher.Search's contract. An empty req.Scope.Reranker takes the mode
// configured by PAMPAX_RERANKER_DEFAULT.
func (c *Core) Search(ctx context.Context, req searcher.Request) (*searcher.Response, error) {
	emb, err := c.resolveEmbedder(req.Provider)
	if err != nil {
		return nil, fmt.Errorf("pampax: %w", err)
	}
	if req.Scope.Reranker == "" {
		req.Scope.Reranker = c.cfg.RerankerMode
	}
	return c.searcher.Search(ctx, emb, req)
}

// GetChunk returns a chunk's decompressed body by content hash.
func (c *Core) GetChunk(sha string) ([]byte, error) {
	return c.chunks.Read(sha)
}

// OverviewEntry pairs a codemap key with its entry for GetOverview's stable
// output ordering.
type OverviewEntry struct {
	ChunkID string
	Entry   types.CodemapEntry
}

// GetOverview returns up to limit codemap entries (0 means unlimited),
// ordered by file path then symbol for deterministic pagination — grouped by
// file and alphabetical within it, the most useful default for a human or
// agent skimming a repo map.
func (c *Core) GetOverview(limit int) []OverviewEntry {
	// Each indexer run saves its own copy of the codemap, so re-read the
	// file to see entries written since Open.
	cm := c.codemap
	if fresh, err := codemap.Load(c.root); err == nil {
		cm = fresh
	}
	snap := cm.Snapshot()
	out := make([]OverviewEntry, 0, len(snap))
	for id, entry := range snap {
		out = append(out, OverviewEntry{ChunkID: id, Entry: entry})
	}
	sortOverview(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// GetStats reports the metadata store's current totals.
func (c *Core) GetStats(ctx context.Context) (storage.Stats, error) {
	return c.store.Stats(ctx)
}

// GetQueryAnalytics returns the most frequent recorded query patterns.
func (c *Core) GetQueryAnalytics(ctx context.Context, limit int) ([]storage.QueryPatternRow, error) {
	if limit <= 0 {
		limit = 20
	}
	return c.store.TopQueryPatterns(ctx, limit)
}

func sortOverview(entries []OverviewEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Entry.FilePath != entries[j].Entry.FilePath {
			return entries[i].Entry.FilePath < entries[j].Entry.FilePath
		}
		return entries[i].Entry.Symbol < entries[j].Entry.Symbol
	})
}
