// Package indexer implements the C10 Indexer Orchestrator: the only
// component with write access to the DB, codemap, chunk store, and
// manifest (§3 Ownership). It walks a repository, runs each changed file
// through C6/C7/C5, embeds the resulting chunks via C8, and reconciles
// storage so a run is idempotent when nothing changed.
package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lemon07r/pampax/internal/bm25"
	"github.com/lemon07r/pampax/internal/chunker"
	"github.com/lemon07r/pampax/internal/chunkstore"
	"github.com/lemon07r/pampax/internal/codemap"
	"github.com/lemon07r/pampax/internal/embedder"
	"github.com/lemon07r/pampax/internal/fsutil"
	"github.com/lemon07r/pampax/internal/langs"
	"github.com/lemon07r/pampax/internal/manifest"
	"github.com/lemon07r/pampax/internal/storage"
	"github.com/lemon07r/pampax/internal/tokenizer"
	"github.com/lemon07r/pampax/pkg/types"
)

// ChunkingStats folds internal/chunker.Stats across every file processed in
// one run. Field names match §4.10's output shape verbatim.
type ChunkingStats struct {
	TotalNodes        int
	NormalChunks      int
	Subdivided        int
	MergedSmall       int
	StatementFallback int
	SkippedSmall      int
}

func (c *ChunkingStats) add(s chunker.Stats) {
	c.TotalNodes += s.TotalNodes
	c.NormalChunks += s.NormalChunks
	c.Subdivided += s.Subdivided
	c.MergedSmall += s.MergedSmall
	c.StatementFallback += s.StatementFallback
	c.SkippedSmall += s.SkippedSmall
}

// Progress reports one file's completion within a run, for a caller's
// onProgress callback.
type Progress struct {
	FilesTotal  int
	FilesDone   int
	CurrentFile string
}

// Stats is a run's output, per §4.10: "{ processedChunks, totalChunks,
// provider, errors[], chunkingStats }".
type Stats struct {
	ProcessedChunks int
	TotalChunks     int
	Provider        string
	Errors          []string
	Chunking        ChunkingStats
	Duration        time.Duration
}

// Options configures one Index/Update run.
type Options struct {
	// Provider is the embedding provider identity to tag written rows
	// with. Left empty, the configured embedder's own Provider() is used.
	Provider string

	// ChangedFiles, if non-nil, restricts the run to exactly this set
	// (an incremental update) instead of a full repo glob. Paths that no
	// longer exist on disk are folded into DeletedFiles.
	ChangedFiles []string

	// DeletedFiles lists paths whose chunks/manifest entries must be
	// removed regardless of ChangedFiles.
	DeletedFiles []string

	// OnProgress, if set, is called after each file is processed.
	OnProgress func(Progress)
}

// Indexer is the C10 Indexer Orchestrator.
type Indexer struct {
	root     string
	store    storage.Store
	chunks   *chunkstore.Store
	registry *langs.Registry
	bm25     *bm25.Cache
	logger   *slog.Logger

	lock IndexLock
}

// New builds an Indexer rooted at root. bm25Cache may be nil if the caller
// never serves search from this process (e.g. a one-shot CLI index run).
func New(root string, store storage.Store, chunks *chunkstore.Store, registry *langs.Registry, bm25Cache *bm25.Cache, logger *slog.Logger) *Indexer {
	if registry == nil {
		registry = langs.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{root: root, store: store, chunks: chunks, registry: registry, bm25: bm25Cache, logger: logger}
}

// Index runs a full repository scan.
func (ix *Indexer) Index(ctx context.Context, emb embedder.Embedder, opts Options) (*Stats, error) {
	return ix.run(ctx, emb, opts)
}

// Update runs an incremental pass over opts.ChangedFiles/DeletedFiles. A nil
// opts.ChangedFiles makes it a full repository scan, exactly as Index.
func (ix *Indexer) Update(ctx context.Context, emb embedder.Embedder, opts Options) (*Stats, error) {
	return ix.run(ctx, emb, opts)
}

// IndexBatch satisfies internal/watcher.Indexer, translating a debounced
// change batch into an incremental Update.
func (ix *Indexer) IndexBatch(ctx context.Context, emb embedder.Embedder, changed, deleted []string) error {
	if changed == nil {
		changed = []string{}
	}
	_, err := ix.run(ctx, emb, Options{ChangedFiles: changed, DeletedFiles: deleted})
	return err
}

// run implements the full §4.10 pipeline. It refuses to overlap with
// another in-flight run on the same Indexer (TryAcquire): only one run
// holds exclusive write access at a time.
func (ix *Indexer) run(ctx context.Context, emb embedder.Embedder, opts Options) (*Stats, error) {
	if !ix.lock.TryAcquire() {
		return nil, fmt.Errorf("indexer: a run is already in progress")
	}
	defer ix.lock.Release()

	start := time.Now()
	provider := opts.Provider
	if provider == "" {
		provider = emb.Provider()
	}

	man, err := manifest.Load(ix.root)
	if err != nil {
		return nil, fmt.Errorf("indexer: load manifest: %w", err)
	}
	cm, err := codemap.Load(ix.root)
	if err != nil {
		return nil, fmt.Errorf("indexer: load codemap: %w", err)
	}

	ix.warnOnProviderMismatch(ctx, provider, emb.Dimension())

	fullScan := opts.ChangedFiles == nil
	files, deleted, err := ix.enumerate(opts)
	if err != nil {
		return nil, fmt.Errorf("indexer: enumerate files: %w", err)
	}

	profile := embedder.ProfileFor(provider)
	var counter tokenizer.Counter
	if tc, tcErr := tokenizer.NewTiktokenCounter(""); tcErr == nil {
		counter = tc
	} else {
		ix.logger.Warn("tiktoken encoding unavailable, downgrading to character-estimate sizing", "error", tcErr)
	}
	analyzer := tokenizer.New(counter, 0, ix.logger)
	chk := chunker.New(analyzer, profile.Limits())

	stats := &Stats{Provider: provider}
	mutated := false

	// File-level work (parse, chunk, hash, embed) is CPU- and I/O-bound per
	// file but never shares mutable state across files: the manifest,
	// codemap, and metadata store each guard their own writes, so a
	// bounded worker pool can run files concurrently while the rate
	// limiter inside the embedder serializes the actual network calls
	// (§5's "bounded worker pool" for CPU work).
	var mu sync.Mutex
	doneCount := 0
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fileWorkers())

	for _, path := range files {
		path := path
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			n, chunkStats, ferr := ix.processFile(gctx, emb, provider, path, man, cm, chk)

			mu.Lock()
			defer mu.Unlock()
			if ferr != nil {
				stats.Errors = append(stats.Errors, fmt.Sprintf("%s: %v", path, ferr))
			}
			if n > 0 {
				mutated = true
			}
			stats.ProcessedChunks += n
			stats.Chunking.add(chunkStats)
			doneCount++
			if opts.OnProgress != nil {
				opts.OnProgress(Progress{FilesTotal: len(files), FilesDone: doneCount, CurrentFile: path})
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, path := range deleted {
		if ix.removeFile(ctx, path, man, cm) {
			mutated = true
		}
	}

	if fullScan {
		for _, path := range man.Paths() {
			if _, err := os.Stat(filepath.Join(ix.root, path)); os.IsNotExist(err) {
				if ix.removeFile(ctx, path, man, cm) {
					mutated = true
				}
			}
		}
	}

	if err := man.Save(); err != nil {
		return nil, fmt.Errorf("indexer: save manifest: %w", err)
	}
	if err := cm.Save(); err != nil {
		return nil, fmt.Errorf("indexer: save codemap: %w", err)
	}
	if mutated && ix.bm25 != nil {
		ix.bm25.Invalidate(ix.root)
	}

	total, err := ix.store.CountChunks(ctx)
	if err == nil {
		stats.TotalChunks = total
	}
	stats.Duration = time.Since(start)
	return stats, nil
}

// warnOnProviderMismatch inspects existing rows' (provider, dimensions)
// pairs and logs a human-readable warning if any disagree with the
// configured provider, without aborting (§4.10 Mismatch warning).
func (ix *Indexer) warnOnProviderMismatch(ctx context.Context, provider string, dimensions int) {
	pairs, err := ix.store.DistinctProviderDims(ctx)
	if err != nil {
		return
	}
	for _, p := range pairs {
		if p.Provider != provider || p.Dimensions != dimensions {
			ix.logger.Warn("existing chunks were embedded with a different provider",
				"configured_provider", provider, "configured_dimensions", dimensions,
				"existing_provider", p.Provider, "existing_dimensions", p.Dimensions,
				"suggestion", "run a clean reindex to unify embeddings: pampax index --clean")
		}
	}
}

// enumerate resolves the set of files to process and the set to delete, per
// §4.10's File enumeration rule.
func (ix *Indexer) enumerate(opts Options) (files, deleted []string, err error) {
	deleted = append(deleted, opts.DeletedFiles...)

	if opts.ChangedFiles != nil {
		for _, p := range opts.ChangedFiles {
			norm := normalizePath(p)
			if _, statErr := os.Stat(filepath.Join(ix.root, norm)); os.IsNotExist(statErr) {
				deleted = append(deleted, norm)
				continue
			}
			files = append(files, norm)
		}
		return files, dedupe(deleted), nil
	}

	err = filepath.WalkDir(ix.root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if fsutil.IsDeniedDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if path == codemap.Path(ix.root) {
			return nil
		}
		if _, ok := ix.registry.ForPath(path); !ok {
			return nil
		}
		rel, relErr := filepath.Rel(ix.root, path)
		if relErr != nil {
			return nil
		}
		files = append(files, normalizePath(rel))
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	sort.Strings(files)
	return files, dedupe(deleted), nil
}

func normalizePath(p string) string {
	return filepath.ToSlash(p)
}

func dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// processFile runs one file through steps 1-7 of §4.10's per-file pipeline.
// It returns the number of chunks (re)embedded and written, plus this
// file's contribution to the run's chunking stats.
func (ix *Indexer) processFile(ctx context.Context, emb embedder.Embedder, provider, relPath string, man *manifest.Manifest, cm *codemap.Store, chk *chunker.Chunker) (int, chunker.Stats, error) {
	absPath := filepath.Join(ix.root, relPath)
	source, err := os.ReadFile(absPath)
	if err != nil {
		return 0, chunker.Stats{}, fmt.Errorf("read: %w", err)
	}
	shaFile := manifest.HashBytes(source)

	if man.Unchanged(relPath, shaFile) {
		return 0, chunker.Stats{}, nil
	}

	rule, _ := ix.registry.ForPath(relPath)
	result, err := chk.Chunk(relPath, source, rule)
	if err != nil {
		// Fallback path: the chunker already emits a whole-file chunk on
		// parse failure, so this branch only fires for genuine I/O-shaped
		// errors surfaced through Chunk's return.
		return 0, chunker.Stats{}, fmt.Errorf("chunk: %w", err)
	}

	prevIDs := make(map[string]bool)
	for _, id := range cm.ChunkIDsForFile(relPath) {
		prevIDs[id] = true
	}

	keepIDs := make([]string, 0, len(result.Chunks))
	chunkShas := make([]string, 0, len(result.Chunks))
	processed := 0

	var toEmbed []*types.Chunk
	for _, c := range result.Chunks {
		id := c.ID()
		keepIDs = append(keepIDs, id)
		chunkShas = append(chunkShas, c.SHAHex())
		delete(prevIDs, id)

		if entry, ok := cm.Get(id); ok && entry.Sha == c.SHAHex() {
			// Unchanged: leave the existing DB row and chunk body alone.
			continue
		}
		toEmbed = append(toEmbed, c)
	}

	if len(toEmbed) > 0 {
		texts := make([]string, len(toEmbed))
		for i, c := range toEmbed {
			texts[i] = embeddingText(c)
		}
		resp, err := emb.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{Texts: texts})
		if err != nil {
			return processed, result.Stats, fmt.Errorf("embed: %w", err)
		}
		if len(resp.Embeddings) != len(toEmbed) {
			return processed, result.Stats, fmt.Errorf("embed: expected %d vectors, got %d", len(toEmbed), len(resp.Embeddings))
		}
		for i, c := range toEmbed {
			c.Embedding = resp.Embeddings[i].Vector
			c.EmbeddingProvider = provider
			c.EmbeddingDimensions = emb.Dimension()

			wr, werr := ix.chunks.Write(c.SHAHex(), []byte(c.Code))
			if werr != nil {
				return processed, result.Stats, fmt.Errorf("write chunk body: %w", werr)
			}
			if werr := ix.store.UpsertChunk(ctx, toChunkRow(c)); werr != nil {
				return processed, result.Stats, fmt.Errorf("upsert chunk row: %w", werr)
			}
			cm.Merge(c.ID(), toCodemapEntry(c, wr.Encrypted))
			processed++
		}
	}

	// Step 6: delete rows whose chunk_id belonged to this file's previous
	// state but were not re-emitted this pass.
	for id := range prevIDs {
		cm.Remove(id)
		_ = ix.store.DeleteChunk(ctx, id)
	}
	if _, err := ix.store.DeleteChunksNotIn(ctx, relPath, keepIDs); err != nil {
		return processed, result.Stats, fmt.Errorf("reconcile stale rows: %w", err)
	}

	man.Put(relPath, types.ManifestEntry{ShaFile: shaFile, ChunkShas: chunkShas})
	return processed, result.Stats, nil
}

// fileWorkers bounds the per-run file-processing concurrency to the
// available CPUs, capped at maxFileWorkers.
func fileWorkers() int {
	w := runtime.NumCPU()
	if w > maxFileWorkers {
		w = maxFileWorkers
	}
	if w < 1 {
		w = 1
	}
	return w
}

const maxFileWorkers = 8

// removeFile handles a file named in DeletedFiles or vanished between full
// scans: drop its chunks, manifest entry, and codemap entries.
func (ix *Indexer) removeFile(ctx context.Context, relPath string, man *manifest.Manifest, cm *codemap.Store) bool {
	mutated := man.Remove(relPath)
	for _, id := range cm.ChunkIDsForFile(relPath) {
		cm.Remove(id)
		mutated = true
	}
	if err := ix.store.DeleteChunksByFile(ctx, relPath); err != nil {
		ix.logger.Warn("failed to delete chunks for removed file", "path", relPath, "error", err)
	} else {
		mutated = true
	}
	return mutated
}

// embeddingText builds the "enhanced embedding text" of §4.10 step 5:
// docComment + code + optional annotation lines, each present only if the
// underlying field is non-empty.
func embeddingText(c *types.Chunk) string {
	var b strings.Builder
	if c.DocComment != "" {
		b.WriteString(c.DocComment)
		b.WriteString("\n")
	}
	b.WriteString(c.Code)
	if c.Intent != "" {
		fmt.Fprintf(&b, "\n// Intent: %s", c.Intent)
	}
	if c.Description != "" {
		fmt.Fprintf(&b, "\n// Description: %s", c.Description)
	}
	if len(c.Tags) > 0 {
		fmt.Fprintf(&b, "\n// Tags: %s", strings.Join(c.Tags, ", "))
	}
	if len(c.Variables) > 0 {
		names := make([]string, len(c.Variables))
		for i, v := range c.Variables {
			names[i] = v.Name
		}
		fmt.Fprintf(&b, "\n// Uses variables: %s", strings.Join(names, ", "))
	}
	return b.String()
}

func toChunkRow(c *types.Chunk) *storage.ChunkRow {
	ctxJSON, _ := json.Marshal(c.Context)
	varsJSON, _ := json.Marshal(c.Variables)
	return &storage.ChunkRow{
		ID:                  c.ID(),
		FilePath:            c.FilePath,
		Symbol:              c.Symbol,
		SHA:                 c.SHAHex(),
		Lang:                c.Language,
		ChunkType:           string(c.ChunkType),
		Embedding:           c.Embedding,
		EmbeddingProvider:   c.EmbeddingProvider,
		EmbeddingDimensions: c.EmbeddingDimensions,
		PampaTags:           c.Tags,
		PampaIntent:         c.Intent,
		PampaDescription:    c.Description,
		DocComments:         c.DocComment,
		VariablesUsedJSON:   string(varsJSON),
		ContextInfoJSON:     string(ctxJSON),
	}
}

func toCodemapEntry(c *types.Chunk, encrypted bool) types.CodemapEntry {
	return types.CodemapEntry{
		FilePath:            c.FilePath,
		Symbol:              c.Symbol,
		Sha:                 c.SHAHex(),
		Language:            c.Language,
		ChunkType:           string(c.ChunkType),
		EmbeddingProvider:   c.EmbeddingProvider,
		EmbeddingDimensions: c.EmbeddingDimensions,
		Flags: types.CodemapFlags{
			HasPampaTags:     len(c.Tags) > 0,
			HasIntent:        c.Intent != "",
			HasDocumentation: c.DocComment != "",
			VariableCount:    len(c.Variables),
			Encrypted:        encrypted,
		},
		Signature:  c.Signature,
		Parameters: c.Parameters,
		ReturnType: c.ReturnType,
		Calls:      c.Calls,
	}
}
