// Package indexer implements the Indexer Orchestrator: the single writer
// to the manifest, codemap, chunk store, and metadata DB. It turns a set of
// repository files into indexed, embedded, searchable chunks.
//
// # Basic usage
//
//	ix := indexer.New(repoRoot, store, chunkStore, langs.Default(), bm25Cache, logger)
//	emb, _ := embedder.NewFromEnv()
//	stats, err := ix.Index(ctx, emb, indexer.Options{})
//	fmt.Printf("indexed %d chunks across %d total\n", stats.ProcessedChunks, stats.TotalChunks)
//
// # Full scan vs incremental update
//
// Index runs a full repository glob, excluding the fixed deny-list
// directories (see internal/fsutil) and the codemap file itself. Update
// (and IndexBatch, which satisfies internal/watcher.Indexer for the file
// watcher) restrict the run to an explicit ChangedFiles/DeletedFiles set; a
// changed path that no longer exists on disk is folded into the deleted set
// automatically. An Update whose ChangedFiles is nil runs the full glob
// instead, still removing its DeletedFiles.
//
// # Per-file pipeline
//
// Each file is read, hashed, and compared against the manifest's last
// recorded hash — an unchanged file is skipped entirely. A changed file is
// parsed and chunked (internal/chunker, which already runs the C7 symbol
// extractor and C6 annotation pass); each resulting chunk's content hash is
// then compared against the codemap's prior entry for the same chunk_id —
// only genuinely new-or-changed chunks are re-embedded and rewritten.
// Chunk bodies land in the chunk store, rows land in the metadata store,
// and metadata lands in the codemap; rows and codemap entries that
// belonged to the file's previous state but were not re-emitted this pass
// are deleted.
//
// # Provider mismatch
//
// Before processing, existing rows' (provider, dimensions) pairs are
// compared against the run's configured provider; a disagreement logs a
// warning naming both configurations and a recovery command, but never
// aborts the run.
//
// # Concurrency
//
// A run holds a non-blocking IndexLock for its duration, refusing to
// overlap with another run on the same Indexer. Within a run, files are
// processed by a bounded pool of goroutines (golang.org/x/sync/errgroup,
// capped at the available CPUs): each file's manifest.Put, codemap.Merge,
// and DB writes touch only that file's own keys, so concurrent files never
// contend, while stats aggregation across files is serialized behind a
// mutex. The embedder's own rate limiter still serializes outbound network
// calls regardless of how many files are in flight.
package indexer
