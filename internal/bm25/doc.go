// Package bm25 implements the C11 BM25 Index: an in-memory lexical scorer
// over chunk text (symbol, file path, description, intent, doc comments,
// decompressed body), built lazily per (provider, dimensions) pair and
// consumed by the Retrieval Engine's (C12) reciprocal-rank fusion phase.
//
// No repo in the retrieved corpus vendors a general full-text/BM25 library
// (see SPEC_FULL.md §2), so this is a from-scratch domain algorithm rather
// than a wrapped dependency, reimplementing the scoring semantics the
// teacher's SQLite FTS5 bm25() call used to provide, now computed in
// process instead of delegated to the database. The Cache wrapper's
// lazy-build-then-memoize shape follows internal/embedder.Cache's
// get-or-populate pattern (hashicorp/golang-lru/v2 there; a plain map here
// since the key space — one entry per open base path × provider ×
// dimension — stays small enough that no eviction policy is warranted).
package bm25
