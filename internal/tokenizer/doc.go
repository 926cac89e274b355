// Package tokenizer implements the C5 Tokenizer / Size Analyzer: a hybrid
// char-estimate/real-tokenize sizing strategy the Chunker (C6) uses to
// decide whether a candidate node is too small, optimal, in need of
// subdivision, or too large.
//
// The LRU cache follows internal/embedder.Cache's shape
// (hashicorp/golang-lru/v2, deep-copy-free here since Result is a small
// value type) adapted to cache token counts instead of embedding vectors.
// Real tokenization uses github.com/pkoukk/tiktoken-go, the BPE tokenizer
// itsddvn-goclaw vendors for the same purpose.
//
// The one rule callers must not violate: the indexing code path that
// decides whether to skip a chunk as too small must call Analyze with
// AllowEstimateForSkip=false. Only subdivision-candidate analysis may pass
// true (§4.5).
package tokenizer
