// Package reranker implements the C13 Reranker: an optional second-pass
// scorer the Retrieval Engine (C12) runs over its top candidate slice, in
// two backends — a local cross-encoder and a remote HTTP API.
//
// No repo in the retrieved corpus runs a local cross-encoder inference
// engine (the nearest thing, goclaw's dop251/goja, is a JS VM, not an ML
// runtime), so the local backend is a documented stub: its constructor
// always returns an error, and callers configuring PAMPAX_RERANKER_DEFAULT=
// transformers get a clear ErrLocalRerankerUnavailable instead of a silent
// no-op. The API backend follows the same defensive HTTP client shape as
// internal/embedder's provider clients (bytes/json/net/http, explicit
// status check, io.ReadAll on error), routed through internal/ratelimit
// (C9) for every I/O-bound reranker call, with tolerant multi-shape JSON
// response parsing across the handful of response shapes rerank APIs use.
package reranker
