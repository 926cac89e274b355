// Package searcher implements the Retrieval Engine: a seven-phase hybrid
// search pipeline over the metadata store (C3), the in-memory BM25 index
// (C11), the codemap symbol graph (C4), and an optional cross-encoder
// reranker (C13).
//
// # Basic usage
//
//	s := searcher.New(root, store, chunks, cm, bm25Cache, rerankCfg, logger)
//
//	resp, err := s.Search(ctx, embedder, searcher.Request{
//	    Query: "user authentication logic",
//	    Limit: 10,
//	})
//
//	for _, r := range resp.Results {
//	    fmt.Printf("[%d] %s (score: %.2f)\n", r.Rank, r.Symbol.Name, r.Score)
//	}
//
// # The seven phases
//
// Search runs, in order:
//
//  1. Intent lookup: the query is normalized (two ways — see below — tried
//     in order) and looked up in the intention cache. A hit is prepended to
//     the result set as a rank-1 SearchTypeIntention result.
//  2. Pattern record: named-entity tokens (identifiers ending in Session,
//     Service, Controller, or the literal "stripe") are replaced with
//     placeholders and the resulting shape is upserted into query_patterns,
//     best-effort.
//  3. Vector candidates: every chunk embedded under the request's
//     (provider, dimensions) pair, scoped by path glob / tags / language, is
//     scored by cosine similarity plus soft metadata boosts (+0.2 if the
//     query mentions the chunk's own recorded intent, +0.1 per matching
//     scope tag), clamped to <=1.0.
//  4. Symbol boost: candidates whose declared symbol name, parameter names,
//     or first-degree calls appear literally in the query get a small score
//     bump, then the set is re-sorted.
//  5. Lexical fusion: the top candidates are reciprocal-rank-fused (k=60)
//     against a BM25 query restricted to the same candidate ID set.
//  6. Rerank: the top min(200, count) candidates are scored by the
//     configured reranker backend (off/transformers/api); a backend failure
//     is a soft failure — the prior order is kept.
//  7. Compose: the intent-cache result (if any) is placed first, then the
//     ranked candidates, deduplicated by chunk_id and capped at the
//     request's limit, each carrying the full score breakdown
//     (VectorScore, BM25Score, HybridScore, RerankerScore, SymbolBoost).
//
// A composed top result scoring above 0.8 is promoted back into the
// intention cache, so the identical query resolves via Phase 1 next time.
//
// # Query normalization
//
// normalizeQuery lowercases, strips "?"/"!", collapses whitespace, and
// folds a small English synonym table (make/generate -> create, and so on).
// normalizeQuerySpanish additionally folds a Spanish vocabulary onto the
// same canonical terms. Both are tried as intention-cache keys, in that
// order, rather than merged into a single lossy normalizer.
//
// # Scope
//
// Scope narrows a search without changing its shape: PathGlob and Tags
// filter candidates, Lang is pushed into the SQL fetch, and Hybrid /
// SymbolBoost / Reranker toggle individual phases on or off.
package searcher
