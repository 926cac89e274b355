package types

// SearchType identifies which phase of the retrieval pipeline produced a
// result (§4.12 phase 7 "searchType").
type SearchType string

const (
	SearchTypeIntention SearchType = "intention"
	SearchTypeVector     SearchType = "vector"
	SearchTypeHybrid     SearchType = "hybrid"
	SearchTypeKeyword    SearchType = "keyword"
)

// SearchResult represents a single ranked search result with the full
// scoring breakdown callers can inspect (vector, BM25, hybrid, reranker,
// symbol-boost contributions).
type SearchResult struct {
	ChunkID string
	Rank    int // 1-based

	Score    float64 // final composed score, clamped to [0,1]
	ScoreRaw float64 // pre-clamp value, set only when Score was clamped

	VectorScore   float64
	BM25Score     *float64
	HybridScore   *float64 // set when RRF fusion ran
	RerankerScore *float64
	SymbolBoost   *float64

	SearchType SearchType

	Symbol  *Symbol
	File    *FileInfo
	Content string
	Context string
}

// FileInfo contains file metadata for a search result.
type FileInfo struct {
	Path      string
	Language  string
	StartLine int
	EndLine   int
}

// Validate checks if the search result is well-formed.
func (sr *SearchResult) Validate() error {
	if sr.ChunkID == "" {
		return ErrInvalidChunkID
	}

	if sr.Rank < 1 {
		return ErrInvalidRank
	}

	if sr.Score < 0 || sr.Score > 1 {
		return ErrInvalidRelevanceScore
	}

	if sr.File == nil {
		return ErrMissingFileInfo
	}

	if sr.Content == "" {
		return ErrEmptyContent
	}

	return nil
}
