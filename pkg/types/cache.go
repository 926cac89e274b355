package types

import "time"

// IntentionCacheEntry is a learned mapping from a normalized natural-
// language query to a specific chunk SHA, used as a first-line exact
// shortcut by the Retrieval Engine's Phase 1.
type IntentionCacheEntry struct {
	ID               int64
	NormalizedQuery  string
	OriginalQuery    string
	TargetSha        string
	Confidence       float64
	UsageCount       int
	CreatedAt        time.Time
	LastUsed         time.Time
}

// Hit records a re-hit: increments UsageCount and bumps LastUsed. The caller
// is responsible for persisting the mutation.
func (e *IntentionCacheEntry) Hit(now time.Time) {
	e.UsageCount++
	e.LastUsed = now
}

// QueryPatternEntry tracks the frequency of a query with named entities
// stripped to placeholders, for analytics only — never used for ranking.
type QueryPatternEntry struct {
	ID        int64
	Pattern   string
	Frequency int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ContextPack is a user-authored, reusable scope preset (§6 external
// interfaces, .pampa/contextpacks/*.json).
type ContextPack struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	PathGlob    []string  `json:"path_glob,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Lang        []string  `json:"lang,omitempty"`
	Reranker    string    `json:"reranker,omitempty"`
	Hybrid      *bool     `json:"hybrid,omitempty"`
	BM25        *bool     `json:"bm25,omitempty"`
	SymbolBoost *bool     `json:"symbol_boost,omitempty"`
}
