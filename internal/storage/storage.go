package storage

import (
	"context"
	"time"
)

// Store defines the C3 Metadata DB contract: three tables (code_chunks,
// intention_cache, query_patterns) behind a single embedded relational
// store, generalized from a project/file/symbol/embedding schema to a
// chunk-centric model.
type Store interface {
	// Chunk operations
	UpsertChunk(ctx context.Context, chunk *ChunkRow) error
	GetChunk(ctx context.Context, chunkID string) (*ChunkRow, error)
	GetChunkBySha(ctx context.Context, sha string) (*ChunkRow, error)
	DeleteChunk(ctx context.Context, chunkID string) error
	DeleteChunksByFile(ctx context.Context, filePath string) error
	DeleteChunksNotIn(ctx context.Context, filePath string, keepIDs []string) (deleted int, err error)
	ListChunksByFile(ctx context.Context, filePath string) ([]*ChunkRow, error)
	ListAllFilePaths(ctx context.Context) ([]string, error)
	CountChunks(ctx context.Context) (int, error)

	// Search operations: candidate fetch is unfiltered beyond the mandatory
	// (provider, dimensions) pair; ranking and RRF fusion live in the
	// searcher (C12), not the store.
	VectorCandidates(ctx context.Context, provider string, dimensions int, filters *SearchFilters) ([]VectorCandidate, error)
	LexicalCandidates(ctx context.Context, filters *SearchFilters) ([]LexicalCandidate, error)
	DistinctProviderDims(ctx context.Context) ([]ProviderDims, error)

	// Intention cache operations
	UpsertIntention(ctx context.Context, entry *IntentionRow) error
	FindIntention(ctx context.Context, normalizedQuery string) (*IntentionRow, error)
	TouchIntention(ctx context.Context, id int64, now time.Time) error

	// Query pattern operations
	RecordQueryPattern(ctx context.Context, pattern string) error
	TopQueryPatterns(ctx context.Context, limit int) ([]QueryPatternRow, error)

	// Status/lifecycle
	Stats(ctx context.Context) (Stats, error)
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx is a Store bound to an in-flight transaction.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// ChunkRow is the code_chunks table's row shape.
type ChunkRow struct {
	ID                   string // chunk_id: "<file_path>:<symbol>:<sha[0..8]>"
	FilePath             string
	Symbol               string
	SHA                  string // hex SHA-1 of the chunk body
	Lang                 string
	ChunkType            string
	Embedding            []float32
	EmbeddingProvider    string
	EmbeddingDimensions  int
	PampaTags            []string
	PampaIntent          string
	PampaDescription     string
	DocComments          string
	VariablesUsedJSON    string // opaque JSON, round-tripped as-is
	ContextInfoJSON      string
	CreatedAt, UpdatedAt time.Time
}

// SearchFilters narrows a candidate fetch. All fields are optional.
type SearchFilters struct {
	Provider   string
	Dimensions int
	Lang       []string
	ChunkType  []string
	PathGlob   string
	Tags       []string
	MinScore   float64
}

// VectorCandidate is a raw row fetched for vector similarity scoring; the
// searcher computes cosine similarity in-process (§4.3, §4.12).
type VectorCandidate struct {
	ChunkID     string
	Embedding   []float32
	FilePath    string
	Lang        string
	PampaTags   []string
	PampaIntent string
}

// LexicalCandidate is a raw row fed to the in-memory BM25 index (C11).
type LexicalCandidate struct {
	ChunkID     string
	FilePath    string
	Symbol      string
	Description string
	Intent      string
	DocComments string
}

// ProviderDims is a distinct (provider, dimensions) pair present in the
// store, used by the Indexer's mismatch warning (§4.3).
type ProviderDims struct {
	Provider   string
	Dimensions int
}

// IntentionRow is the intention_cache table's row shape.
type IntentionRow struct {
	ID               int64
	QueryNormalized  string
	OriginalQuery    string
	TargetSha        string
	Confidence       float64
	UsageCount       int
	CreatedAt        time.Time
	LastUsed         time.Time
}

// QueryPatternRow is the query_patterns table's row shape.
type QueryPatternRow struct {
	ID        int64
	Pattern   string
	Frequency int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Stats summarizes the store's current contents for the CLI's stats
// command and the Indexer's post-run report.
type Stats struct {
	TotalChunks       int
	DistinctFiles     int
	DistinctProviders int
	DatabaseSizeMB    float64
}
