package reranker

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/lemon07r/pampax/internal/ratelimit"
)

// Reranker modes, matching PAMPAX_RERANKER_DEFAULT.
const (
	ModeOff          = "off"
	ModeTransformers = "transformers"
	ModeAPI          = "api"
)

// ErrLocalRerankerUnavailable is returned by NewLocal: no local
// cross-encoder inference runtime is linked into this binary.
var ErrLocalRerankerUnavailable = errors.New("reranker: local cross-encoder backend not available in this build")

// Candidate is one item eligible for reranking: an opaque ID (the chunk_id
// the caller maps back to) plus the text to score against the query.
type Candidate struct {
	ID   string
	Text string
}

// Result is one reranked candidate. Rank is 1-based and assigned after a
// stable descending sort by Score, per §4.13's rerankerRank contract.
type Result struct {
	ID    string
	Score float64
	Rank  int
}

// Reranker scores a query against a candidate slice and returns them
// reordered best-first. Implementations must fail closed: on error the
// caller keeps the prior order (a soft failure), per §4.12 Phase 6.
type Reranker interface {
	Mode() string
	Rerank(ctx context.Context, query string, candidates []Candidate) ([]Result, error)
}

// Config holds the settings needed to construct any backend. Only the
// fields relevant to the selected Mode are read.
type Config struct {
	APIURL        string
	APIKey        string
	Model         string
	MaxCandidates int // PAMPAX_RERANKER_MAX, default 200
	MaxTokens     int // PAMPAX_RERANKER_MAX_TOKENS, default 512
	Limiter       *ratelimit.Limiter
}

// New selects a backend by mode. An empty mode is treated as ModeOff.
func New(mode string, cfg Config) (Reranker, error) {
	switch mode {
	case "", ModeOff:
		return NoopReranker{}, nil
	case ModeTransformers:
		return NewLocal(cfg.MaxTokens)
	case ModeAPI:
		return NewAPI(cfg)
	default:
		return nil, fmt.Errorf("reranker: unknown mode %q", mode)
	}
}

// NoopReranker is the ModeOff backend: it preserves input order and assigns
// ranks without scoring anything. The Retrieval Engine normally skips Phase
// 6 entirely when reranking is off; NoopReranker exists so callers that
// always invoke Rerank get well-defined, order-preserving behavior.
type NoopReranker struct{}

func (NoopReranker) Mode() string { return ModeOff }

func (NoopReranker) Rerank(_ context.Context, _ string, candidates []Candidate) ([]Result, error) {
	results := make([]Result, len(candidates))
	for i, c := range candidates {
		results[i] = Result{ID: c.ID, Score: 0, Rank: i + 1}
	}
	return results, nil
}

// sortAndRank applies the stable descending-score sort and 1-based rank
// assignment shared by every scoring backend.
func sortAndRank(results []Result) []Result {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	for i := range results {
		results[i].Rank = i + 1
	}
	return results
}

// ResolveMode applies the precedence rule: an explicit per-call mode
// always wins over the package-level default, which itself only applies
// when no per-call mode was given. See DESIGN.md's Open Question decision
// on reranker mode precedence.
func ResolveMode(perCall string) string {
	if perCall != "" {
		return perCall
	}
	if ForceRerankMode != "" {
		return ForceRerankMode
	}
	return ModeOff
}

// ForceRerankMode is a test-only override that ResolveMode consults when no
// per-call mode is given. Only tests assign it; no code in this module reads
// PAMPAX_MOCK_RERANKER_TESTS or sets it from the environment.
var ForceRerankMode string
