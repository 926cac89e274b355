package searcher

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"path"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/lemon07r/pampax/internal/bm25"
	"github.com/lemon07r/pampax/internal/chunkstore"
	"github.com/lemon07r/pampax/internal/codemap"
	"github.com/lemon07r/pampax/internal/embedder"
	"github.com/lemon07r/pampax/internal/reranker"
	"github.com/lemon07r/pampax/internal/storage"
	"github.com/lemon07r/pampax/pkg/types"
)

// rrfK is the Reciprocal Rank Fusion constant used to blend the vector and
// BM25 rankings in Phase 5. k=60 is the standard choice from the original RRF
// paper.
const rrfK = 60.0

const (
	symbolBoostScale    = 0.05
	intentMatchBoost    = 0.2
	tagMatchBoost       = 0.1
	learnScoreThreshold = 0.8
	defaultLimit        = 10
	maxRerankCandidates = 200
)

// Scope narrows a search: every field is optional and defaults to
// unrestricted / on.
type Scope struct {
	PathGlob []string
	Tags     []string
	Lang     []string

	Hybrid      *bool // default true: fuse BM25 lexical results in
	BM25        *bool // alias for Hybrid, kept distinct for callers that toggle only lexical fusion
	SymbolBoost *bool // default true
	Reranker    string
}

func (s Scope) hybridEnabled() bool {
	if s.Hybrid != nil {
		return *s.Hybrid
	}
	if s.BM25 != nil {
		return *s.BM25
	}
	return true
}

func (s Scope) symbolBoostEnabled() bool {
	if s.SymbolBoost == nil {
		return true
	}
	return *s.SymbolBoost
}

// Request is one call to Search.
type Request struct {
	Query    string
	Limit    int
	Provider string
	Scope    Scope
}

// Response is the composed result set plus the diagnostics §4.12 asks
// callers be able to inspect (candidate counts, fusion mode, timing).
type Response struct {
	Results      []types.SearchResult
	Duration     time.Duration
	VectorCount  int
	BM25Count    int
	UsedHybrid   bool
	RerankerMode string
}

// Searcher implements the C12 Retrieval Engine: the seven-phase pipeline of
// §4.12 (intent lookup, pattern recording, vector candidates with metadata
// boosts, symbol boost, lexical RRF fusion, rerank, compose) plus the
// learning step that promotes a strong hit into the intention cache.
type Searcher struct {
	root      string
	store     storage.Store
	chunks    *chunkstore.Store
	codemap   *codemap.Store
	bm25Cache *bm25.Cache
	rerankCfg reranker.Config
	logger    Logger
}

// Logger is the narrow slog.Logger surface the searcher needs, so tests can
// supply a no-op implementation without pulling in log/slog's global state.
type Logger interface {
	Warn(msg string, args ...any)
}

// New constructs a Searcher rooted at root, backed by store for metadata,
// chunks for chunk bodies, cm for symbol-graph lookups, and bm25Cache for the
// per-(provider,dimensions) lexical index. rerankCfg is passed through to
// reranker.New per request, since the mode can vary per call (Scope.Reranker).
func New(root string, store storage.Store, chunks *chunkstore.Store, cm *codemap.Store, bm25Cache *bm25.Cache, rerankCfg reranker.Config, logger Logger) *Searcher {
	return &Searcher{
		root:      root,
		store:     store,
		chunks:    chunks,
		codemap:   cm,
		bm25Cache: bm25Cache,
		rerankCfg: rerankCfg,
		logger:    logger,
	}
}

// rankedResult tracks one candidate through phases 3-7, accumulating the
// score-breakdown fields §4.12 phase 7 requires attaching to the final
// result.
type rankedResult struct {
	chunkID       string
	filePath      string
	lang          string
	tags          []string
	intent        string
	vectorScore   float64
	score         float64 // vectorScore + metadata boosts, clamped
	scoreRaw      float64 // pre-clamp value; only meaningful if it was clamped
	symbolBoost   float64
	bm25Score     *float64
	hybridScore   *float64
	rerankerScore *float64
	vectorRank    int
	bm25Rank      int
}

// Search runs the full retrieval pipeline for req, embedding the query with
// emb and returning up to req.Limit results ordered best-first.
func (se *Searcher) Search(ctx context.Context, emb embedder.Embedder, req Request) (*Response, error) {
	start := time.Now()

	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("searcher: %w: empty query", types.ErrSearchFailed)
	}

	provider := req.Provider
	if provider == "" {
		provider = emb.Provider()
	}
	dimensions := emb.Dimension()

	var composed []types.SearchResult
	seen := make(map[string]bool)

	// Phase 1: intent lookup.
	if intentResult, ok := se.lookupIntention(ctx, query); ok {
		composed = append(composed, intentResult)
		seen[intentResult.ChunkID] = true
	}

	// Phase 2: pattern recording (best-effort, never blocks the search).
	se.recordPattern(ctx, query)

	// Phase 3: vector candidates.
	queryVec, err := emb.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: query})
	if err != nil {
		return nil, fmt.Errorf("searcher: %w: embed query: %v", types.ErrSearchFailed, err)
	}

	filters := scopeFilters(req.Scope)
	candidates, err := se.store.VectorCandidates(ctx, provider, dimensions, filters)
	if err != nil {
		return nil, fmt.Errorf("searcher: %w: %v", types.ErrSearchFailed, err)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("searcher: %w", types.ErrNoChunksFound)
	}

	ranked := scoreVectorCandidates(candidates, req.Scope, query, queryVec.Vector)
	if len(ranked) == 0 {
		return nil, fmt.Errorf("searcher: %w", types.ErrNoRelevantMatches)
	}
	sortRanked(ranked)

	allowed := make(map[string]bool, len(ranked))
	for i := range ranked {
		ranked[i].vectorRank = i + 1
		allowed[ranked[i].chunkID] = true
	}

	// Phase 4: symbol boost.
	if req.Scope.symbolBoostEnabled() && se.codemap != nil {
		se.applySymbolBoost(ranked, query)
		sortRanked(ranked)
		for i := range ranked {
			ranked[i].vectorRank = i + 1
		}
	}

	usedHybrid := false
	bm25Count := 0

	// Phase 5: lexical fusion.
	if req.Scope.hybridEnabled() && se.bm25Cache != nil {
		n, err := se.fuseWithBM25(ctx, provider, dimensions, query, ranked, allowed, limit)
		if err != nil {
			se.warn("bm25 fusion failed, continuing with vector-only ranking", err)
		} else {
			usedHybrid = n > 0
			bm25Count = n
			sortRanked(ranked)
		}
	}

	// Phase 6: rerank.
	rerankerMode := reranker.ResolveMode(req.Scope.Reranker)
	if rerankerMode != reranker.ModeOff {
		if err := se.rerank(ctx, rerankerMode, query, ranked); err != nil {
			se.warn("reranking failed, keeping prior order", err)
		} else {
			sortRanked(ranked)
		}
	}

	// Phase 7: compose.
	for _, r := range ranked {
		if len(composed) >= limit {
			break
		}
		if seen[r.chunkID] {
			continue
		}
		sr, ok := se.fetchResult(ctx, r)
		if !ok {
			continue
		}
		seen[r.chunkID] = true
		composed = append(composed, sr)
	}
	for i := range composed {
		composed[i].Rank = i + 1
	}

	se.learn(ctx, query, composed)

	return &Response{
		Results:      composed,
		Duration:     time.Since(start),
		VectorCount:  len(candidates),
		BM25Count:    bm25Count,
		UsedHybrid:   usedHybrid,
		RerankerMode: rerankerMode,
	}, nil
}

func scopeFilters(scope Scope) *storage.SearchFilters {
	if len(scope.Lang) == 0 && len(scope.PathGlob) == 0 && len(scope.Tags) == 0 {
		return nil
	}
	f := &storage.SearchFilters{Lang: scope.Lang}
	if len(scope.PathGlob) == 1 {
		f.PathGlob = scope.PathGlob[0]
	}
	return f
}

// scoreVectorCandidates computes Phase 3's cosine similarity plus soft
// metadata boosts (+0.2 intent substring match, +0.1 per matching tag),
// clamped to <=1.0 while preserving the pre-clamp value in scoreRaw. Multi-
// glob scope filtering and tag filtering that couldn't be pushed into SQL
// (Scope.PathGlob beyond the first entry, Scope.Tags) are applied here since
// VectorCandidate now carries the metadata needed to do it without a
// round-trip.
func scoreVectorCandidates(candidates []storage.VectorCandidate, scope Scope, query string, queryVec []float32) []rankedResult {
	lowerQuery := strings.ToLower(query)
	out := make([]rankedResult, 0, len(candidates))
	for _, c := range candidates {
		if !matchesAnyGlob(c.FilePath, scope.PathGlob) {
			continue
		}
		if len(scope.Tags) > 0 && !hasAnyTag(c.PampaTags, scope.Tags) {
			continue
		}

		vectorScore := storage.CosineSimilarity(queryVec, c.Embedding)
		boost := metadataBoost(c, scope, lowerQuery)
		raw := vectorScore + boost
		score := raw
		var scoreRaw float64
		if score > 1.0 {
			scoreRaw = score
			score = 1.0
		}
		if score < 0 {
			score = 0
		}

		out = append(out, rankedResult{
			chunkID:     c.ChunkID,
			filePath:    c.FilePath,
			lang:        c.Lang,
			tags:        c.PampaTags,
			intent:      c.PampaIntent,
			vectorScore: vectorScore,
			score:       score,
			scoreRaw:    scoreRaw,
		})
	}
	return out
}

// metadataBoost implements Phase 3's soft metadata boosts: +0.2 when the
// query text mentions the chunk's own recorded intent, +0.1 per requested
// scope tag the chunk actually carries.
func metadataBoost(c storage.VectorCandidate, scope Scope, lowerQuery string) float64 {
	var boost float64
	if c.PampaIntent != "" && strings.Contains(lowerQuery, strings.ToLower(c.PampaIntent)) {
		boost += intentMatchBoost
	}
	for _, t := range scope.Tags {
		if hasTag(c.PampaTags, t) {
			boost += tagMatchBoost
		}
	}
	return boost
}

func matchesAnyGlob(filePath string, globs []string) bool {
	if len(globs) == 0 {
		return true
	}
	for _, g := range globs {
		if ok, err := path.Match(g, filePath); err == nil && ok {
			return true
		}
	}
	return false
}

func hasAnyTag(tags, want []string) bool {
	for _, w := range want {
		if hasTag(tags, w) {
			return true
		}
	}
	return false
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, want) {
			return true
		}
	}
	return false
}

// sortRanked re-sorts by rankKey descending, then symbolBoost, then BM25
// rank. rankKey prefers the latest pipeline stage's fused value
// (rerankerScore, then hybridScore, then the phase-3/4 score) so each later
// phase's ordering supersedes the one before it, per §4.12's "fusion
// replaces the ordering" rule — score itself is never touched here, only
// read.
func sortRanked(ranked []rankedResult) {
	sort.SliceStable(ranked, func(i, j int) bool {
		ki, kj := rankKey(ranked[i]), rankKey(ranked[j])
		if ki != kj {
			return ki > kj
		}
		if ranked[i].symbolBoost != ranked[j].symbolBoost {
			return ranked[i].symbolBoost > ranked[j].symbolBoost
		}
		// RRF can tie two candidates that share a vector rank but differ
		// in lexical rank (1/61+1/62 either way around nets the same
		// sum); break in favor of the better BM25 rank instead of
		// leaving the outcome to whichever order the vector phase
		// happened to emit them in.
		return bm25RankOrLast(ranked[i]) < bm25RankOrLast(ranked[j])
	})
}

// rankKey returns the value a candidate is currently ordered by: the most
// recent stage that produced a fused/rescored value wins.
func rankKey(r rankedResult) float64 {
	if r.rerankerScore != nil {
		return *r.rerankerScore
	}
	if r.hybridScore != nil {
		return *r.hybridScore
	}
	return r.score
}

// bm25RankOrLast returns a candidate's BM25 rank, or math.MaxInt for one
// with no lexical hit, so lexical-less candidates sort after lexical ones
// on a tie.
func bm25RankOrLast(r rankedResult) int {
	if r.bm25Rank <= 0 {
		return math.MaxInt
	}
	return r.bm25Rank
}

// applySymbolBoost scales each candidate's score by how many of its declared
// symbol names (signature identifier, parameter names, first-degree calls)
// appear literally in query, per §4.12 phase 4.
func (se *Searcher) applySymbolBoost(ranked []rankedResult, query string) {
	lowerQuery := strings.ToLower(query)
	for i := range ranked {
		entry, ok := se.codemap.Get(ranked[i].chunkID)
		if !ok {
			continue
		}
		matches := 0
		if entry.Symbol != "" && strings.Contains(lowerQuery, strings.ToLower(entry.Symbol)) {
			matches++
		}
		for _, p := range entry.Parameters {
			if p.Name != "" && strings.Contains(lowerQuery, strings.ToLower(p.Name)) {
				matches++
			}
		}
		for _, call := range entry.Calls {
			if call != "" && strings.Contains(lowerQuery, strings.ToLower(call)) {
				matches++
			}
		}
		if matches == 0 {
			continue
		}
		boost := float64(matches) * symbolBoostScale
		ranked[i].symbolBoost = boost
		ranked[i].score = clamp01(ranked[i].score + boost)
	}
}

// fuseWithBM25 builds (or reuses) the cached BM25 index for (provider,
// dimensions), queries it restricted to allowed, and blends the two rankings
// with Reciprocal Rank Fusion. It returns the number of BM25 hits considered.
func (se *Searcher) fuseWithBM25(ctx context.Context, provider string, dimensions int, query string, ranked []rankedResult, allowed map[string]bool, limit int) (int, error) {
	idx, err := se.bm25Cache.Get(se.root, provider, dimensions, func() ([]bm25.Document, error) {
		return se.buildBM25Corpus(ctx)
	})
	if err != nil {
		return 0, err
	}

	topN := limit
	if topN < 60 {
		topN = 60
	}
	lexResults := idx.Query(query, topN, allowed)
	if len(lexResults) == 0 {
		return 0, nil
	}

	bm25Rank := make(map[string]int, len(lexResults))
	bm25Score := make(map[string]float64, len(lexResults))
	for i, r := range lexResults {
		bm25Rank[r.ID] = i + 1
		bm25Score[r.ID] = r.Score
	}

	for i := range ranked {
		vr := ranked[i].vectorRank
		lr, hasLex := bm25Rank[ranked[i].chunkID]
		var rrf float64
		rrf += 1.0 / (rrfK + float64(vr))
		if hasLex {
			rrf += 1.0 / (rrfK + float64(lr))
			score := bm25Score[ranked[i].chunkID]
			ranked[i].bm25Score = &score
			ranked[i].bm25Rank = lr
		}
		// hybridScore drives ordering only; score stays the phase-3/4
		// cosine-based value so callers (and learn's confidence threshold)
		// keep reading a real similarity number instead of a tiny RRF one.
		ranked[i].hybridScore = &rrf
	}

	return len(lexResults), nil
}

// buildBM25Corpus assembles the lexical index's document set from every
// chunk's textual metadata plus its decompressed body, matching what the
// teacher's keyword search tokenizes. LexicalCandidates deliberately isn't
// scoped by provider/dimensions (§9): the fusion step above restricts hits to
// the caller's provider-scoped candidate set via the allowed map instead, so
// one process-wide corpus can serve every provider without rebuilding it.
func (se *Searcher) buildBM25Corpus(ctx context.Context) ([]bm25.Document, error) {
	candidates, err := se.store.LexicalCandidates(ctx, nil)
	if err != nil {
		return nil, err
	}
	docs := make([]bm25.Document, 0, len(candidates))
	for _, c := range candidates {
		var body string
		if row, err := se.store.GetChunk(ctx, c.ChunkID); err == nil {
			if b, err := se.chunks.Read(row.SHA); err == nil {
				body = string(b)
			}
		}
		text := strings.Join([]string{c.Symbol, c.FilePath, c.Description, c.Intent, c.DocComments, body}, "\n")
		docs = append(docs, bm25.Document{ID: c.ChunkID, Text: text})
	}
	return docs, nil
}

// rerank scores the top min(200, count) candidates through the requested
// reranker backend, soft-failing (returning an error the caller logs and
// ignores) so a transient API failure never breaks a search.
func (se *Searcher) rerank(ctx context.Context, mode string, query string, ranked []rankedResult) error {
	r, err := reranker.New(mode, se.rerankCfg)
	if err != nil {
		return err
	}
	if closer, ok := r.(interface{ Close() error }); ok {
		defer func() { _ = closer.Close() }()
	}

	n := len(ranked)
	if n > maxRerankCandidates {
		n = maxRerankCandidates
	}
	subset := ranked[:n]

	rerankCandidates := make([]reranker.Candidate, 0, n)
	for _, cand := range subset {
		text := se.chunkTextForRerank(ctx, cand)
		rerankCandidates = append(rerankCandidates, reranker.Candidate{ID: cand.chunkID, Text: text})
	}

	results, err := r.Rerank(ctx, query, rerankCandidates)
	if err != nil {
		return err
	}

	scoreByID := make(map[string]float64, len(results))
	for _, res := range results {
		scoreByID[res.ID] = res.Score
	}
	for i := range subset {
		if score, ok := scoreByID[subset[i].chunkID]; ok {
			s := score
			subset[i].rerankerScore = &s
		}
	}
	return nil
}

func (se *Searcher) chunkTextForRerank(ctx context.Context, r rankedResult) string {
	row, err := se.store.GetChunk(ctx, r.chunkID)
	if err != nil {
		return r.intent
	}
	if body, err := se.chunks.Read(row.SHA); err == nil {
		return withDocComment(row.DocComments, string(body))
	}
	return strings.Join([]string{row.Symbol, row.PampaDescription, row.PampaIntent}, "\n")
}

// fetchResult builds the final types.SearchResult for a ranked candidate,
// attaching the full score breakdown §4.12 phase 7 requires.
func (se *Searcher) fetchResult(ctx context.Context, r rankedResult) (types.SearchResult, bool) {
	row, err := se.store.GetChunk(ctx, r.chunkID)
	if err != nil {
		return types.SearchResult{}, false
	}
	body, err := se.chunks.Read(row.SHA)
	content := ""
	if err == nil {
		content = withDocComment(row.DocComments, string(body))
	} else if row.PampaDescription != "" {
		content = row.PampaDescription
	}
	if content == "" {
		return types.SearchResult{}, false
	}

	var ctxInfo types.ChunkContext
	_ = json.Unmarshal([]byte(row.ContextInfoJSON), &ctxInfo)

	symbol := symbolFromEntry(se.codemap, row)

	searchType := types.SearchTypeVector
	if r.hybridScore != nil {
		searchType = types.SearchTypeHybrid
	}

	var symbolBoostPtr *float64
	if r.symbolBoost > 0 {
		b := r.symbolBoost
		symbolBoostPtr = &b
	}

	return types.SearchResult{
		ChunkID:       row.ID,
		Score:         clamp01(r.score),
		ScoreRaw:      r.scoreRaw,
		VectorScore:   r.vectorScore,
		BM25Score:     r.bm25Score,
		HybridScore:   r.hybridScore,
		RerankerScore: r.rerankerScore,
		SymbolBoost:   symbolBoostPtr,
		SearchType:    searchType,
		Symbol:        symbol,
		File: &types.FileInfo{
			Path:      row.FilePath,
			Language:  row.Lang,
			StartLine: ctxInfo.StartLine,
			EndLine:   ctxInfo.EndLine,
		},
		Content: content,
	}, true
}

func symbolFromEntry(cm *codemap.Store, row *storage.ChunkRow) *types.Symbol {
	sym := &types.Symbol{
		Name:       row.Symbol,
		Language:   row.Lang,
		DocComment: row.DocComments,
	}
	if cm != nil {
		if entry, ok := cm.Get(row.ID); ok {
			sym.Signature = entry.Signature
			sym.Parameters = entry.Parameters
			sym.ReturnType = entry.ReturnType
			sym.Calls = entry.Calls
		}
	}
	sym.Kind = symbolKindFromChunkType(row.ChunkType)
	return sym
}

func symbolKindFromChunkType(chunkType string) types.SymbolKind {
	switch {
	case strings.HasPrefix(chunkType, "method"):
		return types.KindMethod
	case strings.HasPrefix(chunkType, "class"):
		return types.KindClass
	case strings.HasPrefix(chunkType, "function"):
		return types.KindFunction
	default:
		return types.KindType
	}
}

// withDocComment prepends a chunk's doc comment to its body for display.
// The chunk store body is always just Code (it's what the content-addressed
// sha hashes); the doc comment lives in the DB row instead.
func withDocComment(docComment, body string) string {
	if docComment == "" {
		return body
	}
	return docComment + "\n" + body
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// lookupIntention implements Phase 1: normalize query both ways (plain and
// Spanish-folded), try each as a lookup key, and on a hit resolve the
// cached target_sha back to a full chunk row.
func (se *Searcher) lookupIntention(ctx context.Context, query string) (types.SearchResult, bool) {
	for _, normalized := range []string{normalizeQuery(query), normalizeQuerySpanish(query)} {
		if normalized == "" {
			continue
		}
		row, err := se.store.FindIntention(ctx, normalized)
		if err != nil || row == nil {
			continue
		}
		result, ok := se.buildIntentionResult(ctx, row)
		if !ok {
			continue
		}
		_ = se.store.TouchIntention(ctx, row.ID, time.Now())
		return result, true
	}
	return types.SearchResult{}, false
}

func (se *Searcher) buildIntentionResult(ctx context.Context, row *storage.IntentionRow) (types.SearchResult, bool) {
	chunkRow, err := se.store.GetChunkBySha(ctx, row.TargetSha)
	if err != nil {
		return types.SearchResult{}, false
	}
	body, err := se.chunks.Read(chunkRow.SHA)
	content := ""
	if err == nil {
		content = withDocComment(chunkRow.DocComments, string(body))
	}
	if content == "" {
		return types.SearchResult{}, false
	}

	var ctxInfo types.ChunkContext
	_ = json.Unmarshal([]byte(chunkRow.ContextInfoJSON), &ctxInfo)

	return types.SearchResult{
		ChunkID:    chunkRow.ID,
		Rank:       1,
		Score:      clamp01(row.Confidence),
		SearchType: types.SearchTypeIntention,
		Symbol:     symbolFromEntry(se.codemap, chunkRow),
		File: &types.FileInfo{
			Path:      chunkRow.FilePath,
			Language:  chunkRow.Lang,
			StartLine: ctxInfo.StartLine,
			EndLine:   ctxInfo.EndLine,
		},
		Content: content,
	}, true
}

// patternPlaceholderRe matches identifier-shaped tokens ending in a small
// set of well-known suffixes (…Session, …Service, …Controller) plus the
// literal "stripe", the named-entity families §4.12 phase 2 asks to be
// folded into placeholders before a query pattern is recorded.
var patternPlaceholderRe = regexp.MustCompile(`(?i)\b\w*(?:Session|Service|Controller)\b|(?i)\bstripe\b`)

// recordPattern implements Phase 2: replace named-entity tokens with
// placeholders and upsert the resulting shape into query_patterns. Failures
// are logged, never surfaced — pattern mining is a background signal, not
// part of the search contract.
func (se *Searcher) recordPattern(ctx context.Context, query string) {
	pattern := patternPlaceholderRe.ReplaceAllStringFunc(query, func(m string) string {
		if strings.EqualFold(m, "stripe") {
			return "{provider}"
		}
		return "{entity}"
	})
	if err := se.store.RecordQueryPattern(ctx, pattern); err != nil {
		se.warn("failed to record query pattern", err)
	}
}

// learn promotes a strong result into the intention cache: a composed top
// result scoring above 0.8 lets the identical query short-circuit straight
// to Phase 1 next time.
func (se *Searcher) learn(ctx context.Context, query string, results []types.SearchResult) {
	if len(results) == 0 {
		return
	}
	top := results[0]
	if top.Score <= learnScoreThreshold {
		return
	}
	row, err := se.store.GetChunk(ctx, top.ChunkID)
	if err != nil {
		return
	}
	entry := &storage.IntentionRow{
		QueryNormalized: normalizeQuery(query),
		OriginalQuery:   query,
		TargetSha:       row.SHA,
		Confidence:      top.Score,
	}
	if err := se.store.UpsertIntention(ctx, entry); err != nil {
		se.warn("failed to record intention cache entry", err)
	}
}

func (se *Searcher) warn(msg string, err error) {
	if se.logger == nil {
		return
	}
	se.logger.Warn(msg, "error", err)
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// querySynonyms folds common phrasing variants to a canonical form before an
// intention-cache lookup, so "how do we make a session" and "how do we
// create a session" hit the same cache row.
var querySynonyms = map[string]string{
	"make":     "create",
	"generate": "create",
	"remove":   "delete",
	"destroy":  "delete",
	"fetch":    "get",
	"retrieve": "get",
	"lookup":   "get",
}

// spanishSynonyms additionally folds a small Spanish vocabulary onto the
// same canonical English terms, per the Open Question decision to keep both
// normalizers rather than merge them into one lossy pass.
var spanishSynonyms = map[string]string{
	"crear":     "create",
	"generar":   "create",
	"eliminar":  "delete",
	"borrar":    "delete",
	"obtener":   "get",
	"buscar":    "get",
	"sesion":    "session",
	"sesión":    "session",
	"usuario":   "user",
	"contraseña": "password",
}

// normalizeQuery lowercases, strips punctuation noise, collapses whitespace,
// and folds common English synonyms.
func normalizeQuery(query string) string {
	q := strings.ToLower(query)
	q = strings.ReplaceAll(q, "?", "")
	q = strings.ReplaceAll(q, "!", "")
	q = applySynonyms(q, querySynonyms)
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(q, " "))
}

// normalizeQuerySpanish applies normalizeQuery, then additionally folds the
// Spanish synonym table onto the result.
func normalizeQuerySpanish(query string) string {
	q := normalizeQuery(query)
	q = applySynonyms(q, spanishSynonyms)
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(q, " "))
}

func applySynonyms(q string, table map[string]string) string {
	words := strings.Fields(q)
	for i, w := range words {
		if repl, ok := table[w]; ok {
			words[i] = repl
		}
	}
	return strings.Join(words, " ")
}
