package reranker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lemon07r/pampax/internal/ratelimit"
	"github.com/lemon07r/pampax/pkg/types"
)

const defaultMaxCandidates = 200

// APIReranker is the ModeAPI backend: a remote reranking endpoint speaking
// the Cohere-shaped { model, query, documents, top_n } request contract,
// reached over HTTP the way internal/embedder's provider clients reach
// their embedding endpoints (bearer auth, JSON body, explicit status
// check). Calls are routed through a ratelimit.Limiter so a burst of
// searches shares the same dispatch-rate and retry-ladder discipline as
// every other outbound API call in pampax.
type APIReranker struct {
	url           string
	apiKey        string
	model         string
	maxCandidates int
	httpClient    *http.Client
	limiter       *ratelimit.Limiter
}

// NewAPI constructs the remote backend from cfg. APIURL is required;
// APIKey may be empty for endpoints that don't require auth.
func NewAPI(cfg Config) (*APIReranker, error) {
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("reranker: %w: PAMPAX_RERANK_API_URL not set", types.ErrProviderNotConfigured)
	}
	maxCandidates := cfg.MaxCandidates
	if maxCandidates <= 0 {
		maxCandidates = defaultMaxCandidates
	}
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = ratelimit.New(0)
	}
	return &APIReranker{
		url:           cfg.APIURL,
		apiKey:        cfg.APIKey,
		model:         cfg.Model,
		maxCandidates: maxCandidates,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		limiter:       limiter,
	}, nil
}

func (a *APIReranker) Mode() string { return ModeAPI }

// Rerank truncates candidates to maxCandidates, posts them to the
// configured endpoint, and maps the response back onto Candidate.ID by
// index. A malformed or failing response is returned as an error so the
// caller can fall back to keeping the prior candidate order.
func (a *APIReranker) Rerank(ctx context.Context, query string, candidates []Candidate) ([]Result, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	if a.maxCandidates > 0 && len(candidates) > a.maxCandidates {
		candidates = candidates[:a.maxCandidates]
	}

	docs := make([]string, len(candidates))
	for i, c := range candidates {
		docs[i] = c.Text
	}

	reqBody := map[string]any{
		"query":     query,
		"documents": docs,
		"top_n":     len(docs),
	}
	if a.model != "" {
		reqBody["model"] = a.model
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("reranker: marshal request: %w", err)
	}

	scores, err := ratelimit.Execute(ctx, a.limiter, ratelimit.DefaultClassify, func(ctx context.Context) ([]scoredIndex, error) {
		return a.callAPI(ctx, body)
	})
	if err != nil {
		return nil, fmt.Errorf("reranker: api call: %w", err)
	}

	results := make([]Result, 0, len(scores))
	for _, s := range scores {
		if s.Index < 0 || s.Index >= len(candidates) {
			continue
		}
		results = append(results, Result{ID: candidates[s.Index].ID, Score: s.Score})
	}
	return sortAndRank(results), nil
}

func (a *APIReranker) callAPI(ctx context.Context, body []byte) ([]scoredIndex, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("api error %d: %s", resp.StatusCode, string(respBody))
	}

	return parseRerankResponse(respBody)
}

// Close releases the backend's idle HTTP connections.
func (a *APIReranker) Close() error {
	a.httpClient.CloseIdleConnections()
	return nil
}

type scoredIndex struct {
	Index int
	Score float64
}

// parseRerankResponse accepts the three response shapes documented in
// §4.13: a Cohere-style {results:[{index,relevance_score}]} envelope, a
// {data:[...]} envelope using the same or an OpenAI-style {score} field, or
// a bare top-level array of the same item shape.
func parseRerankResponse(body []byte) ([]scoredIndex, error) {
	type item struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
		Score          float64 `json:"score"`
	}
	scoreOf := func(it item) float64 {
		if it.RelevanceScore != 0 {
			return it.RelevanceScore
		}
		return it.Score
	}
	toScored := func(items []item) []scoredIndex {
		out := make([]scoredIndex, len(items))
		for i, it := range items {
			out[i] = scoredIndex{Index: it.Index, Score: scoreOf(it)}
		}
		return out
	}

	var envelope struct {
		Results []item `json:"results"`
		Data    []item `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if len(envelope.Results) > 0 {
			return toScored(envelope.Results), nil
		}
		if len(envelope.Data) > 0 {
			return toScored(envelope.Data), nil
		}
	}

	var bare []item
	if err := json.Unmarshal(body, &bare); err == nil && len(bare) > 0 {
		return toScored(bare), nil
	}

	return nil, fmt.Errorf("reranker: unrecognized response shape")
}
