package reranker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_OffModeReturnsNoop(t *testing.T) {
	r, err := New(ModeOff, Config{})
	require.NoError(t, err)
	assert.Equal(t, ModeOff, r.Mode())
}

func TestNew_UnknownModeErrors(t *testing.T) {
	_, err := New("bogus", Config{})
	assert.Error(t, err)
}

func TestNew_TransformersModePropagatesUnavailable(t *testing.T) {
	_, err := New(ModeTransformers, Config{})
	assert.ErrorIs(t, err, ErrLocalRerankerUnavailable)
}

func TestNew_APIModeRequiresURL(t *testing.T) {
	_, err := New(ModeAPI, Config{})
	assert.Error(t, err)
}

func TestNoopReranker_PreservesOrderAndAssignsRank(t *testing.T) {
	r := NoopReranker{}
	candidates := []Candidate{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	results, err := r.Rerank(context.Background(), "query", candidates)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, 1, results[0].Rank)
	assert.Equal(t, "c", results[2].ID)
	assert.Equal(t, 3, results[2].Rank)
}

func TestResolveMode_ExplicitWinsOverForce(t *testing.T) {
	old := ForceRerankMode
	defer func() { ForceRerankMode = old }()

	ForceRerankMode = ModeAPI
	assert.Equal(t, ModeTransformers, ResolveMode(ModeTransformers))
}

func TestResolveMode_FallsBackToForceThenOff(t *testing.T) {
	old := ForceRerankMode
	defer func() { ForceRerankMode = old }()

	ForceRerankMode = ModeAPI
	assert.Equal(t, ModeAPI, ResolveMode(""))

	ForceRerankMode = ""
	assert.Equal(t, ModeOff, ResolveMode(""))
}

func TestAPIReranker_ParsesResultsShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "Bearer secret", req.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		assert.Equal(t, "search text", body["query"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"index":1,"relevance_score":0.9},{"index":0,"relevance_score":0.2}]}`))
	}))
	defer srv.Close()

	r, err := New(ModeAPI, Config{APIURL: srv.URL, APIKey: "secret", Model: "rerank-v1"})
	require.NoError(t, err)

	candidates := []Candidate{{ID: "low", Text: "irrelevant"}, {ID: "high", Text: "search text"}}
	results, err := r.Rerank(context.Background(), "search text", candidates)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "high", results[0].ID)
	assert.Equal(t, 1, results[0].Rank)
	assert.Equal(t, "low", results[1].ID)
	assert.Equal(t, 2, results[1].Rank)
}

func TestAPIReranker_ParsesDataShapeWithScoreField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"index":0,"score":0.1},{"index":1,"score":0.8}]}`))
	}))
	defer srv.Close()

	r, err := New(ModeAPI, Config{APIURL: srv.URL})
	require.NoError(t, err)

	candidates := []Candidate{{ID: "a"}, {ID: "b"}}
	results, err := r.Rerank(context.Background(), "q", candidates)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "b", results[0].ID)
}

func TestAPIReranker_ParsesBareArrayShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(`[{"index":1,"relevance_score":0.99},{"index":0,"relevance_score":0.01}]`))
	}))
	defer srv.Close()

	r, err := New(ModeAPI, Config{APIURL: srv.URL})
	require.NoError(t, err)

	candidates := []Candidate{{ID: "a"}, {ID: "b"}}
	results, err := r.Rerank(context.Background(), "q", candidates)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "b", results[0].ID)
}

func TestAPIReranker_NonOKStatusReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	r, err := New(ModeAPI, Config{APIURL: srv.URL})
	require.NoError(t, err)

	_, err = r.Rerank(context.Background(), "q", []Candidate{{ID: "a"}})
	assert.Error(t, err)
}

func TestAPIReranker_UnrecognizedShapeReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(`{"unexpected":true}`))
	}))
	defer srv.Close()

	r, err := New(ModeAPI, Config{APIURL: srv.URL})
	require.NoError(t, err)

	_, err = r.Rerank(context.Background(), "q", []Candidate{{ID: "a"}})
	assert.Error(t, err)
}

func TestAPIReranker_EmptyCandidatesShortCircuits(t *testing.T) {
	r, err := New(ModeAPI, Config{APIURL: "http://unused.invalid"})
	require.NoError(t, err)

	results, err := r.Rerank(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestAPIReranker_TruncatesToMaxCandidates(t *testing.T) {
	var gotDocs []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Documents []string `json:"documents"`
		}
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		gotDocs = body.Documents
		_, _ = w.Write([]byte(`{"results":[{"index":0,"relevance_score":0.5}]}`))
	}))
	defer srv.Close()

	r, err := New(ModeAPI, Config{APIURL: srv.URL, MaxCandidates: 1})
	require.NoError(t, err)

	candidates := []Candidate{{ID: "a", Text: "one"}, {ID: "b", Text: "two"}}
	_, err = r.Rerank(context.Background(), "q", candidates)
	require.NoError(t, err)
	assert.Len(t, gotDocs, 1)
}
