package reranker

import (
	"context"
	"fmt"
)

// LocalReranker is the ModeTransformers backend shape: load a sequence-pair
// classifier once, truncate each document to maxTokens, run (query, doc)
// pairs through the model, extract a relevance logit per pair. The type and
// constructor exist so the mode is a real, documented option rather than a
// silently-ignored one, but NewLocal always fails: no repo in the corpus
// links a local cross-encoder inference runtime, and pampax does not vendor
// one either. See DESIGN.md.
type LocalReranker struct {
	maxTokens int
}

// NewLocal always returns ErrLocalRerankerUnavailable. Callers configuring
// PAMPAX_RERANKER_DEFAULT=transformers should treat this as a startup
// configuration error, not fall back silently to ModeOff.
func NewLocal(maxTokens int) (*LocalReranker, error) {
	if maxTokens <= 0 {
		maxTokens = 512
	}
	return nil, fmt.Errorf("%w: build pampax with a local cross-encoder runtime, or set PAMPAX_RERANKER_DEFAULT=api", ErrLocalRerankerUnavailable)
}

func (l *LocalReranker) Mode() string { return ModeTransformers }

func (l *LocalReranker) Rerank(_ context.Context, _ string, candidates []Candidate) ([]Result, error) {
	return nil, ErrLocalRerankerUnavailable
}
