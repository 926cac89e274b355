package embedder

import (
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
)

// truncator enforces a provider's maxChunkChars ceiling before every network
// or compute call (§4.8's safety net), warning exactly once per truncated
// hash rather than once per call.
type truncator struct {
	maxChars int
	warned   *lru.Cache[string, struct{}]
	log      *slog.Logger
}

func newTruncator(maxChars int, log *slog.Logger) *truncator {
	if log == nil {
		log = slog.Default()
	}
	warned, _ := lru.New[string, struct{}](2048)
	return &truncator{maxChars: maxChars, warned: warned, log: log}
}

// apply truncates text to maxChars, logging a warning the first time hash is
// seen truncated. hash identifies the untruncated content, typically
// ComputeHash(text).
func (t *truncator) apply(hash, text string) string {
	if t.maxChars <= 0 || len(text) <= t.maxChars {
		return text
	}
	if _, seen := t.warned.Get(hash); !seen {
		t.warned.Add(hash, struct{}{})
		t.log.Warn("truncating chunk before embedding call",
			"hash", hash, "originalChars", len(text), "maxChars", t.maxChars)
	}
	return text[:t.maxChars]
}
