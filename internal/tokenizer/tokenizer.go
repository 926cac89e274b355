package tokenizer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	tiktoken "github.com/pkoukk/tiktoken-go"
)

// Decision classifies a code snippet's size relative to a set of Limits.
type Decision string

const (
	TooSmall         Decision = "too_small"
	Optimal          Decision = "optimal"
	NeedsSubdivision Decision = "needs_subdivision"
	TooLarge         Decision = "too_large"
)

// Method records which strategy produced a Result.
type Method string

const (
	MethodCharEstimate Method = "char_estimate"
	MethodTokenized    Method = "tokenized"
)

// Limits are the size boundaries a caller classifies a snippet against.
// Min/Optimal/Max are token counts.
type Limits struct {
	Min     int
	Optimal int
	Max     int
}

// relaxed widens Limits by the pre-filter's 0.8x/1.2x tolerance band (§4.5
// step 1), used only for the constant-time character pre-filter.
func (l Limits) relaxed() Limits {
	return Limits{
		Min:     int(math.Round(float64(l.Min) * 0.8)),
		Optimal: int(math.Round(float64(l.Optimal) * 0.8)),
		Max:     int(math.Round(float64(l.Max) * 1.2)),
	}
}

func classify(size int, l Limits) Decision {
	switch {
	case size < l.Min:
		return TooSmall
	case size > l.Max:
		return TooLarge
	case size > l.Optimal:
		return NeedsSubdivision
	default:
		return Optimal
	}
}

// Result is C5's classification output.
type Result struct {
	Size     int
	Decision Decision
	Method   Method
}

// Counter counts tokens in a string using a real tokenizer. Callers whose
// tokenizer becomes unavailable at runtime should downgrade to nil and rely
// on the char-estimate path (ErrTokenizerUnavailable semantics live one
// layer up, in the embedder/indexer that owns the fallback decision).
type Counter interface {
	Count(text string) (int, error)
}

// TiktokenCounter counts tokens with a cl100k_base BPE encoding, a widely
// used stand-in for provider-specific tokenizers when the real one isn't
// available client-side.
type TiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenCounter loads the named encoding (default "cl100k_base" if
// empty). A load failure is the caller's cue to fall back to char-estimate
// mode and log once, per the ErrTokenizerUnavailable error kind.
func NewTiktokenCounter(encoding string) (*TiktokenCounter, error) {
	if encoding == "" {
		encoding = "cl100k_base"
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: load encoding %s: %w", encoding, err)
	}
	return &TiktokenCounter{enc: enc}, nil
}

func (c *TiktokenCounter) Count(text string) (int, error) {
	return len(c.enc.Encode(text, nil, nil)), nil
}

// CharEstimate is a constant-time pre-filter: ceil(chars/4).
func CharEstimate(code string) int {
	return int(math.Ceil(float64(len(code)) / 4.0))
}

const defaultCacheCapacity = 1024

type cacheKey struct {
	hash    string
	limits  Limits
	allowed bool
}

// Analyzer is the C5 Tokenizer / Size Analyzer: hybrid char-estimate/real-
// tokenize classification with a bounded LRU cache keyed by (code, limits,
// allowEstimateForSkip).
type Analyzer struct {
	counter Counter
	cache   *lru.Cache[cacheKey, Result]
	log     *slog.Logger

	mu               sync.Mutex
	warnedUnavailable bool
}

// New builds an Analyzer. counter may be nil, in which case every call
// behaves as if the tokenizer were unavailable and downgrades to character
// mode (logging the downgrade once).
func New(counter Counter, cacheCapacity int, log *slog.Logger) *Analyzer {
	if cacheCapacity <= 0 {
		cacheCapacity = defaultCacheCapacity
	}
	cache, err := lru.New[cacheKey, Result](cacheCapacity)
	if err != nil {
		cache, _ = lru.New[cacheKey, Result](defaultCacheCapacity)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Analyzer{counter: counter, cache: cache, log: log}
}

func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:8])
}

// Analyze classifies a single snippet per §4.5's hybrid strategy.
//
// Step 1 always runs the character pre-filter against relaxed bounds.
// Step 2: if allowEstimateForSkip is true and the pre-filter says
// too_large, the estimate is returned without tokenizing (safe: oversized
// chunks will be subdivided regardless of the exact count).
// Step 3: otherwise tokenize (or, if no counter is configured, fall back to
// the char estimate against the exact bounds and log the downgrade once).
func (a *Analyzer) Analyze(code string, limits Limits, allowEstimateForSkip bool) Result {
	key := cacheKey{hash: hashCode(code) + fmt.Sprintf("|%d", len(code)), limits: limits, allowed: allowEstimateForSkip}
	if r, ok := a.cache.Get(key); ok {
		return r
	}

	estimate := CharEstimate(code)
	prefilterDecision := classify(estimate, limits.relaxed())

	if allowEstimateForSkip && prefilterDecision == TooLarge {
		r := Result{Size: estimate, Decision: TooLarge, Method: MethodCharEstimate}
		a.cache.Add(key, r)
		return r
	}

	if a.counter == nil {
		a.warnUnavailableOnce()
		r := Result{Size: estimate, Decision: classify(estimate, limits), Method: MethodCharEstimate}
		a.cache.Add(key, r)
		return r
	}

	count, err := a.counter.Count(code)
	if err != nil {
		a.warnUnavailableOnce()
		r := Result{Size: estimate, Decision: classify(estimate, limits), Method: MethodCharEstimate}
		a.cache.Add(key, r)
		return r
	}

	r := Result{Size: count, Decision: classify(count, limits), Method: MethodTokenized}
	a.cache.Add(key, r)
	return r
}

func (a *Analyzer) warnUnavailableOnce() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.warnedUnavailable {
		return
	}
	a.warnedUnavailable = true
	a.log.Warn("tokenizer unavailable, downgrading to character-estimate mode")
}

// BatchAnalyze classifies many snippets, tokenizing the uncached subset in
// parallel. A bounded worker pool keeps this from spawning one goroutine
// per snippet on large batches.
func (a *Analyzer) BatchAnalyze(codes []string, limits Limits, allowEstimateForSkip bool) []Result {
	results := make([]Result, len(codes))

	type job struct {
		idx  int
		code string
	}
	var misses []job
	for i, code := range codes {
		key := cacheKey{hash: hashCode(code) + fmt.Sprintf("|%d", len(code)), limits: limits, allowed: allowEstimateForSkip}
		if r, ok := a.cache.Get(key); ok {
			results[i] = r
			continue
		}
		misses = append(misses, job{idx: i, code: code})
	}
	if len(misses) == 0 {
		return results
	}

	const maxWorkers = 8
	workers := maxWorkers
	if len(misses) < workers {
		workers = len(misses)
	}
	jobs := make(chan job)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results[j.idx] = a.Analyze(j.code, limits, allowEstimateForSkip)
			}
		}()
	}
	for _, j := range misses {
		jobs <- j
	}
	close(jobs)
	wg.Wait()
	return results
}
