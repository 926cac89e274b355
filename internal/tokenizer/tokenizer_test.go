package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCounter struct{ perChar float64 }

func (f fakeCounter) Count(text string) (int, error) {
	return int(float64(len(text)) * f.perChar), nil
}

func TestCharEstimate(t *testing.T) {
	assert.Equal(t, 0, CharEstimate(""))
	assert.Equal(t, 1, CharEstimate("abc"))
	assert.Equal(t, 3, CharEstimate("12345678901"))
}

func TestAnalyze_TooSmallRequiresRealTokenization(t *testing.T) {
	// allowEstimateForSkip=false must always tokenize, never estimate, for
	// the too_small classification.
	a := New(fakeCounter{perChar: 0.25}, 0, nil)
	limits := Limits{Min: 50, Optimal: 200, Max: 700}

	code := strings.Repeat("x", 40) // ~10 tokens via fake counter
	r := a.Analyze(code, limits, false)
	require.Equal(t, MethodTokenized, r.Method)
	assert.Equal(t, TooSmall, r.Decision)
}

func TestAnalyze_AllowEstimateForSkipShortCircuitsOversized(t *testing.T) {
	a := New(fakeCounter{perChar: 0.25}, 0, nil)
	limits := Limits{Min: 50, Optimal: 200, Max: 100}

	code := strings.Repeat("x", 10000) // huge under any estimate
	r := a.Analyze(code, limits, true)
	assert.Equal(t, MethodCharEstimate, r.Method)
	assert.Equal(t, TooLarge, r.Decision)
}

func TestAnalyze_NoCounterFallsBackToCharEstimate(t *testing.T) {
	a := New(nil, 0, nil)
	limits := Limits{Min: 1, Optimal: 10, Max: 100}
	r := a.Analyze("hello world", limits, false)
	assert.Equal(t, MethodCharEstimate, r.Method)
}

func TestAnalyze_CachesByCodeAndLimits(t *testing.T) {
	calls := 0
	counter := countingFunc(func(s string) (int, error) {
		calls++
		return len(s), nil
	})
	a := New(counter, 0, nil)
	limits := Limits{Min: 1, Optimal: 10, Max: 1000}

	a.Analyze("same code", limits, false)
	a.Analyze("same code", limits, false)
	assert.Equal(t, 1, calls, "second call should hit the LRU cache")

	other := Limits{Min: 1, Optimal: 20, Max: 1000}
	a.Analyze("same code", other, false)
	assert.Equal(t, 2, calls, "different limits should miss the cache")
}

type countingFunc func(string) (int, error)

func (f countingFunc) Count(s string) (int, error) { return f(s) }

func TestBatchAnalyze(t *testing.T) {
	a := New(fakeCounter{perChar: 1}, 0, nil)
	limits := Limits{Min: 1, Optimal: 10, Max: 100}
	codes := []string{"a", "bb", "ccc", "dddd"}
	results := a.BatchAnalyze(codes, limits, false)
	require.Len(t, results, 4)
	for i, r := range results {
		assert.Equal(t, len(codes[i]), r.Size)
	}
}

func TestLimits_Relaxed(t *testing.T) {
	l := Limits{Min: 100, Optimal: 500, Max: 700}
	r := l.relaxed()
	assert.Equal(t, 80, r.Min)
	assert.Equal(t, 400, r.Optimal)
	assert.Equal(t, 840, r.Max)
}
