package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/lemon07r/pampax/pkg/types"
)

// Limiter is a FIFO sliding-window request throttle. A Limiter with rpm <= 0
// is unlimited: Wait always returns immediately.
type Limiter struct {
	mu         sync.Mutex
	rpm        int
	window     time.Duration
	timestamps []time.Time
	clock      func() time.Time
}

// New builds a Limiter capping dispatches to rpm requests per rolling
// 60-second window.
func New(rpm int) *Limiter {
	return &Limiter{rpm: rpm, window: time.Minute, clock: time.Now}
}

// Wait blocks until a dispatch slot is free, records the dispatch timestamp,
// and returns. It returns ctx.Err() if ctx is canceled first.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.rpm <= 0 {
		return nil
	}
	for {
		l.mu.Lock()
		now := l.clock()
		l.prune(now)
		if len(l.timestamps) < l.rpm {
			l.timestamps = append(l.timestamps, now)
			l.mu.Unlock()
			return nil
		}
		wait := l.timestamps[0].Add(l.window).Sub(now)
		l.mu.Unlock()
		if wait <= 0 {
			wait = time.Millisecond
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	start := 0
	for start < len(l.timestamps) && l.timestamps[start].Before(cutoff) {
		start++
	}
	l.timestamps = l.timestamps[start:]
}

// retryLadder is a fixed retry schedule as a backoff.BackOff:
// [1s, 2s, 5s, 10s], then Stop.
type retryLadder struct {
	delays []time.Duration
	idx    int
}

func newRetryLadder() *retryLadder {
	return &retryLadder{delays: []time.Duration{time.Second, 2 * time.Second, 5 * time.Second, 10 * time.Second}}
}

func (r *retryLadder) NextBackOff() time.Duration {
	if r.idx >= len(r.delays) {
		return backoff.Stop
	}
	d := r.delays[r.idx]
	r.idx++
	return d
}

func (r *retryLadder) Reset() { r.idx = 0 }

// Classifier decides whether an error from a rate-limited call should be
// retried against the fixed ladder.
type Classifier func(error) bool

// DefaultClassify reports whether err's text mentions "429", "rate limit"
// or "too many requests". Callers whose HTTP client exposes the status code
// directly should prefer ClassifyStatus.
func DefaultClassify(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests")
}

// ClassifyStatus is DefaultClassify plus a direct HTTP status check, for
// callers that still have the *http.Response in hand.
func ClassifyStatus(statusCode int, err error) bool {
	return statusCode == http.StatusTooManyRequests || DefaultClassify(err)
}

// Execute runs fn through the limiter, retrying rate-limit failures on the
// fixed [1s, 2s, 5s, 10s] ladder. A nil classify defaults to
// DefaultClassify. Non-rate-limit errors are never retried. After the
// ladder is exhausted, the returned error wraps types.ErrRateLimitExhausted.
func Execute[T any](ctx context.Context, l *Limiter, classify Classifier, fn func(ctx context.Context) (T, error)) (T, error) {
	if classify == nil {
		classify = DefaultClassify
	}

	var result T
	var rateLimited bool

	op := func() error {
		if err := l.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		r, err := fn(ctx)
		if err == nil {
			result = r
			return nil
		}
		if !classify(err) {
			return backoff.Permanent(err)
		}
		rateLimited = true
		return err
	}

	err := backoff.Retry(op, backoff.WithContext(newRetryLadder(), ctx))
	if err != nil {
		if rateLimited {
			return result, fmt.Errorf("%w: %v", types.ErrRateLimitExhausted, err)
		}
		return result, err
	}
	return result, nil
}
