// Package ratelimit implements the C9 Rate Limiter: a FIFO sliding-window
// request throttle guarding the embedding and reranker HTTP calls (C8, C13)
// make.
//
// The window bookkeeping (prune-then-check-then-record under one mutex,
// keyed slice of dispatch timestamps) follows
// itsddvn-goclaw/internal/tools.ToolRateLimiter, generalized from a
// per-key hourly cap to a single 60-second window with a configurable RPM.
// The retry-on-429 ladder is a fixed schedule
// ([1s, 2s, 5s, 10s]) implemented as a small custom backoff.BackOff that
// cenkalti/backoff/v4's Retry drives; internal/embedder's providers route their batch calls through
// Execute rather than hand-rolling their own retry loop.
package ratelimit
