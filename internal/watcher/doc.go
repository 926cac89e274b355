// Package watcher implements the C14 File Watcher: a debounced, recursive
// fsnotify watcher over a repo root that coalesces filesystem events into
// changed/deleted path sets and hands each settled batch to the Indexer
// Orchestrator (C10).
//
// The structure — a single fsnotify.Watcher, an event loop goroutine, and a
// mutex-guarded pending/timer pair reset on every event — is grounded on
// itsddvn-goclaw's internal/skills.Watcher, generalized from a single
// boolean "something changed" flag to per-path changed/deleted sets and
// from a fixed debounce to a configurable max(configured, 50ms) floor. A
// "batch still processing, re-arm" guard is
// added because a real index run can outlast the debounce window, which
// goclaw's cheap version-bump callback never needed to consider.
package watcher
