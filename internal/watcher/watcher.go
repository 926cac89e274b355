package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/lemon07r/pampax/internal/embedder"
	"github.com/lemon07r/pampax/internal/fsutil"
	"github.com/lemon07r/pampax/internal/langs"
)

const minDebounce = 50 * time.Millisecond

// BatchResult is what a settled debounce window produced, passed to OnBatch
// after a successful Indexer Orchestrator run.
type BatchResult struct {
	Changed []string
	Deleted []string
}

// Indexer is the subset of the Indexer Orchestrator (C10) the Watcher needs.
// Kept as a narrow interface here rather than importing the concrete
// orchestrator type, so this package doesn't dictate C10's constructor
// shape.
type Indexer interface {
	IndexBatch(ctx context.Context, emb embedder.Embedder, changed, deleted []string) error
}

// Config configures a Watcher.
type Config struct {
	Root     string        // repo root to watch recursively
	Debounce time.Duration // floored to max(Debounce, 50ms)
	Indexer  Indexer

	// EmbedderFactory builds the single embedding provider instance the
	// Watcher reuses across every batch. Built lazily on first fire and
	// memoized even on failure, per §4.14 step 3.
	EmbedderFactory func() (embedder.Embedder, error)

	// Registry resolves which file extensions are source files worth
	// watching. Defaults to langs.Default().
	Registry *langs.Registry

	// OnBatch is called after a successful index run. If nil, a summary is
	// logged instead.
	OnBatch func(BatchResult)

	Logger *slog.Logger
}

// Watcher recursively watches Config.Root, debounces filesystem events into
// changed/deleted path sets, and drives Config.Indexer over each settled
// batch.
type Watcher struct {
	root     string
	debounce time.Duration
	indexer  Indexer
	registry *langs.Registry
	onBatch  func(BatchResult)
	logger   *slog.Logger

	embedderFactory func() (embedder.Embedder, error)
	embOnce         sync.Once
	emb             embedder.Embedder
	embErr          error

	fsw    *fsnotify.Watcher
	runCtx context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	changed    map[string]bool
	deleted    map[string]bool
	timer      *time.Timer
	processing bool

	closeOnce sync.Once
}

// New builds a Watcher for cfg. It does not start watching; call Start.
func New(cfg Config) (*Watcher, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("watcher: root required")
	}
	if cfg.Indexer == nil {
		return nil, fmt.Errorf("watcher: indexer required")
	}

	debounce := cfg.Debounce
	if debounce < minDebounce {
		debounce = minDebounce
	}

	registry := cfg.Registry
	if registry == nil {
		registry = langs.Default()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watcher: %w", err)
	}

	return &Watcher{
		root:            cfg.Root,
		debounce:        debounce,
		indexer:         cfg.Indexer,
		registry:        registry,
		onBatch:         cfg.OnBatch,
		logger:          logger,
		embedderFactory: cfg.EmbedderFactory,
		fsw:             fsw,
		changed:         make(map[string]bool),
		deleted:         make(map[string]bool),
	}, nil
}

// Start registers every non-denied directory under root and begins the
// event loop. ctx governs the lifetime of in-flight index batches; Close
// still drains any batch queued before it was canceled.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addRecursive(w.root); err != nil {
		return fmt.Errorf("watcher: %w", err)
	}

	w.runCtx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.loop(w.runCtx)

	w.logger.Info("watcher started", "root", w.root, "debounce", w.debounce)
	return nil
}

// Close stops watching, cancels in-flight indexing, and then flushes any
// changed/deleted paths that were pending but never fired. Idempotent.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		if w.cancel != nil {
			w.cancel()
		}
		if w.fsw != nil {
			_ = w.fsw.Close()
		}
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()

		w.wg.Wait()

		w.mu.Lock()
		changed := keysOf(w.changed)
		deleted := keysOf(w.deleted)
		w.changed = make(map[string]bool)
		w.deleted = make(map[string]bool)
		w.mu.Unlock()

		if len(changed) > 0 || len(deleted) > 0 {
			// Use a fresh context: runCtx is already canceled by the
			// shutdown above, but a final drain should still complete.
			w.process(context.Background(), changed, deleted)
		}
	})
	return nil
}

func (w *Watcher) addRecursive(root string) error {
	rootBase := filepath.Base(root)
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() != rootBase && fsutil.IsDeniedDir(d.Name()) {
			return filepath.SkipDir
		}
		if addErr := w.fsw.Add(path); addErr != nil && !os.IsNotExist(addErr) {
			w.logger.Warn("watcher: cannot watch dir", "path", path, "error", addErr)
		}
		return nil
	})
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name
	base := filepath.Base(path)
	if fsutil.IsDeniedDir(base) {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !fsutil.IsDeniedDir(base) {
				_ = w.addRecursive(path)
			}
			return
		}
	}

	if _, ok := w.registry.ForPath(path); !ok {
		return
	}

	w.mu.Lock()
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		delete(w.changed, path)
		w.deleted[path] = true
	case event.Has(fsnotify.Write), event.Has(fsnotify.Create), event.Has(fsnotify.Chmod):
		delete(w.deleted, path)
		w.changed[path] = true
	default:
		w.mu.Unlock()
		return
	}
	w.armTimerLocked()
	w.mu.Unlock()
}

func (w *Watcher) armTimerLocked() {
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

// fire runs on the debounce timer. If a batch is already processing it
// re-arms and returns without touching the pending sets (§4.14 step 1);
// otherwise it snapshots and clears them and dispatches a batch.
func (w *Watcher) fire() {
	w.mu.Lock()
	if w.processing {
		w.armTimerLocked()
		w.mu.Unlock()
		return
	}
	if len(w.changed) == 0 && len(w.deleted) == 0 {
		w.mu.Unlock()
		return
	}

	changed := keysOf(w.changed)
	deleted := keysOf(w.deleted)
	w.changed = make(map[string]bool)
	w.deleted = make(map[string]bool)
	w.processing = true
	w.mu.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.process(w.runCtx, changed, deleted)

		w.mu.Lock()
		w.processing = false
		needsRearm := len(w.changed) > 0 || len(w.deleted) > 0
		if needsRearm {
			w.armTimerLocked()
		}
		w.mu.Unlock()
	}()
}

func (w *Watcher) process(ctx context.Context, changed, deleted []string) {
	emb, err := w.getEmbedder()
	if err != nil {
		w.logger.Error("watcher: embedding provider unavailable, skipping batch",
			"error", err, "changed", len(changed), "deleted", len(deleted))
		return
	}

	if err := w.indexer.IndexBatch(ctx, emb, changed, deleted); err != nil {
		w.logger.Error("watcher: batch index failed", "error", err,
			"changed", len(changed), "deleted", len(deleted))
		return
	}

	result := BatchResult{Changed: changed, Deleted: deleted}
	if w.onBatch != nil {
		w.onBatch(result)
		return
	}
	w.logger.Info("watcher: batch indexed", "changed", len(changed), "deleted", len(deleted))
}

func (w *Watcher) getEmbedder() (embedder.Embedder, error) {
	w.embOnce.Do(func() {
		if w.embedderFactory == nil {
			w.embErr = fmt.Errorf("watcher: no embedder factory configured")
			return
		}
		w.emb, w.embErr = w.embedderFactory()
		if w.embErr != nil {
			w.logger.Error("watcher: embedding provider init failed", "error", w.embErr)
		}
	})
	return w.emb, w.embErr
}

func keysOf(m map[string]bool) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
