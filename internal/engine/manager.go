package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"unikb/internal/corpus"
	"unikb/internal/index"
)

// State is the lifecycle manager's current phase.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateChecking      State = "checking"
	StateReusing       State = "reusing"
	StateRebuilding    State = "rebuilding"
	StateReady         State = "ready"
)

// Mode is resolved once at construction: advanced when both external
// services are wired, simple otherwise. The degraded path is a mode of
// the one manager, not a second manager type.
type Mode string

const (
	ModeAdvanced Mode = "advanced"
	ModeSimple   Mode = "simple"
)

// ErrNotReady is returned by retrieval before a successful (re)load.
var ErrNotReady = errors.New("knowledge engine not ready")

// fingerprintFileName is the corpus fingerprint, a sibling of the
// serialized index inside the index directory.
const fingerprintFileName = "fingerprint.json"

// Stats is a snapshot for the status endpoint.
type Stats struct {
	State     State  `json:"state"`
	Mode      Mode   `json:"mode"`
	Documents int    `json:"documents"`
	Passages  int    `json:"passages"`
	IndexDir  string `json:"index_dir,omitempty"`
}

// Manager owns the vector index lifecycle: fingerprint comparison,
// conditional rebuild, and persistence. It is the only component that
// decides between reusing a cached index and rebuilding, and the only
// writer of the persisted index and fingerprint.
//
// Queries may run concurrently once ready; rebuilds are serialized by an
// in-process mutex plus a file lock, and swap the index atomically under
// the write lock.
type Manager struct {
	loader   *corpus.Loader
	chunker  *corpus.Chunker
	embedder index.Embedder // nil in simple mode
	indexDir string
	mode     Mode
	logger   *slog.Logger

	// rebuildMu serializes rebuilds; fileLock guards the persisted index
	// directory against a second process.
	rebuildMu sync.Mutex
	fileLock  *flock.Flock

	// mu guards idx, docs and state.
	mu    sync.RWMutex
	idx   *index.Index
	docs  []corpus.Document
	state State
}

// NewManager creates a lifecycle manager. A nil embedder selects simple
// mode: no index is ever built and queries run on keyword search alone.
func NewManager(loader *corpus.Loader, chunker *corpus.Chunker, embedder index.Embedder, indexDir string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	mode := ModeAdvanced
	if embedder == nil {
		mode = ModeSimple
	}
	return &Manager{
		loader:   loader,
		chunker:  chunker,
		embedder: embedder,
		indexDir: indexDir,
		mode:     mode,
		fileLock: flock.New(filepath.Join(indexDir, ".lock")),
		logger:   logger,
		state:    StateUninitialized,
	}
}

// Mode returns the mode resolved at construction.
func (m *Manager) Mode() Mode {
	return m.mode
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Ready reports whether queries can be served from the corpus.
func (m *Manager) Ready() bool {
	return m.State() == StateReady
}

// Stats returns a snapshot for diagnostics.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := Stats{State: m.state, Mode: m.mode, Documents: len(m.docs)}
	if m.idx != nil {
		s.Passages = m.idx.Len()
	}
	if m.mode == ModeAdvanced {
		s.IndexDir = m.indexDir
	}
	return s
}

// Documents returns the current raw document set. The slice is shared
// and must be treated as read-only; documents are never mutated after a
// load pass.
func (m *Manager) Documents() []corpus.Document {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.docs
}

// Reload brings the manager to ready, reusing the persisted index when
// the corpus fingerprint is unchanged and rebuilding otherwise. With
// force set the fingerprint check is skipped and a rebuild always runs.
//
// Reloads are serialized; a second concurrent call blocks until the
// first finishes, then runs its own pass (which the fingerprint check
// makes cheap).
func (m *Manager) Reload(ctx context.Context, force bool) error {
	m.rebuildMu.Lock()
	defer m.rebuildMu.Unlock()

	if m.mode == ModeSimple {
		return m.reloadSimple()
	}

	m.setState(StateChecking)

	if err := os.MkdirAll(m.indexDir, 0o750); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}
	if err := m.fileLock.Lock(); err != nil {
		return fmt.Errorf("locking index directory: %w", err)
	}
	defer func() {
		if err := m.fileLock.Unlock(); err != nil {
			m.logger.Warn("releasing index lock", "error", err)
		}
	}()

	current, err := corpus.ComputeFingerprint(m.loader.Root())
	if err != nil {
		m.setState(StateUninitialized)
		return fmt.Errorf("fingerprinting corpus: %w", err)
	}

	fpPath := filepath.Join(m.indexDir, fingerprintFileName)

	if !force {
		if reused := m.tryReuse(fpPath, current); reused {
			return nil
		}
	} else {
		m.logger.Info("forced reload, skipping fingerprint check")
	}

	return m.rebuild(ctx, current, fpPath)
}

// tryReuse loads the persisted index when the stored fingerprint matches
// the current corpus exactly. Any failure falls through to rebuild.
func (m *Manager) tryReuse(fpPath string, current corpus.Fingerprint) bool {
	persisted, err := corpus.LoadFingerprint(fpPath)
	if err != nil {
		m.logger.Info("no usable fingerprint, rebuilding", "error", err)
		return false
	}

	if !persisted.Equal(current) {
		diff := corpus.DiffFingerprints(persisted, current)
		m.logger.Info("corpus drift detected",
			"added", len(diff.Added),
			"removed", len(diff.Removed),
			"modified", len(diff.Modified))
		return false
	}

	m.setState(StateReusing)
	idx, err := index.Load(m.indexDir)
	if err != nil {
		// Corrupt cache is a cache miss, never fatal.
		m.logger.Warn("persisted index unusable, rebuilding", "error", err)
		return false
	}

	// Raw documents are still needed on warm starts: status reporting
	// counts them, and keyword search uses them if the engine later
	// drops out of ready. Extraction is cheap next to embedding.
	docs, err := m.loader.Load()
	if err != nil {
		m.logger.Warn("loading corpus documents", "error", err)
	}

	m.mu.Lock()
	m.idx = idx
	m.docs = docs
	m.state = StateReady
	m.mu.Unlock()

	m.logger.Info("index reused from cache", "passages", idx.Len(), "documents", len(docs))
	return true
}

// rebuild runs the full Loader → Chunker → Build pipeline and persists
// the result: index first, fingerprint second, so a crash between the
// two writes can never leave a fingerprint vouching for a stale index.
func (m *Manager) rebuild(ctx context.Context, current corpus.Fingerprint, fpPath string) error {
	m.setState(StateRebuilding)

	// Drop the old fingerprint up front: from here on the persisted
	// index is stale and must not be reused by anyone.
	if err := os.Remove(fpPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("discarding stale fingerprint: %w", err)
	}

	docs, err := m.loader.Load()
	if err != nil {
		m.setState(StateUninitialized)
		return fmt.Errorf("loading corpus: %w", err)
	}

	// Keep the raw documents even if embedding fails below: the facade
	// degrades to keyword search over them when the index never comes up.
	m.mu.Lock()
	m.docs = docs
	m.mu.Unlock()

	passages := m.chunker.SplitAll(docs)
	m.logger.Info("corpus chunked", "documents", len(docs), "passages", len(passages))

	// Embedding failure is fatal to this build attempt: a partial index
	// is worse than no index.
	idx, err := index.Build(ctx, passages, m.embedder, m.logger)
	if err != nil {
		m.setState(StateUninitialized)
		return fmt.Errorf("building vector index: %w", err)
	}

	m.mu.Lock()
	m.idx = idx
	m.state = StateReady
	m.mu.Unlock()

	if err := idx.Save(m.indexDir); err != nil {
		// The in-memory index is fine; only the cache is lost. The
		// fingerprint is deliberately not written either.
		m.logger.Warn("persisting index failed, cache disabled for this corpus", "error", err)
		return nil
	}
	if err := corpus.SaveFingerprint(fpPath, current); err != nil {
		m.logger.Warn("persisting fingerprint failed, next start will rebuild", "error", err)
		return nil
	}

	m.logger.Info("index rebuilt and persisted", "passages", idx.Len(), "dir", m.indexDir)
	return nil
}

// reloadSimple loads raw documents for keyword search; no fingerprint,
// no index, no external services.
func (m *Manager) reloadSimple() error {
	m.setState(StateChecking)

	docs, err := m.loader.Load()
	if err != nil {
		m.setState(StateUninitialized)
		return fmt.Errorf("loading corpus: %w", err)
	}

	m.mu.Lock()
	m.docs = docs
	m.state = StateReady
	m.mu.Unlock()

	m.logger.Info("simple mode corpus loaded", "documents", len(docs))
	return nil
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}
