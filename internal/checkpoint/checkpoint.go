// Package checkpoint persists the set of already-processed document
// identifiers so an interrupted ingestion run can resume without
// reprocessing or duplicating entries.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/open-inbox/openinbox-cli/internal/core/ports/driven"
	"github.com/open-inbox/openinbox-cli/internal/logger"
)

// Ensure Manager implements the interface.
var _ driven.Checkpoint = (*Manager)(nil)

// FileName is the checkpoint file name within the collection cache dir.
const FileName = "processed_docs.json"

// State is the checkpoint lifecycle state.
type State int

// Lifecycle states. Fresh -> Resumed -> Active -> Flushed on interruption,
// or Active -> Done on normal completion (no flush; the prior file on disk
// stays authoritative until superseded).
const (
	StateFresh State = iota
	StateResumed
	StateActive
	StateFlushed
	StateDone
)

// Manager tracks processed identifiers for one collection's cache
// directory. It is owned exclusively by the run process for the run's
// duration; the mutex only guards against the interruption handler
// firing concurrently with the extraction loop.
type Manager struct {
	mu    sync.Mutex
	path  string
	ids   map[string]struct{}
	state State
}

// NewManager creates a checkpoint manager rooted at the given cache dir.
func NewManager(cacheDir string) *Manager {
	return &Manager{
		path: filepath.Join(cacheDir, FileName),
		ids:  make(map[string]struct{}),
	}
}

// Restore loads the identifier set written by a prior interrupted run.
// A missing file means a fresh start. Idempotent: repeated calls after the
// first are no-ops.
func (m *Manager) Restore() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateFresh {
		return nil
	}

	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			m.state = StateActive
			return nil
		}
		return fmt.Errorf("reading checkpoint: %w", err)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return fmt.Errorf("decoding checkpoint: %w", err)
	}

	for _, id := range ids {
		m.ids[id] = struct{}{}
	}
	m.state = StateResumed
	logger.Info("Resumed checkpoint with %d processed documents", len(ids))
	return nil
}

// Done reports whether a document identifier has already been processed.
func (m *Manager) Done(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.ids[id]
	return ok
}

// MarkDone records an identifier as processed, in memory only. Callers
// must only invoke this after the identifier's record has been fully
// built, so an interruption never records a document as done without an
// emitted record.
func (m *Manager) MarkDone(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids[id] = struct{}{}
	m.state = StateActive
}

// Count returns the number of processed identifiers.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ids)
}

// Flush writes the identifier set to disk. Called from the interruption
// handler; it captures the set atomically relative to the extraction loop
// and performs no I/O beyond the local checkpoint file.
func (m *Manager) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.ids))
	for id := range m.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encoding checkpoint: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0700); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0600); err != nil {
		return fmt.Errorf("writing checkpoint: %w", err)
	}

	m.state = StateFlushed
	logger.Info("Flushed checkpoint with %d processed documents", len(ids))
	return nil
}

// Complete marks a normal (non-interrupted) run as done without flushing.
func (m *Manager) Complete() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateDone
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Path returns the checkpoint file path.
func (m *Manager) Path() string {
	return m.path
}
