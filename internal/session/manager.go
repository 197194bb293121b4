// Package session owns the process-wide registry of open databases:
// name validation, id derivation, and per-database heap-file catalogs.
package session

import (
	"hash/fnv"
	"log/slog"
	"strings"
	"sync"

	"github.com/lildb-project/lildb/internal/bufmgr"
	"github.com/lildb-project/lildb/internal/lilderr"
	"github.com/lildb-project/lildb/internal/storage"
)

func logger() *slog.Logger { return slog.Default().With("component", "session") }

// ValidateDatabaseName enforces the rule the original server applied at
// database-create time: non-empty, ASCII alphanumeric plus '_'/'-' only,
// case-folded to lowercase, within maxLen.
func ValidateDatabaseName(name string, maxLen int) (string, error) {
	if len(name) == 0 {
		return "", lilderr.New(lilderr.Validation, "database name must not be empty")
	}
	if len(name) > maxLen {
		return "", lilderr.New(lilderr.Validation, "database name %q exceeds maximum length %d", name, maxLen)
	}
	for _, c := range name {
		isAlnum := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
		if !isAlnum && c != '_' && c != '-' {
			return "", lilderr.New(lilderr.Validation,
				"database name %q is invalid: only letters, numbers, dashes, and underscores are allowed", name)
		}
	}
	return strings.ToLower(name), nil
}

// DatabaseIdFor derives the stable 64-bit id a database name hashes to:
// FNV-1a over the lowercased name. Deterministic, no external seed,
// exactly the width storage.DatabaseId needs.
func DatabaseIdFor(lowercasedName string) storage.DatabaseId {
	h := fnv.New64a()
	_, _ = h.Write([]byte(lowercasedName))
	return storage.DatabaseId(h.Sum64())
}

// Manager is the process-wide registry of open databases, keyed by name.
type Manager struct {
	root   string
	bufmgr *bufmgr.BufferManager
	maxLen int

	mu   sync.Mutex
	open map[string]*Database
}

// NewManager returns a registry rooted at root, using bp for all paging.
func NewManager(root string, bp *bufmgr.BufferManager, maxNameLen int) *Manager {
	m := &Manager{root: root, bufmgr: bp, maxLen: maxNameLen, open: make(map[string]*Database)}
	bp.SetReopener(m.reopenDiskManager)
	return m
}

func (m *Manager) reopenDiskManager(id storage.DatabaseId) (*storage.DiskManager, error) {
	return storage.Reopen(m.root, id)
}

// CreateDatabase validates name, creates its on-disk directory, and
// registers it as open.
func (m *Manager) CreateDatabase(name string) (*Database, error) {
	lower, err := ValidateDatabaseName(name, m.maxLen)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.open[lower]; ok {
		return nil, lilderr.New(lilderr.Action, "database %q is already open", lower)
	}

	id := DatabaseIdFor(lower)
	dm, err := storage.Create(m.root, id, lower)
	if err != nil {
		return nil, err
	}

	db := newDatabase(lower, dm, m.bufmgr)
	m.open[lower] = db
	logger().Info("database created", "name", lower, "database_id", uint64(id))
	return db, nil
}

// OpenDatabase validates name, reopens its on-disk directory if not
// already open, and returns the registered handle.
func (m *Manager) OpenDatabase(name string) (*Database, error) {
	lower, err := ValidateDatabaseName(name, m.maxLen)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if db, ok := m.open[lower]; ok {
		return db, nil
	}

	id := DatabaseIdFor(lower)
	dm, err := storage.Reopen(m.root, id)
	if err != nil {
		return nil, err
	}

	db := newDatabase(lower, dm, m.bufmgr)
	m.open[lower] = db
	logger().Info("database opened", "name", lower, "database_id", uint64(id))
	return db, nil
}

// Close closes name's disk manager and removes it from the registry.
func (m *Manager) Close(name string) error {
	lower := strings.ToLower(name)

	m.mu.Lock()
	db, ok := m.open[lower]
	if ok {
		delete(m.open, lower)
	}
	m.mu.Unlock()

	if !ok {
		return lilderr.New(lilderr.Action, "database %q is not open", lower)
	}
	return db.Close()
}

// CloseAll closes every open database. Failures are not returned: each
// error is logged here and swallowed, matching the shutdown-time logging
// convention.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	dbs := make([]*Database, 0, len(m.open))
	for _, db := range m.open {
		dbs = append(dbs, db)
	}
	m.open = make(map[string]*Database)
	m.mu.Unlock()

	for _, db := range dbs {
		if err := db.Close(); err != nil {
			logger().Warn("failed to close database during shutdown", "name", db.name, "error", err)
		}
	}
}
