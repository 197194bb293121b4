package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lildb-project/lildb/internal/bufmgr"
	"github.com/lildb-project/lildb/internal/heap"
	"github.com/lildb-project/lildb/internal/lilderr"
	"github.com/lildb-project/lildb/internal/schema"
	"github.com/lildb-project/lildb/internal/storage"
)

// heapMeta is one heap file's catalog entry, persisted as JSON alongside
// the database's data and metadata files. JSON is used here (rather than
// the page-level binary formats) since it is read rarely and off the hot
// path.
type heapMeta struct {
	Name         string          `json:"name"`
	HeaderPageId storage.PageId  `json:"header_page_id"`
	Schema       json.RawMessage `json:"schema"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Database is one open, connected database: its disk manager plus a
// catalog of named heap files.
type Database struct {
	name   string
	dm     *storage.DiskManager
	bufmgr *bufmgr.BufferManager

	mu      sync.Mutex
	catalog map[string]heapMeta
	open    map[string]*heap.File
}

func newDatabase(name string, dm *storage.DiskManager, bp *bufmgr.BufferManager) *Database {
	return &Database{
		name:    name,
		dm:      dm,
		bufmgr:  bp,
		catalog: make(map[string]heapMeta),
		open:    make(map[string]*heap.File),
	}
}

func (db *Database) catalogPath() string {
	return filepath.Join(db.dm.Dir(), "catalog.json")
}

func (db *Database) loadCatalog() error {
	data, err := os.ReadFile(db.catalogPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return lilderr.Wrap(lilderr.IO, err, "reading catalog for database %q", db.name)
	}
	var entries []heapMeta
	if err := json.Unmarshal(data, &entries); err != nil {
		return lilderr.Wrap(lilderr.Internal, err, "decoding catalog for database %q", db.name)
	}
	for _, e := range entries {
		db.catalog[e.Name] = e
	}
	return nil
}

func (db *Database) writeCatalogLocked() error {
	entries := make([]heapMeta, 0, len(db.catalog))
	for _, e := range db.catalog {
		entries = append(entries, e)
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return lilderr.Wrap(lilderr.Internal, err, "encoding catalog for database %q", db.name)
	}
	return os.WriteFile(db.catalogPath(), data, 0o644)
}

// Name returns the database's (lowercased) name.
func (db *Database) Name() string { return db.name }

// CreateHeap creates a new heap file named name with the given schema,
// registers it in the catalog, and returns its handle.
func (db *Database) CreateHeap(name string, s schema.Schema) (*heap.File, error) {
	schemaBytes, err := s.Encode()
	if err != nil {
		return nil, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.loadCatalog(); err != nil {
		return nil, err
	}
	if _, ok := db.catalog[name]; ok {
		return nil, lilderr.New(lilderr.Action, "heap file %q already exists in database %q", name, db.name)
	}

	hf, err := heap.Create(db.bufmgr, db.dm, schemaBytes)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	db.catalog[name] = heapMeta{
		Name:         name,
		HeaderPageId: hf.HeaderPageId(),
		Schema:       json.RawMessage(mustMarshalSchema(s)),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := db.writeCatalogLocked(); err != nil {
		return nil, err
	}
	db.open[name] = hf
	return hf, nil
}

// OpenHeap reopens a previously-created heap file by name.
func (db *Database) OpenHeap(name string) (*heap.File, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if hf, ok := db.open[name]; ok {
		return hf, nil
	}

	if err := db.loadCatalog(); err != nil {
		return nil, err
	}
	meta, ok := db.catalog[name]
	if !ok {
		return nil, lilderr.New(lilderr.Action, "heap file %q not found in database %q", name, db.name)
	}

	hf, err := heap.Open(db.bufmgr, db.dm, meta.HeaderPageId)
	if err != nil {
		return nil, err
	}
	db.open[name] = hf
	return hf, nil
}

// Close flushes every dirty frame in the shared buffer manager (those of
// other databases included) and closes this database's disk manager.
func (db *Database) Close() error {
	if err := db.bufmgr.FlushAll(); err != nil {
		logger().Warn("flush during database close reported errors", "name", db.name, "error", err)
	}
	return db.dm.Close()
}

func mustMarshalSchema(s schema.Schema) []byte {
	data, err := json.Marshal(s)
	if err != nil {
		return []byte("null")
	}
	return data
}
