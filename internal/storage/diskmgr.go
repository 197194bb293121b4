package storage

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/lildb-project/lildb/internal/lilderr"
)

func logger() *slog.Logger { return slog.Default().With("component", "diskmgr") }

// DiskManager owns one database's on-disk file: page-granular reads and
// writes, allocation through a free list, and the small metadata blob
// describing the database. It is meant to be shared (via a normal Go
// pointer, kept alive by whoever holds it, and observed weakly by the
// buffer manager — see internal/bufmgr).
type DiskManager struct {
	id   DatabaseId
	name string
	dir  string

	dataFile *os.File

	fileMu sync.RWMutex // serializes reads/writes to dataFile

	stateMu      sync.RWMutex // guards pageCount and freeListHead
	pageCount    uint32
	freeListHead PageId

	metaMu   sync.Mutex
	metadata Metadata
}

func dbDir(root string, id DatabaseId) string {
	return filepath.Join(root, strconv.FormatUint(uint64(id), 10))
}

// Create makes a brand new database directory, data file, and metadata
// file. Fails with an Action error if the directory already exists.
func Create(root string, id DatabaseId, name string) (*DiskManager, error) {
	dir := dbDir(root, id)
	if _, err := os.Stat(dir); err == nil {
		return nil, lilderr.New(lilderr.Action, "database %q already exists", name)
	} else if !os.IsNotExist(err) {
		return nil, lilderr.Wrap(lilderr.IO, err, "checking database directory")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, lilderr.Wrap(lilderr.IO, err, "creating database directory")
	}

	f, err := os.OpenFile(filepath.Join(dir, "database.dat"), os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, lilderr.Wrap(lilderr.IO, err, "creating data file")
	}

	dm := &DiskManager{
		id:           id,
		name:         name,
		dir:          dir,
		dataFile:     f,
		pageCount:    0,
		freeListHead: NoPage,
		metadata:     Metadata{StorageEngineVersion: EngineVersion, Name: name},
	}

	if err := dm.writeMetadata(); err != nil {
		f.Close()
		return nil, err
	}

	logger().Info("created database", "name", name, "database_id", uint64(id))
	return dm, nil
}

// Reopen opens an existing database directory. Fails with an IO error if
// the directory, data file, or metadata file is missing, and a Config
// error if the stored engine version doesn't match the running one.
func Reopen(root string, id DatabaseId) (*DiskManager, error) {
	dir := dbDir(root, id)
	if _, err := os.Stat(dir); err != nil {
		return nil, lilderr.Wrap(lilderr.IO, err, "database directory missing")
	}

	metaBytes, err := os.ReadFile(filepath.Join(dir, "metadata.dat"))
	if err != nil {
		return nil, lilderr.Wrap(lilderr.IO, err, "reading metadata file")
	}
	meta, err := DecodeMetadata(metaBytes)
	if err != nil {
		return nil, err
	}
	if meta.StorageEngineVersion != EngineVersion {
		return nil, lilderr.New(lilderr.Config,
			"storage engine version mismatch: file has %q, running %q", meta.StorageEngineVersion, EngineVersion)
	}

	f, err := os.OpenFile(filepath.Join(dir, "database.dat"), os.O_RDWR, 0o644)
	if err != nil {
		return nil, lilderr.Wrap(lilderr.IO, err, "opening data file")
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, lilderr.Wrap(lilderr.IO, err, "statting data file")
	}
	// Truncated to whole pages when the file size isn't an exact multiple
	// of PageSize (integer division), per the reopen Open Question.
	pageCount := uint32(info.Size() / PageSize)

	dm := &DiskManager{
		id:           id,
		name:         meta.Name,
		dir:          dir,
		dataFile:     f,
		pageCount:    pageCount,
		freeListHead: NoPage,
		metadata:     meta,
	}
	logger().Info("reopened database", "name", meta.Name, "database_id", uint64(id), "page_count", pageCount)
	return dm, nil
}

func (dm *DiskManager) DatabaseId() DatabaseId { return dm.id }
func (dm *DiskManager) Name() string           { return dm.name }

// Dir returns the database's on-disk directory, so collaborators (e.g.
// internal/session's heap-file catalog) can keep small sidecar files
// next to database.dat/metadata.dat without the disk manager needing to
// know about them.
func (dm *DiskManager) Dir() string { return dm.dir }

func (dm *DiskManager) PageCount() uint32 {
	dm.stateMu.RLock()
	defer dm.stateMu.RUnlock()
	return dm.pageCount
}

// ReadPage reads the page at page_id * PageSize. It does not bounds-check
// against page_count; callers (the buffer manager) only ever request
// pages they know were allocated.
func (dm *DiskManager) ReadPage(id PageId) (*PageBytes, error) {
	if err := advisoryLock(dm.dataFile, false); err != nil {
		return nil, lilderr.Wrap(lilderr.IO, err, "acquiring shared file lock")
	}
	defer advisoryUnlock(dm.dataFile)

	dm.fileMu.RLock()
	defer dm.fileMu.RUnlock()
	return dm.readAt(id)
}

func (dm *DiskManager) readAt(id PageId) (*PageBytes, error) {
	var buf PageBytes
	_, err := dm.dataFile.ReadAt(buf[:], int64(id)*PageSize)
	if err != nil {
		return nil, lilderr.Wrap(lilderr.IO, err, "reading page %d", id)
	}
	return &buf, nil
}

// WritePage writes the page at page_id * PageSize and flushes. Durability
// is best-effort per write, not transactional.
func (dm *DiskManager) WritePage(id PageId, buf *PageBytes) error {
	if err := advisoryLock(dm.dataFile, true); err != nil {
		return lilderr.Wrap(lilderr.IO, err, "acquiring exclusive file lock")
	}
	defer advisoryUnlock(dm.dataFile)

	dm.fileMu.Lock()
	defer dm.fileMu.Unlock()
	return dm.writeAt(id, buf)
}

func (dm *DiskManager) writeAt(id PageId, buf *PageBytes) error {
	if _, err := dm.dataFile.WriteAt(buf[:], int64(id)*PageSize); err != nil {
		return lilderr.Wrap(lilderr.IO, err, "writing page %d", id)
	}
	if err := dm.dataFile.Sync(); err != nil {
		return lilderr.Wrap(lilderr.IO, err, "flushing page %d", id)
	}
	return nil
}

// NewPage allocates a page id: popping the free list if non-empty,
// otherwise growing the file by one page. Concurrent callers are
// serialized so returned ids are unique.
func (dm *DiskManager) NewPage() (PageId, error) {
	dm.stateMu.Lock()
	defer dm.stateMu.Unlock()

	if dm.freeListHead != NoPage {
		id := dm.freeListHead
		buf, err := dm.readAt(id)
		if err != nil {
			return 0, err
		}
		next := HeaderNext(buf)

		var fresh PageBytes
		SetHeaderNext(&fresh, NoPage)
		SetHeaderPrev(&fresh, NoPage)
		if err := dm.writeAt(id, &fresh); err != nil {
			return 0, err
		}

		dm.freeListHead = next
		return id, nil
	}

	id := PageId(dm.pageCount)
	var fresh PageBytes
	SetHeaderNext(&fresh, NoPage)
	SetHeaderPrev(&fresh, NoPage)
	if err := dm.writeAt(id, &fresh); err != nil {
		return 0, err
	}
	dm.pageCount++
	return id, nil
}

// FreePage prepends the given page to the free list.
func (dm *DiskManager) FreePage(id PageId) error {
	dm.stateMu.Lock()
	defer dm.stateMu.Unlock()

	buf, err := dm.readAt(id)
	if err != nil {
		return err
	}
	SetHeaderNext(buf, dm.freeListHead)
	if err := dm.writeAt(id, buf); err != nil {
		return err
	}
	dm.freeListHead = id
	return nil
}

func (dm *DiskManager) writeMetadata() error {
	dm.metaMu.Lock()
	defer dm.metaMu.Unlock()
	return os.WriteFile(filepath.Join(dm.dir, "metadata.dat"), dm.metadata.Encode(), 0o644)
}

// Close writes the current metadata blob and closes the underlying file,
// the functional equivalent of the original's Drop-time metadata flush.
func (dm *DiskManager) Close() error {
	if err := dm.writeMetadata(); err != nil {
		logger().Warn("failed to write metadata on close", "name", dm.name, "error", err)
	}
	return dm.dataFile.Close()
}
