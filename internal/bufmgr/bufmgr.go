package bufmgr

import (
	"sync"
	"time"
	"weak"

	"go.uber.org/atomic"
	"go.uber.org/multierr"

	"github.com/lildb-project/lildb/internal/lilderr"
	"github.com/lildb-project/lildb/internal/storage"
)

const (
	// PoolSize is the production frame-count ceiling.
	PoolSize = 100
	// TestPoolSize is the frame-count ceiling used by tests.
	TestPoolSize = 10
	// PollSleep is the cooperative backoff between eviction attempts
	// when no frame is currently evictable.
	PollSleep = 100 * time.Millisecond
)

// Reopener reopens a disk manager by database id, used to flush a page
// whose originating disk manager's weak reference has expired.
type Reopener func(databaseID storage.DatabaseId) (*storage.DiskManager, error)

// BufferManager is the process-wide page cache. All databases share one
// instance's frames.
type BufferManager struct {
	mu sync.Mutex

	poolSize int
	frames   []*Frame
	index    map[pageKey]int

	accessCounter atomic.Uint64

	dmRegistry map[storage.DatabaseId]weak.Pointer[storage.DiskManager]
	reopener   Reopener
}

// New constructs a standalone buffer manager with the given frame
// ceiling. Production code should use Global(); this is for tests and
// for any caller that deliberately wants an isolated pool.
func New(poolSize int) *BufferManager {
	return &BufferManager{
		poolSize:   poolSize,
		index:      make(map[pageKey]int),
		dmRegistry: make(map[storage.DatabaseId]weak.Pointer[storage.DiskManager]),
	}
}

var (
	globalOnce sync.Once
	global     *BufferManager

	// TestMu serializes tests that reset the singleton via ResetForTest,
	// since they'd otherwise race each other on the one process-wide pool.
	TestMu sync.Mutex
)

// Global returns the lazily-initialized, process-wide buffer manager.
func Global() *BufferManager {
	globalOnce.Do(func() { global = New(PoolSize) })
	return global
}

// ResetForTest replaces the global buffer manager with a fresh instance
// of the given size. Callers must hold TestMu first.
func ResetForTest(poolSize int) *BufferManager {
	global = New(poolSize)
	return global
}

// SetReopener installs the function used to reopen a disk manager whose
// weak reference has expired. Called once at daemon startup.
func (mgr *BufferManager) SetReopener(fn Reopener) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	mgr.reopener = fn
}

// Pin obtains (or installs) a frame for (dm.DatabaseId(), pageID) and
// increments its pin count. The caller must Release the returned handle
// exactly once.
func (mgr *BufferManager) Pin(pageID storage.PageId, dm *storage.DiskManager) (*PinnedPage, error) {
	mgr.mu.Lock()
	mgr.accessCounter.Add(1)
	access := mgr.accessCounter.Load()
	mgr.dmRegistry[dm.DatabaseId()] = weak.Make(dm)
	key := pageKey{dm.DatabaseId(), pageID}

	if idx, ok := mgr.index[key]; ok {
		f := mgr.frames[idx]
		f.pinCount++
		f.lastAccess = access
		h := mgr.handleLocked(idx)
		mgr.mu.Unlock()
		return h, nil
	}
	mgr.mu.Unlock()

	for {
		// Read outside the mutex: holding it here would serialize all
		// disk I/O across the process.
		buf, err := dm.ReadPage(pageID)
		if err != nil {
			return nil, lilderr.Wrap(lilderr.IO, err, "loading page %d for pin", pageID)
		}

		mgr.mu.Lock()

		// Duplicate-miss race: another goroutine may have installed this
		// page while we were reading. Re-check before doing anything else.
		if idx, ok := mgr.index[key]; ok {
			f := mgr.frames[idx]
			f.pinCount++
			mgr.accessCounter.Add(1)
			f.lastAccess = mgr.accessCounter.Load()
			h := mgr.handleLocked(idx)
			mgr.mu.Unlock()
			return h, nil
		}

		if len(mgr.frames) < mgr.poolSize {
			f := &Frame{
				databaseID: dm.DatabaseId(),
				pageID:     pageID,
				bytes:      &sharedBytes{buf: *buf},
				dirty:      &dirtyFlag{},
				pinCount:   1,
				lastAccess: mgr.accessCounter.Load(),
			}
			idx := len(mgr.frames)
			mgr.frames = append(mgr.frames, f)
			mgr.index[key] = idx
			h := mgr.handleLocked(idx)
			mgr.mu.Unlock()
			logger().Debug("installed frame", "database_id", uint64(dm.DatabaseId()), "page_id", uint32(pageID), "frame", idx)
			return h, nil
		}

		victimIdx, ok := mgr.pickVictimLocked()
		if !ok {
			mgr.mu.Unlock()
			time.Sleep(PollSleep)
			continue
		}

		victim := mgr.frames[victimIdx]
		if err := mgr.flushLocked(victim); err != nil {
			mgr.mu.Unlock()
			return nil, err
		}
		delete(mgr.index, pageKey{victim.databaseID, victim.pageID})

		victim.databaseID = dm.DatabaseId()
		victim.pageID = pageID
		victim.bytes = &sharedBytes{buf: *buf}
		victim.dirty = &dirtyFlag{}
		victim.pinCount = 1
		victim.lastAccess = mgr.accessCounter.Load()
		mgr.index[key] = victimIdx

		h := mgr.handleLocked(victimIdx)
		mgr.mu.Unlock()
		logger().Debug("evicted frame", "frame", victimIdx, "database_id", uint64(dm.DatabaseId()), "page_id", uint32(pageID))
		return h, nil
	}
}

// pickVictimLocked finds the unpinned frame with the smallest
// last_access_sequence, ties broken by lowest index. Caller holds mu.
func (mgr *BufferManager) pickVictimLocked() (int, bool) {
	best := -1
	var bestAccess uint64
	for i, f := range mgr.frames {
		if f.pinCount != 0 {
			continue
		}
		if best == -1 || f.lastAccess < bestAccess {
			best = i
			bestAccess = f.lastAccess
		}
	}
	return best, best != -1
}

func (mgr *BufferManager) handleLocked(idx int) *PinnedPage {
	f := mgr.frames[idx]
	return &PinnedPage{
		mgr:        mgr,
		index:      idx,
		bytes:      f.bytes,
		dirty:      f.dirty,
		databaseID: f.databaseID,
		pageID:     f.pageID,
	}
}

// unpin decrements a frame's pin count with saturating subtraction,
// defensive against double-release bugs.
func (mgr *BufferManager) unpin(idx int) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	f := mgr.frames[idx]
	if f.pinCount > 0 {
		f.pinCount--
	}
}

// resolveDiskManager finds a live disk manager for databaseID, upgrading
// the weak reference if possible or reopening one via the installed
// Reopener. Caller holds mu.
func (mgr *BufferManager) resolveDiskManager(databaseID storage.DatabaseId) *storage.DiskManager {
	if wp, ok := mgr.dmRegistry[databaseID]; ok {
		if dm := wp.Value(); dm != nil {
			return dm
		}
	}
	if mgr.reopener == nil {
		return nil
	}
	dm, err := mgr.reopener(databaseID)
	if err != nil {
		logger().Warn("reopen for flush failed", "database_id", uint64(databaseID), "error", err)
		return nil
	}
	mgr.dmRegistry[databaseID] = weak.Make(dm)
	return dm
}

// flushLocked writes a frame back if dirty. Caller holds mu.
func (mgr *BufferManager) flushLocked(f *Frame) error {
	f.dirty.mu.Lock()
	defer f.dirty.mu.Unlock()
	if !f.dirty.dirty {
		return nil
	}

	f.bytes.mu.RLock()
	buf := f.bytes.buf
	f.bytes.mu.RUnlock()

	dm := mgr.resolveDiskManager(f.databaseID)
	if dm == nil {
		err := lilderr.New(lilderr.Internal,
			"cannot resolve disk manager for database %d to flush page %d", uint64(f.databaseID), uint32(f.pageID))
		logger().Warn("flush failed", "error", err)
		return err
	}
	if err := dm.WritePage(f.pageID, &buf); err != nil {
		wrapped := lilderr.Wrap(lilderr.IO, err, "flushing page %d", f.pageID)
		logger().Warn("flush failed", "error", wrapped)
		return wrapped
	}
	f.dirty.dirty = false
	return nil
}

// FlushAll writes back every dirty resident frame. Per-frame failures are
// logged (inside flushLocked) and do not stop the sweep; the aggregate
// of any failures is returned via go.uber.org/multierr so a caller that
// wants to know can still find out.
func (mgr *BufferManager) FlushAll() error {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	var errs error
	for _, f := range mgr.frames {
		if err := mgr.flushLocked(f); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}
