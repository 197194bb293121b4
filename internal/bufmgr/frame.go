// Package bufmgr implements the process-wide buffer pool: a bounded
// cache of page frames shared across every open database, with
// pin/unpin, strict least-recently-used eviction, and flush-on-evict.
package bufmgr

import (
	"log/slog"
	"sync"

	"github.com/lildb-project/lildb/internal/storage"
)

func logger() *slog.Logger { return slog.Default().With("component", "bufmgr") }

type pageKey struct {
	databaseID storage.DatabaseId
	pageID     storage.PageId
}

// sharedBytes is the frame's page content, shared between the frame
// itself and every outstanding PinnedPage handle for it. Reads may
// overlap; writes are exclusive.
type sharedBytes struct {
	mu  sync.RWMutex
	buf storage.PageBytes
}

// dirtyFlag is deliberately a separate, short-held mutex from bytes: a
// writer setting dirty shouldn't have to hold the (potentially long)
// bytes lock to do it, and a reader checking dirty during flush
// shouldn't block behind in-flight page writes any longer than it has to.
type dirtyFlag struct {
	mu    sync.Mutex
	dirty bool
}

// Frame is one slot in the buffer pool.
type Frame struct {
	databaseID storage.DatabaseId
	pageID     storage.PageId
	bytes      *sharedBytes
	dirty      *dirtyFlag
	pinCount   uint32
	lastAccess uint64
}
