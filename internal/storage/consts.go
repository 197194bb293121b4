// Package storage implements the on-disk half of the engine: fixed-size
// pages, a free list, and one file per database.
package storage

const (
	// PageSize is the fixed size, in bytes, of every page on disk and in
	// the buffer pool.
	PageSize = 4096

	// HeaderSize is the size of the generic two-field page header
	// (next_page_id, prev_page_id), both little-endian uint32.
	HeaderSize = 8

	// DataLen is the portion of a page available to higher layers.
	DataLen = PageSize - HeaderSize

	// NoPage is the sentinel "absent" page id, used for an empty free
	// list head and for unset next/prev links on a fresh page.
	NoPage PageId = 1<<32 - 1

	// MaxDatabaseNameLen is the hard ceiling on a stored database name
	// (spec: "at most 249 (config-level max 252) characters").
	MaxDatabaseNameLen = 249

	// EngineVersion is compared against a reopened database's stored
	// metadata; a mismatch is a Config error.
	EngineVersion = "lildb-1"
)

// PageId identifies a page within one database. Allocated contiguously,
// may be recycled through the free list.
type PageId uint32

// DatabaseId is a stable 64-bit integer derived by hashing the database
// name, distinguishing pages from different databases in one buffer pool.
type DatabaseId uint64
