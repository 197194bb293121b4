// Package heap organizes pages into a doubly-linked list of tuple-holding
// pages (a heap file): insertion into a page with enough free space,
// tombstone deletion, and forward scans.
package heap

import (
	"io"
	"sync"

	"github.com/lildb-project/lildb/internal/bufmgr"
	"github.com/lildb-project/lildb/internal/lilderr"
	"github.com/lildb-project/lildb/internal/storage"
)

// File is a heap file: a header page (holding the serialized schema)
// plus a circular list of data pages, each with its own slot directory.
type File struct {
	mu sync.Mutex

	headerPageId storage.PageId
	dm           *storage.DiskManager
	bp           *bufmgr.BufferManager

	// pageSpaceDir tracks each data page's remaining free space, so
	// Insert can pick a candidate page without scanning the list.
	pageSpaceDir map[storage.PageId]uint16
}

// Create serializes schemaBytes onto a freshly allocated header page,
// allocates one data page, threads the two into a 2-node circular list,
// and initializes the data page as an empty heap page.
func Create(bp *bufmgr.BufferManager, dm *storage.DiskManager, schemaBytes []byte) (*File, error) {
	if len(schemaBytes) > storage.DataLen {
		return nil, lilderr.New(lilderr.Action,
			"schema of %d bytes exceeds the %d-byte page data region", len(schemaBytes), storage.DataLen)
	}

	headerId, err := dm.NewPage()
	if err != nil {
		return nil, err
	}
	headerPP, err := bp.Pin(headerId, dm)
	if err != nil {
		return nil, err
	}
	defer headerPP.Release()

	if err := headerPP.WriteBytes(0, schemaBytes); err != nil {
		return nil, err
	}

	firstId, err := dm.NewPage()
	if err != nil {
		return nil, err
	}
	firstPP, err := bp.Pin(firstId, dm)
	if err != nil {
		return nil, err
	}
	defer firstPP.Release()

	if err := InitHeapPage(firstPP); err != nil {
		return nil, err
	}

	headerPP.SetNext(firstId)
	headerPP.SetPrev(firstId)
	firstPP.SetNext(headerId)
	firstPP.SetPrev(headerId)

	freeSpace, err := FreeSpace(firstPP)
	if err != nil {
		return nil, err
	}

	return &File{
		headerPageId: headerId,
		dm:           dm,
		bp:           bp,
		pageSpaceDir: map[storage.PageId]uint16{firstId: freeSpace},
	}, nil
}

// Open reconstructs a File's in-memory free-space directory by walking
// the on-disk circular list of an already-existing heap file identified
// by its header page.
func Open(bp *bufmgr.BufferManager, dm *storage.DiskManager, headerPageId storage.PageId) (*File, error) {
	f := &File{
		headerPageId: headerPageId,
		dm:           dm,
		bp:           bp,
		pageSpaceDir: make(map[storage.PageId]uint16),
	}

	headerPP, err := bp.Pin(headerPageId, dm)
	if err != nil {
		return nil, err
	}
	cur := headerPP.Next()
	headerPP.Release()

	for cur != headerPageId {
		pp, err := bp.Pin(cur, dm)
		if err != nil {
			return nil, err
		}
		fs, err := FreeSpace(pp)
		if err != nil {
			pp.Release()
			return nil, err
		}
		next := pp.Next()
		pp.Release()

		f.pageSpaceDir[cur] = fs
		cur = next
	}
	return f, nil
}

// HeaderPageId returns the page identifying this heap file.
func (f *File) HeaderPageId() storage.PageId { return f.headerPageId }

// SchemaBytes returns the header page's data region, which holds the
// caller's serialized schema at offset 0.
func (f *File) SchemaBytes() ([]byte, error) {
	pp, err := f.bp.Pin(f.headerPageId, f.dm)
	if err != nil {
		return nil, err
	}
	defer pp.Release()
	return pp.ReadBytes(0, storage.DataLen)
}

// Insert writes tupleBytes into a page with enough free space (picking
// one from the directory, or allocating a new page right after the
// header if none qualifies), returning the tuple's location.
func (f *File) Insert(tupleBytes []byte) (TupleId, error) {
	f.mu.Lock()
	var chosen storage.PageId
	found := false
	for pid, free := range f.pageSpaceDir {
		if int(free) >= len(tupleBytes) {
			chosen = pid
			found = true
			break
		}
	}
	f.mu.Unlock()

	if !found {
		var err error
		chosen, err = f.allocatePageAfterHeader()
		if err != nil {
			return TupleId{}, err
		}
	}

	pp, err := f.bp.Pin(chosen, f.dm)
	if err != nil {
		return TupleId{}, err
	}
	defer pp.Release()

	slot, err := InsertTuple(pp, tupleBytes)
	if err != nil {
		return TupleId{}, err
	}

	freeSpace, err := FreeSpace(pp)
	if err != nil {
		return TupleId{}, err
	}

	f.mu.Lock()
	f.pageSpaceDir[chosen] = freeSpace
	f.mu.Unlock()

	return TupleId{PageId: chosen, Slot: slot}, nil
}

// allocatePageAfterHeader allocates a new data page and splices it into
// the circular list immediately after the header, keeping the
// most-free page toward the front.
func (f *File) allocatePageAfterHeader() (storage.PageId, error) {
	newId, err := f.dm.NewPage()
	if err != nil {
		return 0, err
	}
	newPP, err := f.bp.Pin(newId, f.dm)
	if err != nil {
		return 0, err
	}
	defer newPP.Release()

	if err := InitHeapPage(newPP); err != nil {
		return 0, err
	}

	headerPP, err := f.bp.Pin(f.headerPageId, f.dm)
	if err != nil {
		return 0, err
	}
	defer headerPP.Release()

	oldFirst := headerPP.Next()

	newPP.SetNext(oldFirst)
	newPP.SetPrev(f.headerPageId)

	if oldFirst != f.headerPageId {
		oldFirstPP, err := f.bp.Pin(oldFirst, f.dm)
		if err != nil {
			return 0, err
		}
		oldFirstPP.SetPrev(newId)
		oldFirstPP.Release()
	}

	headerPP.SetNext(newId)

	freeSpace, err := FreeSpace(newPP)
	if err != nil {
		return 0, err
	}
	f.mu.Lock()
	f.pageSpaceDir[newId] = freeSpace
	f.mu.Unlock()

	return newId, nil
}

// Delete clears the occupancy bit of the slot named by id. Compaction is
// out of scope; the directory's free-space estimate for that page is
// left unchanged until the page is next inserted into.
func (f *File) Delete(id TupleId) error {
	pp, err := f.bp.Pin(id.PageId, f.dm)
	if err != nil {
		return err
	}
	defer pp.Release()
	return DeleteTuple(pp, id.Slot)
}

// Scan is a stateful forward cursor over every live tuple in the file.
type Scan struct {
	f       *File
	started bool
	done    bool
	curPage storage.PageId
	curSlot uint16
}

// NewScan begins a scan from the start of the heap file's page list.
func (f *File) NewScan() *Scan {
	return &Scan{f: f}
}

// Next returns the next live tuple, or io.EOF once the cursor has
// returned to the header page.
func (s *Scan) Next() (TupleId, []byte, error) {
	for {
		if s.done {
			return TupleId{}, nil, io.EOF
		}

		if !s.started {
			headerPP, err := s.f.bp.Pin(s.f.headerPageId, s.f.dm)
			if err != nil {
				return TupleId{}, nil, err
			}
			next := headerPP.Next()
			headerPP.Release()

			s.started = true
			s.curPage = next
			s.curSlot = 0
			if s.curPage == s.f.headerPageId {
				s.done = true
				continue
			}
		}

		pp, err := s.f.bp.Pin(s.curPage, s.f.dm)
		if err != nil {
			return TupleId{}, nil, err
		}

		nSlots, err := NumSlots(pp)
		if err != nil {
			pp.Release()
			return TupleId{}, nil, err
		}

		for s.curSlot < nSlots {
			slot := s.curSlot
			s.curSlot++
			data, ok, err := GetTuple(pp, slot)
			if err != nil {
				pp.Release()
				return TupleId{}, nil, err
			}
			if !ok {
				continue
			}
			id := TupleId{PageId: s.curPage, Slot: slot}
			pp.Release()
			return id, data, nil
		}

		next := pp.Next()
		pp.Release()

		if next == s.f.headerPageId {
			s.done = true
			continue
		}
		s.curPage = next
		s.curSlot = 0
	}
}
