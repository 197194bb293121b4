package heap

import (
	"github.com/lildb-project/lildb/internal/bufmgr"
	"github.com/lildb-project/lildb/internal/lilderr"
	"github.com/lildb-project/lildb/internal/storage"
)

// Heap page layout, within the DataLen-byte data region of a pinned page:
//
//	offset 0: free_space_size (u16)
//	offset 2: free_space_ptr  (u16)
//	...tuple payloads growing forward from free_space_ptr...
//	...slot directory growing backward from the tail...
//	last 2 bytes: n_slots (u16)
//
// Each slot is 4 bytes: size_with_occupancy_bit (u16, high bit = live),
// offset (u16).
const (
	freeSpaceSizeOffset = 0
	freeSpacePtrOffset  = 2
	slotSize            = 4
	nSlotsOffset        = storage.DataLen - 2

	// defaultFreeSpaceSize is the raw free_space_size a freshly
	// initialized page starts with: the data region minus the 4 bytes
	// of front header fields and the 2 bytes of the n_slots tail field.
	defaultFreeSpaceSize = storage.DataLen - 6

	occupancyBit = uint16(0x8000)
	sizeMask     = uint16(0x7FFF)
)

func slotOffset(slot uint16) int {
	return nSlotsOffset - (int(slot)+1)*slotSize
}

// InitHeapPage resets a freshly allocated page's data region into an
// empty heap page.
func InitHeapPage(p *bufmgr.PinnedPage) error {
	if err := p.WriteU16(freeSpaceSizeOffset, defaultFreeSpaceSize); err != nil {
		return err
	}
	if err := p.WriteU16(freeSpacePtrOffset, 4); err != nil {
		return err
	}
	return p.WriteU16(nSlotsOffset, 0)
}

// FreeSpace reports the page's free-space directory value: the raw
// free_space_size counter minus one slot's worth of overhead, since any
// further insert into this page will need to allocate a new slot too.
func FreeSpace(p *bufmgr.PinnedPage) (uint16, error) {
	raw, err := p.ReadU16(freeSpaceSizeOffset)
	if err != nil {
		return 0, err
	}
	if raw < slotSize {
		return 0, nil
	}
	return raw - slotSize, nil
}

// NumSlots reports the page's slot count, including dead (deleted)
// slots.
func NumSlots(p *bufmgr.PinnedPage) (uint16, error) {
	return p.ReadU16(nSlotsOffset)
}

// InsertTuple writes tuple into the page's free space and appends a new
// live slot for it, returning the new slot number.
func InsertTuple(p *bufmgr.PinnedPage, tuple []byte) (uint16, error) {
	need := len(tuple) + slotSize
	raw, err := p.ReadU16(freeSpaceSizeOffset)
	if err != nil {
		return 0, err
	}
	if int(raw) < need {
		return 0, lilderr.New(lilderr.Action, "heap page has insufficient free space: need %d, have %d", need, raw)
	}

	ptr, err := p.ReadU16(freeSpacePtrOffset)
	if err != nil {
		return 0, err
	}
	if err := p.WriteBytes(int(ptr), tuple); err != nil {
		return 0, err
	}
	if err := p.WriteU16(freeSpacePtrOffset, ptr+uint16(len(tuple))); err != nil {
		return 0, err
	}
	if err := p.WriteU16(freeSpaceSizeOffset, raw-uint16(need)); err != nil {
		return 0, err
	}

	nSlots, err := p.ReadU16(nSlotsOffset)
	if err != nil {
		return 0, err
	}
	off := slotOffset(nSlots)
	if err := p.WriteU16(off, uint16(len(tuple))|occupancyBit); err != nil {
		return 0, err
	}
	if err := p.WriteU16(off+2, ptr); err != nil {
		return 0, err
	}
	if err := p.WriteU16(nSlotsOffset, nSlots+1); err != nil {
		return 0, err
	}
	return nSlots, nil
}

// GetTuple reads the slot's bytes. The second return is false when the
// slot's occupancy bit is clear (a deleted or never-written slot).
func GetTuple(p *bufmgr.PinnedPage, slot uint16) ([]byte, bool, error) {
	nSlots, err := p.ReadU16(nSlotsOffset)
	if err != nil {
		return nil, false, err
	}
	if slot >= nSlots {
		return nil, false, lilderr.New(lilderr.Internal, "slot %d out of range (n_slots=%d)", slot, nSlots)
	}
	off := slotOffset(slot)
	sizeWord, err := p.ReadU16(off)
	if err != nil {
		return nil, false, err
	}
	if sizeWord&occupancyBit == 0 {
		return nil, false, nil
	}
	size := sizeWord & sizeMask
	offset, err := p.ReadU16(off + 2)
	if err != nil {
		return nil, false, err
	}
	data, err := p.ReadBytes(int(offset), int(size))
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// DeleteTuple clears a slot's occupancy bit. Compaction is out of scope;
// the freed space is not reclaimed until the page is rewritten.
func DeleteTuple(p *bufmgr.PinnedPage, slot uint16) error {
	nSlots, err := p.ReadU16(nSlotsOffset)
	if err != nil {
		return err
	}
	if slot >= nSlots {
		return lilderr.New(lilderr.Internal, "slot %d out of range (n_slots=%d)", slot, nSlots)
	}
	off := slotOffset(slot)
	sizeWord, err := p.ReadU16(off)
	if err != nil {
		return err
	}
	return p.WriteU16(off, sizeWord&sizeMask)
}
